package viewer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"roomwalk/controls"
)

// Status is the once-a-second summary the host shows in its title bar.
type Status struct {
	FPS      int
	Position mgl32.Vec3
	Lock     controls.LockState
}

func (s Status) Title(base string) string {
	hint := ""
	if s.Lock != controls.Locked {
		hint = " | click to look around"
	}
	return fmt.Sprintf("%s | FPS: %d | (%.1f, %.1f, %.1f)%s",
		base, s.FPS, s.Position[0], s.Position[1], s.Position[2], hint)
}

// fpsCounter counts frames over one-second windows of frame time.
type fpsCounter struct {
	frames  int
	elapsed float64
}

// tick records a frame and reports the rate when a full second has passed.
func (c *fpsCounter) tick(dt float64) (int, bool) {
	c.frames++
	c.elapsed += dt
	if c.elapsed < 1 {
		return 0, false
	}
	fps := int(float64(c.frames)/c.elapsed + 0.5)
	c.frames, c.elapsed = 0, 0
	return fps, true
}
