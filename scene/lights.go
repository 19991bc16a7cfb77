package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"roomwalk/core"
)

// AmbientLight lights every surface equally.
type AmbientLight struct {
	Color     core.Color
	Intensity float32
}

// Radiance is colour times intensity.
func (l *AmbientLight) Radiance() core.Color {
	return l.Color.Scale(l.Intensity)
}

// DirectionalLight shines parallel rays from Position towards Target.
type DirectionalLight struct {
	Color     core.Color
	Intensity float32
	Position  mgl32.Vec3
	Target    mgl32.Vec3
}

// Direction is the unit vector the light travels along.
func (l *DirectionalLight) Direction() mgl32.Vec3 {
	d := l.Target.Sub(l.Position)
	if d.Len() == 0 {
		return mgl32.Vec3{0, -1, 0}
	}
	return d.Normalize()
}

func (l *DirectionalLight) Radiance() core.Color {
	return l.Color.Scale(l.Intensity)
}

// RigConfig describes the two-light setup.
type RigConfig struct {
	AmbientColor     uint32
	AmbientIntensity float32
	SunColor         uint32
	SunIntensity     float32
	SunPosition      mgl32.Vec3
}

// DefaultRig is a dim grey fill plus a white key light from (1,1,1).
func DefaultRig() RigConfig {
	return RigConfig{
		AmbientColor:     0x404040,
		AmbientIntensity: 2,
		SunColor:         0xffffff,
		SunIntensity:     1,
		SunPosition:      mgl32.Vec3{1, 1, 1},
	}
}

// AddLightingRig installs the ambient fill and the directional key light.
// Calling it again replaces the previous rig.
func AddLightingRig(s *Scene, cfg RigConfig) (*AmbientLight, *DirectionalLight) {
	ambient := &AmbientLight{
		Color:     core.ColorFromHex(cfg.AmbientColor),
		Intensity: cfg.AmbientIntensity,
	}
	pos := cfg.SunPosition
	if pos.Len() > 0 {
		pos = pos.Normalize()
	}
	sun := &DirectionalLight{
		Color:     core.ColorFromHex(cfg.SunColor),
		Intensity: cfg.SunIntensity,
		Position:  pos,
	}
	s.Ambient = ambient
	s.Directional = []*DirectionalLight{sun}
	return ambient, sun
}
