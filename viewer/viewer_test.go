package viewer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus/hooks/test"

	"roomwalk/assets"
	"roomwalk/config"
	"roomwalk/controls"
	"roomwalk/core"
	"roomwalk/input"
	"roomwalk/scene"
)

type fakeHost struct {
	polls, swaps int
	closeAfter   int // ShouldClose turns true after this many swaps; 0 = never
}

func (h *fakeHost) PollEvents()       { h.polls++ }
func (h *fakeHost) SwapBuffers()      { h.swaps++ }
func (h *fakeHost) ShouldClose() bool { return h.closeAfter > 0 && h.swaps >= h.closeAfter }

type fakeDrawer struct {
	renders       int
	width, height int
	err           error
}

func (d *fakeDrawer) Render(*scene.Scene, *scene.Camera) error {
	d.renders++
	return d.err
}

func (d *fakeDrawer) SetSize(w, h int) { d.width, d.height = w, h }

type fakeLocker struct{ requests, exits int }

func (l *fakeLocker) RequestPointerLock() { l.requests++ }
func (l *fakeLocker) ExitPointerLock()    { l.exits++ }

type fixedClock float64

func (c fixedClock) Delta() float64 { return float64(c) }

type fixture struct {
	v      *Viewer
	host   *fakeHost
	drawer *fakeDrawer
	locker *fakeLocker
}

func newFixture(t *testing.T, decode assets.DecodeFunc, opts ...Option) fixture {
	t.Helper()
	cfg := config.Default()
	cfg.StartPosition = [3]float32{}
	if decode == nil {
		decode = func(string) (*scene.GLTFResult, error) {
			return &scene.GLTFResult{Roots: []*scene.Node{scene.NewNode("Room")}}, nil
		}
	}

	log, _ := test.NewNullLogger()
	loader := assets.NewLoader(context.Background(), assets.WithLogger(log), assets.WithDecoder(decode))
	t.Cleanup(loader.Close)

	f := fixture{host: &fakeHost{}, drawer: &fakeDrawer{}, locker: &fakeLocker{}}
	opts = append([]Option{WithLoader(loader), WithLogger(log), WithClock(fixedClock(0.016))}, opts...)
	f.v = New(context.Background(), cfg, f.host, f.drawer, f.locker, opts...)
	f.v.Controls.SetLogger(log)
	return f
}

func vecNear(a, b mgl32.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-5)
}

func TestNewBuildsScene(t *testing.T) {
	f := newFixture(t, nil)
	v := f.v

	if v.Scene.Background.Hex() != 0xeeeeee {
		t.Errorf("background = %06x", v.Scene.Background.Hex())
	}
	if v.Scene.Ambient == nil || len(v.Scene.Directional) != 1 {
		t.Fatal("lighting rig missing")
	}
	if !v.Scene.Contains(v.Controls.Object()) {
		t.Error("camera not attached to the scene")
	}
	if v.Camera.FOV != 75 || v.Camera.NearPlane != 0.1 || v.Camera.FarPlane != 1000 {
		t.Errorf("camera = %+v", v.Camera)
	}
	if v.Controls.PointerSpeed != 0.5 {
		t.Errorf("pointer speed = %v", v.Controls.PointerSpeed)
	}
}

func TestForwardHalfSecondMovesOnePointFive(t *testing.T) {
	f := newFixture(t, nil)
	f.v.HandleKey(core.KeyW, core.Press)

	f.v.Frame(0.5)

	if got := f.v.Camera.Position; !vecNear(got, mgl32.Vec3{0, 0, -1.5}) {
		t.Errorf("position = %v, want (0,0,-1.5)", got)
	}
}

func TestAdvanceSpeedTimesDelta(t *testing.T) {
	cases := []struct {
		name  string
		state input.State
		dt    float64
		want  mgl32.Vec3
	}{
		{"forward", input.State{Forward: true}, 0.25, mgl32.Vec3{0, 0, -0.75}},
		{"backward", input.State{Backward: true}, 1, mgl32.Vec3{0, 0, 3}},
		{"left", input.State{Left: true}, 0.1, mgl32.Vec3{-0.3, 0, 0}},
		{"right", input.State{Right: true}, 2, mgl32.Vec3{6, 0, 0}},
		{"zero dt", input.State{Forward: true}, 0, mgl32.Vec3{}},
		{"negative dt", input.State{Right: true}, -1, mgl32.Vec3{}},
		{"forward and backward cancel", input.State{Forward: true, Backward: true}, 0.7, mgl32.Vec3{}},
		{"left and right cancel", input.State{Left: true, Right: true}, 0.7, mgl32.Vec3{}},
		{"diagonal", input.State{Forward: true, Right: true}, 1, mgl32.Vec3{3, 0, -3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.v.Advance(tc.state, tc.dt)
			if got := f.v.Camera.Position; !vecNear(got, tc.want) {
				t.Errorf("position = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAdvanceFollowsHeading(t *testing.T) {
	f := newFixture(t, nil)
	f.v.Controls.SetOrientation(math.Pi, 0.4) // turned around, looking up

	f.v.Advance(input.State{Forward: true}, 1)

	if got := f.v.Camera.Position; !vecNear(got, mgl32.Vec3{0, 0, 3}) {
		t.Errorf("position = %v, want (0,0,3)", got)
	}
}

func TestKeyToggleWithoutFrameDoesNotMove(t *testing.T) {
	f := newFixture(t, nil)
	f.v.HandleKey(core.KeyW, core.Press)
	f.v.HandleKey(core.KeyW, core.Release)

	f.v.Frame(1)

	if f.v.Camera.Position != (mgl32.Vec3{}) {
		t.Errorf("moved to %v", f.v.Camera.Position)
	}
}

func TestResize(t *testing.T) {
	f := newFixture(t, nil)

	f.v.Resize(1920, 1080)
	if f.v.Camera.AspectRatio != float32(1920)/float32(1080) {
		t.Errorf("aspect = %v", f.v.Camera.AspectRatio)
	}
	if f.drawer.width != 1920 || f.drawer.height != 1080 {
		t.Errorf("surface = %dx%d", f.drawer.width, f.drawer.height)
	}

	f.v.Resize(800, 0)
	if f.drawer.height != 1080 {
		t.Error("minimised resize reached the drawer")
	}
	if w, h := f.v.Size(); w != 1920 || h != 1080 {
		t.Errorf("size = %dx%d", w, h)
	}
}

func TestEscapeAndFocusReleaseLock(t *testing.T) {
	f := newFixture(t, nil)

	f.v.HandleClick()
	if f.locker.requests != 1 || f.v.Controls.State() != controls.LockRequested {
		t.Fatalf("click did not request lock")
	}
	f.v.HandleLockChange(true)

	f.v.HandleKey(core.KeyEscape, core.Press)
	if f.locker.exits != 1 {
		t.Errorf("escape did not release the pointer")
	}
	f.v.HandleLockChange(false)

	f.v.HandleClick()
	f.v.HandleLockChange(true)
	f.v.HandleKey(core.KeyD, core.Press)
	f.v.HandleFocus(false)
	if f.v.Input.State().Any() {
		t.Error("held keys survived focus loss")
	}
	if f.locker.exits != 2 {
		t.Errorf("focus loss did not release the pointer")
	}
}

func TestMouseLookNeedsLock(t *testing.T) {
	f := newFixture(t, nil)
	f.v.HandleMouseMove(300, 0)
	if yaw, _ := f.v.Controls.Orientation(); yaw != 0 {
		t.Errorf("yaw = %v while unlocked", yaw)
	}

	f.v.HandleClick()
	f.v.HandleLockError()
	f.v.HandleMouseMove(300, 0)
	if yaw, _ := f.v.Controls.Orientation(); yaw != 0 {
		t.Errorf("yaw = %v after denied lock", yaw)
	}

	f.v.HandleClick()
	f.v.HandleLockChange(true)
	f.v.HandleMouseMove(300, 0)
	if yaw, _ := f.v.Controls.Orientation(); yaw >= 0 {
		t.Errorf("yaw = %v, want negative", yaw)
	}
}

// frameUntil runs frames until cond holds.
func frameUntil(t *testing.T, v *Viewer, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition never met")
		}
		v.Frame(0)
		time.Sleep(time.Millisecond)
	}
}

func TestModelAttachedOnLaterFrame(t *testing.T) {
	f := newFixture(t, nil)
	before := f.v.Scene.ChildCount()

	f.v.Start()
	frameUntil(t, f.v, func() bool { return f.v.Loader.Pending() == 0 })

	if f.v.Scene.ChildCount() != before+1 {
		t.Fatalf("child count = %d, want %d", f.v.Scene.ChildCount(), before+1)
	}
	room := f.v.Scene.Root.Find("Room")
	if room == nil || room.Parent.Scale != (mgl32.Vec3{100, 100, 100}) {
		t.Errorf("model not attached at scale 100")
	}
}

func TestLoadFailureKeepsLoopRunning(t *testing.T) {
	f := newFixture(t, func(string) (*scene.GLTFResult, error) {
		return nil, errors.New("not a glb")
	}, WithShouldContinue(func() bool { return true }))
	before := f.v.Scene.ChildCount()

	f.v.Start()
	frameUntil(t, f.v, func() bool { return f.v.Loader.Pending() == 0 })

	if f.v.Scene.ChildCount() != before {
		t.Errorf("failed load changed the scene")
	}

	f.host.closeAfter = f.host.swaps + 3
	if err := f.v.Run(context.Background()); err != nil {
		t.Fatalf("Run = %v", err)
	}
	if f.host.swaps != f.host.closeAfter {
		t.Errorf("swaps = %d", f.host.swaps)
	}
}

func TestRunStopsOnPredicate(t *testing.T) {
	remaining := 5
	f := newFixture(t, nil, WithShouldContinue(func() bool {
		remaining--
		return remaining >= 0
	}))
	f.v.HandleKey(core.KeyS, core.Press)

	if err := f.v.Run(context.Background()); err != nil {
		t.Fatalf("Run = %v", err)
	}
	if f.v.Frames() != 5 || f.drawer.renders != 5 || f.host.polls != 5 || f.host.swaps != 5 {
		t.Errorf("frames=%d renders=%d polls=%d swaps=%d",
			f.v.Frames(), f.drawer.renders, f.host.polls, f.host.swaps)
	}
	// 5 frames of 0.016s walking backward at 3 u/s
	if got := f.v.Camera.Position; !vecNear(got, mgl32.Vec3{0, 0, 0.24}) {
		t.Errorf("position = %v", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	frames := 0
	f := newFixture(t, nil, WithShouldContinue(func() bool {
		frames++
		if frames == 3 {
			cancel()
		}
		return true
	}))

	if err := f.v.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if f.drawer.renders != 3 {
		t.Errorf("renders = %d, want 3", f.drawer.renders)
	}
}

func TestRenderErrorDoesNotStopFrames(t *testing.T) {
	f := newFixture(t, nil)
	f.drawer.err = errors.New("lost context")
	f.v.Frame(0.1)
	f.v.Frame(0.1)
	if f.v.Frames() != 2 {
		t.Errorf("frames = %d", f.v.Frames())
	}
}

func TestSystemClock(t *testing.T) {
	base := time.Unix(100, 0)
	times := []time.Time{base, base.Add(250 * time.Millisecond), base.Add(time.Second)}
	c := &SystemClock{now: func() time.Time {
		t := times[0]
		times = times[1:]
		return t
	}}

	if dt := c.Delta(); dt != 0 {
		t.Errorf("first delta = %v", dt)
	}
	if dt := c.Delta(); dt != 0.25 {
		t.Errorf("second delta = %v", dt)
	}
	if dt := c.Delta(); dt != 0.75 {
		t.Errorf("third delta = %v", dt)
	}
}
