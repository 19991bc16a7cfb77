package viewer

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"roomwalk/assets"
	"roomwalk/config"
	"roomwalk/controls"
	"roomwalk/core"
	"roomwalk/input"
	"roomwalk/pkg/logger"
	"roomwalk/scene"
)

// Host is the window the viewer runs in.
type Host interface {
	PollEvents()
	ShouldClose() bool
	SwapBuffers()
}

// Drawer submits the scene for display.
type Drawer interface {
	Render(s *scene.Scene, cam *scene.Camera) error
	SetSize(width, height int)
}

// Viewer owns the scene and everything that mutates it. All methods must be
// called from the goroutine that runs Run.
type Viewer struct {
	cfg config.Config

	Scene    *scene.Scene
	Camera   *scene.Camera
	Controls *controls.PointerLockControls
	Input    *input.Tracker
	Loader   *assets.Loader

	host   Host
	drawer Drawer
	clock  Clock
	log    logrus.FieldLogger

	// ShouldContinue is checked before every frame; nil means always.
	ShouldContinue func() bool
	// OnStatus receives a Status about once a second.
	OnStatus func(Status)

	width, height int
	frames        uint64
	fps           fpsCounter
}

type Option func(*Viewer)

func WithClock(c Clock) Option {
	return func(v *Viewer) { v.clock = c }
}

func WithLoader(l *assets.Loader) Option {
	return func(v *Viewer) { v.Loader = l }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(v *Viewer) { v.log = log }
}

func WithShouldContinue(fn func() bool) Option {
	return func(v *Viewer) { v.ShouldContinue = fn }
}

// New builds the scene: background, lighting rig and a camera at the start
// position wrapped in pointer-lock controls. No model is requested until
// Start.
func New(ctx context.Context, cfg config.Config, host Host, drawer Drawer, locker controls.PointerLocker, opts ...Option) *Viewer {
	v := &Viewer{
		cfg:    cfg,
		host:   host,
		drawer: drawer,
		clock:  NewSystemClock(),
		log:    logger.For("viewer"),
		Input:  input.NewTracker(),
		width:  cfg.Width,
		height: cfg.Height,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.Loader == nil {
		v.Loader = assets.NewLoader(ctx, assets.WithScale(cfg.ModelScale))
	}

	v.Scene = scene.NewScene(core.ColorFromHex(cfg.Background))
	scene.AddLightingRig(v.Scene, scene.RigConfig{
		AmbientColor:     cfg.AmbientColor,
		AmbientIntensity: cfg.AmbientIntensity,
		SunColor:         cfg.SunColor,
		SunIntensity:     cfg.SunIntensity,
		SunPosition:      mgl32.Vec3(cfg.SunPosition),
	})

	v.Camera = scene.NewCamera(cfg.FOV, cfg.AspectRatio(), cfg.Near, cfg.Far)
	v.Camera.SetPosition(mgl32.Vec3(cfg.StartPosition))

	v.Controls = controls.New(v.Camera, locker)
	v.Controls.PointerSpeed = cfg.PointerSpeed
	v.Controls.GateMovement = cfg.GateMovement
	v.Controls.OnChange = func(s controls.LockState) {
		v.log.WithField("state", s).Info("pointer lock")
	}
	v.Scene.Add(v.Controls.Object())

	return v
}

// Start requests the configured model. It returns immediately; the model
// shows up on a later frame.
func (v *Viewer) Start() {
	if v.cfg.ModelPath == "" {
		v.log.Warn("no model configured")
		return
	}
	v.Loader.Load(v.cfg.ModelPath)
}

// Run drives frames until ctx is done, the host closes or ShouldContinue
// returns false. It returns ctx's error if that ended the loop.
func (v *Viewer) Run(ctx context.Context) error {
	defer v.Loader.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if v.host.ShouldClose() {
			return nil
		}
		if v.ShouldContinue != nil && !v.ShouldContinue() {
			return nil
		}

		v.host.PollEvents()
		v.Frame(v.clock.Delta())
		v.host.SwapBuffers()
	}
}

// Frame runs one step: attach finished models, walk, draw. A draw error is
// logged and the loop carries on.
func (v *Viewer) Frame(dt float64) {
	for _, group := range v.Loader.Integrate(v.Scene) {
		v.log.WithField("model", group.Name).Debug("model visible")
	}

	v.Advance(v.Input.State(), dt)

	if err := v.drawer.Render(v.Scene, v.Camera); err != nil {
		v.log.WithError(err).Warn("render failed")
	}
	v.frames++

	if fps, ok := v.fps.tick(dt); ok && v.OnStatus != nil {
		v.OnStatus(Status{
			FPS:      fps,
			Position: v.Camera.Position,
			Lock:     v.Controls.State(),
		})
	}
}

// Advance moves the camera for the held keys. Opposite keys cancel.
func (v *Viewer) Advance(state input.State, dt float64) {
	if dt < 0 {
		dt = 0
	}
	d := v.cfg.WalkSpeed * float32(dt)

	if state.Forward {
		v.Controls.MoveForward(d)
	}
	if state.Backward {
		v.Controls.MoveForward(-d)
	}
	if state.Left {
		v.Controls.MoveRight(-d)
	}
	if state.Right {
		v.Controls.MoveRight(d)
	}
}

// HandleKey routes a key event. Escape releases the pointer.
func (v *Viewer) HandleKey(key core.Key, action core.Action) {
	if key == core.KeyEscape {
		if action == core.Press {
			v.Controls.Unlock()
		}
		return
	}
	v.Input.HandleKey(key, action)
}

// HandleClick is the gesture that requests pointer lock.
func (v *Viewer) HandleClick() {
	v.Controls.Lock()
}

func (v *Viewer) HandleMouseMove(dx, dy float64) {
	v.Controls.HandleMouseMove(dx, dy)
}

// HandleFocus reacts to the window gaining or losing focus. On loss held
// keys are cleared, since their releases go elsewhere, and the pointer is
// freed.
func (v *Viewer) HandleFocus(focused bool) {
	if focused {
		return
	}
	v.Input.Reset()
	v.Controls.Unlock()
}

// HandleLockChange and HandleLockError forward the host's pointer-lock
// outcome to the controls.
func (v *Viewer) HandleLockChange(locked bool) {
	v.Controls.HandleLockChange(locked)
}

func (v *Viewer) HandleLockError() {
	v.Controls.HandleLockError()
}

// Resize keeps the camera and drawing surface in step with the framebuffer.
// Zero-height events from a minimised window are ignored.
func (v *Viewer) Resize(width, height int) {
	if !v.Camera.SetAspect(float32(width), float32(height)) {
		return
	}
	v.width, v.height = width, height
	v.drawer.SetSize(width, height)
	v.log.WithFields(logrus.Fields{"width": width, "height": height}).Debug("resize")
}

// Size is the last accepted drawing surface size.
func (v *Viewer) Size() (width, height int) {
	return v.width, v.height
}

// Frames is the number of frames drawn so far.
func (v *Viewer) Frames() uint64 {
	return v.frames
}
