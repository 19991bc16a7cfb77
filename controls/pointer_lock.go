package controls

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"roomwalk/pkg/logger"
	"roomwalk/scene"
)

// LockState tracks the pointer-lock handshake with the host.
type LockState int

const (
	Unlocked LockState = iota
	LockRequested
	Locked
)

func (s LockState) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case LockRequested:
		return "lock-requested"
	case Locked:
		return "locked"
	}
	return "invalid"
}

// PointerLocker is the host that can capture and release the pointer. The
// outcome is reported back asynchronously through HandleLockChange or
// HandleLockError.
type PointerLocker interface {
	RequestPointerLock()
	ExitPointerLock()
}

// radians of rotation per pixel of mouse movement at PointerSpeed 1
const radiansPerPixel = 0.002

// PointerLockControls drives a camera first-person style: mouse look while
// the pointer is locked, plus forward and sideways walking.
type PointerLockControls struct {
	camera *scene.Camera
	locker PointerLocker
	log    logrus.FieldLogger

	state LockState
	yaw   float32
	pitch float32

	// PointerSpeed scales mouse-look sensitivity.
	PointerSpeed float32
	// Polar limits in radians, measured from straight up. The defaults allow
	// looking straight up and straight down.
	MinPolarAngle float32
	MaxPolarAngle float32
	// GateMovement makes MoveForward and MoveRight no-ops while not Locked.
	GateMovement bool

	// OnChange is called after every lock state transition.
	OnChange func(LockState)
}

func New(camera *scene.Camera, locker PointerLocker) *PointerLockControls {
	return &PointerLockControls{
		camera:        camera,
		locker:        locker,
		log:           logger.For("controls"),
		PointerSpeed:  1,
		MinPolarAngle: 0,
		MaxPolarAngle: math.Pi,
	}
}

// SetLogger replaces the component logger.
func (c *PointerLockControls) SetLogger(log logrus.FieldLogger) {
	c.log = log
}

// Object is the node that moves with the controls, for attaching to the scene.
func (c *PointerLockControls) Object() *scene.Node {
	return &c.camera.Node
}

func (c *PointerLockControls) Camera() *scene.Camera {
	return c.camera
}

func (c *PointerLockControls) State() LockState {
	return c.state
}

func (c *PointerLockControls) IsLocked() bool {
	return c.state == Locked
}

// Lock asks the host for pointer lock. Only an unlocked controller issues a
// request; the host may still deny it.
func (c *PointerLockControls) Lock() {
	if c.state != Unlocked {
		return
	}
	c.setState(LockRequested)
	c.locker.RequestPointerLock()
}

// Unlock asks the host to release the pointer.
func (c *PointerLockControls) Unlock() {
	if c.state == Unlocked {
		return
	}
	c.locker.ExitPointerLock()
}

// HandleLockChange applies the host's notification that the pointer was
// captured or released (including releases the controller never asked for).
func (c *PointerLockControls) HandleLockChange(locked bool) {
	if locked {
		c.setState(Locked)
		return
	}
	c.setState(Unlocked)
}

// HandleLockError applies a denied lock request.
func (c *PointerLockControls) HandleLockError() {
	c.log.Warn("pointer lock request denied")
	c.setState(Unlocked)
}

func (c *PointerLockControls) setState(s LockState) {
	if c.state == s {
		return
	}
	c.log.WithFields(logrus.Fields{"from": c.state, "to": s}).Debug("pointer lock")
	c.state = s
	if c.OnChange != nil {
		c.OnChange(s)
	}
}

// HandleMouseMove turns a relative mouse delta in pixels into yaw and pitch.
// Orientation only changes while Locked.
func (c *PointerLockControls) HandleMouseMove(dx, dy float64) {
	if c.state != Locked {
		return
	}
	c.yaw -= float32(dx) * radiansPerPixel * c.PointerSpeed
	c.pitch -= float32(dy) * radiansPerPixel * c.PointerSpeed
	c.pitch = mgl32.Clamp(c.pitch, math.Pi/2-c.MaxPolarAngle, math.Pi/2-c.MinPolarAngle)
	c.applyOrientation()
}

// SetOrientation sets yaw (about +Y) and pitch (about +X) in radians.
func (c *PointerLockControls) SetOrientation(yaw, pitch float32) {
	c.yaw = yaw
	c.pitch = mgl32.Clamp(pitch, math.Pi/2-c.MaxPolarAngle, math.Pi/2-c.MinPolarAngle)
	c.applyOrientation()
}

func (c *PointerLockControls) Orientation() (yaw, pitch float32) {
	return c.yaw, c.pitch
}

func (c *PointerLockControls) applyOrientation() {
	q := mgl32.QuatRotate(c.yaw, mgl32.Vec3{0, 1, 0}).Mul(mgl32.QuatRotate(c.pitch, mgl32.Vec3{1, 0, 0}))
	c.camera.SetRotation(q.Normalize())
}

// MoveForward walks along the camera's heading projected onto the ground
// plane, so looking up or down does not change walking speed.
func (c *PointerLockControls) MoveForward(distance float32) {
	if c.gated() {
		return
	}
	forward := mgl32.Vec3{0, 1, 0}.Cross(c.camera.Right())
	c.camera.Translate(forward.Mul(distance))
}

// MoveRight strafes along the camera's right axis.
func (c *PointerLockControls) MoveRight(distance float32) {
	if c.gated() {
		return
	}
	c.camera.Translate(c.camera.Right().Mul(distance))
}

func (c *PointerLockControls) gated() bool {
	return c.GateMovement && c.state != Locked
}
