package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera. It embeds a Node so it can be attached to
// the scene graph and moved like any other object; it looks down its local -Z.
type Camera struct {
	Node
	FOV         float32 // vertical, degrees
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32

	projectionMatrix mgl32.Mat4
}

func NewCamera(fov, aspectRatio, nearPlane, farPlane float32) *Camera {
	c := &Camera{
		Node:        *NewNode("Camera"),
		FOV:         fov,
		AspectRatio: aspectRatio,
		NearPlane:   nearPlane,
		FarPlane:    farPlane,
	}
	c.UpdateProjectionMatrix()
	return c
}

// SetAspect sets aspect = width/height and recomputes the projection.
// Zero-height sizes (minimised windows) are ignored.
func (c *Camera) SetAspect(width, height float32) bool {
	if height <= 0 || width <= 0 {
		return false
	}
	c.AspectRatio = width / height
	c.UpdateProjectionMatrix()
	return true
}

// UpdateProjectionMatrix must be called after changing FOV, aspect or planes.
func (c *Camera) UpdateProjectionMatrix() {
	c.projectionMatrix = mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return c.projectionMatrix
}

// ViewMatrix is the inverse of the camera's world transform.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return c.WorldMatrix().Inv()
}

func (c *Camera) ViewProjectionMatrix() mgl32.Mat4 {
	return c.projectionMatrix.Mul4(c.ViewMatrix())
}

// Forward is the direction the camera looks in.
func (c *Camera) Forward() mgl32.Vec3 {
	return c.Rotation.Rotate(mgl32.Vec3{0, 0, -1})
}

func (c *Camera) Right() mgl32.Vec3 {
	return c.Rotation.Rotate(mgl32.Vec3{1, 0, 0})
}

func (c *Camera) Up() mgl32.Vec3 {
	return c.Rotation.Rotate(mgl32.Vec3{0, 1, 0})
}
