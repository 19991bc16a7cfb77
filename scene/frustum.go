package scene

import "github.com/go-gl/mathgl/mgl32"

// Plane is the half-space Normal·p + D >= 0. Normal points into the frustum.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// DistanceTo returns the signed distance from a point to the plane.
// Positive means inside.
func (p Plane) DistanceTo(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds the six clip planes of a view frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumFromVP extracts the six planes of a projection * view matrix
// (Gribb/Hartmann). Planes are normalized so DistanceTo is in world units.
func FrustumFromVP(vp mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)

	var f Frustum
	f.Planes[0] = normalizePlane(r3.Add(r0))
	f.Planes[1] = normalizePlane(r3.Sub(r0))
	f.Planes[2] = normalizePlane(r3.Add(r1))
	f.Planes[3] = normalizePlane(r3.Sub(r1))
	f.Planes[4] = normalizePlane(r3.Add(r2))
	f.Planes[5] = normalizePlane(r3.Sub(r2))
	return f
}

func normalizePlane(v mgl32.Vec4) Plane {
	n := v.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), D: v[3] / l}
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// IntersectsFrustum returns false only if the box is completely outside
// one of the planes.
func (box AABB) IntersectsFrustum(f *Frustum) bool {
	for _, p := range f.Planes {
		// the corner furthest along the plane normal
		var corner mgl32.Vec3
		for axis := 0; axis < 3; axis++ {
			if p.Normal[axis] < 0 {
				corner[axis] = box.Min[axis]
			} else {
				corner[axis] = box.Max[axis]
			}
		}
		if p.DistanceTo(corner) < 0 {
			return false
		}
	}
	return true
}

// extend grows the box to contain pt.
func (box *AABB) extend(pt mgl32.Vec3) {
	for axis := 0; axis < 3; axis++ {
		if pt[axis] < box.Min[axis] {
			box.Min[axis] = pt[axis]
		}
		if pt[axis] > box.Max[axis] {
			box.Max[axis] = pt[axis]
		}
	}
}

// LocalBounds returns the mesh's object-space bounds, computed on first use.
func (m *Mesh) LocalBounds() AABB {
	if m.hasBounds {
		return m.bounds
	}
	if len(m.Vertices) > 0 {
		first := m.Vertices[0].Position
		m.bounds = AABB{Min: first, Max: first}
		for _, v := range m.Vertices[1:] {
			m.bounds.extend(v.Position)
		}
	}
	m.hasBounds = true
	return m.bounds
}

// ComputeAABB returns the world-space box of a mesh under worldMatrix by
// transforming the eight corners of its local bounds.
func ComputeAABB(mesh *Mesh, worldMatrix mgl32.Mat4) AABB {
	local := mesh.LocalBounds()
	mn, mx := local.Min, local.Max
	corners := [8]mgl32.Vec3{
		{mn[0], mn[1], mn[2]},
		{mx[0], mn[1], mn[2]},
		{mn[0], mx[1], mn[2]},
		{mx[0], mx[1], mn[2]},
		{mn[0], mn[1], mx[2]},
		{mx[0], mn[1], mx[2]},
		{mn[0], mx[1], mx[2]},
		{mx[0], mx[1], mx[2]},
	}
	first := mgl32.TransformCoordinate(corners[0], worldMatrix)
	out := AABB{Min: first, Max: first}
	for _, c := range corners[1:] {
		out.extend(mgl32.TransformCoordinate(c, worldMatrix))
	}
	return out
}
