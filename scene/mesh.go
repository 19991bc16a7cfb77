package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"roomwalk/core"
)

// Vertex is the interleaved layout uploaded to the GPU as-is.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Color    core.Color
}

// Mesh holds CPU-side vertex/index data.
// GPU upload is managed by the renderer backend.
type Mesh struct {
	Name       string
	Vertices   []Vertex
	Indices    []uint32
	IndexCount uint32

	// Material holds surface shading properties. If nil, DefaultMaterial() is used.
	Material *Material

	// GPUData is set by the renderer backend.
	GPUData interface{}

	bounds    AABB
	hasBounds bool
}

func CreateMeshFromData(name string, vertices []Vertex, indices []uint32) *Mesh {
	return &Mesh{
		Name:       name,
		Vertices:   vertices,
		Indices:    indices,
		IndexCount: uint32(len(indices)),
	}
}

// TriangleCount counts indexed triangles, or vertex triples for
// non-indexed meshes.
func (m *Mesh) TriangleCount() int {
	if len(m.Indices) > 0 {
		return len(m.Indices) / 3
	}
	return len(m.Vertices) / 3
}
