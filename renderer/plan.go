package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"roomwalk/internal/opengl"
	"roomwalk/scene"
)

// FrameStats describes the last rendered frame.
type FrameStats struct {
	Objects   int
	Vertices  int
	Triangles int
	Culled    int
}

type drawItem struct {
	mesh  *scene.Mesh
	model mgl32.Mat4
}

// buildDrawList collects every visible mesh node, dropping those whose
// world bounds fall outside the camera frustum when cull is set.
func buildDrawList(s *scene.Scene, viewProj mgl32.Mat4, cull bool) ([]drawItem, FrameStats) {
	var (
		items []drawItem
		stats FrameStats
	)
	frustum := scene.FrustumFromVP(viewProj)

	for _, node := range s.VisibleMeshNodes() {
		model := node.WorldMatrix()
		if cull {
			aabb := scene.ComputeAABB(node.Mesh, model)
			if !aabb.IntersectsFrustum(&frustum) {
				stats.Culled++
				continue
			}
		}
		items = append(items, drawItem{mesh: node.Mesh, model: model})
		stats.Objects++
		stats.Vertices += len(node.Mesh.Vertices)
		stats.Triangles += node.Mesh.TriangleCount()
	}
	return items, stats
}

// frameLighting flattens the scene's lights into shader inputs. Colours are
// converted to linear space; only the first directional light is used.
func frameLighting(s *scene.Scene) opengl.Lighting {
	var l opengl.Lighting
	if s.Ambient != nil {
		c := s.Ambient.Color.Linear().Scale(s.Ambient.Intensity)
		l.Ambient = mgl32.Vec3{c.R, c.G, c.B}
	}

	l.SunDirection = mgl32.Vec3{0, -1, 0}
	if len(s.Directional) > 0 {
		sun := s.Directional[0]
		c := sun.Color.Linear().Scale(sun.Intensity)
		l.Sun = mgl32.Vec3{c.R, c.G, c.B}
		l.SunDirection = sun.Direction()
	}
	return l
}
