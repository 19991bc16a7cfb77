package renderer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"roomwalk/internal/opengl"
	"roomwalk/pkg/logger"
	"roomwalk/scene"
)

// RenderEngine is the high-level renderer that drives the OpenGL backend.
type RenderEngine struct {
	gl  *opengl.Renderer
	log logrus.FieldLogger

	// FrustumCulling skips meshes whose world bounds are off screen.
	FrustumCulling bool

	width, height int
	last          FrameStats
}

// NewRenderEngine initialises OpenGL on the current context. It fails when
// the context cannot provide OpenGL 4.1.
func NewRenderEngine(width, height int) (*RenderEngine, error) {
	log := logger.For("renderer")
	glRenderer, err := opengl.NewRenderer(log)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenGL renderer: %w", err)
	}

	re := &RenderEngine{
		gl:             glRenderer,
		log:            log,
		FrustumCulling: true,
	}
	re.SetSize(width, height)
	return re, nil
}

// Render clears to the scene background and draws every visible mesh as
// seen from cam.
func (re *RenderEngine) Render(s *scene.Scene, cam *scene.Camera) error {
	if s == nil || cam == nil {
		return fmt.Errorf("no scene or camera")
	}

	viewProj := cam.ViewProjectionMatrix()
	items, stats := buildDrawList(s, viewProj, re.FrustumCulling)

	re.gl.BeginFrame(s.Background.Linear(), frameLighting(s))
	for _, it := range items {
		re.gl.DrawMesh(it.mesh, it.model, viewProj)
	}

	re.last = stats
	return nil
}

// SetSize resizes the drawing surface.
func (re *RenderEngine) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	re.width, re.height = width, height
	re.gl.SetViewport(width, height)
}

func (re *RenderEngine) Size() (int, int) {
	return re.width, re.height
}

// Stats returns counters from the most recent Render.
func (re *RenderEngine) Stats() FrameStats {
	return re.last
}

func (re *RenderEngine) Destroy() {
	re.gl.Destroy()
}
