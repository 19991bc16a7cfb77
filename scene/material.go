package scene

import "roomwalk/core"

// Material describes how a mesh surface is shaded.
type Material struct {
	Name   string
	Albedo core.Color // multiplied with AlbedoTexture when set

	// Unlit skips lighting and outputs the raw albedo/texture colour
	// (KHR_materials_unlit).
	Unlit bool

	DoubleSided bool

	// AlbedoTexture is uploaded lazily by the renderer.
	AlbedoTexture *Texture
}

// DefaultMaterial returns a plain white lit material.
func DefaultMaterial() *Material {
	return &Material{
		Name:   "Default",
		Albedo: core.ColorWhite,
	}
}
