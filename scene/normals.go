package scene

// generateNormals writes area-weighted vertex normals for meshes that ship
// without them. Non-indexed meshes are treated as consecutive triangles.
func generateNormals(vertices []Vertex, indices []uint32) {
	if len(indices) == 0 {
		indices = make([]uint32, len(vertices)/3*3)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	accum := make([]Vertex, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= len(vertices) || int(i1) >= len(vertices) || int(i2) >= len(vertices) {
			continue
		}
		v0 := vertices[i0].Position
		v1 := vertices[i1].Position
		v2 := vertices[i2].Position
		n := v1.Sub(v0).Cross(v2.Sub(v0)) // length is twice the triangle area
		accum[i0].Normal = accum[i0].Normal.Add(n)
		accum[i1].Normal = accum[i1].Normal.Add(n)
		accum[i2].Normal = accum[i2].Normal.Add(n)
	}
	for i := range vertices {
		if n := accum[i].Normal; n.Len() > 0 {
			vertices[i].Normal = n.Normalize()
		}
	}
}
