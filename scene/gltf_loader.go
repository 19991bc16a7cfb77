package scene

import (
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/sirupsen/logrus"

	"roomwalk/core"
	"roomwalk/pkg/logger"
)

// GLTFResult holds the node tree and textures decoded from a .glb / .gltf file.
type GLTFResult struct {
	Roots    []*Node    // top-level nodes of the default scene
	Textures []*Texture // every decoded texture, uploaded lazily by the renderer
}

// NodeCount counts every node below the roots, roots included.
func (r *GLTFResult) NodeCount() int {
	count := 0
	for _, root := range r.Roots {
		root.Traverse(func(*Node) { count++ })
	}
	return count
}

var identity16 = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// LoadGLTF opens a .glb or .gltf file and converts it to scene nodes.
// Mesh geometry, base-colour materials and textures, and the node hierarchy
// are populated.
func LoadGLTF(path string) (*GLTFResult, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	return BuildGLTF(doc, filepath.Dir(path), logger.For("gltf"))
}

// BuildGLTF converts an already decoded document. dir resolves relative
// image URIs. Broken textures and primitives are logged and skipped; the
// rest of the model still loads.
func BuildGLTF(doc *gltf.Document, dir string, log logrus.FieldLogger) (*GLTFResult, error) {
	result := &GLTFResult{}

	texCache := make([]*Texture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil {
			continue
		}
		tex, err := loadGLTFImage(doc, *gt.Source, dir)
		if err != nil {
			log.WithError(err).WithField("image", *gt.Source).Warn("skipping texture")
			continue
		}
		if tex != nil {
			texCache[i] = tex
			result.Textures = append(result.Textures, tex)
		}
	}

	matCache := make([]*Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := DefaultMaterial()
		mat.Name = gm.Name
		mat.DoubleSided = gm.DoubleSided
		if _, ok := gm.Extensions["KHR_materials_unlit"]; ok {
			mat.Unlit = true
		}
		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.Albedo = core.Color{
				R: float32(cf[0]), G: float32(cf[1]),
				B: float32(cf[2]), A: float32(cf[3]),
			}
			if pbr.BaseColorTexture != nil {
				idx := pbr.BaseColorTexture.Index
				if idx >= 0 && idx < len(texCache) && texCache[idx] != nil {
					mat.AlbedoTexture = texCache[idx]
				}
			}
		}
		matCache[i] = mat
	}

	// meshPrims[meshIdx] holds one Mesh per primitive
	meshPrims := make([][]*Mesh, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			m, err := loadGLTFPrimitive(doc, gm.Name, pi, prim)
			if err != nil {
				log.WithError(err).WithFields(logrus.Fields{"mesh": mi, "primitive": pi}).Warn("skipping primitive")
				continue
			}
			if prim.Material != nil && *prim.Material >= 0 && *prim.Material < len(matCache) {
				m.Material = matCache[*prim.Material]
			}
			meshPrims[mi] = append(meshPrims[mi], m)
		}
	}

	decoded := 0
	for _, prims := range meshPrims {
		decoded += len(prims)
	}
	if len(doc.Meshes) > 0 && decoded == 0 {
		return nil, fmt.Errorf("none of %d meshes has a readable primitive", len(doc.Meshes))
	}

	nodes := make([]*Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		name := gn.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		n := NewNode(name)

		if m := gn.MatrixOrDefault(); m != identity16 {
			var mat mgl32.Mat4
			for k := range m {
				mat[k] = float32(m[k])
			}
			n.SetMatrix(mat)
		} else {
			t := gn.TranslationOrDefault()
			n.SetPosition(mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])})

			sc := gn.ScaleOrDefault()
			n.SetScale(mgl32.Vec3{float32(sc[0]), float32(sc[1]), float32(sc[2])})

			r := gn.RotationOrDefault() // [x, y, z, w]
			n.SetRotation(mgl32.Quat{
				W: float32(r[3]),
				V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])},
			})
		}

		if gn.Mesh != nil && *gn.Mesh >= 0 && *gn.Mesh < len(meshPrims) {
			prims := meshPrims[*gn.Mesh]
			switch len(prims) {
			case 0:
			case 1:
				n.Mesh = prims[0]
			default:
				// one child node per primitive
				for pi, p := range prims {
					child := NewNode(fmt.Sprintf("%s_prim%d", name, pi))
					child.Mesh = p
					n.AddChild(child)
				}
			}
		}
		nodes[i] = n
	}

	for i, gn := range doc.Nodes {
		for _, childIdx := range gn.Children {
			if childIdx >= 0 && childIdx < len(nodes) && childIdx != i {
				nodes[i].AddChild(nodes[childIdx])
			}
		}
	}

	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		for _, rootIdx := range doc.Scenes[*doc.Scene].Nodes {
			if rootIdx >= 0 && rootIdx < len(nodes) {
				result.Roots = append(result.Roots, nodes[rootIdx])
			}
		}
	} else {
		// No default scene: every parentless node is a root
		for _, n := range nodes {
			if n.Parent == nil {
				result.Roots = append(result.Roots, n)
			}
		}
	}

	return result, nil
}

func loadGLTFImage(doc *gltf.Document, imgIdx int, dir string) (*Texture, error) {
	if imgIdx < 0 || imgIdx >= len(doc.Images) {
		return nil, fmt.Errorf("image index %d out of range (%d images)", imgIdx, len(doc.Images))
	}
	img := doc.Images[imgIdx]
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("gltf_img_%d", imgIdx)
	}

	switch {
	case img.BufferView != nil:
		// GLB: image bytes live in a buffer view
		bv, err := bufferView(doc, *img.BufferView)
		if err != nil {
			return nil, err
		}
		raw, err := modeler.ReadBufferView(doc, bv)
		if err != nil {
			return nil, fmt.Errorf("bufferview: %w", err)
		}
		return DecodeTexture(name, raw)
	case img.IsEmbeddedResource():
		raw, err := img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("data uri: %w", err)
		}
		return DecodeTexture(name, raw)
	case img.URI != "":
		return LoadTexture(filepath.Join(dir, img.URI))
	}
	return nil, nil
}

// loadGLTFPrimitive converts one glTF mesh primitive into a Mesh.
func loadGLTFPrimitive(doc *gltf.Document, meshName string, primIdx int, prim *gltf.Primitive) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil, fmt.Errorf("unsupported primitive mode %v", prim.Mode)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	posAcc, err := accessor(doc, posIdx)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	positions, err := modeler.ReadPosition(doc, posAcc, nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		acc, err := accessor(doc, idx)
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
		normals, _ = modeler.ReadNormal(doc, acc, nil)
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		acc, err := accessor(doc, idx)
		if err != nil {
			return nil, fmt.Errorf("uvs: %w", err)
		}
		uvs, _ = modeler.ReadTextureCoord(doc, acc, nil)
	}

	verts := make([]Vertex, len(positions))
	for i, p := range positions {
		v := Vertex{
			Position: mgl32.Vec3{p[0], p[1], p[2]},
			Normal:   mgl32.Vec3{0, 1, 0},
			Color:    core.ColorWhite,
		}
		if i < len(normals) {
			v.Normal = mgl32.Vec3{normals[i][0], normals[i][1], normals[i][2]}
		}
		if i < len(uvs) {
			v.UV = mgl32.Vec2{uvs[i][0], uvs[i][1]}
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		acc, err := accessor(doc, *prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		indices, err = modeler.ReadIndices(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	if len(normals) == 0 {
		generateNormals(verts, indices)
	}

	return CreateMeshFromData(name, verts, indices), nil
}

// accessor resolves an accessor index from the file, checking it and the
// buffer view and buffer it reads from.
func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) || doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("accessor index %d out of range (%d accessors)", idx, len(doc.Accessors))
	}
	acc := doc.Accessors[idx]
	if acc.BufferView != nil {
		if _, err := bufferView(doc, *acc.BufferView); err != nil {
			return nil, fmt.Errorf("accessor %d: %w", idx, err)
		}
	}
	return acc, nil
}

func bufferView(doc *gltf.Document, idx int) (*gltf.BufferView, error) {
	if idx < 0 || idx >= len(doc.BufferViews) || doc.BufferViews[idx] == nil {
		return nil, fmt.Errorf("buffer view index %d out of range (%d buffer views)", idx, len(doc.BufferViews))
	}
	bv := doc.BufferViews[idx]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer index %d out of range (%d buffers)", bv.Buffer, len(doc.Buffers))
	}
	return bv, nil
}
