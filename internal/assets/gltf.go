package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// LoadGLTF reads a .gltf or .glb file and bakes every mesh of the default
// scene into world space using placement p.
func LoadGLTF(path string, p Placement) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf %s: %w", path, err)
	}
	return decodeDocument(doc, filepath.Dir(path), filepath.Base(path), p)
}

func decodeDocument(doc *gltf.Document, dir, name string, p Placement) (*Model, error) {
	m := &Model{Name: name}
	d := &decoder{doc: doc, dir: dir, textures: make(map[int]*image.RGBA)}

	var roots []int
	switch {
	case doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes):
		for _, n := range doc.Scenes[*doc.Scene].Nodes {
			roots = append(roots, int(n))
		}
	case len(doc.Scenes) > 0:
		for _, n := range doc.Scenes[0].Nodes {
			roots = append(roots, int(n))
		}
	default:
		for i := range doc.Nodes {
			roots = append(roots, i)
		}
	}

	for _, n := range roots {
		if err := d.walk(m, n, p.Matrix(), 0); err != nil {
			return nil, err
		}
	}
	if len(m.Meshes) == 0 {
		return nil, fmt.Errorf("%s: no meshes in scene", name)
	}
	m.computeBounds()
	return m, nil
}

// maxNodeDepth stops reference cycles in malformed files.
const maxNodeDepth = 64

type decoder struct {
	doc      *gltf.Document
	dir      string
	textures map[int]*image.RGBA
}

func (d *decoder) walk(m *Model, idx int, parent mgl32.Mat4, depth int) error {
	if depth > maxNodeDepth {
		return fmt.Errorf("node hierarchy deeper than %d", maxNodeDepth)
	}
	if idx < 0 || idx >= len(d.doc.Nodes) {
		return fmt.Errorf("node index %d out of range", idx)
	}
	node := d.doc.Nodes[idx]
	world := parent.Mul4(nodeMatrix(node))

	if node.Mesh != nil {
		mi := int(*node.Mesh)
		if mi >= len(d.doc.Meshes) {
			return fmt.Errorf("node %d: mesh index %d out of range", idx, mi)
		}
		for pi, prim := range d.doc.Meshes[mi].Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			mesh, err := d.primitive(prim, world)
			if err != nil {
				return fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			m.Meshes = append(m.Meshes, mesh)
		}
	}

	for _, c := range node.Children {
		if err := d.walk(m, int(c), world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

var identity = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func nodeMatrix(n *gltf.Node) mgl32.Mat4 {
	if mo := n.MatrixOrDefault(); mo != identity {
		var m mgl32.Mat4
		for i, v := range mo {
			m[i] = float32(v)
		}
		return m
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

func (d *decoder) primitive(prim *gltf.Primitive, world mgl32.Mat4) (Mesh, error) {
	var mesh Mesh

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return mesh, fmt.Errorf("missing POSITION attribute")
	}
	acc, err := d.accessor(posIdx)
	if err != nil {
		return mesh, err
	}
	pos, err := modeler.ReadPosition(d.doc, acc, nil)
	if err != nil {
		return mesh, fmt.Errorf("read positions: %w", err)
	}
	mesh.Positions = make([]float32, 0, len(pos)*3)
	for _, v := range pos {
		w := world.Mul4x1(mgl32.Vec4{v[0], v[1], v[2], 1})
		mesh.Positions = append(mesh.Positions, w[0], w[1], w[2])
	}

	if nIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		acc, err := d.accessor(nIdx)
		if err != nil {
			return mesh, err
		}
		normals, err := modeler.ReadNormal(d.doc, acc, nil)
		if err != nil {
			return mesh, fmt.Errorf("read normals: %w", err)
		}
		nm := world.Mat3().Inv().Transpose()
		mesh.Normals = make([]float32, 0, len(normals)*3)
		for _, v := range normals {
			n := nm.Mul3x1(mgl32.Vec3{v[0], v[1], v[2]})
			if l := n.Len(); l > 0 {
				n = n.Mul(1 / l)
			}
			mesh.Normals = append(mesh.Normals, n[0], n[1], n[2])
		}
	}

	if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		acc, err := d.accessor(uvIdx)
		if err != nil {
			return mesh, err
		}
		uvs, err := modeler.ReadTextureCoord(d.doc, acc, nil)
		if err != nil {
			return mesh, fmt.Errorf("read uvs: %w", err)
		}
		mesh.UVs = make([]float32, 0, len(uvs)*2)
		for _, v := range uvs {
			mesh.UVs = append(mesh.UVs, v[0], v[1])
		}
	}

	if prim.Indices != nil {
		acc, err := d.accessor(int(*prim.Indices))
		if err != nil {
			return mesh, err
		}
		idx, err := modeler.ReadIndices(d.doc, acc, nil)
		if err != nil {
			return mesh, fmt.Errorf("read indices: %w", err)
		}
		mesh.Indices = idx
	} else {
		mesh.Indices = make([]uint32, len(pos))
		for i := range mesh.Indices {
			mesh.Indices[i] = uint32(i)
		}
	}

	// Mirroring transforms flip winding; keep faces front-facing.
	if world.Mat3().Det() < 0 {
		for i := 0; i+2 < len(mesh.Indices); i += 3 {
			mesh.Indices[i+1], mesh.Indices[i+2] = mesh.Indices[i+2], mesh.Indices[i+1]
		}
	}

	mesh.BaseColor = [4]float32{1, 1, 1, 1}
	if prim.Material != nil {
		mi := int(*prim.Material)
		if mi >= len(d.doc.Materials) {
			return mesh, fmt.Errorf("material index %d out of range", mi)
		}
		mat := d.doc.Materials[mi]
		if pbr := mat.PBRMetallicRoughness; pbr != nil {
			c := pbr.BaseColorFactorOrDefault()
			mesh.BaseColor = [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
			if pbr.BaseColorTexture != nil {
				tex, err := d.texture(int(pbr.BaseColorTexture.Index))
				if err != nil {
					return mesh, err
				}
				mesh.Texture = tex
			}
		}
	}
	return mesh, nil
}

func (d *decoder) accessor(i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(d.doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", i)
	}
	acc := d.doc.Accessors[i]
	if acc.BufferView != nil {
		if _, err := d.bufferView(int(*acc.BufferView)); err != nil {
			return nil, fmt.Errorf("accessor %d: %w", i, err)
		}
	}
	return acc, nil
}

func (d *decoder) bufferView(i int) (*gltf.BufferView, error) {
	if i < 0 || i >= len(d.doc.BufferViews) {
		return nil, fmt.Errorf("buffer view index %d out of range", i)
	}
	bv := d.doc.BufferViews[i]
	if bv.Buffer < 0 || bv.Buffer >= len(d.doc.Buffers) {
		return nil, fmt.Errorf("buffer view %d: buffer index %d out of range", i, bv.Buffer)
	}
	return bv, nil
}

func (d *decoder) texture(ti int) (*image.RGBA, error) {
	if img, ok := d.textures[ti]; ok {
		return img, nil
	}
	if ti < 0 || ti >= len(d.doc.Textures) {
		return nil, fmt.Errorf("texture index %d out of range", ti)
	}
	tex := d.doc.Textures[ti]
	if tex.Source == nil {
		d.textures[ti] = nil
		return nil, nil
	}
	ii := int(*tex.Source)
	if ii >= len(d.doc.Images) {
		return nil, fmt.Errorf("texture %d: image index %d out of range", ti, ii)
	}
	src := d.doc.Images[ii]

	var data []byte
	var err error
	switch {
	case src.BufferView != nil:
		var bv *gltf.BufferView
		if bv, err = d.bufferView(int(*src.BufferView)); err == nil {
			data, err = modeler.ReadBufferView(d.doc, bv)
		}
	case src.IsEmbeddedResource():
		data, err = src.MarshalData()
	default:
		data, err = os.ReadFile(filepath.Join(d.dir, filepath.FromSlash(src.URI)))
	}
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", ii, err)
	}

	img, err := DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", ii, err)
	}
	d.textures[ti] = img
	return img, nil
}

// DecodeImage decodes PNG or JPEG bytes into RGBA.
func DecodeImage(data []byte) (*image.RGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if rgba, ok := src.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba, nil
	}
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	return rgba, nil
}

// LoadImage reads and decodes an image file.
func LoadImage(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return DecodeImage(data)
}

func (m *Model) computeBounds() {
	inf := float32(math.Inf(1))
	m.Min = mgl32.Vec3{inf, inf, inf}
	m.Max = mgl32.Vec3{-inf, -inf, -inf}
	for _, mesh := range m.Meshes {
		for i := 0; i+2 < len(mesh.Positions); i += 3 {
			for a := 0; a < 3; a++ {
				v := mesh.Positions[i+a]
				if v < m.Min[a] {
					m.Min[a] = v
				}
				if v > m.Max[a] {
					m.Max[a] = v
				}
			}
		}
	}
}
