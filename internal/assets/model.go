// Package assets decodes glTF scenes and images into CPU-side data ready
// for GL upload. Nothing here touches GL.
package assets

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is one glTF primitive with node transforms baked in.
// Positions and Normals are xyz triples, UVs are uv pairs.
type Mesh struct {
	Positions []float32
	Normals   []float32
	UVs       []float32
	Indices   []uint32

	BaseColor [4]float32
	Texture   *image.RGBA
}

func (m *Mesh) VertexCount() int { return len(m.Positions) / 3 }

// Interleaved returns position, normal, uv per vertex (8 floats).
// Missing normals default to +Y, missing UVs to zero.
func (m *Mesh) Interleaved() []float32 {
	n := m.VertexCount()
	out := make([]float32, 0, n*8)
	for i := 0; i < n; i++ {
		out = append(out, m.Positions[i*3:i*3+3]...)
		if len(m.Normals) >= (i+1)*3 {
			out = append(out, m.Normals[i*3:i*3+3]...)
		} else {
			out = append(out, 0, 1, 0)
		}
		if len(m.UVs) >= (i+1)*2 {
			out = append(out, m.UVs[i*2:i*2+2]...)
		} else {
			out = append(out, 0, 0)
		}
	}
	return out
}

// Model is a loaded scene.
type Model struct {
	Name   string
	Meshes []Mesh

	Min, Max mgl32.Vec3 // bounds after placement
}

// Placement positions a model in the world.
type Placement struct {
	Position mgl32.Vec3
	Scale    float32
	RotateY  float32 // radians
}

func (p Placement) Matrix() mgl32.Mat4 {
	s := p.Scale
	if s == 0 {
		s = 1
	}
	return mgl32.Translate3D(p.Position[0], p.Position[1], p.Position[2]).
		Mul4(mgl32.HomogRotate3DY(p.RotateY)).
		Mul4(mgl32.Scale3D(s, s, s))
}
