package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triangleBuffer packs three vec3 positions followed by three uint16 indices.
func triangleBuffer(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	pos := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, pos))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, []uint16{0, 1, 2}))
	return buf.Bytes()
}

func writeTriangleScene(t *testing.T, dir string, withTexture bool) string {
	t.Helper()
	data := triangleBuffer(t)
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(data)

	material := `{"pbrMetallicRoughness": {"baseColorFactor": [1, 0.5, 0.25, 1]}}`
	extra := ""
	if withTexture {
		material = `{"pbrMetallicRoughness": {"baseColorFactor": [1, 1, 1, 1], "baseColorTexture": {"index": 0}}}`
		extra = `, "textures": [{"source": 0}], "images": [{"uri": "tex.png"}]`

		img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		img.Set(0, 0, color.NRGBA{R: 255, A: 255})
		f, err := os.Create(filepath.Join(dir, "tex.png"))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}

	doc := fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scene": 0,
		"scenes": [{"nodes": [0]}],
		"nodes": [
			{"translation": [1, 0, 0], "children": [1]},
			{"scale": [2, 2, 2], "mesh": 0}
		],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}],
		"materials": [%s],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{"byteLength": %d, "uri": "%s"}]%s
	}`, material, len(data), uri, extra)

	path := filepath.Join(dir, "scene.gltf")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestLoadGLTF_BakesNodeTransforms(t *testing.T) {
	path := writeTriangleScene(t, t.TempDir(), false)

	m, err := LoadGLTF(path, Placement{Scale: 1})
	require.NoError(t, err)
	require.Len(t, m.Meshes, 1)

	mesh := m.Meshes[0]
	assert.Equal(t, 3, mesh.VertexCount())
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	// child scale 2 then parent translation +1 on X
	assert.InDeltaSlice(t, []float32{1, 0, 0, 3, 0, 0, 1, 2, 0}, mesh.Positions, 1e-5)
	assert.Equal(t, [4]float32{1, 0.5, 0.25, 1}, mesh.BaseColor)
	assert.Nil(t, mesh.Texture)

	assert.InDelta(t, 1, m.Min.X(), 1e-5)
	assert.InDelta(t, 3, m.Max.X(), 1e-5)
	assert.InDelta(t, 2, m.Max.Y(), 1e-5)
}

func TestLoadGLTF_AppliesPlacement(t *testing.T) {
	path := writeTriangleScene(t, t.TempDir(), false)

	m, err := LoadGLTF(path, Placement{Position: mgl32.Vec3{0, -19.65, 0}, Scale: 2})
	require.NoError(t, err)

	pos := m.Meshes[0].Positions
	assert.InDelta(t, 2, pos[0], 1e-4)
	assert.InDelta(t, -19.65, pos[1], 1e-4)
	assert.InDelta(t, 2, pos[6], 1e-4)
	assert.InDelta(t, 4-19.65, pos[7], 1e-4)
}

func TestLoadGLTF_RotatedPlacement(t *testing.T) {
	path := writeTriangleScene(t, t.TempDir(), false)

	m, err := LoadGLTF(path, Placement{Scale: 1, RotateY: math.Pi / 2})
	require.NoError(t, err)

	// (1,0,0) rotated a quarter turn about +Y lands on -Z.
	pos := m.Meshes[0].Positions
	assert.InDelta(t, 0, pos[0], 1e-5)
	assert.InDelta(t, -1, pos[2], 1e-5)
}

func TestLoadGLTF_Texture(t *testing.T) {
	path := writeTriangleScene(t, t.TempDir(), true)

	m, err := LoadGLTF(path, Placement{})
	require.NoError(t, err)

	tex := m.Meshes[0].Texture
	require.NotNil(t, tex)
	assert.Equal(t, image.Rect(0, 0, 2, 2), tex.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, tex.RGBAAt(0, 0))
}

func TestLoadGLTF_MissingFile(t *testing.T) {
	_, err := LoadGLTF(filepath.Join(t.TempDir(), "nope.gltf"), Placement{})
	assert.ErrorContains(t, err, "open gltf")
}

func TestLoadGLTF_IndexOutOfRange(t *testing.T) {
	tests := map[string]struct {
		from, to string
		want     string
	}{
		"image": {
			from: `"images": [{"uri": "tex.png"}]`,
			to:   `"images": []`,
			want: "image index 0 out of range",
		},
		"texture": {
			from: `"baseColorTexture": {"index": 0}`,
			to:   `"baseColorTexture": {"index": 3}`,
			want: "texture index 3 out of range",
		},
		"position accessor": {
			from: `"POSITION": 0`,
			to:   `"POSITION": 7`,
			want: "accessor index 7 out of range",
		},
		"index accessor": {
			from: `"indices": 1`,
			to:   `"indices": 9`,
			want: "accessor index 9 out of range",
		},
		"buffer view": {
			from: `{"bufferView": 1, "componentType": 5123`,
			to:   `{"bufferView": 4, "componentType": 5123`,
			want: "buffer view index 4 out of range",
		},
		"material": {
			from: `"material": 0`,
			to:   `"material": 2`,
			want: "material index 2 out of range",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeTriangleScene(t, t.TempDir(), true)
			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			require.Contains(t, string(raw), tt.from)
			broken := bytes.Replace(raw, []byte(tt.from), []byte(tt.to), 1)
			require.NoError(t, os.WriteFile(path, broken, 0o644))

			var m *Model
			require.NotPanics(t, func() { m, err = LoadGLTF(path, Placement{}) })
			assert.Nil(t, m)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestMesh_Interleaved(t *testing.T) {
	m := Mesh{
		Positions: []float32{1, 2, 3, 4, 5, 6},
		UVs:       []float32{0.5, 0.25},
	}
	got := m.Interleaved()
	assert.Equal(t, []float32{
		1, 2, 3, 0, 1, 0, 0.5, 0.25,
		4, 5, 6, 0, 1, 0, 0, 0,
	}, got)
}

func TestDecodeImage_Invalid(t *testing.T) {
	_, err := DecodeImage([]byte("not an image"))
	assert.ErrorContains(t, err, "decode image")
}

func TestLoader_PollCollectsResults(t *testing.T) {
	l := NewLoader()
	l.loadModel = func(path string, p Placement) (*Model, error) {
		if path == "bad" {
			return nil, errors.New("boom")
		}
		return &Model{Name: path}, nil
	}
	l.loadImage = func(path string) (*image.RGBA, error) {
		return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
	}

	assert.Empty(t, l.Poll())

	ctx := context.Background()
	l.LoadModel(ctx, "car", "good", Placement{})
	l.LoadModel(ctx, "city", "bad", Placement{})
	l.LoadImage(ctx, "background", "bg.jpg")
	l.Wait()

	byName := map[string]Result{}
	for _, r := range l.Poll() {
		byName[r.Name] = r
	}
	require.Len(t, byName, 3)

	assert.NoError(t, byName["car"].Err)
	assert.Equal(t, "good", byName["car"].Model.Name)

	assert.Nil(t, byName["city"].Model)
	assert.ErrorContains(t, byName["city"].Err, "load city: boom")
	assert.Equal(t, "bad", byName["city"].Path)

	assert.NotNil(t, byName["background"].Image)
	assert.Empty(t, l.Poll())
}

func TestLoader_PanicBecomesError(t *testing.T) {
	l := NewLoader()
	l.loadModel = func(string, Placement) (*Model, error) {
		var s []int
		_ = s[5]
		return nil, nil
	}

	l.LoadModel(context.Background(), "car", "car.gltf", Placement{})
	l.Wait()

	res := l.Poll()
	require.Len(t, res, 1)
	assert.Nil(t, res[0].Model)
	assert.ErrorContains(t, res[0].Err, "load car: decoder panic")
}

func TestLoader_CancelledContextDropsResult(t *testing.T) {
	l := NewLoader()
	l.results = make(chan Result) // unbuffered: delivery needs a reader
	l.loadModel = func(string, Placement) (*Model, error) { return &Model{}, nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l.LoadModel(ctx, "car", "x", Placement{})
	l.Wait()
	assert.Empty(t, l.Poll())
}
