package game

import (
	"fmt"
	"image"
	"math"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lallassu/citydrive/internal/assets"
	"github.com/lallassu/citydrive/internal/rig"
)

// glOffset converts a byte offset to unsafe.Pointer for OpenGL VBO offset params.
func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

// Fog is linear fog in linear colour space. It also sets the clear colour.
type Fog struct {
	Color     mgl32.Vec3
	Near, Far float32
}

type gpuMesh struct {
	vao, vbo, ebo uint32
	count         int32
	baseColor     [4]float32
	tex           uint32
}

type gpuModel struct {
	meshes []gpuMesh
	world  mgl32.Mat4
}

type Renderer struct {
	// Lit scene program.
	sceneProg uint32

	uModel      int32
	uView       int32
	uProj       int32
	uLightSpace int32
	uBaseColor  int32
	uHasTex     int32
	uTex        int32
	uShadowMap  int32
	uCameraPos  int32
	uAmbient    int32
	uSunDir     int32
	uSunColor   int32
	uSpotPos    int32
	uSpotDir    int32
	uSpotColor  int32
	uSpotCos    int32
	uFogColor   int32
	uFogNear    int32
	uFogFar     int32

	// Shadow map program.
	depthProg   uint32
	depthUModel int32
	depthULight int32
	shadowFBO   uint32
	shadowTex   uint32
	shadowSize  int32
	lightSpace  mgl32.Mat4

	// Sky dome program.
	skyProg      uint32
	skyUView     int32
	skyUProj     int32
	skyUTex      int32
	skyUFogColor int32
	skyUFogNear  int32
	skyUFogFar   int32
	sky          *gpuMesh

	fog    Fog
	models map[string]*gpuModel
	order  []string
}

func NewRenderer(shadowSize int, fog Fog) (*Renderer, error) {
	sceneProg, err := linkProgram(sceneVertSrc, sceneFragSrc)
	if err != nil {
		return nil, fmt.Errorf("scene program: %w", err)
	}
	depthProg, err := linkProgram(depthVertSrc, depthFragSrc)
	if err != nil {
		gl.DeleteProgram(sceneProg)
		return nil, fmt.Errorf("depth program: %w", err)
	}
	skyProg, err := linkProgram(skyVertSrc, skyFragSrc)
	if err != nil {
		gl.DeleteProgram(sceneProg)
		gl.DeleteProgram(depthProg)
		return nil, fmt.Errorf("sky program: %w", err)
	}

	r := &Renderer{
		sceneProg:  sceneProg,
		depthProg:  depthProg,
		skyProg:    skyProg,
		shadowSize: int32(shadowSize),
		fog:        fog,
		models:     make(map[string]*gpuModel),
	}

	// Scene uniforms.
	gl.UseProgram(sceneProg)
	r.uModel = gl.GetUniformLocation(sceneProg, gl.Str("uModel\x00"))
	r.uView = gl.GetUniformLocation(sceneProg, gl.Str("uView\x00"))
	r.uProj = gl.GetUniformLocation(sceneProg, gl.Str("uProj\x00"))
	r.uLightSpace = gl.GetUniformLocation(sceneProg, gl.Str("uLightSpace\x00"))
	r.uBaseColor = gl.GetUniformLocation(sceneProg, gl.Str("uBaseColor\x00"))
	r.uHasTex = gl.GetUniformLocation(sceneProg, gl.Str("uHasTex\x00"))
	r.uTex = gl.GetUniformLocation(sceneProg, gl.Str("uTex\x00"))
	r.uShadowMap = gl.GetUniformLocation(sceneProg, gl.Str("uShadowMap\x00"))
	r.uCameraPos = gl.GetUniformLocation(sceneProg, gl.Str("uCameraPos\x00"))
	r.uAmbient = gl.GetUniformLocation(sceneProg, gl.Str("uAmbient\x00"))
	r.uSunDir = gl.GetUniformLocation(sceneProg, gl.Str("uSunDir\x00"))
	r.uSunColor = gl.GetUniformLocation(sceneProg, gl.Str("uSunColor\x00"))
	r.uSpotPos = gl.GetUniformLocation(sceneProg, gl.Str("uSpotPos\x00"))
	r.uSpotDir = gl.GetUniformLocation(sceneProg, gl.Str("uSpotDir\x00"))
	r.uSpotColor = gl.GetUniformLocation(sceneProg, gl.Str("uSpotColor\x00"))
	r.uSpotCos = gl.GetUniformLocation(sceneProg, gl.Str("uSpotCos\x00"))
	r.uFogColor = gl.GetUniformLocation(sceneProg, gl.Str("uFogColor\x00"))
	r.uFogNear = gl.GetUniformLocation(sceneProg, gl.Str("uFogNear\x00"))
	r.uFogFar = gl.GetUniformLocation(sceneProg, gl.Str("uFogFar\x00"))
	gl.Uniform1i(r.uTex, 0)
	gl.Uniform1i(r.uShadowMap, 1)
	r.setStaticLights()

	// Depth uniforms.
	gl.UseProgram(depthProg)
	r.depthUModel = gl.GetUniformLocation(depthProg, gl.Str("uModel\x00"))
	r.depthULight = gl.GetUniformLocation(depthProg, gl.Str("uLightSpace\x00"))

	// Sky uniforms.
	gl.UseProgram(skyProg)
	r.skyUView = gl.GetUniformLocation(skyProg, gl.Str("uView\x00"))
	r.skyUProj = gl.GetUniformLocation(skyProg, gl.Str("uProj\x00"))
	r.skyUTex = gl.GetUniformLocation(skyProg, gl.Str("uTex\x00"))
	r.skyUFogColor = gl.GetUniformLocation(skyProg, gl.Str("uFogColor\x00"))
	r.skyUFogNear = gl.GetUniformLocation(skyProg, gl.Str("uFogNear\x00"))
	r.skyUFogFar = gl.GetUniformLocation(skyProg, gl.Str("uFogFar\x00"))
	gl.Uniform1i(r.skyUTex, 0)
	gl.Uniform3fv(r.skyUFogColor, 1, &r.fog.Color[0])
	gl.Uniform1f(r.skyUFogNear, r.fog.Near)
	gl.Uniform1f(r.skyUFogFar, r.fog.Far)

	if err := r.initShadowMap(); err != nil {
		r.Destroy()
		return nil, err
	}
	gl.UseProgram(0)
	return r, nil
}

// setStaticLights uploads the fixed light rig. Intensities are folded into
// the colours.
func (r *Renderer) setStaticLights() {
	ambient := AmbientColor.Mul(AmbientIntensity)
	gl.Uniform3fv(r.uAmbient, 1, &ambient[0])

	sunDir := SunPosition.Normalize()
	sunColor := SunColor.Mul(SunIntensity)
	gl.Uniform3fv(r.uSunDir, 1, &sunDir[0])
	gl.Uniform3fv(r.uSunColor, 1, &sunColor[0])

	var pos, dir, col [6]float32
	for i, s := range SpotLights {
		d := s.Target.Sub(s.Position).Normalize()
		c := s.Color.Mul(s.Intensity)
		copy(pos[i*3:], s.Position[:])
		copy(dir[i*3:], d[:])
		copy(col[i*3:], c[:])
	}
	gl.Uniform3fv(r.uSpotPos, 2, &pos[0])
	gl.Uniform3fv(r.uSpotDir, 2, &dir[0])
	gl.Uniform3fv(r.uSpotColor, 2, &col[0])
	gl.Uniform1f(r.uSpotCos, float32(math.Cos(SpotAngle)))

	gl.Uniform3fv(r.uFogColor, 1, &r.fog.Color[0])
	gl.Uniform1f(r.uFogNear, r.fog.Near)
	gl.Uniform1f(r.uFogFar, r.fog.Far)
}

func (r *Renderer) initShadowMap() error {
	gl.GenTextures(1, &r.shadowTex)
	gl.BindTexture(gl.TEXTURE_2D, r.shadowTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, r.shadowSize, r.shadowSize, 0,
		gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	border := [4]float32{1, 1, 1, 1}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])

	gl.GenFramebuffers(1, &r.shadowFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.shadowFBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, r.shadowTex, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("shadow framebuffer incomplete: 0x%x", status)
	}

	proj := mgl32.Ortho(-ShadowExtent, ShadowExtent, -ShadowExtent, ShadowExtent, ShadowNear, ShadowFar)
	view := mgl32.LookAtV(SunPosition, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1})
	r.lightSpace = proj.Mul4(view)
	return nil
}

func (r *Renderer) Destroy() {
	for _, name := range r.order {
		r.models[name].destroy()
	}
	r.models = nil
	r.order = nil
	if r.sky != nil {
		r.sky.destroy()
		r.sky = nil
	}
	if r.shadowFBO != 0 {
		gl.DeleteFramebuffers(1, &r.shadowFBO)
	}
	if r.shadowTex != 0 {
		gl.DeleteTextures(1, &r.shadowTex)
	}
	for _, id := range []uint32{r.sceneProg, r.depthProg, r.skyProg} {
		if id != 0 {
			gl.DeleteProgram(id)
		}
	}
}

// AddModel uploads a decoded model. Loading the same name twice replaces
// the earlier upload.
func (r *Renderer) AddModel(name string, m *assets.Model) {
	gm := &gpuModel{world: mgl32.Ident4()}
	for i := range m.Meshes {
		gm.meshes = append(gm.meshes, uploadMesh(&m.Meshes[i], gl.REPEAT))
	}
	if old, ok := r.models[name]; ok {
		old.destroy()
	} else {
		r.order = append(r.order, name)
	}
	r.models[name] = gm
}

func (r *Renderer) HasModel(name string) bool {
	_, ok := r.models[name]
	return ok
}

// SetTransform sets a model's world matrix. Unknown names are ignored.
func (r *Renderer) SetTransform(name string, world mgl32.Mat4) {
	if m, ok := r.models[name]; ok {
		m.world = world
	}
}

// SetSky builds the background dome around the origin.
func (r *Renderer) SetSky(img *image.RGBA, radius, repeat float32) {
	if r.sky != nil {
		r.sky.destroy()
	}
	mesh := assets.Sphere(radius, SkyWidthSegments, SkyHeightSegments, repeat)
	mesh.Texture = img
	sky := uploadMesh(&mesh, gl.REPEAT)
	r.sky = &sky
}

// RenderShadows draws every model into the sun's depth map.
func (r *Renderer) RenderShadows() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.shadowFBO)
	gl.Viewport(0, 0, r.shadowSize, r.shadowSize)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.POLYGON_OFFSET_FILL)
	gl.PolygonOffset(2, 4)

	gl.UseProgram(r.depthProg)
	gl.UniformMatrix4fv(r.depthULight, 1, false, &r.lightSpace[0])
	for _, name := range r.order {
		m := r.models[name]
		gl.UniformMatrix4fv(r.depthUModel, 1, false, &m.world[0])
		for i := range m.meshes {
			m.meshes[i].draw()
		}
	}

	gl.Disable(gl.POLYGON_OFFSET_FILL)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// RenderScene draws sky and models into the bound framebuffer, which must
// have a depth attachment. The caller sets the viewport.
func (r *Renderer) RenderScene(cam *rig.Camera) {
	gl.ClearColor(r.fog.Color[0], r.fog.Color[1], r.fog.Color[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)

	view := cam.View()
	proj := cam.Projection()

	if r.sky != nil {
		gl.DepthMask(false)
		gl.UseProgram(r.skyProg)
		gl.UniformMatrix4fv(r.skyUView, 1, false, &view[0])
		gl.UniformMatrix4fv(r.skyUProj, 1, false, &proj[0])
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, r.sky.tex)
		r.sky.draw()
		gl.DepthMask(true)
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.UseProgram(r.sceneProg)
	gl.UniformMatrix4fv(r.uView, 1, false, &view[0])
	gl.UniformMatrix4fv(r.uProj, 1, false, &proj[0])
	gl.UniformMatrix4fv(r.uLightSpace, 1, false, &r.lightSpace[0])
	gl.Uniform3fv(r.uCameraPos, 1, &cam.Position[0])
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, r.shadowTex)

	for _, name := range r.order {
		m := r.models[name]
		gl.UniformMatrix4fv(r.uModel, 1, false, &m.world[0])
		for i := range m.meshes {
			mesh := &m.meshes[i]
			gl.Uniform4fv(r.uBaseColor, 1, &mesh.baseColor[0])
			gl.ActiveTexture(gl.TEXTURE0)
			if mesh.tex != 0 {
				gl.Uniform1i(r.uHasTex, 1)
				gl.BindTexture(gl.TEXTURE_2D, mesh.tex)
			} else {
				gl.Uniform1i(r.uHasTex, 0)
				gl.BindTexture(gl.TEXTURE_2D, 0)
			}
			mesh.draw()
		}
	}

	gl.Disable(gl.BLEND)
	gl.BindVertexArray(0)
}

func uploadMesh(m *assets.Mesh, wrap int32) gpuMesh {
	g := gpuMesh{baseColor: m.BaseColor}
	verts := m.Interleaved()

	gl.GenVertexArrays(1, &g.vao)
	gl.GenBuffers(1, &g.vbo)
	gl.BindVertexArray(g.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	if len(verts) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)
	}

	stride := int32(8 * 4)
	// aPos (vec3)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, glOffset(0))
	// aNormal (vec3)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, glOffset(3*4))
	// aUV (vec2)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, glOffset(6*4))

	if len(m.Indices) > 0 {
		gl.GenBuffers(1, &g.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)
		g.count = int32(len(m.Indices))
	} else {
		g.count = int32(m.VertexCount())
	}
	gl.BindVertexArray(0)

	if m.Texture != nil {
		g.tex = uploadTexture(m.Texture, wrap)
	}
	return g
}

// uploadTexture stores colour textures as sRGB so sampling returns linear
// values.
func uploadTexture(img *image.RGBA, wrap int32) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	b := img.Bounds()
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.SRGB8_ALPHA8, int32(b.Dx()), int32(b.Dy()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

func (g *gpuMesh) draw() {
	if g.count == 0 {
		return
	}
	gl.BindVertexArray(g.vao)
	if g.ebo != 0 {
		gl.DrawElements(gl.TRIANGLES, g.count, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, g.count)
	}
}

func (g *gpuMesh) destroy() {
	for _, id := range []uint32{g.vbo, g.ebo} {
		if id != 0 {
			gl.DeleteBuffers(1, &id)
		}
	}
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
	}
	if g.tex != 0 {
		gl.DeleteTextures(1, &g.tex)
	}
}

func (m *gpuModel) destroy() {
	for i := range m.meshes {
		m.meshes[i].destroy()
	}
}
