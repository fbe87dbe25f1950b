package game

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/lallassu/citydrive/internal/postfx"
	"github.com/lallassu/citydrive/internal/rig"
)

const bloomMips = 5

var (
	bloomKernels = [bloomMips]int32{3, 5, 7, 9, 11}
	bloomFactors = [bloomMips]float32{1.0, 0.8, 0.6, 0.4, 0.2}
)

// renderTarget is an FBO with a float colour texture and an optional depth
// texture.
type renderTarget struct {
	fbo, color, depth uint32
	w, h              int32
}

func newRenderTarget(w, h int32, withDepth bool) (*renderTarget, error) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	t := &renderTarget{w: w, h: h}

	gl.GenTextures(1, &t.color)
	gl.BindTexture(gl.TEXTURE_2D, t.color)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA16F, w, h, 0, gl.RGBA, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.color, 0)

	if withDepth {
		gl.GenTextures(1, &t.depth)
		gl.BindTexture(gl.TEXTURE_2D, t.depth)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, w, h, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, t.depth, 0)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		t.destroy()
		return nil, fmt.Errorf("framebuffer %dx%d incomplete: 0x%x", w, h, status)
	}
	return t, nil
}

func (t *renderTarget) bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.Viewport(0, 0, t.w, t.h)
}

func (t *renderTarget) destroy() {
	if t == nil {
		return
	}
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
	}
	for _, id := range []uint32{t.color, t.depth} {
		if id != 0 {
			gl.DeleteTextures(1, &id)
		}
	}
}

// screenProgram is a fullscreen-triangle program with lazily cached
// uniform locations.
type screenProgram struct {
	id   uint32
	locs map[string]int32
}

func newScreenProgram(name, fragSrc string) (*screenProgram, error) {
	id, err := linkProgram(screenVertSrc, fragSrc)
	if err != nil {
		return nil, fmt.Errorf("%s program: %w", name, err)
	}
	return &screenProgram{id: id, locs: make(map[string]int32)}, nil
}

func (p *screenProgram) loc(name string) int32 {
	if l, ok := p.locs[name]; ok {
		return l
	}
	l := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.locs[name] = l
	return l
}

// setPass uploads a pass's scalar uniforms. Resolution components are
// packed by the caller.
func (p *screenProgram) setPass(pass *postfx.Pass) {
	for name, v := range pass.Uniforms {
		if name == postfx.UResolutionX || name == postfx.UResolutionY {
			continue
		}
		gl.Uniform1f(p.loc(name), v)
	}
}

func (p *screenProgram) bindTexture(name string, unit int32, tex uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.Uniform1i(p.loc(name), unit)
}

// PostChain runs a postfx.Chain on the GPU: the scene renders into an HDR
// target, each enabled pass ping-pongs between two targets and the output
// pass writes to the default framebuffer.
type PostChain struct {
	chain *postfx.Chain
	vao   uint32

	scene *renderTarget
	ping  [2]*renderTarget

	bright *renderTarget
	blurH  [bloomMips]*renderTarget
	blurV  [bloomMips]*renderTarget

	bokeh, vignette, highPass, blur, composite, fxaa, output *screenProgram
}

func NewPostChain(chain *postfx.Chain) (*PostChain, error) {
	pc := &PostChain{chain: chain}
	progs := []struct {
		dst  **screenProgram
		name string
		src  string
	}{
		{&pc.bokeh, "bokeh", bokehFragSrc},
		{&pc.vignette, "vignette", vignetteFragSrc},
		{&pc.highPass, "bloom high pass", brightFragSrc},
		{&pc.blur, "bloom blur", blurFragSrc},
		{&pc.composite, "bloom composite", bloomCompositeFragSrc},
		{&pc.fxaa, "fxaa", fxaaFragSrc},
		{&pc.output, "output", outputFragSrc},
	}
	for _, p := range progs {
		sp, err := newScreenProgram(p.name, p.src)
		if err != nil {
			pc.Destroy()
			return nil, err
		}
		*p.dst = sp
	}
	gl.GenVertexArrays(1, &pc.vao)
	return pc, nil
}

func (pc *PostChain) Chain() *postfx.Chain { return pc.chain }

// Resize updates the chain uniforms and reallocates every target. w and h
// are window coordinates.
func (pc *PostChain) Resize(w, h int, pixelRatio float64) error {
	pc.chain.Resize(w, h, pixelRatio)
	pc.destroyTargets()

	bw, bh := pc.chain.BufferSize()
	var err error
	if pc.scene, err = newRenderTarget(int32(bw), int32(bh), true); err != nil {
		return fmt.Errorf("scene target: %w", err)
	}
	for i := range pc.ping {
		if pc.ping[i], err = newRenderTarget(int32(bw), int32(bh), false); err != nil {
			return fmt.Errorf("post target: %w", err)
		}
	}

	bloom := pc.chain.Pass(postfx.PassBloom)
	mw := int32(float64(bloom.Get(postfx.UResolutionX))*pixelRatio) / 2
	mh := int32(float64(bloom.Get(postfx.UResolutionY))*pixelRatio) / 2
	if pc.bright, err = newRenderTarget(mw, mh, false); err != nil {
		return fmt.Errorf("bloom target: %w", err)
	}
	for i := 0; i < bloomMips; i++ {
		if pc.blurH[i], err = newRenderTarget(mw, mh, false); err != nil {
			return fmt.Errorf("bloom mip %d: %w", i, err)
		}
		if pc.blurV[i], err = newRenderTarget(mw, mh, false); err != nil {
			return fmt.Errorf("bloom mip %d: %w", i, err)
		}
		mw /= 2
		mh /= 2
	}
	return nil
}

// Render draws the scene and runs the chain. fbW and fbH are the default
// framebuffer size in pixels.
func (pc *PostChain) Render(r *Renderer, cam *rig.Camera, fbW, fbH int) {
	if pc.scene == nil {
		return
	}
	pc.scene.bind()
	r.RenderScene(cam)

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(pc.vao)

	src := pc.scene.color
	next := 0
	for _, pass := range pc.chain.Passes() {
		if !pass.Enabled && pass.Kind != postfx.PassOutput {
			continue
		}
		dst := pc.ping[next]
		switch pass.Kind {
		case postfx.PassRender:
			continue
		case postfx.PassBokeh:
			dst.bind()
			gl.UseProgram(pc.bokeh.id)
			pc.bokeh.setPass(pass)
			gl.Uniform1f(pc.bokeh.loc("nearClip"), cam.Near)
			gl.Uniform1f(pc.bokeh.loc("farClip"), cam.Far)
			pc.bokeh.bindTexture("tColor", 0, src)
			pc.bokeh.bindTexture("tDepth", 1, pc.scene.depth)
			drawScreen()
		case postfx.PassVignette:
			dst.bind()
			gl.UseProgram(pc.vignette.id)
			pc.vignette.setPass(pass)
			pc.vignette.bindTexture("tColor", 0, src)
			drawScreen()
		case postfx.PassBloom:
			pc.renderBloom(pass, src, dst)
		case postfx.PassFXAA:
			dst.bind()
			gl.UseProgram(pc.fxaa.id)
			gl.Uniform2f(pc.fxaa.loc("resolution"), pass.Get(postfx.UResolutionX), pass.Get(postfx.UResolutionY))
			pc.fxaa.bindTexture("tColor", 0, src)
			drawScreen()
		case postfx.PassOutput:
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			gl.Viewport(0, 0, int32(fbW), int32(fbH))
			gl.UseProgram(pc.output.id)
			pc.output.setPass(pass)
			pc.output.bindTexture("tColor", 0, src)
			drawScreen()
			continue
		}
		src = dst.color
		next ^= 1
	}

	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

func (pc *PostChain) renderBloom(pass *postfx.Pass, src uint32, dst *renderTarget) {
	pc.bright.bind()
	gl.UseProgram(pc.highPass.id)
	gl.Uniform1f(pc.highPass.loc("threshold"), pass.Get(postfx.UThreshold))
	pc.highPass.bindTexture("tColor", 0, src)
	drawScreen()

	gl.UseProgram(pc.blur.id)
	input := pc.bright
	for i := 0; i < bloomMips; i++ {
		h, v := pc.blurH[i], pc.blurV[i]
		gl.Uniform1i(pc.blur.loc("kernelRadius"), bloomKernels[i])

		h.bind()
		gl.Uniform2f(pc.blur.loc("invSize"), 1/float32(input.w), 1/float32(input.h))
		gl.Uniform2f(pc.blur.loc("direction"), 1, 0)
		pc.blur.bindTexture("tColor", 0, input.color)
		drawScreen()

		v.bind()
		gl.Uniform2f(pc.blur.loc("invSize"), 1/float32(h.w), 1/float32(h.h))
		gl.Uniform2f(pc.blur.loc("direction"), 0, 1)
		pc.blur.bindTexture("tColor", 0, h.color)
		drawScreen()

		input = v
	}

	dst.bind()
	gl.UseProgram(pc.composite.id)
	gl.Uniform1f(pc.composite.loc(postfx.UStrength), pass.Get(postfx.UStrength))
	gl.Uniform1f(pc.composite.loc(postfx.URadius), pass.Get(postfx.URadius))
	gl.Uniform1fv(pc.composite.loc("bloomFactors"), bloomMips, &bloomFactors[0])
	pc.composite.bindTexture("tColor", 0, src)
	var units [bloomMips]int32
	for i := 0; i < bloomMips; i++ {
		units[i] = int32(i + 1)
		gl.ActiveTexture(gl.TEXTURE0 + uint32(units[i]))
		gl.BindTexture(gl.TEXTURE_2D, pc.blurV[i].color)
	}
	gl.Uniform1iv(pc.composite.loc("tBlur"), bloomMips, &units[0])
	drawScreen()
	gl.ActiveTexture(gl.TEXTURE0)
}

func drawScreen() {
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
}

func (pc *PostChain) destroyTargets() {
	pc.scene.destroy()
	pc.scene = nil
	for i := range pc.ping {
		pc.ping[i].destroy()
		pc.ping[i] = nil
	}
	pc.bright.destroy()
	pc.bright = nil
	for i := 0; i < bloomMips; i++ {
		pc.blurH[i].destroy()
		pc.blurV[i].destroy()
		pc.blurH[i], pc.blurV[i] = nil, nil
	}
}

func (pc *PostChain) Destroy() {
	pc.destroyTargets()
	for _, p := range []*screenProgram{pc.bokeh, pc.vignette, pc.highPass, pc.blur, pc.composite, pc.fxaa, pc.output} {
		if p != nil {
			gl.DeleteProgram(p.id)
		}
	}
	if pc.vao != 0 {
		gl.DeleteVertexArrays(1, &pc.vao)
	}
}
