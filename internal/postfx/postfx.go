// Package postfx describes the image-space pass chain applied after the
// scene render. It owns pass order and uniform values only; the GL side
// reads them every frame.
package postfx

import "fmt"

type PassKind int

const (
	PassRender PassKind = iota
	PassBokeh
	PassVignette
	PassBloom
	PassFXAA
	PassOutput
)

var passNames = [...]string{"render", "bokeh", "vignette", "bloom", "fxaa", "output"}

func (k PassKind) String() string {
	if int(k) < len(passNames) {
		return passNames[k]
	}
	return fmt.Sprintf("pass(%d)", int(k))
}

// Uniform names shared with the GLSL sources.
const (
	UFocus       = "focus"
	UAperture    = "aperture"
	UMaxBlur     = "maxblur"
	UOffset      = "offset"
	UDarkness    = "darkness"
	UStrength    = "strength"
	URadius      = "radius"
	UThreshold   = "threshold"
	UResolutionX = "resolution.x"
	UResolutionY = "resolution.y"
	UExposure    = "exposure"
	UAspect      = "aspect"
)

type Pass struct {
	Kind     PassKind
	Enabled  bool
	Uniforms map[string]float32
}

func (p *Pass) Get(name string) float32 { return p.Uniforms[name] }

// Settings are the configurable pass parameters.
type Settings struct {
	BokehFocus    float32
	BokehAperture float32
	BokehMaxBlur  float32

	VignetteOffset   float32
	VignetteDarkness float32

	BloomStrength  float32
	BloomRadius    float32
	BloomThreshold float32

	Exposure float32
}

func DefaultSettings() Settings {
	return Settings{
		BokehFocus:       3,
		BokehAperture:    0.001,
		BokehMaxBlur:     0.006,
		VignetteOffset:   1,
		VignetteDarkness: 1.009,
		BloomStrength:    0.1,
		BloomRadius:      0.1,
		BloomThreshold:   0.95,
		Exposure:         1.55,
	}
}

// Chain is the fixed pass sequence.
type Chain struct {
	passes []*Pass

	width, height int
	pixelRatio    float64
}

// NewChain builds render, bokeh, vignette, bloom, fxaa, output in that order.
func NewChain(s Settings) *Chain {
	c := &Chain{pixelRatio: 1}
	add := func(k PassKind, u map[string]float32) {
		if u == nil {
			u = map[string]float32{}
		}
		c.passes = append(c.passes, &Pass{Kind: k, Enabled: true, Uniforms: u})
	}
	add(PassRender, nil)
	add(PassBokeh, map[string]float32{
		UFocus:    s.BokehFocus,
		UAperture: s.BokehAperture,
		UMaxBlur:  s.BokehMaxBlur,
		UAspect:   1,
	})
	add(PassVignette, map[string]float32{
		UOffset:   s.VignetteOffset,
		UDarkness: s.VignetteDarkness,
	})
	add(PassBloom, map[string]float32{
		UStrength:    s.BloomStrength,
		URadius:      s.BloomRadius,
		UThreshold:   s.BloomThreshold,
		UResolutionX: 1,
		UResolutionY: 1,
	})
	add(PassFXAA, map[string]float32{
		UResolutionX: 1,
		UResolutionY: 1,
	})
	add(PassOutput, map[string]float32{
		UExposure: s.Exposure,
	})
	return c
}

func (c *Chain) Passes() []*Pass { return c.passes }

// Pass returns the pass of kind k, or nil.
func (c *Chain) Pass(k PassKind) *Pass {
	for _, p := range c.passes {
		if p.Kind == k {
			return p
		}
	}
	return nil
}

// Set changes a uniform on a pass.
func (c *Chain) Set(k PassKind, name string, v float32) error {
	p := c.Pass(k)
	if p == nil {
		return fmt.Errorf("no %s pass", k)
	}
	if _, ok := p.Uniforms[name]; !ok {
		return fmt.Errorf("%s pass has no uniform %q", k, name)
	}
	p.Uniforms[name] = v
	return nil
}

// Size returns the CSS-pixel viewport size and pixel ratio last applied.
func (c *Chain) Size() (w, h int, pixelRatio float64) {
	return c.width, c.height, c.pixelRatio
}

// Resize recomputes every resolution-dependent uniform. w and h are in
// window coordinates; the drawing buffer is w*pixelRatio by h*pixelRatio.
func (c *Chain) Resize(w, h int, pixelRatio float64) {
	if w <= 0 || h <= 0 {
		return
	}
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	c.width, c.height, c.pixelRatio = w, h, pixelRatio

	fxaa := c.Pass(PassFXAA)
	fxaa.Uniforms[UResolutionX] = float32(1 / (float64(w) * pixelRatio))
	fxaa.Uniforms[UResolutionY] = float32(1 / (float64(h) * pixelRatio))

	bloom := c.Pass(PassBloom)
	bloom.Uniforms[UResolutionX] = float32(w)
	bloom.Uniforms[UResolutionY] = float32(h)

	c.Pass(PassBokeh).Uniforms[UAspect] = float32(w) / float32(h)
}

// BufferSize returns the drawing buffer size in device pixels.
func (c *Chain) BufferSize() (int, int) {
	return int(float64(c.width)*c.pixelRatio + 0.5), int(float64(c.height)*c.pixelRatio + 0.5)
}

// PixelRatio clamps a display content scale to limit. A non-positive
// limit leaves the scale uncapped.
func PixelRatio(contentScale, limit float64) float64 {
	if contentScale <= 0 {
		return 1
	}
	if limit > 0 && contentScale > limit {
		return limit
	}
	return contentScale
}
