package game

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/lallassu/citydrive/internal/config"
	"github.com/lallassu/citydrive/internal/postfx"
)

func initWindow(cfg config.WindowConfig) (*glfw.Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Decorated, glfw.True)
	glfw.WindowHint(glfw.ScaleToMonitor, glfw.True)

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()
	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	return window, nil
}

// viewportSize returns the window size in screen coordinates and the
// framebuffer-to-window scale, capped at maxRatio.
func viewportSize(window *glfw.Window, maxRatio float64) (w, h int, ratio float64) {
	w, h = window.GetSize()
	fbW, _ := window.GetFramebufferSize()
	if w <= 0 || h <= 0 {
		return w, h, 1
	}
	return w, h, postfx.PixelRatio(float64(fbW)/float64(w), maxRatio)
}
