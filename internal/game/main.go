package game

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"github.com/lallassu/citydrive/internal/assets"
	"github.com/lallassu/citydrive/internal/config"
	"github.com/lallassu/citydrive/internal/controls"
	"github.com/lallassu/citydrive/internal/enginesound"
	"github.com/lallassu/citydrive/internal/postfx"
	"github.com/lallassu/citydrive/internal/rig"
	"github.com/lallassu/citydrive/internal/telemetry"
	"github.com/lallassu/citydrive/internal/vehicle"
)

// RunDesktop opens the window and runs the frame loop until the window is
// closed. It must be called from the main goroutine.
func RunDesktop(cfg *config.Config, log zerolog.Logger, metrics *telemetry.Metrics) error {
	runtime.LockOSThread()

	window, err := initWindow(cfg.Window)
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}
	log.Info().Str("version", gl.GoStr(gl.GetString(gl.VERSION))).Msg("OpenGL context ready")

	fogColor, err := config.ParseHexColor(cfg.Render.Fog.Color)
	if err != nil {
		return fmt.Errorf("fog: %w", err)
	}
	rend, err := NewRenderer(cfg.Render.ShadowMapSize, Fog{
		Color: srgbToLinear(fogColor),
		Near:  cfg.Render.Fog.Near,
		Far:   cfg.Render.Fog.Far,
	})
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	defer rend.Destroy()

	post, err := NewPostChain(postfx.NewChain(cfg.PostFXSettings()))
	if err != nil {
		return fmt.Errorf("post chain: %w", err)
	}
	defer post.Destroy()

	// Camera rig.
	cam := rig.NewCamera(cfg.Camera.Fov, cfg.Camera.Near, cfg.Camera.Far)
	follow := rig.Follow{Offset: mgl32.Vec3(cfg.Camera.FollowOffset), Factor: cfg.Camera.FollowFactor}
	orbit := rig.DefaultOrbit()
	orbit.Damping = cfg.Camera.Orbit.Damping
	orbit.MinDistance = cfg.Camera.Orbit.MinDistance
	orbit.MaxDistance = cfg.Camera.Orbit.MaxDistance

	// Controls.
	keys := &controls.State{}
	input := NewInput(keys, cfg.Bindings(), orbit)
	input.Attach(window)

	tunables := cfg.Tunables()
	carPlacement, car := cfg.CarStart()
	carReady := false

	synth := enginesound.New()
	if cfg.Audio.Enabled {
		audio, err := NewEngineAudio(synth, cfg.Audio.Volume)
		if err != nil {
			log.Warn().Err(err).Msg("Audio init failed, continuing without sound")
		} else {
			defer audio.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	loader := assets.NewLoader()
	defer func() {
		cancel()
		loader.Wait()
	}()

	bus := NewEventBus()
	bus.Subscribe(EventAssetLoaded, func(e Event) {
		res := e.Asset
		switch {
		case res.Model != nil:
			rend.AddModel(res.Name, res.Model)
			log.Info().Str("asset", res.Name).Str("path", res.Path).
				Int("meshes", len(res.Model.Meshes)).Msg("Model loaded")
		case res.Image != nil && res.Name == AssetBackground:
			bg := cfg.Assets.Background
			rend.SetSky(res.Image, bg.Radius, bg.Repeat)
			log.Info().Str("asset", res.Name).Str("path", res.Path).Msg("Background loaded")
		}
		if res.Name == AssetCar {
			carReady = true
			rend.SetTransform(AssetCar, car.Transform())
		}
	})
	bus.Subscribe(EventAssetFailed, func(e Event) {
		log.Error().Err(e.Asset.Err).Str("asset", e.Asset.Name).Str("path", e.Asset.Path).Msg("Asset load failed")
		if e.Asset.Name == AssetCar {
			log.Warn().Msg("No car model, driving disabled")
		}
	})
	subscribe := func(t EventType) {
		bus.Subscribe(t, func(e Event) { metrics.AssetLoaded(ctx, e.Asset.Name, e.Asset.Err) })
	}
	subscribe(EventAssetLoaded)
	subscribe(EventAssetFailed)

	loader.LoadModel(ctx, AssetCar, cfg.Assets.Car.Path, carPlacement)
	loader.LoadModel(ctx, AssetCity, cfg.Assets.City.Path, cfg.Assets.City.Placement())
	loader.LoadImage(ctx, AssetBackground, cfg.Assets.Background.Path)

	resize := func() error {
		w, h, ratio := viewportSize(window, cfg.Render.MaxPixelRatio)
		if w <= 0 || h <= 0 {
			return nil
		}
		cam.SetAspect(w, h)
		if err := post.Resize(w, h, ratio); err != nil {
			return fmt.Errorf("resize: %w", err)
		}
		log.Debug().Int("width", w).Int("height", h).Float64("pixelRatio", ratio).Msg("Viewport resized")
		return nil
	}
	if err := resize(); err != nil {
		return err
	}

	last := time.Now()
	for !window.ShouldClose() {
		glfw.PollEvents()

		if input.TakeResize() {
			if err := resize(); err != nil {
				return err
			}
		}

		fbW, fbH := window.GetFramebufferSize()
		if fbW <= 0 || fbH <= 0 {
			glfw.WaitEvents()
			continue
		}

		for _, res := range loader.Poll() {
			bus.Emit(AssetEvent(res))
		}

		if carReady {
			car = vehicle.Step(car, keys.Snapshot(), tunables)
			world := car.Transform()
			rend.SetTransform(AssetCar, world)
			follow.Update(cam, world, car.Position)
		}
		orbit.Update(cam)
		synth.SetSpeed(car.Speed, tunables.MaxForwardSpeed)

		rend.RenderShadows()
		post.Render(rend, cam, fbW, fbH)
		window.SwapBuffers()

		now := time.Now()
		metrics.Frame(ctx, now.Sub(last))
		metrics.Speed(ctx, car.Speed)
		last = now
	}
	return nil
}
