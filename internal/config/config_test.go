package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lallassu/citydrive/internal/controls"
	"github.com/lallassu/citydrive/internal/postfx"
	"github.com/lallassu/citydrive/internal/vehicle"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName+".json"), []byte(body), 0o644))
	return dir
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.True(t, cfg.Window.VSync)

	assert.Equal(t, vehicle.DefaultTunables(), cfg.Tunables())

	assert.Equal(t, float32(75), cfg.Camera.Fov)
	assert.Equal(t, [3]float32{0, 2, -3}, cfg.Camera.FollowOffset)
	assert.Equal(t, float32(0.1), cfg.Camera.FollowFactor)
	assert.Equal(t, float32(0.05), cfg.Camera.Orbit.Damping)

	assert.Equal(t, "assets/car/scene.gltf", cfg.Assets.Car.Path)
	assert.InDelta(t, math.Pi/2, cfg.Assets.Car.RotateY, 1e-6)
	assert.Equal(t, mgl32.Vec3{0, -19.65, 0}, cfg.Assets.City.Vec())
	assert.Equal(t, float32(2), cfg.Assets.City.Scale)
	assert.Equal(t, float32(500), cfg.Assets.Background.Radius)

	assert.Equal(t, "#181818", cfg.Render.Fog.Color)
	assert.Equal(t, postfx.DefaultSettings(), cfg.PostFXSettings())
	assert.Equal(t, controls.DefaultBindings(), cfg.Bindings())
	assert.True(t, cfg.Audio.Enabled)
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := writeConfig(t, `{
		"logLevel": "debug",
		"window": {"width": 800, "height": 600},
		"vehicle": {"maxForwardSpeed": 0.6, "opposingBrake": true},
		"controls": {"forward": "UP"},
		"postfx": {"bloomStrength": 0.4}
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, "City Drive", cfg.Window.Title)

	tun := cfg.Tunables()
	assert.Equal(t, 0.6, tun.MaxForwardSpeed)
	assert.True(t, tun.OpposingBrake)
	assert.Equal(t, vehicle.DefaultAcceleration, tun.Acceleration)

	assert.Equal(t, controls.ActionForward, cfg.Bindings().Lookup("UP"))
	assert.Equal(t, controls.ActionLeft, cfg.Bindings().Lookup("A"))
	assert.Equal(t, float32(0.4), cfg.PostFXSettings().BloomStrength)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CITYDRIVE_VEHICLE_TURNRATE", "0.08")
	t.Setenv("CITYDRIVE_LOGLEVEL", "warn")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0.08, cfg.Vehicle.TurnRate)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := writeConfig(t, `{"window": `)
	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"window":   `{"window": {"width": 0}}`,
		"vehicle":  `{"vehicle": {"maxReverseSpeed": 0.2}}`,
		"camera":   `{"camera": {"near": 10, "far": 5}}`,
		"orbit":    `{"camera": {"orbit": {"minDistance": 50, "maxDistance": 10}}}`,
		"fog":      `{"render": {"fog": {"color": "grey"}}}`,
		"controls": `{"controls": {"jump": "SPACE"}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.ErrorContains(t, err, name)
		})
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#ff8000")
	require.NoError(t, err)
	assert.InDelta(t, 1, c.X(), 1e-6)
	assert.InDelta(t, 128.0/255, c.Y(), 1e-6)
	assert.InDelta(t, 0, c.Z(), 1e-6)

	_, err = ParseHexColor("ff8000")
	assert.Error(t, err)
	_, err = ParseHexColor("#zz8000")
	assert.Error(t, err)
}

func TestCarStart_NoseFollowsTravel(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	place, car := cfg.CarStart()
	assert.Zero(t, place.RotateY)
	assert.Equal(t, mgl32.Vec3{}, place.Position)
	assert.InDelta(t, math.Pi/2, car.Heading, 1e-6)

	start := car.Position
	for i := 0; i < 10; i++ {
		car = vehicle.Step(car, vehicle.Input{Forward: true}, cfg.Tunables())
	}
	travel := car.Position.Sub(start)
	require.Greater(t, travel.Len(), float32(0))

	nose := car.Transform().Mul4(place.Matrix()).Mul4x1(mgl32.Vec4{0, 0, 1, 0}).Vec3()
	assert.InDelta(t, 1, nose.Normalize().Dot(travel.Normalize()), 1e-5)
	assert.InDelta(t, 1, nose.X(), 1e-5)
}

func TestCarStart_PositionOnNode(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"assets": {"car": {"position": [3, 1, -2], "scale": 0.5, "rotateY": 0}}}`))
	require.NoError(t, err)

	place, car := cfg.CarStart()
	assert.Equal(t, float32(0.5), place.Scale)
	assert.Equal(t, mgl32.Vec3{}, place.Position)
	assert.Equal(t, mgl32.Vec3{3, 1, -2}, car.Position)
	assert.Zero(t, car.Heading)
}

func TestModelConfig_Placement(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	p := cfg.Assets.City.Placement()
	assert.Equal(t, mgl32.Vec3{0, -19.65, 0}, p.Position)
	assert.Equal(t, float32(2), p.Scale)
	assert.Zero(t, p.RotateY)
}

func TestLoad_MaxPixelRatioAboveTwo(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"render": {"maxPixelRatio": 3}}`))
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Render.MaxPixelRatio)
	assert.Equal(t, 3.0, postfx.PixelRatio(3, cfg.Render.MaxPixelRatio))
	assert.Equal(t, 2.5, postfx.PixelRatio(2.5, cfg.Render.MaxPixelRatio))
}
