// Package config loads runtime settings from an optional JSON file and
// CITYDRIVE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/viper"

	"github.com/lallassu/citydrive/internal/assets"
	"github.com/lallassu/citydrive/internal/controls"
	"github.com/lallassu/citydrive/internal/postfx"
	"github.com/lallassu/citydrive/internal/vehicle"
)

const (
	FileName  = "citydrive"
	EnvPrefix = "CITYDRIVE"
)

type WindowConfig struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
	VSync  bool   `mapstructure:"vsync"`
}

type VehicleConfig struct {
	MaxForwardSpeed float64 `mapstructure:"maxForwardSpeed"`
	MaxReverseSpeed float64 `mapstructure:"maxReverseSpeed"`
	Acceleration    float64 `mapstructure:"acceleration"`
	BrakingRate     float64 `mapstructure:"brakingRate"`
	FrictionRate    float64 `mapstructure:"frictionRate"`
	TurnRate        float64 `mapstructure:"turnRate"`
	MoveDeadZone    float64 `mapstructure:"moveDeadZone"`
	TurnDeadZone    float64 `mapstructure:"turnDeadZone"`
	OpposingBrake   bool    `mapstructure:"opposingBrake"`
}

type OrbitConfig struct {
	Damping     float32 `mapstructure:"damping"`
	MinDistance float32 `mapstructure:"minDistance"`
	MaxDistance float32 `mapstructure:"maxDistance"`
}

type CameraConfig struct {
	Fov          float32     `mapstructure:"fov"`
	Near         float32     `mapstructure:"near"`
	Far          float32     `mapstructure:"far"`
	FollowOffset [3]float32  `mapstructure:"followOffset"`
	FollowFactor float32     `mapstructure:"followFactor"`
	Orbit        OrbitConfig `mapstructure:"orbit"`
}

type ModelConfig struct {
	Path     string     `mapstructure:"path"`
	Position [3]float32 `mapstructure:"position"`
	Scale    float32    `mapstructure:"scale"`
	RotateY  float32    `mapstructure:"rotateY"`
}

type BackgroundConfig struct {
	Path   string  `mapstructure:"path"`
	Radius float32 `mapstructure:"radius"`
	Repeat float32 `mapstructure:"repeat"`
}

type AssetsConfig struct {
	Car        ModelConfig      `mapstructure:"car"`
	City       ModelConfig      `mapstructure:"city"`
	Background BackgroundConfig `mapstructure:"background"`
}

type FogConfig struct {
	Color string  `mapstructure:"color"`
	Near  float32 `mapstructure:"near"`
	Far   float32 `mapstructure:"far"`
}

type RenderConfig struct {
	Exposure      float32   `mapstructure:"exposure"`
	MaxPixelRatio float64   `mapstructure:"maxPixelRatio"`
	ShadowMapSize int       `mapstructure:"shadowMapSize"`
	Fog           FogConfig `mapstructure:"fog"`
}

type PostFXConfig struct {
	BokehFocus       float32 `mapstructure:"bokehFocus"`
	BokehAperture    float32 `mapstructure:"bokehAperture"`
	BokehMaxBlur     float32 `mapstructure:"bokehMaxBlur"`
	VignetteOffset   float32 `mapstructure:"vignetteOffset"`
	VignetteDarkness float32 `mapstructure:"vignetteDarkness"`
	BloomStrength    float32 `mapstructure:"bloomStrength"`
	BloomRadius      float32 `mapstructure:"bloomRadius"`
	BloomThreshold   float32 `mapstructure:"bloomThreshold"`
}

type AudioConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Volume  float64 `mapstructure:"volume"`
}

type Config struct {
	LogLevel string `mapstructure:"logLevel"`
	LogFile  string `mapstructure:"logFile"`

	Window   WindowConfig      `mapstructure:"window"`
	Vehicle  VehicleConfig     `mapstructure:"vehicle"`
	Camera   CameraConfig      `mapstructure:"camera"`
	Assets   AssetsConfig      `mapstructure:"assets"`
	Render   RenderConfig      `mapstructure:"render"`
	PostFX   PostFXConfig      `mapstructure:"postfx"`
	Controls map[string]string `mapstructure:"controls"`
	Audio    AudioConfig       `mapstructure:"audio"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFile", "")

	v.SetDefault("window.width", 1280)
	v.SetDefault("window.height", 720)
	v.SetDefault("window.title", "City Drive")
	v.SetDefault("window.vsync", true)

	t := vehicle.DefaultTunables()
	v.SetDefault("vehicle.maxForwardSpeed", t.MaxForwardSpeed)
	v.SetDefault("vehicle.maxReverseSpeed", t.MaxReverseSpeed)
	v.SetDefault("vehicle.acceleration", t.Acceleration)
	v.SetDefault("vehicle.brakingRate", t.BrakingRate)
	v.SetDefault("vehicle.frictionRate", t.FrictionRate)
	v.SetDefault("vehicle.turnRate", t.TurnRate)
	v.SetDefault("vehicle.moveDeadZone", t.MoveDeadZone)
	v.SetDefault("vehicle.turnDeadZone", t.TurnDeadZone)
	v.SetDefault("vehicle.opposingBrake", t.OpposingBrake)

	v.SetDefault("camera.fov", 75)
	v.SetDefault("camera.near", 0.1)
	v.SetDefault("camera.far", 1000)
	v.SetDefault("camera.followOffset", []float32{0, 2, -3})
	v.SetDefault("camera.followFactor", 0.1)
	v.SetDefault("camera.orbit.damping", 0.05)
	v.SetDefault("camera.orbit.minDistance", 2)
	v.SetDefault("camera.orbit.maxDistance", 100)

	v.SetDefault("assets.car.path", "assets/car/scene.gltf")
	v.SetDefault("assets.car.position", []float32{0, 0, 0})
	v.SetDefault("assets.car.scale", 1)
	v.SetDefault("assets.car.rotateY", float32(math.Pi/2))
	v.SetDefault("assets.city.path", "assets/futuristic_city/scene.gltf")
	v.SetDefault("assets.city.position", []float32{0, -19.65, 0})
	v.SetDefault("assets.city.scale", 2)
	v.SetDefault("assets.city.rotateY", 0)
	v.SetDefault("assets.background.path", "assets/bg.jpg")
	v.SetDefault("assets.background.radius", 500)
	v.SetDefault("assets.background.repeat", 4)

	v.SetDefault("render.exposure", 1.55)
	v.SetDefault("render.maxPixelRatio", 2)
	v.SetDefault("render.shadowMapSize", 2048)
	v.SetDefault("render.fog.color", "#181818")
	v.SetDefault("render.fog.near", 10)
	v.SetDefault("render.fog.far", 600)

	fx := postfx.DefaultSettings()
	v.SetDefault("postfx.bokehFocus", fx.BokehFocus)
	v.SetDefault("postfx.bokehAperture", fx.BokehAperture)
	v.SetDefault("postfx.bokehMaxBlur", fx.BokehMaxBlur)
	v.SetDefault("postfx.vignetteOffset", fx.VignetteOffset)
	v.SetDefault("postfx.vignetteDarkness", fx.VignetteDarkness)
	v.SetDefault("postfx.bloomStrength", fx.BloomStrength)
	v.SetDefault("postfx.bloomRadius", fx.BloomRadius)
	v.SetDefault("postfx.bloomThreshold", fx.BloomThreshold)

	v.SetDefault("controls", map[string]string{
		"forward":  "W",
		"backward": "S",
		"left":     "A",
		"right":    "D",
	})

	v.SetDefault("audio.enabled", true)
	v.SetDefault("audio.volume", 0.5)
}

// Load reads citydrive.json from configDir if present. A missing file is
// not an error; defaults and environment still apply.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(FileName)
	v.SetConfigType("json")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if err := c.Tunables().Validate(); err != nil {
		return fmt.Errorf("vehicle: %w", err)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("invalid camera clip range %v..%v", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.Orbit.MinDistance > c.Camera.Orbit.MaxDistance {
		return fmt.Errorf("orbit min distance %v exceeds max %v", c.Camera.Orbit.MinDistance, c.Camera.Orbit.MaxDistance)
	}
	if _, err := ParseHexColor(c.Render.Fog.Color); err != nil {
		return fmt.Errorf("fog: %w", err)
	}
	if _, err := controls.ParseBindings(c.Controls); err != nil {
		return fmt.Errorf("controls: %w", err)
	}
	return nil
}

func (c *Config) Tunables() vehicle.Tunables {
	return vehicle.Tunables{
		MaxForwardSpeed: c.Vehicle.MaxForwardSpeed,
		MaxReverseSpeed: c.Vehicle.MaxReverseSpeed,
		Acceleration:    c.Vehicle.Acceleration,
		BrakingRate:     c.Vehicle.BrakingRate,
		FrictionRate:    c.Vehicle.FrictionRate,
		TurnRate:        c.Vehicle.TurnRate,
		MoveDeadZone:    c.Vehicle.MoveDeadZone,
		TurnDeadZone:    c.Vehicle.TurnDeadZone,
		OpposingBrake:   c.Vehicle.OpposingBrake,
	}
}

func (c *Config) PostFXSettings() postfx.Settings {
	return postfx.Settings{
		BokehFocus:       c.PostFX.BokehFocus,
		BokehAperture:    c.PostFX.BokehAperture,
		BokehMaxBlur:     c.PostFX.BokehMaxBlur,
		VignetteOffset:   c.PostFX.VignetteOffset,
		VignetteDarkness: c.PostFX.VignetteDarkness,
		BloomStrength:    c.PostFX.BloomStrength,
		BloomRadius:      c.PostFX.BloomRadius,
		BloomThreshold:   c.PostFX.BloomThreshold,
		Exposure:         c.Render.Exposure,
	}
}

// Bindings returns the validated key table.
func (c *Config) Bindings() controls.Bindings {
	b, err := controls.ParseBindings(c.Controls)
	if err != nil {
		return controls.DefaultBindings()
	}
	return b
}

func (m ModelConfig) Vec() mgl32.Vec3 { return mgl32.Vec3(m.Position) }

// Placement bakes the whole model config into the mesh vertices.
func (m ModelConfig) Placement() assets.Placement {
	return assets.Placement{Position: m.Vec(), Scale: m.Scale, RotateY: m.RotateY}
}

// CarStart splits the car config into what is baked into the mesh (scale
// only) and the node state the integrator drives. Position and rotation
// live on the node so forward motion follows the model's own +Z.
func (c *Config) CarStart() (assets.Placement, vehicle.State) {
	car := c.Assets.Car
	return assets.Placement{Scale: car.Scale}, vehicle.State{
		Position: car.Vec(),
		Heading:  float64(car.RotateY),
	}
}

// ParseHexColor parses "#rrggbb" into linear-ish 0..1 components.
func ParseHexColor(s string) (mgl32.Vec3, error) {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return mgl32.Vec3{}, fmt.Errorf("color %q: want #rrggbb", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return mgl32.Vec3{}, fmt.Errorf("color %q: %w", s, err)
	}
	return mgl32.Vec3{float32(r) / 255, float32(g) / 255, float32(b) / 255}, nil
}
