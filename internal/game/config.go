package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Asset names used by the loader and the scene.
const (
	AssetCar        = "car"
	AssetCity       = "city"
	AssetBackground = "background"
)

// Lighting.
var (
	AmbientColor     = mgl32.Vec3{1, 1, 1}
	AmbientIntensity = float32(1.0)

	SunPosition  = mgl32.Vec3{5, 100, 5}
	SunColor     = mgl32.Vec3{1, 1, 1}
	SunIntensity = float32(5.0)
)

type SpotLight struct {
	Position  mgl32.Vec3
	Target    mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

var SpotLights = [2]SpotLight{
	{Position: mgl32.Vec3{5, 5, 5}, Color: mgl32.Vec3{1, 0, 0}, Intensity: 10},
	{Position: mgl32.Vec3{-5, 5, 5}, Color: mgl32.Vec3{1, 1, 0}, Intensity: 10},
}

const SpotAngle = math.Pi / 3 // cone half-angle

// Sun shadow camera (orthographic, centred on the origin).
const (
	ShadowExtent = 60.0
	ShadowNear   = 1.0
	ShadowFar    = 250.0
)

// Sky dome tessellation.
const (
	SkyWidthSegments  = 60
	SkyHeightSegments = 40
)

// srgbToLinear converts a display colour to the renderer's linear space.
func srgbToLinear(c mgl32.Vec3) mgl32.Vec3 {
	var out mgl32.Vec3
	for i, v := range c {
		if v <= 0.04045 {
			out[i] = v / 12.92
		} else {
			out[i] = float32(math.Pow((float64(v)+0.055)/1.055, 2.4))
		}
	}
	return out
}
