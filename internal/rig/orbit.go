package rig

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Orbit rotates the camera around its target from mouse drags, with
// damping. Zoom and pan are not supported.
type Orbit struct {
	Damping     float32
	MinDistance float32
	MaxDistance float32
	RotateSpeed float32

	dTheta float32 // pending azimuth, radians
	dPhi   float32 // pending polar, radians
}

func DefaultOrbit() *Orbit {
	return &Orbit{
		Damping:     0.05,
		MinDistance: 2,
		MaxDistance: 100,
		RotateSpeed: 1,
	}
}

// polar angle limits keep the camera off the poles where LookAt degenerates
const (
	minPolar = 1e-3
	maxPolar = math.Pi - 1e-3
)

// Rotate queues a drag of (dx, dy) pixels. A drag across the full viewport
// height turns the camera by a full circle.
func (o *Orbit) Rotate(dx, dy float64, viewportH int) {
	if viewportH <= 0 {
		return
	}
	k := 2 * math.Pi * float64(o.RotateSpeed) / float64(viewportH)
	o.dTheta -= float32(dx * k)
	o.dPhi -= float32(dy * k)
}

// Pending reports whether a drag is still being applied.
func (o *Orbit) Pending() bool {
	return math.Abs(float64(o.dTheta)) > 1e-6 || math.Abs(float64(o.dPhi)) > 1e-6
}

// Update applies the damped share of the pending rotation and clamps the
// camera distance to [MinDistance, MaxDistance].
func (o *Orbit) Update(cam *Camera) {
	off := cam.Position.Sub(cam.Target)
	radius := off.Len()
	if radius < 1e-6 {
		off = mgl32.Vec3{0, 0, o.MinDistance}
		radius = o.MinDistance
	}

	theta := math.Atan2(float64(off.X()), float64(off.Z()))
	phi := math.Acos(float64(mgl32.Clamp(off.Y()/radius, -1, 1)))

	theta += float64(o.dTheta * o.Damping)
	phi += float64(o.dPhi * o.Damping)
	phi = math.Max(minPolar, math.Min(maxPolar, phi))

	radius = mgl32.Clamp(radius, o.MinDistance, o.MaxDistance)

	sinPhi := math.Sin(phi)
	off = mgl32.Vec3{
		float32(float64(radius) * sinPhi * math.Sin(theta)),
		float32(float64(radius) * math.Cos(phi)),
		float32(float64(radius) * sinPhi * math.Cos(theta)),
	}
	cam.Position = cam.Target.Add(off)

	o.dTheta *= 1 - o.Damping
	o.dPhi *= 1 - o.Damping
}
