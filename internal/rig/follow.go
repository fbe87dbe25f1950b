package rig

import "github.com/go-gl/mathgl/mgl32"

// Follow drags the camera toward a point fixed in the car's local frame.
type Follow struct {
	Offset mgl32.Vec3 // car-local, behind and above
	Factor float32    // fraction of the gap closed per frame
}

func DefaultFollow() Follow {
	return Follow{Offset: mgl32.Vec3{0, 2, -3}, Factor: 0.1}
}

// Desired returns the world-space point the camera is pulled toward.
func (f Follow) Desired(carWorld mgl32.Mat4) mgl32.Vec3 {
	return carWorld.Mul4x1(f.Offset.Vec4(1)).Vec3()
}

// Update moves cam one frame closer to the follow point and aims it at the car.
func (f Follow) Update(cam *Camera, carWorld mgl32.Mat4, carPos mgl32.Vec3) {
	target := f.Desired(carWorld)
	cam.Position = cam.Position.Add(target.Sub(cam.Position).Mul(f.Factor))
	cam.Target = carPos
}
