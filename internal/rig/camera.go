// Package rig positions the perspective camera around the player car.
package rig

import "github.com/go-gl/mathgl/mgl32"

type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	FovY   float32 // degrees
	Aspect float32
	Near   float32
	Far    float32
}

func NewCamera(fovY, near, far float32) *Camera {
	return &Camera{
		Position: mgl32.Vec3{0, 5, 10},
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     fovY,
		Aspect:   1,
		Near:     near,
		Far:      far,
	}
}

// SetAspect updates the projection aspect from a viewport size. Zero-sized
// viewports (minimised window) are ignored.
func (c *Camera) SetAspect(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	c.Aspect = float32(w) / float32(h)
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}
