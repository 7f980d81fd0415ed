package scene

import (
	"github.com/SimpsonGSD/path-tracer/types"
	"github.com/chewxy/math32"
)

// Bias applied to ray origins to avoid self-intersection with the surface
// the ray originates from. Shadow rays use the same bias on both ends.
const RayEpsilon float32 = 1e-3

// A ray with a valid parametric interval [TMin, TMax].
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3

	TMin float32
	TMax float32
}

// Create a ray with the default parametric interval.
func NewRay(origin, dir types.Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		TMin:   RayEpsilon,
		TMax:   math32.MaxFloat32,
	}
}

// Get the point at parametric distance t along the ray.
func (r Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}
