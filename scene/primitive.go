package scene

import (
	"math/rand"

	"github.com/SimpsonGSD/path-tracer/types"
	"github.com/chewxy/math32"
)

type PrimitiveType uint32

const (
	SpherePrimitive PrimitiveType = iota
	BoxPrimitive
	TrianglePrimitive
)

// Describes the intersection of a ray with a primitive.
type HitRecord struct {
	// Parametric distance along the ray.
	T float32

	// Surface point, shading normal and texture coordinates.
	Point  types.Vec3
	Normal types.Vec3
	UV     types.Vec2

	// Indices into the scene primitive and material arrays.
	PrimitiveIndex int32
	MaterialIndex  int32

	// True when the ray hit the geometric front face. The normal is
	// always flipped towards the ray origin; this flag preserves which
	// side was hit for refraction.
	FrontFace bool
}

// Defines a scene primitive. Primitives are immutable once the scene has
// been built and reference their material by index.
type Primitive struct {
	// The primitive type.
	Type PrimitiveType

	// The primitive origin. Spheres and boxes store their center here.
	Origin types.Vec3

	// Primitive dimensions. The component count varies depending on the
	// primitive type: spheres use [0] as the radius, boxes store their
	// half-extents.
	Dimensions types.Vec3

	// Triangle vertices and per-vertex uv coords.
	Vertices [3]types.Vec3
	UV       [3]types.Vec2

	// Index of the primitive material in the scene material list.
	MaterialIndex int32
}

// Create new sphere primitive.
func NewSphere(origin types.Vec3, radius float32, matIndex int32) Primitive {
	return Primitive{
		Type:          SpherePrimitive,
		Origin:        origin,
		Dimensions:    types.Vec3{radius},
		MaterialIndex: matIndex,
	}
}

// Create new axis-aligned box primitive centered at origin.
func NewBox(origin types.Vec3, dims types.Vec3, matIndex int32) Primitive {
	return Primitive{
		Type:          BoxPrimitive,
		Origin:        origin,
		Dimensions:    dims.Mul(0.5),
		MaterialIndex: matIndex,
	}
}

// Create new triangle primitive. Vertices should be specified in
// counter-clockwise order when viewed from the front face.
func NewTriangle(vertices [3]types.Vec3, uv [3]types.Vec2, matIndex int32) Primitive {
	return Primitive{
		Type:          TrianglePrimitive,
		Vertices:      vertices,
		UV:            uv,
		MaterialIndex: matIndex,
	}
}

// Create two triangles covering the quad v0-v1-v2-v3.
func NewQuad(v0, v1, v2, v3 types.Vec3, matIndex int32) []Primitive {
	return []Primitive{
		NewTriangle([3]types.Vec3{v0, v1, v2}, [3]types.Vec2{{0, 0}, {1, 0}, {1, 1}}, matIndex),
		NewTriangle([3]types.Vec3{v0, v2, v3}, [3]types.Vec2{{0, 0}, {1, 1}, {0, 1}}, matIndex),
	}
}

// Get the axis-aligned bounding box of the primitive.
func (p *Primitive) BBox() [2]types.Vec3 {
	switch p.Type {
	case SpherePrimitive:
		r := p.Dimensions[0]
		rv := types.Vec3{r, r, r}
		return [2]types.Vec3{p.Origin.Sub(rv), p.Origin.Add(rv)}
	case BoxPrimitive:
		return [2]types.Vec3{p.Origin.Sub(p.Dimensions), p.Origin.Add(p.Dimensions)}
	default:
		min := types.MinVec3(p.Vertices[0], types.MinVec3(p.Vertices[1], p.Vertices[2]))
		max := types.MaxVec3(p.Vertices[0], types.MaxVec3(p.Vertices[1], p.Vertices[2]))
		return [2]types.Vec3{min, max}
	}
}

// Get the primitive center used for BVH partitioning.
func (p *Primitive) Center() types.Vec3 {
	if p.Type == TrianglePrimitive {
		return p.Vertices[0].Add(p.Vertices[1]).Add(p.Vertices[2]).Mul(1.0 / 3.0)
	}
	return p.Origin
}

// Check that the primitive describes real geometry. Degenerate primitives
// are excluded from the acceleration structure at build time.
func (p *Primitive) Valid() bool {
	if !p.Origin.IsFinite() || !p.Dimensions.IsFinite() {
		return false
	}

	switch p.Type {
	case SpherePrimitive:
		return p.Dimensions[0] > 0
	case BoxPrimitive:
		return p.Dimensions[0] > 0 && p.Dimensions[1] > 0 && p.Dimensions[2] > 0
	default:
		for _, v := range p.Vertices {
			if !v.IsFinite() {
				return false
			}
		}
		e1 := p.Vertices[1].Sub(p.Vertices[0])
		e2 := p.Vertices[2].Sub(p.Vertices[0])
		return e1.Cross(e2).Len() > floatEpsilon
	}
}

// Get the primitive surface area. Used for emissive sample weighting.
func (p *Primitive) Area() float32 {
	switch p.Type {
	case SpherePrimitive:
		r := p.Dimensions[0]
		return 4.0 * math32.Pi * r * r
	case BoxPrimitive:
		d := p.Dimensions.Mul(2.0)
		return 2.0 * (d[0]*d[1] + d[0]*d[2] + d[1]*d[2])
	default:
		e1 := p.Vertices[1].Sub(p.Vertices[0])
		e2 := p.Vertices[2].Sub(p.Vertices[0])
		return 0.5 * e1.Cross(e2).Len()
	}
}

const floatEpsilon float32 = 1e-7

// Intersect ray with primitive. Returns the parametric hit distance inside
// the ray interval or false if the ray misses.
func (p *Primitive) Intersect(r Ray) (float32, bool) {
	switch p.Type {
	case SpherePrimitive:
		return p.intersectSphere(r)
	case BoxPrimitive:
		return p.intersectBox(r)
	default:
		return p.intersectTriangle(r)
	}
}

func (p *Primitive) intersectSphere(r Ray) (float32, bool) {
	oc := r.Origin.Sub(p.Origin)
	a := r.Dir.Dot(r.Dir)
	halfB := oc.Dot(r.Dir)
	c := oc.Dot(oc) - p.Dimensions[0]*p.Dimensions[0]

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return 0, false
	}

	sqrtD := math32.Sqrt(discriminant)
	t := (-halfB - sqrtD) / a
	if t < r.TMin || t > r.TMax {
		t = (-halfB + sqrtD) / a
		if t < r.TMin || t > r.TMax {
			return 0, false
		}
	}
	return t, true
}

func (p *Primitive) intersectBox(r Ray) (float32, bool) {
	min := p.Origin.Sub(p.Dimensions)
	max := p.Origin.Add(p.Dimensions)

	tNear := r.TMin
	tFar := r.TMax
	for axis := 0; axis < 3; axis++ {
		if math32.Abs(r.Dir[axis]) < floatEpsilon {
			// Ray parallel to slab; miss unless origin is inside it.
			if r.Origin[axis] < min[axis] || r.Origin[axis] > max[axis] {
				return 0, false
			}
			continue
		}

		invD := 1.0 / r.Dir[axis]
		t0 := (min[axis] - r.Origin[axis]) * invD
		t1 := (max[axis] - r.Origin[axis]) * invD
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear = t0
		}
		if t1 < tFar {
			tFar = t1
		}
		if tNear > tFar {
			return 0, false
		}
	}

	if tNear > r.TMin {
		return tNear, true
	}
	if tFar > r.TMin && tFar < r.TMax {
		return tFar, true
	}
	return 0, false
}

// Moeller-Trumbore intersection test.
func (p *Primitive) intersectTriangle(r Ray) (float32, bool) {
	e1 := p.Vertices[1].Sub(p.Vertices[0])
	e2 := p.Vertices[2].Sub(p.Vertices[0])

	pVec := r.Dir.Cross(e2)
	det := e1.Dot(pVec)
	if math32.Abs(det) < floatEpsilon {
		return 0, false
	}

	invDet := 1.0 / det
	tVec := r.Origin.Sub(p.Vertices[0])
	u := tVec.Dot(pVec) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	qVec := tVec.Cross(e1)
	v := r.Dir.Dot(qVec) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := e2.Dot(qVec) * invDet
	if t < r.TMin || t > r.TMax {
		return 0, false
	}
	return t, true
}

// Fill the surface attributes of hit for an intersection at distance t.
// The normal always faces the ray origin side.
func (p *Primitive) FillHit(r Ray, t float32, hit *HitRecord) {
	hit.T = t
	hit.Point = r.At(t)
	hit.MaterialIndex = p.MaterialIndex

	switch p.Type {
	case SpherePrimitive:
		n := hit.Point.Sub(p.Origin).Mul(1.0 / p.Dimensions[0])
		hit.Normal = n
		hit.UV = types.Vec2{
			0.5 + math32.Atan2(n[2], n[0])/(2.0*math32.Pi),
			0.5 - math32.Asin(clampUnit(n[1]))/math32.Pi,
		}
	case BoxPrimitive:
		hit.Normal = p.boxNormal(hit.Point)
		local := hit.Point.Sub(p.Origin)
		hit.UV = types.Vec2{
			clampUnit(local[0]/p.Dimensions[0])*0.5 + 0.5,
			clampUnit(local[1]/p.Dimensions[1])*0.5 + 0.5,
		}
	default:
		e1 := p.Vertices[1].Sub(p.Vertices[0])
		e2 := p.Vertices[2].Sub(p.Vertices[0])
		hit.Normal = e1.Cross(e2).Normalize()

		// Barycentric uv interpolation.
		u, v := p.barycentric(hit.Point)
		w := 1.0 - u - v
		hit.UV = types.Vec2{
			w*p.UV[0][0] + u*p.UV[1][0] + v*p.UV[2][0],
			w*p.UV[0][1] + u*p.UV[1][1] + v*p.UV[2][1],
		}
	}

	hit.FrontFace = hit.Normal.Dot(r.Dir) <= 0
	if !hit.FrontFace {
		hit.Normal = hit.Normal.Mul(-1)
	}
}

func (p *Primitive) boxNormal(point types.Vec3) types.Vec3 {
	local := point.Sub(p.Origin)
	var normal types.Vec3
	var best float32 = -math32.MaxFloat32
	for axis := 0; axis < 3; axis++ {
		d := math32.Abs(local[axis]) / p.Dimensions[axis]
		if d > best {
			best = d
			normal = types.Vec3{}
			if local[axis] >= 0 {
				normal[axis] = 1
			} else {
				normal[axis] = -1
			}
		}
	}
	return normal
}

func (p *Primitive) barycentric(point types.Vec3) (float32, float32) {
	e1 := p.Vertices[1].Sub(p.Vertices[0])
	e2 := p.Vertices[2].Sub(p.Vertices[0])
	d := point.Sub(p.Vertices[0])

	d11 := e1.Dot(e1)
	d12 := e1.Dot(e2)
	d22 := e2.Dot(e2)
	dd1 := d.Dot(e1)
	dd2 := d.Dot(e2)

	denom := d11*d22 - d12*d12
	if math32.Abs(denom) < floatEpsilon {
		return 0, 0
	}
	u := (d22*dd1 - d12*dd2) / denom
	v := (d11*dd2 - d12*dd1) / denom
	return u, v
}

// Sample a uniformly distributed point on the primitive surface. Returns
// the point and the surface normal at it. Used for next-event estimation
// of emissive primitives.
func (p *Primitive) SamplePoint(rng *rand.Rand) (types.Vec3, types.Vec3) {
	switch p.Type {
	case SpherePrimitive:
		// Uniform point on the unit sphere scaled by the radius.
		z := 1.0 - 2.0*rng.Float32()
		phi := 2.0 * math32.Pi * rng.Float32()
		r := math32.Sqrt(math32.Max(0, 1.0-z*z))
		n := types.Vec3{r * math32.Cos(phi), r * math32.Sin(phi), z}
		return p.Origin.Add(n.Mul(p.Dimensions[0])), n
	case BoxPrimitive:
		return p.sampleBoxFace(rng)
	default:
		// Uniform barycentric sample.
		u := rng.Float32()
		v := rng.Float32()
		if u+v > 1 {
			u, v = 1.0-u, 1.0-v
		}
		e1 := p.Vertices[1].Sub(p.Vertices[0])
		e2 := p.Vertices[2].Sub(p.Vertices[0])
		point := p.Vertices[0].Add(e1.Mul(u)).Add(e2.Mul(v))
		return point, e1.Cross(e2).Normalize()
	}
}

func (p *Primitive) sampleBoxFace(rng *rand.Rand) (types.Vec3, types.Vec3) {
	d := p.Dimensions
	faceAreas := [3]float32{d[1] * d[2], d[0] * d[2], d[0] * d[1]}
	total := faceAreas[0] + faceAreas[1] + faceAreas[2]

	// Pick the face axis weighted by area, then one of the two sides.
	pick := rng.Float32() * total
	axis := 0
	for ; axis < 2; axis++ {
		if pick < faceAreas[axis] {
			break
		}
		pick -= faceAreas[axis]
	}

	var side float32 = 1
	if rng.Float32() < 0.5 {
		side = -1
	}

	var normal, point types.Vec3
	normal[axis] = side
	point[axis] = side * d[axis]
	u := axis + 1
	if u > 2 {
		u = 0
	}
	v := u + 1
	if v > 2 {
		v = 0
	}
	point[u] = (2.0*rng.Float32() - 1.0) * d[u]
	point[v] = (2.0*rng.Float32() - 1.0) * d[v]

	return p.Origin.Add(point), normal
}

func clampUnit(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
