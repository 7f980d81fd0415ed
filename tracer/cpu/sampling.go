package cpu

import (
	"math/rand"

	"github.com/SimpsonGSD/path-tracer/types"
	"github.com/chewxy/math32"
)

// Build an orthonormal basis around the unit vector n.
func orthonormalBasis(n types.Vec3) (types.Vec3, types.Vec3) {
	var axis types.Vec3
	if math32.Abs(n[0]) > 0.9 {
		axis = types.Vec3{0, 1, 0}
	} else {
		axis = types.Vec3{1, 0, 0}
	}

	tangent := axis.Cross(n).Normalize()
	bitangent := n.Cross(tangent)
	return tangent, bitangent
}

// Sample a direction on the hemisphere around n with a cosine-weighted
// distribution. Returns the direction and its PDF (cos(theta) / pi).
func cosineSampleHemisphere(n types.Vec3, rng *rand.Rand) (types.Vec3, float32) {
	r1 := rng.Float32()
	r2 := rng.Float32()

	phi := 2.0 * math32.Pi * r1
	sinTheta := math32.Sqrt(r2)
	cosTheta := math32.Sqrt(1.0 - r2)

	tangent, bitangent := orthonormalBasis(n)
	dir := tangent.Mul(sinTheta * math32.Cos(phi)).
		Add(bitangent.Mul(sinTheta * math32.Sin(phi))).
		Add(n.Mul(cosTheta))

	return dir, cosTheta / math32.Pi
}

// Sample a uniformly distributed point inside the unit sphere. Used to
// perturb the metallic reflection lobe.
func randomInUnitSphere(rng *rand.Rand) types.Vec3 {
	for {
		v := types.Vec3{
			2.0*rng.Float32() - 1.0,
			2.0*rng.Float32() - 1.0,
			2.0*rng.Float32() - 1.0,
		}
		if v.LenSq() < 1.0 {
			return v
		}
	}
}

// Power heuristic (beta = 2) for combining two sampling strategies.
func powerHeuristic(fPdf, gPdf float32) float32 {
	f2 := fPdf * fPdf
	g2 := gPdf * gPdf
	if f2+g2 <= 0 {
		return 0
	}
	return f2 / (f2 + g2)
}

// Derive a deterministic per-pixel RNG seed. The sequence depends only on
// the base seed, the pass number and the pixel location so results do not
// change with block scheduling or execution order.
func pixelSeed(baseSeed, frameCount, x, y, frameW uint32) int64 {
	h := uint64(baseSeed)<<32 | uint64(frameCount)
	h ^= uint64(y*frameW+x) * 0x9e3779b97f4a7c15

	// splitmix64 finalizer
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31

	return int64(h)
}
