package cpu

import (
	"math/rand"
	"time"

	"github.com/SimpsonGSD/path-tracer/scene"
	"github.com/SimpsonGSD/path-tracer/tracer"
	"github.com/SimpsonGSD/path-tracer/types"
	"github.com/chewxy/math32"
)

// Use a montecarlo pathtracer implementation for the integrator stage.
// numBounces caps the path length; Russian roulette path elimination kicks
// in after minBouncesForRR bounces. A minBouncesForRR greater than
// numBounces disables roulette entirely.
func MonteCarloIntegrator(numBounces, minBouncesForRR uint32, debugFlags DebugFlag) Stage {
	return func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error) {
		start := time.Now()

		pt := &pathIntegrator{
			scene:           tr.scene,
			accel:           tr.accel,
			camera:          tr.camera,
			maxBounces:      numBounces,
			minBouncesForRR: minBouncesForRR,
			debugFlags:      debugFlags,
		}

		for y := blockReq.BlockY; y < blockReq.BlockY+blockReq.BlockH; y++ {
			for x := uint32(0); x < blockReq.FrameW; x++ {
				rng := rand.New(rand.NewSource(pixelSeed(blockReq.Seed, blockReq.FrameCount, x, y, blockReq.FrameW)))
				for s := uint32(0); s < blockReq.SamplesPerPixel; s++ {
					sample := pt.TracePixel(x, y, blockReq.FrameW, blockReq.FrameH, rng)
					tr.accum.AddSample(x, y, sample)
				}
			}
		}

		return time.Since(start), nil
	}
}

// The path integrator evaluates the light transport integral for single
// pixels. It only reads immutable scene state and is re-entrant; block
// workers run one instance each without synchronization.
type pathIntegrator struct {
	scene  *scene.Scene
	accel  *scene.Accel
	camera *scene.Camera

	maxBounces      uint32
	minBouncesForRR uint32
	debugFlags      DebugFlag
}

// The result of sampling the BRDF at a surface hit.
type brdfSample struct {
	// Next path direction.
	Dir types.Vec3

	// Throughput multiplier: BRDF weight divided by the sampling PDF.
	Weight types.Vec3

	// Solid-angle PDF of the sampled direction. Zero for the delta lobes
	// of specular materials.
	PDF float32

	// True when the lobe is specular; specular path vertices skip
	// next-event estimation and its MIS weighting.
	Specular bool
}

// Trace one path through pixel (x, y) and return its radiance estimate.
// Degenerate BRDF samples terminate the path; non-finite or negative
// radiance is rejected before it can reach the accumulation buffer.
func (pt *pathIntegrator) TracePixel(x, y, frameW, frameH uint32, rng *rand.Rand) types.Vec3 {
	ray := pt.camera.PrimaryRay(x, y, frameW, frameH, rng)

	switch pt.debugFlags {
	case DebugNormals:
		return pt.traceNormals(ray)
	case DebugBounceHeatmap:
		return pt.traceHeatmap(ray, rng)
	}

	var radiance types.Vec3
	throughput := types.Vec3{1, 1, 1}

	// Primary rays carry specular history: directly visible lights are
	// always accumulated at full weight.
	specularBounce := true
	var prevBrdfPdf float32

	for bounce := uint32(0); bounce <= pt.maxBounces; bounce++ {
		hit, found := pt.accel.NearestHit(ray)
		if !found {
			radiance = radiance.Add(throughput.MulVec(pt.scene.Background(ray.Dir)))
			break
		}

		mat := &pt.scene.Materials[hit.MaterialIndex]
		if mat.Type == scene.EmissiveMaterial {
			weight := float32(1.0)
			if !specularBounce {
				// This emitter was also sampled by next-event estimation
				// at the previous vertex; weight the BRDF-sampled
				// contribution accordingly.
				weight = powerHeuristic(prevBrdfPdf, pt.lightPdf(ray, &hit))
			}
			radiance = radiance.Add(throughput.MulVec(mat.Emissive).Mul(weight))
			break
		}

		if mat.Type == scene.DiffuseMaterial {
			radiance = radiance.Add(throughput.MulVec(pt.sampleDirectLight(&hit, mat, rng)))
		}

		sample, valid := pt.sampleBrdf(mat, ray, &hit, rng)
		if !valid {
			break
		}

		throughput = throughput.MulVec(sample.Weight)
		if !throughput.IsFinite() {
			// Degenerate BRDF evaluation; drop the path instead of
			// poisoning the accumulator.
			return types.Vec3{}
		}
		specularBounce = sample.Specular
		prevBrdfPdf = sample.PDF

		// Russian roulette path elimination. The continuation probability
		// equals the max throughput channel so surviving paths stay
		// unbiased after the 1/p compensation.
		if bounce+1 >= pt.minBouncesForRR {
			p := types.Clamp01(throughput.MaxComponent())
			if rng.Float32() >= p {
				break
			}
			throughput = throughput.Mul(1.0 / p)
		}

		ray = scene.NewRay(hit.Point, sample.Dir)
	}

	if !radiance.IsFinite() {
		return types.Vec3{}
	}
	return types.MaxVec3(radiance, types.Vec3{})
}

// Visualize the primary-hit surface normal remapped to [0, 1].
func (pt *pathIntegrator) traceNormals(ray scene.Ray) types.Vec3 {
	hit, found := pt.accel.NearestHit(ray)
	if !found {
		return types.Vec3{}
	}
	return hit.Normal.Mul(0.5).Add(types.Vec3{0.5, 0.5, 0.5})
}

// Visualize path length: blue for paths that terminate immediately, red
// for paths that reach the bounce cap.
func (pt *pathIntegrator) traceHeatmap(ray scene.Ray, rng *rand.Rand) types.Vec3 {
	var bounces uint32
	for ; bounces <= pt.maxBounces; bounces++ {
		hit, found := pt.accel.NearestHit(ray)
		if !found {
			break
		}

		mat := &pt.scene.Materials[hit.MaterialIndex]
		if mat.Type == scene.EmissiveMaterial {
			break
		}

		sample, valid := pt.sampleBrdf(mat, ray, &hit, rng)
		if !valid {
			break
		}
		ray = scene.NewRay(hit.Point, sample.Dir)
	}

	t := float32(bounces) / float32(pt.maxBounces+1)
	return types.Lerp(types.Vec3{0, 0, 1}, types.Vec3{1, 0, 0}, t)
}

// Sample the material BRDF at the hit point and return the next path
// direction together with its throughput weight.
func (pt *pathIntegrator) sampleBrdf(mat *scene.Material, ray scene.Ray, hit *scene.HitRecord, rng *rand.Rand) (brdfSample, bool) {
	switch mat.Type {
	case scene.DiffuseMaterial:
		dir, pdf := cosineSampleHemisphere(hit.Normal, rng)
		if pdf <= 0 {
			return brdfSample{}, false
		}
		// The cosine term and the cosine-weighted PDF cancel, leaving
		// the albedo as the throughput weight.
		return brdfSample{Dir: dir, Weight: mat.Albedo, PDF: pdf}, true

	case scene.MetallicMaterial:
		reflected := ray.Dir.Normalize().Reflect(hit.Normal)
		if mat.Roughness > 0 {
			reflected = reflected.Add(randomInUnitSphere(rng).Mul(mat.Roughness))
		}
		if reflected.Dot(hit.Normal) <= 0 {
			// Fuzz pushed the lobe below the horizon; the sample is
			// absorbed.
			return brdfSample{}, false
		}
		return brdfSample{Dir: reflected.Normalize(), Weight: mat.Albedo, Specular: true}, true

	case scene.RefractiveMaterial:
		return pt.sampleDielectric(mat, ray, hit, rng)
	}

	return brdfSample{}, false
}

// Schlick-weighted reflection/refraction for dielectric materials.
func (pt *pathIntegrator) sampleDielectric(mat *scene.Material, ray scene.Ray, hit *scene.HitRecord, rng *rand.Rand) (brdfSample, bool) {
	unitDir := ray.Dir.Normalize()
	cosIn := -unitDir.Dot(hit.Normal)

	niOverNt := 1.0 / mat.IOR
	if !hit.FrontFace {
		niOverNt = mat.IOR
	}

	refracted, canRefract := unitDir.Refract(hit.Normal, niOverNt)

	reflectProb := float32(1.0)
	if canRefract {
		reflectProb = schlick(cosIn, mat.IOR)
	}

	if rng.Float32() < reflectProb {
		return brdfSample{
			Dir:      unitDir.Reflect(hit.Normal).Normalize(),
			Weight:   mat.Albedo,
			Specular: true,
		}, true
	}
	return brdfSample{Dir: refracted.Normalize(), Weight: mat.Albedo, Specular: true}, true
}

func schlick(cos, ior float32) float32 {
	r0 := (1.0 - ior) / (1.0 + ior)
	r0 = r0 * r0
	return r0 + (1.0-r0)*math32.Pow(1.0-math32.Abs(cos), 5)
}

// Next-event estimation: sample a point on one emissive primitive, test
// visibility with an occlusion query and weight the contribution with the
// power heuristic against BRDF sampling.
func (pt *pathIntegrator) sampleDirectLight(hit *scene.HitRecord, mat *scene.Material, rng *rand.Rand) types.Vec3 {
	numLights := len(pt.scene.EmissiveIndices)
	if numLights == 0 {
		return types.Vec3{}
	}

	lightIndex := pt.scene.EmissiveIndices[rng.Intn(numLights)]
	light := &pt.scene.Primitives[lightIndex]
	if lightIndex == hit.PrimitiveIndex {
		return types.Vec3{}
	}

	lightPoint, lightNormal := light.SamplePoint(rng)
	toLight := lightPoint.Sub(hit.Point)
	distSq := toLight.LenSq()
	dist := math32.Sqrt(distSq)
	if dist < scene.RayEpsilon {
		return types.Vec3{}
	}
	dir := toLight.Mul(1.0 / dist)

	cosSurface := dir.Dot(hit.Normal)
	if cosSurface <= 0 {
		return types.Vec3{}
	}
	cosLight := -dir.Dot(lightNormal)
	if cosLight <= 0 {
		return types.Vec3{}
	}

	shadowRay := scene.NewRay(hit.Point, dir)
	shadowRay.TMax = dist - scene.RayEpsilon
	if pt.accel.AnyHit(shadowRay) {
		return types.Vec3{}
	}

	// Solid-angle PDF of having sampled this point on this light.
	lightPdf := distSq / (cosLight * light.Area() * float32(numLights))
	if lightPdf <= 0 || math32.IsNaN(lightPdf) || math32.IsInf(lightPdf, 0) {
		return types.Vec3{}
	}

	brdfPdf := cosSurface / math32.Pi
	misWeight := powerHeuristic(lightPdf, brdfPdf)

	emission := pt.scene.Materials[light.MaterialIndex].Emissive
	brdf := mat.Albedo.Mul(1.0 / math32.Pi)
	return emission.MulVec(brdf).Mul(cosSurface * misWeight / lightPdf)
}

// Solid-angle PDF for next-event estimation having produced the direction
// that lead to this emissive hit.
func (pt *pathIntegrator) lightPdf(ray scene.Ray, hit *scene.HitRecord) float32 {
	numLights := len(pt.scene.EmissiveIndices)
	if numLights == 0 {
		return 0
	}

	light := &pt.scene.Primitives[hit.PrimitiveIndex]

	// The hit normal faces the ray origin, so the light-side cosine is
	// measured against the reversed path direction.
	cosLight := -ray.Dir.Normalize().Dot(hit.Normal)
	if cosLight <= floatEpsilon {
		return 0
	}

	return (hit.T * hit.T) / (cosLight * light.Area() * float32(numLights))
}

const floatEpsilon float32 = 1e-7
