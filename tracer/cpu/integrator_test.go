package cpu

import (
	"math/rand"
	"testing"

	"github.com/SimpsonGSD/path-tracer/scene"
	"github.com/SimpsonGSD/path-tracer/types"
)

// A closed box with a diffuse floor and a quad light, looked at from the
// inside. Every path either terminates on the light or bounces between
// diffuse walls.
func makeTestScene(t *testing.T) *scene.Scene {
	t.Helper()

	sc := scene.NewScene()
	sc.SkyBrightness = 0

	white := sc.AddMaterial(scene.NewDiffuse(types.Vec3{0.73, 0.73, 0.73}))
	light := sc.AddMaterial(scene.NewEmissive(types.Vec3{5, 5, 5}))

	var s float32 = 10
	sc.AddPrimitives(scene.NewBox(types.Vec3{0, -s, 0}, types.Vec3{4 * s, 1, 4 * s}, white))
	sc.AddPrimitives(scene.NewBox(types.Vec3{0, s, 0}, types.Vec3{4 * s, 1, 4 * s}, white))
	sc.AddPrimitives(scene.NewBox(types.Vec3{0, 0, -2 * s}, types.Vec3{4 * s, 4 * s, 1}, white))
	sc.AddPrimitives(scene.NewQuad(
		types.Vec3{-2, s - 1, -8},
		types.Vec3{2, s - 1, -8},
		types.Vec3{2, s - 1, -12},
		types.Vec3{-2, s - 1, -12},
		light,
	)...)

	sc.Camera = scene.NewCamera(60)
	sc.Camera.Position = types.Vec3{0, 0, 0}
	sc.Camera.LookAt = types.Vec3{0, 0, -1}
	sc.Camera.SetupProjection(1.0)

	if err := sc.Prepare(); err != nil {
		t.Fatalf("failed to prepare scene: %v", err)
	}
	return sc
}

func makeTestIntegrator(t *testing.T, sc *scene.Scene, debugFlags DebugFlag) *pathIntegrator {
	t.Helper()
	return &pathIntegrator{
		scene:           sc,
		accel:           scene.BuildAccel(sc.Primitives, 2),
		camera:          sc.Camera,
		maxBounces:      4,
		minBouncesForRR: 3,
		debugFlags:      debugFlags,
	}
}

func TestTracePixelProducesFiniteRadiance(t *testing.T) {
	sc := makeTestScene(t)
	pt := makeTestIntegrator(t, sc, NoDebug)
	rng := rand.New(rand.NewSource(1))

	const frameDim = 16
	for y := uint32(0); y < frameDim; y++ {
		for x := uint32(0); x < frameDim; x++ {
			for s := 0; s < 8; s++ {
				radiance := pt.TracePixel(x, y, frameDim, frameDim, rng)
				if !radiance.IsFinite() {
					t.Fatalf("[pixel %d,%d] expected finite radiance; got %v", x, y, radiance)
				}
				for c := 0; c < 3; c++ {
					if radiance[c] < 0 {
						t.Fatalf("[pixel %d,%d] expected non-negative radiance; got %v", x, y, radiance)
					}
				}
			}
		}
	}
}

func TestTracePixelIsDeterministicForFixedSeed(t *testing.T) {
	sc := makeTestScene(t)
	pt := makeTestIntegrator(t, sc, NoDebug)

	first := pt.TracePixel(8, 8, 16, 16, rand.New(rand.NewSource(99)))
	for run := 0; run < 8; run++ {
		got := pt.TracePixel(8, 8, 16, 16, rand.New(rand.NewSource(99)))
		if got != first {
			t.Fatalf("[run %d] expected identical radiance %v for fixed seed; got %v", run, first, got)
		}
	}
}

func TestDirectlyVisibleEmitterKeepsFullWeight(t *testing.T) {
	sc := scene.NewScene()
	sc.SkyBrightness = 0

	emission := types.Vec3{5, 5, 5}
	light := sc.AddMaterial(scene.NewEmissive(emission))
	sc.AddPrimitives(scene.NewSphere(types.Vec3{0, 0, -5}, 3, light))

	sc.Camera = scene.NewCamera(60)
	sc.Camera.SetupProjection(1.0)
	if err := sc.Prepare(); err != nil {
		t.Fatalf("failed to prepare scene: %v", err)
	}

	pt := makeTestIntegrator(t, sc, NoDebug)
	rng := rand.New(rand.NewSource(3))

	// The center pixel looks straight at the emitter; no MIS weighting
	// applies on the primary hit.
	got := pt.TracePixel(8, 8, 16, 16, rng)
	if got != emission {
		t.Fatalf("expected full emitter radiance %v; got %v", emission, got)
	}
}

func TestMissedRaysReturnBackground(t *testing.T) {
	sc := scene.NewScene()
	sc.SkyBrightness = 0.5
	diffuse := sc.AddMaterial(scene.NewDiffuse(types.Vec3{0.5, 0.5, 0.5}))
	sc.AddPrimitives(scene.NewSphere(types.Vec3{0, 0, 100}, 1, diffuse))

	sc.Camera = scene.NewCamera(60)
	sc.Camera.SetupProjection(1.0)
	if err := sc.Prepare(); err != nil {
		t.Fatalf("failed to prepare scene: %v", err)
	}

	pt := makeTestIntegrator(t, sc, NoDebug)
	rng := rand.New(rand.NewSource(3))

	// The camera looks towards -z and the only primitive sits behind it,
	// so every primary ray escapes to the sky.
	got := pt.TracePixel(8, 8, 16, 16, rng)
	if got == (types.Vec3{}) {
		t.Fatal("expected sky radiance for a missed ray; got black")
	}
	if !got.IsFinite() {
		t.Fatalf("expected finite sky radiance; got %v", got)
	}
}

func TestDebugNormals(t *testing.T) {
	sc := makeTestScene(t)
	pt := makeTestIntegrator(t, sc, DebugNormals)
	rng := rand.New(rand.NewSource(5))

	for y := uint32(0); y < 16; y++ {
		for x := uint32(0); x < 16; x++ {
			got := pt.TracePixel(x, y, 16, 16, rng)
			for c := 0; c < 3; c++ {
				if got[c] < 0 || got[c] > 1 {
					t.Fatalf("[pixel %d,%d] expected remapped normal in [0,1]; got %v", x, y, got)
				}
			}
		}
	}
}

func TestDebugBounceHeatmap(t *testing.T) {
	sc := makeTestScene(t)
	pt := makeTestIntegrator(t, sc, DebugBounceHeatmap)
	rng := rand.New(rand.NewSource(5))

	blue := types.Vec3{0, 0, 1}
	red := types.Vec3{1, 0, 0}
	for y := uint32(0); y < 16; y++ {
		for x := uint32(0); x < 16; x++ {
			got := pt.TracePixel(x, y, 16, 16, rng)

			// Every heatmap color is a blend between blue and red.
			if got[1] != 0 {
				t.Fatalf("[pixel %d,%d] expected heatmap color between %v and %v; got %v", x, y, blue, red, got)
			}
			if got[0] < 0 || got[0] > 1 || got[2] < 0 || got[2] > 1 {
				t.Fatalf("[pixel %d,%d] expected heatmap color between %v and %v; got %v", x, y, blue, red, got)
			}
		}
	}
}

// A huge diffuse slab in front of the camera under a uniform white sky.
// Every path hits the slab once and escapes, so the exact expected
// radiance per pixel is the slab albedo regardless of roulette.
func makeFurnaceScene(t *testing.T) *scene.Scene {
	t.Helper()

	sc := scene.NewScene()
	sc.SkyColor = types.Vec3{1, 1, 1}
	sc.SkyBrightness = 1

	grey := sc.AddMaterial(scene.NewDiffuse(types.Vec3{0.5, 0.5, 0.5}))
	sc.AddPrimitives(scene.NewBox(types.Vec3{0, 0, -10}, types.Vec3{1000, 1000, 1}, grey))

	sc.Camera = scene.NewCamera(60)
	sc.Camera.SetupProjection(1.0)
	if err := sc.Prepare(); err != nil {
		t.Fatalf("failed to prepare scene: %v", err)
	}
	return sc
}

func TestRussianRouletteIsUnbiased(t *testing.T) {
	sc := makeFurnaceScene(t)
	rng := rand.New(rand.NewSource(17))

	// Without roulette every sample evaluates to exactly the albedo.
	pt := makeTestIntegrator(t, sc, NoDebug)
	pt.minBouncesForRR = pt.maxBounces + 1
	for s := 0; s < 64; s++ {
		got := pt.TracePixel(8, 8, 16, 16, rng)
		for c := 0; c < 3; c++ {
			if got[c] < 0.5-1e-4 || got[c] > 0.5+1e-4 {
				t.Fatalf("expected per-sample radiance 0.5 without RR; got %v", got)
			}
		}
	}

	// With roulette from the first bounce half the paths terminate and the
	// survivors are compensated by 1/p; the mean must stay at the albedo.
	pt.minBouncesForRR = 1
	const numSamples = 20000
	var sum float32
	for s := 0; s < numSamples; s++ {
		sum += pt.TracePixel(8, 8, 16, 16, rng)[0]
	}
	mean := sum / numSamples

	// 0.5 +- 8 standard errors.
	if mean < 0.47 || mean > 0.53 {
		t.Fatalf("expected RR mean radiance near 0.5; got %f", mean)
	}
}

func TestRussianRouletteDisabledBeyondBounceCap(t *testing.T) {
	sc := makeTestScene(t)
	pt := makeTestIntegrator(t, sc, NoDebug)

	// A roulette threshold above the bounce cap disables path
	// elimination; paths must still terminate at the cap.
	pt.minBouncesForRR = pt.maxBounces + 1

	rng := rand.New(rand.NewSource(11))
	for s := 0; s < 64; s++ {
		radiance := pt.TracePixel(4, 4, 16, 16, rng)
		if !radiance.IsFinite() {
			t.Fatalf("expected finite radiance with RR disabled; got %v", radiance)
		}
	}
}
