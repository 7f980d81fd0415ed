package renderer

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Number of indirect bounces.
	NumBounces uint32

	// Min bounces before applying russian roulette for path elimination.
	MinBouncesForRR uint32

	// Number of samples traced per pixel for each render pass.
	SamplesPerPixel uint32

	// Accumulated samples per pixel before an offline render terminates.
	// A zero target renders a single pass.
	TargetSamplesPerPixel uint32

	// Exposure for tonemapping.
	Exposure float32

	// Base seed for the per-pixel random sequences.
	Seed uint32

	// Number of CPU tracers to attach. Zero selects one tracer per
	// logical core.
	NumTracers int
}
