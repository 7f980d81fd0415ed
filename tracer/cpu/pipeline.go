package cpu

import (
	"time"

	"github.com/SimpsonGSD/path-tracer/tracer"
)

// Debug modes short-circuit the integrator loop and visualize intermediate
// path state instead of radiance.
type DebugFlag uint8

const (
	NoDebug DebugFlag = iota

	// Visualize the primary-hit surface normal remapped to [0, 1].
	DebugNormals

	// Visualize the number of bounces each path performed.
	DebugBounceHeatmap
)

// An alias for functions that can be used as part of the rendering
// pipeline. Each stage processes the block described by blockReq and
// reports the time it spent.
type Stage func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error)

// The list of pluggable stages that are used to render a block. The
// integrator adds radiance samples to the accumulation buffer; the
// post-process stages map the accumulated estimate to displayable pixels.
type Pipeline struct {
	Integrator  Stage
	PostProcess []Stage
}

// Assemble the standard rendering pipeline: the Monte Carlo integrator
// followed by the tonemap post-process stage.
func DefaultPipeline(numBounces, minBouncesForRR uint32, debugFlags DebugFlag, tonemapOpts TonemapOptions) *Pipeline {
	return &Pipeline{
		Integrator: MonteCarloIntegrator(numBounces, minBouncesForRR, debugFlags),
		PostProcess: []Stage{
			Tonemap(tonemapOpts),
		},
	}
}
