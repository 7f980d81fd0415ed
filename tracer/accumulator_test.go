package tracer

import (
	"testing"

	"github.com/SimpsonGSD/path-tracer/types"
)

func TestAccumulatorMean(t *testing.T) {
	accum := NewAccumulator(4, 4)

	accum.AddSample(1, 2, types.Vec3{1, 2, 3})
	accum.AddSample(1, 2, types.Vec3{3, 2, 1})

	exp := types.Vec3{2, 2, 2}
	got := accum.Read(1, 2)
	if got != exp {
		t.Fatalf("expected mean radiance %v; got %v", exp, got)
	}

	if count := accum.SampleCount(1, 2); count != 2 {
		t.Fatalf("expected sample count 2; got %d", count)
	}
}

func TestAccumulatorUnsampledPixelsReadBlack(t *testing.T) {
	accum := NewAccumulator(2, 2)

	if got := accum.Read(0, 0); got != (types.Vec3{}) {
		t.Fatalf("expected unsampled pixel to read as black; got %v", got)
	}
}

func TestAccumulatorMinSampleCount(t *testing.T) {
	accum := NewAccumulator(2, 1)

	if got := accum.MinSampleCount(); got != 0 {
		t.Fatalf("expected min sample count 0 for empty accumulator; got %d", got)
	}

	accum.AddSample(0, 0, types.Vec3{1, 1, 1})
	accum.AddSample(0, 0, types.Vec3{1, 1, 1})
	if got := accum.MinSampleCount(); got != 0 {
		t.Fatalf("expected min sample count 0 while a pixel is unsampled; got %d", got)
	}

	accum.AddSample(1, 0, types.Vec3{1, 1, 1})
	if got := accum.MinSampleCount(); got != 1 {
		t.Fatalf("expected min sample count 1; got %d", got)
	}
}

func TestAccumulatorReset(t *testing.T) {
	accum := NewAccumulator(2, 2)
	accum.AddSample(0, 1, types.Vec3{1, 2, 3})

	accum.Reset()

	if got := accum.Read(0, 1); got != (types.Vec3{}) {
		t.Fatalf("expected reset pixel to read as black; got %v", got)
	}
	if got := accum.SampleCount(0, 1); got != 0 {
		t.Fatalf("expected reset sample count 0; got %d", got)
	}
}

func TestAccumulatorOrderIndependence(t *testing.T) {
	samples := []types.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {2, 2, 2}}

	forward := NewAccumulator(1, 1)
	for _, s := range samples {
		forward.AddSample(0, 0, s)
	}

	backward := NewAccumulator(1, 1)
	for idx := len(samples) - 1; idx >= 0; idx-- {
		backward.AddSample(0, 0, samples[idx])
	}

	if forward.Read(0, 0) != backward.Read(0, 0) {
		t.Fatalf("expected accumulation to be order independent; got %v and %v", forward.Read(0, 0), backward.Read(0, 0))
	}
}
