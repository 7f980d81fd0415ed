package renderer

import (
	"testing"

	"github.com/SimpsonGSD/path-tracer/scene"
	"github.com/SimpsonGSD/path-tracer/tracer"
	"github.com/SimpsonGSD/path-tracer/tracer/cpu"
	"github.com/SimpsonGSD/path-tracer/types"
)

func makeTestScene(t *testing.T) *scene.Scene {
	t.Helper()

	sc := scene.NewScene()
	sc.SkyBrightness = 0

	light := sc.AddMaterial(scene.NewEmissive(types.Vec3{5, 5, 5}))
	sc.AddPrimitives(scene.NewSphere(types.Vec3{0, 0, -5}, 3, light))

	sc.Camera = scene.NewCamera(60)
	return sc
}

func makeTestOptions() Options {
	return Options{
		FrameW:                16,
		FrameH:                16,
		NumBounces:            2,
		MinBouncesForRR:       3,
		SamplesPerPixel:       1,
		TargetSamplesPerPixel: 4,
		Exposure:              1.0,
		NumTracers:            2,
	}
}

func TestDefaultRendererValidatesScene(t *testing.T) {
	pipeline := cpu.DefaultPipeline(2, 3, cpu.NoDebug, cpu.TonemapOptions{})

	if _, err := NewDefault(nil, tracer.NaiveScheduler(), pipeline, makeTestOptions()); err != ErrSceneNotDefined {
		t.Fatalf("expected ErrSceneNotDefined; got %v", err)
	}

	sc := makeTestScene(t)
	sc.Camera = nil
	if _, err := NewDefault(sc, tracer.NaiveScheduler(), pipeline, makeTestOptions()); err != ErrCameraNotDefined {
		t.Fatalf("expected ErrCameraNotDefined; got %v", err)
	}
}

func TestDefaultRendererOfflineRender(t *testing.T) {
	sc := makeTestScene(t)
	opts := makeTestOptions()
	pipeline := cpu.DefaultPipeline(opts.NumBounces, opts.MinBouncesForRR, cpu.NoDebug, cpu.TonemapOptions{Curve: cpu.ReinhardCurve})

	r, err := NewDefault(sc, tracer.PerfectScheduler(), pipeline, opts)
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}
	defer r.Close()

	if err = r.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	stats := r.Stats()
	if stats.MinSamples < opts.TargetSamplesPerPixel {
		t.Fatalf("expected at least %d samples per pixel; got %d", opts.TargetSamplesPerPixel, stats.MinSamples)
	}
	if len(stats.Tracers) != opts.NumTracers {
		t.Fatalf("expected stats for %d tracers; got %d", opts.NumTracers, len(stats.Tracers))
	}

	var totalRows uint32
	for _, stat := range stats.Tracers {
		totalRows += stat.BlockH
	}
	if totalRows != opts.FrameH {
		t.Fatalf("expected block assignments to cover %d rows; got %d", opts.FrameH, totalRows)
	}

	frame := r.FrameBuffer()
	if bounds := frame.Bounds(); bounds.Dx() != int(opts.FrameW) || bounds.Dy() != int(opts.FrameH) {
		t.Fatalf("expected %dx%d frame; got %dx%d", opts.FrameW, opts.FrameH, bounds.Dx(), bounds.Dy())
	}

	// The emitter fills the view center; the frame must not be black and
	// every pixel must be opaque.
	var litPixels int
	for offset := 0; offset < len(frame.Pix); offset += 4 {
		if frame.Pix[offset] > 0 || frame.Pix[offset+1] > 0 || frame.Pix[offset+2] > 0 {
			litPixels++
		}
		if frame.Pix[offset+3] != 255 {
			t.Fatalf("expected opaque alpha at offset %d; got %d", offset, frame.Pix[offset+3])
		}
	}
	if litPixels == 0 {
		t.Fatal("expected rendered frame to contain lit pixels")
	}
}

func TestDefaultRendererWithMoreTracersThanRows(t *testing.T) {
	sc := makeTestScene(t)
	opts := makeTestOptions()
	opts.FrameH = 4
	opts.NumTracers = 8
	pipeline := cpu.DefaultPipeline(opts.NumBounces, opts.MinBouncesForRR, cpu.NoDebug, cpu.TonemapOptions{Curve: cpu.ReinhardCurve})

	r, err := NewDefault(sc, tracer.PerfectScheduler(), pipeline, opts)
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}
	defer r.Close()

	// The scheduler hands the excess tracers empty blocks; the pass must
	// still cover every frame row and reach the sample target.
	if err = r.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	stats := r.Stats()
	if stats.MinSamples < opts.TargetSamplesPerPixel {
		t.Fatalf("expected at least %d samples per pixel; got %d", opts.TargetSamplesPerPixel, stats.MinSamples)
	}

	var totalRows uint32
	for _, stat := range stats.Tracers {
		if stat.BlockH > opts.FrameH {
			t.Fatalf("tracer %s assigned %d rows for a %d-row frame", stat.Id, stat.BlockH, opts.FrameH)
		}
		totalRows += stat.BlockH
	}
	if totalRows != opts.FrameH {
		t.Fatalf("expected block assignments to cover %d rows; got %d", opts.FrameH, totalRows)
	}
}

func TestDefaultRendererDeterministicAccumulation(t *testing.T) {
	renderOnce := func() []uint8 {
		sc := makeTestScene(t)
		opts := makeTestOptions()
		opts.Seed = 1234
		pipeline := cpu.DefaultPipeline(opts.NumBounces, opts.MinBouncesForRR, cpu.NoDebug, cpu.TonemapOptions{Curve: cpu.ReinhardCurve})

		r, err := NewDefault(sc, tracer.NaiveScheduler(), pipeline, opts)
		if err != nil {
			t.Fatalf("failed to create renderer: %v", err)
		}
		defer r.Close()

		if err = r.Render(); err != nil {
			t.Fatalf("render failed: %v", err)
		}

		frame := r.FrameBuffer()
		pix := make([]uint8, len(frame.Pix))
		copy(pix, frame.Pix)
		return pix
	}

	first := renderOnce()
	second := renderOnce()

	if len(first) != len(second) {
		t.Fatalf("expected identical frame sizes; got %d and %d", len(first), len(second))
	}
	for offset := range first {
		if first[offset] != second[offset] {
			t.Fatalf("expected bit-identical frames; first difference at offset %d (%d vs %d)", offset, first[offset], second[offset])
		}
	}
}
