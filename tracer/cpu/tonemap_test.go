package cpu

import (
	"testing"

	"github.com/SimpsonGSD/path-tracer/types"
	"github.com/chewxy/math32"
)

func TestSimpleReinhard(t *testing.T) {
	got := SimpleReinhard(types.Vec3{2.0, 0.5, 0.1})
	exp := types.Vec3{2.0 / 3.0, 1.0 / 3.0, 0.1 / 1.1}

	for c := 0; c < 3; c++ {
		if math32.Abs(got[c]-exp[c]) > 1e-5 {
			t.Fatalf("expected channel %d to map to %f; got %f", c, exp[c], got[c])
		}
	}
}

func TestTonemapCurvesStayInRange(t *testing.T) {
	inputs := []types.Vec3{
		{0, 0, 0},
		{0.18, 0.18, 0.18},
		{1, 1, 1},
		{10, 5, 1},
		{1000, 1000, 1000},
	}

	for _, curve := range []TonemapCurve{ReinhardCurve, ACESCurve} {
		for index, hdr := range inputs {
			got := TonemapPixel(hdr, types.Vec2{0.5, 0.5}, types.Vec4{1, 0, 0, 0}, curve)
			for c := 0; c < 3; c++ {
				if got[c] < 0 || got[c] > 1 {
					t.Fatalf("[curve %d, input %d] expected channel %d in [0,1]; got %f", curve, index, c, got[c])
				}
			}
		}
	}
}

func TestTonemapPixelIsPure(t *testing.T) {
	hdr := types.Vec3{1.7, 0.3, 9.2}
	uv := types.Vec2{0.25, 0.75}
	params := types.Vec4{1.5, 13, 0.4, 0}

	first := TonemapPixel(hdr, uv, params, ACESCurve)
	for run := 0; run < 16; run++ {
		if got := TonemapPixel(hdr, uv, params, ACESCurve); got != first {
			t.Fatalf("[run %d] expected bit-identical output %v; got %v", run, first, got)
		}
	}
}

func TestTonemapExposureScaling(t *testing.T) {
	hdr := types.Vec3{0.5, 0.5, 0.5}
	uv := types.Vec2{0.5, 0.5}

	dim := TonemapPixel(hdr, uv, types.Vec4{0.5, 0, 0, 0}, ReinhardCurve)
	bright := TonemapPixel(hdr, uv, types.Vec4{2.0, 0, 0, 0}, ReinhardCurve)

	for c := 0; c < 3; c++ {
		if dim[c] >= bright[c] {
			t.Fatalf("expected higher exposure to brighten channel %d; got %f >= %f", c, dim[c], bright[c])
		}
	}
}

func TestTonemapVignetteDarkensCorners(t *testing.T) {
	hdr := types.Vec3{1, 1, 1}
	params := types.Vec4{1, 0, 0.8, 0}

	center := TonemapPixel(hdr, types.Vec2{0.5, 0.5}, params, ReinhardCurve)
	corner := TonemapPixel(hdr, types.Vec2{0, 0}, params, ReinhardCurve)

	for c := 0; c < 3; c++ {
		if corner[c] >= center[c] {
			t.Fatalf("expected corner to be darker than center for channel %d; got %f >= %f", c, corner[c], center[c])
		}
	}

	// Zero strength disables the vignette.
	noVignette := TonemapPixel(hdr, types.Vec2{0, 0}, types.Vec4{1, 0, 0, 0}, ReinhardCurve)
	if noVignette != center {
		t.Fatalf("expected corner to match center with vignette disabled; got %v and %v", noVignette, center)
	}
}

func TestACESFilmAnchors(t *testing.T) {
	// Black maps to black.
	if got := ACESFilm(types.Vec3{}); got != (types.Vec3{}) {
		t.Fatalf("expected black to stay black; got %v", got)
	}

	// Very bright input saturates to white.
	got := ACESFilm(types.Vec3{100, 100, 100})
	for c := 0; c < 3; c++ {
		if got[c] < 0.99 {
			t.Fatalf("expected bright input to saturate channel %d; got %f", c, got[c])
		}
	}

	// Monotonic on grey values.
	prev := float32(-1)
	for _, v := range []float32{0.01, 0.1, 0.5, 1, 2, 4} {
		mapped := ACESFilm(types.Vec3{v, v, v})[0]
		if mapped <= prev {
			t.Fatalf("expected ACES to be monotonic; f(%f)=%f not above %f", v, mapped, prev)
		}
		prev = mapped
	}
}

func TestQuantize(t *testing.T) {
	type spec struct {
		in  float32
		exp uint8
	}
	specs := []spec{
		spec{0, 0},
		spec{1, 255},
		spec{0.5, 128},
		spec{-1, 0},
		spec{2, 255},
	}

	for index, s := range specs {
		if got := quantize(s.in); got != s.exp {
			t.Fatalf("[spec %d] expected quantize(%f)=%d; got %d", index, s.in, s.exp, got)
		}
	}
}
