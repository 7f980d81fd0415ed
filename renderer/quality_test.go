package renderer

import "testing"

func TestParseQuality(t *testing.T) {
	type spec struct {
		name   string
		expQ   Quality
		expErr bool
	}
	specs := []spec{
		spec{"lowest", QualityLowest, false},
		spec{"low", QualityLow, false},
		spec{"medium", QualityMedium, false},
		spec{"high", QualityHigh, false},
		spec{"highest", QualityHighest, false},
		spec{"ultra", QualityMedium, true},
		spec{"", QualityMedium, true},
	}

	for index, s := range specs {
		got, err := ParseQuality(s.name)
		if (err != nil) != s.expErr {
			t.Fatalf("[spec %d] expected error=%t; got %v", index, s.expErr, err)
		}
		if got != s.expQ {
			t.Fatalf("[spec %d] expected quality %s; got %s", index, s.expQ, got)
		}
	}
}

func TestQualityTiersAreMonotonic(t *testing.T) {
	prev := QualityLowest.Resolve(512, 512)
	for q := QualityLow; q <= QualityHighest; q++ {
		opts := q.Resolve(512, 512)

		if opts.FrameW < prev.FrameW || opts.FrameH < prev.FrameH {
			t.Fatalf("[%s] expected resolution to never drop below the previous tier", q)
		}
		if opts.NumBounces < prev.NumBounces {
			t.Fatalf("[%s] expected bounce count to never drop below the previous tier", q)
		}
		if opts.TargetSamplesPerPixel < prev.TargetSamplesPerPixel {
			t.Fatalf("[%s] expected sample target to never drop below the previous tier", q)
		}

		prev = opts
	}
}

func TestQualityResolveClampsFrameDims(t *testing.T) {
	opts := QualityLowest.Resolve(2, 2)
	if opts.FrameW < 1 || opts.FrameH < 1 {
		t.Fatalf("expected resolved frame dims of at least 1x1; got %dx%d", opts.FrameW, opts.FrameH)
	}
}
