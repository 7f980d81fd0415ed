package types

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestReflect(t *testing.T) {
	v := Vec3{1, -1, 0}.Normalize()
	n := Vec3{0, 1, 0}

	got := v.Reflect(n)
	exp := Vec3{1, 1, 0}.Normalize()
	for c := 0; c < 3; c++ {
		if math32.Abs(got[c]-exp[c]) > 1e-5 {
			t.Fatalf("expected reflection %v; got %v", exp, got)
		}
	}
}

func TestRefract(t *testing.T) {
	n := Vec3{0, 1, 0}

	// Normal incidence passes straight through.
	got, ok := Vec3{0, -1, 0}.Refract(n, 1.0/1.5)
	if !ok {
		t.Fatal("expected refraction at normal incidence")
	}
	if math32.Abs(got[1]+1) > 1e-5 || math32.Abs(got[0]) > 1e-5 {
		t.Fatalf("expected straight transmission; got %v", got)
	}

	// Shallow angle exiting a dense medium triggers total internal
	// reflection.
	grazing := Vec3{1, -0.1, 0}.Normalize()
	if _, ok = grazing.Refract(n, 1.5); ok {
		t.Fatal("expected total internal reflection")
	}
}

func TestMaxComponentAndClamp(t *testing.T) {
	if got := (Vec3{0.2, 0.9, 0.5}).MaxComponent(); got != 0.9 {
		t.Fatalf("expected max component 0.9; got %f", got)
	}

	if got := Clamp01(float32(1.5)); got != 1 {
		t.Fatalf("expected clamp to 1; got %f", got)
	}
	if got := Clamp01(float32(-0.5)); got != 0 {
		t.Fatalf("expected clamp to 0; got %f", got)
	}
}

func TestIsFinite(t *testing.T) {
	if !(Vec3{1, 2, 3}).IsFinite() {
		t.Fatal("expected finite vector")
	}
	if (Vec3{math32.NaN(), 0, 0}).IsFinite() {
		t.Fatal("expected NaN vector to be non-finite")
	}
	if (Vec3{0, math32.Inf(1), 0}).IsFinite() {
		t.Fatal("expected Inf vector to be non-finite")
	}
}
