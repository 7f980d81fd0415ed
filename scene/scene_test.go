package scene

import (
	"errors"
	"testing"

	"github.com/SimpsonGSD/path-tracer/types"
)

func TestScenePrepareValidation(t *testing.T) {
	sc := NewScene()
	if err := sc.Prepare(); err != ErrNoCamera {
		t.Fatalf("expected ErrNoCamera; got %v", err)
	}

	sc.Camera = NewCamera(60)
	if err := sc.Prepare(); err != ErrNoPrimitives {
		t.Fatalf("expected ErrNoPrimitives; got %v", err)
	}

	// Primitive referencing a material that does not exist.
	sc.AddPrimitives(NewSphere(types.Vec3{}, 1, 5))
	if err := sc.Prepare(); !errors.Is(err, ErrBadMaterial) {
		t.Fatalf("expected ErrBadMaterial; got %v", err)
	}
}

func TestScenePrepareCollectsEmissives(t *testing.T) {
	sc := NewScene()
	sc.Camera = NewCamera(60)

	diffuse := sc.AddMaterial(NewDiffuse(types.Vec3{0.5, 0.5, 0.5}))
	light := sc.AddMaterial(NewEmissive(types.Vec3{5, 5, 5}))

	sc.AddPrimitives(NewSphere(types.Vec3{0, 0, -5}, 1, diffuse))
	sc.AddPrimitives(NewSphere(types.Vec3{0, 5, -5}, 1, light))
	sc.AddPrimitives(NewSphere(types.Vec3{0, -5, -5}, 1, light))

	if err := sc.Prepare(); err != nil {
		t.Fatalf("expected prepare to succeed; got %v", err)
	}

	exp := []int32{1, 2}
	if len(sc.EmissiveIndices) != len(exp) {
		t.Fatalf("expected %d emissive primitives; got %d", len(exp), len(sc.EmissiveIndices))
	}
	for idx := range exp {
		if sc.EmissiveIndices[idx] != exp[idx] {
			t.Fatalf("expected emissive index %d at position %d; got %d", exp[idx], idx, sc.EmissiveIndices[idx])
		}
	}
}

func TestBackgroundGradient(t *testing.T) {
	sc := NewScene()

	// Zenith matches the sky color; the horizon blends towards white.
	up := sc.Background(types.Vec3{0, 1, 0})
	if up != sc.SkyColor {
		t.Fatalf("expected zenith to match sky color %v; got %v", sc.SkyColor, up)
	}

	horizon := sc.Background(types.Vec3{1, 0, 0})
	for c := 0; c < 3; c++ {
		if horizon[c] < up[c] {
			t.Fatalf("expected horizon to be at least as bright as the zenith for channel %d; got %v vs %v", c, horizon, up)
		}
	}

	sc.SkyBrightness = 0
	if got := sc.Background(types.Vec3{0, 1, 0}); got != (types.Vec3{}) {
		t.Fatalf("expected black background with zero brightness; got %v", got)
	}
}

func TestBuiltinScenes(t *testing.T) {
	names := BuiltinNames()
	if len(names) == 0 {
		t.Fatal("expected at least one built-in scene")
	}

	for _, name := range names {
		sc, err := Builtin(name)
		if err != nil {
			t.Fatalf("[scene %s] expected builtin lookup to succeed; got %v", name, err)
		}
		if sc.Camera == nil {
			t.Fatalf("[scene %s] expected a camera", name)
		}
		if len(sc.Primitives) == 0 {
			t.Fatalf("[scene %s] expected primitives", name)
		}
		if len(sc.EmissiveIndices) == 0 {
			t.Fatalf("[scene %s] expected at least one light source", name)
		}
	}

	if _, err := Builtin("missing"); err == nil {
		t.Fatal("expected error for unknown scene name")
	}
}
