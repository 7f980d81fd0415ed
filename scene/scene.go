package scene

import (
	"errors"
	"fmt"

	"github.com/SimpsonGSD/path-tracer/types"
)

var (
	ErrNoCamera     = errors.New("scene: no camera defined")
	ErrNoPrimitives = errors.New("scene: no primitives defined")
	ErrBadMaterial  = errors.New("scene: primitive references unknown material")
)

// A scene contains the flattened set of primitives, materials and light
// sources consumed by the acceleration structure and the integrator.
// Scenes are built once per run; the render core treats them as read-only.
type Scene struct {
	Primitives []Primitive
	Materials  []Material

	// Indices of emissive primitives; used for next-event estimation.
	EmissiveIndices []int32

	Camera *Camera

	// Sky gradient parameters. The background is a vertical lerp from
	// white at the horizon to SkyColor at the zenith, scaled by
	// SkyBrightness. A zero brightness yields a black background.
	SkyColor      types.Vec3
	SkyBrightness float32
}

// Create an empty scene with the default sky gradient.
func NewScene() *Scene {
	return &Scene{
		SkyColor:      types.Vec3{0.5, 0.7, 1.0},
		SkyBrightness: 1.0,
	}
}

// Append a material and return its index.
func (s *Scene) AddMaterial(mat Material) int32 {
	s.Materials = append(s.Materials, mat)
	return int32(len(s.Materials) - 1)
}

// Append primitives to the scene.
func (s *Scene) AddPrimitives(prims ...Primitive) {
	s.Primitives = append(s.Primitives, prims...)
}

// Validate scene contents and collect the emissive primitive list. Must be
// called after the scene has been assembled and before rendering begins.
func (s *Scene) Prepare() error {
	if s.Camera == nil {
		return ErrNoCamera
	}
	if len(s.Primitives) == 0 {
		return ErrNoPrimitives
	}

	s.EmissiveIndices = s.EmissiveIndices[:0]
	for idx := range s.Primitives {
		matIndex := s.Primitives[idx].MaterialIndex
		if matIndex < 0 || int(matIndex) >= len(s.Materials) {
			return fmt.Errorf("%w: primitive %d -> material %d", ErrBadMaterial, idx, matIndex)
		}
		if s.Materials[matIndex].Type == EmissiveMaterial {
			s.EmissiveIndices = append(s.EmissiveIndices, int32(idx))
		}
	}

	return nil
}

// Evaluate the background radiance for a ray direction that escaped the
// scene.
func (s *Scene) Background(dir types.Vec3) types.Vec3 {
	if s.SkyBrightness <= 0 {
		return types.Vec3{}
	}

	t := 0.5 * (dir.Normalize()[1] + 1.0)
	white := types.Vec3{1, 1, 1}
	return types.Lerp(white, s.SkyColor, t).Mul(s.SkyBrightness)
}

// Get a printable scene summary.
func (s *Scene) Stats() string {
	return fmt.Sprintf(
		"primitives: %d\nmaterials: %d\nemissive primitives: %d",
		len(s.Primitives), len(s.Materials), len(s.EmissiveIndices),
	)
}
