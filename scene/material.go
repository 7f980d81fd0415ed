package scene

import "github.com/SimpsonGSD/path-tracer/types"

type MaterialType uint8

const (
	DiffuseMaterial MaterialType = iota
	MetallicMaterial
	RefractiveMaterial
	EmissiveMaterial
)

// Defines a scene material. Materials are stored in a flat array on the
// scene and referenced by index from primitives; they are read-only while
// rendering.
type Material struct {
	// The type of the material.
	Type MaterialType

	// Surface reflectance.
	Albedo types.Vec3

	// Emitted radiance (emissive materials only).
	Emissive types.Vec3

	// Scattering cone for the metallic lobe; 0 is a perfect mirror.
	Roughness float32

	// Index of refraction (refractive materials only).
	IOR float32
}

// Create a lambertian material.
func NewDiffuse(albedo types.Vec3) Material {
	return Material{Type: DiffuseMaterial, Albedo: albedo}
}

// Create a metallic material with the given lobe roughness.
func NewMetallic(albedo types.Vec3, roughness float32) Material {
	return Material{Type: MetallicMaterial, Albedo: albedo, Roughness: types.Clamp01(roughness)}
}

// Create a dielectric material.
func NewRefractive(ior float32) Material {
	return Material{Type: RefractiveMaterial, Albedo: types.Vec3{1, 1, 1}, IOR: ior}
}

// Create a light-emitting material.
func NewEmissive(radiance types.Vec3) Material {
	return Material{Type: EmissiveMaterial, Emissive: radiance}
}
