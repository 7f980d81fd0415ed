package scene

import (
	"fmt"
	"sort"

	"github.com/SimpsonGSD/path-tracer/types"
)

// Factory functions for the built-in demo scenes. The render core consumes
// an already assembled Scene; these cover the asset-loading boundary for
// the CLI commands.
var builtinScenes = map[string]func() *Scene{
	"cornell": CornellBox,
	"spheres": SphereGrid,
}

// Look up a built-in scene by name.
func Builtin(name string) (*Scene, error) {
	factory, exists := builtinScenes[name]
	if !exists {
		return nil, fmt.Errorf("scene: unknown built-in scene %q", name)
	}

	sc := factory()
	if err := sc.Prepare(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Get the sorted list of built-in scene names.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinScenes))
	for name := range builtinScenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// The classic cornell box: white floor/ceiling/back wall, red and green
// side walls, a quad light on the ceiling and a metallic and a glass
// sphere on the floor.
func CornellBox() *Scene {
	sc := NewScene()
	sc.SkyBrightness = 0

	white := sc.AddMaterial(NewDiffuse(types.Vec3{0.73, 0.73, 0.73}))
	red := sc.AddMaterial(NewDiffuse(types.Vec3{0.65, 0.05, 0.05}))
	green := sc.AddMaterial(NewDiffuse(types.Vec3{0.12, 0.45, 0.15}))
	light := sc.AddMaterial(NewEmissive(types.Vec3{15, 15, 15}))
	metal := sc.AddMaterial(NewMetallic(types.Vec3{0.8, 0.85, 0.88}, 0.05))
	glass := sc.AddMaterial(NewRefractive(1.5))

	// Room interior spans [0,555] on each axis.
	var s float32 = 555

	// Floor, ceiling, back wall.
	sc.AddPrimitives(NewQuad(
		types.Vec3{0, 0, 0}, types.Vec3{s, 0, 0}, types.Vec3{s, 0, s}, types.Vec3{0, 0, s}, white)...)
	sc.AddPrimitives(NewQuad(
		types.Vec3{0, s, 0}, types.Vec3{0, s, s}, types.Vec3{s, s, s}, types.Vec3{s, s, 0}, white)...)
	sc.AddPrimitives(NewQuad(
		types.Vec3{0, 0, s}, types.Vec3{s, 0, s}, types.Vec3{s, s, s}, types.Vec3{0, s, s}, white)...)

	// Red left wall, green right wall.
	sc.AddPrimitives(NewQuad(
		types.Vec3{0, 0, 0}, types.Vec3{0, 0, s}, types.Vec3{0, s, s}, types.Vec3{0, s, 0}, red)...)
	sc.AddPrimitives(NewQuad(
		types.Vec3{s, 0, 0}, types.Vec3{s, s, 0}, types.Vec3{s, s, s}, types.Vec3{s, 0, s}, green)...)

	// Ceiling light.
	sc.AddPrimitives(NewQuad(
		types.Vec3{213, s - 1, 227}, types.Vec3{343, s - 1, 227},
		types.Vec3{343, s - 1, 332}, types.Vec3{213, s - 1, 332}, light)...)

	sc.AddPrimitives(
		NewSphere(types.Vec3{185, 90, 350}, 90, metal),
		NewSphere(types.Vec3{370, 90, 170}, 90, glass),
	)

	cam := NewCamera(40)
	cam.Position = types.Vec3{278, 273, -800}
	cam.LookAt = types.Vec3{278, 273, 0}
	sc.Camera = cam

	return sc
}

// A grid of diffuse and metallic spheres on a large ground box under the
// default sky gradient, with a single emissive sphere acting as a sun.
func SphereGrid() *Scene {
	sc := NewScene()
	sc.SkyBrightness = 0.6

	ground := sc.AddMaterial(NewDiffuse(types.Vec3{0.5, 0.5, 0.5}))
	sun := sc.AddMaterial(NewEmissive(types.Vec3{20, 18, 14}))

	sc.AddPrimitives(
		NewBox(types.Vec3{0, -0.5, 0}, types.Vec3{40, 1, 40}, ground),
		NewSphere(types.Vec3{12, 14, -6}, 3, sun),
	)

	for gx := 0; gx < 5; gx++ {
		for gz := 0; gz < 5; gz++ {
			center := types.Vec3{float32(gx)*2.2 - 4.4, 0.9, float32(gz)*2.2 - 4.4}

			var mat int32
			if (gx+gz)%2 == 0 {
				albedo := types.Vec3{
					0.3 + 0.14*float32(gx),
					0.4,
					0.3 + 0.14*float32(gz),
				}
				mat = sc.AddMaterial(NewDiffuse(albedo))
			} else {
				mat = sc.AddMaterial(NewMetallic(types.Vec3{0.7, 0.7, 0.75}, 0.1*float32(gx)))
			}
			sc.AddPrimitives(NewSphere(center, 0.9, mat))
		}
	}

	cam := NewCamera(55)
	cam.Position = types.Vec3{9, 5.5, 9}
	cam.LookAt = types.Vec3{0, 0.9, 0}
	cam.Aperture = 0.15
	cam.FocalDist = 12
	sc.Camera = cam

	return sc
}
