package main

import (
	"os"

	"github.com/SimpsonGSD/path-tracer/cmd"
	"github.com/urfave/cli"
)

func renderFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: 512,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 512,
			Usage: "frame height",
		},
		cli.StringFlag{
			Name:  "quality, q",
			Value: "medium",
			Usage: "quality preset: lowest, low, medium, high or highest",
		},
		cli.IntFlag{
			Name:  "spp",
			Usage: "target samples per pixel; overrides the quality preset",
		},
		cli.IntFlag{
			Name:  "num-bounces",
			Usage: "max indirect bounces; overrides the quality preset",
		},
		cli.IntFlag{
			Name:  "rr-bounces",
			Usage: "min bounces before applying russian roulette for path elimination; 0 disables RR",
		},
		cli.Float64Flag{
			Name:  "exposure",
			Value: 1.0,
			Usage: "camera exposure for tone-mapping",
		},
		cli.StringFlag{
			Name:  "tonemap",
			Value: "reinhard",
			Usage: "tonemap curve: reinhard or aces",
		},
		cli.Float64Flag{
			Name:  "vignette",
			Usage: "vignette strength; 0 disables the vignette",
		},
		cli.BoolFlag{
			Name:  "dither",
			Usage: "dither the frame before quantization to mask banding",
		},
		cli.BoolFlag{
			Name:  "debug-normals",
			Usage: "visualize primary-hit surface normals",
		},
		cli.BoolFlag{
			Name:  "debug-heatmap",
			Usage: "visualize the number of bounces per path",
		},
		cli.IntFlag{
			Name:  "seed",
			Usage: "base seed for the per-pixel random sequences",
		},
		cli.IntFlag{
			Name:  "tracers",
			Usage: "number of CPU tracers; defaults to one per logical core",
		},
	}
	return append(flags, extra...)
}

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "path-tracer"
	app.Usage = "render scenes using progressive path tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "render",
			Usage:  "render scene",
			Action: nil,
			Subcommands: []cli.Command{
				{
					Name:        "frame",
					Usage:       "render single frame",
					Description: `Render a single frame of a built-in scene and save it as a PNG image.`,
					ArgsUsage:   "[scene-name]",
					Flags: renderFlags(
						cli.StringFlag{
							Name:  "out, o",
							Value: "frame.png",
							Usage: "image filename for the rendered frame",
						},
					),
					Action: cmd.RenderFrame,
				},
				{
					Name:        "interactive",
					Usage:       "render interactive view of the scene",
					Description: `Progressively refine the frame while the camera can be moved with the arrow keys and rotated with the mouse.`,
					ArgsUsage:   "[scene-name]",
					Flags:       renderFlags(),
					Action:      cmd.RenderInteractive,
				},
			},
		},
		{
			Name:   "scene",
			Usage:  "scene utilities",
			Action: nil,
			Subcommands: []cli.Command{
				{
					Name:   "list",
					Usage:  "list built-in scenes",
					Action: cmd.ListScenes,
				},
			},
		},
	}

	app.Run(os.Args)
}
