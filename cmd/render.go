package cmd

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"runtime"
	"time"

	"github.com/SimpsonGSD/path-tracer/renderer"
	"github.com/SimpsonGSD/path-tracer/scene"
	"github.com/SimpsonGSD/path-tracer/tracer"
	"github.com/SimpsonGSD/path-tracer/tracer/cpu"
	"github.com/olekukonko/tablewriter"
	sysinfo "github.com/shirou/gopsutil/v3/cpu"
	"github.com/urfave/cli"
)

// Render a still frame of a built-in scene and export it as a PNG image.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, opts, pipeline, err := setupRender(ctx)
	if err != nil {
		return err
	}

	r, err := renderer.NewDefault(sc, tracer.PerfectScheduler(), pipeline, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	logger.Noticef("rendering %dx%d frame; target %d samples per pixel", opts.FrameW, opts.FrameH, opts.TargetSamplesPerPixel)
	start := time.Now()
	if err = r.Render(); err != nil {
		return err
	}
	logger.Noticef("rendered frame in %d ms", time.Since(start).Nanoseconds()/1e6)

	// Export PNG
	imgFile := ctx.String("out")
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = png.Encode(f, r.FrameBuffer()); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s", imgFile)

	// Display stats
	displayFrameStats(r.Stats())

	return nil
}

// Use opengl to render a continuously updating view of the scene. The
// camera can be moved with the arrow keys and rotated with the mouse.
func RenderInteractive(ctx *cli.Context) error {
	setupLogging(ctx)

	// The opengl context is bound to the main thread.
	runtime.LockOSThread()

	sc, opts, pipeline, err := setupRender(ctx)
	if err != nil {
		return err
	}

	// Interactive rendering keeps accumulating passes until the camera
	// moves; the sample target only applies when set explicitly.
	if !ctx.IsSet("spp") {
		opts.TargetSamplesPerPixel = 0
	}

	r, err := renderer.NewInteractive(sc, tracer.PerfectScheduler(), pipeline, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	return r.Render()
}

// Assemble the scene, renderer options and tracing pipeline from the
// command line context. Options start from the selected quality preset;
// individual flags override single knobs.
func setupRender(ctx *cli.Context) (*scene.Scene, renderer.Options, *cpu.Pipeline, error) {
	var opts renderer.Options

	quality, err := renderer.ParseQuality(ctx.String("quality"))
	if err != nil {
		return nil, opts, nil, err
	}
	opts = quality.Resolve(uint32(ctx.Int("width")), uint32(ctx.Int("height")))
	opts.Exposure = float32(ctx.Float64("exposure"))
	opts.Seed = uint32(ctx.Int("seed"))
	opts.NumTracers = tracerCount(ctx)

	if ctx.IsSet("spp") {
		opts.TargetSamplesPerPixel = uint32(ctx.Int("spp"))
	}
	if ctx.IsSet("num-bounces") {
		opts.NumBounces = uint32(ctx.Int("num-bounces"))
	}
	if ctx.IsSet("rr-bounces") {
		opts.MinBouncesForRR = uint32(ctx.Int("rr-bounces"))
	}
	if opts.MinBouncesForRR == 0 || opts.MinBouncesForRR >= opts.NumBounces {
		logger.Notice("disabling RR for path elimination")
		opts.MinBouncesForRR = opts.NumBounces + 1
	}

	sceneName := "cornell"
	if ctx.NArg() > 0 {
		sceneName = ctx.Args().First()
	}
	sc, err := scene.Builtin(sceneName)
	if err != nil {
		return nil, opts, nil, err
	}
	logger.Noticef("using scene %q: %s", sceneName, sc.Stats())

	curve, err := cpu.ParseTonemapCurve(ctx.String("tonemap"))
	if err != nil {
		return nil, opts, nil, err
	}
	tonemapOpts := cpu.TonemapOptions{
		Curve:            curve,
		VignetteStrength: float32(ctx.Float64("vignette")),
		Dither:           ctx.Bool("dither"),
	}

	debugFlags := cpu.NoDebug
	switch {
	case ctx.Bool("debug-normals"):
		debugFlags = cpu.DebugNormals
	case ctx.Bool("debug-heatmap"):
		debugFlags = cpu.DebugBounceHeatmap
	}

	pipeline := cpu.DefaultPipeline(opts.NumBounces, opts.MinBouncesForRR, debugFlags, tonemapOpts)

	return sc, opts, pipeline, nil
}

// Pick the number of CPU tracers to attach: the tracers flag if set,
// otherwise one per logical core.
func tracerCount(ctx *cli.Context) int {
	if numTracers := ctx.Int("tracers"); numTracers > 0 {
		return numTracers
	}

	numCores, err := sysinfo.Counts(true)
	if err != nil || numCores <= 0 {
		return runtime.NumCPU()
	}
	return numCores
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Block height", "% of frame", "Render time"})
	for _, stat := range stats.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%d", stat.BlockH),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			fmt.Sprintf("%s", stat.RenderTime),
		})
	}
	table.SetFooter([]string{"", fmt.Sprintf("%d passes", stats.Passes), "TOTAL", fmt.Sprintf("%s", stats.RenderTime)})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
