package renderer

import (
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"github.com/SimpsonGSD/path-tracer/log"
	"github.com/SimpsonGSD/path-tracer/scene"
	"github.com/SimpsonGSD/path-tracer/tracer"
	"github.com/SimpsonGSD/path-tracer/tracer/cpu"
)

// Primitive count threshold below which BVH nodes become leaves.
const minPrimsPerLeaf = 4

// The default renderer drives a pool of CPU tracers over the shared
// accumulation and frame buffers. Each pass the block scheduler splits the
// frame into per-tracer row blocks; offline rendering repeats passes until
// every pixel reaches the target sample count.
type defaultRenderer struct {
	logger log.Logger

	options Options

	sc     *scene.Scene
	accel  *scene.Accel
	camera *scene.Camera

	scheduler        tracer.BlockScheduler
	tracers          []tracer.Tracer
	blockAssignments []uint32

	accum    *tracer.Accumulator
	frameBuf []uint8

	doneChan chan uint32
	errChan  chan error

	closeChan chan struct{}
	closeOnce sync.Once

	// Render passes since the last accumulator reset.
	frameCount uint32

	stats FrameStats
}

// Create a new default renderer using the specified block scheduler and
// tracing pipeline.
func NewDefault(sc *scene.Scene, scheduler tracer.BlockScheduler, pipeline *cpu.Pipeline, opts Options) (Renderer, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if sc.Camera == nil {
		return nil, ErrCameraNotDefined
	}
	if err := sc.Prepare(); err != nil {
		return nil, err
	}

	r := &defaultRenderer{
		logger:    log.New("renderer"),
		options:   opts,
		sc:        sc,
		camera:    sc.Camera,
		scheduler: scheduler,
		closeChan: make(chan struct{}),
	}

	r.accel = scene.BuildAccel(sc.Primitives, minPrimsPerLeaf)

	// The tonemap stage flips V when writing out pixels. Inverting the
	// frustrum here makes the two flips cancel so the frame buffer rows
	// run top to bottom, which is what image encoders expect. Interactive
	// rendering undoes this as opengl wants bottom-up rows.
	r.camera.InvertY = true
	r.camera.SetupProjection(float32(opts.FrameW) / float32(opts.FrameH))

	numTracers := opts.NumTracers
	if numTracers <= 0 {
		numTracers = runtime.NumCPU()
	}

	r.accum = tracer.NewAccumulator(opts.FrameW, opts.FrameH)
	r.frameBuf = make([]uint8, opts.FrameW*opts.FrameH*4)
	r.doneChan = make(chan uint32, numTracers)
	r.errChan = make(chan error, numTracers)

	r.tracers = make([]tracer.Tracer, numTracers)
	for idx := 0; idx < numTracers; idx++ {
		tr := cpu.NewTracer(fmt.Sprintf("cpu-%d", idx), pipeline)
		if err := tr.Init(opts.FrameW, opts.FrameH, r.accum, r.frameBuf); err != nil {
			r.Close()
			return nil, err
		}
		tr.Update(tracer.SceneData, sc)
		tr.Update(tracer.AccelData, r.accel)
		tr.Update(tracer.CameraData, r.camera)
		r.tracers[idx] = tr
	}

	r.logger.Noticef("attached %d tracers; scene: %s, bvh: %d nodes", numTracers, sc.Stats(), r.accel.NodeCount())

	return r, nil
}

// Render frame. For a non-zero sample target the renderer keeps adding
// passes until the least sampled pixel reaches it.
func (r *defaultRenderer) Render() error {
	for {
		if err := r.renderPass(); err != nil {
			return err
		}

		minSamples := r.accum.MinSampleCount()
		r.stats.MinSamples = minSamples
		if r.options.TargetSamplesPerPixel == 0 || minSamples >= r.options.TargetSamplesPerPixel {
			return nil
		}
	}
}

// Render a single pass: schedule a block per tracer, enqueue the block
// requests and wait until every frame row is accounted for.
func (r *defaultRenderer) renderPass() error {
	start := time.Now()

	r.blockAssignments = r.scheduler.Schedule(r.tracers, r.options.FrameH)

	var blockY uint32
	for idx, tr := range r.tracers {
		tr.Enqueue(tracer.BlockRequest{
			FrameW:          r.options.FrameW,
			FrameH:          r.options.FrameH,
			BlockY:          blockY,
			BlockH:          r.blockAssignments[idx],
			SamplesPerPixel: r.options.SamplesPerPixel,
			Exposure:        r.options.Exposure,
			Seed:            r.options.Seed,
			FrameCount:      r.frameCount,
			DoneChan:        r.doneChan,
			ErrChan:         r.errChan,
		})
		blockY += r.blockAssignments[idx]
	}

	var pendingRows = r.options.FrameH
	for pendingRows > 0 {
		select {
		case doneRows := <-r.doneChan:
			pendingRows -= doneRows
		case err := <-r.errChan:
			return err
		case <-r.closeChan:
			return ErrInterrupted
		}
	}

	r.frameCount++
	r.collectStats(time.Since(start))

	return nil
}

func (r *defaultRenderer) collectStats(frameTime time.Duration) {
	r.stats.RenderTime = frameTime
	r.stats.Passes = r.frameCount
	r.stats.Tracers = r.stats.Tracers[:0]

	for idx, tr := range r.tracers {
		blockH := r.blockAssignments[idx]
		r.stats.Tracers = append(r.stats.Tracers, TracerStat{
			Id:           tr.Id(),
			BlockH:       blockH,
			FramePercent: 100.0 * float32(blockH) / float32(r.options.FrameH),
			RenderTime:   tr.Stats().RenderTime,
		})
	}
}

// Reset accumulated state after a camera change and push the new camera to
// the attached tracers.
func (r *defaultRenderer) onCameraChanged() {
	r.accum.Reset()
	r.frameCount = 0
	for _, tr := range r.tracers {
		tr.Update(tracer.CameraData, r.camera)
	}
}

// Get the rendered frame as an RGBA image backed by the frame buffer.
func (r *defaultRenderer) FrameBuffer() *image.RGBA {
	return &image.RGBA{
		Pix:    r.frameBuf,
		Stride: int(r.options.FrameW) * 4,
		Rect:   image.Rect(0, 0, int(r.options.FrameW), int(r.options.FrameH)),
	}
}

// Shutdown renderer and any attached tracer.
func (r *defaultRenderer) Close() {
	r.closeOnce.Do(func() {
		close(r.closeChan)
	})
	for _, tr := range r.tracers {
		if tr != nil {
			tr.Close()
		}
	}
}

// Get render statistics.
func (r *defaultRenderer) Stats() FrameStats {
	return r.stats
}
