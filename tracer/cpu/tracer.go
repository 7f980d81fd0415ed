package cpu

import (
	"sync"
	"time"

	"github.com/SimpsonGSD/path-tracer/log"
	"github.com/SimpsonGSD/path-tracer/scene"
	"github.com/SimpsonGSD/path-tracer/tracer"
)

// A CPU-based tracer. Each tracer runs a single worker goroutine that
// renders the row blocks assigned to it into the shared accumulation and
// frame buffers; a renderer attaches one tracer per core and load-balances
// blocks across them with a BlockScheduler.
type Tracer struct {
	logger log.Logger

	sync.Mutex

	id string

	frameW uint32
	frameH uint32

	// Shared output buffers. Tracers only touch the rows of the blocks
	// assigned to them.
	accum    *tracer.Accumulator
	frameBuf []uint8

	// Immutable scene state uploaded via Update.
	scene  *scene.Scene
	accel  *scene.Accel
	camera *scene.Camera

	// A buffer for queued state changes. Updates are grouped by type and
	// the latest update always overwrites the previous one.
	updateBuffer map[tracer.UpdateType]interface{}

	// A channel for receiving block requests from the renderer.
	blockReqChan chan tracer.BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for the last rendered block.
	stats *tracer.Stats

	// The tracer rendering pipeline.
	pipeline *Pipeline
}

// Create a new CPU tracer with the given rendering pipeline.
func NewTracer(id string, pipeline *Pipeline) *Tracer {
	return &Tracer{
		logger:       log.New("cpu tracer (" + id + ")"),
		id:           id,
		updateBuffer: make(map[tracer.UpdateType]interface{}),
		blockReqChan: make(chan tracer.BlockRequest),
		stats:        &tracer.Stats{},
		pipeline:     pipeline,
	}
}

// Get tracer id.
func (tr *Tracer) Id() string {
	return tr.id
}

// Get the computation speed estimate. All CPU tracers are equivalent so
// scheduling starts from an even split and converges via frame feedback.
func (tr *Tracer) Speed() uint32 {
	return 1
}

// Initialize the tracer with the frame dimensions and shared output
// buffers and start the block worker.
func (tr *Tracer) Init(frameW, frameH uint32, accum *tracer.Accumulator, frameBuf []uint8) error {
	tr.Lock()
	defer tr.Unlock()

	tr.frameW = frameW
	tr.frameH = frameH
	tr.accum = accum
	tr.frameBuf = frameBuf

	if tr.closeChan == nil {
		tr.closeChan = make(chan struct{})
		go tr.worker()
	}

	return nil
}

// Shutdown and cleanup tracer.
func (tr *Tracer) Close() {
	tr.Lock()
	defer tr.Unlock()

	if tr.closeChan != nil {
		close(tr.closeChan)
		tr.closeChan = nil
	}
}

// Enqueue block request.
func (tr *Tracer) Enqueue(blockReq tracer.BlockRequest) {
	tr.blockReqChan <- blockReq
}

// Buffer a state change to be applied before the next block is rendered.
func (tr *Tracer) Update(updateType tracer.UpdateType, payload interface{}) {
	tr.Lock()
	defer tr.Unlock()
	tr.updateBuffer[updateType] = payload
}

// Retrieve last block statistics.
func (tr *Tracer) Stats() *tracer.Stats {
	return tr.stats
}

func (tr *Tracer) worker() {
	for {
		select {
		case <-tr.closeChan:
			return
		case blockReq := <-tr.blockReqChan:
			tr.applyPendingUpdates()

			if err := tr.validateBlock(&blockReq); err != nil {
				blockReq.ErrChan <- err
				continue
			}

			start := time.Now()
			if err := tr.renderBlock(&blockReq); err != nil {
				blockReq.ErrChan <- err
				continue
			}

			tr.stats.BlockH = blockReq.BlockH
			tr.stats.RenderTime = time.Since(start)
			blockReq.DoneChan <- blockReq.BlockH
		}
	}
}

func (tr *Tracer) applyPendingUpdates() {
	tr.Lock()
	defer tr.Unlock()

	for updateType, payload := range tr.updateBuffer {
		switch updateType {
		case tracer.SceneData:
			tr.scene = payload.(*scene.Scene)
		case tracer.AccelData:
			tr.accel = payload.(*scene.Accel)
		case tracer.CameraData:
			tr.camera = payload.(*scene.Camera)
		}
		delete(tr.updateBuffer, updateType)
	}
}

func (tr *Tracer) validateBlock(blockReq *tracer.BlockRequest) error {
	if tr.accum == nil || tr.frameBuf == nil {
		return ErrNotInitialized
	}
	if tr.scene == nil {
		return ErrMissingScene
	}
	if tr.accel == nil {
		return ErrMissingAccel
	}
	if tr.camera == nil {
		return ErrMissingCamera
	}
	if blockReq.BlockY+blockReq.BlockH > tr.frameH || blockReq.FrameW != tr.frameW {
		return ErrInvalidBlock
	}
	return nil
}

func (tr *Tracer) renderBlock(blockReq *tracer.BlockRequest) error {
	stageTime, err := tr.pipeline.Integrator(tr, blockReq)
	if err != nil {
		return err
	}
	tr.logger.Debugf("block %d+%d: integrator stage took %s", blockReq.BlockY, blockReq.BlockH, stageTime)

	for _, stage := range tr.pipeline.PostProcess {
		if _, err = stage(tr, blockReq); err != nil {
			return err
		}
	}
	return nil
}
