package tracer

import "time"

// The type of payload attached to a tracer update. Updates are buffered by
// the tracer and applied before the next enqueued block is rendered; the
// latest update of each type wins.
type UpdateType uint8

const (
	// Payload: *scene.Scene
	SceneData UpdateType = iota

	// Payload: *scene.Accel
	AccelData

	// Payload: *scene.Camera
	CameraData
)

// A unit of work that is processed by a tracer: a horizontal block of
// frame rows.
type BlockRequest struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Block start row and height.
	BlockY uint32
	BlockH uint32

	// The number of traced paths per pixel for this pass.
	SamplesPerPixel uint32

	// The exposure value controls HDR -> LDR mapping.
	Exposure float32

	// Base seed for the per-pixel random sequences.
	Seed uint32

	// Number of rendered passes since the last accumulator reset.
	FrameCount uint32

	// A channel to signal on block completion with the number of
	// completed rows.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics for the last rendered block.
type Stats struct {
	// The rendered block height.
	BlockH uint32

	// The time for rendering the last block.
	RenderTime time.Duration
}

// Tracer is implemented by all tracing backends. A tracer renders blocks
// of frame rows into the shared accumulation and frame buffers it was
// initialized with; blocks assigned to different tracers never overlap.
type Tracer interface {
	// Get tracer id.
	Id() string

	// Get the tracer computation speed estimate. Only the relative
	// magnitude between tracers matters.
	Speed() uint32

	// Initialize the tracer with the frame dimensions and the shared
	// output buffers.
	Init(frameW, frameH uint32, accum *Accumulator, frameBuf []uint8) error

	// Shutdown and cleanup tracer.
	Close()

	// Enqueue block request. Completion is signaled via the request
	// channels.
	Enqueue(BlockRequest)

	// Buffer a state change to be applied before the next block.
	Update(UpdateType, interface{})

	// Retrieve last block statistics.
	Stats() *Stats
}
