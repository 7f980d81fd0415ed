package renderer

import "image"

type Renderer interface {
	// Render frame.
	Render() error

	// Get the rendered frame as an RGBA image backed by the frame buffer.
	FrameBuffer() *image.RGBA

	// Shutdown renderer and any attached tracer.
	Close()

	// Get render statistics.
	Stats() FrameStats
}
