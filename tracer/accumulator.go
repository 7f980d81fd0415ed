package tracer

import "github.com/SimpsonGSD/path-tracer/types"

// The accumulation buffer: a 2D grid of radiance sums and sample counts.
// Each pixel occupies 4 floats (RGB sum + sample count). It is the only
// shared mutable state of a render run; tracers write disjoint row blocks
// so AddSample needs no locking, and readers must only run between passes.
type Accumulator struct {
	frameW uint32
	frameH uint32
	cells  []float32
}

// Create an accumulator covering a frameW x frameH frame with all cells
// zeroed.
func NewAccumulator(frameW, frameH uint32) *Accumulator {
	return &Accumulator{
		frameW: frameW,
		frameH: frameH,
		cells:  make([]float32, frameW*frameH*4),
	}
}

// Add a radiance sample for pixel (x, y) and bump its sample count.
func (a *Accumulator) AddSample(x, y uint32, radiance types.Vec3) {
	offset := (y*a.frameW + x) * 4
	a.cells[offset] += radiance[0]
	a.cells[offset+1] += radiance[1]
	a.cells[offset+2] += radiance[2]
	a.cells[offset+3]++
}

// Read the mean radiance for pixel (x, y). Unsampled pixels read as black;
// the division by the sample count never sees a zero denominator.
func (a *Accumulator) Read(x, y uint32) types.Vec3 {
	offset := (y*a.frameW + x) * 4
	count := a.cells[offset+3]
	if count == 0 {
		return types.Vec3{}
	}
	scale := 1.0 / count
	return types.Vec3{
		a.cells[offset] * scale,
		a.cells[offset+1] * scale,
		a.cells[offset+2] * scale,
	}
}

// Get the sample count for pixel (x, y).
func (a *Accumulator) SampleCount(x, y uint32) uint32 {
	return uint32(a.cells[(y*a.frameW+x)*4+3])
}

// Get the smallest per-pixel sample count across the frame. Offline
// rendering terminates once this reaches the target samples per pixel.
func (a *Accumulator) MinSampleCount() uint32 {
	if len(a.cells) == 0 {
		return 0
	}

	min := a.cells[3]
	for offset := 7; offset < len(a.cells); offset += 4 {
		if a.cells[offset] < min {
			min = a.cells[offset]
		}
	}
	return uint32(min)
}

// Zero all cells. Invoked whenever the camera, scene or render
// configuration changes.
func (a *Accumulator) Reset() {
	for idx := range a.cells {
		a.cells[idx] = 0
	}
}

// Frame dimensions covered by the accumulator.
func (a *Accumulator) Dims() (uint32, uint32) {
	return a.frameW, a.frameH
}
