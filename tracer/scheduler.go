package tracer

import "math"

// The BlockScheduler interface is implemented by all block scheduling
// algorithms. Schedule splits a frame into blocks of variable height and
// returns the block height assignment for each tracer in the input list.
type BlockScheduler interface {
	Schedule(tracers []Tracer, frameH uint32) []uint32
}

// The naive scheduler distributes rows proportionally to the reported
// tracer speed estimates.
type naiveScheduler struct {
}

// Create a new naive scheduler instance.
func NaiveScheduler() BlockScheduler {
	return &naiveScheduler{}
}

func (sch *naiveScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	blockAssignment := make([]uint32, len(tracers))

	var total float64
	for _, tr := range tracers {
		total += float64(tr.Speed())
	}

	scaler := float64(frameH) / total
	var scheduledRows uint32
	for idx, tr := range tracers {
		rows := uint32(math.Max(1.0, math.Floor(float64(tr.Speed())*scaler)))
		// Frames shorter than the tracer list run out of rows before every
		// tracer gets its one-row minimum; the remaining tracers sit this
		// frame out.
		if left := frameH - scheduledRows; rows > left {
			rows = left
		}
		blockAssignment[idx] = rows
		scheduledRows += rows
	}

	// In case rows don't add up to the frame height append the missing
	// ones to the first tracer.
	blockAssignment[0] += frameH - scheduledRows

	return blockAssignment
}

// The perfect scheduler assumes that the volume of tracing work between
// two subsequent frames is approximately the same and uses the block
// render times of the previous frame as feedback for the next assignment.
type perfectScheduler struct {
	blockAssignment []uint32
}

// Create a new perfect scheduler instance.
func PerfectScheduler() BlockScheduler {
	return &perfectScheduler{}
}

// Split frame into blocks of variable height using feedback collected from
// previous frames. The workload estimate for tracer w and frame i+1 is:
// w_i, f_i+1 = (blockH,w_i / time,w_i) / Σ(blockH_i / time_i)
func (sch *perfectScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	// If this is the first time we try to schedule or the number of
	// tracers has changed we fall back to the speed estimates.
	if len(sch.blockAssignment) != len(tracers) {
		sch.blockAssignment = NaiveScheduler().Schedule(tracers, frameH)
		return sch.blockAssignment
	}

	var total float64
	for _, tr := range tracers {
		total += blockRate(tr.Stats())
	}
	if total == 0 {
		sch.blockAssignment = NaiveScheduler().Schedule(tracers, frameH)
		return sch.blockAssignment
	}

	scaler := float64(frameH) / total
	var scheduledRows uint32
	for idx, tr := range tracers {
		rows := uint32(math.Max(1.0, math.Floor(blockRate(tr.Stats())*scaler)))
		if left := frameH - scheduledRows; rows > left {
			rows = left
		}
		sch.blockAssignment[idx] = rows
		scheduledRows += rows
	}

	// Assign any leftover rows to the first tracer.
	sch.blockAssignment[0] += frameH - scheduledRows

	return sch.blockAssignment
}

// Rows per unit time for the tracer's last block. Tracers that sat out
// the previous frame report a zero rate.
func blockRate(stats *Stats) float64 {
	if stats.RenderTime <= 0 {
		return 0
	}
	return float64(stats.BlockH) / float64(stats.RenderTime)
}
