package renderer

import "fmt"

// A quality preset trades render time for image fidelity by scaling the
// frame resolution, path length and sample budget together.
type Quality uint8

const (
	QualityLowest Quality = iota
	QualityLow
	QualityMedium
	QualityHigh
	QualityHighest
)

// A single preset tier. Tiers are strictly monotonic: a higher quality
// never lowers any of the three knobs.
type qualityTier struct {
	resScale  float32
	bounces   uint32
	targetSPP uint32
}

var qualityTiers = [...]qualityTier{
	QualityLowest:  {0.25, 2, 8},
	QualityLow:     {0.5, 3, 16},
	QualityMedium:  {1.0, 4, 32},
	QualityHigh:    {1.0, 6, 96},
	QualityHighest: {1.0, 8, 256},
}

var qualityNames = [...]string{
	QualityLowest:  "lowest",
	QualityLow:     "low",
	QualityMedium:  "medium",
	QualityHigh:    "high",
	QualityHighest: "highest",
}

// Parse a quality preset name as it appears on the command line.
func ParseQuality(name string) (Quality, error) {
	for q, qName := range qualityNames {
		if qName == name {
			return Quality(q), nil
		}
	}
	return QualityMedium, fmt.Errorf("unsupported quality preset %q", name)
}

func (q Quality) String() string {
	if int(q) >= len(qualityNames) {
		return "unknown"
	}
	return qualityNames[q]
}

// Resolve the preset into renderer options for a base frame size. The
// resolved frame dims never drop below 1x1.
func (q Quality) Resolve(baseW, baseH uint32) Options {
	if int(q) >= len(qualityTiers) {
		q = QualityMedium
	}
	tier := qualityTiers[q]

	frameW := uint32(float32(baseW) * tier.resScale)
	frameH := uint32(float32(baseH) * tier.resScale)
	if frameW == 0 {
		frameW = 1
	}
	if frameH == 0 {
		frameH = 1
	}

	return Options{
		FrameW:                frameW,
		FrameH:                frameH,
		NumBounces:            tier.bounces,
		MinBouncesForRR:       3,
		SamplesPerPixel:       1,
		TargetSamplesPerPixel: tier.targetSPP,
		Exposure:              1.0,
	}
}
