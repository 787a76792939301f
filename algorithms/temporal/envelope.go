package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
)

// Envelope provides amplitude envelope extraction
type Envelope struct {
	// No state needed - stateless calculation
}

// NewEnvelope creates a new envelope extractor
func NewEnvelope() *Envelope {
	return &Envelope{}
}

// CenteredRMS computes the RMS of (s - center) / scale over samples,
// clamped to [0, 1]. 8-bit unsigned audio uses center 128 and scale 128;
// float audio uses center 0 and scale 1. An empty buffer or a non-positive
// scale yields 0.
func (e *Envelope) CenteredRMS(samples []float64, center, scale float64) float64 {
	if len(samples) == 0 || scale <= 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, s := range samples {
		v := (s - center) / scale
		sumSquares += v * v
	}

	return common.Clamp(math.Sqrt(sumSquares/float64(len(samples))), 0, 1)
}

// ComputePeak returns the largest absolute deviation from center, scaled
func (e *Envelope) ComputePeak(samples []float64, center, scale float64) float64 {
	if len(samples) == 0 || scale <= 0 {
		return 0.0
	}

	peak := 0.0
	for _, s := range samples {
		peak = math.Max(peak, math.Abs(s-center)/scale)
	}
	return common.Clamp(peak, 0, 1)
}
