package filters

import (
	"fmt"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
)

// WeightedFIR is a finite impulse response filter evaluated across frames
// rather than samples: tap k weights the vector pushed k frames ago.
//
// y[j] = (f0*x0[j] + f1*x1[j] + ... + fk*xk[j]) / gain
//
// Taps beyond the stored history contribute zero, so the output ramps in
// while the history fills.
type WeightedFIR struct {
	factors []float64
	gain    float64
}

// NewWeightedFIR creates a filter with the given tap weights and output gain
func NewWeightedFIR(factors []float64, gain float64) (*WeightedFIR, error) {
	if len(factors) == 0 {
		return nil, fmt.Errorf("weighted FIR needs at least one factor")
	}
	if gain == 0 {
		return nil, fmt.Errorf("weighted FIR gain must be non-zero")
	}

	f := make([]float64, len(factors))
	copy(f, factors)
	return &WeightedFIR{factors: f, gain: gain}, nil
}

// Taps returns the number of filter taps
func (w *WeightedFIR) Taps() int {
	return len(w.factors)
}

// Apply filters history component-wise into dst, which must have the
// history's width.
func (w *WeightedFIR) Apply(history *common.VectorHistory, dst []float64) error {
	if len(dst) != history.Width() {
		return fmt.Errorf("output width (%d) doesn't match history width (%d)", len(dst), history.Width())
	}

	samples := min(history.Len(), len(w.factors))
	for j := range dst {
		accum := 0.0
		for k := 0; k < samples; k++ {
			accum += history.Value(k, j) * w.factors[k]
		}
		dst[j] = accum / w.gain
	}
	return nil
}
