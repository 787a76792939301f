package filters

import (
	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
)

// Exponential is a one-pole smoother: y += (x - y) * rate.
//
// rate 1 follows the input exactly, rate 0 freezes the output.
type Exponential struct {
	rate  float64
	value float64
}

// NewExponential creates a smoother starting from zero
func NewExponential(rate float64) *Exponential {
	return &Exponential{rate: common.Clamp(rate, 0, 1)}
}

// Process feeds one input and returns the smoothed value
func (e *Exponential) Process(x float64) float64 {
	e.value = common.Lerp(e.value, x, e.rate)
	return e.value
}

// ProcessVector smooths values into state element-wise using rate.
// Both slices must have equal length; extra elements are ignored.
func ProcessVector(state, values []float64, rate float64) {
	n := min(len(state), len(values))
	for i := 0; i < n; i++ {
		state[i] = common.Lerp(state[i], values[i], rate)
	}
}

// Value returns the current output
func (e *Exponential) Value() float64 {
	return e.value
}

// Rate returns the smoothing rate
func (e *Exponential) Rate() float64 {
	return e.rate
}

// Reset returns the output to zero
func (e *Exponential) Reset() {
	e.value = 0
}
