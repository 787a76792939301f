package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-pulse/algorithms/filters"
)

// ImpulseParams tunes the onset detector
type ImpulseParams struct {
	BackgroundRate float64 // long-term energy EMA rate
	EnergyRate     float64 // short-term energy EMA rate
	SignalGain     float64 // scale applied to the normalized difference
	PeakDecay      float64 // per-frame decay of the running peak
	PeakFloor      float64 // lower bound of the normalizer
	Threshold      float64 // offset subtracted from the normalized signal
}

// DefaultImpulseParams returns the standard tuning
func DefaultImpulseParams() ImpulseParams {
	return ImpulseParams{
		BackgroundRate: 0.2,
		EnergyRate:     0.4,
		SignalGain:     3,
		PeakDecay:      0.99,
		PeakFloor:      0.2,
		Threshold:      0.7,
	}
}

// Impulse is the detector output for one frame
type Impulse struct {
	// Signal is the energy above background, used as tempo excitation
	Signal float64

	// Strength is the normalized, thresholded signal; positive means a
	// candidate beat
	Strength float64

	// Rising is set when Strength crosses zero upward this frame
	Rising bool
}

// ImpulseDetector separates short-term energy bursts from the background
// level and normalizes them against a slowly decaying peak.
type ImpulseDetector struct {
	params     ImpulseParams
	background *filters.Exponential
	energy     *filters.Exponential
	peak       float64
	last       float64
}

// NewImpulseDetector creates a detector with the given tuning
func NewImpulseDetector(params ImpulseParams) *ImpulseDetector {
	return &ImpulseDetector{
		params:     params,
		background: filters.NewExponential(params.BackgroundRate),
		energy:     filters.NewExponential(params.EnergyRate),
	}
}

// Process consumes one frame's energy level in [0, 1]
func (d *ImpulseDetector) Process(level float64) Impulse {
	bg := d.background.Process(level)
	en := d.energy.Process(level)

	// background may saturate at 1 on clipped input
	signal := (en - bg) / math.Max(1-bg, 1e-9) * d.params.SignalGain

	d.peak = math.Max(d.peak*d.params.PeakDecay, signal)
	strength := signal/math.Max(d.params.PeakFloor, d.peak) - d.params.Threshold

	imp := Impulse{
		Signal:   signal,
		Strength: strength,
		Rising:   strength > 0 && d.last <= 0,
	}
	d.last = strength
	return imp
}

// Last returns the strength reported by the previous Process call
func (d *ImpulseDetector) Last() float64 {
	return d.last
}

// Reset clears all detector state
func (d *ImpulseDetector) Reset() {
	d.background.Reset()
	d.energy.Reset()
	d.peak = 0
	d.last = 0
}
