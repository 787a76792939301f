package spectral

import (
	"fmt"
	"math"
)

// PowerSpectrum squares and sums complex transform outputs per bin.
//
// Fed with the transform of a signal history this yields the Fourier
// transform of its autocorrelation (Wiener-Khinchin), which is what the
// tempo tracker peak-picks. It is not a magnitude spectrum.
type PowerSpectrum struct {
	// No state needed - stateless calculation
}

// NewPowerSpectrum creates a new power spectrum calculator
func NewPowerSpectrum() *PowerSpectrum {
	return &PowerSpectrum{}
}

// Compute writes re[i]^2 + im[i]^2 into dst, allocating it when nil or short
func (ps *PowerSpectrum) Compute(re, im, dst []float64) ([]float64, error) {
	if len(re) != len(im) {
		return nil, fmt.Errorf("%w: real %d, imaginary %d", ErrSizeMismatch, len(re), len(im))
	}

	if len(dst) < len(re) {
		dst = make([]float64, len(re))
	}
	dst = dst[:len(re)]

	for i := range re {
		dst[i] = re[i]*re[i] + im[i]*im[i]
	}

	return dst, nil
}

// ComputeFromTransform computes the power spectrum of the last Forward call
func (ps *PowerSpectrum) ComputeFromTransform(t *Transform, dst []float64) []float64 {
	// Real and Imag always share the transform size
	power, _ := ps.Compute(t.Real(), t.Imag(), dst)
	return power
}

// ComputeLog computes log power in dB with a floor, for display
func (ps *PowerSpectrum) ComputeLog(power []float64, floorDB float64) []float64 {
	if len(power) == 0 {
		return []float64{}
	}

	floor := math.Pow(10, floorDB/10.0)
	logPower := make([]float64, len(power))

	for i, p := range power {
		if p < floor {
			p = floor
		}
		logPower[i] = 10 * math.Log10(p)
	}

	return logPower
}
