package common

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic numeric helpers shared by the analysis chain, using gonum where it has one

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// TrimmedMeanStdDev sorts a copy of data, drops up to trim values from each
// end while keeping at least minKeep, and returns the population mean and
// standard deviation of what is left. ok is false when fewer than minKeep
// values are available.
func TrimmedMeanStdDev(data []float64, trim, minKeep int) (mean, std float64, ok bool) {
	if len(data) < minKeep || len(data) == 0 {
		return 0, 0, false
	}

	working := slices.Clone(data)
	slices.Sort(working)

	// trim symmetrically, never below minKeep
	drop := min(trim, max(0, (len(working)-minKeep)/2))
	working = working[drop : len(working)-drop]

	mean, std = stat.PopMeanStdDev(working, nil)
	return mean, std, true
}

// MaxInRange returns the maximum of data[from:to], clipped to the slice bounds
func MaxInRange(data []float64, from, to int) float64 {
	from = max(from, 0)
	to = min(to, len(data))
	if from >= to {
		return 0.0
	}
	return floats.Max(data[from:to])
}

// Clamp constrains value to [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// PositiveMod returns x mod m in [0, m) for m > 0, and x unchanged otherwise
func PositiveMod(x, m float64) float64 {
	if m <= 0 {
		return x
	}
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}

// Lerp performs linear interpolation between a and b
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}
