package common

// ParabolicOffset fits a parabola through three equally spaced samples
// around a local maximum m and returns the sub-sample offset of its vertex
// relative to the middle sample, in (-1, 1) for a true peak.
//
// A flat neighbourhood (zero curvature) yields 0.
func ParabolicOffset(l, m, r float64) float64 {
	a2 := (l + r) - 2*m
	if a2 == 0 {
		return 0
	}
	b := (r - l) / 2
	return -b / a2
}
