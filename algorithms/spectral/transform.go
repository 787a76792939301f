package spectral

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidSize is returned when a transform size is not a power of two
	ErrInvalidSize = errors.New("transform size must be a power of two")

	// ErrSizeMismatch is returned when a buffer does not match the transform size
	ErrSizeMismatch = errors.New("buffer length does not match transform size")
)

// Transform is a fixed-size radix-2 Cooley-Tukey FFT.
//
// The bit-reversal permutation and the twiddle step tables are computed once
// by NewTransform and owned by the instance, so independent transforms share
// no state. Real and imaginary outputs are kept in instance buffers that are
// overwritten by every call to Forward.
type Transform struct {
	size     int
	reverse  []int
	sinTable []float64
	cosTable []float64
	real     []float64
	imag     []float64
}

// NewTransform creates a transform for buffers of exactly size samples
func NewTransform(size int) (*Transform, error) {
	if !IsPowerOfTwo(size) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}

	t := &Transform{
		size:     size,
		reverse:  make([]int, size),
		sinTable: make([]float64, size),
		cosTable: make([]float64, size),
		real:     make([]float64, size),
		imag:     make([]float64, size),
	}

	limit := 1
	bit := size >> 1
	for limit < size {
		for i := 0; i < limit; i++ {
			t.reverse[i+limit] = t.reverse[i] + bit
		}
		limit <<= 1
		bit >>= 1
	}

	// Index is the butterfly half size; entry 0 is never read.
	for i := 1; i < size; i++ {
		t.sinTable[i] = math.Sin(-math.Pi / float64(i))
		t.cosTable[i] = math.Cos(-math.Pi / float64(i))
	}

	return t, nil
}

// IsPowerOfTwo reports whether n is a power of two no smaller than 2
func IsPowerOfTwo(n int) bool {
	return n >= 2 && n&(n-1) == 0
}

// Size returns the configured transform size
func (t *Transform) Size() int {
	return t.size
}

// Forward computes the DFT of buffer: X[k] = sum x[n] e^(-2 pi i k n / N).
// The result is read through Real and Imag.
func (t *Transform) Forward(buffer []float64) error {
	if len(buffer) != t.size {
		return fmt.Errorf("%w: transform size %d, buffer size %d", ErrSizeMismatch, t.size, len(buffer))
	}

	for i := 0; i < t.size; i++ {
		t.real[i] = buffer[t.reverse[i]]
		t.imag[i] = 0
	}

	t.butterflies(t.real, t.imag)
	return nil
}

// Inverse computes the inverse DFT of the given spectrum and returns the real
// part of the result. Only provided for completeness; the analysis chain
// never transforms back.
func (t *Transform) Inverse(re, im []float64) ([]float64, error) {
	if len(re) != t.size || len(im) != t.size {
		return nil, fmt.Errorf("%w: transform size %d, spectrum sizes %d/%d", ErrSizeMismatch, t.size, len(re), len(im))
	}

	revReal := make([]float64, t.size)
	revImag := make([]float64, t.size)
	for i := 0; i < t.size; i++ {
		revReal[i] = re[t.reverse[i]]
		revImag[i] = -im[t.reverse[i]]
	}

	t.butterflies(revReal, revImag)

	out := make([]float64, t.size)
	for i := range out {
		out[i] = revReal[i] / float64(t.size)
	}
	return out, nil
}

// butterflies runs the in-place decimation-in-time passes over bit-reversed input
func (t *Transform) butterflies(re, im []float64) {
	for halfSize := 1; halfSize < t.size; halfSize <<= 1 {
		stepReal := t.cosTable[halfSize]
		stepImag := t.sinTable[halfSize]

		phaseReal := 1.0
		phaseImag := 0.0

		for step := 0; step < halfSize; step++ {
			for i := step; i < t.size; i += halfSize << 1 {
				off := i + halfSize
				tr := phaseReal*re[off] - phaseImag*im[off]
				ti := phaseReal*im[off] + phaseImag*re[off]

				re[off] = re[i] - tr
				im[off] = im[i] - ti
				re[i] += tr
				im[i] += ti
			}

			tmp := phaseReal
			phaseReal = tmp*stepReal - phaseImag*stepImag
			phaseImag = tmp*stepImag + phaseImag*stepReal
		}
	}
}

// Real returns the real part of the last forward transform.
// The slice is owned by the transform and must not be modified.
func (t *Transform) Real() []float64 {
	return t.real
}

// Imag returns the imaginary part of the last forward transform.
// The slice is owned by the transform and must not be modified.
func (t *Transform) Imag() []float64 {
	return t.imag
}
