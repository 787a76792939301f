package windowing

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mjibson/go-dsp/window"
)

// ErrUnknownWindow is returned for a window name that is not registered
var ErrUnknownWindow = errors.New("unknown window type")

// Type names an analysis window
type Type string

const (
	Rectangular Type = "rectangular"
	Hann        Type = "hann"
	Hamming     Type = "hamming"
	Blackman    Type = "blackman"
	Bartlett    Type = "bartlett"
	FlatTop     Type = "flattop"
)

var generators = map[Type]func(int) []float64{
	Rectangular: window.Rectangular,
	Hann:        window.Hann,
	Hamming:     window.Hamming,
	Blackman:    window.Blackman,
	Bartlett:    window.Bartlett,
	FlatTop:     window.FlatTop,
}

// Window holds precomputed coefficients for a fixed size
type Window struct {
	kind         Type
	coefficients []float64
}

// New creates a window of the given type and size. An empty name selects
// the rectangular window.
func New(kind Type, size int) (*Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	kind = Type(strings.ToLower(strings.TrimSpace(string(kind))))
	if kind == "" {
		kind = Rectangular
	}

	gen, ok := generators[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownWindow, kind, strings.Join(Available(), ", "))
	}

	return &Window{
		kind:         kind,
		coefficients: gen(size),
	}, nil
}

// Available lists the registered window names in sorted order
func Available() []string {
	names := make([]string, 0, len(generators))
	for k := range generators {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}

// IsKnown reports whether kind names a registered window
func IsKnown(kind Type) bool {
	kind = Type(strings.ToLower(strings.TrimSpace(string(kind))))
	if kind == "" {
		return true
	}
	_, ok := generators[kind]
	return ok
}

// ApplyInPlace multiplies signal by the window coefficients
func (w *Window) ApplyInPlace(signal []float64) error {
	if len(signal) != len(w.coefficients) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(w.coefficients))
	}

	// rectangular is all ones
	if w.kind == Rectangular {
		return nil
	}

	for i := range signal {
		signal[i] *= w.coefficients[i]
	}
	return nil
}

// Type returns the window type
func (w *Window) Type() Type {
	return w.kind
}

// Size returns the window length
func (w *Window) Size() int {
	return len(w.coefficients)
}

// Coefficients returns a copy of the window coefficients
func (w *Window) Coefficients() []float64 {
	c := make([]float64, len(w.coefficients))
	copy(c, w.coefficients)
	return c
}
