package windowing

import (
	"errors"
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		kind    Type
		want    Type
		wantErr error
	}{
		{name: "default", kind: "", want: Rectangular},
		{name: "hann", kind: "hann", want: Hann},
		{name: "case insensitive", kind: " Hamming ", want: Hamming},
		{name: "unknown", kind: "gaussian", wantErr: ErrUnknownWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := New(tt.kind, 64)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if IsKnown(tt.kind) {
					t.Errorf("IsKnown(%q) = true", tt.kind)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if w.Type() != tt.want || w.Size() != 64 {
				t.Errorf("window = %s/%d, want %s/64", w.Type(), w.Size(), tt.want)
			}
			if !IsKnown(tt.kind) {
				t.Errorf("IsKnown(%q) = false", tt.kind)
			}
		})
	}

	if _, err := New(Hann, 0); err == nil {
		t.Error("expected error for zero size")
	}
}

func TestApplyInPlace(t *testing.T) {
	signal := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	rect, err := New(Rectangular, len(signal))
	if err != nil {
		t.Fatal(err)
	}
	got := append([]float64(nil), signal...)
	if err := rect.ApplyInPlace(got); err != nil {
		t.Fatal(err)
	}
	for i := range signal {
		if got[i] != signal[i] {
			t.Fatalf("rectangular changed the signal: %v", got)
		}
	}

	hann, err := New(Hann, len(signal))
	if err != nil {
		t.Fatal(err)
	}
	c := hann.Coefficients()
	if math.Abs(c[0]) > 1e-12 || math.Abs(c[len(c)-1]) > 1e-12 {
		t.Errorf("hann endpoints = %g, %g, want 0", c[0], c[len(c)-1])
	}
	for i := range c {
		if math.Abs(c[i]-c[len(c)-1-i]) > 1e-12 {
			t.Fatalf("hann not symmetric at %d: %v", i, c)
		}
	}

	got = append([]float64(nil), signal...)
	if err := hann.ApplyInPlace(got); err != nil {
		t.Fatal(err)
	}
	for i := range signal {
		if math.Abs(got[i]-signal[i]*c[i]) > 1e-12 {
			t.Fatalf("sample %d = %g, want %g", i, got[i], signal[i]*c[i])
		}
	}

	if err := hann.ApplyInPlace(make([]float64, 3)); err == nil {
		t.Error("expected length mismatch error")
	}
}
