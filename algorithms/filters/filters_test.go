package filters

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
)

func TestWeightedFIR_RampsInAndSettles(t *testing.T) {
	fir, err := NewWeightedFIR([]float64{1, 2, 1}, 4)
	if err != nil {
		t.Fatal(err)
	}

	history := common.NewVectorHistory(7, 2)
	out := make([]float64, 2)

	// partial history: only the newest tap has data
	if err := history.Push([]float64{1, 0.5}); err != nil {
		t.Fatal(err)
	}
	if err := fir.Apply(history, out); err != nil {
		t.Fatal(err)
	}
	if out[0] != 0.25 || out[1] != 0.125 {
		t.Fatalf("first output = %v, want [0.25 0.125]", out)
	}

	for range 5 {
		if err := history.Push([]float64{1, 0.5}); err != nil {
			t.Fatal(err)
		}
	}
	if err := fir.Apply(history, out); err != nil {
		t.Fatal(err)
	}
	if out[0] != 1 || out[1] != 0.5 {
		t.Errorf("settled output = %v, want [1 0.5]", out)
	}
}

func TestWeightedFIR_DifferenceOfConstantIsZero(t *testing.T) {
	fir, err := NewWeightedFIR([]float64{1, 3, 2, -2, -3, -1}, 1)
	if err != nil {
		t.Fatal(err)
	}

	history := common.NewVectorHistory(7, 1)
	out := make([]float64, 1)
	for range 7 {
		if err := history.Push([]float64{0.8}); err != nil {
			t.Fatal(err)
		}
	}
	if err := fir.Apply(history, out); err != nil {
		t.Fatal(err)
	}
	if math.Abs(out[0]) > 1e-12 {
		t.Errorf("difference of constant = %g, want 0", out[0])
	}
}

func TestWeightedFIR_Validation(t *testing.T) {
	if _, err := NewWeightedFIR(nil, 1); err == nil {
		t.Error("expected error for empty factors")
	}
	if _, err := NewWeightedFIR([]float64{1}, 0); err == nil {
		t.Error("expected error for zero gain")
	}

	fir, _ := NewWeightedFIR([]float64{1}, 1)
	if err := fir.Apply(common.NewVectorHistory(2, 3), make([]float64, 2)); err == nil {
		t.Error("expected width mismatch error")
	}
}

func TestExponential(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		input []float64
		want  float64
	}{
		{name: "single step", rate: 0.5, input: []float64{1}, want: 0.5},
		{name: "two steps", rate: 0.4, input: []float64{1, 1}, want: 0.64},
		{name: "follows exactly", rate: 1, input: []float64{3, 7}, want: 7},
		{name: "frozen", rate: 0, input: []float64{3, 7}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExponential(tt.rate)
			for _, x := range tt.input {
				e.Process(x)
			}
			if math.Abs(e.Value()-tt.want) > 1e-12 {
				t.Errorf("Value = %g, want %g", e.Value(), tt.want)
			}
		})
	}

	state := []float64{0, 1}
	ProcessVector(state, []float64{1, 0}, 0.5)
	if state[0] != 0.5 || state[1] != 0.5 {
		t.Errorf("ProcessVector = %v", state)
	}
}
