package temporal

import (
	"math"
	"testing"
)

func TestCenteredRMS(t *testing.T) {
	env := NewEnvelope()

	tests := []struct {
		name    string
		samples []float64
		center  float64
		scale   float64
		want    float64
	}{
		{name: "8-bit silence", samples: []float64{128, 128, 128, 128}, center: 128, scale: 128, want: 0},
		{name: "8-bit half scale", samples: []float64{64, 192, 64, 192}, center: 128, scale: 128, want: 0.5},
		{name: "8-bit full scale", samples: []float64{0, 256}, center: 128, scale: 128, want: 1},
		{name: "float sine peak", samples: []float64{1, -1, 1, -1}, center: 0, scale: 1, want: 1},
		{name: "clamped above one", samples: []float64{4, -4}, center: 0, scale: 1, want: 1},
		{name: "empty", samples: nil, center: 128, scale: 128, want: 0},
		{name: "zero scale", samples: []float64{1}, center: 0, scale: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := env.CenteredRMS(tt.samples, tt.center, tt.scale)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("CenteredRMS = %g, want %g", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("CenteredRMS = %g outside [0, 1]", got)
			}
		})
	}

	if got := env.ComputePeak([]float64{128, 32, 160}, 128, 128); got != 0.75 {
		t.Errorf("ComputePeak = %g, want 0.75", got)
	}
}

func TestImpulseDetector_RisingEdgeOnBurst(t *testing.T) {
	d := NewImpulseDetector(DefaultImpulseParams())

	for i := 0; i < 20; i++ {
		imp := d.Process(0)
		if imp.Rising {
			t.Fatalf("frame %d: rising edge on silence", i)
		}
		if imp.Signal != 0 {
			t.Fatalf("frame %d: signal %g on silence", i, imp.Signal)
		}
	}

	imp := d.Process(0.5)
	if !imp.Rising || imp.Strength <= 0 {
		t.Fatalf("burst not detected: %+v", imp)
	}

	// (0.2 - 0.1) / 0.9 * 3
	if want := 0.1 / 0.9 * 3; math.Abs(imp.Signal-want) > 1e-12 {
		t.Errorf("Signal = %g, want %g", imp.Signal, want)
	}

	// the next frame after the click falls back below threshold
	imp = d.Process(0)
	if imp.Rising || imp.Strength > 0 {
		t.Errorf("release frame still positive: %+v", imp)
	}
}

func TestImpulseDetector_PeriodicClicks(t *testing.T) {
	d := NewImpulseDetector(DefaultImpulseParams())

	rising := 0
	for frame := 0; frame < 300; frame++ {
		level := 0.0
		if frame%30 == 0 {
			level = 0.5
		}
		imp := d.Process(level)
		if imp.Rising {
			if frame%30 != 0 {
				t.Fatalf("rising edge at frame %d between clicks", frame)
			}
			rising++
		}
	}
	if rising != 10 {
		t.Errorf("rising edges = %d, want 10", rising)
	}
}

func TestImpulseDetector_SaturatedBackground(t *testing.T) {
	d := NewImpulseDetector(DefaultImpulseParams())
	for range 200 {
		imp := d.Process(1)
		if math.IsNaN(imp.Signal) || math.IsInf(imp.Signal, 0) {
			t.Fatalf("non-finite signal on saturated input: %+v", imp)
		}
	}

	d.Reset()
	if d.Last() != 0 {
		t.Errorf("Last after Reset = %g", d.Last())
	}
}
