package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-pulse/algorithms/spectral"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	fMin, fMax := cfg.PeakRange()
	if fMin != 7 || fMax != 57 {
		t.Errorf("PeakRange = (%d, %d), want (7, 57)", fMin, fMax)
	}
	if got := cfg.OffsetToBPM(cfg.BPMToOffset(120)); math.Abs(got-120) > 1e-9 {
		t.Errorf("BPM round trip = %g", got)
	}
	if cfg.MaxSearchBin() != 64 {
		t.Errorf("MaxSearchBin = %d, want 64", cfg.MaxSearchBin())
	}
}

func TestConfig_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{name: "zero frame rate", mutate: func(c *Config) { c.FrameRate = 0 }, field: "frame_rate"},
		{name: "zero frame size", mutate: func(c *Config) { c.FrameSize = 0 }, field: "frame_size"},
		{name: "transform not power of two", mutate: func(c *Config) { c.TransformSize = 500 }, field: "transform_size"},
		{name: "transform too small", mutate: func(c *Config) { c.TransformSize = 16 }, field: "transform_size"},
		{name: "no bands", mutate: func(c *Config) { c.Bands = nil }, field: "bands"},
		{name: "duplicate band", mutate: func(c *Config) { c.Bands = []string{"a", "a"}; c.EnergyBand = "a" }, field: "bands"},
		{name: "unknown energy band", mutate: func(c *Config) { c.EnergyBand = "sub" }, field: "energy_band"},
		{name: "unknown window", mutate: func(c *Config) { c.Window = "gaussian" }, field: "window"},
		{name: "short level history", mutate: func(c *Config) { c.Levels.HistoryLength = 3 }, field: "levels.history_length"},
		{name: "bad change decay", mutate: func(c *Config) { c.Levels.ChangeDecay = 0 }, field: "levels.change_decay"},
		{name: "bad impulse rate", mutate: func(c *Config) { c.Impulse.EnergyRate = 1.5 }, field: "impulse.energy_rate"},
		{name: "inverted bpm range", mutate: func(c *Config) { c.Tempo.MinBPM = 500 }, field: "tempo.min_bpm"},
		{name: "bpm above nyquist", mutate: func(c *Config) { c.Tempo.MaxBPM = 2000 }, field: "tempo.max_bpm"},
		{name: "harmonic cutoff", mutate: func(c *Config) { c.Tempo.HarmonicCutoff = 1 }, field: "tempo.harmonic_cutoff"},
		{name: "lock intervals", mutate: func(c *Config) { c.Beat.MinLockIntervals = 0 }, field: "beat.min_lock_intervals"},
		{name: "interval history", mutate: func(c *Config) { c.Beat.IntervalHistory = 4 }, field: "beat.interval_history"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("Validate error = %v, want ErrConfiguration", err)
			}
			var ce *ConfigurationError
			if !errors.As(err, &ce) || ce.Field != tt.field {
				t.Errorf("field = %v, want %q", err, tt.field)
			}
		})
	}
}

func TestConfig_InvalidTransformWrapsSentinel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TransformSize = 1000
	err := cfg.Validate()
	if !errors.Is(err, spectral.ErrInvalidSize) {
		t.Errorf("error %v does not wrap spectral.ErrInvalidSize", err)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`{"frame_rate": 30, "tempo": {"min_bpm": 60}}`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FrameRate != 30 || cfg.Tempo.MinBPM != 60 {
		t.Errorf("overlay not applied: %+v", cfg)
	}
	if cfg.Tempo.MaxBPM != 400 || cfg.TransformSize != 512 {
		t.Errorf("defaults lost: max_bpm %g, transform %d", cfg.Tempo.MaxBPM, cfg.TransformSize)
	}

	if _, err := LoadConfig(strings.NewReader(`{"frame_rat": 30}`)); !errors.Is(err, ErrConfiguration) {
		t.Errorf("unknown field error = %v", err)
	}
	if _, err := LoadConfig(strings.NewReader(`{"transform_size": 300}`)); !errors.Is(err, ErrConfiguration) {
		t.Errorf("invalid value error = %v", err)
	}
}

func TestConfig_Clone(t *testing.T) {
	cfg := DefaultConfig()
	cp := cfg.Clone()
	cp.Bands[0] = "changed"
	cp.Levels.SmoothFactors[0] = 9
	if cfg.Bands[0] != BandSignal || cfg.Levels.SmoothFactors[0] != 1 {
		t.Error("Clone shares slices with the original")
	}
}
