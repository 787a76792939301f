package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/RyanBlaney/sonido-pulse/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pulse/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pulse/algorithms/windowing"
)

// Band names used by the default configuration
const (
	BandSignal = "signal"
	BandLow    = "low"
	BandMid    = "mid"
	BandHigh   = "high"
)

// Config holds every tuning parameter of the analysis chain
type Config struct {
	FrameRate     float64  `json:"frame_rate"`     // analysis calls per second
	FrameSize     int      `json:"frame_size"`     // samples per waveform
	TransformSize int      `json:"transform_size"` // excitation history length, power of two
	SampleCenter  float64  `json:"sample_center"`  // 128 for 8-bit unsigned, 0 for float
	SampleScale   float64  `json:"sample_scale"`   // 128 for 8-bit unsigned, 1 for float
	Bands         []string `json:"bands"`          // waveform names, level vector order
	EnergyBand    string   `json:"energy_band"`    // band feeding the impulse detector
	Window        string   `json:"window"`         // analysis window over the excitation history

	Levels  LevelConfig   `json:"levels"`
	Impulse ImpulseConfig `json:"impulse"`
	Tempo   TempoConfig   `json:"tempo"`
	Beat    BeatConfig    `json:"beat"`
}

// LevelConfig configures the RMS history filters
type LevelConfig struct {
	HistoryLength int       `json:"history_length"`
	SmoothFactors []float64 `json:"smooth_factors"`
	SmoothGain    float64   `json:"smooth_gain"`
	ChangeFactors []float64 `json:"change_factors"`
	ChangeGain    float64   `json:"change_gain"`
	ChangeDecay   float64   `json:"change_decay"`
}

// ImpulseConfig configures the background/impulse separation
type ImpulseConfig struct {
	BackgroundRate float64 `json:"background_rate"`
	EnergyRate     float64 `json:"energy_rate"`
	SignalGain     float64 `json:"signal_gain"`
	PeakDecay      float64 `json:"peak_decay"`
	PeakFloor      float64 `json:"peak_floor"`
	Threshold      float64 `json:"threshold"`
}

// TempoConfig configures autocorrelation peak picking and the histogram
type TempoConfig struct {
	MinBPM            float64 `json:"min_bpm"`
	MaxBPM            float64 `json:"max_bpm"`
	OctaveCeilingBPM  float64 `json:"octave_ceiling_bpm"`
	MaxSearchDivisor  int     `json:"max_search_divisor"` // spectrum maximum is taken over bins [2, N/divisor)
	PeakCutoffRatio   float64 `json:"peak_cutoff_ratio"`
	PeakDiscriminant  float64 `json:"peak_discriminant"`
	SilenceFloor      float64 `json:"silence_floor"`
	PermanenceDecay   float64 `json:"permanence_decay"`
	PermanenceGain    float64 `json:"permanence_gain"`
	FractionRate      float64 `json:"fraction_rate"`
	CullStrength      float64 `json:"cull_strength"`
	HarmonicCutoff    float64 `json:"harmonic_cutoff"`
	HarmonicTolerance float64 `json:"harmonic_tolerance"`
	ConfidenceDecay   float64 `json:"confidence_decay"`
}

// BeatConfig configures the beat predictor
type BeatConfig struct {
	DebounceFrames   int     `json:"debounce_frames"`
	FoundBonus       int     `json:"found_bonus"`
	MissedPenalty    int     `json:"missed_penalty"`
	MaxFound         int     `json:"max_found"`
	MaxMissed        int     `json:"max_missed"`
	InitialMissed    int     `json:"initial_missed"`
	SuppressMissed   int     `json:"suppress_missed"` // predictions stop above this many misses
	IntervalMissed   int     `json:"interval_missed"` // intervals are only measured up to this many misses
	MinConfidence    float64 `json:"min_confidence"`
	LockStddev       float64 `json:"lock_stddev"`
	IntervalHistory  int     `json:"interval_history"`
	IntervalTrim     int     `json:"interval_trim"`
	MinLockIntervals int     `json:"min_lock_intervals"`
	Seed             uint64  `json:"seed"`
}

// DefaultConfig returns the standard configuration for 60 fps hosts
// delivering 8-bit waveforms of 512 samples in four bands.
func DefaultConfig() *Config {
	return &Config{
		FrameRate:     60,
		FrameSize:     512,
		TransformSize: 512,
		SampleCenter:  128,
		SampleScale:   128,
		Bands:         []string{BandSignal, BandLow, BandMid, BandHigh},
		EnergyBand:    BandSignal,
		Window:        string(windowing.Rectangular),
		Levels: LevelConfig{
			HistoryLength: 7,
			SmoothFactors: []float64{1, 2, 1},
			SmoothGain:    4,
			ChangeFactors: []float64{1, 3, 2, -2, -3, -1},
			ChangeGain:    1,
			ChangeDecay:   0.5,
		},
		Impulse: ImpulseConfig{
			BackgroundRate: 0.2,
			EnergyRate:     0.4,
			SignalGain:     3,
			PeakDecay:      0.99,
			PeakFloor:      0.2,
			Threshold:      0.7,
		},
		Tempo: TempoConfig{
			MinBPM:            50,
			MaxBPM:            400,
			OctaveCeilingBPM:  240,
			MaxSearchDivisor:  8,
			PeakCutoffRatio:   1.0 / 16,
			PeakDiscriminant:  0.5,
			SilenceFloor:      1e-9,
			PermanenceDecay:   0.99,
			PermanenceGain:    0.01,
			FractionRate:      0.1,
			CullStrength:      0.01,
			HarmonicCutoff:    1.5,
			HarmonicTolerance: 4,
			ConfidenceDecay:   0.95,
		},
		Beat: BeatConfig{
			DebounceFrames:   5,
			FoundBonus:       3,
			MissedPenalty:    1,
			MaxFound:         10,
			MaxMissed:        10,
			InitialMissed:    3,
			SuppressMissed:   4,
			IntervalMissed:   3,
			MinConfidence:    0.3,
			LockStddev:       2,
			IntervalHistory:  12,
			IntervalTrim:     2,
			MinLockIntervals: 6,
			Seed:             1,
		},
	}
}

// LoadConfig decodes JSON from r over the default configuration and validates it
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, &ConfigurationError{Field: "json", Reason: "cannot decode configuration", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and returns a *ConfigurationError for
// the first violation found.
func (c *Config) Validate() error {
	if !(c.FrameRate > 0) || math.IsInf(c.FrameRate, 0) {
		return configError("frame_rate", "must be positive, got %g", c.FrameRate)
	}
	if c.FrameSize <= 0 {
		return configError("frame_size", "must be positive, got %d", c.FrameSize)
	}
	if !spectral.IsPowerOfTwo(c.TransformSize) {
		return &ConfigurationError{
			Field:  "transform_size",
			Reason: fmt.Sprintf("got %d", c.TransformSize),
			Err:    spectral.ErrInvalidSize,
		}
	}
	if c.MaxSearchBin() <= 3 {
		return configError("transform_size", "too small for a %d-bin search region", c.MaxSearchBin())
	}
	if !(c.SampleScale > 0) {
		return configError("sample_scale", "must be positive, got %g", c.SampleScale)
	}
	if len(c.Bands) == 0 {
		return configError("bands", "at least one band is required")
	}
	for i, b := range c.Bands {
		if b == "" {
			return configError("bands", "band %d has an empty name", i)
		}
		if slices.Index(c.Bands, b) != i {
			return configError("bands", "duplicate band %q", b)
		}
	}
	if c.EnergyIndex() < 0 {
		return configError("energy_band", "%q is not one of %v", c.EnergyBand, c.Bands)
	}
	if !windowing.IsKnown(windowing.Type(c.Window)) {
		return configError("window", "unknown window %q (available: %v)", c.Window, windowing.Available())
	}

	if err := c.Levels.validate(); err != nil {
		return err
	}
	if err := c.Impulse.validate(); err != nil {
		return err
	}
	if err := c.validateTempo(); err != nil {
		return err
	}
	return c.Beat.validate()
}

func (l *LevelConfig) validate() error {
	if l.HistoryLength < max(len(l.SmoothFactors), len(l.ChangeFactors)) {
		return configError("levels.history_length", "%d is shorter than the longest filter", l.HistoryLength)
	}
	if len(l.SmoothFactors) == 0 || l.SmoothGain == 0 {
		return configError("levels.smooth_factors", "need at least one factor and a non-zero gain")
	}
	if len(l.ChangeFactors) == 0 || l.ChangeGain == 0 {
		return configError("levels.change_factors", "need at least one factor and a non-zero gain")
	}
	if l.ChangeDecay <= 0 || l.ChangeDecay > 1 {
		return configError("levels.change_decay", "must be in (0, 1], got %g", l.ChangeDecay)
	}
	return nil
}

func (i *ImpulseConfig) validate() error {
	for _, r := range []struct {
		field string
		value float64
	}{
		{"impulse.background_rate", i.BackgroundRate},
		{"impulse.energy_rate", i.EnergyRate},
		{"impulse.peak_decay", i.PeakDecay},
	} {
		if r.value <= 0 || r.value > 1 {
			return configError(r.field, "must be in (0, 1], got %g", r.value)
		}
	}
	if i.PeakFloor <= 0 {
		return configError("impulse.peak_floor", "must be positive, got %g", i.PeakFloor)
	}
	return nil
}

func (c *Config) validateTempo() error {
	t := &c.Tempo
	if t.MinBPM <= 0 || t.MaxBPM <= t.MinBPM {
		return configError("tempo.min_bpm", "need 0 < min_bpm < max_bpm, got %g and %g", t.MinBPM, t.MaxBPM)
	}
	if _, fMax := c.PeakRange(); fMax >= c.TransformSize/2 {
		return configError("tempo.max_bpm", "%g BPM is above the resolvable range at %g fps", t.MaxBPM, c.FrameRate)
	}
	if t.OctaveCeilingBPM <= 0 {
		return configError("tempo.octave_ceiling_bpm", "must be positive, got %g", t.OctaveCeilingBPM)
	}
	if t.MaxSearchDivisor <= 0 {
		return configError("tempo.max_search_divisor", "must be positive, got %d", t.MaxSearchDivisor)
	}
	if t.PermanenceDecay <= 0 || t.PermanenceDecay > 1 {
		return configError("tempo.permanence_decay", "must be in (0, 1], got %g", t.PermanenceDecay)
	}
	if t.FractionRate <= 0 || t.FractionRate > 1 {
		return configError("tempo.fraction_rate", "must be in (0, 1], got %g", t.FractionRate)
	}
	if t.ConfidenceDecay <= 0 || t.ConfidenceDecay > 1 {
		return configError("tempo.confidence_decay", "must be in (0, 1], got %g", t.ConfidenceDecay)
	}
	if t.HarmonicCutoff <= 1 {
		return configError("tempo.harmonic_cutoff", "must be above 1, got %g", t.HarmonicCutoff)
	}
	if t.SilenceFloor < 0 {
		return configError("tempo.silence_floor", "must not be negative, got %g", t.SilenceFloor)
	}
	return nil
}

func (b *BeatConfig) validate() error {
	if b.DebounceFrames < 0 {
		return configError("beat.debounce_frames", "must not be negative, got %d", b.DebounceFrames)
	}
	if b.MaxFound <= 0 || b.MaxMissed <= 0 {
		return configError("beat.max_found", "score limits must be positive, got %d and %d", b.MaxFound, b.MaxMissed)
	}
	if b.InitialMissed < 0 || b.InitialMissed > b.MaxMissed {
		return configError("beat.initial_missed", "must be in [0, %d], got %d", b.MaxMissed, b.InitialMissed)
	}
	if b.MinLockIntervals < 1 {
		return configError("beat.min_lock_intervals", "must be positive, got %d", b.MinLockIntervals)
	}
	if b.IntervalHistory < b.MinLockIntervals {
		return configError("beat.interval_history", "%d cannot hold %d intervals", b.IntervalHistory, b.MinLockIntervals)
	}
	if b.IntervalTrim < 0 {
		return configError("beat.interval_trim", "must not be negative, got %d", b.IntervalTrim)
	}
	if b.LockStddev <= 0 {
		return configError("beat.lock_stddev", "must be positive, got %g", b.LockStddev)
	}
	return nil
}

// EnergyIndex returns the position of EnergyBand in Bands, or -1
func (c *Config) EnergyIndex() int {
	return slices.Index(c.Bands, c.EnergyBand)
}

// MaxSearchBin is the exclusive upper bin of the spectrum maximum search
func (c *Config) MaxSearchBin() int {
	if c.Tempo.MaxSearchDivisor <= 0 {
		return 0
	}
	return c.TransformSize / c.Tempo.MaxSearchDivisor
}

// BPMToOffset converts a tempo to a fractional power spectrum bin
func (c *Config) BPMToOffset(bpm float64) float64 {
	return float64(c.TransformSize) * bpm / (60 * c.FrameRate)
}

// OffsetToBPM converts a fractional power spectrum bin to a tempo
func (c *Config) OffsetToBPM(offset float64) float64 {
	return 60 * c.FrameRate * offset / float64(c.TransformSize)
}

// PeakRange returns fMin = floor(offset(MinBPM)) and fMax = ceil(offset(MaxBPM));
// peaks are searched in (fMin, fMax).
func (c *Config) PeakRange() (fMin, fMax int) {
	return int(math.Floor(c.BPMToOffset(c.Tempo.MinBPM))), int(math.Ceil(c.BPMToOffset(c.Tempo.MaxBPM)))
}

// ImpulseParams converts the impulse section for the temporal detector
func (c *Config) ImpulseParams() temporal.ImpulseParams {
	return temporal.ImpulseParams{
		BackgroundRate: c.Impulse.BackgroundRate,
		EnergyRate:     c.Impulse.EnergyRate,
		SignalGain:     c.Impulse.SignalGain,
		PeakDecay:      c.Impulse.PeakDecay,
		PeakFloor:      c.Impulse.PeakFloor,
		Threshold:      c.Impulse.Threshold,
	}
}

// Clone returns a deep copy of the configuration
func (c *Config) Clone() *Config {
	cp := *c
	cp.Bands = slices.Clone(c.Bands)
	cp.Levels.SmoothFactors = slices.Clone(c.Levels.SmoothFactors)
	cp.Levels.ChangeFactors = slices.Clone(c.Levels.ChangeFactors)
	return &cp
}
