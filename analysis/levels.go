package analysis

import (
	"fmt"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
	"github.com/RyanBlaney/sonido-pulse/algorithms/filters"
	"github.com/RyanBlaney/sonido-pulse/algorithms/temporal"
)

// LevelBlock is the per-band level output: instantaneous RMS, a three
// frame average and a decayed six frame derivative.
type LevelBlock struct {
	Direct []float64 `json:"direct"`
	Smooth []float64 `json:"smooth"`
	Change []float64 `json:"change"`
}

func (b LevelBlock) clone() LevelBlock {
	return LevelBlock{
		Direct: append([]float64(nil), b.Direct...),
		Smooth: append([]float64(nil), b.Smooth...),
		Change: append([]float64(nil), b.Change...),
	}
}

// LevelExtractor computes per-band RMS levels and their temporal filters
type LevelExtractor struct {
	bands       []string
	center      float64
	scale       float64
	changeDecay float64

	envelope *temporal.Envelope
	history  *common.VectorHistory
	smoothF  *filters.WeightedFIR
	changeF  *filters.WeightedFIR

	current []float64
	state   LevelBlock
	scratch []float64
}

// NewLevelExtractor creates an extractor for the configured bands
func NewLevelExtractor(cfg *Config) (*LevelExtractor, error) {
	smooth, err := filters.NewWeightedFIR(cfg.Levels.SmoothFactors, cfg.Levels.SmoothGain)
	if err != nil {
		return nil, &ConfigurationError{Field: "levels.smooth_factors", Reason: "cannot build filter", Err: err}
	}
	change, err := filters.NewWeightedFIR(cfg.Levels.ChangeFactors, cfg.Levels.ChangeGain)
	if err != nil {
		return nil, &ConfigurationError{Field: "levels.change_factors", Reason: "cannot build filter", Err: err}
	}

	n := len(cfg.Bands)
	return &LevelExtractor{
		bands:       append([]string(nil), cfg.Bands...),
		center:      cfg.SampleCenter,
		scale:       cfg.SampleScale,
		changeDecay: cfg.Levels.ChangeDecay,
		envelope:    temporal.NewEnvelope(),
		history:     common.NewVectorHistory(cfg.Levels.HistoryLength, n),
		smoothF:     smooth,
		changeF:     change,
		current:     make([]float64, n),
		state: LevelBlock{
			Direct: make([]float64, n),
			Smooth: make([]float64, n),
			Change: make([]float64, n),
		},
		scratch: make([]float64, n),
	}, nil
}

// Update measures one frame. The frame must already be validated.
func (le *LevelExtractor) Update(frame *SampleFrame) error {
	for i, band := range le.bands {
		w, ok := frame.Waveform(band)
		if !ok {
			return fmt.Errorf("missing waveform for band %q", band)
		}
		le.current[i] = le.envelope.CenteredRMS(w, le.center, le.scale)
	}

	if err := le.history.Push(le.current); err != nil {
		return err
	}
	copy(le.state.Direct, le.current)

	if err := le.smoothF.Apply(le.history, le.state.Smooth); err != nil {
		return err
	}

	if err := le.changeF.Apply(le.history, le.scratch); err != nil {
		return err
	}
	filters.ProcessVector(le.state.Change, le.scratch, le.changeDecay)

	return nil
}

// Levels returns a copy of the current level block
func (le *LevelExtractor) Levels() LevelBlock {
	return le.state.clone()
}

// Direct returns the newest RMS level of band index i
func (le *LevelExtractor) Direct(i int) float64 {
	if i < 0 || i >= len(le.state.Direct) {
		return 0
	}
	return le.state.Direct[i]
}

// HistoryLen returns how many RMS vectors are retained
func (le *LevelExtractor) HistoryLen() int {
	return le.history.Len()
}
