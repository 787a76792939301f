package analysis

import (
	"github.com/RyanBlaney/sonido-pulse/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pulse/logging"
)

// FrameData carries one frame through the detector chain. Each detector
// reads what earlier detectors wrote and adds its own results.
type FrameData struct {
	Index   int
	Frame   *SampleFrame
	Levels  LevelBlock
	Impulse temporal.Impulse
	Tempo   *TempoEstimate
	Beat    BeatState
}

// Detector is one stage of the per-frame analysis
type Detector interface {
	Name() string
	Analyse(data *FrameData) error
}

// LevelDetector measures band levels
type LevelDetector struct {
	levels *LevelExtractor
}

// NewLevelDetector creates the level stage
func NewLevelDetector(cfg *Config) (*LevelDetector, error) {
	le, err := NewLevelExtractor(cfg)
	if err != nil {
		return nil, err
	}
	return &LevelDetector{levels: le}, nil
}

func (d *LevelDetector) Name() string { return "levels" }

func (d *LevelDetector) Analyse(data *FrameData) error {
	if err := d.levels.Update(data.Frame); err != nil {
		return err
	}
	data.Levels = d.levels.Levels()
	return nil
}

// BeatDetector turns the energy band level into impulses, tempo and beats
type BeatDetector struct {
	energyIndex int
	impulse     *temporal.ImpulseDetector
	tempo       *TempoTracker
	predictor   *BeatPredictor
}

// NewBeatDetector creates the beat stage
func NewBeatDetector(cfg *Config, logger logging.Logger) (*BeatDetector, error) {
	tempo, err := NewTempoTracker(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &BeatDetector{
		energyIndex: cfg.EnergyIndex(),
		impulse:     temporal.NewImpulseDetector(cfg.ImpulseParams()),
		tempo:       tempo,
		predictor:   NewBeatPredictor(cfg, logger),
	}, nil
}

func (d *BeatDetector) Name() string { return "beat" }

func (d *BeatDetector) Analyse(data *FrameData) error {
	energy := 0.0
	if d.energyIndex < len(data.Levels.Direct) {
		energy = data.Levels.Direct[d.energyIndex]
	}

	data.Impulse = d.impulse.Process(energy)
	data.Tempo = d.tempo.Update(data.Impulse.Signal)
	data.Beat = d.predictor.Update(data.Tempo, data.Impulse.Strength)
	return nil
}

// Tracker returns the tempo tracker
func (d *BeatDetector) Tracker() *TempoTracker {
	return d.tempo
}

// Predictor returns the beat predictor
func (d *BeatDetector) Predictor() *BeatPredictor {
	return d.predictor
}
