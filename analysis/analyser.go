package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-pulse/logging"
)

// Analyser runs the detector chain once per frame and keeps the latest
// results for polling. A mutex guards each full pass, so readers on other
// goroutines always see the state of a completed frame.
type Analyser struct {
	mu sync.Mutex

	cfg       *Config
	sessionID string
	logger    logging.Logger

	levels    *LevelDetector
	beat      *BeatDetector
	detectors []Detector
	observers []Observer

	frames int
	last   FrameData
}

// Option configures an Analyser
type Option func(*Analyser)

// WithLogger sets the logger used by the analyser and its components
func WithLogger(logger logging.Logger) Option {
	return func(a *Analyser) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithObserver registers an observer called after every frame
func WithObserver(o Observer) Option {
	return func(a *Analyser) {
		if o != nil {
			a.observers = append(a.observers, o)
		}
	}
}

// New validates cfg and builds an analyser. A nil cfg selects DefaultConfig.
func New(cfg *Config, opts ...Option) (*Analyser, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.Clone()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Analyser{
		cfg:       cfg,
		sessionID: uuid.NewString(),
		logger:    logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.WithFields(logging.Fields{
		"session": a.sessionID,
	})

	levels, err := NewLevelDetector(cfg)
	if err != nil {
		return nil, err
	}
	beat, err := NewBeatDetector(cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.levels = levels
	a.beat = beat
	a.detectors = []Detector{levels, beat}

	a.logger.Debug("Analyser created", logging.Fields{
		"component":      "analyser",
		"frame_rate":     cfg.FrameRate,
		"frame_size":     cfg.FrameSize,
		"transform_size": cfg.TransformSize,
		"bands":          cfg.Bands,
	})

	return a, nil
}

// Analyse runs one frame through the detector chain. A frame that does not
// match the configured bands or frame size is rejected with a
// *ConfigurationError and leaves all state untouched.
func (a *Analyser) Analyse(frame *SampleFrame) error {
	if err := validateFrame(a.cfg, frame); err != nil {
		a.logger.Error(err, "Rejected frame", logging.Fields{
			"component": "analyser",
			"frame":     a.Frames(),
		})
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	data := FrameData{Index: a.frames, Frame: frame}
	for _, d := range a.detectors {
		if err := d.Analyse(&data); err != nil {
			a.logger.Error(err, "Detector failed", logging.Fields{
				"component": "analyser",
				"detector":  d.Name(),
				"frame":     a.frames,
			})
			return fmt.Errorf("detector %s: %w", d.Name(), err)
		}
	}
	data.Frame = nil
	a.last = data
	a.frames++

	if len(a.observers) > 0 {
		snap := a.snapshotLocked()
		for _, o := range a.observers {
			o.Observe(snap)
		}
	}
	return nil
}

// Process pulls frames from src until it returns io.EOF or ctx is done.
// It returns the number of frames analysed.
func (a *Analyser) Process(ctx context.Context, src FrameSource) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			a.logger.Debug("Frame source exhausted", logging.Fields{
				"component": "analyser",
				"frames":    n,
			})
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("reading frame %d: %w", n, err)
		}

		if err := a.Analyse(frame); err != nil {
			return n, err
		}
		n++
	}
}

// Levels returns a copy of the latest level block
func (a *Analyser) Levels() LevelBlock {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.levels.levels.Levels()
}

// Beat returns the latest beat decision
func (a *Analyser) Beat() BeatState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last.Beat
}

// Tempo returns a copy of the latest tempo estimate, or nil
func (a *Analyser) Tempo() *TempoEstimate {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.beat.tempo.Estimate()
}

// Histogram returns copies of the tempo histogram entries
func (a *Analyser) Histogram() []PeakEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.beat.tempo.Histogram()
}

// Stats returns the beat predictor statistics
func (a *Analyser) Stats() PredictorStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.beat.predictor.Stats()
}

// Snapshot returns a copy of the full analysis state
func (a *Analyser) Snapshot() *Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// Frames returns the number of frames analysed so far
func (a *Analyser) Frames() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frames
}

// SessionID identifies this analyser in logs
func (a *Analyser) SessionID() string {
	return a.sessionID
}

// Config returns a copy of the active configuration
func (a *Analyser) Config() *Config {
	return a.cfg.Clone()
}

func (a *Analyser) snapshotLocked() *Snapshot {
	tracker := a.beat.tempo
	_, fMax := tracker.PeakRange()

	s := &Snapshot{
		SessionID: a.sessionID,
		Frame:     a.frames - 1,
		Levels:    a.last.Levels.clone(),
		Impulse:   a.last.Impulse.Strength,
		Signal:    a.last.Impulse.Signal,
		Beat:      a.last.Beat,
		Tempo:     tracker.Estimate(),
		Histogram: tracker.Histogram(),
		Spectrum:  tracker.Spectrum(fMax + 1),
		Stats:     a.beat.predictor.Stats(),
	}
	if cur, ok := tracker.Current(); ok {
		s.Current = &cur
	}
	return s
}
