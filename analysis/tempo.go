package analysis

import (
	"math"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
	"github.com/RyanBlaney/sonido-pulse/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pulse/algorithms/windowing"
	"github.com/RyanBlaney/sonido-pulse/logging"
)

// TempoEstimate is the tracker's current tempo hypothesis
type TempoEstimate struct {
	BPM        float64 `json:"bpm"`
	Window     float64 `json:"window"` // beat period in frames
	Offset     float64 `json:"offset"` // spectrum bin of the fundamental
	Confidence float64 `json:"confidence"`
	Permanence float64 `json:"permanence"`
	Score      float64 `json:"score"`
}

// TempoTracker estimates tempo from the power spectrum of the recent
// excitation history. Peaks of that spectrum sit at the repetition rates of
// the signal; a histogram keeps the stable ones and harmonic scoring picks
// the fundamental.
type TempoTracker struct {
	cfg       *Config
	transform *spectral.Transform
	power     *spectral.PowerSpectrum
	window    *windowing.Window
	history   *common.HistoryBuffer
	histogram *PeakHistogram

	buffer   []float64
	spectrum []float64
	peaks    []Peak
	fMin     int
	fMax     int

	current     *PeakEntry
	spectrumMax float64
	frames      int
	logger      logging.Logger
}

// NewTempoTracker creates a tracker for the configured transform size
func NewTempoTracker(cfg *Config, logger logging.Logger) (*TempoTracker, error) {
	transform, err := spectral.NewTransform(cfg.TransformSize)
	if err != nil {
		return nil, &ConfigurationError{Field: "transform_size", Reason: "cannot build transform", Err: err}
	}
	win, err := windowing.New(windowing.Type(cfg.Window), cfg.TransformSize)
	if err != nil {
		return nil, &ConfigurationError{Field: "window", Reason: "cannot build window", Err: err}
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	fMin, fMax := cfg.PeakRange()
	return &TempoTracker{
		cfg:       cfg,
		transform: transform,
		power:     spectral.NewPowerSpectrum(),
		window:    win,
		history:   common.NewHistoryBuffer(cfg.TransformSize),
		histogram: NewPeakHistogram(cfg),
		buffer:    make([]float64, cfg.TransformSize),
		spectrum:  make([]float64, cfg.TransformSize),
		fMin:      fMin,
		fMax:      fMax,
		logger: logger.WithFields(logging.Fields{
			"component": "tempo_tracker",
		}),
	}, nil
}

// Update feeds one excitation sample and returns the current estimate, or
// nil if no tempo has been found yet.
func (tt *TempoTracker) Update(excitation float64) *TempoEstimate {
	tt.frames++

	if math.IsNaN(excitation) || math.IsInf(excitation, 0) {
		excitation = 0
	}
	tt.history.Push(excitation)

	// history length always equals the transform size
	_ = tt.history.CopyTo(tt.buffer)
	_ = tt.window.ApplyInPlace(tt.buffer)
	_ = tt.transform.Forward(tt.buffer)
	tt.spectrum = tt.power.ComputeFromTransform(tt.transform, tt.spectrum)

	tt.spectrumMax = common.MaxInRange(tt.spectrum, 2, tt.cfg.MaxSearchBin())
	tt.findPeaks()

	tt.histogram.Decay()
	for _, p := range tt.peaks {
		tt.histogram.Add(p)
	}
	if culled := tt.histogram.Prune(); culled > 0 {
		tt.logger.Debug("Culled histogram entries", logging.Fields{
			"culled":    culled,
			"remaining": tt.histogram.Len(),
		})
	}

	best := tt.histogram.Score(tt.fMin)
	switch {
	case best == nil:
		// nothing left to compare against; a frozen estimate still fades
		if tt.current != nil {
			tt.current.Confidence *= tt.cfg.Tempo.ConfidenceDecay
		}
	case tt.current == nil:
		tt.current = best
		tt.logger.Debug("Tempo acquired", logging.Fields{
			"bpm":        best.BPM,
			"confidence": best.Confidence,
		})
	case tt.current.Confidence < best.Confidence:
		if tt.current != best {
			tt.logger.Debug("Tempo changed", logging.Fields{
				"from_bpm":   tt.current.BPM,
				"bpm":        best.BPM,
				"confidence": best.Confidence,
			})
		}
		tt.current = best
	case tt.current != best:
		tt.current.Confidence *= tt.cfg.Tempo.ConfidenceDecay
	}

	return tt.Estimate()
}

// findPeaks collects local maxima of the spectrum inside the tempo range
func (tt *TempoTracker) findPeaks() {
	tt.peaks = tt.peaks[:0]

	// silent or degenerate input has no peaks
	if !(tt.spectrumMax > tt.cfg.Tempo.SilenceFloor) {
		return
	}

	cutoff := tt.spectrumMax * tt.cfg.Tempo.PeakCutoffRatio
	for i := tt.fMin + 1; i < tt.fMax; i++ {
		p := tt.spectrum[i]
		if p <= cutoff {
			continue
		}
		l, r := tt.spectrum[i-1], tt.spectrum[i+1]
		if p <= math.Max(l, r) {
			continue
		}
		// must dip on at least one side
		if (p-math.Min(l, r))/p <= tt.cfg.Tempo.PeakDiscriminant {
			continue
		}

		tt.peaks = append(tt.peaks, Peak{
			Index:    i,
			Fraction: common.ParabolicOffset(l, p, r),
			Strength: math.Sqrt(p / tt.spectrumMax),
		})
	}
}

// Estimate returns the current tempo estimate, or nil before any tempo
// was found. Tempos above the octave ceiling are reported at half speed.
func (tt *TempoTracker) Estimate() *TempoEstimate {
	if tt.current == nil {
		return nil
	}

	est := &TempoEstimate{
		BPM:        tt.current.BPM,
		Window:     tt.current.Window,
		Offset:     tt.current.Offset,
		Confidence: tt.current.Confidence,
		Permanence: tt.current.Permanence,
		Score:      tt.current.Score,
	}
	if est.BPM > tt.cfg.Tempo.OctaveCeilingBPM {
		est.BPM /= 2
		est.Window *= 2
	}
	return est
}

// Current returns a copy of the histogram entry backing the estimate
func (tt *TempoTracker) Current() (PeakEntry, bool) {
	if tt.current == nil {
		return PeakEntry{}, false
	}
	return *tt.current, true
}

// Histogram returns copies of the histogram entries in permanence order
func (tt *TempoTracker) Histogram() []PeakEntry {
	return tt.histogram.Entries()
}

// Peaks returns the peaks detected in the last frame
func (tt *TempoTracker) Peaks() []Peak {
	return append([]Peak(nil), tt.peaks...)
}

// Spectrum returns a copy of the first n bins of the last power spectrum;
// n <= 0 returns all bins.
func (tt *TempoTracker) Spectrum(n int) []float64 {
	if n <= 0 || n > len(tt.spectrum) {
		n = len(tt.spectrum)
	}
	return append([]float64(nil), tt.spectrum[:n]...)
}

// SpectrumMax returns the maximum of the search region in the last frame
func (tt *TempoTracker) SpectrumMax() float64 {
	return tt.spectrumMax
}

// PeakRange returns the exclusive bin bounds of the peak search
func (tt *TempoTracker) PeakRange() (fMin, fMax int) {
	return tt.fMin, tt.fMax
}
