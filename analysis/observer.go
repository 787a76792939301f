package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
	"github.com/RyanBlaney/sonido-pulse/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pulse/logging"
)

// Snapshot is a copy of the analysis state after one frame
type Snapshot struct {
	SessionID string
	Frame     int
	Levels    LevelBlock
	Impulse   float64
	Signal    float64
	Beat      BeatState
	Tempo     *TempoEstimate
	Current   *PeakEntry // histogram entry backing Tempo
	Histogram []PeakEntry
	Spectrum  []float64 // head of the power spectrum, through the peak search range
	Stats     PredictorStats
}

// Observer receives a snapshot after every analysed frame. Observers run
// synchronously inside the analysis pass and must not call back into the
// Analyser.
type Observer interface {
	Observe(s *Snapshot)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(s *Snapshot)

func (f ObserverFunc) Observe(s *Snapshot) { f(s) }

// LoggingObserver writes a one line tempo summary every few frames at debug level
type LoggingObserver struct {
	logger  logging.Logger
	every   int
	tempo   TempoConfig
	floorDB float64
	power   *spectral.PowerSpectrum
}

// NewLoggingObserver creates an observer logging every n frames
func NewLoggingObserver(logger logging.Logger, every int, cfg *Config) *LoggingObserver {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	if every < 1 {
		every = 1
	}
	return &LoggingObserver{
		logger: logger.WithFields(logging.Fields{
			"component": "tempo_observer",
		}),
		every:   every,
		tempo:   cfg.Tempo,
		floorDB: -120,
		power:   spectral.NewPowerSpectrum(),
	}
}

func (o *LoggingObserver) Observe(s *Snapshot) {
	if s.Frame%o.every != 0 {
		return
	}

	fields := logging.Fields{
		"frame":   s.Frame,
		"session": s.SessionID,
		"locked":  s.Beat.Locked,
		"found":   s.Stats.Found,
		"missed":  s.Stats.Missed,
		"mean":    round(s.Stats.Mean, 10),
		"stddev":  round(s.Stats.Stddev, 100),
		"level":   round(common.Mean(s.Levels.Direct), 1000),
	}
	if len(s.Spectrum) > 0 {
		logPower := o.power.ComputeLog(s.Spectrum, o.floorDB)
		peak := logPower[0]
		for _, v := range logPower[1:] {
			peak = math.Max(peak, v)
		}
		fields["spectrum_peak_db"] = round(peak, 10)
	}

	o.logger.Debug(o.Summary(s), fields)
}

// Summary renders the tempo line followed by one entry per histogram peak,
// with its harmonic match against the current tempo.
func (o *LoggingObserver) Summary(s *Snapshot) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%.1f BPM (%d%%) P:%d", round(s.Beat.BPM, 10),
		int(math.Round(100*s.Beat.Confidence)), int(math.Round(100*s.Beat.Permanence)))

	var matches []float64
	if s.Current != nil {
		matches = MatchHistogram(*s.Current, s.Histogram, o.tempo)
	}
	for i, e := range s.Histogram {
		fmt.Fprintf(&sb, " | %.1f bpm %d%% P:%d", round(e.BPM, 10),
			int(math.Round(100*e.Strength)), int(math.Round(100*e.Permanence)))
		if matches != nil {
			fmt.Fprintf(&sb, " m:%.2f", matches[i])
		}
	}
	return sb.String()
}

func round(v, scale float64) float64 {
	return math.Round(v*scale) / scale
}
