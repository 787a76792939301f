package analysis

import (
	"math"
	"math/rand/v2"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
	"github.com/RyanBlaney/sonido-pulse/logging"
)

// BeatState is the per-frame beat decision
type BeatState struct {
	Is         bool    `json:"is"`        // this frame is a beat
	Maybe      bool    `json:"maybe"`     // an impulse was seen but not used as a beat
	Predicted  bool    `json:"predicted"` // the decision came from the tempo model
	Missed     bool    `json:"missed"`    // a prediction found no impulse
	Locked     bool    `json:"locked"`    // measured intervals are regular
	Adjusted   bool    `json:"adjusted"`  // an impulse resynchronized the model
	Was        float64 `json:"was"`       // decaying flash value following beats
	BPM        float64 `json:"bpm"`
	Confidence float64 `json:"confidence"`
	Permanence float64 `json:"permanence"`
	Stddev     float64 `json:"stddev"`
}

// PredictorStats exposes the predictor's running statistics
type PredictorStats struct {
	Measure   float64   `json:"measure"` // frames since the last beat
	Found     int       `json:"found"`
	Missed    int       `json:"missed"`
	Intervals []float64 `json:"intervals"` // newest first
	Mean      float64   `json:"mean"`
	Stddev    float64   `json:"stddev"`
	Jitter    float64   `json:"jitter"`
}

// BeatPredictor decides per frame whether the current frame is a beat. It
// starts by accepting raw impulses, then predicts beats from the tempo
// estimate, resynchronizing on impulses close to a prediction and locking
// to the measured beat interval once it is regular.
type BeatPredictor struct {
	cfg       BeatConfig
	frameRate float64
	rng       *rand.Rand
	logger    logging.Logger

	lastImpulse     float64
	measure         float64
	debounceMaybe   float64
	debouncePredict float64
	predicted       bool

	found  int
	missed int

	green     int
	lastGreen int
	lastIs    int
	frames    int

	intervals []float64
	mean      float64
	stddev    float64
	jitter    float64

	decay  float64
	was    float64
	locked bool
}

// NewBeatPredictor creates a predictor in the searching state
func NewBeatPredictor(cfg *Config, logger logging.Logger) *BeatPredictor {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	b := &BeatPredictor{
		cfg:       cfg.Beat,
		frameRate: cfg.FrameRate,
		rng:       rand.New(rand.NewPCG(cfg.Beat.Seed, cfg.Beat.Seed^0x9e3779b97f4a7c15)),
		logger: logger.WithFields(logging.Fields{
			"component": "beat_predictor",
		}),
	}
	b.Reset()
	return b
}

// Reset returns the predictor to its initial searching state
func (b *BeatPredictor) Reset() {
	open := float64(b.cfg.DebounceFrames + 1)
	b.lastImpulse = 0
	b.measure = 0
	b.debounceMaybe = open
	b.debouncePredict = open
	b.predicted = false
	b.found = 0
	b.missed = b.cfg.InitialMissed
	b.green = 0
	b.lastGreen = 0
	b.lastIs = math.MinInt / 2
	b.frames = 0
	b.intervals = b.intervals[:0]
	b.mean = 0
	b.stddev = 0
	b.jitter = 0
	b.decay = 0
	b.was = 0
	b.locked = false
}

func (b *BeatPredictor) reward() {
	b.found = min(b.cfg.MaxFound, b.found+1)
	b.missed = max(0, b.missed-b.cfg.FoundBonus)
}

func (b *BeatPredictor) penalize() {
	b.found = max(0, b.found-1)
	b.missed = min(b.cfg.MaxMissed, b.missed+b.cfg.MissedPenalty)
}

// tolerance is the phase distance within which an impulse counts as the
// predicted beat
func (b *BeatPredictor) tolerance() float64 {
	if b.jitter == 0 {
		return 10
	}
	return common.Clamp(b.jitter+1, 3, 10)
}

// Update advances one frame given the current tempo estimate (nil while
// searching) and the impulse strength of this frame.
func (b *BeatPredictor) Update(est *TempoEstimate, impulse float64) BeatState {
	var state BeatState
	debounce := float64(b.cfg.DebounceFrames)

	if est != nil {
		state.Confidence = est.Confidence
		state.Permanence = est.Permanence
		state.BPM = est.BPM
	}

	// choose the beat period, preferring measured intervals once regular
	beatWindow := 0.0
	if est != nil {
		beatWindow = est.Window
		if b.mean > 0 && b.stddev < b.cfg.LockStddev {
			beatWindow = b.mean
			state.Locked = true
			state.BPM = 60 * b.frameRate / b.mean
		}
	}

	rising := impulse > 0 && b.lastImpulse <= 0
	b.lastImpulse = impulse

	if rising && b.debounceMaybe > debounce {
		b.debounceMaybe = 0
		b.onImpulse(&state, est, impulse, beatWindow)
	}

	if est != nil && est.Confidence > b.cfg.MinConfidence {
		b.predict(&state, impulse, beatWindow)
	}

	// no two beats within the debounce distance
	if state.Is {
		if b.frames-b.lastIs <= b.cfg.DebounceFrames {
			state.Is = false
			state.Adjusted = false
			state.Maybe = true
		} else {
			b.lastIs = b.frames
		}
	}

	b.trackInterval(&state)

	b.jitter = (b.stddev + float64(b.missed)*.5) * float64(1+b.missed)

	beat := 0.0
	if state.Is {
		beat = 1
	}
	b.decay += (beat*2.5 - b.decay) * .4
	b.was += (b.decay*2.5 - b.was) * .4
	state.Was = b.was
	state.Stddev = b.stddev

	if state.Locked != b.locked {
		if state.Locked {
			b.logger.Info("Beat lock acquired", logging.Fields{
				"bpm":    state.BPM,
				"mean":   b.mean,
				"stddev": b.stddev,
			})
		} else {
			b.logger.Info("Beat lock lost", logging.Fields{
				"stddev": b.stddev,
				"missed": b.missed,
			})
		}
		b.locked = state.Locked
	}

	b.debounceMaybe++
	b.debouncePredict++
	b.measure++
	b.frames++

	return state
}

// onImpulse handles a debounced rising edge of the impulse signal
func (b *BeatPredictor) onImpulse(state *BeatState, est *TempoEstimate, impulse, beatWindow float64) {
	debounce := float64(b.cfg.DebounceFrames)

	// prediction is not working yet, take the impulse as the beat
	if est == nil || (!state.Locked && est.Confidence < b.cfg.MinConfidence) {
		b.measure = 0
		state.Is = true
		state.Maybe = true
		return
	}

	half := beatWindow / 2
	offset := common.PositiveMod(b.measure+half, beatWindow) - half

	switch {
	case math.Abs(offset) < b.tolerance():
		b.measure = 0

		// pre-empt a late prediction, or restore an early one that was dropped
		if (offset <= 1 && b.debouncePredict > debounce) || !b.predicted {
			state.Is = true
			if offset >= 0 {
				state.Predicted = true
			}
			state.Adjusted = true
			b.debouncePredict = 0
			b.found = min(b.cfg.MaxFound, b.found+1)
		} else {
			// early prediction was already used; undo the miss it scored
			state.Maybe = true
			b.found = min(b.cfg.MaxFound, b.found+1)
			b.missed = max(0, b.missed-b.cfg.MissedPenalty)
		}
		b.reward()

	case impulse > 1+float64(b.found)*.2+.5/b.stddev-float64(b.missed)/float64(b.cfg.MaxMissed),
		b.found == 0,
		b.missed > b.cfg.SuppressMissed:
		b.measure = 0
		state.Is = true
		b.debouncePredict = 0
		b.reward()

		b.logger.Debug("Beat phase realigned", logging.Fields{
			"offset":  offset,
			"impulse": impulse,
			"found":   b.found,
			"missed":  b.missed,
		})

	default:
		state.Maybe = true
	}
}

// predict emits a beat when a full beat period has elapsed
func (b *BeatPredictor) predict(state *BeatState, impulse, beatWindow float64) {
	debounce := b.debouncePredict > float64(b.cfg.DebounceFrames)

	predict := b.measure >= beatWindow
	if predict {
		b.measure -= beatWindow
	}
	if !predict || !debounce {
		return
	}

	if impulse < 0 {
		b.penalize()
		state.Missed = true
		state.Predicted = true
	} else {
		b.reward()
	}

	switch {
	case b.found < 1:
		// not certain yet
		predict = false
		state.Maybe = true
		state.Predicted = true
		b.debouncePredict = 0

	case b.missed > b.cfg.SuppressMissed:
		// recent predictions kept missing; shift phase randomly to find the beat
		predict = false
		state.Maybe = true
		state.Predicted = true
		shift := float64(b.cfg.DebounceFrames)
		b.measure += b.rng.Float64() * shift
		b.debounceMaybe += b.rng.Float64() * shift
		b.debouncePredict = 0
	}
	b.predicted = predict

	if predict {
		b.debouncePredict = 0
		state.Is = true
		state.Predicted = true
	}
}

// trackInterval records the spacing of consecutive beats while the model is
// not missing, and refreshes the trimmed interval statistics.
func (b *BeatPredictor) trackInterval(state *BeatState) {
	interval := 0

	if b.missed > b.cfg.IntervalMissed {
		b.green = 0
	} else if state.Is || state.Adjusted {
		if b.green > 0 {
			interval = b.frames - b.lastGreen
		}
		b.green++
		b.lastGreen = b.frames
	}
	if interval <= 0 {
		return
	}

	b.intervals = append([]float64{float64(interval)}, b.intervals...)
	if len(b.intervals) > b.cfg.IntervalHistory {
		b.intervals = b.intervals[:b.cfg.IntervalHistory]
	}

	if mean, std, ok := common.TrimmedMeanStdDev(b.intervals, b.cfg.IntervalTrim, b.cfg.MinLockIntervals); ok {
		b.mean = mean
		b.stddev = std
	}
}

// Stats returns a snapshot of the running statistics
func (b *BeatPredictor) Stats() PredictorStats {
	return PredictorStats{
		Measure:   b.measure,
		Found:     b.found,
		Missed:    b.missed,
		Intervals: append([]float64(nil), b.intervals...),
		Mean:      b.mean,
		Stddev:    b.stddev,
		Jitter:    b.jitter,
	}
}
