// Package source provides synthetic and replayed frame sources for driving
// an analysis.Analyser without an audio device.
package source

import (
	"io"
	"math"

	"github.com/RyanBlaney/sonido-pulse/analysis"
)

// Shape describes the waveform layout shared by all sources
type Shape struct {
	Bands     []string
	FrameSize int
	Center    float64 // sample value of silence
}

// DefaultShape matches analysis.DefaultConfig
func DefaultShape() Shape {
	cfg := analysis.DefaultConfig()
	return ShapeFromConfig(cfg)
}

// ShapeFromConfig derives the waveform layout from an analysis config
func ShapeFromConfig(cfg *analysis.Config) Shape {
	return Shape{
		Bands:     append([]string(nil), cfg.Bands...),
		FrameSize: cfg.FrameSize,
		Center:    cfg.SampleCenter,
	}
}

// build creates a frame whose every band alternates center +/- amplitude,
// giving an RMS of amplitude / scale.
func (s Shape) build(amplitude float64) *analysis.SampleFrame {
	f := analysis.NewSampleFrame()
	for _, band := range s.Bands {
		samples := make([]float64, s.FrameSize)
		for i := range samples {
			if i%2 == 0 {
				samples[i] = s.Center + amplitude
			} else {
				samples[i] = s.Center - amplitude
			}
		}
		f.Set(band, samples)
	}
	return f
}

// ClickTrack is a synthetic metronome: a burst of level on every beat and
// silence in between.
type ClickTrack struct {
	Shape
	BPM       float64
	FrameRate float64
	Frames    int     // total frames; <= 0 runs forever
	Amplitude float64 // deviation from center on click frames
	Phase     int     // frame of the first click

	pos int
}

// NewClickTrack creates a click track with 8-bit style half scale clicks
func NewClickTrack(bpm, frameRate float64, frames int) *ClickTrack {
	return &ClickTrack{
		Shape:     DefaultShape(),
		BPM:       bpm,
		FrameRate: frameRate,
		Frames:    frames,
		Amplitude: 64,
	}
}

// Period returns the beat period in frames
func (c *ClickTrack) Period() float64 {
	if c.BPM <= 0 {
		return math.Inf(1)
	}
	return c.FrameRate * 60 / c.BPM
}

// IsClick reports whether frame i carries a click
func (c *ClickTrack) IsClick(i int) bool {
	if i < c.Phase {
		return false
	}
	period := c.Period()
	if math.IsInf(period, 1) {
		return false
	}
	k := float64(i - c.Phase)
	return math.Floor(k/period) != math.Floor((k-1)/period)
}

func (c *ClickTrack) Next() (*analysis.SampleFrame, error) {
	if c.Frames > 0 && c.pos >= c.Frames {
		return nil, io.EOF
	}
	amp := 0.0
	if c.IsClick(c.pos) {
		amp = c.Amplitude
	}
	c.pos++
	return c.build(amp), nil
}

// Silence delivers frames with every sample at center
type Silence struct {
	Shape
	Frames int

	pos int
}

// NewSilence creates a silent source of n frames
func NewSilence(frames int) *Silence {
	return &Silence{Shape: DefaultShape(), Frames: frames}
}

func (s *Silence) Next() (*analysis.SampleFrame, error) {
	if s.Frames > 0 && s.pos >= s.Frames {
		return nil, io.EOF
	}
	s.pos++
	return s.build(0), nil
}

// Sine modulates the level of every band sinusoidally at Rate cycles per
// second, a smooth periodic excitation without sharp onsets.
type Sine struct {
	Shape
	Rate      float64 // modulation cycles per second
	FrameRate float64
	Frames    int
	Amplitude float64 // peak deviation from center

	pos int
}

// NewSine creates a level modulation at rate Hz
func NewSine(rate, frameRate float64, frames int) *Sine {
	return &Sine{
		Shape:     DefaultShape(),
		Rate:      rate,
		FrameRate: frameRate,
		Frames:    frames,
		Amplitude: 64,
	}
}

func (s *Sine) Next() (*analysis.SampleFrame, error) {
	if s.Frames > 0 && s.pos >= s.Frames {
		return nil, io.EOF
	}
	phase := 2 * math.Pi * s.Rate * float64(s.pos) / s.FrameRate
	s.pos++
	return s.build(s.Amplitude * (0.5 + 0.5*math.Sin(phase))), nil
}

// Frames replays a fixed slice of frames
type Frames struct {
	frames []*analysis.SampleFrame
	pos    int
}

// NewFrames creates a source replaying frames in order
func NewFrames(frames ...*analysis.SampleFrame) *Frames {
	return &Frames{frames: frames}
}

func (f *Frames) Next() (*analysis.SampleFrame, error) {
	if f.pos >= len(f.frames) {
		return nil, io.EOF
	}
	fr := f.frames[f.pos]
	f.pos++
	return fr, nil
}

// Rewind restarts playback from the first frame
func (f *Frames) Rewind() {
	f.pos = 0
}
