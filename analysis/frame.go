package analysis

import (
	"fmt"
)

// SampleFrame holds the named waveforms captured for one analysis tick.
// The analyser only reads from it and does not retain it.
type SampleFrame struct {
	Waveforms map[string][]float64
}

// NewSampleFrame creates an empty frame
func NewSampleFrame() *SampleFrame {
	return &SampleFrame{Waveforms: make(map[string][]float64)}
}

// Set stores the waveform for band, replacing any previous one
func (f *SampleFrame) Set(band string, samples []float64) *SampleFrame {
	if f.Waveforms == nil {
		f.Waveforms = make(map[string][]float64)
	}
	f.Waveforms[band] = samples
	return f
}

// Waveform returns the samples for band
func (f *SampleFrame) Waveform(band string) ([]float64, bool) {
	if f == nil || f.Waveforms == nil {
		return nil, false
	}
	w, ok := f.Waveforms[band]
	return w, ok
}

// FrameFromBytes converts 8-bit unsigned waveforms (as delivered by a
// browser-style time domain analyser) to a SampleFrame.
func FrameFromBytes(waveforms map[string][]byte) *SampleFrame {
	frame := NewSampleFrame()
	for band, raw := range waveforms {
		samples := make([]float64, len(raw))
		for i, b := range raw {
			samples[i] = float64(b)
		}
		frame.Waveforms[band] = samples
	}
	return frame
}

// validateFrame checks that every configured band is present with FrameSize samples
func validateFrame(cfg *Config, frame *SampleFrame) error {
	if frame == nil {
		return configError("frame", "frame is nil")
	}
	for _, band := range cfg.Bands {
		w, ok := frame.Waveform(band)
		if !ok {
			return configError("frame", "missing waveform for band %q", band)
		}
		if len(w) != cfg.FrameSize {
			return &ConfigurationError{
				Field:  "frame",
				Reason: fmt.Sprintf("band %q has %d samples, want %d", band, len(w), cfg.FrameSize),
			}
		}
	}
	return nil
}

// FrameSource delivers frames one tick at a time. Next returns io.EOF once
// the source is exhausted.
type FrameSource interface {
	Next() (*SampleFrame, error)
}
