package analysis

import (
	"math"
	"sort"
)

// PeakEntry is one autocorrelation peak tracked across frames
type PeakEntry struct {
	Index      int     `json:"index"`
	Fraction   float64 `json:"fraction"`
	Offset     float64 `json:"offset"` // Index + Fraction
	Strength   float64 `json:"strength"`
	Permanence float64 `json:"permanence"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Window     float64 `json:"window"` // beat period in frames
	BPM        float64 `json:"bpm"`
	Active     bool    `json:"active"` // detected this frame
}

// Peak is a spectrum peak detected in the current frame
type Peak struct {
	Index    int
	Fraction float64
	Strength float64
}

// PeakHistogram accumulates detected peaks into long-lived entries keyed by
// spectrum bin, ordered by permanence.
type PeakHistogram struct {
	cfg     TempoConfig
	convert func(offset float64) float64 // offset -> BPM
	size    int

	entries map[int]*PeakEntry
	sorted  []*PeakEntry
}

// NewPeakHistogram creates an empty histogram for a transform of size bins
func NewPeakHistogram(cfg *Config) *PeakHistogram {
	return &PeakHistogram{
		cfg:     cfg.Tempo,
		convert: cfg.OffsetToBPM,
		size:    cfg.TransformSize,
		entries: make(map[int]*PeakEntry),
	}
}

// Decay ages every entry before this frame's peaks are added
func (h *PeakHistogram) Decay() {
	for _, e := range h.sorted {
		e.Permanence *= h.cfg.PermanenceDecay
		e.Strength *= math.Min(1, math.Log(1+e.Permanence)/math.Log(10))
		e.Active = false
	}
}

// Add records a detected peak. Peaks must be added in ascending bin order.
// A peak at bin i updates the entry at i, or takes over the entry from a
// neighbouring bin when the peak drifted by one bin, or creates a new entry.
func (h *PeakHistogram) Add(p Peak) *PeakEntry {
	e, ok := h.entries[p.Index]
	if !ok {
		if n, found := h.entries[p.Index+1]; found {
			delete(h.entries, p.Index+1)
			n.Index = p.Index
			n.Fraction += 1
			e = n
		} else if n, found := h.entries[p.Index-1]; found {
			delete(h.entries, p.Index-1)
			n.Index = p.Index
			n.Fraction -= 1
			e = n
		} else {
			e = &PeakEntry{Index: p.Index, Fraction: p.Fraction}
			h.sorted = append(h.sorted, e)
		}
		h.entries[p.Index] = e
	}

	e.Fraction += (p.Fraction - e.Fraction) * h.cfg.FractionRate
	e.Strength = p.Strength
	e.Permanence += e.Strength * h.cfg.PermanenceGain
	e.Offset = float64(e.Index) + e.Fraction
	e.BPM = h.convert(e.Offset)
	if e.Offset > 0 {
		e.Window = float64(h.size) / e.Offset
	} else {
		e.Window = 0
	}
	e.Active = true
	return e
}

// Prune sorts entries by descending permanence and drops weak entries from
// the tail. Returns the number of entries removed.
func (h *PeakHistogram) Prune() int {
	sort.SliceStable(h.sorted, func(a, b int) bool {
		return h.sorted[a].Permanence > h.sorted[b].Permanence
	})

	removed := 0
	for len(h.sorted) > 0 {
		last := h.sorted[len(h.sorted)-1]
		if last.Strength >= h.cfg.CullStrength {
			break
		}
		h.sorted = h.sorted[:len(h.sorted)-1]
		if h.entries[last.Index] == last {
			delete(h.entries, last.Index)
		}
		removed++
	}
	return removed
}

// harmonicMatch scores how close ratio is to an integer, 1 at exact
// multiples falling to 0 a quarter step away.
func harmonicMatch(ratio, tolerance float64) float64 {
	return math.Max(0, 1-math.Abs(ratio-math.Round(ratio))*tolerance)
}

// compare sums the evidence that entries well above reference are its harmonics
func (h *PeakHistogram) compare(reference *PeakEntry) float64 {
	result := 0.0
	cutoff := reference.Offset * h.cfg.HarmonicCutoff
	for _, e := range h.sorted {
		if e == reference || e.Offset < cutoff {
			continue
		}
		ratio := e.Offset / reference.Offset
		result += harmonicMatch(ratio, h.cfg.HarmonicTolerance) * e.Strength * e.Permanence * ratio
	}
	return result
}

// Score rates every entry at or above fMin as a fundamental and returns
// the best one, with its Score and Confidence set, or nil when no entry
// scores above zero.
func (h *PeakHistogram) Score(fMin int) *PeakEntry {
	var best *PeakEntry
	score, second := 0.0, 0.0

	for _, ref := range h.sorted {
		if ref.Offset < float64(fMin) {
			continue
		}
		accum := h.compare(ref) + ref.Strength*ref.Permanence
		ref.Score = accum

		if accum > score {
			best = ref
			second = score
			score = accum
		} else if accum > second {
			second = accum
		}
	}

	if best == nil {
		return nil
	}
	best.Score = 1 - second/score
	best.Confidence = math.Min(1, best.Score+best.Permanence)
	return best
}

// Len returns the number of live entries
func (h *PeakHistogram) Len() int {
	return len(h.sorted)
}

// Entries returns copies of the live entries in permanence order
func (h *PeakHistogram) Entries() []PeakEntry {
	out := make([]PeakEntry, len(h.sorted))
	for i, e := range h.sorted {
		out[i] = *e
	}
	return out
}

// Contains reports whether e is still a live entry
func (h *PeakHistogram) Contains(e *PeakEntry) bool {
	return e != nil && h.entries[e.Index] == e
}

// Reset drops all entries
func (h *PeakHistogram) Reset() {
	clear(h.entries)
	h.sorted = h.sorted[:0]
}

// MatchHistogram rates each entry against reference the way the harmonic
// scoring does: 1 for the reference itself, the integer ratio match for
// entries above the harmonic cutoff and 0 otherwise. Entries are matched to
// the reference by bin index.
func MatchHistogram(reference PeakEntry, entries []PeakEntry, cfg TempoConfig) []float64 {
	matches := make([]float64, len(entries))
	if reference.Offset <= 0 {
		return matches
	}
	cutoff := reference.Offset * cfg.HarmonicCutoff
	for i, e := range entries {
		switch {
		case e.Index == reference.Index:
			matches[i] = 1
		case e.Offset > cutoff:
			matches[i] = harmonicMatch(e.Offset/reference.Offset, cfg.HarmonicTolerance)
		}
	}
	return matches
}
