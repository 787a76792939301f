package analysis

import (
	"math"
	"testing"
)

func TestPeakHistogram_CreateShiftCull(t *testing.T) {
	h := NewPeakHistogram(DefaultConfig())

	h.Decay()
	e := h.Add(Peak{Index: 17, Fraction: 0.2, Strength: 1})
	h.Prune()
	if h.Len() != 1 || e.Index != 17 || math.Abs(e.Fraction-0.2) > 1e-12 {
		t.Fatalf("created entry = %+v", e)
	}
	if math.Abs(e.Permanence-0.01) > 1e-12 || !e.Active {
		t.Errorf("permanence = %g active = %v", e.Permanence, e.Active)
	}

	// a peak one bin up takes over the entry
	h.Decay()
	moved := h.Add(Peak{Index: 18, Fraction: -0.5, Strength: 1})
	h.Prune()
	if moved != e || h.Len() != 1 {
		t.Fatalf("entry not shifted: len %d", h.Len())
	}
	// -0.8 blended 10% toward -0.5
	if e.Index != 18 || math.Abs(e.Fraction-(-0.77)) > 1e-12 {
		t.Errorf("shifted entry = %+v", e)
	}
	if math.Abs(e.Offset-17.23) > 1e-12 {
		t.Errorf("offset = %g, want 17.23", e.Offset)
	}

	// not detected: strength collapses while permanence is low
	h.Decay()
	if e.Active {
		t.Error("entry still active after decay")
	}
	if removed := h.Prune(); removed != 1 || h.Len() != 0 {
		t.Errorf("Prune removed %d, len %d", removed, h.Len())
	}
	if h.Contains(e) {
		t.Error("culled entry still contained")
	}
}

func TestPeakHistogram_ScorePrefersFundamental(t *testing.T) {
	h := NewPeakHistogram(DefaultConfig())

	for range 100 {
		h.Decay()
		h.Add(Peak{Index: 17, Fraction: 0.07, Strength: 1})
		h.Add(Peak{Index: 34, Fraction: 0.13, Strength: 0.8})
		h.Add(Peak{Index: 51, Fraction: 0.2, Strength: 0.5})
		h.Prune()
	}

	best := h.Score(7)
	if best == nil || best.Index != 17 {
		t.Fatalf("best = %+v, want index 17", best)
	}
	if best.Score <= 0.5 || best.Score > 1 {
		t.Errorf("score = %g, want in (0.5, 1]", best.Score)
	}
	if best.Confidence != 1 {
		t.Errorf("confidence = %g, want 1", best.Confidence)
	}

	entries := h.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i].Permanence > entries[i-1].Permanence {
			t.Fatalf("entries not permanence ordered: %+v", entries)
		}
	}

	// the top harmonic stops being detected and is culled within a few frames
	culled := false
	for range 10 {
		h.Decay()
		h.Add(Peak{Index: 17, Fraction: 0.07, Strength: 1})
		h.Add(Peak{Index: 34, Fraction: 0.13, Strength: 0.8})
		h.Prune()
		if h.Len() == 2 {
			culled = true
			break
		}
	}
	if !culled {
		t.Errorf("entry not culled, %d entries remain", h.Len())
	}
}

func TestPeakHistogram_ScoreIgnoresBelowMinimum(t *testing.T) {
	h := NewPeakHistogram(DefaultConfig())
	h.Decay()
	h.Add(Peak{Index: 5, Fraction: 0, Strength: 1})
	h.Prune()

	if best := h.Score(7); best != nil {
		t.Errorf("entry below fMin chosen: %+v", best)
	}
}

func TestMatchHistogram(t *testing.T) {
	cfg := DefaultConfig().Tempo
	ref := PeakEntry{Index: 17, Offset: 17}
	entries := []PeakEntry{
		{Index: 17, Offset: 17},
		{Index: 34, Offset: 34},
		{Index: 25, Offset: 25.5},
		{Index: 42, Offset: 42.5},
		{Index: 35, Offset: 35.7},
	}
	want := []float64{1, 1, 0, 0, 0.6}

	got := MatchHistogram(ref, entries, cfg)
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("match[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}
