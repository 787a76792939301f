package common

import (
	"fmt"
)

// HistoryBuffer is a fixed-length, newest-first history of scalar samples.
//
// Index 0 is the most recent sample. Slots never written read as zero, so
// the buffer always presents exactly Size values.
type HistoryBuffer struct {
	buffer   []float64
	size     int
	writePos int // slot holding the newest sample
	count    int
}

// NewHistoryBuffer creates a zero-filled history of the given size
func NewHistoryBuffer(size int) *HistoryBuffer {
	if size < 1 {
		size = 1
	}
	return &HistoryBuffer{
		buffer:   make([]float64, size),
		size:     size,
		writePos: size - 1,
	}
}

// Push records sample as the newest entry, discarding the oldest when full
func (hb *HistoryBuffer) Push(sample float64) {
	hb.writePos = (hb.writePos + 1) % hb.size
	hb.buffer[hb.writePos] = sample
	if hb.count < hb.size {
		hb.count++
	}
}

// At returns the sample pushed i frames ago (0 = newest)
func (hb *HistoryBuffer) At(i int) float64 {
	if i < 0 || i >= hb.count {
		return 0
	}
	return hb.buffer[(hb.writePos-i+hb.size)%hb.size]
}

// CopyTo writes the history newest-first into dst, zero padding the tail
func (hb *HistoryBuffer) CopyTo(dst []float64) error {
	if len(dst) != hb.size {
		return fmt.Errorf("destination size (%d) doesn't match history size (%d)", len(dst), hb.size)
	}

	for i := range dst {
		dst[i] = hb.At(i)
	}
	return nil
}

// Size returns the fixed length of the history
func (hb *HistoryBuffer) Size() int {
	return hb.size
}

// Len returns how many samples have been pushed, capped at Size
func (hb *HistoryBuffer) Len() int {
	return hb.count
}

// Clear forgets all samples
func (hb *HistoryBuffer) Clear() {
	for i := range hb.buffer {
		hb.buffer[i] = 0
	}
	hb.writePos = hb.size - 1
	hb.count = 0
}

// VectorHistory keeps the last few equal-width vectors, newest first
type VectorHistory struct {
	vectors  [][]float64
	width    int
	capacity int
}

// NewVectorHistory creates a history holding at most capacity vectors of width values
func NewVectorHistory(capacity, width int) *VectorHistory {
	return &VectorHistory{
		vectors:  make([][]float64, 0, capacity),
		width:    width,
		capacity: capacity,
	}
}

// Push copies values in as the newest vector, dropping the oldest beyond capacity
func (vh *VectorHistory) Push(values []float64) error {
	if len(values) != vh.width {
		return fmt.Errorf("vector width (%d) doesn't match history width (%d)", len(values), vh.width)
	}

	var slot []float64
	if len(vh.vectors) == vh.capacity {
		// reuse the evicted vector's storage
		slot = vh.vectors[len(vh.vectors)-1]
		vh.vectors = vh.vectors[:len(vh.vectors)-1]
	} else {
		slot = make([]float64, vh.width)
	}
	copy(slot, values)

	vh.vectors = append(vh.vectors, nil)
	copy(vh.vectors[1:], vh.vectors)
	vh.vectors[0] = slot
	return nil
}

// Value returns component j of the vector pushed i frames ago, or 0 if absent
func (vh *VectorHistory) Value(i, j int) float64 {
	if i < 0 || i >= len(vh.vectors) || j < 0 || j >= vh.width {
		return 0
	}
	return vh.vectors[i][j]
}

// Newest returns the most recent vector, or nil when empty.
// The slice is owned by the history.
func (vh *VectorHistory) Newest() []float64 {
	if len(vh.vectors) == 0 {
		return nil
	}
	return vh.vectors[0]
}

// Len returns the number of stored vectors
func (vh *VectorHistory) Len() int {
	return len(vh.vectors)
}

// Width returns the number of values per vector
func (vh *VectorHistory) Width() int {
	return vh.width
}
