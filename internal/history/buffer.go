// Package history keeps the bounded rolling window of raw channel values
// that the anomaly detector trains on.
package history

import (
	"github.com/ironreach/reactor-twin/internal/domain"
)

// Buffer is a fixed-capacity FIFO window over tick-aligned channel rows.
// All channels advance together, so every channel always holds the same
// number of samples. Appends are O(1); the oldest row is evicted once the
// window is full. Not safe for concurrent use on its own; the engine
// serializes access.
type Buffer struct {
	ids      []string
	capacity int
	cols     [][]float64
	pos      int
	total    int64
}

// New creates a buffer for the given channels with the given row capacity.
func New(ids []string, capacity int) *Buffer {
	cols := make([][]float64, len(ids))
	for i := range cols {
		cols[i] = make([]float64, capacity)
	}
	b := &Buffer{ids: make([]string, len(ids)), capacity: capacity, cols: cols}
	copy(b.ids, ids)
	return b
}

// Append stores one tick's values, given in channel order.
func (b *Buffer) Append(row []float64) error {
	if len(row) != len(b.cols) {
		return domain.ErrChannelCountMismatch
	}
	for i, v := range row {
		b.cols[i][b.pos] = v
	}
	b.pos = (b.pos + 1) % b.capacity
	b.total++
	return nil
}

// Rows returns the number of samples currently held per channel.
func (b *Buffer) Rows() int {
	if b.total < int64(b.capacity) {
		return int(b.total)
	}
	return b.capacity
}

// Total returns the number of rows ever appended, including evicted ones.
func (b *Buffer) Total() int64 {
	return b.total
}

// Channel returns the retained values for the channel at index i,
// oldest first.
func (b *Buffer) Channel(i int) []float64 {
	n := b.Rows()
	out := make([]float64, n)
	start := b.start()
	for j := 0; j < n; j++ {
		out[j] = b.cols[i][(start+j)%b.capacity]
	}
	return out
}

// Snapshot returns the window as a matrix with one row per tick (oldest
// first) and one column per channel. It returns ErrInsufficientHistory
// until at least minRows samples exist; this is the detector's warm-up gate.
func (b *Buffer) Snapshot(minRows int) ([][]float64, error) {
	n := b.Rows()
	if n < minRows {
		return nil, domain.ErrInsufficientHistory
	}
	start := b.start()
	out := make([][]float64, n)
	for j := 0; j < n; j++ {
		row := make([]float64, len(b.cols))
		idx := (start + j) % b.capacity
		for i := range b.cols {
			row[i] = b.cols[i][idx]
		}
		out[j] = row
	}
	return out, nil
}

func (b *Buffer) start() int {
	if b.total < int64(b.capacity) {
		return 0
	}
	return b.pos // oldest retained row once the ring has wrapped
}
