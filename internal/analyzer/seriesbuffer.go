package analyzer

import (
	"encoding/binary"
	"math"

	"github.com/smallnest/ringbuffer"
)

// seriesCapacity is the most points LoudnessAnalyzer.Analyze keeps of each
// momentary/short-term loudness series (evenly spaced samples of the full
// series), and the number of samples a SeriesBuffer holds. The clipping
// timeline is not bounded by it.
const seriesCapacity = 100

// sampleWidth is the byte width of one float64 sample written to the ring.
const sampleWidth = 8

// SeriesBuffer is a fixed-capacity ring of float64 samples, backed by
// smallnest/ringbuffer's byte ring rather than an unbounded Go slice: once
// full, the oldest sample is silently evicted as a new one arrives.
type SeriesBuffer struct {
	ring *ringbuffer.RingBuffer
}

// NewSeriesBuffer allocates a SeriesBuffer holding up to seriesCapacity
// samples.
func NewSeriesBuffer() *SeriesBuffer {
	return &SeriesBuffer{ring: ringbuffer.New(seriesCapacity * sampleWidth)}
}

// Add appends v, evicting the oldest sample first if the buffer is full.
func (s *SeriesBuffer) Add(v float64) {
	if s.ring.Free() < sampleWidth {
		discard := make([]byte, sampleWidth)
		_, _ = s.ring.Read(discard)
	}
	var buf [sampleWidth]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	_, _ = s.ring.Write(buf[:])
}

// Values returns the buffered samples in insertion order, oldest first.
// Read is destructive on the underlying ring, so the bytes are written back
// immediately after being decoded, leaving the buffer unchanged for callers.
func (s *SeriesBuffer) Values() []float64 {
	n := s.ring.Length()
	buf := make([]byte, n)
	read, _ := s.ring.Read(buf)
	buf = buf[:read]

	out := make([]float64, 0, len(buf)/sampleWidth)
	for i := 0; i+sampleWidth <= len(buf); i += sampleWidth {
		out = append(out, math.Float64frombits(binary.LittleEndian.Uint64(buf[i:i+sampleWidth])))
	}

	_, _ = s.ring.Write(buf)
	return out
}

// Len returns the number of samples currently buffered.
func (s *SeriesBuffer) Len() int {
	return s.ring.Length() / sampleWidth
}
