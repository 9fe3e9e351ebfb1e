package audio

import "fmt"

// Buffer is a block of planar float32 audio. Data[c] holds the samples of
// channel c and every channel has the same length. SampleRate is metadata
// carried alongside the samples.
type Buffer struct {
	Data       [][]float32
	SampleRate int
}

// NewBuffer allocates a zeroed buffer of the given shape.
func NewBuffer(channels, frames, sampleRate int) *Buffer {
	data := make([][]float32, channels)
	backing := make([]float32, channels*frames)
	for c := range data {
		data[c] = backing[c*frames : (c+1)*frames : (c+1)*frames]
	}
	return &Buffer{Data: data, SampleRate: sampleRate}
}

// Channels returns the channel count.
func (b *Buffer) Channels() int { return len(b.Data) }

// Frames returns the number of samples per channel.
func (b *Buffer) Frames() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Valid reports whether every channel has the same length.
func (b *Buffer) Valid() bool {
	n := b.Frames()
	for _, ch := range b.Data {
		if len(ch) != n {
			return false
		}
	}
	return true
}

// Shape describes a buffer's channel count, frame count and sample rate.
type Shape struct {
	Channels   int
	Frames     int
	SampleRate int
}

func (s Shape) String() string {
	return fmt.Sprintf("%dch x %d frames @ %d Hz", s.Channels, s.Frames, s.SampleRate)
}

// Shape returns the buffer's shape.
func (b *Buffer) Shape() Shape {
	return Shape{Channels: b.Channels(), Frames: b.Frames(), SampleRate: b.SampleRate}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	out := NewBuffer(b.Channels(), b.Frames(), b.SampleRate)
	for c := range b.Data {
		copy(out.Data[c], b.Data[c])
	}
	return out
}

// Slice returns a view over frames [from, to). The view shares storage with b.
func (b *Buffer) Slice(from, to int) *Buffer {
	data := make([][]float32, len(b.Data))
	for c := range b.Data {
		data[c] = b.Data[c][from:to:to]
	}
	return &Buffer{Data: data, SampleRate: b.SampleRate}
}

// Clear zeroes every sample.
func (b *Buffer) Clear() {
	for _, ch := range b.Data {
		clear(ch)
	}
}

// Interleave writes the buffer into dst as frame-interleaved samples.
// dst must hold at least Channels()*Frames() samples.
func (b *Buffer) Interleave(dst []float32) {
	nch := len(b.Data)
	for c, ch := range b.Data {
		for i, s := range ch {
			dst[i*nch+c] = s
		}
	}
}

// Deinterleave fills the buffer from frame-interleaved samples in src.
func (b *Buffer) Deinterleave(src []float32) {
	nch := len(b.Data)
	for c, ch := range b.Data {
		for i := range ch {
			ch[i] = src[i*nch+c]
		}
	}
}
