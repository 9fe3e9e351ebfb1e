package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"testing"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/smallnest/ringbuffer"
)

func TestNewBufferShape(t *testing.T) {
	b := NewBuffer(2, 64, 44100)
	want := Shape{Channels: 2, Frames: 64, SampleRate: 44100}
	if got := b.Shape(); got != want {
		t.Fatalf("Shape() = %v, want %v", got, want)
	}
	// Channels must not alias each other.
	b.Data[0] = append(b.Data[0], 1)
	if b.Data[1][0] != 0 {
		t.Fatal("appending to channel 0 overwrote channel 1")
	}
	if (&Buffer{}).Frames() != 0 {
		t.Fatal("empty buffer should report zero frames")
	}
}

func TestBufferValid(t *testing.T) {
	b := NewBuffer(2, 16, 44100)
	if !b.Valid() {
		t.Fatal("fresh buffer should be valid")
	}
	if !(&Buffer{}).Valid() {
		t.Fatal("empty buffer should be valid")
	}
	b.Data[1] = b.Data[1][:8]
	if b.Valid() {
		t.Fatal("ragged buffer reported valid")
	}
}

func TestInterleaveRoundTrip(t *testing.T) {
	b := NewBuffer(3, 4, 8000)
	for c := range b.Data {
		for i := range b.Data[c] {
			b.Data[c][i] = float32(c*10 + i)
		}
	}
	inter := make([]float32, 12)
	b.Interleave(inter)
	want := []float32{0, 10, 20, 1, 11, 21, 2, 12, 22, 3, 13, 23}
	for i := range want {
		if inter[i] != want[i] {
			t.Fatalf("interleaved[%d] = %v, want %v", i, inter[i], want[i])
		}
	}
	back := NewBuffer(3, 4, 8000)
	back.Deinterleave(inter)
	for c := range b.Data {
		for i := range b.Data[c] {
			if back.Data[c][i] != b.Data[c][i] {
				t.Fatalf("deinterleave mismatch at %d/%d", c, i)
			}
		}
	}
}

func TestSliceSharesStorage(t *testing.T) {
	b := NewBuffer(2, 10, 8000)
	v := b.Slice(2, 5)
	if v.Frames() != 3 || v.Channels() != 2 || v.SampleRate != 8000 {
		t.Fatalf("slice shape = %v", v.Shape())
	}
	v.Data[1][0] = 0.5
	if b.Data[1][2] != 0.5 {
		t.Fatal("slice should write through to parent")
	}
}

func TestCloneIsDeep(t *testing.T) {
	b := NewBuffer(1, 4, 8000)
	b.Data[0][0] = 1
	c := b.Clone()
	c.Data[0][0] = 2
	if b.Data[0][0] != 1 {
		t.Fatal("clone shares storage with original")
	}
	c.Clear()
	if c.Data[0][0] != 0 {
		t.Fatal("Clear left samples behind")
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{ErrInputOverflow, true},
		{fmt.Errorf("read: %w", ErrOutputUnderflow), true},
		{errors.New("device unplugged"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestRingReaderPadsSilence(t *testing.T) {
	ring := ringbuffer.New(64)
	r := NewRingReader(ring)

	p := make([]byte, 16)
	for i := range p {
		p[i] = 0xff
	}
	n, err := r.Read(p)
	if err != nil || n != 16 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	for i, v := range p {
		if v != 0 {
			t.Fatalf("byte %d = %x, want silence", i, v)
		}
	}
	if r.Underruns() != 0 {
		t.Fatal("underruns should not count before the first block")
	}

	r.primed.Store(true)
	if _, err := ring.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatal(err)
	}
	n, err = r.Read(p)
	if err != nil || n != 16 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	if p[0] != 1 || p[7] != 8 || p[8] != 0 {
		t.Fatalf("unexpected read contents %v", p)
	}
	if r.Underruns() != 1 {
		t.Fatalf("underruns = %d, want 1", r.Underruns())
	}
}

func TestRingReaderPartialFrame(t *testing.T) {
	r := NewRingReader(ringbuffer.New(64))
	n, err := r.Read(make([]byte, bytesPerFrame-1))
	if n != 0 || err != nil {
		t.Fatalf("Read of sub-frame buffer = %d, %v", n, err)
	}
}

func TestEncodeStereoDuplicatesMono(t *testing.T) {
	src := NewBuffer(1, 2, 8000)
	src.Data[0][0] = 0.5
	src.Data[0][1] = -0.25
	dst := make([]byte, 2*bytesPerFrame)
	encodeStereoF32(dst, src)
	read := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(dst[off:]))
	}
	if read(0) != 0.5 || read(4) != 0.5 {
		t.Errorf("frame 0 = %v/%v", read(0), read(4))
	}
	if read(8) != -0.25 || read(12) != -0.25 {
		t.Errorf("frame 1 = %v/%v", read(8), read(12))
	}
}

func TestContextHolderRecordsPanic(t *testing.T) {
	var h contextHolder
	calls := 0
	failing := func(int) *ebitaudio.Context {
		calls++
		panic("audio: context is already created")
	}
	if _, err := h.get(44100, failing); err == nil {
		t.Fatal("expected error from panicking constructor")
	}
	if _, err := h.get(44100, failing); err == nil {
		t.Fatal("error should persist on later calls")
	}
	if calls != 1 {
		t.Fatalf("constructor called %d times, want 1", calls)
	}
}

func TestContextHolderRejectsOtherRate(t *testing.T) {
	var h contextHolder
	ok := func(int) *ebitaudio.Context { return nil }
	if _, err := h.get(48000, ok); err != nil {
		t.Fatal(err)
	}
	if _, err := h.get(44100, ok); err == nil {
		t.Fatal("expected error for a second sample rate")
	}
}
