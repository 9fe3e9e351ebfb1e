package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/smallnest/ringbuffer"
)

// ebiten plays stereo float32 little-endian frames.
const (
	monitorChannels = 2
	bytesPerFrame   = monitorChannels * 4
	monitorBlocks   = 8
)

// ErrMonitorStalled is returned when the playback side stops draining blocks.
var ErrMonitorStalled = errors.New("audio: monitor stalled")

// RingReader feeds an ebiten player from a byte ring. Reads never block;
// missing frames are padded with silence so the player keeps its clock.
type RingReader struct {
	ring      *ringbuffer.RingBuffer
	primed    atomic.Bool
	underruns atomic.Int64
}

func NewRingReader(ring *ringbuffer.RingBuffer) *RingReader {
	return &RingReader{ring: ring}
}

func (r *RingReader) Read(p []byte) (int, error) {
	n := len(p) - len(p)%bytesPerFrame
	if n == 0 {
		return 0, nil
	}
	got, err := r.ring.Read(p[:n])
	if err != nil && !errors.Is(err, ringbuffer.ErrIsEmpty) {
		return 0, err
	}
	if got < n {
		clear(p[got:n])
		if r.primed.Load() {
			r.underruns.Add(1)
		}
	}
	return n, nil
}

func (r *RingReader) Close() error { return nil }

// Underruns returns how many reads came up short since the first block.
func (r *RingReader) Underruns() int64 { return r.underruns.Load() }

// contextHolder creates the process-wide ebiten audio context once. ebiten
// allows a single context per process and panics on a second NewContext.
type contextHolder struct {
	once       sync.Once
	ctx        *ebitaudio.Context
	err        error
	sampleRate int
}

var sharedContext contextHolder

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	return sharedContext.get(sampleRate, ebitaudio.NewContext)
}

func (h *contextHolder) get(sampleRate int, newContext func(int) *ebitaudio.Context) (*ebitaudio.Context, error) {
	h.once.Do(func() {
		h.sampleRate = sampleRate
		defer func() {
			if r := recover(); r != nil {
				h.err = fmt.Errorf("create audio context at %d Hz: %v", sampleRate, r)
			}
		}()
		h.ctx = newContext(sampleRate)
	})
	if h.err != nil {
		return nil, h.err
	}
	if h.sampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", h.sampleRate, sampleRate)
	}
	return h.ctx, nil
}

// Monitor is a Sink that plays blocks through the shared ebiten audio
// context. Mono blocks are duplicated to both speakers; channels past the
// second are dropped.
type Monitor struct {
	ring      *ringbuffer.RingBuffer
	reader    *RingReader
	player    *ebitaudio.Player
	scratch   []byte
	period    time.Duration
	underruns int64
}

// NewMonitor opens a monitor sink that accepts blocks of blockSize frames.
func NewMonitor(sampleRate, blockSize int) (*Monitor, error) {
	if sampleRate <= 0 || blockSize <= 0 {
		return nil, fmt.Errorf("monitor: invalid format %d Hz, block %d", sampleRate, blockSize)
	}
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	ring := ringbuffer.New(monitorBlocks * blockSize * bytesPerFrame)
	reader := NewRingReader(ring)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	period := time.Duration(float64(blockSize) / float64(sampleRate) * float64(time.Second))
	pl.SetBufferSize(2 * period)
	pl.Play()
	return &Monitor{
		ring:    ring,
		reader:  reader,
		player:  pl,
		scratch: make([]byte, blockSize*bytesPerFrame),
		period:  period,
	}, nil
}

// WriteBlock queues src for playback, waiting while the ring is full. It
// gives up with ErrMonitorStalled when the player has not drained anything
// for the whole queue length.
func (m *Monitor) WriteBlock(src *Buffer) error {
	need := src.Frames() * bytesPerFrame
	if cap(m.scratch) < need {
		m.scratch = make([]byte, need)
	}
	data := m.scratch[:need]
	encodeStereoF32(data, src)

	deadline := time.Now().Add(monitorBlocks * m.period)
	for m.ring.Free() < need {
		if time.Now().After(deadline) {
			return ErrMonitorStalled
		}
		time.Sleep(m.period / 4)
	}
	if _, err := m.ring.Write(data); err != nil {
		return fmt.Errorf("monitor write: %w", err)
	}
	m.reader.primed.Store(true)

	if u := m.reader.Underruns(); u != m.underruns {
		m.underruns = u
		return ErrOutputUnderflow
	}
	return nil
}

func (m *Monitor) IsPlaying() bool {
	return m.player.IsPlaying()
}

func (m *Monitor) Close() error {
	m.player.Pause()
	m.player.Close()
	m.ring.Reset()
	return m.reader.Close()
}

func encodeStereoF32(dst []byte, src *Buffer) {
	if src.Channels() == 0 {
		clear(dst)
		return
	}
	left := src.Data[0]
	right := left
	if src.Channels() > 1 {
		right = src.Data[1]
	}
	for i := range left {
		binary.LittleEndian.PutUint32(dst[i*bytesPerFrame:], math.Float32bits(left[i]))
		binary.LittleEndian.PutUint32(dst[i*bytesPerFrame+4:], math.Float32bits(right[i]))
	}
}
