package fxcorpus

import (
	"errors"
	"fmt"

	intaudio "github.com/cbegin/fxcorpus-go/internal/audio"
	intfx "github.com/cbegin/fxcorpus-go/internal/effects"
)

// Buffer is planar float32 audio: Data[c] holds channel c.
type Buffer = intaudio.Buffer

// Shape is a buffer's channel count, frame count and sample rate.
type Shape = intaudio.Shape

// NewBuffer allocates a zeroed buffer.
func NewBuffer(channels, frames, sampleRate int) *Buffer {
	return intaudio.NewBuffer(channels, frames, sampleRate)
}

// Fixed settings for stages that take a single sampled parameter.
const (
	compressorRatio     = 4
	compressorAttackMs  = 1
	compressorReleaseMs = 100
	delayFeedback       = 0
)

// Stage is one effect in a Chain. Process may work in place and return its
// argument. Stages keep state between calls until Reset.
type Stage interface {
	Name() string
	Process(buf *Buffer) (*Buffer, error)
	Reset()
}

// effectStage adapts an in-place effects.Effector to Stage.
type effectStage struct {
	name string
	fx   intfx.Effector
}

func (s *effectStage) Name() string { return s.name }

func (s *effectStage) Process(buf *Buffer) (*Buffer, error) {
	s.fx.Process(buf.Data)
	return buf, nil
}

func (s *effectStage) Reset() { s.fx.Reset() }

// Chain applies an ordered list of stages to buffers of one channel count
// and sample rate. A Chain is owned by a single goroutine.
type Chain struct {
	stages     []Stage
	sampleRate int
	channels   int
}

// NewChain composes stages in the given order.
func NewChain(sampleRate, channels int, stages ...Stage) (*Chain, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	for i, s := range stages {
		if s == nil {
			return nil, fmt.Errorf("stage %d is nil", i)
		}
	}
	return &Chain{stages: stages, sampleRate: sampleRate, channels: channels}, nil
}

// BuildChain builds the fixed reverb → distortion → delay → compressor →
// gain → chorus → phaser → highpass → lowpass → pitch shift chain.
func BuildChain(ps ParameterSet, sampleRate, channels int) (*Chain, error) {
	if err := ps.Validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid chain format: %d Hz, %d channels", sampleRate, channels)
	}
	sr, ch := sampleRate, channels
	phaser, err := intfx.NewPhaser(sr, ch, ps.PhaserRate)
	if err != nil {
		return nil, err
	}
	return NewChain(sr, ch,
		&effectStage{"reverb", intfx.NewReverb(sr, ch, float32(ps.ReverbRoomSize))},
		&effectStage{"distortion", intfx.NewDistortion(ps.DriveDB())},
		&effectStage{"delay", intfx.NewDelay(sr, ch, ps.DelaySeconds(), delayFeedback, float32(ps.DelayMix))},
		&effectStage{"compressor", intfx.NewCompressor(sr, ch, float32(ps.CompressorThreshold),
			compressorRatio, compressorAttackMs, compressorReleaseMs, 0)},
		&effectStage{"gain", intfx.NewGain(ps.GainDB)},
		&effectStage{"chorus", intfx.NewChorus(sr, ch, float32(ps.ChorusDepth), float32(ps.ChorusRate), float32(ps.ChorusMix))},
		&effectStage{"phaser", phaser},
		&effectStage{"highpass", intfx.NewHighpass(sr, ch, ps.HighpassCutoff)},
		&effectStage{"lowpass", intfx.NewLowpass(sr, ch, ps.LowpassCutoff)},
		&effectStage{"pitch_shift", intfx.NewPitchShift(sr, ch, ps.PitchShiftSemitones)},
	)
}

// Stages returns the stage names in processing order.
func (c *Chain) Stages() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}

// SampleRate returns the rate the chain was built for.
func (c *Chain) SampleRate() int { return c.sampleRate }

// Channels returns the channel count the chain was built for.
func (c *Chain) Channels() int { return c.channels }

// Apply runs buf through every stage. buf may be modified in place. It
// stops at the first stage that fails or changes the buffer's shape.
func (c *Chain) Apply(buf *Buffer) (*Buffer, error) {
	if buf == nil {
		return nil, errors.New("nil buffer")
	}
	want := Shape{Channels: c.channels, Frames: buf.Frames(), SampleRate: c.sampleRate}
	if got := buf.Shape(); got != want || !buf.Valid() {
		return nil, &ShapeMismatchError{Stage: "input", Want: want, Got: got}
	}
	out := buf
	for _, s := range c.stages {
		next, err := s.Process(out)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", s.Name(), err)
		}
		if next == nil {
			return nil, &ShapeMismatchError{Stage: s.Name(), Want: want}
		}
		// A ragged buffer reports the first channel's length as its frame
		// count, so the per-channel lengths are checked too.
		if got := next.Shape(); got != want || !next.Valid() {
			return nil, &ShapeMismatchError{Stage: s.Name(), Want: want, Got: got}
		}
		out = next
	}
	return out, nil
}

// Reset clears the state of every stage.
func (c *Chain) Reset() {
	for _, s := range c.stages {
		s.Reset()
	}
}
