package fxcorpus

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intfx "github.com/cbegin/fxcorpus-go/internal/effects"
)

func sineBuffer(channels, frames, sampleRate int) *Buffer {
	buf := NewBuffer(channels, frames, sampleRate)
	for c := range buf.Data {
		for i := range buf.Data[c] {
			t := float64(i) / float64(sampleRate)
			buf.Data[c][i] = float32(0.4*math.Sin(2*math.Pi*220*t) + 0.1*math.Sin(2*math.Pi*(1500+float64(c)*100)*t))
		}
	}
	return buf
}

func assertBuffersClose(t *testing.T, want, got *Buffer, tol float64) {
	t.Helper()
	require.Equal(t, want.Shape(), got.Shape())
	for c := range want.Data {
		for i := range want.Data[c] {
			if math.Abs(float64(want.Data[c][i]-got.Data[c][i])) > tol {
				t.Fatalf("channel %d frame %d: want %g, got %g", c, i, want.Data[c][i], got.Data[c][i])
			}
		}
	}
}

func TestBuildChainOrder(t *testing.T) {
	chain, err := BuildChain(DefaultLiveParams(), 44100, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"reverb", "distortion", "delay", "compressor", "gain",
		"chorus", "phaser", "highpass", "lowpass", "pitch_shift",
	}, chain.Stages())
	assert.Equal(t, 44100, chain.SampleRate())
	assert.Equal(t, 2, chain.Channels())
}

func TestBuildChainRejectsBadInput(t *testing.T) {
	_, err := BuildChain(DefaultLiveParams(), 0, 2)
	assert.Error(t, err)
	_, err = BuildChain(DefaultLiveParams(), 44100, 0)
	assert.Error(t, err)

	ps := DefaultLiveParams()
	ps.HighpassCutoff = 5
	_, err = BuildChain(ps, 44100, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestChainPreservesShape(t *testing.T) {
	s := NewSeededSampler(11)
	for _, channels := range []int{1, 2} {
		for i := 0; i < 5; i++ {
			ps := s.Sample()
			in := sineBuffer(channels, 22050, 22050)
			out, err := ProcessBuffer(ps, in)
			require.NoError(t, err)
			assert.Equal(t, Shape{Channels: channels, Frames: 22050, SampleRate: 22050}, out.Shape())
			for c := range out.Data {
				for _, v := range out.Data[c] {
					if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
						t.Fatalf("non-finite sample with params %+v", ps)
					}
				}
			}
		}
	}
}

func TestFreshChainsAreReproducible(t *testing.T) {
	ps := NewSeededSampler(5).Sample()
	a, err := ProcessBuffer(ps, sineBuffer(2, 16384, 44100))
	require.NoError(t, err)
	b, err := ProcessBuffer(ps, sineBuffer(2, 16384, 44100))
	require.NoError(t, err)
	assertBuffersClose(t, a, b, 0)
}

// channelDropper returns a buffer with one channel fewer.
type channelDropper struct{}

func (channelDropper) Name() string { return "dropper" }
func (channelDropper) Reset()       {}
func (channelDropper) Process(buf *Buffer) (*Buffer, error) {
	return &Buffer{Data: buf.Data[:len(buf.Data)-1], SampleRate: buf.SampleRate}, nil
}

// truncator cuts the last channel short and leaves the first intact.
type truncator struct{}

func (truncator) Name() string { return "truncator" }
func (truncator) Reset()       {}
func (truncator) Process(buf *Buffer) (*Buffer, error) {
	out := buf.Clone()
	last := len(out.Data) - 1
	out.Data[last] = out.Data[last][:10]
	return out, nil
}

// resampler claims a different sample rate.
type resampler struct{}

func (resampler) Name() string { return "resampler" }
func (resampler) Reset()       {}
func (resampler) Process(buf *Buffer) (*Buffer, error) {
	out := buf.Clone()
	out.SampleRate *= 2
	return out, nil
}

type countingStage struct{ calls int }

func (s *countingStage) Name() string { return "counter" }
func (s *countingStage) Reset()       {}
func (s *countingStage) Process(buf *Buffer) (*Buffer, error) {
	s.calls++
	return buf, nil
}

func TestChainShapeMismatch(t *testing.T) {
	cases := []struct {
		name  string
		stage Stage
	}{
		{"dropper", channelDropper{}},
		{"resampler", resampler{}},
		{"truncator", truncator{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			after := &countingStage{}
			chain, err := NewChain(44100, 2, &countingStage{}, tc.stage, after)
			require.NoError(t, err)
			_, err = chain.Apply(sineBuffer(2, 512, 44100))
			require.ErrorIs(t, err, ErrShapeMismatch)
			var sm *ShapeMismatchError
			require.True(t, errors.As(err, &sm))
			assert.Equal(t, tc.name, sm.Stage)
			assert.Equal(t, Shape{Channels: 2, Frames: 512, SampleRate: 44100}, sm.Want)
			assert.Zero(t, after.calls, "stages after a mismatch must not run")
		})
	}
}

func TestChainRejectsMismatchedInput(t *testing.T) {
	chain, err := BuildChain(DefaultLiveParams(), 44100, 2)
	require.NoError(t, err)
	_, err = chain.Apply(sineBuffer(1, 256, 44100))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = chain.Apply(sineBuffer(2, 256, 48000))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = chain.Apply(nil)
	assert.Error(t, err)

	ragged := sineBuffer(2, 256, 44100)
	ragged.Data[1] = ragged.Data[1][:100]
	_, err = chain.Apply(ragged)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestRaggedStageStopsBeforeNextEffect(t *testing.T) {
	chorus := &effectStage{"chorus", intfx.NewChorus(44100, 2, 0.4, 1, 0.5)}
	chain, err := NewChain(44100, 2, truncator{}, chorus)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		_, err = chain.Apply(sineBuffer(2, 512, 44100))
	})
	var sm *ShapeMismatchError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, "truncator", sm.Stage)
}

func TestNewChainRejectsNilStage(t *testing.T) {
	_, err := NewChain(44100, 1, &countingStage{}, nil)
	assert.Error(t, err)
}

func TestBlockSplitMatchesWholeBuffer(t *testing.T) {
	const sr = 44100
	ps := DefaultLiveParams()
	lti := func() *Chain {
		c, err := NewChain(sr, 2,
			&effectStage{"reverb", intfx.NewReverb(sr, 2, float32(ps.ReverbRoomSize))},
			&effectStage{"delay", intfx.NewDelay(sr, 2, ps.DelaySeconds(), delayFeedback, float32(ps.DelayMix))},
			&effectStage{"gain", intfx.NewGain(ps.GainDB)},
			&effectStage{"highpass", intfx.NewHighpass(sr, 2, ps.HighpassCutoff)},
			&effectStage{"lowpass", intfx.NewLowpass(sr, 2, ps.LowpassCutoff)},
		)
		require.NoError(t, err)
		return c
	}
	full, err := BuildChain(ps, sr, 2)
	require.NoError(t, err)
	fullSplit, err := BuildChain(ps, sr, 2)
	require.NoError(t, err)

	for name, pair := range map[string][2]*Chain{
		"lti":  {lti(), lti()},
		"full": {full, fullSplit},
	} {
		t.Run(name, func(t *testing.T) {
			whole, err := pair[0].Apply(sineBuffer(2, 20000, sr))
			require.NoError(t, err)

			split := sineBuffer(2, 20000, sr)
			for from := 0; from < split.Frames(); from += 1024 {
				to := min(from+1024, split.Frames())
				_, err := pair[1].Apply(split.Slice(from, to))
				require.NoError(t, err)
			}
			assertBuffersClose(t, whole, split, 1e-5)
		})
	}
}

func TestChainResetRestartsState(t *testing.T) {
	chain, err := BuildChain(DefaultLiveParams(), 44100, 1)
	require.NoError(t, err)
	first, err := chain.Apply(sineBuffer(1, 4096, 44100))
	require.NoError(t, err)
	first = first.Clone()

	chain.Reset()
	second, err := chain.Apply(sineBuffer(1, 4096, 44100))
	require.NoError(t, err)
	assertBuffersClose(t, first, second, 1e-6)
}
