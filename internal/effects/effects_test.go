package effects

import (
	"math"
	"testing"
)

func impulse(channels, frames int) [][]float32 {
	block := make([][]float32, channels)
	for c := range block {
		block[c] = make([]float32, frames)
		block[c][0] = 1
	}
	return block
}

func sine(channels, frames, sampleRate int, freq, amp float64) [][]float32 {
	block := make([][]float32, channels)
	for c := range block {
		block[c] = make([]float32, frames)
		for i := range block[c] {
			block[c][i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		}
	}
	return block
}

func copyBlock(src [][]float32) [][]float32 {
	out := make([][]float32, len(src))
	for c := range src {
		out[c] = append([]float32(nil), src[c]...)
	}
	return out
}

func TestDelayProducesOutput(t *testing.T) {
	d := NewDelay(44100, 2, 0.1, 0, 0.5)
	if d.Len() != 4410 {
		t.Fatalf("delay length = %d, want 4410", d.Len())
	}
	block := impulse(2, 4411)
	d.Process(block)
	for c := range block {
		if math.Abs(float64(block[c][0])-0.5) > 1e-6 {
			t.Errorf("channel %d dry part = %f, want 0.5", c, block[c][0])
		}
		if math.Abs(float64(block[c][4410])-0.5) > 1e-6 {
			t.Errorf("channel %d delayed output = %f, want 0.5", c, block[c][4410])
		}
	}
}

func TestReverbProducesOutput(t *testing.T) {
	r := NewReverb(44100, 2, 0.5)
	block := impulse(2, 10000)
	r.Process(block)
	var maxOut float32
	for _, s := range block[0][1:] {
		if s > maxOut {
			maxOut = s
		}
	}
	if maxOut < 0.001 {
		t.Error("expected reverb tail")
	}
}

func TestDistortionClips(t *testing.T) {
	d := NewDistortion(40)
	block := [][]float32{{0.5, -0.5, 0.01}}
	d.Process(block)
	for _, s := range block[0] {
		if math.Abs(float64(s)) > 1.0 {
			t.Errorf("distortion output should be bounded, got %f", s)
		}
	}
	if block[0][0] < 0.99 {
		t.Errorf("expected hard drive to saturate, got %f", block[0][0])
	}
}

func TestDistortionZeroDriveIsGentle(t *testing.T) {
	d := NewDistortion(0)
	block := [][]float32{{0.01}}
	d.Process(block)
	if math.Abs(float64(block[0][0])-0.01) > 1e-4 {
		t.Errorf("0 dB drive should leave small signals nearly linear, got %f", block[0][0])
	}
}

func TestCompressorReducesLoud(t *testing.T) {
	c := NewCompressor(44100, 1, -10, 4, 1, 50, 0)
	block := [][]float32{make([]float32, 1000)}
	for i := range block[0] {
		block[0][i] = 1
	}
	c.Process(block)
	if out := block[0][999]; out >= 1.0 {
		t.Errorf("compressor should reduce loud signals, got %f", out)
	}
}

func TestCompressorLeavesQuietAlone(t *testing.T) {
	c := NewCompressor(44100, 1, -10, 4, 1, 50, 0)
	block := [][]float32{make([]float32, 1000)}
	for i := range block[0] {
		block[0][i] = 0.05
	}
	c.Process(block)
	if out := block[0][999]; math.Abs(float64(out)-0.05) > 1e-6 {
		t.Errorf("signal below threshold should pass unchanged, got %f", out)
	}
}

func TestGainScales(t *testing.T) {
	cases := []struct {
		db   float64
		want float32
	}{
		{0, 1},
		{20, 10},
		{-20, 0.1},
		{6, 1.9953},
	}
	for _, tc := range cases {
		g := NewGain(tc.db)
		block := [][]float32{{1, -1}}
		g.Process(block)
		if math.Abs(float64(block[0][0]-tc.want)) > 1e-3 || math.Abs(float64(block[0][1]+tc.want)) > 1e-3 {
			t.Errorf("gain %v dB: got %v, want ±%v", tc.db, block[0], tc.want)
		}
	}
}

func TestChorusDryWhenWetZero(t *testing.T) {
	c := NewChorus(44100, 2, 0.5, 1.0, 0)
	in := sine(2, 2048, 44100, 440, 0.5)
	out := copyBlock(in)
	c.Process(out)
	for ch := range in {
		for i := range in[ch] {
			if in[ch][i] != out[ch][i] {
				t.Fatalf("wet=0 chorus changed sample %d of channel %d", i, ch)
			}
		}
	}
}

func TestChorusProducesDelayedCopy(t *testing.T) {
	c := NewChorus(44100, 1, 0.5, 1.0, 0.5)
	block := impulse(1, 2048)
	c.Process(block)
	var tail float32
	for _, s := range block[0][1:] {
		tail += float32(math.Abs(float64(s)))
	}
	if tail < 0.1 {
		t.Errorf("expected delayed impulse energy, got %f", tail)
	}
}

func TestPhaserStaysBounded(t *testing.T) {
	p, err := NewPhaser(44100, 2, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	block := sine(2, 44100, 44100, 1000, 0.8)
	in := copyBlock(block)
	p.Process(block)
	var diff float64
	for c := range block {
		for i, s := range block[c] {
			if math.Abs(float64(s)) > 1.0 {
				t.Fatalf("phaser output out of range at %d: %f", i, s)
			}
			diff += math.Abs(float64(s - in[c][i]))
		}
	}
	if diff == 0 {
		t.Error("phaser should alter the signal")
	}
}

func TestFilterResponses(t *testing.T) {
	hp := NewHighpass(44100, 1, 500)
	lp := NewLowpass(44100, 1, 5000)
	if g := hp.Response(500, 44100); math.Abs(g-math.Sqrt2/2) > 0.01 {
		t.Errorf("highpass gain at cutoff = %f, want ~0.707", g)
	}
	if g := lp.Response(5000, 44100); math.Abs(g-math.Sqrt2/2) > 0.01 {
		t.Errorf("lowpass gain at cutoff = %f, want ~0.707", g)
	}
	if g := hp.Response(20, 44100); g > 0.01 {
		t.Errorf("highpass should reject 20 Hz, got %f", g)
	}
	if g := lp.Response(100, 44100); math.Abs(g-1) > 0.01 {
		t.Errorf("lowpass should pass 100 Hz, got %f", g)
	}
}

func TestHighpassRemovesDC(t *testing.T) {
	hp := NewHighpass(44100, 1, 200)
	block := [][]float32{make([]float32, 44100)}
	for i := range block[0] {
		block[0][i] = 0.5
	}
	hp.Process(block)
	if out := block[0][44099]; math.Abs(float64(out)) > 1e-3 {
		t.Errorf("DC should decay through highpass, got %f", out)
	}
}

func TestLowpassCutoffClampedBelowNyquist(t *testing.T) {
	lp := NewLowpass(8000, 1, 10000)
	block := sine(1, 8000, 8000, 100, 0.5)
	lp.Process(block)
	for i, s := range block[0] {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			t.Fatalf("unstable filter output at %d", i)
		}
	}
}

func TestPitchShiftZeroIsIdentity(t *testing.T) {
	p := NewPitchShift(44100, 1, 0)
	in := sine(1, 4096, 44100, 440, 0.5)
	out := copyBlock(in)
	p.Process(out)
	for i := range in[0] {
		if in[0][i] != out[0][i] {
			t.Fatalf("0 semitone shift changed sample %d", i)
		}
	}
}

func TestPitchShiftOctaveUpDoublesFrequency(t *testing.T) {
	const sr = 44100
	p := NewPitchShift(sr, 1, 12)
	if math.Abs(p.Ratio()-2) > 1e-9 {
		t.Fatalf("ratio = %f, want 2", p.Ratio())
	}
	block := sine(1, sr, sr, 220, 0.5)
	p.Process(block)
	crossings := 0
	for i := 1; i < len(block[0]); i++ {
		if (block[0][i-1] < 0) != (block[0][i] < 0) {
			crossings++
		}
	}
	// A 440 Hz tone crosses zero ~880 times per second.
	if crossings < 750 || crossings > 1010 {
		t.Errorf("zero crossings = %d, want ~880", crossings)
	}
}

func TestEffectorsAreBlockSizeInvariant(t *testing.T) {
	const sr = 44100
	makers := map[string]func() Effector{
		"reverb":     func() Effector { return NewReverb(sr, 2, 0.7) },
		"distortion": func() Effector { return NewDistortion(12) },
		"delay":      func() Effector { return NewDelay(sr, 2, 0.01, 0.3, 0.5) },
		"compressor": func() Effector { return NewCompressor(sr, 2, -20, 4, 1, 100, 0) },
		"gain":       func() Effector { return NewGain(-3) },
		"chorus":     func() Effector { return NewChorus(sr, 2, 0.4, 1.0, 0.5) },
		"phaser":     func() Effector { return mustPhaser(t, sr, 2, 0.5) },
		"highpass":   func() Effector { return NewHighpass(sr, 2, 300) },
		"lowpass":    func() Effector { return NewLowpass(sr, 2, 4000) },
		"pitch":      func() Effector { return NewPitchShift(sr, 2, -5) },
	}
	signal := sine(2, 8192, sr, 330, 0.6)
	for name, mk := range makers {
		t.Run(name, func(t *testing.T) {
			whole := copyBlock(signal)
			mk().Process(whole)

			split := copyBlock(signal)
			fx := mk()
			for from := 0; from < 8192; from += 1000 {
				to := min(from+1000, 8192)
				part := [][]float32{split[0][from:to], split[1][from:to]}
				fx.Process(part)
			}
			for c := range whole {
				for i := range whole[c] {
					if math.Abs(float64(whole[c][i]-split[c][i])) > 1e-6 {
						t.Fatalf("channel %d sample %d: whole=%f split=%f", c, i, whole[c][i], split[c][i])
					}
				}
			}
		})
	}
}

func TestResetClearsState(t *testing.T) {
	d := NewDelay(44100, 1, 0.001, 0, 1)
	d.Process([][]float32{{1, 1, 1}})
	d.Reset()
	block := [][]float32{make([]float32, 100)}
	d.Process(block)
	for i, s := range block[0] {
		if s != 0 {
			t.Fatalf("sample %d = %f after reset, want 0", i, s)
		}
	}
}

func mustPhaser(t *testing.T, sampleRate, channels int, rateHz float64) *Phaser {
	t.Helper()
	p, err := NewPhaser(sampleRate, channels, rateHz)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPhaserLowSampleRate(t *testing.T) {
	p := mustPhaser(t, 2000, 1, 0.3)
	block := sine(1, 2000, 2000, 200, 0.5)
	p.Process(block)
	for i, s := range block[0] {
		if math.IsNaN(float64(s)) || math.Abs(float64(s)) > 1 {
			t.Fatalf("unstable phaser output at %d: %f", i, s)
		}
	}
}

func TestPhaserRejectsZeroRate(t *testing.T) {
	if _, err := NewPhaser(44100, 2, 0); err == nil {
		t.Fatal("expected error for zero sweep rate")
	}
}

func TestPhaserChannelsStayLocked(t *testing.T) {
	p := mustPhaser(t, 44100, 2, 0.5)
	mono := sine(1, 8192, 44100, 440, 0.5)
	block := [][]float32{copyBlock(mono)[0], copyBlock(mono)[0]}
	p.Process(block)
	for i := range block[0] {
		if block[0][i] != block[1][i] {
			t.Fatalf("channels diverged at %d: %f vs %f", i, block[0][i], block[1][i])
		}
	}
}
