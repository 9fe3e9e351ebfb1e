package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/effects/modulation"
)

const (
	phaserStages    = 6
	phaserMinFreqHz = 300.0
	phaserMaxFreqHz = 1600.0
	phaserMix       = 0.5
)

// Phaser runs one allpass-cascade phaser per channel. The channels start at
// the same LFO phase and rate, so their sweeps stay locked together.
type Phaser struct {
	channels []*modulation.Phaser
}

// NewPhaser creates a phaser effect without feedback.
// rateHz: sweep rate in Hz, must be positive
func NewPhaser(sampleRate, channels int, rateHz float64) (*Phaser, error) {
	sr := float64(sampleRate)
	// The sweep must stay strictly below the library's Nyquist bound.
	maxFreq := math.Min(phaserMaxFreqHz, 0.99*nyquistSafety*sr)
	minFreq := math.Min(phaserMinFreqHz, maxFreq/2)

	p := &Phaser{channels: make([]*modulation.Phaser, channels)}
	for c := range p.channels {
		ph, err := modulation.NewPhaser(sr,
			modulation.WithPhaserRateHz(rateHz),
			modulation.WithPhaserFrequencyRangeHz(minFreq, maxFreq),
			modulation.WithPhaserStages(phaserStages),
			modulation.WithPhaserFeedback(0),
			modulation.WithPhaserMix(phaserMix),
		)
		if err != nil {
			return nil, fmt.Errorf("phaser: %w", err)
		}
		p.channels[c] = ph
	}
	return p, nil
}

func (p *Phaser) Process(block [][]float32) {
	for c := 0; c < len(block) && c < len(p.channels); c++ {
		ph := p.channels[c]
		ch := block[c]
		for i, x := range ch {
			ch[i] = float32(ph.Process(float64(x)))
		}
	}
}

func (p *Phaser) Reset() {
	for _, ph := range p.channels {
		ph.Reset()
	}
}
