package effects

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// butterworthQ gives a maximally flat second-order response.
const butterworthQ = 1 / math.Sqrt2

// Biquad is a second-order IIR filter with one section per channel, all
// sharing the same coefficients.
type Biquad struct {
	coeffs   biquad.Coefficients
	sections []*biquad.Section
}

// NewHighpass creates a 12 dB/octave highpass at cutoffHz.
func NewHighpass(sampleRate, channels int, cutoffHz float64) *Biquad {
	sr := float64(sampleRate)
	return newBiquad(channels, design.Highpass(clampCutoff(cutoffHz, sr), butterworthQ, sr))
}

// NewLowpass creates a 12 dB/octave lowpass at cutoffHz.
func NewLowpass(sampleRate, channels int, cutoffHz float64) *Biquad {
	sr := float64(sampleRate)
	return newBiquad(channels, design.Lowpass(clampCutoff(cutoffHz, sr), butterworthQ, sr))
}

func clampCutoff(freq, sampleRate float64) float64 {
	return clamp64(freq, 1, nyquistSafety*sampleRate)
}

func newBiquad(channels int, c biquad.Coefficients) *Biquad {
	f := &Biquad{coeffs: c, sections: make([]*biquad.Section, channels)}
	for i := range f.sections {
		f.sections[i] = biquad.NewSection(c)
	}
	return f
}

func (f *Biquad) Process(block [][]float32) {
	for c := 0; c < len(block) && c < len(f.sections); c++ {
		s := f.sections[c]
		ch := block[c]
		for i, x := range ch {
			ch[i] = float32(s.ProcessSample(float64(x)))
		}
	}
}

func (f *Biquad) Reset() {
	for _, s := range f.sections {
		s.Reset()
	}
}

// Response returns the filter's magnitude at freqHz.
func (f *Biquad) Response(freqHz float64, sampleRate int) float64 {
	return math.Sqrt(f.coeffs.MagnitudeSquared(freqHz, float64(sampleRate)))
}
