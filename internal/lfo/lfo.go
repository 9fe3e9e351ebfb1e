package lfo

import "math"

// Shape selects the oscillator waveform.
type Shape int

const (
	Sine Shape = iota
	Triangle
)

// LFO is a low-frequency oscillator advanced once per frame. Effects that
// modulate a delay time or a filter frequency share one LFO across all
// channels so the channels stay phase-locked.
type LFO struct {
	shape  Shape
	rateHz float64
	step   float64 // phase increment per frame, in cycles
	phase  float64 // current phase [0, 1)
}

// New returns an LFO at rateHz for the given sample rate. A non-positive
// rate produces a constant zero output.
func New(shape Shape, rateHz float64, sampleRate int) *LFO {
	l := &LFO{shape: shape, rateHz: rateHz}
	if rateHz > 0 && sampleRate > 0 {
		l.step = rateHz / float64(sampleRate)
	}
	return l
}

// Next returns the waveform value in [-1, 1] at the current phase and
// advances the phase by one frame.
func (l *LFO) Next() float64 {
	if l.step == 0 {
		return 0
	}
	var v float64
	switch l.shape {
	case Triangle:
		if l.phase < 0.5 {
			v = 4.0*l.phase - 1.0
		} else {
			v = 3.0 - 4.0*l.phase
		}
	default:
		v = math.Sin(2 * math.Pi * l.phase)
	}
	l.phase += l.step
	for l.phase >= 1.0 {
		l.phase -= 1.0
	}
	return v
}

// Phase returns the current phase in cycles.
func (l *LFO) Phase() float64 { return l.phase }

// RateHz returns the oscillation rate.
func (l *LFO) RateHz() float64 { return l.rateHz }

// Reset zeros the phase.
func (l *LFO) Reset() {
	l.phase = 0
}
