package effects

import "math"

const pitchWindowMs = 50.0

// PitchShift shifts pitch with two read taps sweeping through a short delay
// line at a rate set by the pitch ratio. The taps sit half a window apart
// and are crossfaded with complementary sin² windows, so each tap is silent
// at the moment it wraps.
type PitchShift struct {
	ratio  float64
	window float64 // sweep length in samples
	bufs   [][]float32
	size   int
	pos    int
	phase  float64 // tap position in the window, [0, 1)
	step   float64 // phase change per frame
}

// NewPitchShift creates a pitch shifter.
// semitones: shift amount; 0 passes audio through untouched
func NewPitchShift(sampleRate, channels int, semitones float64) *PitchShift {
	ratio := math.Pow(2, semitones/12.0)
	window := pitchWindowMs * float64(sampleRate) / 1000.0
	size := int(window) + 3
	bufs := make([][]float32, channels)
	for c := range bufs {
		bufs[c] = make([]float32, size)
	}
	return &PitchShift{
		ratio:  ratio,
		window: window,
		bufs:   bufs,
		size:   size,
		step:   (1 - ratio) / window,
	}
}

// Ratio returns the frequency ratio applied to the input.
func (p *PitchShift) Ratio() float64 { return p.ratio }

func (p *PitchShift) Process(block [][]float32) {
	if len(block) == 0 || p.step == 0 {
		return
	}
	nch := min(len(block), len(p.bufs))
	frames := len(block[0])
	for i := 0; i < frames; i++ {
		phase2 := p.phase + 0.5
		if phase2 >= 1 {
			phase2 -= 1
		}
		s1 := math.Sin(math.Pi * p.phase)
		s2 := math.Sin(math.Pi * phase2)
		g1, g2 := float32(s1*s1), float32(s2*s2)
		d1, d2 := p.phase*p.window, phase2*p.window
		for c := 0; c < nch; c++ {
			buf := p.bufs[c]
			buf[p.pos] = block[c][i]
			block[c][i] = g1*p.tap(buf, d1) + g2*p.tap(buf, d2)
		}
		p.pos++
		if p.pos >= p.size {
			p.pos = 0
		}
		p.phase += p.step
		for p.phase >= 1 {
			p.phase -= 1
		}
		for p.phase < 0 {
			p.phase += 1
		}
	}
}

// tap reads buf delay samples behind the write head with linear interpolation.
func (p *PitchShift) tap(buf []float32, delay float64) float32 {
	readPos := float64(p.pos) - delay
	for readPos < 0 {
		readPos += float64(p.size)
	}
	idx := int(readPos)
	frac := float32(readPos - float64(idx))
	if idx >= p.size {
		idx -= p.size
	}
	idx2 := idx + 1
	if idx2 >= p.size {
		idx2 = 0
	}
	return buf[idx]*(1-frac) + buf[idx2]*frac
}

func (p *PitchShift) Reset() {
	for _, buf := range p.bufs {
		clear(buf)
	}
	p.pos = 0
	p.phase = 0
}
