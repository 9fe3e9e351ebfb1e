package effects

import "github.com/cbegin/fxcorpus-go/internal/lfo"

// Chorus implements a modulated delay around a fixed centre delay. One LFO
// drives every channel.
type Chorus struct {
	bufs     [][]float32
	pos      int
	size     int
	centre   float32 // centre delay in samples
	depth    float32 // modulation depth in samples
	mod      *lfo.LFO
	feedback float32
	wet      float32
}

const chorusCentreDelayMs = 7.0

// NewChorus creates a chorus effect.
// depth: 0..1, modulation depth as a fraction of the centre delay
// rateHz: modulation rate in Hz (typically 0.1-5Hz)
// wet: wet/dry mix 0..1
func NewChorus(sampleRate, channels int, depth, rateHz, wet float32) *Chorus {
	centre := float32(chorusCentreDelayMs * float64(sampleRate) / 1000.0)
	depthSamples := clamp(depth, 0, 1) * centre * 0.95
	size := int(centre+depthSamples) + 3
	bufs := make([][]float32, channels)
	for c := range bufs {
		bufs[c] = make([]float32, size)
	}
	return &Chorus{
		bufs:   bufs,
		size:   size,
		centre: centre,
		depth:  depthSamples,
		mod:    lfo.New(lfo.Sine, float64(rateHz), sampleRate),
		wet:    clamp(wet, 0, 1),
	}
}

func (c *Chorus) Process(block [][]float32) {
	if len(block) == 0 {
		return
	}
	nch := min(len(block), len(c.bufs))
	frames := len(block[0])
	for i := 0; i < frames; i++ {
		delay := c.centre + float32(c.mod.Next())*c.depth
		readPos := float32(c.pos) - delay
		for readPos < 0 {
			readPos += float32(c.size)
		}
		idx := int(readPos)
		frac := readPos - float32(idx)
		idx2 := idx + 1
		if idx2 >= c.size {
			idx2 = 0
		}
		for ch := 0; ch < nch; ch++ {
			buf := c.bufs[ch]
			x := block[ch][i]
			buf[c.pos] = x
			del := buf[idx]*(1-frac) + buf[idx2]*frac
			buf[c.pos] += del * c.feedback
			block[ch][i] = x*(1-c.wet) + del*c.wet
		}
		c.pos++
		if c.pos >= c.size {
			c.pos = 0
		}
	}
}

func (c *Chorus) Reset() {
	for _, buf := range c.bufs {
		clear(buf)
	}
	c.pos = 0
	c.mod.Reset()
}
