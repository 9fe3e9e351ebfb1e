package effects

// Reverb implements a Schroeder-style reverb: a bank of damped comb
// filters followed by two allpass filters, one network per channel.
// Channels after the first get slightly longer delay lines so a stereo
// input decorrelates.
type Reverb struct {
	channels []reverbChannel
	wet      float32
	dry      float32
}

type reverbChannel struct {
	combs   [4]combFilter
	allpass [2]allpassFilter
}

type combFilter struct {
	buf   []float32
	pos   int
	fb    float32
	damp  float32
	store float32
}

type allpassFilter struct {
	buf []float32
	pos int
	fb  float32
}

// Comb and allpass lengths in samples at 44.1 kHz.
var (
	combTuning    = [4]int{1116, 1188, 1277, 1356}
	allpassTuning = [2]int{556, 441}
)

const (
	reverbStereoSpread = 23
	reverbInputGain    = 0.03
	reverbDamping      = 0.2
	reverbWet          = 0.33
	reverbDry          = 0.4
)

// NewReverb creates a reverb for the given channel count.
// roomSize: 0..1, longer decay as it grows
func NewReverb(sampleRate, channels int, roomSize float32) *Reverb {
	scale := float64(sampleRate) / 44100.0
	fb := clamp(0.7+0.25*roomSize, 0, 0.95)
	r := &Reverb{
		channels: make([]reverbChannel, channels),
		wet:      reverbWet,
		dry:      reverbDry,
	}
	for c := range r.channels {
		spread := c * reverbStereoSpread
		for i := range r.channels[c].combs {
			n := maxInt(int(float64(combTuning[i]+spread)*scale), 1)
			r.channels[c].combs[i] = combFilter{
				buf:  make([]float32, n),
				fb:   fb,
				damp: reverbDamping,
			}
		}
		for i := range r.channels[c].allpass {
			n := maxInt(int(float64(allpassTuning[i]+spread)*scale), 1)
			r.channels[c].allpass[i] = allpassFilter{
				buf: make([]float32, n),
				fb:  0.5,
			}
		}
	}
	return r
}

func (r *Reverb) Process(block [][]float32) {
	for c := 0; c < len(block) && c < len(r.channels); c++ {
		rc := &r.channels[c]
		ch := block[c]
		for i, x := range ch {
			in := x * reverbInputGain
			var out float32
			for k := range rc.combs {
				out += rc.combs[k].process(in)
			}
			for k := range rc.allpass {
				out = rc.allpass[k].process(out)
			}
			ch[i] = x*r.dry + out*r.wet
		}
	}
}

func (r *Reverb) Reset() {
	for c := range r.channels {
		rc := &r.channels[c]
		for i := range rc.combs {
			clear(rc.combs[i].buf)
			rc.combs[i].pos = 0
			rc.combs[i].store = 0
		}
		for i := range rc.allpass {
			clear(rc.allpass[i].buf)
			rc.allpass[i].pos = 0
		}
	}
}

func (c *combFilter) process(in float32) float32 {
	out := c.buf[c.pos]
	// One-pole lowpass in the feedback path darkens the tail.
	c.store = out*(1-c.damp) + c.store*c.damp
	c.buf[c.pos] = in + c.store*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpassFilter) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}
