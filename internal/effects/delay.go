package effects

// Delay implements a per-channel delay line with feedback and a wet/dry mix.
type Delay struct {
	bufs     [][]float32
	pos      int
	feedback float32
	wet      float32
}

// NewDelay creates a delay effect.
// seconds: delay time; shorter than one sample rounds up to one sample
// feedback: feedback amount 0..0.95
// wet: wet/dry mix 0..1
func NewDelay(sampleRate, channels int, seconds float64, feedback, wet float32) *Delay {
	samples := maxInt(secondsToSamples(seconds, sampleRate), 1)
	bufs := make([][]float32, channels)
	for c := range bufs {
		bufs[c] = make([]float32, samples)
	}
	return &Delay{
		bufs:     bufs,
		feedback: clamp(feedback, 0, 0.95),
		wet:      clamp(wet, 0, 1),
	}
}

// Len returns the delay length in samples.
func (d *Delay) Len() int {
	if len(d.bufs) == 0 {
		return 0
	}
	return len(d.bufs[0])
}

func (d *Delay) Process(block [][]float32) {
	if len(block) == 0 || len(d.bufs) == 0 {
		return
	}
	n := len(d.bufs[0])
	frames := len(block[0])
	pos := d.pos
	for c := 0; c < len(block) && c < len(d.bufs); c++ {
		buf := d.bufs[c]
		ch := block[c]
		p := d.pos
		for i, x := range ch {
			del := buf[p]
			buf[p] = x + del*d.feedback
			ch[i] = x*(1-d.wet) + del*d.wet
			p++
			if p >= n {
				p = 0
			}
		}
	}
	d.pos = (pos + frames) % n
}

func (d *Delay) Reset() {
	for _, buf := range d.bufs {
		clear(buf)
	}
	d.pos = 0
}
