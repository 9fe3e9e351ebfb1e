package effects

import "math"

// Compressor implements downward compression with a per-channel envelope
// follower.
type Compressor struct {
	threshold float32
	ratio     float32
	attack    float32 // coefficient
	release   float32 // coefficient
	makeup    float32
	env       []float32
}

// NewCompressor creates a compressor effect.
// thresholdDB: threshold in dB (e.g., -20)
// ratio: compression ratio (e.g., 4 for 4:1)
// attackMs: attack time in ms
// releaseMs: release time in ms
// makeupDB: makeup gain in dB
func NewCompressor(sampleRate, channels int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	sr := float64(sampleRate)
	if ratio < 1 {
		ratio = 1
	}
	return &Compressor{
		threshold: float32(dbToGain(float64(thresholdDB))),
		ratio:     ratio,
		attack:    onePole(float64(attackMs), sr),
		release:   onePole(float64(releaseMs), sr),
		makeup:    float32(dbToGain(float64(makeupDB))),
		env:       make([]float32, channels),
	}
}

// onePole returns the smoothing coefficient of a one-pole follower with the
// given time constant.
func onePole(ms, sampleRate float64) float32 {
	if ms <= 0 {
		return 1
	}
	return float32(1 - math.Exp(-1000/(ms*sampleRate)))
}

func (c *Compressor) Process(block [][]float32) {
	for ci := 0; ci < len(block) && ci < len(c.env); ci++ {
		ch := block[ci]
		env := c.env[ci]
		for i, x := range ch {
			level := float32(math.Abs(float64(x)))
			coef := c.release
			if level > env {
				coef = c.attack
			}
			env += coef * (level - env)
			ch[i] = x * c.computeGain(env) * c.makeup
		}
		c.env[ci] = env
	}
}

// computeGain maps the envelope to a gain that leaves 1/ratio of the
// overshoot above threshold, in dB.
func (c *Compressor) computeGain(env float32) float32 {
	if env <= c.threshold {
		return 1
	}
	overDB := 20 * math.Log10(float64(env/c.threshold))
	return float32(dbToGain(overDB * (1/float64(c.ratio) - 1)))
}

func (c *Compressor) Reset() {
	clear(c.env)
}
