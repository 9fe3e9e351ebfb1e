package effects

import "math"

// Effector processes a planar block in place. block[c] holds channel c and
// all channels have the same length. Implementations keep their history
// between calls, so consecutive blocks form one continuous signal.
type Effector interface {
	Process(block [][]float32)
	Reset()
}

// nyquistSafety bounds every filter and modulation frequency below
// sampleRate/2.
const nyquistSafety = 0.49

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp64(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// dbToGain converts decibels to a linear amplitude factor.
func dbToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

func secondsToSamples(sec float64, sampleRate int) int {
	return int(math.Round(sec * float64(sampleRate)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
