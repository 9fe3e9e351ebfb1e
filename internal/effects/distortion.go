package effects

import "math"

// Distortion implements tanh waveshaping behind a drive gain.
type Distortion struct {
	drive float32
}

// NewDistortion creates a distortion effect.
// driveDB: input gain in dB before the waveshaper (higher = more distortion)
func NewDistortion(driveDB float64) *Distortion {
	return &Distortion{drive: float32(dbToGain(driveDB))}
}

func (d *Distortion) Process(block [][]float32) {
	for _, ch := range block {
		for i, x := range ch {
			ch[i] = float32(math.Tanh(float64(x * d.drive)))
		}
	}
}

// Reset is a no-op; the waveshaper is memoryless.
func (d *Distortion) Reset() {}
