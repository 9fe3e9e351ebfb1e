package effects

// Gain scales every sample by a fixed factor.
type Gain struct {
	factor float32
}

// NewGain creates a gain stage from a level in dB (0 = unity).
func NewGain(db float64) *Gain {
	return &Gain{factor: float32(dbToGain(db))}
}

// Factor returns the linear multiplier.
func (g *Gain) Factor() float32 { return g.factor }

func (g *Gain) Process(block [][]float32) {
	for _, ch := range block {
		for i := range ch {
			ch[i] *= g.factor
		}
	}
}

func (g *Gain) Reset() {}
