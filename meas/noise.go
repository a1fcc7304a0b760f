package meas

import "math/rand"

// NoiseSource adds pseudo-random noise and a half-period-parameterised tone
// to simulated measurement outputs. Seeds its own math/rand source so
// simulation runs are reproducible.
type NoiseSource struct {
	rnd *rand.Rand

	NoisePP             float64 // peak-to-peak noise amplitude, 0 disables
	ToneAmplitude       float64 // 0 disables
	ToneHalfPeriodIters uint32

	iter uint32
}

// NewNoiseSource returns a NoiseSource seeded deterministically so
// simulation runs reproduce exactly.
func NewNoiseSource(seed int64) *NoiseSource {
	return &NoiseSource{rnd: rand.New(rand.NewSource(seed))}
}

// Next returns the noise + tone contribution for the current iteration and
// advances the internal iteration counter.
func (n *NoiseSource) Next() float64 {
	var v float64
	if n.NoisePP > 0 {
		v += (n.rnd.Float64() - 0.5) * n.NoisePP
	}
	if n.ToneAmplitude > 0 && n.ToneHalfPeriodIters > 0 {
		phase := (n.iter / n.ToneHalfPeriodIters) % 2
		if phase == 0 {
			v += n.ToneAmplitude
		} else {
			v -= n.ToneAmplitude
		}
	}
	n.iter++
	return v
}

// Reset zeroes the iteration counter without reseeding the random source.
func (n *NoiseSource) Reset() {
	n.iter = 0
}
