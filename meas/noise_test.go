package meas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoiseSourceDisabledIsZero(t *testing.T) {
	n := NewNoiseSource(1)
	for i := 0; i < 100; i++ {
		assert.Equal(t, 0.0, n.Next())
	}
}

func TestNoiseSourceReproducible(t *testing.T) {
	a := NewNoiseSource(42)
	b := NewNoiseSource(42)
	a.NoisePP = 1
	b.NoisePP = 1
	for i := 0; i < 50; i++ {
		require.Equal(t, a.Next(), b.Next())
	}
}

func TestNoiseSourcePeakToPeakBounds(t *testing.T) {
	n := NewNoiseSource(7)
	n.NoisePP = 2.0
	var min, max float64 = math.Inf(1), math.Inf(-1)
	for i := 0; i < 10000; i++ {
		v := n.Next()
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	pp := max - min
	assert.GreaterOrEqual(t, pp, 0.9*n.NoisePP)
	assert.LessOrEqual(t, pp, 1.1*n.NoisePP)
}

func TestNoiseSourceTone(t *testing.T) {
	n := NewNoiseSource(1)
	n.ToneAmplitude = 5
	n.ToneHalfPeriodIters = 2
	got := make([]float64, 8)
	for i := range got {
		got[i] = n.Next()
	}
	want := []float64{5, 5, -5, -5, 5, 5, -5, -5}
	for i := range want {
		assert.Equal(t, want[i], got[i], "i=%d", i)
	}
}

func TestNoiseSourceResetKeepsSeedAdvancesPhaseOnly(t *testing.T) {
	n := NewNoiseSource(1)
	n.ToneAmplitude = 1
	n.ToneHalfPeriodIters = 1
	n.Next() // iter 0 -> +1
	n.Next() // iter 1 -> -1
	n.Reset()
	assert.Equal(t, 1.0, n.Next(), "reset should restart the tone phase at iter 0")
}
