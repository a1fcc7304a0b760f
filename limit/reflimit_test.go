package limit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClipWindowMagnitude(t *testing.T) {
	w := ClipWindow{Neg: -10, Pos: 10}
	v, clipped := w.ClipMagnitude(15)
	assert.Equal(t, 10.0, v)
	assert.True(t, clipped)

	v, clipped = w.ClipMagnitude(-15)
	assert.Equal(t, -10.0, v)
	assert.True(t, clipped)

	v, clipped = w.ClipMagnitude(3)
	assert.Equal(t, 3.0, v)
	assert.False(t, clipped)
}

func TestClipWindowMinDeadband(t *testing.T) {
	w := ClipWindow{Neg: -10, Pos: 10, Min: 1}
	v, clipped := w.ClipMagnitude(0.5)
	assert.Equal(t, 0.0, v)
	assert.True(t, clipped)

	v, clipped = w.ClipMagnitude(2)
	assert.Equal(t, 2.0, v)
	assert.False(t, clipped)
}

func TestClipMagnitudeIdempotent(t *testing.T) {
	w := ClipWindow{Neg: -10, Pos: 10, Min: 1}
	for _, x := range []float64{-20, -0.5, 0, 0.5, 5, 20} {
		once, _ := w.ClipMagnitude(x)
		twice, _ := w.ClipMagnitude(once)
		assert.Equal(t, once, twice, "x=%v", x)
	}
}

func TestQuadrantEnvelopeBound(t *testing.T) {
	q := QuadrantEnvelope{Points: []QuadrantPoint{
		{I: 0, V: 10},
		{I: 10, V: 5},
		{I: 20, V: 5},
	}}
	assert.Equal(t, 10.0, q.Bound(0))
	assert.InDelta(t, 7.5, q.Bound(5), 1e-9)
	assert.Equal(t, 5.0, q.Bound(10))
	assert.Equal(t, 5.0, q.Bound(30), "beyond table end, flat-extrapolated")
}

func TestQuadrantEnvelopeEmpty(t *testing.T) {
	q := QuadrantEnvelope{}
	assert.True(t, q.Bound(5) > 1e300, "empty envelope is unbounded")
}

func TestRefLimiterRateLimit(t *testing.T) {
	r := RefLimiter{Window: ClipWindow{Neg: -100, Pos: 100}, RateLimit: 10}
	r.Reset(0)
	got := r.Limit(100, 0, 1) // max delta = 10*1 = 10
	assert.Equal(t, 10.0, got)
	assert.True(t, r.Rate)

	got = r.Limit(100, 0, 1)
	assert.Equal(t, 20.0, got)
}

func TestRefLimiterRateSequenceAlreadyWithinRateIsUnchanged(t *testing.T) {
	r := RefLimiter{Window: ClipWindow{Neg: -100, Pos: 100}, RateLimit: 10}
	r.Reset(0)
	seq := []float64{2, 4, 6, 8}
	for _, v := range seq {
		got := r.Limit(v, 0, 1)
		assert.Equal(t, v, got)
		assert.False(t, r.Rate)
	}
}

func TestRefLimiterQuadrant(t *testing.T) {
	q := QuadrantEnvelope{Points: []QuadrantPoint{{I: 0, V: 5}, {I: 10, V: 5}}}
	r := RefLimiter{Window: ClipWindow{Neg: -100, Pos: 100}, Quadrant: &q}
	r.Reset(0)
	got := r.Limit(8, 5, 1)
	assert.Equal(t, 5.0, got)
	assert.True(t, r.Clip)
}

func TestRefLimiterAccelLimit(t *testing.T) {
	r := RefLimiter{Window: ClipWindow{Neg: -1000, Pos: 1000}, AccelLimit: 1}
	r.Reset(0)
	r.Limit(0, 0, 1) // establish zero rate
	got := r.Limit(100, 0, 1)
	// rate change bounded to AccelLimit*iterPeriod = 1
	assert.InDelta(t, 1.0, got, 1e-9)
	assert.True(t, r.Rate)
}
