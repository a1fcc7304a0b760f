package limit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebounceLimitRisesAndFalls(t *testing.T) {
	d := DebounceLimit{Threshold: 1, Latency: 3}
	for i := 0; i < 3; i++ {
		d.Update(5, 1)
	}
	assert.True(t, d.Flag, "counter should have reached Latency")

	for i := 0; i < 3; i++ {
		d.Update(0, 1)
	}
	assert.False(t, d.Flag, "counter should have fallen back to zero")
}

func TestDebounceLimitZeroThresholdDisables(t *testing.T) {
	d := DebounceLimit{Threshold: 0, Latency: 1}
	d.Update(1000, 1)
	assert.False(t, d.Flag)
}

func TestDebounceLimitHysteresisPartialFall(t *testing.T) {
	d := DebounceLimit{Threshold: 1, Latency: 3}
	d.Update(5, 1)
	d.Update(5, 1)
	d.Update(5, 1)
	assert.True(t, d.Flag)

	d.Update(0, 1) // counter falls to 2, still > 0
	assert.True(t, d.Flag, "flag must not clear until the counter reaches zero")
}

func TestErrCheckerBasic(t *testing.T) {
	var e ErrChecker
	e.Check(true, true, 10, 7, 1)
	assert.InDelta(t, 3.0, e.Err, 1e-9)
	assert.InDelta(t, 3.0, e.MaxAbsErr, 1e-9)

	e.Check(true, true, 10, 9, 1)
	assert.InDelta(t, 1.0, e.Err, 1e-9)
	assert.InDelta(t, 3.0, e.MaxAbsErr, 1e-9, "peak must not decrease")
}

func TestErrCheckerMaxAbsErrDisabledResets(t *testing.T) {
	var e ErrChecker
	e.Check(true, true, 10, 0, 1)
	assert.InDelta(t, 10.0, e.MaxAbsErr, 1e-9)
	e.Check(true, false, 10, 0, 1)
	assert.Equal(t, 0.0, e.MaxAbsErr)
}

func TestErrCheckerDisabledNoOp(t *testing.T) {
	var e ErrChecker
	e.Check(false, true, 10, 0, 1)
	assert.Equal(t, 0.0, e.Err)
}
