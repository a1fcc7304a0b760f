package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIngestValidInputPassesThrough(t *testing.T) {
	var c Channel
	c.InputValid = true
	c.Input = 3.0
	c.Ingest(false, 0, 1e-3, 1e-2, true)
	assert.Equal(t, 3.0, c.Unfiltered)
	assert.Equal(t, 3.0, c.Filtered, "no FIR attached: filtered passes through")
}

func TestIngestInvalidSubstitutesViaDelayedRef(t *testing.T) {
	var c Channel
	c.InputValid = false
	c.ErrCheck.Err = 0.5
	c.Ingest(true, 10.0, 1e-3, 1e-2, true)
	assert.Equal(t, 9.5, c.Unfiltered, "meas_unfiltered = ref_delayed - err")
	assert.Equal(t, uint32(1), c.InvalidInputCounter)
}

func TestIngestInvalidSubstitutesViaRateExtrapolation(t *testing.T) {
	var c Channel
	c.Unfiltered = 2.0
	c.Rate.Rate = 100.0
	c.InputValid = false
	c.Ingest(false, 0, 1e-3, 1e-2, true)
	assert.InDelta(t, 2.1, c.Unfiltered, 1e-9, "meas_unfiltered += rate*iter_period")
	assert.Equal(t, uint32(1), c.InvalidInputCounter)
}

func TestIngestInvalidCounterIncrementsOncePerInvalidSample(t *testing.T) {
	var c Channel
	c.InputValid = false
	for i := 0; i < 5; i++ {
		c.Ingest(false, 0, 1e-3, 1e-2, true)
	}
	assert.Equal(t, uint32(5), c.InvalidInputCounter)
}

func TestIngestRunsMeasurementLimiter(t *testing.T) {
	var c Channel
	c.MeasLimit.Pos = 10
	c.MeasLimit.Neg = -10
	c.InputValid = true
	c.Input = 15
	c.Ingest(false, 0, 1e-3, 1e-2, true)
	assert.True(t, c.MeasLimit.High)
}
