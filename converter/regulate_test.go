package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noxworld-test/cclibs/limit"
	"github.com/noxworld-test/cclibs/paramtable"
	"github.com/noxworld-test/cclibs/rst"
)

func TestRegulateRTNoneModeIsNoop(t *testing.T) {
	c := testConverter()
	c.Mode = rst.ModeNone
	ref := 3.0
	status := c.RegulateRT(&ref)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, 3.0, ref)
}

func TestRegulateRTVoltageModeClipsAndActuates(t *testing.T) {
	c := testConverter()
	c.Mode = rst.ModeVoltage
	c.V.RefLimiter.Window = limit.ClipWindow{Neg: -5, Pos: 5}
	ref := 10.0
	status := c.RegulateRT(&ref)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, 5.0, ref, "voltage mode clips the caller's reference in place")
}

func TestRegulateRTCurrentOffTickOnlyChecksError(t *testing.T) {
	c := testConverter()
	c.Mode = rst.ModeCurrent
	c.I.IterationCounter = 2
	c.lastDelayedRef = 10
	c.I.Unfiltered = 8 // regMeas defaults to the Unfiltered selector

	ref := 99.0
	status := c.RegulateRT(&ref)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, 99.0, ref, "off-tick leaves ref untouched")
	assert.Equal(t, 2.0, c.I.ErrCheck.Err, "delayedRef - meas")
}

func TestRegulateRTCurrentOnTickCallsRegulateTick(t *testing.T) {
	c := testConverter()
	require.Equal(t, StatusOK, c.Configure(paramtable.IReg))
	c.publishPending()
	c.Mode = rst.ModeCurrent
	c.I.IterationCounter = 0
	c.I.RefLimiter.Window = limit.ClipWindow{Neg: -1000, Pos: 1000}

	ref := 0.0
	status := c.RegulateRT(&ref)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, 0.0, c.I.LastRef)
}

func TestRegulateTickOpenloopClosesWhenThresholdCrossed(t *testing.T) {
	c := testConverter()
	require.Equal(t, StatusOK, c.Configure(paramtable.IReg))
	c.publishPending()
	c.I.RefLimiter.Window = limit.ClipWindow{Neg: -1000, Pos: 1000}
	c.I.IsOpenloop = true
	c.I.CloseloopThreshold = 1
	c.I.Unfiltered = 5 // regMeas >= threshold

	ref := 0.0
	c.regulateTick(&c.I, &ref, true)
	assert.False(t, c.I.IsOpenloop, "crossing the threshold from open loop closes it")
}

func TestRegulateTickOpenloopReopensWhenBelowThreshold(t *testing.T) {
	c := testConverter()
	require.Equal(t, StatusOK, c.Configure(paramtable.IReg))
	c.publishPending()
	c.I.RefLimiter.Window = limit.ClipWindow{Neg: -1000, Pos: 1000}
	c.I.IsOpenloop = false
	c.I.CloseloopThreshold = 1
	c.I.Unfiltered = 0.5 // regMeas < threshold

	ref := 0.0
	c.regulateTick(&c.I, &ref, true)
	assert.True(t, c.I.IsOpenloop, "falling back below threshold in closed loop reopens it")
}

func TestRegulateTickRecordsTrackDelayAndLastValues(t *testing.T) {
	c := testConverter()
	require.Equal(t, StatusOK, c.Configure(paramtable.IReg))
	c.publishPending()
	c.I.RefLimiter.Window = limit.ClipWindow{Neg: -1000, Pos: 1000}

	ref := 0.0
	c.regulateTick(&c.I, &ref, true)
	assert.Equal(t, ref, c.I.LastRef)
	assert.Equal(t, 0.0, c.I.LastAct, "zero histories and a zero reference actuate to zero")
}
