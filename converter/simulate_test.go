package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noxworld-test/cclibs/rst"
)

func TestSimulateRTIdentityTransferFunctionShiftsHistory(t *testing.T) {
	c := testConverter()
	c.simVS = [3]float64{1, 0, 0}
	c.simVSa = [3]float64{1, 0, 0}
	c.Mode = rst.ModeVoltage
	c.V.Unfiltered = 7

	c.SimulateRT(nil, 0)
	assert.Equal(t, 7.0, c.simHistI[0])
	assert.Equal(t, 0.0, c.simHistI[1], "history was empty before this call")
	assert.Equal(t, 7.0, c.simHistX[0])
	assert.Equal(t, 7.0, c.simHistV[0])

	c.V.Unfiltered = 9
	c.SimulateRT(nil, 0)
	assert.Equal(t, 9.0, c.simHistI[0])
	assert.Equal(t, 7.0, c.simHistI[1], "previous output shifts into the lag-1 slot")
	assert.Equal(t, 9.0, c.simHistX[0])
	assert.Equal(t, 7.0, c.simHistX[1])
}

func TestSimulateRTVCircuitOverridesModeSelection(t *testing.T) {
	c := testConverter()
	c.simVS = [3]float64{1, 0, 0}
	c.simVSa = [3]float64{1, 0, 0}
	c.Mode = rst.ModeCurrent
	c.I.LastAct = 100 // would be used if vCircuit were nil

	v := 3.0
	c.SimulateRT(&v, 0)
	assert.Equal(t, 3.0, c.simHistI[0])
}

func TestSimulateRTSelectsActuationByMode(t *testing.T) {
	ci := testConverter()
	ci.simVS = [3]float64{1, 0, 0}
	ci.simVSa = [3]float64{1, 0, 0}
	ci.Mode = rst.ModeCurrent
	ci.I.LastAct = 4
	ci.SimulateRT(nil, 0)
	assert.Equal(t, 4.0, ci.simHistI[0])

	cb := testConverter()
	cb.simVS = [3]float64{1, 0, 0}
	cb.simVSa = [3]float64{1, 0, 0}
	cb.Mode = rst.ModeField
	cb.B.LastAct = 5
	cb.SimulateRT(nil, 0)
	assert.Equal(t, 5.0, cb.simHistI[0])

	cv := testConverter()
	cv.simVS = [3]float64{1, 0, 0}
	cv.simVSa = [3]float64{1, 0, 0}
	cv.Mode = rst.ModeVoltage
	cv.V.Unfiltered = 6
	cv.SimulateRT(nil, 0)
	assert.Equal(t, 6.0, cv.simHistI[0])
}

func TestSimulateRTAddsPerturbationUnconditionally(t *testing.T) {
	c := testConverter()
	c.simVS = [3]float64{1, 0, 0}
	c.simVSa = [3]float64{1, 0, 0}
	c.Mode = rst.ModeVoltage
	c.V.Unfiltered = 2

	c.SimulateRT(nil, 0.5)
	assert.Equal(t, 2.5, c.simHistI[0])
}

func TestSimulateRTAppliesFullDifferenceEquation(t *testing.T) {
	c := testConverter()
	c.simVS = [3]float64{0.5, 0.25, 0.1}
	c.simVSa = [3]float64{1, -0.3, 0.05}
	c.simHistX = [2]float64{2, 3}
	c.simHistI = [2]float64{4, 5}
	c.Mode = rst.ModeVoltage
	c.V.Unfiltered = 10

	c.SimulateRT(nil, 0)
	want := 0.5*10 + 0.25*2 + 0.1*3 - (-0.3)*4 - 0.05*5
	assert.InDelta(t, want, c.simHistI[0], 1e-9)
}
