package converter

import "github.com/noxworld-test/cclibs/rst"

// SimulateRT advances the load/power-converter simulation by one iteration.
// If vCircuit is non-nil it overrides the voltage actually applied (for
// externally driven test setups); otherwise the voltage comes from
// whichever regulation loop is presently active. vPerturbation is added
// unconditionally, modeling an external disturbance. If MEAS_SIM_DELAYS has
// configured a nonzero ActuationDelayIters/ResponseDelayIters, the applied
// voltage and simulated current are each pushed through a pure delay line
// first; left unconfigured (the default), neither adds any lag. The
// resulting current is stored for the next SetRT call to pick up when
// useSimMeas is set.
func (c *Converter) SimulateRT(vCircuit *float64, vPerturbation float64) {
	var v float64
	if vCircuit != nil {
		v = *vCircuit
	} else {
		switch c.Mode {
		case rst.ModeCurrent:
			v = c.I.LastAct
		case rst.ModeField:
			v = c.B.LastAct
		default:
			v = c.V.Unfiltered
		}
	}
	v += vPerturbation

	vApplied := v
	if c.actDelay != nil {
		vApplied = c.actDelay.Push(v)
	}

	b, a := c.simVS, c.simVSa
	y := b[0]*vApplied + b[1]*c.simHistX[0] + b[2]*c.simHistX[1] -
		a[1]*c.simHistI[0] - a[2]*c.simHistI[1]
	y += c.noise.Next()

	if c.respDelay != nil {
		y = c.respDelay.Push(y)
	}

	c.simHistX[1] = c.simHistX[0]
	c.simHistX[0] = vApplied
	c.simHistI[1] = c.simHistI[0]
	c.simHistI[0] = y

	c.simHistV[1] = c.simHistV[0]
	c.simHistV[0] = v
}
