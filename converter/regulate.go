package converter

import (
	"github.com/noxworld-test/cclibs/load"
	"github.com/noxworld-test/cclibs/rst"
	"github.com/noxworld-test/cclibs/units"
)

// RegulateRT dispatches on the current mode and drives *ref in place: in
// VOLTAGE mode it clips the caller's voltage reference directly; in
// CURRENT/FIELD mode, on a regulation tick, it runs the full RST
// actuation/back-calculation/open-closed-transition sequence.
func (c *Converter) RegulateRT(ref *float64) Status {
	switch c.Mode {
	case rst.ModeNone:
		return StatusOK

	case rst.ModeVoltage:
		limited, _ := c.V.RefLimiter.Window.ClipMagnitude(*ref)
		*ref = limited
		c.lastVCommand = limited
		// I's act history is in pre-compensation (vref_sat) space, so the
		// raw voltage must be pushed back through the inverse to land in
		// that space; B's act history carries voltage directly.
		vPreI := float64(load.InverseVrefSat(c.Load, units.Amps(c.I.Unfiltered), units.Volts(limited)))
		rst.SetAct(c.I.Vars, vPreI)
		rst.SetAct(c.B.Vars, limited)
		return StatusOK

	case rst.ModeCurrent, rst.ModeField:
		sig := &c.I
		if c.Mode == rst.ModeField {
			sig = &c.B
		}
		if sig.IterationCounter != 0 {
			// off-tick: only the regulation-error checker runs, and not at
			// all when reg_err_rate is MEASUREMENT
			if sig.RegErrRate != RegErrRateMeasurement {
				sig.ErrCheck.Check(true, c.maxAbsErrEnabled, c.lastDelayedRef, sig.regMeas(), c.IterPeriod)
			}
			return StatusOK
		}
		return c.regulateTick(sig, ref, c.Mode == rst.ModeCurrent)
	}
	return StatusOK
}

func (c *Converter) regulateTick(sig *RegSignal, ref *float64, isCurrent bool) Status {
	refLimited := sig.RefLimiter.Limit(*ref, sig.Unfiltered, c.IterPeriod)

	vRef := rst.CalcAct(sig.Pars, sig.Vars, refLimited, sig.IsOpenloop)

	vRefSat := vRef
	if isCurrent {
		vRefSat = float64(load.VrefSat(c.Load, units.Amps(sig.Unfiltered), units.Volts(vRef)))
	}

	vRefLimited, clipped := sig.RefLimiter.Window.ClipMagnitude(vRefSat)
	rateLimited := sig.RefLimiter.Rate

	if clipped || rateLimited {
		vPre := vRefLimited
		if isCurrent {
			vPre = float64(load.InverseVrefSat(c.Load, units.Amps(sig.Unfiltered), units.Volts(vRefLimited)))
		}
		rst.CalcRef(sig.Pars, sig.Vars, vPre, sig.IsOpenloop, true)
		sig.RefLimiter.Rate = true
	}

	meas := sig.regMeas()
	if sig.IsOpenloop {
		if (meas >= sig.CloseloopThreshold && sig.CloseloopThreshold > 0) ||
			(meas <= -sig.CloseloopThreshold && sig.CloseloopThreshold < 0) {
			sig.IsOpenloop = false
		}
	} else {
		if (meas < sig.CloseloopThreshold && sig.CloseloopThreshold > 0) ||
			(meas > sig.CloseloopThreshold && sig.CloseloopThreshold < 0) {
			sig.IsOpenloop = true
		}
	}

	// Output whichever of ref_rst/openloop_ref matches the (possibly just
	// transitioned) loop state, so crossing the closeloop threshold either
	// way introduces no step in the reference handed back to the caller.
	outRef := sig.Vars.Ref()
	if sig.IsOpenloop {
		outRef = sig.Vars.OpenloopRef()
	}
	*ref = outRef

	sig.TrackDlay = rst.TrackDelay(sig.Vars)
	sig.LastRef = refLimited
	sig.LastAct = vRefLimited
	c.lastVCommand = vRefLimited

	return sig.Pars.Status
}
