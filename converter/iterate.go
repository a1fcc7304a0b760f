package converter

import "github.com/noxworld-test/cclibs/rst"

// regSignalFor returns the active regulation signal for the current mode,
// or nil in VOLTAGE/NONE.
func (c *Converter) regSignalFor(mode rst.Mode) *RegSignal {
	switch mode {
	case rst.ModeCurrent:
		return &c.I
	case rst.ModeField:
		return &c.B
	default:
		return nil
	}
}

// tick reports whether signal's per-signal decimation counter lands on a
// regulation step this iteration, and advances the counter.
func tick(counter *uint32, periodIters uint32) bool {
	isTick := *counter == 0
	*counter++
	if periodIters > 0 && *counter >= periodIters {
		*counter = 0
	}
	return isTick
}

// noneModeCounter recomputes a signal's iteration counter deterministically
// from wall clock so independent systems stay synchronised while no
// regulation loop is selecting it: ((unix_time mod 12)*1e6 + us_time) /
// iter_period_us mod period_iters. 12 seconds is chosen because it evenly
// contains the periods the core is built to support (1, 2, 3, 4, 6, 12 ms
// at a 1ms iteration period, and their multiples).
func noneModeCounter(unixTime int64, usTime, iterPeriodUs, periodIters uint32) uint32 {
	if iterPeriodUs == 0 || periodIters == 0 {
		return 0
	}
	sub := uint32(unixTime%12)*1_000_000 + usTime
	return (sub / iterPeriodUs) % periodIters
}

// SetRT runs the measurement_setup orchestration for one iteration: publish
// any pending RST coefficients, advance iteration counters, ingest
// measurements (from real inputs or, if useSimMeas, the simulator's last
// outputs), and run the measurement pipeline and limiters for V, I and B.
// Returns the sub-iteration counter of the currently regulated signal.
func (c *Converter) SetRT(rstSource RSTSource, unixTime int64, usTime uint32, useSimMeas, maxAbsErrEnabled bool) uint32 {
	c.RSTSource = rstSource
	c.useSimMeas = useSimMeas
	c.maxAbsErrEnabled = maxAbsErrEnabled
	c.publishPending()

	active := c.regSignalFor(c.Mode)

	if c.Mode == rst.ModeNone {
		c.I.IterationCounter = noneModeCounter(unixTime, usTime, c.IterPeriodUs, c.PeriodItersI)
		c.B.IterationCounter = noneModeCounter(unixTime, usTime, c.IterPeriodUs, c.PeriodItersB)
	}

	if useSimMeas {
		// SimulateRT only models the current-loop load path; field-mode
		// simulation is out of scope and B's simulated input just tracks its
		// own last filtered value (no induced transient).
		c.V.Input, c.V.InputValid = c.simHistV[0], true
		c.I.Input, c.I.InputValid = c.simHistI[0], true
		c.B.Input, c.B.InputValid = c.B.Unfiltered, true
	} else {
		c.ingestExternal(&c.V, c.vInput)
		c.ingestExternal(&c.I.Channel, c.iInput)
		c.ingestExternal(&c.B.Channel, c.bInput)
	}

	var delayedRef float64
	var subIterCounter uint32
	if active != nil {
		subIterCounter = active.IterationCounter
		delayedRef = rst.DelayedRef(active.Pars, active.Vars, active.IterationCounter)
		c.lastDelayedRef = delayedRef
	}

	regPeriodI := c.IterPeriod * float64(maxu32(c.PeriodItersI, 1))
	regPeriodB := c.IterPeriod * float64(maxu32(c.PeriodItersB, 1))

	iTick := tick(&c.I.IterationCounter, c.PeriodItersI)
	bTick := tick(&c.B.IterationCounter, c.PeriodItersB)

	c.V.Ingest(false, 0, c.IterPeriod, c.IterPeriod, true)
	c.I.Ingest(c.I.IsDelayedRefAvailable, delayedRef, c.IterPeriod, regPeriodI, iTick)
	c.B.Ingest(c.B.IsDelayedRefAvailable, delayedRef, c.IterPeriod, regPeriodB, bTick)

	if iTick {
		rst.IncrementHistoryIndex(c.I.Vars)
		c.I.Vars.LatchMeas(c.I.regMeas())
	}
	if bTick {
		rst.IncrementHistoryIndex(c.B.Vars)
		c.B.Vars.LatchMeas(c.B.regMeas())
	}

	if c.PCActuation == VoltageRef && c.Mode != rst.ModeNone {
		delayedV := c.lastVCommand
		if c.vRefDelay != nil {
			delayedV = c.vRefDelay.Push(c.lastVCommand)
		}
		c.V.ErrCheck.Check(true, maxAbsErrEnabled, delayedV, c.V.Unfiltered, c.IterPeriod)
		c.recomputeVRefWindow()
	}

	return subIterCounter
}

func (c *Converter) ingestExternal(ch *Channel, src *float64) {
	if src == nil {
		ch.Input, ch.InputValid = 0, true
		return
	}
	ch.Input, ch.InputValid = *src, true
}

func maxu32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
