package converter

import (
	"github.com/noxworld-test/cclibs/limit"
	"github.com/noxworld-test/cclibs/meas"
	"github.com/noxworld-test/cclibs/rst"
)

// Channel is the per-signal aggregate (V, I or B): input sample and
// validity, filtered/unfiltered values, FIR and rate state, measurement
// limiting and the regulation-error checker. I and B additionally carry an
// RST regulation loop (see RegSignal).
type Channel struct {
	Name string

	InputValid bool
	Input      float64

	Unfiltered float64
	Filtered   float64

	FIR  *meas.FIRFilter
	Rate meas.RateEstimator

	// DelayIters holds the group delay, in iterations, of the unfiltered and
	// filtered paths respectively, indexed by meas.Selector.
	DelayIters [2]float64

	// FIRTaps is the coefficient set Configure rebuilds FIR from when an
	// I/B_MEAS_FILTER option changes; empty means unfiltered.
	FIRTaps []float64

	MeasLimit  limit.MeasLimiter
	RMS        limit.RMSLimiter
	ErrCheck   limit.ErrChecker
	RefLimiter limit.RefLimiter

	IterationCounter    uint32
	PeriodIters         uint32
	InvalidInputCounter uint32
}

// substituteInvalid replaces an invalid input sample: if a delayed reference
// is available, track it minus the last regulation error; otherwise
// extrapolate the last good sample by its estimated rate over one iteration.
func (c *Channel) substituteInvalid(delayedRefAvailable bool, refDelayed, iterPeriod float64) float64 {
	c.InvalidInputCounter++
	if delayedRefAvailable {
		return refDelayed - c.ErrCheck.Err
	}
	return c.Unfiltered + c.Rate.Rate*iterPeriod
}

// Ingest runs one iteration of the measurement pipeline: substitute for an
// invalid sample, filter, estimate rate, and run the measurement limiter.
// regPeriod is the regulation period in seconds (PeriodIters*iterPeriod),
// used by the rate estimator on ticks.
func (c *Channel) Ingest(delayedRefAvailable bool, refDelayed, iterPeriod, regPeriod float64, tick bool) {
	if c.InputValid {
		c.Unfiltered = c.Input
	} else {
		c.Unfiltered = c.substituteInvalid(delayedRefAvailable, refDelayed, iterPeriod)
	}
	if c.FIR != nil {
		c.Filtered = c.FIR.Filter(c.Unfiltered)
	} else {
		c.Filtered = c.Unfiltered
	}
	if tick {
		c.Rate.Update(c.Filtered, regPeriod)
	}
	c.MeasLimit.Check(c.Unfiltered)
	c.RMS.Update(c.Unfiltered, iterPeriod)
}

// reg_err_rate admissible values. Modeled as a plain uint32, not a distinct
// named type, so a RegSignal's RegErrRate field can bind directly to a
// paramtable.Enum option without a pointer conversion.
const (
	RegErrRateIteration uint32 = iota
	RegErrRateMeasurement
)

// RegSignal is a Channel with an RST regulation loop attached (I or B).
type RegSignal struct {
	Channel

	Vars *rst.Vars
	Pars *rst.Pars // the currently active parameter set (operational or test)

	IsOpenloop            bool
	IsDelayedRefAvailable bool
	RegErrMeasSelect      meas.Selector
	// RegErrRate is reg_err_rate: with RegErrRateIteration (the zero value)
	// RegulateRT runs the regulation-error checker on every iteration that
	// is not a regulation tick; with RegErrRateMeasurement RegulateRT does
	// not run the checker at all. It also feeds refreshRegErrMeasSelect.
	RegErrRate         uint32
	CloseloopThreshold float64

	LastRef   float64
	LastAct   float64
	TrackDlay float64
}

// regMeas returns the measurement the regulation error checker compares
// against, per RegErrMeasSelect.
func (s *RegSignal) regMeas() float64 {
	if s.RegErrMeasSelect == meas.Unfiltered {
		return s.Unfiltered
	}
	return s.Filtered
}

// refreshRegErrMeasSelect derives RegErrMeasSelect and IsDelayedRefAvailable
// from the signal's configured RegErrRate and its current RefDelayPeriods:
// UNFILTERED only when the checker runs at measurement rate and a full
// measurement delay is available to track against, FILTERED otherwise. Used
// both on a mode transition into CURRENT/FIELD and whenever reg_err_rate is
// reconfigured live.
func refreshRegErrMeasSelect(sig *RegSignal) {
	if sig.RegErrRate == RegErrRateMeasurement && sig.Pars.RefDelayPeriods >= 1 {
		sig.RegErrMeasSelect = meas.Unfiltered
		sig.IsDelayedRefAvailable = true
	} else {
		sig.RegErrMeasSelect = meas.Filtered
		sig.IsDelayedRefAvailable = false
	}
}
