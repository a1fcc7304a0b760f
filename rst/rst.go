// Package rst implements the RST (Landau) discrete-time polynomial
// regulator (component C4): act*S = ref*T - meas*R, plus the delayed
// reference interpolation and back-calculation helpers the supervisor uses
// to keep actuation continuous across clipping and open/closed-loop
// transitions.
package rst

import (
	"math"

	"github.com/noxworld-test/cclibs/internal/fixedbuf"
	"github.com/noxworld-test/cclibs/load"
)

// MaxCoeffs bounds the R, S and T coefficient arrays.
const MaxCoeffs = 10

// Status mirrors the library-wide OK/Warning/Fault outcome used on the RT
// path, where an error return would force an allocation the regulation loop
// cannot afford.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusFault
)

// Mode selects which measurement the regulator tracks.
type Mode int

const (
	ModeNone Mode = iota
	ModeVoltage
	ModeCurrent
	ModeField
)

// RST holds one synthesized (or manually supplied) coefficient set.
type RST struct {
	R [MaxCoeffs]float64
	S [MaxCoeffs]float64
	T [MaxCoeffs]float64
}

// Pars is the background-computed, double-buffered half of a regulation
// loop: everything CalcAct/CalcRef need that changes only when Synthesize
// runs, never on a per-iteration basis.
type Pars struct {
	Status Status
	Mode   Mode

	PeriodIters uint32
	Period      float64 // seconds, PeriodIters*iterPeriod
	Freq        float64

	RST RST

	InvS0          float64 // 1/S[0], precomputed for CalcAct
	T0Correction   float64
	InvCorrectedT0 float64 // 1/(T[0]+T0Correction), precomputed for CalcRef

	RefAdvance      float64 // seconds the reference must be advanced by, from pure delay
	RefDelayPeriods float64 // same, expressed in regulation periods

	// OpenloopReverse is the inverse steady-state plant model: given an
	// open-loop reference it predicts the measurement that reference would
	// settle to, so RST histories stay consistent across the open/closed
	// transition instead of jumping.
	OpenloopReverse float64
}

// Vars is the RT-owned, per-iteration mutable half: the circular histories
// and the index into them. Never shared across the double buffer; one Vars
// belongs to exactly one regulation loop for its entire lifetime.
type Vars struct {
	ref         *fixedbuf.Ring[float64]
	meas        *fixedbuf.Ring[float64]
	act         *fixedbuf.Ring[float64]
	openloopRef *fixedbuf.Ring[float64]

	HistoryIndex int
}

// NewVars allocates histories sized to hold MaxCoeffs of backlog.
func NewVars() *Vars {
	return &Vars{
		ref:         fixedbuf.NewRing[float64](MaxCoeffs),
		meas:        fixedbuf.NewRing[float64](MaxCoeffs),
		act:         fixedbuf.NewRing[float64](MaxCoeffs),
		openloopRef: fixedbuf.NewRing[float64](MaxCoeffs),
	}
}

// LatchMeas stores the newest regulation measurement into history ahead of
// CalcAct, per the supervisor's per-iteration order (advance history index,
// latch measurement, then compute actuation).
func (v *Vars) LatchMeas(meas float64) {
	v.meas.Set(v.HistoryIndex, meas)
}

// IncrementHistoryIndex advances the shared history index by one iteration.
func IncrementHistoryIndex(v *Vars) {
	v.HistoryIndex = (v.HistoryIndex + 1) & v.ref.Mask()
}

// SetAct writes act directly into the current history slot, with no
// convolution and no touch to ref/meas/openloopRef. Used by RegulateRT on
// every call in VOLTAGE mode to keep an I or B loop's act history consistent with the
// voltage actually being driven, so a later switch to closed loop is
// bumpless.
func SetAct(v *Vars, act float64) {
	v.act.Set(v.HistoryIndex, act)
}

// Ref returns the closed-loop-consistent reference at the current history
// index, as last written by CalcAct or CalcRef.
func (v *Vars) Ref() float64 {
	return v.ref.At(v.HistoryIndex, 0)
}

// OpenloopRef returns the open-loop-equivalent reference at the current
// history index: the reference that would reproduce the actual measurement
// under the open-loop model, kept current on every CalcAct/CalcRef call so
// an open/closed-loop transition can output it without a step.
func (v *Vars) OpenloopRef() float64 {
	return v.openloopRef.At(v.HistoryIndex, 0)
}

// InitHistory seeds all four histories to a steady-state triple, used when
// starting a regulation loop or re-synchronizing after a mode change.
func InitHistory(v *Vars, measVal, refVal, actVal float64) {
	v.ref.Fill(refVal)
	v.meas.Fill(measVal)
	v.act.Fill(actVal)
	v.openloopRef.Fill(refVal)
	v.HistoryIndex = 0
}

// InitRef re-seeds only the reference history as a linear ramp arriving at
// the current measurement with the given rate, so the next CalcAct sees no
// reference discontinuity when a loop is newly closed.
func InitRef(pars *Pars, v *Vars, rateEstimate float64) {
	meas0 := v.meas.Get(v.HistoryIndex)
	for k := 0; k < MaxCoeffs; k++ {
		val := meas0 - rateEstimate*float64(k)*pars.Period
		v.ref.Set(v.HistoryIndex-k, val)
	}
}

// effectiveMeas returns the R-term's operand at history lag k: the real
// measurement in closed loop, or the open-loop model's prediction from the
// reference history when isOpenloop holds, so histories stay consistent
// across the transition rather than showing a step.
func effectiveMeas(pars *Pars, v *Vars, k int, isOpenloop bool) float64 {
	if isOpenloop {
		return v.ref.At(v.HistoryIndex, k) * pars.OpenloopReverse
	}
	return v.meas.At(v.HistoryIndex, k)
}

// CalcAct computes the new actuation from ref and the existing histories:
// S[0]*u[n] = T*ref_hist - R*meas_hist - S[1:]*act_hist. Writes ref and the
// resulting actuation into history at the current index and returns it.
func CalcAct(pars *Pars, v *Vars, ref float64, isOpenloop bool) float64 {
	v.ref.Set(v.HistoryIndex, ref)

	var sumT, sumR, sumS float64
	for k := 0; k < MaxCoeffs; k++ {
		sumT += pars.RST.T[k] * v.ref.At(v.HistoryIndex, k)
		sumR += pars.RST.R[k] * effectiveMeas(pars, v, k, isOpenloop)
	}
	for k := 1; k < MaxCoeffs; k++ {
		sumS += pars.RST.S[k] * v.act.At(v.HistoryIndex, k)
	}

	act := (sumT - sumR - sumS) * pars.InvS0
	v.act.Set(v.HistoryIndex, act)
	v.openloopRef.Set(v.HistoryIndex, openloopRefFromMeas(pars, v))
	return act
}

// openloopRefFromMeas inverts effectiveMeas's open-loop mapping against the
// real (not ref-predicted) measurement just latched into history, giving the
// reference that open-loop driving would currently imply. Kept alongside
// ref (the closed-loop-consistent value) on every CalcAct/CalcRef call so
// regulateTick's open/closed-loop transition can output either one without
// a step.
func openloopRefFromMeas(pars *Pars, v *Vars) float64 {
	realMeas := v.meas.At(v.HistoryIndex, 0)
	if pars.OpenloopReverse == 0 {
		return realMeas
	}
	return realMeas / pars.OpenloopReverse
}

// CalcRef is CalcAct's inverse: given an actuation already clipped by the
// caller, it solves for the reference that would have produced it, so the
// reference history stays consistent with what was actually driven
// (back-calculation). isLimited marks that act is a genuinely clipped
// value rather than a plain re-derivation: the solve then uses the raw
// T[0] instead of pars.InvCorrectedT0, since InvCorrectedT0's correction
// compensates for the predictive delay of a normally-tracking reference,
// which does not apply when act is externally clamped to a known value.
func CalcRef(pars *Pars, v *Vars, act float64, isOpenloop bool, isLimited bool) float64 {
	v.act.Set(v.HistoryIndex, act)

	var sumS, sumR, sumT float64
	for k := 0; k < MaxCoeffs; k++ {
		sumS += pars.RST.S[k] * v.act.At(v.HistoryIndex, k)
		sumR += pars.RST.R[k] * effectiveMeas(pars, v, k, isOpenloop)
	}
	for k := 1; k < MaxCoeffs; k++ {
		sumT += pars.RST.T[k] * v.ref.At(v.HistoryIndex, k)
	}

	invT0 := pars.InvCorrectedT0
	if isLimited && pars.RST.T[0] != 0 {
		invT0 = 1 / pars.RST.T[0]
	}
	ref := (sumS + sumR - sumT) * invT0
	v.ref.Set(v.HistoryIndex, ref)
	v.openloopRef.Set(v.HistoryIndex, openloopRefFromMeas(pars, v))
	return ref
}

// DelayedRef interpolates the reference history at pars.RefDelayPeriods
// regulation periods behind the current sample, plus the fractional
// sub-iteration position within the current period (iterCounter of
// pars.PeriodIters), so the regulation error compares measurement against
// the reference actually in effect when that measurement was taken.
func DelayedRef(pars *Pars, v *Vars, iterCounter uint32) float64 {
	if pars.PeriodIters == 0 {
		return v.ref.At(v.HistoryIndex, 0)
	}
	position := pars.RefDelayPeriods + float64(iterCounter)/float64(pars.PeriodIters)
	k0 := int(math.Floor(position))
	frac := position - float64(k0)
	v0 := v.ref.At(v.HistoryIndex, k0)
	v1 := v.ref.At(v.HistoryIndex, k0+1)
	return v0 + frac*(v1-v0)
}

// TrackDelay estimates how many regulation periods (history samples) the
// measurement lags the reference, by finding the lag that best aligns recent reference and
// measurement history. Used to validate RefAdvance against observed plant
// behavior.
func TrackDelay(v *Vars) float64 {
	const window = 4
	bestLag := 0
	bestErr := math.Inf(1)
	for lag := 0; lag <= MaxCoeffs-window; lag++ {
		var errSum float64
		for j := 0; j < window; j++ {
			d := v.ref.At(v.HistoryIndex, lag+j) - v.meas.At(v.HistoryIndex, j)
			errSum += d * d
		}
		if errSum < bestErr {
			bestErr = errSum
			bestLag = lag
		}
	}
	return float64(bestLag)
}

// AverageVRef returns the mean actuation over the full history depth, used
// by SetModeRT to seed the voltage reference when switching from CURRENT or
// FIELD regulation to VOLTAGE mode.
func AverageVRef(v *Vars) float64 {
	var sum float64
	for k := 0; k < MaxCoeffs; k++ {
		sum += v.act.At(v.HistoryIndex, k)
	}
	return sum / MaxCoeffs
}

// AuxPoleBandwidths parameterises Synthesize's pole placement: AuxPole1Hz
// sets the dominant closed-loop bandwidth; AuxPole2Hz..AuxPole4Hz, when
// nonzero, each add one extra real closed-loop pole purely for controller
// roll-off. Z is accepted for interface parity with a damped second-order
// design but is not yet used by synthesizeRST's real-pole placement — see
// the design notes for why.
type AuxPoleBandwidths struct {
	AuxPole1Hz float64
	AuxPole2Hz float64
	Z          float64
	AuxPole3Hz float64
	AuxPole4Hz float64
}

// Delays carries the pure delay the plant exhibits between actuation and
// measurement, in regulation iterations.
type Delays struct {
	PureDelayIters float64
}

const minS0 = 1e-9

// Synthesize derives R, S and T for the given load and bandwidth targets
// (or validates and adopts manual coefficients when supplied) and
// precomputes the derived fields in pars. Returns StatusFault if the load
// or bandwidth parameters cannot produce a stable design.
func Synthesize(pars *Pars, periodIters uint32, iterPeriod float64, ld load.Pars, bw AuxPoleBandwidths, delays Delays, mode Mode, manual *RST) Status {
	pars.PeriodIters = periodIters
	pars.Period = iterPeriod * float64(periodIters)
	if pars.Period > 0 {
		pars.Freq = 1 / pars.Period
	} else {
		pars.Freq = 0
	}
	pars.Mode = mode

	var coeffs RST
	var status Status
	if manual != nil && manual.R[0] != 0 {
		coeffs = *manual
		status = validateRST(coeffs)
	} else {
		coeffs, status = synthesizeRST(ld, bw, delays, periodIters, iterPeriod)
	}

	pars.Status = status
	if status == StatusFault {
		return status
	}

	pars.RST = coeffs
	pars.InvS0 = 1 / coeffs.S[0]
	pars.T0Correction = 0
	pars.InvCorrectedT0 = 1 / (coeffs.T[0] + pars.T0Correction)
	pars.RefDelayPeriods = 0
	if periodIters > 0 {
		pars.RefDelayPeriods = delays.PureDelayIters / float64(periodIters)
	}
	pars.RefAdvance = delays.PureDelayIters * iterPeriod
	if ld.Ohms > 0 {
		pars.OpenloopReverse = 1 / ld.Ohms
	} else {
		pars.OpenloopReverse = 0
	}
	return status
}

// validateRST runs the conditioning checks Synthesize applies to a manually
// supplied RST triple: finite coefficients and an S[0] away from zero, the
// two ways a hand-entered polynomial set can make CalcAct numerically
// unusable.
func validateRST(c RST) Status {
	if math.Abs(c.S[0]) < minS0 {
		return StatusFault
	}
	for _, arr := range [][MaxCoeffs]float64{c.R, c.S, c.T} {
		for _, v := range arr {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return StatusFault
			}
		}
	}
	return StatusOK
}
