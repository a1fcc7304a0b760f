package rst

import (
	"math"

	"github.com/noxworld-test/cclibs/load"
)

// synthesizeRST derives an RST triple by pole-placement against a
// first-order R/L plant model: I(z)/V(z) discretized with one iteration of
// zero-order-hold delay. The minimal Diophantine solution places a single
// dominant closed-loop pole from AuxPole1Hz; each of AuxPole2Hz..AuxPole4Hz
// that is nonzero then multiplies an extra real-pole factor (1-p*z^-1)
// uniformly into both S and R, which adds one more closed-loop pole per
// factor without perturbing the minimal solution's solvability (the
// standard "append a common factor" freedom in polynomial pole placement).
// Reduced from the auxiliary-pole-placement approach in
// original_source/libreg/src/regConv.c to the one- and multi-real-pole
// cases; the original's complex-pole (damped second-order) placement is not
// reproduced, see the design notes.
func synthesizeRST(ld load.Pars, bw AuxPoleBandwidths, delays Delays, periodIters uint32, iterPeriod float64) (coeffs RST, status Status) {
	if ld.Ohms <= 0 || bw.AuxPole1Hz <= 0 {
		status = StatusFault
		return
	}
	henries := float64(ld.Sat.Henrys(0))
	if henries <= 0 {
		status = StatusFault
		return
	}

	period := iterPeriod * float64(periodIters)
	if period <= 0 {
		status = StatusFault
		return
	}

	tau := henries / ld.Ohms
	a := math.Exp(-period / tau)
	b := (1 - a) / ld.Ohms
	if b == 0 {
		status = StatusFault
		return
	}

	p1 := math.Exp(-2 * math.Pi * bw.AuxPole1Hz * period)
	if p1 >= 1 || p1 <= -1 {
		status = StatusFault
		return
	}

	// Minimal Diophantine solution for A(z^-1)=1-a*z^-1, B(z^-1)=b*z^-1:
	// A*1 + B*r0 = 1 - p1*z^-1  =>  r0 = (a-p1)/b
	r0 := (a - p1) / b

	s := []float64{1}
	r := []float64{r0}
	pc1 := 1 - p1

	for _, f := range [3]float64{bw.AuxPole2Hz, bw.AuxPole3Hz, bw.AuxPole4Hz} {
		if f <= 0 {
			continue
		}
		p := math.Exp(-2 * math.Pi * f * period)
		if p >= 1 || p <= -1 {
			status = StatusFault
			return
		}
		s = polyMulLinear(s, p)
		r = polyMulLinear(r, p)
		pc1 *= 1 - p
	}

	if len(s) > MaxCoeffs || len(r) > MaxCoeffs {
		status = StatusFault
		return
	}

	copy(coeffs.S[:], s)
	copy(coeffs.R[:], r)
	coeffs.T[0] = pc1 / b

	status = validateRST(coeffs)
	return
}

// polyMulLinear multiplies the polynomial c (in ascending powers of z^-1) by
// the factor (1 - p*z^-1), returning a result one coefficient longer.
func polyMulLinear(c []float64, p float64) []float64 {
	out := make([]float64, len(c)+1)
	for i, v := range c {
		out[i] += v
		out[i+1] -= p * v
	}
	return out
}
