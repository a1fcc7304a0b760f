// Package load implements the pure functions for magnet saturation and the
// voltage-source transfer-function model (component C1): no history, no
// mutable state beyond what the caller owns, safe to call from either
// context.
package load

import (
	"math"

	"github.com/noxworld-test/cclibs/internal/fixedbuf"
	"github.com/noxworld-test/cclibs/units"
)

// SatPars describes the magnet saturation curve: henrys(i) transitions
// smoothly from HenriesNominal to HenriesSat over [IStart, IEnd].
type SatPars struct {
	HenriesNominal units.Henries
	HenriesSat     units.Henries
	IStart         units.Amps
	IEnd           units.Amps
}

// Henrys returns the saturated inductance at current i.
func (s SatPars) Henrys(i units.Amps) units.Henries {
	ai := i.Abs()
	switch {
	case s.IEnd <= s.IStart:
		return s.HenriesNominal
	case ai <= s.IStart:
		return s.HenriesNominal
	case ai >= s.IEnd:
		return s.HenriesSat
	default:
		x := float64((ai - s.IStart) / (s.IEnd - s.IStart))
		smooth := x * x * (3 - 2*x) // smoothstep: C1-continuous at both ends
		return s.HenriesNominal + units.Henries(smooth)*(s.HenriesSat-s.HenriesNominal)
	}
}

// InductanceRatio returns Henrys(i)/Henrys(0), the compensation factor
// VrefSat/InverseVrefSat apply.
func (s SatPars) InductanceRatio(i units.Amps) float64 {
	nominal := s.Henrys(0)
	if nominal == 0 {
		return 1
	}
	return float64(s.Henrys(i) / nominal)
}

// Pars bundles the saturation curve with the voltage-source model and the
// pure actuation/response delays, the full load/power-converter model a
// regulation loop is tuned against.
type Pars struct {
	Ohms float64 // magnet circuit resistance
	Sat  SatPars
	VS   VSPars
}

// VrefSat applies saturation compensation: v scaled by the inductance ratio
// at the present current.
func VrefSat(p Pars, i units.Amps, v units.Volts) units.Volts {
	return v * units.Volts(p.Sat.InductanceRatio(i))
}

// InverseVrefSat is the pseudo-inverse of VrefSat, used after voltage
// clipping in CURRENT mode to keep the RST act history consistent.
func InverseVrefSat(p Pars, i units.Amps, v units.Volts) units.Volts {
	ratio := p.Sat.InductanceRatio(i)
	if ratio == 0 {
		return v
	}
	return v / units.Volts(ratio)
}

// VSPars parameterises the voltage-source model: a second-order transfer
// function with bandwidth, damping and a zero time constant, discretised at
// the regulation iteration period; or, when Bandwidth is zero, explicit
// numerator/denominator coefficients supplied directly by configuration.
type VSPars struct {
	BandwidthHz         float64
	Zeta                float64
	TauZero             float64
	Num                 [2]float64 // used only when BandwidthHz == 0
	Den                 [2]float64 // used only when BandwidthHz == 0
	ActuationDelayIters uint32
	ResponseDelayIters  uint32
}

// Discretize returns the difference-equation coefficients
// (b0,b1,b2)/(1,a1,a2) for the voltage-source model at the given iteration
// period, via the bilinear (Tustin) transform of the continuous second-order
// transfer function wn^2*(1+tz*s) / (s^2 + 2*zeta*wn*s + wn^2). When
// BandwidthHz is zero the explicit coefficients are used as given:
// b = (Num[0], Num[1], 0) and a = (1, Den[0], Den[1]).
func (p VSPars) Discretize(iterPeriod float64) (b [3]float64, a [3]float64) {
	if p.BandwidthHz == 0 {
		b = [3]float64{p.Num[0], p.Num[1], 0}
		a = [3]float64{1, p.Den[0], p.Den[1]}
		return
	}
	wn := 2 * math.Pi * p.BandwidthHz
	k := 2 / iterPeriod
	wn2 := wn * wn

	a0 := k*k + 2*p.Zeta*wn*k + wn2
	a1 := -2*k*k + 2*wn2
	a2 := k*k - 2*p.Zeta*wn*k + wn2

	b0 := wn2 * (1 + p.TauZero*k)
	b1 := 2 * wn2
	b2 := wn2 * (1 - p.TauZero*k)

	b = [3]float64{b0 / a0, b1 / a0, b2 / a0}
	a = [3]float64{1, a1 / a0, a2 / a0}
	return
}

// DelayLine is a fixed-depth pure delay of up to its configured number of
// iterations, used to realize VSPars.ActuationDelayIters/ResponseDelayIters
// and any other integer-iteration pure delay in the simulated load path.
type DelayLine struct {
	ring  *fixedbuf.Ring[float64]
	index int
	depth int
}

// NewDelayLine returns a DelayLine of the given depth in iterations, with
// history pre-filled to init.
func NewDelayLine(depth int, init float64) *DelayLine {
	if depth < 1 {
		depth = 1
	}
	d := &DelayLine{ring: fixedbuf.NewRing[float64](depth + 1), depth: depth}
	d.ring.Fill(init)
	return d
}

// Push advances the delay line by one iteration, returning the value that
// entered depth iterations ago.
func (d *DelayLine) Push(v float64) float64 {
	d.index++
	out := d.ring.At(d.index, d.depth)
	d.ring.Set(d.index, v)
	return out
}
