// Package limit implements the reference limiter, measurement limiter, RMS
// limiter and regulation-error checker (component C3).
package limit

import "math"

// ClipWindow is the magnitude clip applied to a reference: values are
// bounded to [Neg, Pos], and if Min is nonzero, any magnitude below it is
// snapped to zero rather than left to chatter around the deadband — the
// open question of exactly what "min" bounds in the clip window is resolved
// this way (see DESIGN.md).
type ClipWindow struct {
	Neg float64
	Min float64
	Pos float64
}

// ClipMagnitude applies the window only, with no rate or acceleration
// state. It is a pure, idempotent function: ClipMagnitude(ClipMagnitude(x))
// == ClipMagnitude(x) for all x.
func (w ClipWindow) ClipMagnitude(x float64) (clipped float64, didClip bool) {
	clipped = x
	switch {
	case clipped > w.Pos:
		clipped = w.Pos
		didClip = true
	case clipped < w.Neg:
		clipped = w.Neg
		didClip = true
	}
	if w.Min > 0 && math.Abs(clipped) < w.Min {
		clipped = 0
		didClip = true
	}
	return
}

// QuadrantPoint is one vertex of a quadrant envelope's piecewise-linear
// boundary, mapping a current to the maximum admissible voltage magnitude at
// that current.
type QuadrantPoint struct {
	I units_I
	V units_V
}

// units_I and units_V keep QuadrantPoint generic over plain float64 without
// importing the units package's distinct Amps/Volts types into every limiter
// call site; the converter package is responsible for the unit at its
// boundary.
type units_I = float64
type units_V = float64

// QuadrantEnvelope bounds (I, V) to quadrants 1 and 4 (I >= 0) by a
// piecewise-linear |V| <= f(I) boundary, mirrored for I < 0.
type QuadrantEnvelope struct {
	Points []QuadrantPoint // sorted by ascending I >= 0
}

// Bound returns the maximum |V| admissible at the given |I|, by linear
// interpolation of Points (flat-extrapolated beyond the table ends), the
// same interpolation libfg's table function generator uses for time-based
// reference tables.
func (q QuadrantEnvelope) Bound(absI float64) float64 {
	pts := q.Points
	if len(pts) == 0 {
		return math.Inf(1)
	}
	if absI <= pts[0].I {
		return pts[0].V
	}
	last := pts[len(pts)-1]
	if absI >= last.I {
		return last.V
	}
	for i := 1; i < len(pts); i++ {
		if absI <= pts[i].I {
			p0, p1 := pts[i-1], pts[i]
			frac := (absI - p0.I) / (p1.I - p0.I)
			return p0.V + frac*(p1.V-p0.V)
		}
	}
	return last.V
}

// RefLimiter clips a reference by magnitude, rate and acceleration, with an
// optional quadrant constraint against a companion axis (I when limiting V,
// or vice versa).
type RefLimiter struct {
	Window     ClipWindow
	RateLimit  float64 // max |delta per second|, 0 disables
	AccelLimit float64 // max |rate delta per second|, 0 disables
	Quadrant   *QuadrantEnvelope

	prevVal       float64
	prevRate      float64
	initialized   bool
	Clip, Rate    bool // last-call outcome, surfaced so callers can react without rechecking the bounds
}

// Reset seeds the limiter's rate/acceleration state to v so the first call
// after a mode change introduces no discontinuity.
func (r *RefLimiter) Reset(v float64) {
	r.prevVal = v
	r.prevRate = 0
	r.initialized = true
	r.Clip = false
	r.Rate = false
}

// Limit applies the magnitude, rate, acceleration and quadrant limits to ref
// (companionAxis is the paired I or V value for the quadrant check; pass 0
// and a nil Quadrant to disable it), and returns the limited value.
func (r *RefLimiter) Limit(ref float64, companionAxis float64, iterPeriod float64) float64 {
	if !r.initialized {
		r.Reset(ref)
	}

	limited, clipped := r.Window.ClipMagnitude(ref)

	if r.Quadrant != nil {
		bound := r.Quadrant.Bound(math.Abs(companionAxis))
		if math.Abs(limited) > bound {
			if limited < 0 {
				limited = -bound
			} else {
				limited = bound
			}
			clipped = true
		}
	}

	rateFlag := false
	if r.RateLimit > 0 && iterPeriod > 0 {
		maxDelta := r.RateLimit * iterPeriod
		delta := limited - r.prevVal
		if delta > maxDelta {
			limited = r.prevVal + maxDelta
			rateFlag = true
		} else if delta < -maxDelta {
			limited = r.prevVal - maxDelta
			rateFlag = true
		}
	}

	if r.AccelLimit > 0 && iterPeriod > 0 {
		rate := (limited - r.prevVal) / iterPeriod
		maxRateDelta := r.AccelLimit * iterPeriod
		rateDelta := rate - r.prevRate
		if rateDelta > maxRateDelta {
			rate = r.prevRate + maxRateDelta
			limited = r.prevVal + rate*iterPeriod
			rateFlag = true
		} else if rateDelta < -maxRateDelta {
			rate = r.prevRate - maxRateDelta
			limited = r.prevVal + rate*iterPeriod
			rateFlag = true
		}
		r.prevRate = rate
	} else if iterPeriod > 0 {
		r.prevRate = (limited - r.prevVal) / iterPeriod
	}

	// re-clip magnitude: rate/accel limiting can only move the value toward
	// prevVal, which was itself in-window, so this is the idempotent branch
	// re-asserting itself, never a second distinct clip.
	limited, magClip := r.Window.ClipMagnitude(limited)

	r.Clip = clipped || magClip
	r.Rate = rateFlag
	r.prevVal = limited
	return limited
}
