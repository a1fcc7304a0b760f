package limit

import "math"

// MeasLimiter checks a measurement against absolute bounds and flags a
// zero/low condition useful for operator displays.
type MeasLimiter struct {
	Pos        float64 // positive absolute limit
	Neg        float64 // negative absolute limit
	ZeroFactor float64 // fraction of Pos below which a reading counts as zero
	LowFactor  float64 // fraction of Pos below which a reading counts as low

	High, Low bool // last-call absolute-bound flags
	IsZero    bool
	IsLow     bool
}

// Check updates the limiter's flags for the given measurement and returns
// whether it is within bounds.
func (m *MeasLimiter) Check(meas float64) (inBounds bool) {
	m.High = meas > m.Pos
	m.Low = meas < m.Neg
	inBounds = !m.High && !m.Low

	a := math.Abs(meas)
	zt := m.ZeroFactor * m.Pos
	lt := m.LowFactor * m.Pos
	m.IsZero = m.ZeroFactor > 0 && a < zt
	m.IsLow = m.LowFactor > 0 && a < lt
	return
}

// RMSLimiter tracks an exponentially filtered squared magnitude against
// warning/fault thresholds, e.g. to bound RMS current.
type RMSLimiter struct {
	FilterTC       float64 // seconds
	WarningThresh  float64
	FaultThresh    float64
	filteredSq     float64
	Warning, Fault bool
}

// Update folds meas into the RMS estimate and re-evaluates the warning and
// fault flags. Thresholds of zero disable the respective flag.
func (r *RMSLimiter) Update(meas float64, iterPeriod float64) (rms float64) {
	if r.FilterTC+iterPeriod > 0 {
		alpha := iterPeriod / (r.FilterTC + iterPeriod)
		r.filteredSq += alpha * (meas*meas - r.filteredSq)
	}
	rms = math.Sqrt(math.Max(r.filteredSq, 0))
	r.Warning = r.WarningThresh > 0 && rms > r.WarningThresh
	r.Fault = r.FaultThresh > 0 && rms > r.FaultThresh
	return
}

// Reset zeroes the filter state and flags.
func (r *RMSLimiter) Reset() {
	r.filteredSq = 0
	r.Warning = false
	r.Fault = false
}
