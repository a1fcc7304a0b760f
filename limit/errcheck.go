package limit

// DebounceLimit implements a debounced threshold flag: a counter rises
// (in seconds) while the monitored magnitude exceeds Threshold and falls
// otherwise, clamped to [0, Latency]. The flag asserts once the counter
// reaches Latency and deasserts once the counter falls back to zero — the
// asymmetric set/clear points give the hysteresis.
// A zero Threshold disables the check and resets flag and counter.
type DebounceLimit struct {
	Threshold float64
	Latency   float64

	counter float64
	Flag    bool
}

// Reset clears the debounce counter and flag immediately, independent of
// Threshold.
func (d *DebounceLimit) Reset() {
	d.counter = 0
	d.Flag = false
}

// Update advances the debounce counter for one iteration given the current
// absolute error magnitude.
func (d *DebounceLimit) Update(absErr float64, iterPeriod float64) {
	if d.Threshold <= 0 {
		d.counter = 0
		d.Flag = false
		return
	}
	if absErr > d.Threshold {
		d.counter += iterPeriod
		if d.counter > d.Latency {
			d.counter = d.Latency
		}
	} else {
		d.counter -= iterPeriod
		if d.counter < 0 {
			d.counter = 0
		}
	}
	if d.counter >= d.Latency && d.Latency > 0 {
		d.Flag = true
	} else if d.counter <= 0 {
		d.Flag = false
	}
}

// ErrChecker computes the regulation error (ref_delayed - meas) and runs it
// through independent warning and fault debounce limits.
type ErrChecker struct {
	DelayedRef float64
	Err        float64
	MaxAbsErr  float64
	Warning    DebounceLimit
	Fault      DebounceLimit
}

// Check updates the error and the warning/fault flags when enableErr is
// set; when it is clear, Check returns without changing anything.
// enableMaxAbsErr controls whether MaxAbsErr tracks the running peak (it is
// zeroed whenever disabled).
func (e *ErrChecker) Check(enableErr, enableMaxAbsErr bool, delayedRef, meas, iterPeriod float64) {
	if !enableErr {
		return
	}
	e.DelayedRef = delayedRef
	e.Err = delayedRef - meas

	if enableMaxAbsErr {
		if a := absf(e.Err); a > e.MaxAbsErr {
			e.MaxAbsErr = a
		}
	} else {
		e.MaxAbsErr = 0
	}

	a := absf(e.Err)
	e.Warning.Update(a, iterPeriod)
	e.Fault.Update(a, iterPeriod)
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
