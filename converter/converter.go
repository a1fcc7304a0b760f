package converter

import (
	"math"
	"unsafe"

	"github.com/noxworld-test/cclibs/limit"
	"github.com/noxworld-test/cclibs/load"
	"github.com/noxworld-test/cclibs/meas"
	"github.com/noxworld-test/cclibs/paramset"
	"github.com/noxworld-test/cclibs/paramtable"
	"github.com/noxworld-test/cclibs/rst"
	"github.com/noxworld-test/cclibs/units"
)

// Actuation is how the power converter itself accepts a command: a voltage
// reference (the usual case, regulated closed-loop by RST) or a current
// reference (the converter is itself a current source, and CURRENT/FIELD
// mode then runs open-loop). Fixed at construction time, never changes
// during operation.
type Actuation int

const (
	VoltageRef Actuation = iota
	CurrentRef
)

// RSTSource selects which of a signal's two parameter slots (operational or
// test) is currently live.
type RSTSource int

const (
	Operational RSTSource = iota
	Test
)

// maxFIRTaps bounds the single measurement FIR stage Configure rebuilds from
// i_fir_taps/b_fir_taps; unused trailing taps default to zero.
const maxFIRTaps = 8

// maxQuadrantFloats bounds v_quadrant_points: up to 4 (I,V) vertices.
const maxQuadrantFloats = 8

// Status is the library-wide RT-path outcome; never an error, since the RT
// path must not allocate.
type Status = rst.Status

const (
	StatusOK      = rst.StatusOK
	StatusWarning = rst.StatusWarning
	StatusFault   = rst.StatusFault
)

// Converter is the full per-converter aggregate: measurement channels, RST
// regulation loops for current and field, the load/simulation model, the
// supervisory state and the double-buffered RST parameter handoffs. All
// mutable state the library touches lives here, in place of the source's
// process-wide globals.
type Converter struct {
	IterPeriodUs      uint32
	IterPeriod        float64 // seconds
	FieldRegEnabled   bool
	CurrentRegEnabled bool
	PCActuation       Actuation

	Mode      rst.Mode
	RSTSource RSTSource

	V Channel
	I RegSignal
	B RegSignal

	Load     load.Pars
	LoadTest load.Pars // used by IRegTest/BRegTest synthesis when Ohms != 0, else falls back to Load

	// InvertLimits mirrors every clip-window/RefLimiter bound across zero
	// when nonzero (0/1, not bool: the table has no boolean Kind, matching
	// how the original source feeds switches through as uint32).
	InvertLimits   uint32
	limitsInverted uint32 // last-applied InvertLimits, so Configure can toggle rather than reapply

	actDelay, respDelay *load.DelayLine // nil until MEAS_SIM_DELAYS configures a nonzero depth

	// vWindowCfg is the configured (pre-quadrant) V clip window; v_pos/v_neg/
	// v_min write through here rather than to V.RefLimiter.Window directly,
	// since SetRT overwrites the latter every iteration with vWindowCfg
	// intersected against the quadrant envelope bound at the present current
	// (regLimVrefCalcRT's "recompute v-ref clip window for the present
	// current").
	vWindowCfg limit.ClipWindow
	// vQuadrantPoints is a flat, paramtable-bound (I0,V0,I1,V1,...) encoding
	// of V.RefLimiter.Quadrant's piecewise-linear boundary; rebuilt into the
	// real QuadrantEnvelope whenever VLimitsRef is reconfigured.
	vQuadrantPoints []float64
	// vRefDelay models the pure delay between a commanded voltage and its
	// effect arriving at the V measurement (the same actuation+response
	// delay MEAS_SIM_DELAYS gives the simulator), so the V regulation-error
	// check compares the measurement against the reference that was in
	// effect when it was taken rather than against itself.
	vRefDelay    *load.DelayLine
	lastVCommand float64

	Supervisor State

	PeriodItersI uint32
	PeriodItersB uint32
	AuxI         rst.AuxPoleBandwidths
	AuxB         rst.AuxPoleBandwidths
	DelaysI      rst.Delays
	DelaysB      rst.Delays

	iregOp, iregTest *paramset.Handoff[rst.Pars]
	bregOp, bregTest *paramset.Handoff[rst.Pars]

	vInput, iInput, bInput *float64

	useSimMeas bool
	simVS      [3]float64 // b coefficients, precomputed by Configure
	simVSa     [3]float64 // a coefficients
	simHistX   [2]float64 // x[n-1], x[n-2] (driving voltage)
	simHistI   [2]float64 // y[n-1], y[n-2] (simulated current)
	simHistV   [2]float64 // simulated voltage-source output, for V-mode sim
	noise      *meas.NoiseSource

	maxAbsErrEnabled bool
	lastDelayedRef   float64

	paramTable *paramtable.Table
}

// NewConverter allocates a Converter for the given iteration period and
// regulation enablement, with both RST parameter slots for each enabled
// signal initialised to a zero (fault-until-configured) state.
func NewConverter(iterPeriodUs uint32, fieldRegEnabled, currentRegEnabled bool) *Converter {
	c := &Converter{
		IterPeriodUs:      iterPeriodUs,
		IterPeriod:        float64(iterPeriodUs) / 1e6,
		FieldRegEnabled:   fieldRegEnabled,
		CurrentRegEnabled: currentRegEnabled,
		Supervisor:        OF,
		noise:             meas.NewNoiseSource(9),
	}
	c.I.Vars = rst.NewVars()
	c.B.Vars = rst.NewVars()
	c.I.FIRTaps = make([]float64, maxFIRTaps)
	c.B.FIRTaps = make([]float64, maxFIRTaps)
	c.vQuadrantPoints = make([]float64, maxQuadrantFloats)
	c.iregOp = paramset.NewHandoff(new(rst.Pars), new(rst.Pars))
	c.iregTest = paramset.NewHandoff(new(rst.Pars), new(rst.Pars))
	c.bregOp = paramset.NewHandoff(new(rst.Pars), new(rst.Pars))
	c.bregTest = paramset.NewHandoff(new(rst.Pars), new(rst.Pars))
	c.I.Pars = c.iregOp.Active()
	c.B.Pars = c.bregOp.Active()
	c.paramTable = c.buildParamTable()
	return c
}

// regErrRateTable is the admissible values of the reg_err_rate enum option.
var regErrRateTable = paramtable.EnumTable{
	{Value: RegErrRateIteration, Name: "ITERATION"},
	{Value: RegErrRateMeasurement, Name: "MEASUREMENT"},
}

// buildParamTable binds every named configuration option this Converter
// recognises directly to the backing fields Configure's sub-initialisers
// read, replacing libreg's {type, pointer}-plus-memcmp table (see
// cctest/pars/global.h in the original source) with paramtable's typed
// variant-and-closure design.
func (c *Converter) buildParamTable() *paramtable.Table {
	return paramtable.NewTable(
		paramtable.Float("vs_bandwidth_hz", &c.Load.VS.BandwidthHz, paramtable.LoadSim),
		paramtable.Float("vs_zeta", &c.Load.VS.Zeta, paramtable.LoadSim),
		paramtable.Float("vs_tau_zero", &c.Load.VS.TauZero, paramtable.LoadSim),
		paramtable.Unsigned("vs_actuation_delay_iters", &c.Load.VS.ActuationDelayIters, paramtable.MeasSimDelays),
		paramtable.Unsigned("vs_response_delay_iters", &c.Load.VS.ResponseDelayIters, paramtable.MeasSimDelays),

		paramtable.Float("load_ohms", &c.Load.Ohms, paramtable.Load),
		paramtable.Float("load_henries_nominal", (*float64)(unsafe.Pointer(&c.Load.Sat.HenriesNominal)), paramtable.Load),
		paramtable.Float("load_henries_sat", (*float64)(unsafe.Pointer(&c.Load.Sat.HenriesSat)), paramtable.LoadSat),
		paramtable.Float("load_i_sat_start", (*float64)(unsafe.Pointer(&c.Load.Sat.IStart)), paramtable.LoadSat),
		paramtable.Float("load_i_sat_end", (*float64)(unsafe.Pointer(&c.Load.Sat.IEnd)), paramtable.LoadSat),

		paramtable.Float("load_test_ohms", &c.LoadTest.Ohms, paramtable.LoadTest),
		paramtable.Float("load_test_henries_nominal", (*float64)(unsafe.Pointer(&c.LoadTest.Sat.HenriesNominal)), paramtable.LoadTest),
		paramtable.Float("load_test_henries_sat", (*float64)(unsafe.Pointer(&c.LoadTest.Sat.HenriesSat)), paramtable.LoadTest),

		paramtable.Unsigned("invert_limits", &c.InvertLimits, paramtable.InvertLimits),

		paramtable.Float("v_pos", &c.vWindowCfg.Pos, paramtable.VLimitsRef),
		paramtable.Float("v_neg", &c.vWindowCfg.Neg, paramtable.VLimitsRef),
		paramtable.Float("v_min", &c.vWindowCfg.Min, paramtable.VLimitsRef),
		paramtable.Float("v_rate", &c.V.RefLimiter.RateLimit, paramtable.VLimitsRef),
		paramtable.Float("v_accel", &c.V.RefLimiter.AccelLimit, paramtable.VLimitsRef),
		paramtable.FloatArray("v_quadrant_points", c.vQuadrantPoints, paramtable.VLimitsRef),

		paramtable.Float("i_pos", &c.I.RefLimiter.Window.Pos, paramtable.ILimitsRef),
		paramtable.Float("i_neg", &c.I.RefLimiter.Window.Neg, paramtable.ILimitsRef),
		paramtable.Float("i_min", &c.I.RefLimiter.Window.Min, paramtable.ILimitsRef),
		paramtable.Float("i_rate", &c.I.RefLimiter.RateLimit, paramtable.ILimitsRef),
		paramtable.Float("i_accel", &c.I.RefLimiter.AccelLimit, paramtable.ILimitsRef),

		paramtable.Float("b_pos", &c.B.RefLimiter.Window.Pos, paramtable.BLimitsRef),
		paramtable.Float("b_neg", &c.B.RefLimiter.Window.Neg, paramtable.BLimitsRef),
		paramtable.Float("b_min", &c.B.RefLimiter.Window.Min, paramtable.BLimitsRef),
		paramtable.Float("b_rate", &c.B.RefLimiter.RateLimit, paramtable.BLimitsRef),
		paramtable.Float("b_accel", &c.B.RefLimiter.AccelLimit, paramtable.BLimitsRef),

		paramtable.Float("v_err_warning_thresh", &c.V.ErrCheck.Warning.Threshold, paramtable.VLimitsErr),
		paramtable.Float("v_err_warning_latency", &c.V.ErrCheck.Warning.Latency, paramtable.VLimitsErr),
		paramtable.Float("v_err_fault_thresh", &c.V.ErrCheck.Fault.Threshold, paramtable.VLimitsErr),
		paramtable.Float("v_err_fault_latency", &c.V.ErrCheck.Fault.Latency, paramtable.VLimitsErr),

		paramtable.Float("i_err_warning_thresh", &c.I.ErrCheck.Warning.Threshold, paramtable.ILimitsErr),
		paramtable.Float("i_err_warning_latency", &c.I.ErrCheck.Warning.Latency, paramtable.ILimitsErr),
		paramtable.Float("i_err_fault_thresh", &c.I.ErrCheck.Fault.Threshold, paramtable.ILimitsErr),
		paramtable.Float("i_err_fault_latency", &c.I.ErrCheck.Fault.Latency, paramtable.ILimitsErr),

		paramtable.Float("b_err_warning_thresh", &c.B.ErrCheck.Warning.Threshold, paramtable.BLimitsErr),
		paramtable.Float("b_err_warning_latency", &c.B.ErrCheck.Warning.Latency, paramtable.BLimitsErr),
		paramtable.Float("b_err_fault_thresh", &c.B.ErrCheck.Fault.Threshold, paramtable.BLimitsErr),
		paramtable.Float("b_err_fault_latency", &c.B.ErrCheck.Fault.Latency, paramtable.BLimitsErr),

		paramtable.Float("i_meas_pos", &c.I.MeasLimit.Pos, paramtable.ILimitsMeas),
		paramtable.Float("i_meas_neg", &c.I.MeasLimit.Neg, paramtable.ILimitsMeas),
		paramtable.Float("i_meas_zero_factor", &c.I.MeasLimit.ZeroFactor, paramtable.ILimitsMeas),
		paramtable.Float("i_meas_low_factor", &c.I.MeasLimit.LowFactor, paramtable.ILimitsMeas),

		paramtable.Float("b_meas_pos", &c.B.MeasLimit.Pos, paramtable.BLimitsMeas),
		paramtable.Float("b_meas_neg", &c.B.MeasLimit.Neg, paramtable.BLimitsMeas),
		paramtable.Float("b_meas_zero_factor", &c.B.MeasLimit.ZeroFactor, paramtable.BLimitsMeas),
		paramtable.Float("b_meas_low_factor", &c.B.MeasLimit.LowFactor, paramtable.BLimitsMeas),

		paramtable.Float("i_rms_filter_tc", &c.I.RMS.FilterTC, paramtable.ILimitsRMS),
		paramtable.Float("i_rms_warning_thresh", &c.I.RMS.WarningThresh, paramtable.ILimitsRMS),
		paramtable.Float("i_rms_fault_thresh", &c.I.RMS.FaultThresh, paramtable.ILimitsRMS|paramtable.ILimitsRMSLoad),

		paramtable.FloatArray("i_fir_taps", c.I.FIRTaps, paramtable.IMeasFilter),
		paramtable.FloatArray("b_fir_taps", c.B.FIRTaps, paramtable.BMeasFilter),

		paramtable.Enum("i_reg_err_rate", &c.I.RegErrRate, regErrRateTable, paramtable.IMeasRegSelect),
		paramtable.Enum("b_reg_err_rate", &c.B.RegErrRate, regErrRateTable, paramtable.BMeasRegSelect),

		paramtable.Float("sim_noise_pp", &c.noise.NoisePP, paramtable.MeasSimNoise),
		paramtable.Float("sim_tone_amplitude", &c.noise.ToneAmplitude, paramtable.MeasSimNoise),
		paramtable.Unsigned("sim_tone_half_period_iters", &c.noise.ToneHalfPeriodIters, paramtable.MeasSimNoise),
	)
}

// ParamTable returns the Converter's bound configuration-option table. The
// background context looks up options by name here rather than poking
// Converter/Channel/RegSignal fields directly.
func (c *Converter) ParamTable() *paramtable.Table {
	return c.paramTable
}

// ApplyParam applies a single named option change and, if it actually
// changed the backing value, re-runs the sub-initialisers it invalidates via
// Configure. It is the background context's normal entry point; Configure
// itself remains available for callers (and tests) that already know the
// mask they want re-run.
func (c *Converter) ApplyParam(name string, v paramtable.Value) (Status, error) {
	flags, changed, err := c.paramTable.Apply(name, v)
	if err != nil {
		return StatusOK, err
	}
	if !changed {
		return StatusOK, nil
	}
	return c.Configure(flags), nil
}

// InitMeas wires externally owned measurement sources; a nil pointer is
// treated as a zeroed sentinel (substituted as a constant zero reading).
func (c *Converter) InitMeas(v, i, b *float64) {
	c.vInput, c.iInput, c.bInput = v, i, b
}

// InitSim initialises the simulator in the given steady state: the load
// model's histories and the RST histories are all seeded consistently so
// the first simulated iteration produces no transient.
func (c *Converter) InitSim(mode rst.Mode, initV, initI, initB float64) {
	c.simHistI = [2]float64{initI, initI}
	c.simHistV = [2]float64{initV, initV}
	rst.InitHistory(c.I.Vars, initI, initI, initV)
	rst.InitHistory(c.B.Vars, initB, initB, initV)
	c.Mode = mode
}

// handoffFor returns the operational or test handoff for the given signal
// ('I' or 'B') and source.
func (c *Converter) handoffFor(signal byte, src RSTSource) *paramset.Handoff[rst.Pars] {
	switch {
	case signal == 'I' && src == Operational:
		return c.iregOp
	case signal == 'I' && src == Test:
		return c.iregTest
	case signal == 'B' && src == Operational:
		return c.bregOp
	default:
		return c.bregTest
	}
}

// loadFor returns the load model RST synthesis should tune against for src:
// the test slot uses LoadTest once it has been configured (Ohms != 0),
// otherwise it falls back to the same operational load everything else
// uses.
func (c *Converter) loadFor(src RSTSource) load.Pars {
	if src == Test && c.LoadTest.Ohms != 0 {
		return c.LoadTest
	}
	return c.Load
}

// Configure is the background parameter-application entry point. mask is
// the OR of the paramtable flags invalidated by whatever options the caller
// just applied via a paramtable.Table (see ApplyParam); Configure re-runs
// the corresponding sub-initialisers in hierarchical order (sim/voltage-
// source, then limits, then measurement filters, then load, then RST) and,
// for IREG/BREG, busy-waits for the RT context to consume the previous
// publication before writing and publishing the new coefficients.
func (c *Converter) Configure(mask paramtable.Flags) Status {
	status := StatusOK

	// stage 1: sim/voltage-source
	if mask&(paramtable.PCSimVS|paramtable.LoadSim) != 0 {
		b, a := c.Load.VS.Discretize(c.IterPeriod)
		c.simVS, c.simVSa = b, a
	}
	if mask&paramtable.MeasSimDelays != 0 {
		c.actDelay = nil
		if c.Load.VS.ActuationDelayIters > 0 {
			c.actDelay = load.NewDelayLine(int(c.Load.VS.ActuationDelayIters), c.simHistX[0])
		}
		c.respDelay = nil
		if c.Load.VS.ResponseDelayIters > 0 {
			c.respDelay = load.NewDelayLine(int(c.Load.VS.ResponseDelayIters), c.simHistI[0])
		}
		c.vRefDelay = nil
		if total := int(c.Load.VS.ActuationDelayIters + c.Load.VS.ResponseDelayIters); total > 0 {
			c.vRefDelay = load.NewDelayLine(total, c.lastVCommand)
		}
	}
	if mask&paramtable.MeasSimNoise != 0 {
		c.noise.Reset()
	}

	// stage 2: limits
	if mask&paramtable.InvertLimits != 0 && c.InvertLimits != c.limitsInverted {
		mirrorRefLimiterWindow(&c.vWindowCfg)
		mirrorRefLimiterWindow(&c.I.RefLimiter.Window)
		mirrorRefLimiterWindow(&c.B.RefLimiter.Window)
		c.limitsInverted = c.InvertLimits
	}
	if mask&paramtable.VLimitsRef != 0 {
		c.V.RefLimiter.Reset(c.V.Unfiltered)
		c.V.RefLimiter.Window = c.vWindowCfg
		c.V.RefLimiter.Quadrant = buildQuadrantEnvelope(c.vQuadrantPoints)
	}
	if mask&paramtable.ILimitsRef != 0 {
		c.I.RefLimiter.Reset(c.I.Unfiltered)
	}
	if mask&paramtable.BLimitsRef != 0 {
		c.B.RefLimiter.Reset(c.B.Unfiltered)
	}
	if mask&paramtable.VLimitsErr != 0 {
		c.V.ErrCheck.Warning.Reset()
		c.V.ErrCheck.Fault.Reset()
	}
	if mask&paramtable.ILimitsErr != 0 {
		c.I.ErrCheck.Warning.Reset()
		c.I.ErrCheck.Fault.Reset()
	}
	if mask&paramtable.BLimitsErr != 0 {
		c.B.ErrCheck.Warning.Reset()
		c.B.ErrCheck.Fault.Reset()
	}
	if mask&paramtable.ILimitsMeas != 0 {
		c.I.MeasLimit = limit.MeasLimiter{Pos: c.I.MeasLimit.Pos, Neg: c.I.MeasLimit.Neg,
			ZeroFactor: c.I.MeasLimit.ZeroFactor, LowFactor: c.I.MeasLimit.LowFactor}
	}
	if mask&paramtable.BLimitsMeas != 0 {
		c.B.MeasLimit = limit.MeasLimiter{Pos: c.B.MeasLimit.Pos, Neg: c.B.MeasLimit.Neg,
			ZeroFactor: c.B.MeasLimit.ZeroFactor, LowFactor: c.B.MeasLimit.LowFactor}
	}
	if mask&(paramtable.ILimitsRMS|paramtable.ILimitsRMSLoad) != 0 {
		c.I.RMS.Reset()
	}

	// stage 3: measurement filters
	if mask&paramtable.IMeasFilter != 0 {
		c.I.FIR = meas.NewFIRFilter(c.I.FIRTaps)
		c.I.DelayIters[meas.Filtered] = c.I.FIR.GroupDelayIters()
	}
	if mask&paramtable.BMeasFilter != 0 {
		c.B.FIR = meas.NewFIRFilter(c.B.FIRTaps)
		c.B.DelayIters[meas.Filtered] = c.B.FIR.GroupDelayIters()
	}
	if mask&paramtable.IMeasRegSelect != 0 {
		refreshRegErrMeasSelect(&c.I)
	}
	if mask&paramtable.BMeasRegSelect != 0 {
		refreshRegErrMeasSelect(&c.B)
	}

	// stage 4: load
	if mask&(paramtable.Load|paramtable.LoadSat) != 0 {
		rst.InitHistory(c.I.Vars, c.I.Unfiltered, c.I.Unfiltered, c.simHistV[0])
		rst.InitHistory(c.B.Vars, c.B.Unfiltered, c.B.Unfiltered, c.simHistV[0])
	}

	// stage 5: RST
	if mask&(paramtable.IReg|paramtable.IRegTest) != 0 {
		src := Operational
		if mask&paramtable.IRegTest != 0 {
			src = Test
		}
		h := c.handoffFor('I', src)
		next := h.Writable()
		st := rst.Synthesize(next, c.PeriodItersI, c.IterPeriod, c.loadFor(src), c.AuxI, c.DelaysI, rst.ModeCurrent, nil)
		if st != StatusFault {
			h.Publish()
		} else {
			status = st
		}
	}

	if mask&(paramtable.BReg|paramtable.BRegTest) != 0 {
		src := Operational
		if mask&paramtable.BRegTest != 0 {
			src = Test
		}
		h := c.handoffFor('B', src)
		next := h.Writable()
		st := rst.Synthesize(next, c.PeriodItersB, c.IterPeriod, c.loadFor(src), c.AuxB, c.DelaysB, rst.ModeField, nil)
		if st != StatusFault {
			h.Publish()
		} else {
			status = st
		}
	}

	return status
}

// mirrorRefLimiterWindow negates every bound of a ClipWindow in place so a
// toggled InvertLimits flips which side of zero a reference is clamped
// against (Min stays a magnitude, not a signed bound).
func mirrorRefLimiterWindow(w *limit.ClipWindow) {
	w.Pos, w.Neg = -w.Neg, -w.Pos
}

// buildQuadrantEnvelope decodes a flat (I0,V0,I1,V1,...) points array into a
// QuadrantEnvelope, or nil if fewer than one full (I,V) pair is present
// (disabling the quadrant constraint).
func buildQuadrantEnvelope(points []float64) *limit.QuadrantEnvelope {
	n := len(points) / 2
	if n < 1 {
		return nil
	}
	pts := make([]limit.QuadrantPoint, n)
	for i := 0; i < n; i++ {
		pts[i] = limit.QuadrantPoint{I: points[2*i], V: points[2*i+1]}
	}
	return &limit.QuadrantEnvelope{Points: pts}
}

// recomputeVRefWindow is regLimVrefCalcRT: narrows vWindowCfg's magnitude
// bound to the quadrant envelope's admissible |V| at the present (unfiltered)
// current, so the VOLTAGE-mode clip applied by RegulateRT (and the
// CURRENT-mode actuation clip in regulateTick) reflects the converter's
// present operating point rather than a fixed window.
func (c *Converter) recomputeVRefWindow() {
	c.V.RefLimiter.Window = c.vWindowCfg
	q := c.V.RefLimiter.Quadrant
	if q == nil {
		return
	}
	bound := q.Bound(math.Abs(c.I.Unfiltered))
	if bound < c.V.RefLimiter.Window.Pos {
		c.V.RefLimiter.Window.Pos = bound
	}
	if -bound > c.V.RefLimiter.Window.Neg {
		c.V.RefLimiter.Window.Neg = -bound
	}
}

// publishPending swaps in any RST coefficient set the background context
// has finished publishing since the last iteration, for whichever handoff
// is presently selected by RSTSource.
func (c *Converter) publishPending() {
	hi := c.handoffFor('I', c.RSTSource)
	if hi.Take() {
		// no-op beyond the swap itself; Active() below observes it
	}
	c.I.Pars = hi.Active()

	hb := c.handoffFor('B', c.RSTSource)
	hb.Take()
	c.B.Pars = hb.Active()
}

// SetModeRT changes the current regulation mode, seeding histories so the
// transition is bumpless.
func (c *Converter) SetModeRT(mode rst.Mode) {
	switch mode {
	case rst.ModeNone:
		c.I.IsDelayedRefAvailable = false
		c.B.IsDelayedRefAvailable = false
		c.I.ErrCheck.Warning = limit.DebounceLimit{}
		c.I.ErrCheck.Fault = limit.DebounceLimit{}
		c.B.ErrCheck.Warning = limit.DebounceLimit{}
		c.B.ErrCheck.Fault = limit.DebounceLimit{}

	case rst.ModeVoltage:
		var prior *RegSignal
		switch c.Mode {
		case rst.ModeCurrent:
			prior = &c.I
		case rst.ModeField:
			prior = &c.B
		}
		if prior != nil {
			vref := rst.AverageVRef(prior.Vars)
			if c.Mode == rst.ModeCurrent {
				vref = float64(load.VrefSat(c.Load, units.Amps(prior.Unfiltered), units.Volts(vref)))
			}
			c.V.Unfiltered = vref
			prior.IsDelayedRefAvailable = false
		}

	case rst.ModeCurrent, rst.ModeField:
		sig := &c.I
		if mode == rst.ModeField {
			sig = &c.B
		}
		if c.PCActuation == VoltageRef {
			rst.InitRef(sig.Pars, sig.Vars, sig.Rate.Rate)
			sig.IsOpenloop = true
			refreshRegErrMeasSelect(sig)
		} else {
			rst.InitHistory(sig.Vars, sig.Unfiltered, sig.Unfiltered, 0)
			sig.Pars.RefDelayPeriods = sig.Pars.RefAdvance / c.IterPeriod
			sig.IsOpenloop = true
		}
	}
	c.Mode = mode
}
