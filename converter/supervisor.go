// Package converter implements the converter supervisor and parameter
// handoff (component C5): mode transitions, the power-converter lifecycle
// state machine, double-buffered parameter publication, and the
// per-iteration orchestration tying measurement, limiting and RST
// regulation together.
package converter

// State is a power-converter supervisory lifecycle state.
type State int

const (
	FO State = iota // fault-off
	OF               // off
	FS               // fault-standby
	SP               // stopping
	ST               // starting
	SA               // slow-abort
	TS               // to-standby
	SB               // standby
	IL               // idle
	AR               // armed
	RN               // running
	AB               // aborting
	TC               // to-cycling
	CY               // cycling
)

func (s State) String() string {
	switch s {
	case FO:
		return "FO"
	case OF:
		return "OF"
	case FS:
		return "FS"
	case SP:
		return "SP"
	case ST:
		return "ST"
	case SA:
		return "SA"
	case TS:
		return "TS"
	case SB:
		return "SB"
	case IL:
		return "IL"
	case AR:
		return "AR"
	case RN:
		return "RN"
	case AB:
		return "AB"
	case TC:
		return "TC"
	case CY:
		return "CY"
	default:
		return "?"
	}
}

// SupervisorInputs is the explicit set of discrete inputs, fault bits and
// operator flags the transition predicates evaluate each iteration, in
// place of the source's process-wide globals.
type SupervisorInputs struct {
	PwrFailure  bool
	FastAbort   bool
	NoPCPermit  bool
	VSPowerOn   bool
	VSReady     bool
	VSRun       bool
	Stop        bool
	Start       bool
	IntlkSpare  bool
	SlowAbort   bool
	ToStandby   bool
	Aborting    bool
	Idle        bool
	Armed       bool
	Running     bool
	ToCycling   bool
	Cycling     bool
	FirstFaults bool
}

func (in SupervisorInputs) faultsPresent() bool {
	return in.PwrFailure || in.FastAbort || in.NoPCPermit || in.IntlkSpare || in.SlowAbort
}

// transition is one row of the priority-ordered predicate table. A nil
// from list matches any current state.
type transition struct {
	from []State
	pred func(SupervisorInputs) bool
	to   State
}

func (t transition) matches(s State) bool {
	if t.from == nil {
		return true
	}
	for _, f := range t.from {
		if f == s {
			return true
		}
	}
	return false
}

// transitions is scanned in order every iteration; the first row whose
// from-state matches the current state and whose predicate holds fires.
// Order mirrors the priority listing: fault paths first, then the
// START/run/cycle progression.
var transitions = []transition{
	{[]State{OF}, func(i SupervisorInputs) bool { return i.PwrFailure || i.FastAbort || i.NoPCPermit }, FO},
	{[]State{FS}, func(i SupervisorInputs) bool { return !i.VSPowerOn && i.FirstFaults }, FO},
	{[]State{FO}, func(i SupervisorInputs) bool { return !i.faultsPresent() }, OF},
	{nil, func(i SupervisorInputs) bool { return i.PwrFailure || i.FastAbort || (!i.VSReady && i.NoPCPermit) }, FS},
	{[]State{ST, SA, TS, SB, IL, AR, RN, AB, TC, CY}, func(i SupervisorInputs) bool { return i.Stop || !i.VSReady || !i.VSRun }, SP},
	{[]State{OF}, func(i SupervisorInputs) bool { return i.Start }, ST},
	{nil, func(i SupervisorInputs) bool { return i.IntlkSpare || i.SlowAbort }, SA},
	{[]State{ST}, func(i SupervisorInputs) bool { return i.VSPowerOn && i.VSReady }, TS},
	{[]State{TS}, func(i SupervisorInputs) bool { return !i.ToStandby }, SB},
	{[]State{TS}, func(i SupervisorInputs) bool { return i.Aborting }, AB},
	{[]State{SB}, func(i SupervisorInputs) bool { return i.Idle }, IL},
	{[]State{IL}, func(i SupervisorInputs) bool { return i.Armed }, AR},
	{[]State{AR}, func(i SupervisorInputs) bool { return i.Running }, RN},
	{[]State{RN}, func(i SupervisorInputs) bool { return i.Aborting }, AB},
	{[]State{SB}, func(i SupervisorInputs) bool { return i.ToCycling }, TC},
	{[]State{TC}, func(i SupervisorInputs) bool { return i.Cycling }, CY},
}

// Step scans the transition table in priority order and returns the state
// following one supervisor iteration. The initial state is OF.
func Step(current State, in SupervisorInputs) State {
	for _, t := range transitions {
		if t.matches(current) && t.pred(in) {
			return t.to
		}
	}
	return current
}
