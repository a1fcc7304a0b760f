// Package paramtable implements the tagged configuration-option model that
// the background context uses to apply parameter changes to the regulation
// core: a flat table of named options, each carrying its element kind, an
// optional enum table, a typed setter closure, and the dirty-detection flags
// it invalidates when changed.
//
// This replaces libreg's {type, pointer} table-plus-memcmp design (see
// cctest/pars/vs.h and global.h in the original source) with a sum type over
// {Float, Unsigned, Enum, String} whose variant carries a typed setter
// closure, and dirty detection by equality on the typed value rather than a
// byte-for-byte memcmp.
package paramtable

import "fmt"

// Kind is the element type of an Option's value.
type Kind int

const (
	KindFloat Kind = iota
	KindUnsigned
	KindEnum
	KindString
)

// EnumValue names one admissible value of an enum-kind Option.
type EnumValue struct {
	Value uint32
	Name  string
}

// EnumTable is the set of admissible named values for an enum Option.
type EnumTable []EnumValue

// Name returns the display name for v, or "" if v is not in the table.
func (t EnumTable) Name(v uint32) string {
	for _, e := range t {
		if e.Value == v {
			return e.Name
		}
	}
	return ""
}

// Lookup returns the value for the named enum entry.
func (t EnumTable) Lookup(name string) (uint32, bool) {
	for _, e := range t {
		if e.Name == name {
			return e.Value, true
		}
	}
	return 0, false
}

// Flags marks which sub-initialisers an Option invalidates when it changes,
// and whether it is load-selected or a test-parameter slot. One bit per
// option group from the recognised-group table.
type Flags uint32

const (
	PCSimVS Flags = 1 << iota
	InvertLimits
	VLimitsRef
	ILimitsRef
	BLimitsRef
	VLimitsErr
	ILimitsErr
	BLimitsErr
	ILimitsMeas
	BLimitsMeas
	ILimitsRMS
	ILimitsRMSLoad
	IMeasFilter
	BMeasFilter
	IMeasRegSelect
	BMeasRegSelect
	MeasSimDelays
	MeasSimNoise
	Load
	LoadSat
	LoadSim
	LoadTest
	IReg
	BReg
	IRegTest
	BRegTest
	// LoadSelect and TestParam are not sub-initialiser flags; they mark an
	// option as array-valued-by-index or as belonging to the test parameter
	// set, respectively, and are never OR'd into a Configure mask.
	LoadSelect
	TestParam
)

// Value is a typed snapshot of an Option's value, used both to apply a new
// value and, internally, to remember the last-applied one for dirty
// detection.
type Value struct {
	Floats []float64
	Uints  []uint32
	Str    string
}

// Option is one entry of the tagged parameter table: a name (for
// diagnostics), an element kind, a maximum element count, an enum table (if
// Kind is KindEnum), a default element count, and the flags it invalidates.
type Option struct {
	Name         string
	Kind         Kind
	MaxElems     int
	Enum         EnumTable
	DefaultCount int
	Flags        Flags

	apply func(Value) bool
}

// Apply sets the Option from v. It returns true if the new value differs
// from the one most recently applied (libreg's "dirty" detection). An
// accepted value is written through to the backing storage whether or not
// it changed; an empty value or an enum value outside the option's table is
// not written.
func (o *Option) Apply(v Value) bool {
	return o.apply(v)
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func uintsEqual(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Float declares a single scalar float Option backed by dst.
func Float(name string, dst *float64, flags Flags) *Option {
	last := *dst
	return &Option{
		Name: name, Kind: KindFloat, MaxElems: 1, DefaultCount: 1, Flags: flags,
		apply: func(v Value) bool {
			if len(v.Floats) == 0 {
				return false
			}
			changed := v.Floats[0] != last
			*dst = v.Floats[0]
			last = v.Floats[0]
			return changed
		},
	}
}

// FloatArray declares a fixed-length float array Option backed by dst.
// len(dst) is both the max and default element count.
func FloatArray(name string, dst []float64, flags Flags) *Option {
	last := append([]float64(nil), dst...)
	return &Option{
		Name: name, Kind: KindFloat, MaxElems: len(dst), DefaultCount: len(dst), Flags: flags,
		apply: func(v Value) bool {
			n := min(len(v.Floats), len(dst))
			changed := !floatsEqual(last, v.Floats[:n])
			copy(dst, v.Floats[:n])
			last = append(last[:0], dst...)
			return changed
		},
	}
}

// Unsigned declares a single scalar unsigned Option backed by dst.
func Unsigned(name string, dst *uint32, flags Flags) *Option {
	last := *dst
	return &Option{
		Name: name, Kind: KindUnsigned, MaxElems: 1, DefaultCount: 1, Flags: flags,
		apply: func(v Value) bool {
			if len(v.Uints) == 0 {
				return false
			}
			changed := v.Uints[0] != last
			*dst = v.Uints[0]
			last = v.Uints[0]
			return changed
		},
	}
}

// Enum declares a single scalar enum Option backed by dst, validated against
// table.
func Enum(name string, dst *uint32, table EnumTable, flags Flags) *Option {
	last := *dst
	return &Option{
		Name: name, Kind: KindEnum, MaxElems: 1, DefaultCount: 1, Enum: table, Flags: flags,
		apply: func(v Value) bool {
			if len(v.Uints) == 0 {
				return false
			}
			nv := v.Uints[0]
			if table.Name(nv) == "" {
				// out-of-range enum value: rejected silently, previous
				// value retained.
				return false
			}
			changed := nv != last
			*dst = nv
			last = nv
			return changed
		},
	}
}

// String declares a single string Option backed by dst.
func String(name string, dst *string, flags Flags) *Option {
	last := *dst
	return &Option{
		Name: name, Kind: KindString, MaxElems: 1, DefaultCount: 1, Flags: flags,
		apply: func(v Value) bool {
			changed := v.Str != last
			*dst = v.Str
			last = v.Str
			return changed
		},
	}
}

// Table is a flat list of configuration options, scanned by name on Apply.
type Table struct {
	Options []*Option
}

// NewTable returns a Table over opts.
func NewTable(opts ...*Option) *Table {
	return &Table{Options: opts}
}

// Apply looks up the named option and applies v to it, returning the flags
// it invalidates if the value changed (zero flags and changed=false
// otherwise).
func (t *Table) Apply(name string, v Value) (flags Flags, changed bool, err error) {
	for _, o := range t.Options {
		if o.Name == name {
			changed = o.Apply(v)
			if changed {
				flags = o.Flags
			}
			return
		}
	}
	return 0, false, fmt.Errorf("paramtable: unknown option %q", name)
}
