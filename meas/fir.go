// Package meas implements the measurement pipeline (component C2): FIR
// filtering, rate estimation, and the simulation noise/tone source. The
// per-signal aggregate (Channel) that also carries limiter and RST parameter
// state lives in the converter package, which composes meas, limit and rst
// together — meas itself stays free of any dependency on them.
package meas

import "github.com/noxworld-test/cclibs/internal/fixedbuf"

// Selector distinguishes the unfiltered and filtered measurement paths,
// which carry independent delay bookkeeping for the RST timing calculations.
type Selector int

const (
	Unfiltered Selector = iota
	Filtered
)

// firStage is one cascaded FIR stage: an odd- or even-length tap set and its
// own input history ring.
type firStage struct {
	coeffs []float64
	ring   *fixedbuf.Ring[float64]
	idx    int
}

func newFIRStage(coeffs []float64) *firStage {
	if len(coeffs) == 0 {
		coeffs = []float64{1}
	}
	return &firStage{
		coeffs: coeffs,
		ring:   fixedbuf.NewRing[float64](len(coeffs) + 1),
	}
}

func (s *firStage) push(x float64) float64 {
	s.idx++
	s.ring.Set(s.idx, x)
	var sum float64
	for i, c := range s.coeffs {
		sum += c * s.ring.At(s.idx, i)
	}
	return sum
}

// groupDelayIters returns the stage's group delay, in iterations.
func (s *firStage) groupDelayIters() float64 {
	return float64(len(s.coeffs)-1) / 2
}

// FIRFilter cascades one or more FIR stages, each with independently
// configurable tap length.
type FIRFilter struct {
	stages []*firStage
}

// NewFIRFilter builds a cascade from one coefficient set per stage. An empty
// coefficient set passes its input through unfiltered, and a single-element
// set scales its input by that coefficient; either still counts as a
// (zero-delay) stage.
func NewFIRFilter(coeffSets ...[]float64) *FIRFilter {
	f := &FIRFilter{}
	for _, c := range coeffSets {
		f.stages = append(f.stages, newFIRStage(c))
	}
	return f
}

// Filter pushes x through every cascaded stage in order and returns the
// final output.
func (f *FIRFilter) Filter(x float64) float64 {
	for _, s := range f.stages {
		x = s.push(x)
	}
	return x
}

// GroupDelayIters returns the filter's total group delay across all
// cascaded stages, in iterations.
func (f *FIRFilter) GroupDelayIters() float64 {
	var d float64
	for _, s := range f.stages {
		d += s.groupDelayIters()
	}
	return d
}

// Reconfigure replaces the filter's stages in place (used by the background
// Configure path when I/B_MEAS_FILTER parameters change).
func (f *FIRFilter) Reconfigure(coeffSets ...[]float64) {
	f.stages = f.stages[:0]
	for _, c := range coeffSets {
		f.stages = append(f.stages, newFIRStage(c))
	}
}
