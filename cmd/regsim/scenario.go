package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/noxworld-test/cclibs/load"
	"github.com/noxworld-test/cclibs/rst"
	"github.com/noxworld-test/cclibs/units"
)

// Scenario is the YAML description of one simulation run: the
// iteration/regulation timing, the load model, bandwidth targets, limits,
// and the reference profile to apply.
type Scenario struct {
	IterPeriodUs uint32  `yaml:"iter_period_us"`
	PeriodIters  uint32  `yaml:"period_iters"`
	Mode         string  `yaml:"mode"` // voltage|current|field
	Iterations   int     `yaml:"iterations"`

	Load struct {
		Ohms           float64 `yaml:"ohms"`
		HenriesNominal float64 `yaml:"henries_nominal"`
		HenriesSat     float64 `yaml:"henries_sat"`
		ISatStart      float64 `yaml:"i_sat_start"`
		ISatEnd        float64 `yaml:"i_sat_end"`
		VSBandwidthHz  float64 `yaml:"vs_bandwidth_hz"`
		VSZeta         float64 `yaml:"vs_zeta"`
		VSTauZero      float64 `yaml:"vs_tau_zero"`
	} `yaml:"load"`

	Reg struct {
		AuxPole1Hz float64 `yaml:"auxpole1_hz"`
		AuxPole2Hz float64 `yaml:"auxpole2_hz"`
		AuxPole3Hz float64 `yaml:"auxpole3_hz"`
		AuxPole4Hz float64 `yaml:"auxpole4_hz"`
		PureDelayIters float64 `yaml:"pure_delay_iters"`
	} `yaml:"reg"`

	Limits struct {
		VPos float64 `yaml:"v_pos"`
		VNeg float64 `yaml:"v_neg"`
		IPos float64 `yaml:"i_pos"`
		INeg float64 `yaml:"i_neg"`
	} `yaml:"limits"`

	Ref struct {
		Step    float64 `yaml:"step"`
		AtIters int     `yaml:"at_iters"`
	} `yaml:"ref"`

	NoisePP float64 `yaml:"noise_pp"`
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("regsim: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("regsim: %w", err)
	}
	if s.IterPeriodUs == 0 {
		s.IterPeriodUs = 1000
	}
	if s.PeriodIters == 0 {
		s.PeriodIters = 10
	}
	if s.Iterations == 0 {
		s.Iterations = 1000
	}
	return &s, nil
}

// Validate checks the scenario for the settings Synthesize and the load
// model need to produce a usable (non-FAULT) regulation loop, without
// actually running a simulation.
func (s *Scenario) Validate() error {
	if s.Load.Ohms <= 0 {
		return fmt.Errorf("regsim: load.ohms must be > 0")
	}
	if s.Load.HenriesNominal <= 0 {
		return fmt.Errorf("regsim: load.henries_nominal must be > 0")
	}
	if s.Reg.AuxPole1Hz <= 0 {
		return fmt.Errorf("regsim: reg.auxpole1_hz must be > 0")
	}
	switch s.Mode {
	case "voltage", "current", "field":
	default:
		return fmt.Errorf("regsim: mode must be one of voltage, current, field, got %q", s.Mode)
	}
	ld := s.loadPars()
	status := synthesizeProbe(ld, s.regBandwidths(), s.regDelays(), s.PeriodIters, float64(s.IterPeriodUs)/1e6)
	if status == rst.StatusFault {
		return fmt.Errorf("regsim: RST synthesis would FAULT with these parameters")
	}
	return nil
}

func (s *Scenario) loadPars() load.Pars {
	return load.Pars{
		Ohms: s.Load.Ohms,
		Sat: load.SatPars{
			HenriesNominal: units.Henries(s.Load.HenriesNominal),
			HenriesSat:     units.Henries(s.Load.HenriesSat),
			IStart:         units.Amps(s.Load.ISatStart),
			IEnd:           units.Amps(s.Load.ISatEnd),
		},
		VS: load.VSPars{
			BandwidthHz: s.Load.VSBandwidthHz,
			Zeta:        s.Load.VSZeta,
			TauZero:     s.Load.VSTauZero,
		},
	}
}

// synthesizeProbe runs RST synthesis into a throwaway Pars, returning only
// the resulting status, so Validate can check for a FAULT outcome without
// touching a live Converter.
func synthesizeProbe(ld load.Pars, bw rst.AuxPoleBandwidths, delays rst.Delays, periodIters uint32, iterPeriod float64) rst.Status {
	return rst.Synthesize(new(rst.Pars), periodIters, iterPeriod, ld, bw, delays, rst.ModeCurrent, nil)
}

func (s *Scenario) regBandwidths() rst.AuxPoleBandwidths {
	return rst.AuxPoleBandwidths{
		AuxPole1Hz: s.Reg.AuxPole1Hz,
		AuxPole2Hz: s.Reg.AuxPole2Hz,
		AuxPole3Hz: s.Reg.AuxPole3Hz,
		AuxPole4Hz: s.Reg.AuxPole4Hz,
	}
}

func (s *Scenario) regDelays() rst.Delays {
	return rst.Delays{PureDelayIters: s.Reg.PureDelayIters}
}
