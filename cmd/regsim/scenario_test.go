package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScenario() *Scenario {
	s := &Scenario{Mode: "current"}
	s.Load.Ohms = 2
	s.Load.HenriesNominal = 0.05
	s.Load.HenriesSat = 0.05
	s.Reg.AuxPole1Hz = 30
	s.IterPeriodUs = 1000
	s.PeriodIters = 10
	return s
}

func TestLoadScenarioFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: current\nload:\n  ohms: 2\n  henries_nominal: 0.05\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), s.IterPeriodUs)
	assert.Equal(t, uint32(10), s.PeriodIters)
	assert.Equal(t, 1000, s.Iterations)
	assert.Equal(t, 2.0, s.Load.Ohms)
}

func TestLoadScenarioPreservesExplicitValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("iter_period_us: 500\nperiod_iters: 4\niterations: 50\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(500), s.IterPeriodUs)
	assert.Equal(t, uint32(4), s.PeriodIters)
	assert.Equal(t, 50, s.Iterations)
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateAcceptsWellFormedScenario(t *testing.T) {
	assert.NoError(t, validScenario().Validate())
}

func TestValidateRejectsNonPositiveOhms(t *testing.T) {
	s := validScenario()
	s.Load.Ohms = 0
	assert.Error(t, s.Validate())
}

func TestValidateRejectsNonPositiveInductance(t *testing.T) {
	s := validScenario()
	s.Load.HenriesNominal = 0
	assert.Error(t, s.Validate())
}

func TestValidateRejectsNonPositiveAuxPole(t *testing.T) {
	s := validScenario()
	s.Reg.AuxPole1Hz = 0
	assert.Error(t, s.Validate())
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	s := validScenario()
	s.Mode = "bogus"
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode must be one of")
}
