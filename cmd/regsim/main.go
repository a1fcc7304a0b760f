package main

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/noxworld-test/cclibs/converter"
	"github.com/noxworld-test/cclibs/internal/cliplot"
	"github.com/noxworld-test/cclibs/paramtable"
	"github.com/noxworld-test/cclibs/rst"
)

func main() {
	log.SetFlags(0)
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

type runOpts struct {
	out string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "regsim",
		Short: "Simulate a power-converter regulation loop against a YAML scenario",
	}

	var o runOpts
	runCmd := &cobra.Command{
		Use:   "run scenario.yaml",
		Short: "Run a scenario and write a CSV trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(args[0], o.out)
		},
	}
	runCmd.Flags().StringVar(&o.out, "out", "regsim.csv", "path to write the CSV trace")
	root.AddCommand(runCmd)

	validateCmd := &cobra.Command{
		Use:   "validate scenario.yaml",
		Short: "Check a scenario's parameters without simulating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := LoadScenario(args[0])
			if err != nil {
				return err
			}
			if err := s.Validate(); err != nil {
				return err
			}
			fmt.Println("scenario OK")
			return nil
		},
	}
	root.AddCommand(validateCmd)

	return root
}

func regMode(s string) rst.Mode {
	switch s {
	case "current":
		return rst.ModeCurrent
	case "field":
		return rst.ModeField
	default:
		return rst.ModeVoltage
	}
}

// runScenario builds a Converter from the scenario, drives it open-loop
// against the built-in load simulator for Iterations steps, and traces
// reference, actuation and measurement to a CSV file. It stands in for the
// two-context RT/background split a real installation runs under: the RT
// calls (SetRT/RegulateRT/SimulateRT) run in this goroutine, and Configure
// runs on a separate background goroutine that receives its masks over a
// channel.
func runScenario(path, outPath string) error {
	s, err := LoadScenario(path)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}

	mode := regMode(s.Mode)
	c := converter.NewConverter(s.IterPeriodUs, mode == rst.ModeField, mode == rst.ModeCurrent)
	c.PeriodItersI = s.PeriodIters
	c.PeriodItersB = s.PeriodIters
	c.AuxI = s.regBandwidths()
	c.AuxB = s.regBandwidths()
	c.DelaysI = s.regDelays()
	c.DelaysB = s.regDelays()
	c.Load = s.loadPars()
	c.PCActuation = converter.VoltageRef

	c.I.CloseloopThreshold = 0
	c.B.CloseloopThreshold = 0

	// Limits are set through the named option table rather than poking
	// RefLimiter.Window fields directly, the same entry point ApplyParam
	// gives a real background context.
	for name, val := range map[string]float64{
		"v_pos": s.Limits.VPos, "v_neg": s.Limits.VNeg,
		"i_pos": s.Limits.IPos, "i_neg": s.Limits.INeg,
		"b_pos": s.Limits.IPos, "b_neg": s.Limits.INeg,
	} {
		if _, err := c.ApplyParam(name, paramtable.Value{Floats: []float64{val}}); err != nil {
			return fmt.Errorf("regsim: applying %s: %w", name, err)
		}
	}

	configure := make(chan paramtable.Flags, 1)
	configured := make(chan converter.Status, 1)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		// Background context: applies configuration changes the RT loop
		// requests, never touching RT-owned state directly. One goroutine
		// per actor, with Configure in place of a per-node Handler.
		defer wg.Done()
		for {
			select {
			case mask := <-configure:
				configured <- c.Configure(mask)
			case <-done:
				return
			}
		}
	}()

	configure <- paramtable.PCSimVS | paramtable.LoadSim | paramtable.Load | paramtable.LoadSat | paramtable.IReg | paramtable.BReg
	if status := <-configured; status == converter.StatusFault {
		close(done)
		wg.Wait()
		return fmt.Errorf("regsim: configuration faulted")
	}

	// One priming SetRT swaps the freshly published RST coefficients into
	// the active handoff slot before SetModeRT relies on them.
	c.SetRT(converter.Operational, 0, 0, true, false)

	c.InitSim(mode, 0, 0, 0)
	c.SetModeRT(mode)

	trace, err := cliplot.New(outPath, "t", "ref", "act", "meas")
	if err != nil {
		close(done)
		wg.Wait()
		return err
	}

	ref := 0.0
	ticker := time.NewTicker(time.Duration(s.IterPeriodUs) * time.Microsecond)
	defer ticker.Stop()

	for n := 0; n < s.Iterations; n++ {
		<-ticker.C

		if n == s.Ref.AtIters {
			ref = s.Ref.Step
		}

		// unixTime/usTime only matter to SetRT in NONE mode, which this
		// driver never selects, so a zero wall clock is fine here.
		c.SetRT(converter.Operational, 0, 0, true, false)

		r := ref
		c.RegulateRT(&r)

		var meas float64
		switch mode {
		case rst.ModeCurrent:
			meas = c.I.Filtered
		case rst.ModeField:
			meas = c.B.Filtered
		default:
			meas = c.V.Filtered
		}

		if err := trace.Row(float64(n)*c.IterPeriod, ref, r, meas); err != nil {
			trace.Close()
			close(done)
			wg.Wait()
			return err
		}

		c.SimulateRT(nil, 0)
	}

	err = trace.Close()
	close(done)
	wg.Wait()
	return err
}

func init() {
	if os.Getenv("REGSIM_DEBUG") != "" {
		log.SetFlags(log.Lshortfile)
	}
}
