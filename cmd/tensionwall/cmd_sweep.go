package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alexshd/tensionwall"
)

var (
	sweepScenario    string
	sweepMultipliers []float64
	sweepDts         []float64
	sweepPolicies    bool
	sweepParallel    int
	sweepOutput      string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Replay one scenario across parameter variations",
	Long: `Replay a scenario once per parameter variation and compare outcomes.

Each point patches the scenario's config (defense multiplier, integration
step, or update policy), gets a fresh engine, and replays the full schedule.
Replays run in parallel.`,
	Example: `  tensionwall sweep --scenario cascade.yaml --multiplier 1.0 --multiplier 1.8 --multiplier 2.5
  tensionwall sweep --scenario cascade.yaml --policies --parallel 2`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepScenario, "scenario", "", "scenario file (YAML or JSON)")
	sweepCmd.Flags().Float64SliceVar(&sweepMultipliers, "multiplier", nil, "defense multiplier values to sweep")
	sweepCmd.Flags().Float64SliceVar(&sweepDts, "dt", nil, "integration step values to sweep")
	sweepCmd.Flags().BoolVar(&sweepPolicies, "policies", false, "sweep both update policies")
	sweepCmd.Flags().IntVar(&sweepParallel, "parallel", 0, "max concurrent replays (0 = NumCPU)")
	sweepCmd.Flags().StringVar(&sweepOutput, "output", "text", "report format (text, json)")
	_ = sweepCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scenario, err := tensionwall.LoadScenario(sweepScenario)
	if err != nil {
		return err
	}

	var points []tensionwall.SweepPoint
	points = append(points, tensionwall.MultiplierPoints(sweepMultipliers...)...)
	points = append(points, tensionwall.DtPoints(sweepDts...)...)
	if sweepPolicies {
		points = append(points, tensionwall.PolicyPoints()...)
	}
	if len(points) == 0 {
		return errors.New("nothing to sweep: pass --multiplier, --dt, or --policies")
	}

	results, err := tensionwall.RunSweep(ctx, scenario, points, sweepParallel)
	if err != nil {
		return err
	}

	if sweepOutput == "json" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("%-24s %-12s %8s %8s %8s\n", "POINT", "FINAL", "PEAK", "TO-FW", "TO-REC")
	for _, r := range results {
		fmt.Printf("%-24s %-12s %8.4f %8s %8s\n",
			r.Name, r.FinalPhase, r.Peak,
			formatCycles(r.CyclesToFirewall), formatCycles(r.CyclesToRecovery))
	}
	return nil
}

func formatCycles(n int) string {
	if n < 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}
