package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexshd/tensionwall"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario>",
	Short: "Validate a scenario file without running it",
	Long: `Parse a scenario file, check its schedule references, and build (but do
not run) the engine, so coefficient and topology errors surface before a
deploy instead of at runtime.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	scenario, err := tensionwall.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if _, err := scenario.Build(); err != nil {
		return fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	cfg := scenario.EngineConfig()
	fmt.Printf("scenario %q OK: %d modules, %d edges, %d cycles, %d schedule entries\n",
		scenario.Name, len(scenario.Modules), len(scenario.Edges), scenario.Cycles, len(scenario.Schedule))
	fmt.Printf("policy %s, thresholds %.2f/%.2f (exit %.2f), multiplier %.2f\n",
		cfg.UpdatePolicy, cfg.PredictiveThreshold, cfg.FirewallThreshold,
		cfg.FirewallExitThreshold, cfg.DefenseMultiplier)
	return nil
}
