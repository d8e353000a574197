package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexshd/tensionwall"
	"github.com/alexshd/tensionwall/feed"
)

var (
	runScenario string
	runFeed     string
	runFeedFile string
	runFeedURL  string
	runInterval time.Duration
	runEvery    int
	runSeed     int64
	runOutput   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a scenario against its schedule or a feed",
	Long: `Replay a scenario for its configured number of cycles.

By default excitations come from the scenario's own schedule. With --feed
the schedule is replaced by a synthetic random walk (walk), a polled JSON
file an operator can edit mid-run (file), or an HTTP endpoint behind a
circuit breaker (live). Interrupting a run still prints the report for the
cycles that completed.`,
	Example: `  tensionwall run --scenario cascade.yaml
  tensionwall run --scenario cascade.yaml --feed walk --interval 50ms
  tensionwall run --scenario cascade.yaml --feed live --feed-url http://localhost:9090/signals`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runScenario, "scenario", "", "scenario file (YAML or JSON)")
	runCmd.Flags().StringVar(&runFeed, "feed", "schedule", "excitation source (schedule, walk, file, live)")
	runCmd.Flags().StringVar(&runFeedFile, "feed-file", "", "excitation file for --feed file")
	runCmd.Flags().StringVar(&runFeedURL, "feed-url", "", "signal endpoint for --feed live")
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "pause between cycles (0 runs flat out)")
	runCmd.Flags().IntVar(&runEvery, "print-every", 10, "print a status line every N cycles (0 disables)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 1, "random walk seed")
	runCmd.Flags().StringVar(&runOutput, "output", "text", "report format (text, json)")
	_ = runCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scenario, err := tensionwall.LoadScenario(runScenario)
	if err != nil {
		return err
	}
	engine, err := scenario.Build()
	if err != nil {
		return err
	}

	src, cleanup, err := buildSource(scenario, engine)
	if err != nil {
		return err
	}
	defer cleanup()

	observe := func(tensionwall.Snapshot) {}
	if runEvery > 0 {
		fmt.Println("TIME     | MONITORED |   PHASE    | MULT")
		fmt.Println("---------+-----------+------------+-----")
		observe = func(snap tensionwall.Snapshot) {
			if snap.Cycle%runEvery == 0 {
				fmt.Printf("%s | %9.4f | %-10s | %.2f\n",
					time.Now().Format("15:04:05"), snap.Monitored, snap.Phase, snap.Multiplier)
			}
		}
	}

	report, err := scenario.ReplayWith(ctx, engine, src, observe)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return printRunReport(report, engine)
}

// buildSource translates the --feed flags into an input source plus its
// cleanup.
func buildSource(s *tensionwall.Scenario, e *tensionwall.Engine) (tensionwall.InputSource, func(), error) {
	noop := func() {}

	var provider feed.Provider
	switch runFeed {
	case "schedule":
		return pace(s.ScheduleSource()), noop, nil
	case "walk":
		cfg := feed.DefaultRandomWalkConfig()
		cfg.Seed = runSeed
		provider = feed.NewRandomWalk(e.ModuleIDs(), cfg)
	case "file":
		if runFeedFile == "" {
			return nil, noop, errors.New("--feed file requires --feed-file")
		}
		provider = feed.NewFileProvider(runFeedFile)
	case "live":
		if runFeedURL == "" {
			return nil, noop, errors.New("--feed live requires --feed-url")
		}
		cfg := feed.DefaultLiveConfig()
		cfg.URL = runFeedURL
		walk := feed.DefaultRandomWalkConfig()
		walk.Seed = runSeed
		provider = feed.NewLiveProvider(cfg, feed.NewRandomWalk(e.ModuleIDs(), walk))
	default:
		return nil, noop, fmt.Errorf("unknown feed %q (schedule, walk, file, live)", runFeed)
	}

	return pace(func(ctx context.Context, _ int) (map[string]float64, error) {
		return provider.Next(ctx)
	}), noop, nil
}

// pace wraps an input source with the --interval delay.
func pace(src tensionwall.InputSource) tensionwall.InputSource {
	if runInterval <= 0 {
		return src
	}
	return func(ctx context.Context, cycle int) (map[string]float64, error) {
		timer := time.NewTimer(runInterval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		return src(ctx, cycle)
	}
}

func printRunReport(report tensionwall.RunReport, e *tensionwall.Engine) error {
	if runOutput == "json" {
		out := struct {
			Report  tensionwall.RunReport        `json:"report"`
			Stats   tensionwall.DynamicsStats    `json:"stats"`
			Modules []tensionwall.ModuleSnapshot `json:"modules"`
		}{report, e.Stats(), e.State().Modules}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	stats := e.Stats()
	fmt.Printf("\nscenario %q: %d cycles, final phase %s (monitored %.4f)\n",
		report.Scenario, report.Cycles, report.FinalPhase, report.FinalMonitored)
	fmt.Printf("peak %.4f  p50 %.4f  p99 %.4f\n", stats.Peak, stats.P50, stats.P99)
	if report.CyclesToFirewall >= 0 {
		fmt.Printf("firewall at cycle %d", report.CyclesToFirewall)
		if report.CyclesToRecovery >= 0 {
			fmt.Printf(", recovered %d cycles later", report.CyclesToRecovery)
		} else {
			fmt.Printf(", not recovered by end of run")
		}
		fmt.Println()
	} else {
		fmt.Println("firewall never tripped")
	}
	for _, p := range []tensionwall.Phase{tensionwall.PhaseNominal, tensionwall.PhasePredictive, tensionwall.PhaseFirewall} {
		if n := report.PhaseCycles[p]; n > 0 {
			fmt.Printf("  %-10s %6d cycles\n", p, n)
		}
	}
	for _, m := range e.State().Modules {
		marker := " "
		if m.InCrisis {
			marker = "!"
		}
		fmt.Printf("  %s %-16s T=%.4f E=%.3f F=%.3f\n", marker, m.ID, m.Tension, m.Excitation, m.Resilience)
	}
	return nil
}
