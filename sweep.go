package tensionwall

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// SweepPoint is one parameter variation in a sweep, applied on top of the
// scenario's own config.
type SweepPoint struct {
	Name      string          `yaml:"name" json:"name"`
	Overrides ConfigOverrides `yaml:"overrides" json:"overrides"`
}

// SweepResult pairs a point's effective config with its replay report.
type SweepResult struct {
	Name   string `json:"name"`
	Config Config `json:"config"`
	RunReport
}

// RunSweep replays one scenario across every point, up to parallel replays
// at a time (NumCPU when parallel <= 0). Each point gets a fresh engine, so
// points never contaminate each other. The first failing point cancels the
// rest.
func RunSweep(ctx context.Context, s *Scenario, points []SweepPoint, parallel int) ([]SweepResult, error) {
	if len(points) == 0 {
		return nil, &ConfigError{Param: "points", Reason: "at least one sweep point required"}
	}
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	log := slog.Default().With("component", "sweep")
	log.Info("sweep started", "scenario", s.Name, "points", len(points), "parallel", parallel)

	base := s.EngineConfig()
	results := make([]SweepResult, len(points))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, point := range points {
		g.Go(func() error {
			cfg := point.Overrides.Apply(base)
			engine, err := New(s.Modules, s.Edges, cfg)
			if err != nil {
				return fmt.Errorf("point %q: %w", point.Name, err)
			}
			report, err := s.Replay(ctx, engine)
			if err != nil {
				return fmt.Errorf("point %q: %w", point.Name, err)
			}
			results[i] = SweepResult{Name: point.Name, Config: cfg, RunReport: report}
			log.Debug("point done",
				"point", point.Name,
				"final_phase", string(report.FinalPhase),
				"peak", report.Peak)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("sweep finished", "scenario", s.Name, "points", len(points))
	return results, nil
}

// MultiplierPoints builds one sweep point per defense multiplier value.
func MultiplierPoints(values ...float64) []SweepPoint {
	points := make([]SweepPoint, len(values))
	for i, v := range values {
		points[i] = SweepPoint{
			Name:      fmt.Sprintf("multiplier=%g", v),
			Overrides: ConfigOverrides{DefenseMultiplier: &values[i]},
		}
	}
	return points
}

// DtPoints builds one sweep point per integration step value.
func DtPoints(values ...float64) []SweepPoint {
	points := make([]SweepPoint, len(values))
	for i, v := range values {
		points[i] = SweepPoint{
			Name:      fmt.Sprintf("dt=%g", v),
			Overrides: ConfigOverrides{Dt: &values[i]},
		}
	}
	return points
}

// PolicyPoints builds one sweep point per update policy.
func PolicyPoints() []SweepPoint {
	policies := []UpdatePolicy{PolicyAlgebraic, PolicyIntegrative}
	points := make([]SweepPoint, len(policies))
	for i := range policies {
		points[i] = SweepPoint{
			Name:      string(policies[i]),
			Overrides: ConfigOverrides{UpdatePolicy: &policies[i]},
		}
	}
	return points
}
