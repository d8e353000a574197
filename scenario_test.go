package tensionwall

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestLoadScenario_YAML verifies the YAML loader end to end, including the
// config patch and schedule.
func TestLoadScenario_YAML(t *testing.T) {
	raw := `
name: spike-and-recover
description: one spike, defended recovery
config:
  update_policy: algebraic
  defense_multiplier: 2.5
modules:
  - id: core
    beta: 1.0
    gamma: 1.0
    resilience: 0.5
  - id: spill
    beta: 1.0
    gamma: 1.0
edges:
  - source: core
    target: spill
    weight: 0.05
cycles: 10
schedule:
  - cycle: 0
    excitation:
      core: 1.5
  - cycle: 5
    excitation:
      core: 0.2
`
	path := filepath.Join(t.TempDir(), "spike.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	if s.Name != "spike-and-recover" {
		t.Errorf("name = %q, want spike-and-recover (from file, not basename)", s.Name)
	}
	wantModules := []ModuleSpec{
		{ID: "core", Beta: 1.0, Gamma: 1.0, Resilience: 0.5},
		{ID: "spill", Beta: 1.0, Gamma: 1.0},
	}
	if diff := cmp.Diff(wantModules, s.Modules); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}
	wantEdges := []Edge{{Source: "core", Target: "spill", Weight: 0.05}}
	if diff := cmp.Diff(wantEdges, s.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	if len(s.Schedule) != 2 {
		t.Fatalf("schedule entries = %d, want 2", len(s.Schedule))
	}
	if s.Schedule[1].Cycle != 5 || s.Schedule[1].Excitation["core"] != 0.2 {
		t.Errorf("schedule[1] = %+v, want cycle 5 core 0.2", s.Schedule[1])
	}

	cfg := s.EngineConfig()
	if cfg.UpdatePolicy != PolicyAlgebraic {
		t.Errorf("policy = %s, want algebraic", cfg.UpdatePolicy)
	}
	if cfg.DefenseMultiplier != 2.5 {
		t.Errorf("defense multiplier = %.2f, want 2.5", cfg.DefenseMultiplier)
	}
	if cfg.FirewallThreshold != DefaultConfig().FirewallThreshold {
		t.Errorf("unpatched firewall threshold = %.2f, want default", cfg.FirewallThreshold)
	}

	if _, err := s.Build(); err != nil {
		t.Errorf("Build of loaded scenario: %v", err)
	}
}

// TestLoadScenario_JSON verifies the .json branch and basename name
// defaulting.
func TestLoadScenario_JSON(t *testing.T) {
	raw := `{
  "modules": [{"id": "a", "beta": 1, "gamma": 1}],
  "cycles": 3
}`
	path := filepath.Join(t.TempDir(), "burst.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if s.Name != "burst" {
		t.Errorf("name = %q, want burst (defaulted from basename)", s.Name)
	}
	if s.Cycles != 3 {
		t.Errorf("cycles = %d, want 3", s.Cycles)
	}
}

// TestLoadScenario_Errors walks the loader and validation rejection paths.
func TestLoadScenario_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Errorf("expected error for missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("modules: [unclosed"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		if _, err := LoadScenario(path); err == nil {
			t.Errorf("expected parse error")
		}
	})

	mods := []ModuleSpec{{ID: "a", Beta: 1, Gamma: 1}}

	t.Run("zero cycles", func(t *testing.T) {
		s := Scenario{Name: "x", Modules: mods}
		var cerr *ConfigError
		if err := s.Validate(); !errors.As(err, &cerr) {
			t.Errorf("expected *ConfigError, got %v", err)
		}
	})

	t.Run("schedule past end", func(t *testing.T) {
		s := Scenario{
			Name:     "x",
			Modules:  mods,
			Cycles:   5,
			Schedule: []ScheduleEntry{{Cycle: 5, Excitation: map[string]float64{"a": 1}}},
		}
		var cerr *ConfigError
		if err := s.Validate(); !errors.As(err, &cerr) {
			t.Errorf("expected *ConfigError, got %v", err)
		}
	})

	t.Run("negative schedule cycle", func(t *testing.T) {
		s := Scenario{
			Name:     "x",
			Modules:  mods,
			Cycles:   5,
			Schedule: []ScheduleEntry{{Cycle: -1, Excitation: map[string]float64{"a": 1}}},
		}
		var cerr *ConfigError
		if err := s.Validate(); !errors.As(err, &cerr) {
			t.Errorf("expected *ConfigError, got %v", err)
		}
	})

	t.Run("unknown schedule module", func(t *testing.T) {
		s := Scenario{
			Name:     "x",
			Modules:  mods,
			Cycles:   5,
			Schedule: []ScheduleEntry{{Cycle: 0, Excitation: map[string]float64{"ghost": 1}}},
		}
		var uerr *UnknownModuleError
		if err := s.Validate(); !errors.As(err, &uerr) {
			t.Errorf("expected *UnknownModuleError, got %v", err)
		}
		if uerr != nil && uerr.ID != "ghost" {
			t.Errorf("unknown id = %q, want ghost", uerr.ID)
		}
	})
}

// TestConfigOverrides_Apply verifies the sparse patch touches only the named
// fields.
func TestConfigOverrides_Apply(t *testing.T) {
	t.Run("empty patch is identity", func(t *testing.T) {
		got := ConfigOverrides{}.Apply(DefaultConfig())
		if diff := cmp.Diff(DefaultConfig(), got); diff != "" {
			t.Errorf("empty patch changed config (-want +got):\n%s", diff)
		}
	})

	t.Run("partial patch", func(t *testing.T) {
		mult := 3.0
		policy := PolicyAlgebraic
		size := 64
		o := ConfigOverrides{
			DefenseMultiplier: &mult,
			UpdatePolicy:      &policy,
			HistorySize:       &size,
		}

		want := DefaultConfig()
		want.DefenseMultiplier = 3.0
		want.UpdatePolicy = PolicyAlgebraic
		want.HistorySize = 64

		if diff := cmp.Diff(want, o.Apply(DefaultConfig())); diff != "" {
			t.Errorf("patch mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestScenario_Replay verifies a fully deterministic replay: spike to the
// firewall, hold through the hysteresis band, recover when the schedule cuts
// the input.
func TestScenario_Replay(t *testing.T) {
	policy := PolicyAlgebraic
	s := Scenario{
		Name:    "deterministic",
		Config:  ConfigOverrides{UpdatePolicy: &policy},
		Modules: []ModuleSpec{{ID: "core", Beta: 1, Gamma: 1, Resilience: 0.5}},
		Cycles:  10,
		Schedule: []ScheduleEntry{
			{Cycle: 0, Excitation: map[string]float64{"core": 1.5}},
			{Cycle: 5, Excitation: map[string]float64{"core": 0.2}},
		},
	}
	e, err := s.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	report, err := s.Replay(context.Background(), e)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	// Cycle 1: T = 1.5 - 0.5 = 1.0, firewall. Cycles 2-5: T = 1.5 - 0.9 = 0.6
	// under the engaged multiplier, held by hysteresis. Cycle 6: the schedule
	// cuts E to 0.2, T clamps to 0, recovery. Cycles 7-10 stay at 0.
	if report.RunID != e.ID() {
		t.Errorf("run id = %q, want engine id %q", report.RunID, e.ID())
	}
	if report.Cycles != 10 {
		t.Errorf("cycles = %d, want 10", report.Cycles)
	}
	if report.CyclesToFirewall != 1 {
		t.Errorf("cycles to firewall = %d, want 1", report.CyclesToFirewall)
	}
	if report.CyclesToRecovery != 5 {
		t.Errorf("cycles to recovery = %d, want 5", report.CyclesToRecovery)
	}
	if report.Peak != 1.0 {
		t.Errorf("peak = %.4f, want 1.0", report.Peak)
	}
	if report.FinalPhase != PhaseNominal {
		t.Errorf("final phase = %s, want NOMINAL", report.FinalPhase)
	}
	if report.FinalMonitored != 0 {
		t.Errorf("final monitored = %.4f, want 0", report.FinalMonitored)
	}
	wantPhases := map[Phase]int{PhaseFirewall: 5, PhaseNominal: 5}
	if diff := cmp.Diff(wantPhases, report.PhaseCycles); diff != "" {
		t.Errorf("phase residency mismatch (-want +got):\n%s", diff)
	}
}

// TestScenario_ReplayNeverFires verifies the -1 sentinels survive a calm
// replay.
func TestScenario_ReplayNeverFires(t *testing.T) {
	s := Scenario{
		Name:     "calm",
		Modules:  []ModuleSpec{{ID: "a", Beta: 1, Gamma: 1, Resilience: 1}},
		Cycles:   20,
		Schedule: []ScheduleEntry{{Cycle: 0, Excitation: map[string]float64{"a": 0.1}}},
	}
	e, err := s.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	report, err := s.Replay(context.Background(), e)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if report.CyclesToFirewall != -1 {
		t.Errorf("cycles to firewall = %d, want -1 (never fired)", report.CyclesToFirewall)
	}
	if report.CyclesToRecovery != -1 {
		t.Errorf("cycles to recovery = %d, want -1", report.CyclesToRecovery)
	}
	if report.FinalPhase != PhaseNominal {
		t.Errorf("final phase = %s, want NOMINAL", report.FinalPhase)
	}
	AssertNeverPhase(t, e, PhasePredictive)
	AssertNeverPhase(t, e, PhaseFirewall)
}

// TestScenario_ScheduleSource verifies same-cycle entries merge with later
// entries winning, and silent cycles yield nil.
func TestScenario_ScheduleSource(t *testing.T) {
	s := Scenario{
		Name:    "merge",
		Modules: []ModuleSpec{{ID: "a", Beta: 1, Gamma: 1}, {ID: "b", Beta: 1, Gamma: 1}},
		Cycles:  5,
		Schedule: []ScheduleEntry{
			{Cycle: 2, Excitation: map[string]float64{"a": 0.5, "b": 0.3}},
			{Cycle: 2, Excitation: map[string]float64{"b": 0.9}},
		},
	}
	src := s.ScheduleSource()

	inputs, err := src(context.Background(), 2)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	want := map[string]float64{"a": 0.5, "b": 0.9}
	if diff := cmp.Diff(want, inputs); diff != "" {
		t.Errorf("merged inputs mismatch (-want +got):\n%s", diff)
	}

	inputs, _ = src(context.Background(), 0)
	if inputs != nil {
		t.Errorf("silent cycle yielded %v, want nil", inputs)
	}
}

// TestScenario_ReplayWith_Observer verifies the observer sees every committed
// cycle in order.
func TestScenario_ReplayWith_Observer(t *testing.T) {
	s := Scenario{
		Name:    "observed",
		Modules: []ModuleSpec{{ID: "a", Beta: 1, Gamma: 1, Resilience: 1}},
		Cycles:  5,
	}
	e, err := s.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var seen []int
	_, err = s.ReplayWith(context.Background(), e, s.ScheduleSource(), func(snap Snapshot) {
		seen = append(seen, snap.Cycle)
	})
	if err != nil {
		t.Fatalf("ReplayWith: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4, 5}, seen); diff != "" {
		t.Errorf("observed cycles mismatch (-want +got):\n%s", diff)
	}
}

// TestScenario_ReplayCanceled verifies a canceled context stops the replay
// but still fills the report from whatever committed.
func TestScenario_ReplayCanceled(t *testing.T) {
	s := Scenario{
		Name:    "canceled",
		Modules: []ModuleSpec{{ID: "a", Beta: 1, Gamma: 1, Resilience: 1}},
		Cycles:  100,
	}
	e, err := s.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ran := 0
	report, err := s.ReplayWith(ctx, e, s.ScheduleSource(), func(Snapshot) {
		ran++
		if ran == 3 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if report.Cycles != 3 {
		t.Errorf("report cycles = %d, want 3 committed before cancel", report.Cycles)
	}
	if report.Scenario != "canceled" {
		t.Errorf("report scenario = %q, want canceled", report.Scenario)
	}
}
