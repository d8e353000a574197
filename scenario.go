package tensionwall

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is a declarative replay: a topology, a config patch, and a
// cycle-by-cycle excitation schedule. Scenarios are the unit that sweeps,
// the CLI, and regression tests all share.
type Scenario struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Config patches DefaultConfig; absent fields keep their defaults.
	Config ConfigOverrides `yaml:"config,omitempty" json:"config,omitempty"`

	Modules []ModuleSpec `yaml:"modules" json:"modules"`
	Edges   []Edge       `yaml:"edges,omitempty" json:"edges,omitempty"`

	// Cycles is how many cycles a replay runs.
	Cycles int `yaml:"cycles" json:"cycles"`

	// Schedule sets excitations at specific cycles. Between entries the
	// usual sticky semantics apply: a module keeps its last excitation
	// until the schedule changes it.
	Schedule []ScheduleEntry `yaml:"schedule,omitempty" json:"schedule,omitempty"`
}

// ScheduleEntry sets excitation inputs at one cycle (0-based).
type ScheduleEntry struct {
	Cycle      int                `yaml:"cycle" json:"cycle"`
	Excitation map[string]float64 `yaml:"excitation" json:"excitation"`
}

// ConfigOverrides is a sparse Config patch. Nil fields inherit from the
// base; see Config for field semantics.
type ConfigOverrides struct {
	PredictiveThreshold   *float64      `yaml:"predictive_threshold,omitempty" json:"predictive_threshold,omitempty"`
	FirewallThreshold     *float64      `yaml:"firewall_threshold,omitempty" json:"firewall_threshold,omitempty"`
	FirewallExitThreshold *float64      `yaml:"firewall_exit_threshold,omitempty" json:"firewall_exit_threshold,omitempty"`
	TensionCap            *float64      `yaml:"tension_cap,omitempty" json:"tension_cap,omitempty"`
	Dt                    *float64      `yaml:"dt,omitempty" json:"dt,omitempty"`
	DefenseMultiplier     *float64      `yaml:"defense_multiplier,omitempty" json:"defense_multiplier,omitempty"`
	DefenseBoostGain      *float64      `yaml:"defense_boost_gain,omitempty" json:"defense_boost_gain,omitempty"`
	RecoveryWindowCycles  *int          `yaml:"recovery_window_cycles,omitempty" json:"recovery_window_cycles,omitempty"`
	LoadSheddingFactor    *float64      `yaml:"load_shedding_factor,omitempty" json:"load_shedding_factor,omitempty"`
	AccelerationFactor    *float64      `yaml:"acceleration_factor,omitempty" json:"acceleration_factor,omitempty"`
	AccelerationTrigger   *float64      `yaml:"acceleration_trigger,omitempty" json:"acceleration_trigger,omitempty"`
	UpdatePolicy          *UpdatePolicy `yaml:"update_policy,omitempty" json:"update_policy,omitempty"`
	MonitorMode           *MonitorMode  `yaml:"monitor_mode,omitempty" json:"monitor_mode,omitempty"`
	MonitorModule         *string       `yaml:"monitor_module,omitempty" json:"monitor_module,omitempty"`
	BoostModule           *string       `yaml:"boost_module,omitempty" json:"boost_module,omitempty"`
	BoostAmount           *float64      `yaml:"boost_amount,omitempty" json:"boost_amount,omitempty"`
	HistorySize           *int          `yaml:"history_size,omitempty" json:"history_size,omitempty"`
}

// Apply overlays the non-nil fields onto base and returns the result.
func (o ConfigOverrides) Apply(base Config) Config {
	if o.PredictiveThreshold != nil {
		base.PredictiveThreshold = *o.PredictiveThreshold
	}
	if o.FirewallThreshold != nil {
		base.FirewallThreshold = *o.FirewallThreshold
	}
	if o.FirewallExitThreshold != nil {
		base.FirewallExitThreshold = *o.FirewallExitThreshold
	}
	if o.TensionCap != nil {
		base.TensionCap = *o.TensionCap
	}
	if o.Dt != nil {
		base.Dt = *o.Dt
	}
	if o.DefenseMultiplier != nil {
		base.DefenseMultiplier = *o.DefenseMultiplier
	}
	if o.DefenseBoostGain != nil {
		base.DefenseBoostGain = *o.DefenseBoostGain
	}
	if o.RecoveryWindowCycles != nil {
		base.RecoveryWindowCycles = *o.RecoveryWindowCycles
	}
	if o.LoadSheddingFactor != nil {
		base.LoadSheddingFactor = *o.LoadSheddingFactor
	}
	if o.AccelerationFactor != nil {
		base.AccelerationFactor = *o.AccelerationFactor
	}
	if o.AccelerationTrigger != nil {
		base.AccelerationTrigger = *o.AccelerationTrigger
	}
	if o.UpdatePolicy != nil {
		base.UpdatePolicy = *o.UpdatePolicy
	}
	if o.MonitorMode != nil {
		base.MonitorMode = *o.MonitorMode
	}
	if o.MonitorModule != nil {
		base.MonitorModule = *o.MonitorModule
	}
	if o.BoostModule != nil {
		base.BoostModule = *o.BoostModule
	}
	if o.BoostAmount != nil {
		base.BoostAmount = *o.BoostAmount
	}
	if o.HistorySize != nil {
		base.HistorySize = *o.HistorySize
	}
	return base
}

// LoadScenario reads a scenario from a YAML or JSON file (chosen by
// extension) and validates it.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &s)
	default:
		err = yaml.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario's replay parameters and schedule references.
// Topology and config validation happen in New when the engine is built.
func (s *Scenario) Validate() error {
	if s.Cycles <= 0 {
		return &ConfigError{Param: "cycles", Reason: "must be positive"}
	}
	known := make(map[string]bool, len(s.Modules))
	for _, m := range s.Modules {
		known[m.ID] = true
	}
	for _, entry := range s.Schedule {
		if entry.Cycle < 0 || entry.Cycle >= s.Cycles {
			return &ConfigError{
				Param:  "schedule",
				Reason: fmt.Sprintf("entry at cycle %d outside [0, %d)", entry.Cycle, s.Cycles),
			}
		}
		for id := range entry.Excitation {
			if !known[id] {
				return &UnknownModuleError{ID: id}
			}
		}
	}
	return nil
}

// EngineConfig returns the scenario's effective configuration: its overrides
// applied to DefaultConfig.
func (s *Scenario) EngineConfig() Config {
	return s.Config.Apply(DefaultConfig())
}

// Build constructs a fresh engine for the scenario.
func (s *Scenario) Build() (*Engine, error) {
	return New(s.Modules, s.Edges, s.EngineConfig())
}

// RunReport summarizes one scenario replay.
type RunReport struct {
	RunID    string `json:"run_id"`
	Scenario string `json:"scenario"`
	Cycles   int    `json:"cycles"`

	FinalPhase     Phase   `json:"final_phase"`
	FinalMonitored float64 `json:"final_monitored"`
	Peak           float64 `json:"peak"`

	// CyclesToFirewall is the cycle number of the first FIREWALL
	// classification, or -1 when the replay never tripped it.
	CyclesToFirewall int `json:"cycles_to_firewall"`

	// CyclesToRecovery is the distance from the first FIREWALL entry to the
	// first NOMINAL classification after it, or -1 when the replay ended
	// before recovering (or never tripped the firewall).
	CyclesToRecovery int `json:"cycles_to_recovery"`

	PhaseCycles map[Phase]int `json:"phase_cycles"`
}

// InputSource yields the excitation inputs for one replay cycle. A nil map
// is a valid yield: the engine's sticky semantics keep the previous inputs.
type InputSource func(ctx context.Context, cycle int) (map[string]float64, error)

// ScheduleSource returns an InputSource that serves the scenario's own
// schedule. Entries sharing a cycle merge, later entries winning per module.
func (s *Scenario) ScheduleSource() InputSource {
	schedule := make(map[int]map[string]float64, len(s.Schedule))
	for _, entry := range s.Schedule {
		inputs, ok := schedule[entry.Cycle]
		if !ok {
			inputs = make(map[string]float64, len(entry.Excitation))
			schedule[entry.Cycle] = inputs
		}
		for id, v := range entry.Excitation {
			inputs[id] = v
		}
	}
	return func(ctx context.Context, cycle int) (map[string]float64, error) {
		return schedule[cycle], nil
	}
}

// Replay drives e through the scenario's schedule for the configured number
// of cycles. The engine should be freshly built; replaying into a warm
// engine measures the tail of whatever came before.
func (s *Scenario) Replay(ctx context.Context, e *Engine) (RunReport, error) {
	return s.ReplayWith(ctx, e, s.ScheduleSource(), nil)
}

// ReplayWith is Replay with a caller-chosen input source (a feed, a paced
// schedule) and an optional per-cycle observer. The observer sees every
// committed snapshot; keep it cheap.
func (s *Scenario) ReplayWith(ctx context.Context, e *Engine, src InputSource, observe func(Snapshot)) (RunReport, error) {
	report := RunReport{
		RunID:            e.ID(),
		Scenario:         s.Name,
		CyclesToFirewall: -1,
		CyclesToRecovery: -1,
	}

	for i := 0; i < s.Cycles; i++ {
		if err := ctx.Err(); err != nil {
			s.finishReport(&report, e)
			return report, err
		}
		inputs, err := src(ctx, i)
		if err != nil {
			s.finishReport(&report, e)
			return report, fmt.Errorf("cycle %d inputs: %w", i, err)
		}
		phase, snap, err := e.RunCycle(inputs)
		if err != nil {
			s.finishReport(&report, e)
			return report, fmt.Errorf("cycle %d: %w", i, err)
		}
		if phase == PhaseFirewall && report.CyclesToFirewall < 0 {
			report.CyclesToFirewall = snap.Cycle
		}
		if phase == PhaseNominal && report.CyclesToFirewall >= 0 && report.CyclesToRecovery < 0 {
			report.CyclesToRecovery = snap.Cycle - report.CyclesToFirewall
		}
		if observe != nil {
			observe(snap)
		}
	}

	s.finishReport(&report, e)
	return report, nil
}

func (s *Scenario) finishReport(report *RunReport, e *Engine) {
	stats := e.Stats()
	report.Cycles = stats.Cycles
	report.Peak = stats.Peak
	report.PhaseCycles = stats.PhaseCycles
	report.FinalPhase = e.Phase()
	report.FinalMonitored = e.State().Monitored
}
