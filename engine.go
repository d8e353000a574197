package tensionwall

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Engine couples a set of modules through weighted edges and advances them
// cycle by cycle. It is not safe for concurrent use; drive it from one
// goroutine and fan out with separate engines (see RunSweep).
type Engine struct {
	id  string
	cfg Config
	log *slog.Logger

	modules []*moduleState
	index   map[string]int
	edges   []coupling

	monitorIdx int // -1 means global max

	classifier *classifier
	defense    *defense
	history    *dynamics

	cycle         int
	crisisEntries int
}

// New builds an engine from module and edge declarations. All validation
// happens here; a returned engine never carries an invalid coefficient, a
// dangling reference, or a duplicate id.
func New(modules []ModuleSpec, edges []Edge, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, &ConfigError{Param: "modules", Reason: "at least one module required"}
	}

	e := &Engine{
		id:         uuid.NewString(),
		cfg:        cfg,
		log:        slog.Default().With("component", "engine"),
		modules:    make([]*moduleState, 0, len(modules)),
		index:      make(map[string]int, len(modules)),
		monitorIdx: -1,
	}

	for _, spec := range modules {
		if spec.ID == "" {
			return nil, &ConfigError{Param: "modules", Reason: "empty module id"}
		}
		if _, dup := e.index[spec.ID]; dup {
			return nil, &ConfigError{Param: "modules", Reason: fmt.Sprintf("duplicate module id %q", spec.ID)}
		}
		if spec.Beta <= 0 {
			return nil, &InvalidCoefficientError{Module: spec.ID, Coefficient: "beta", Value: spec.Beta}
		}
		if spec.Gamma <= 0 {
			return nil, &InvalidCoefficientError{Module: spec.ID, Coefficient: "gamma", Value: spec.Gamma}
		}
		if spec.Excitation < 0 {
			return nil, &InvalidCoefficientError{Module: spec.ID, Coefficient: "excitation", Value: spec.Excitation}
		}
		if spec.Resilience < 0 {
			return nil, &InvalidCoefficientError{Module: spec.ID, Coefficient: "resilience", Value: spec.Resilience}
		}
		e.index[spec.ID] = len(e.modules)
		e.modules = append(e.modules, &moduleState{
			id:             spec.ID,
			beta:           spec.Beta,
			gamma:          spec.Gamma,
			excitation:     spec.Excitation,
			resilience:     spec.Resilience,
			baseResilience: spec.Resilience,
			tension:        clampTension(spec.Tension, cfg.TensionCap),
		})
	}

	seen := make(map[[2]string]bool, len(edges))
	e.edges = make([]coupling, 0, len(edges))
	for _, edge := range edges {
		src, ok := e.index[edge.Source]
		if !ok {
			return nil, &UnknownModuleError{ID: edge.Source}
		}
		dst, ok := e.index[edge.Target]
		if !ok {
			return nil, &UnknownModuleError{ID: edge.Target}
		}
		if edge.Weight < 0 {
			return nil, &ConfigError{
				Param:  "edges",
				Reason: fmt.Sprintf("negative weight %g on %s->%s", edge.Weight, edge.Source, edge.Target),
			}
		}
		key := [2]string{edge.Source, edge.Target}
		if seen[key] {
			return nil, &ConfigError{
				Param:  "edges",
				Reason: fmt.Sprintf("duplicate edge %s->%s", edge.Source, edge.Target),
			}
		}
		seen[key] = true
		e.edges = append(e.edges, coupling{source: src, target: dst, weight: edge.Weight})
	}

	if cfg.MonitorMode == MonitorNamedModule {
		idx, ok := e.index[cfg.MonitorModule]
		if !ok {
			return nil, &UnknownModuleError{ID: cfg.MonitorModule}
		}
		e.monitorIdx = idx
	}

	var boostTarget *moduleState
	if cfg.BoostModule != "" {
		idx, ok := e.index[cfg.BoostModule]
		if !ok {
			return nil, &UnknownModuleError{ID: cfg.BoostModule}
		}
		boostTarget = e.modules[idx]
	}

	e.classifier = newClassifier(cfg)
	e.defense = newDefense(cfg, boostTarget)
	e.history = newDynamics(cfg.HistorySize)

	e.log.Info("engine ready",
		"engine_id", e.id,
		"modules", len(e.modules),
		"edges", len(e.edges),
		"policy", string(cfg.UpdatePolicy))
	return e, nil
}

// ID returns the engine's run identifier.
func (e *Engine) ID() string { return e.id }

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// ModuleIDs returns the module ids in declaration order.
func (e *Engine) ModuleIDs() []string {
	ids := make([]string, len(e.modules))
	for i, m := range e.modules {
		ids[i] = m.id
	}
	return ids
}

// Cycle returns the number of committed cycles.
func (e *Engine) Cycle() int { return e.cycle }

// SetLogger replaces the engine's logger; nil restores slog.Default. Swap
// loggers between cycles, not during one.
func (e *Engine) SetLogger(log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	e.log = log.With("component", "engine")
}

// SetExcitation overwrites one module's excitation outside the cycle input
// map. Negative values clamp to zero.
func (e *Engine) SetExcitation(id string, value float64) error {
	idx, ok := e.index[id]
	if !ok {
		return &UnknownModuleError{ID: id}
	}
	if value < 0 {
		value = 0
	}
	e.modules[idx].excitation = value
	return nil
}

// Phase returns the phase committed by the most recent cycle, PhaseNominal
// before the first.
func (e *Engine) Phase() Phase { return e.classifier.phase }

// RunCycle advances the system one cycle. The excitations map sets module
// inputs for this cycle; omitted modules keep their previous excitation, and
// negative values clamp to zero. An unknown id rejects the whole cycle
// before any state changes.
//
// The cycle runs in a fixed order: excitation, local integration,
// propagation from the cycle-start snapshot, commit with crisis bookkeeping,
// classification, defense. The defense decision only installs the damping
// for the NEXT cycle, so interventions always act with one cycle of lag.
func (e *Engine) RunCycle(excitations map[string]float64) (Phase, Snapshot, error) {
	for id := range excitations {
		if _, ok := e.index[id]; !ok {
			return e.classifier.phase, Snapshot{}, &UnknownModuleError{ID: id}
		}
	}
	for id, v := range excitations {
		if v < 0 {
			v = 0
		}
		e.modules[e.index[id]].excitation = v
	}

	for _, m := range e.modules {
		m.prev = m.tension
	}

	multiplier := e.defense.multiplier
	raw := make([]float64, len(e.modules))
	for i, m := range e.modules {
		raw[i] = integrate(m, e.cfg.UpdatePolicy, e.cfg.Dt, multiplier)
	}

	inflow := propagate(e.modules, e.edges, e.cfg)

	e.cycle++
	for i, m := range e.modules {
		m.tension = clampTension(raw[i]+inflow[i], e.cfg.TensionCap)
		wasCrisis := m.inCrisis
		updateCrisis(m, e.cfg)
		if m.inCrisis == wasCrisis {
			continue
		}
		if m.inCrisis {
			e.crisisEntries++
			e.log.Warn("module entered crisis",
				"cycle", e.cycle,
				"module", m.id,
				"tension", m.tension)
		} else {
			e.log.Info("module crisis cleared",
				"cycle", e.cycle,
				"module", m.id,
				"tension", m.tension)
		}
	}

	monitored := e.monitored()
	prevPhase := e.classifier.phase
	phase := e.classifier.step(monitored)
	action := e.defense.step(phase, monitored)

	e.history.record(monitored, phase)

	if phase != prevPhase {
		e.log.Info("phase transition",
			"cycle", e.cycle,
			"from", string(prevPhase),
			"to", string(phase),
			"monitored", monitored)
	}
	switch action.Type {
	case DefenseEngage, DefenseRelease:
		e.log.Info("defense "+string(action.Type),
			"cycle", e.cycle,
			"reason", action.Reason,
			"multiplier", action.Multiplier)
	default:
		e.log.Debug("cycle committed",
			"cycle", e.cycle,
			"phase", string(phase),
			"monitored", monitored,
			"multiplier", action.Multiplier)
	}

	return phase, e.snapshot(phase, monitored), nil
}

// State returns a snapshot of the current committed state without advancing
// the system.
func (e *Engine) State() Snapshot {
	return e.snapshot(e.classifier.phase, e.monitored())
}

// LastAction returns the most recent defense decision.
func (e *Engine) LastAction() Action { return e.defense.lastAction }

// ResetBoost restores the boosted module's base resilience and re-arms the
// strategic boost. Call it once the operator considers the incident closed;
// the engine never releases the boost on its own.
func (e *Engine) ResetBoost() { e.defense.resetBoost() }

// Stats returns trajectory statistics accumulated since construction.
func (e *Engine) Stats() DynamicsStats { return e.history.stats() }

// GetStatistics returns an operational summary keyed for dashboards and
// structured logs.
func (e *Engine) GetStatistics() map[string]interface{} {
	stats := e.history.stats()
	inCrisis := 0
	for _, m := range e.modules {
		if m.inCrisis {
			inCrisis++
		}
	}
	return map[string]interface{}{
		"engine_id":         e.id,
		"cycles":            e.cycle,
		"phase":             string(e.classifier.phase),
		"monitored":         e.monitored(),
		"multiplier":        e.defense.multiplier,
		"last_action":       string(e.defense.lastAction.Type),
		"last_reason":       e.defense.lastAction.Reason,
		"peak":              stats.Peak,
		"p50":               stats.P50,
		"p99":               stats.P99,
		"transitions":       stats.Transitions,
		"firewall_entries":  stats.FirewallEntries,
		"crisis_entries":    e.crisisEntries,
		"modules_in_crisis": inCrisis,
	}
}

func (e *Engine) monitored() float64 {
	if e.monitorIdx >= 0 {
		return e.modules[e.monitorIdx].tension
	}
	max := e.modules[0].tension
	for _, m := range e.modules[1:] {
		if m.tension > max {
			max = m.tension
		}
	}
	return max
}

func (e *Engine) snapshot(phase Phase, monitored float64) Snapshot {
	mods := make([]ModuleSnapshot, len(e.modules))
	for i, m := range e.modules {
		recovery := 0
		if m.inCrisis {
			recovery = m.recovery
		}
		mods[i] = ModuleSnapshot{
			ID:           m.id,
			Tension:      m.tension,
			Excitation:   m.excitation,
			Resilience:   m.resilience,
			InCrisis:     m.inCrisis,
			RecoveryLeft: recovery,
		}
	}
	return Snapshot{
		Cycle:      e.cycle,
		Phase:      phase,
		Monitored:  monitored,
		Multiplier: e.defense.multiplier,
		Modules:    mods,
	}
}
