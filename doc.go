// Package tensionwall models tension buildup and propagation across coupled
// modules, and defends the system when tension approaches cascade territory.
//
// # Overview
//
// tensionwall treats a system as a set of modules, each carrying a scalar
// tension T driven by excitation (inflow) and resilience (outflow), coupled
// through directed weighted edges. Every cycle the engine integrates local
// dynamics, propagates tension along the edges, classifies the system phase
// through a hysteresis band, and lets a defense controller raise damping,
// shed load from failing modules, and boost a strategic reserve before a
// local spike becomes a systemic cascade.
//
// # Quick Start
//
// Declare modules and couplings, then drive cycles:
//
//	modules := []tensionwall.ModuleSpec{
//	    {ID: "payments", Beta: 3.5, Gamma: 0.8, Resilience: 1.0},
//	    {ID: "ledger", Beta: 2.0, Gamma: 1.0, Resilience: 1.0},
//	}
//	edges := []tensionwall.Edge{
//	    {Source: "payments", Target: "ledger", Weight: 0.05},
//	}
//
//	engine, err := tensionwall.New(modules, edges, tensionwall.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for {
//	    phase, snap, err := engine.RunCycle(map[string]float64{
//	        "payments": readLoad() / 50.0,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if phase == tensionwall.PhaseFirewall {
//	        log.Printf("FIREWALL at cycle %d, monitored %.2f", snap.Cycle, snap.Monitored)
//	    }
//	}
//
// # The Dynamics
//
// Each module evolves under one of two update policies. The algebraic policy
// recomputes tension from the current inputs alone:
//
//	T' = max(0, β·E − γ_eff·F)
//
// The integrative policy (the default) treats tension as accumulated state:
//
//	T' = max(0, T + (β·E − γ_eff·F·T)·dt)
//
// Where:
//   - β (beta): excitation sensitivity (how hard load converts to tension)
//   - γ (gamma): resilience sensitivity (how hard capacity drains tension)
//   - E: excitation input, normalized load
//   - F: resilience, the module's absorbing capacity
//   - γ_eff = γ·m, with m the defense damping multiplier
//
// Under the integrative policy the outflow term is proportional to T itself,
// so an undamped module with steady excitation settles at the fixed point
// T* = β·E / (γ_eff·F) rather than growing without bound.
//
// # Propagation
//
// After local integration, tension bleeds along each directed edge from the
// snapshot taken at the top of the cycle:
//
//	contribution = T_source · w_eff · accel
//
// Transmission accelerates (accel = 1.5 by default) once the source tension
// exceeds 1.0: critical modules export stress faster. A source in crisis has
// its outgoing weights shed to 30% (w_eff = 0.3·w), isolating the failing
// module instead of letting it drag its neighbors down. Committed tension is
// clamped to [0, TensionCap].
//
// # The Phase Classifier
//
// The classifier watches a monitored value (by default the maximum tension
// across modules) through a Schmitt trigger:
//
//   - monitored < 0.4:  NOMINAL (normal operation)
//   - monitored ≥ 0.4:  PREDICTIVE (early warning, no intervention)
//   - monitored ≥ 1.0:  FIREWALL (active defense)
//
// FIREWALL is sticky: once entered, the phase holds until the monitored
// value falls strictly below the exit threshold (0.4 by default). A value
// oscillating between 0.41 and 0.99 can never chatter the phase.
//
// # The Defense Controller
//
// On FIREWALL entry the controller raises the damping multiplier applied to
// every module's outflow term (1.8x by default), applies the configured
// strategic resilience boost, and keeps per-module crisis windows that gate
// load shedding. Decisions land with exactly one cycle of lag; inspect them
// through the returned snapshots or the last action:
//
//	action := engine.LastAction()
//	switch action.Type {
//	case tensionwall.DefenseEngage:
//	    log.Printf("defense up: %s", action.Reason)
//	case tensionwall.DefenseRelease:
//	    log.Printf("defense down: %s", action.Reason)
//	}
//
// The boost is deliberately one-shot. It models spending a reserve, so the
// engine never re-applies it on its own; call ResetBoost once the incident
// is closed.
//
// # Testing
//
// Use the assertion helpers to validate dynamic properties of a
// configuration before trusting it in production:
//
//	func TestMyTopology(t *testing.T) {
//	    engine := buildEngine(t)
//	    for i := 0; i < 500; i++ {
//	        engine.RunCycle(inputs(i))
//	    }
//
//	    // Tension must stay inside [0, TensionCap] at all times
//	    tensionwall.AssertBounded(t, engine, 3.0)
//
//	    // With inputs removed the system must return to NOMINAL
//	    tensionwall.AssertRecovers(t, engine, 200)
//	}
//
// # Scenarios and Sweeps
//
// Scenario files (YAML or JSON) declare a topology plus a cycle-by-cycle
// excitation schedule, and sweeps replay one scenario across parameter
// variations in parallel:
//
//	scenario, err := tensionwall.LoadScenario("testdata/cascade.yaml")
//	results, err := tensionwall.RunSweep(ctx, scenario, points, 4)
//
// The tensionwall command wraps both: `tensionwall run --scenario
// cascade.yaml` replays a file against live or synthetic excitation feeds,
// and `tensionwall sweep` compares parameter sets.
package tensionwall
