package tensionwall

import (
	"testing"
)

// AssertionConfig contains thresholds for dynamic-property assertions.
type AssertionConfig struct {
	// Numeric tolerance for floating-point comparisons
	Epsilon float64

	// Budget for AssertRecovers: cycles of zero excitation allowed before
	// the system must be back in NOMINAL
	MaxRecoveryCycles int

	// Maximum phase transitions per firewall entry before the trajectory
	// counts as chattering
	MaxTransitionsPerEntry int
}

// DefaultAssertionConfig returns conservative thresholds.
func DefaultAssertionConfig() AssertionConfig {
	return AssertionConfig{
		Epsilon:                1e-9,
		MaxRecoveryCycles:      500, // generous for slow dt
		MaxTransitionsPerEntry: 4,   // enter, exit, and one re-test each way
	}
}

// AssertInEpsilon verifies got is within eps of want.
func AssertInEpsilon(t *testing.T, name string, got, want, eps float64) {
	t.Helper()

	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff > eps {
		t.Errorf("%s = %.9f, want %.9f (±%.1e)", name, got, want, eps)
	}
}

// AssertBounded verifies every module's tension sits inside [0, bound], and
// that the trajectory never escaped it either.
//
// Mathematical property:
//
//	0 ≤ T ≤ T_max for every module, every cycle
func AssertBounded(t *testing.T, e *Engine, bound float64) {
	t.Helper()

	snap := e.State()
	for _, m := range snap.Modules {
		if m.Tension < 0 || m.Tension > bound {
			t.Errorf("Tension out of bounds: module %q at T = %.6f (bounds: [0, %.2f])\n"+
				"The commit clamp should make this impossible. Check for uncommitted mutation.",
				m.ID, m.Tension, bound)
		}
	}

	if peak := e.Stats().Peak; peak > bound {
		t.Errorf("Monitored peak escaped the cap: %.6f > %.2f", peak, bound)
	}

	t.Logf("✓ Bounded: all tensions in [0, %.2f], peak = %.4f", bound, e.Stats().Peak)
}

// AssertPhase verifies the engine's committed phase.
func AssertPhase(t *testing.T, e *Engine, want Phase) {
	t.Helper()

	if got := e.Phase(); got != want {
		t.Errorf("Phase = %s, want %s (monitored = %.4f)", got, want, e.State().Monitored)
	}
}

// AssertNeverPhase verifies the trajectory never classified the given phase.
func AssertNeverPhase(t *testing.T, e *Engine, phase Phase) {
	t.Helper()

	if n := e.Stats().PhaseCycles[phase]; n > 0 {
		t.Errorf("Phase %s appeared for %d of %d cycles, want never", phase, n, e.Stats().Cycles)
	}
}

// AssertMonotoneDecay drives cycles of zero excitation and verifies the
// monitored value never rises. Meant for uncoupled or weakly coupled
// systems: strong coupling can redistribute tension upward into the
// monitored module even without input.
func AssertMonotoneDecay(t *testing.T, e *Engine, cycles int) {
	t.Helper()

	quiet := make(map[string]float64, len(e.ModuleIDs()))
	for _, id := range e.ModuleIDs() {
		quiet[id] = 0
	}

	prev := e.State().Monitored
	for i := 0; i < cycles; i++ {
		_, snap, err := e.RunCycle(quiet)
		if err != nil {
			t.Fatalf("Decay cycle failed: %v", err)
		}
		if snap.Monitored > prev+1e-12 {
			t.Errorf("Monitored rose from %.6f to %.6f at quiet cycle %d", prev, snap.Monitored, i+1)
			return
		}
		prev = snap.Monitored
	}
	t.Logf("✓ Monotone decay over %d quiet cycles, monitored = %.4f", cycles, prev)
}

// AssertRecovers drives the engine with zero excitation on every module and
// verifies it returns to NOMINAL within maxCycles.
//
// A system that cannot recover from zero input has a defense configuration
// problem (damping too weak, coupling too strong, or a cap low enough to
// pin the monitored value above the exit threshold).
func AssertRecovers(t *testing.T, e *Engine, maxCycles int) {
	t.Helper()

	quiet := make(map[string]float64, len(e.ModuleIDs()))
	for _, id := range e.ModuleIDs() {
		quiet[id] = 0
	}

	for i := 0; i < maxCycles; i++ {
		phase, _, err := e.RunCycle(quiet)
		if err != nil {
			t.Fatalf("Recovery cycle failed: %v", err)
		}
		if phase == PhaseNominal {
			t.Logf("✓ Recovered: NOMINAL after %d quiet cycles", i+1)
			return
		}
	}

	t.Errorf("No recovery: still %s after %d cycles of zero excitation\n"+
		"monitored = %.4f, multiplier = %.2f. Raise DefenseMultiplier or check coupling weights.",
		e.Phase(), maxCycles, e.State().Monitored, e.State().Multiplier)
}

// AssertNoChatter verifies the trajectory did not flap between phases. The
// hysteresis band exists precisely to prevent this; excessive transitions
// mean the exit threshold sits too close to the entry threshold for the
// system's oscillation amplitude.
func AssertNoChatter(t *testing.T, e *Engine, cfg AssertionConfig) {
	t.Helper()

	stats := e.Stats()
	entries := stats.FirewallEntries
	if entries == 0 {
		if stats.Transitions > 2 {
			t.Errorf("Phase chatter without firewall: %d transitions across %d cycles",
				stats.Transitions, stats.Cycles)
		}
		t.Logf("✓ No chatter: %d transitions, no firewall entries", stats.Transitions)
		return
	}

	if stats.Transitions > entries*cfg.MaxTransitionsPerEntry {
		t.Errorf("Phase chatter: %d transitions for %d firewall entries (max %d per entry)\n"+
			"Widen the hysteresis band: lower firewall_exit_threshold.",
			stats.Transitions, entries, cfg.MaxTransitionsPerEntry)
	}

	t.Logf("✓ No chatter: %d transitions across %d firewall entries", stats.Transitions, entries)
}

// AssertDynamics runs the boundedness, chatter, and recovery assertions with
// default config. Recovery runs last because it advances the engine.
func AssertDynamics(t *testing.T, e *Engine) {
	t.Helper()

	cfg := DefaultAssertionConfig()

	t.Run("Bounded", func(t *testing.T) {
		AssertBounded(t, e, e.Config().TensionCap)
	})

	t.Run("NoChatter", func(t *testing.T) {
		AssertNoChatter(t, e, cfg)
	})

	t.Run("Recovers", func(t *testing.T) {
		AssertRecovers(t, e, cfg.MaxRecoveryCycles)
	})
}

// PrintTrajectory outputs a detailed trajectory analysis to the test log.
func PrintTrajectory(t *testing.T, e *Engine) {
	t.Helper()

	stats := e.Stats()
	snap := e.State()

	t.Logf("\n=== Trajectory Analysis ===")
	t.Logf("Cycles: %d, phase: %s, monitored: %.4f", stats.Cycles, snap.Phase, snap.Monitored)
	t.Logf("Peak: %.4f  P50: %.4f  P99: %.4f  velocity: %+.4f",
		stats.Peak, stats.P50, stats.P99, stats.Velocity)

	t.Logf("\nPhase residency:")
	for _, p := range []Phase{PhaseNominal, PhasePredictive, PhaseFirewall} {
		n := stats.PhaseCycles[p]
		if stats.Cycles > 0 {
			t.Logf("  %-10s %6d cycles (%.1f%%)", p, n, 100*float64(n)/float64(stats.Cycles))
		}
	}
	t.Logf("Transitions: %d, firewall entries: %d", stats.Transitions, stats.FirewallEntries)

	t.Logf("\nModules:")
	for _, m := range snap.Modules {
		marker := " "
		if m.InCrisis {
			marker = "!"
		}
		t.Logf("  %s %-12s T=%.4f E=%.3f F=%.3f", marker, m.ID, m.Tension, m.Excitation, m.Resilience)
	}

	t.Logf("\nInterpretation:")
	limit := e.Config().TensionCap
	switch {
	case stats.Peak >= limit:
		t.Logf("  ✗ Saturated: peak hit the cap (%.2f) - dynamics were clipped", limit)
	case stats.Peak >= e.Config().FirewallThreshold:
		t.Logf("  ⚠ Firewall territory: peak %.4f crossed %.2f", stats.Peak, e.Config().FirewallThreshold)
	case stats.Peak >= e.Config().PredictiveThreshold:
		t.Logf("  ⚠ Predictive territory: peak %.4f crossed %.2f", stats.Peak, e.Config().PredictiveThreshold)
	default:
		t.Logf("  ✓ Nominal throughout: peak %.4f", stats.Peak)
	}
}
