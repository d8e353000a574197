package tensionwall

import (
	"fmt"
	"time"
)

// ActionType identifies what the defense controller did on a given cycle.
type ActionType string

const (
	// DefenseStandby: no defense active and none required.
	DefenseStandby ActionType = "standby"

	// DefenseEngage: the phase just entered FIREWALL; damping is raised and
	// the strategic boost (if configured) is applied.
	DefenseEngage ActionType = "engage"

	// DefenseHold: FIREWALL persists; damping stays raised and is
	// recomputed against the current monitored tension.
	DefenseHold ActionType = "hold"

	// DefenseRelease: the phase just left FIREWALL; damping returns to 1.0.
	// The strategic boost is NOT released here, only by ResetBoost.
	DefenseRelease ActionType = "release"
)

// Action records one defense decision.
type Action struct {
	Type   ActionType
	Reason string

	// Multiplier is the damping multiplier the decision installed for the
	// next cycle's integration.
	Multiplier float64

	// BoostedModule names the module whose resilience was boosted by this
	// action, or is empty when no boost was applied on this cycle.
	BoostedModule string

	Timestamp time.Time
}

// defense turns the classified phase into next-cycle dynamics: the damping
// multiplier fed to integrate, and the one-shot strategic resilience boost.
// Decisions are committed after the cycle's tensions, so every intervention
// reaches the dynamics with exactly one cycle of lag.
type defense struct {
	cfg Config

	multiplier float64

	boostTarget *moduleState
	boosted     bool

	lastPhase  Phase
	lastAction Action
}

func newDefense(cfg Config, boostTarget *moduleState) *defense {
	return &defense{
		cfg:         cfg,
		multiplier:  1.0,
		boostTarget: boostTarget,
		lastPhase:   PhaseNominal,
		lastAction: Action{
			Type:       DefenseStandby,
			Reason:     "engine started",
			Multiplier: 1.0,
			Timestamp:  time.Now(),
		},
	}
}

// step installs the multiplier for the next cycle and returns the decision.
func (d *defense) step(phase Phase, monitored float64) Action {
	var act Action
	if phase == PhaseFirewall {
		d.multiplier = d.cfg.DefenseMultiplier + d.cfg.DefenseBoostGain*monitored
		act = Action{
			Type:       DefenseHold,
			Reason:     fmt.Sprintf("monitored tension %.3f holding above exit threshold %.3f", monitored, d.cfg.FirewallExitThreshold),
			Multiplier: d.multiplier,
		}
		if d.lastPhase != PhaseFirewall {
			act.Type = DefenseEngage
			act.Reason = fmt.Sprintf("monitored tension %.3f reached firewall threshold %.3f", monitored, d.cfg.FirewallThreshold)
		}
		if d.boostTarget != nil && !d.boosted {
			d.boostTarget.resilience = d.boostTarget.baseResilience + d.cfg.BoostAmount
			d.boosted = true
			act.BoostedModule = d.boostTarget.id
		}
	} else {
		d.multiplier = 1.0
		act = Action{
			Type:       DefenseStandby,
			Reason:     fmt.Sprintf("no defense required at monitored tension %.3f", monitored),
			Multiplier: 1.0,
		}
		if d.lastPhase == PhaseFirewall {
			act.Type = DefenseRelease
			act.Reason = fmt.Sprintf("monitored tension %.3f fell below exit threshold %.3f", monitored, d.cfg.FirewallExitThreshold)
		}
	}
	act.Timestamp = time.Now()
	d.lastPhase = phase
	d.lastAction = act
	return act
}

// resetBoost restores the boosted module's base resilience and re-arms the
// boost for the next FIREWALL entry.
func (d *defense) resetBoost() {
	if d.boostTarget == nil || !d.boosted {
		return
	}
	d.boostTarget.resilience = d.boostTarget.baseResilience
	d.boosted = false
}

// updateCrisis runs the per-module crisis bookkeeping at commit time. A
// module that reaches the firewall threshold enters crisis and re-arms its
// recovery window; once tension stays below the threshold the window counts
// down, and only after it empties does the flag clear. The flag gates load
// shedding in propagate.
func updateCrisis(m *moduleState, cfg Config) {
	switch {
	case m.tension >= cfg.FirewallThreshold:
		m.inCrisis = true
		m.recovery = cfg.RecoveryWindowCycles
	case m.recovery > 0:
		m.recovery--
	default:
		m.inCrisis = false
	}
}
