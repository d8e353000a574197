package tensionwall

// Phase labels the system's operating regime as seen by the classifier.
type Phase string

const (
	// PhaseNominal: monitored tension below the predictive threshold.
	PhaseNominal Phase = "NOMINAL"

	// PhasePredictive: monitored tension in the early-warning band. No
	// defense acts yet; the phase exists so operators (and the defense
	// controller's logs) see trouble before the firewall trips.
	PhasePredictive Phase = "PREDICTIVE"

	// PhaseFirewall: monitored tension reached the firewall threshold, or
	// has not yet fallen back below the exit threshold since it did.
	PhaseFirewall Phase = "FIREWALL"
)

// classifier is a Schmitt trigger over the monitored tension. Escalation
// compares with ≥ against the predictive and firewall thresholds;
// de-escalation out of FIREWALL requires the monitored value to fall
// strictly below the exit threshold, which sits below the entry threshold.
// The band between the two is where the classifier holds: a value
// oscillating inside it cannot chatter the phase.
type classifier struct {
	predictive float64
	firewall   float64
	exit       float64

	phase Phase
}

func newClassifier(cfg Config) *classifier {
	return &classifier{
		predictive: cfg.PredictiveThreshold,
		firewall:   cfg.FirewallThreshold,
		exit:       cfg.FirewallExitThreshold,
		phase:      PhaseNominal,
	}
}

// step classifies one cycle's monitored value and returns the new phase.
func (c *classifier) step(monitored float64) Phase {
	if c.phase == PhaseFirewall && monitored >= c.exit {
		return c.phase
	}
	switch {
	case monitored >= c.firewall:
		c.phase = PhaseFirewall
	case monitored >= c.predictive:
		c.phase = PhasePredictive
	default:
		c.phase = PhaseNominal
	}
	return c.phase
}
