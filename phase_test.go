package tensionwall

import "testing"

// TestClassifier_Bands verifies first-sight classification with escalation
// ties resolved upward (≥).
func TestClassifier_Bands(t *testing.T) {
	tests := []struct {
		name      string
		monitored float64
		want      Phase
	}{
		{"zero", 0.0, PhaseNominal},
		{"just below predictive", 0.39, PhaseNominal},
		{"at predictive", 0.4, PhasePredictive},
		{"mid band", 0.7, PhasePredictive},
		{"just below firewall", 0.99, PhasePredictive},
		{"at firewall", 1.0, PhaseFirewall},
		{"far above firewall", 2.5, PhaseFirewall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClassifier(DefaultConfig())

			if got := c.step(tt.monitored); got != tt.want {
				t.Errorf("step(%.2f) = %s, want %s", tt.monitored, got, tt.want)
			}
		})
	}
}

// TestClassifier_SchmittHold verifies FIREWALL holds through the hysteresis
// band, including at exactly the exit threshold.
func TestClassifier_SchmittHold(t *testing.T) {
	c := newClassifier(DefaultConfig())

	if got := c.step(1.2); got != PhaseFirewall {
		t.Fatalf("step(1.2) = %s, want FIREWALL", got)
	}

	// Falling back inside the band must not release.
	for _, v := range []float64{0.5, 0.41, 0.4} {
		if got := c.step(v); got != PhaseFirewall {
			t.Errorf("step(%.2f) after firewall = %s, want FIREWALL (sticky)", v, got)
		}
	}

	// Strictly below the exit threshold releases.
	if got := c.step(0.399); got != PhaseNominal {
		t.Errorf("step(0.399) = %s, want NOMINAL", got)
	}

	// And the trigger re-arms.
	if got := c.step(1.0); got != PhaseFirewall {
		t.Errorf("re-entry step(1.0) = %s, want FIREWALL", got)
	}
}

// TestClassifier_NoChatter verifies a value oscillating between 0.41 and
// 0.99 is permanently PREDICTIVE: it can neither trip the firewall nor fall
// back to NOMINAL.
func TestClassifier_NoChatter(t *testing.T) {
	c := newClassifier(DefaultConfig())

	seq := []float64{0.41, 0.99, 0.45, 0.98, 0.60, 0.41, 0.99}
	for i := 0; i < 100; i++ {
		v := seq[i%len(seq)]
		if got := c.step(v); got != PhasePredictive {
			t.Fatalf("step(%.2f) at iteration %d = %s, want PREDICTIVE", v, i, got)
		}
	}

	t.Logf("✓ 100 oscillations inside (0.4, 1.0) never left PREDICTIVE")
}

// TestClassifier_ExitIntoPredictive verifies that with an exit threshold
// above the predictive threshold, releasing from FIREWALL lands in the band
// the monitored value actually occupies.
func TestClassifier_ExitIntoPredictive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FirewallExitThreshold = 0.7

	c := newClassifier(cfg)
	c.step(1.3)

	if got := c.step(0.7); got != PhaseFirewall {
		t.Errorf("step(0.7) at exit threshold = %s, want FIREWALL (de-escalation is strict)", got)
	}
	if got := c.step(0.65); got != PhasePredictive {
		t.Errorf("step(0.65) = %s, want PREDICTIVE (0.65 ≥ 0.4)", got)
	}
	if got := c.step(0.2); got != PhaseNominal {
		t.Errorf("step(0.2) = %s, want NOMINAL", got)
	}
}
