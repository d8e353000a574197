package tensionwall

// UpdatePolicy selects how a module's local tension evolves each cycle.
type UpdatePolicy string

const (
	// PolicyAlgebraic recomputes tension from scratch each cycle:
	// T' = max(0, β·E − γ_eff·F). Previous tension only matters for
	// propagation and diagnostics.
	PolicyAlgebraic UpdatePolicy = "algebraic"

	// PolicyIntegrative evolves tension as a true state variable:
	// T' = max(0, T + (β·E − γ_eff·F·T)·dt).
	PolicyIntegrative UpdatePolicy = "integrative"
)

// MonitorMode selects which value the phase classifier watches.
type MonitorMode string

const (
	// MonitorGlobalMax watches the maximum tension across all modules.
	MonitorGlobalMax MonitorMode = "global_max"

	// MonitorNamedModule watches one designated index module's tension.
	// Config.MonitorModule names it.
	MonitorNamedModule MonitorMode = "named_module"
)

// Config holds every tunable parameter of the engine. Zero values are not
// usable; start from DefaultConfig and override.
type Config struct {
	// Phase thresholds. Escalation uses ≥, de-escalation uses <; the
	// FirewallExitThreshold must sit strictly below FirewallThreshold so the
	// classifier has a hysteresis band to hold in.
	PredictiveThreshold   float64 `yaml:"predictive_threshold" json:"predictive_threshold"`
	FirewallThreshold     float64 `yaml:"firewall_threshold" json:"firewall_threshold"`
	FirewallExitThreshold float64 `yaml:"firewall_exit_threshold" json:"firewall_exit_threshold"`

	// TensionCap bounds every module's tension from above (T_max).
	TensionCap float64 `yaml:"tension_cap" json:"tension_cap"`

	// Dt is the integration time step, used only by PolicyIntegrative.
	Dt float64 `yaml:"dt" json:"dt"`

	// DefenseMultiplier scales every module's damping term while the system
	// is in FIREWALL. Outside FIREWALL the effective multiplier is 1.0.
	DefenseMultiplier float64 `yaml:"defense_multiplier" json:"defense_multiplier"`

	// DefenseBoostGain, when positive, adds a tension-proportional term to
	// the firewall damping: multiplier = DefenseMultiplier +
	// DefenseBoostGain·monitored. Zero disables the term.
	DefenseBoostGain float64 `yaml:"defense_boost_gain" json:"defense_boost_gain"`

	// RecoveryWindowCycles is the number of cycles a module keeps its crisis
	// flag after tension last reached the firewall threshold.
	RecoveryWindowCycles int `yaml:"recovery_window_cycles" json:"recovery_window_cycles"`

	// LoadSheddingFactor multiplies the outgoing coupling weight of a module
	// that is in crisis. 0.3 means a crisis module sheds 70% of its
	// influence on neighbors.
	LoadSheddingFactor float64 `yaml:"load_shedding_factor" json:"load_shedding_factor"`

	// AccelerationFactor multiplies an edge's contribution when the source
	// tension exceeds AccelerationTrigger: transmission speeds up once the
	// donor is itself critical.
	AccelerationFactor  float64 `yaml:"acceleration_factor" json:"acceleration_factor"`
	AccelerationTrigger float64 `yaml:"acceleration_trigger" json:"acceleration_trigger"`

	UpdatePolicy UpdatePolicy `yaml:"update_policy" json:"update_policy"`

	MonitorMode MonitorMode `yaml:"monitor_mode" json:"monitor_mode"`
	// MonitorModule names the index module when MonitorMode is
	// MonitorNamedModule. Ignored otherwise.
	MonitorModule string `yaml:"monitor_module" json:"monitor_module,omitempty"`

	// BoostModule, when set, names the module whose resilience receives a
	// one-time strategic boost of BoostAmount on FIREWALL entry. The boost
	// persists until ResetBoost is called; it does not stack.
	BoostModule string  `yaml:"boost_module" json:"boost_module,omitempty"`
	BoostAmount float64 `yaml:"boost_amount" json:"boost_amount,omitempty"`

	// HistorySize bounds the monitored-value ring kept for diagnostics.
	// Non-positive values fall back to the default.
	HistorySize int `yaml:"history_size" json:"history_size"`
}

// DefaultConfig returns the parameter set the production variants converged
// on: integrative updates at dt = 0.05, the 0.4 / 1.0 / 0.4 hysteresis band,
// 1.8x firewall damping, ten-cycle recovery windows, and 70% load shedding.
func DefaultConfig() Config {
	return Config{
		PredictiveThreshold:   0.4,
		FirewallThreshold:     1.0,
		FirewallExitThreshold: 0.4,
		TensionCap:            3.0,
		Dt:                    0.05,
		DefenseMultiplier:     1.8,
		DefenseBoostGain:      0.0,
		RecoveryWindowCycles:  10,
		LoadSheddingFactor:    0.3,
		AccelerationFactor:    1.5,
		AccelerationTrigger:   1.0,
		UpdatePolicy:          PolicyIntegrative,
		MonitorMode:           MonitorGlobalMax,
		HistorySize:           256,
	}
}

// Validate checks internal consistency. It does not know the module set;
// references to named modules (MonitorModule, BoostModule) are resolved by
// New.
func (c Config) Validate() error {
	if c.PredictiveThreshold <= 0 {
		return &ConfigError{Param: "predictive_threshold", Reason: "must be positive"}
	}
	if c.FirewallThreshold <= 0 {
		return &ConfigError{Param: "firewall_threshold", Reason: "must be positive"}
	}
	if c.FirewallExitThreshold >= c.FirewallThreshold {
		return &ConfigError{
			Param:  "firewall_exit_threshold",
			Reason: "must be strictly below firewall_threshold (hysteresis band)",
		}
	}
	if c.FirewallExitThreshold < 0 {
		return &ConfigError{Param: "firewall_exit_threshold", Reason: "must be non-negative"}
	}
	if c.TensionCap <= 0 {
		return &ConfigError{Param: "tension_cap", Reason: "must be positive"}
	}
	if c.UpdatePolicy != PolicyAlgebraic && c.UpdatePolicy != PolicyIntegrative {
		return &ConfigError{Param: "update_policy", Reason: "must be \"algebraic\" or \"integrative\""}
	}
	if c.UpdatePolicy == PolicyIntegrative && c.Dt <= 0 {
		return &InvalidCoefficientError{Coefficient: "dt", Value: c.Dt}
	}
	if c.DefenseMultiplier < 1 {
		return &ConfigError{Param: "defense_multiplier", Reason: "must be at least 1"}
	}
	if c.DefenseBoostGain < 0 {
		return &ConfigError{Param: "defense_boost_gain", Reason: "must be non-negative"}
	}
	if c.RecoveryWindowCycles <= 0 {
		return &ConfigError{Param: "recovery_window_cycles", Reason: "must be positive"}
	}
	if c.LoadSheddingFactor < 0 || c.LoadSheddingFactor > 1 {
		return &ConfigError{Param: "load_shedding_factor", Reason: "must be in [0, 1]"}
	}
	if c.AccelerationFactor <= 0 {
		return &ConfigError{Param: "acceleration_factor", Reason: "must be positive"}
	}
	if c.AccelerationTrigger < 0 {
		return &ConfigError{Param: "acceleration_trigger", Reason: "must be non-negative"}
	}
	if c.MonitorMode != MonitorGlobalMax && c.MonitorMode != MonitorNamedModule {
		return &ConfigError{Param: "monitor_mode", Reason: "must be \"global_max\" or \"named_module\""}
	}
	if c.MonitorMode == MonitorNamedModule && c.MonitorModule == "" {
		return &ConfigError{Param: "monitor_module", Reason: "required for named_module monitoring"}
	}
	if c.BoostModule != "" && c.BoostAmount <= 0 {
		return &ConfigError{Param: "boost_amount", Reason: "must be positive when boost_module is set"}
	}
	if c.BoostModule == "" && c.BoostAmount != 0 {
		return &ConfigError{Param: "boost_module", Reason: "required when boost_amount is set"}
	}
	return nil
}
