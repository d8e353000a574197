package tensionwall

// ModuleSpec declares one module at construction time.
type ModuleSpec struct {
	// ID must be unique across the system and non-empty.
	ID string `yaml:"id" json:"id"`

	// Beta scales excitation inflow, Gamma scales resilience outflow. Both
	// must be positive.
	Beta  float64 `yaml:"beta" json:"beta"`
	Gamma float64 `yaml:"gamma" json:"gamma"`

	// Excitation and Resilience seed the module's initial E and F. Negative
	// values are rejected at construction.
	Excitation float64 `yaml:"excitation" json:"excitation"`
	Resilience float64 `yaml:"resilience" json:"resilience"`

	// Tension seeds the initial T. Clamped into [0, TensionCap] on the
	// first commit like any other tension value.
	Tension float64 `yaml:"tension" json:"tension"`
}

// Edge declares a directed coupling: tension at Source bleeds into Target,
// scaled by Weight. Self-loops are permitted; duplicate (Source, Target)
// pairs are not.
type Edge struct {
	Source string  `yaml:"source" json:"source"`
	Target string  `yaml:"target" json:"target"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// moduleState is the live per-module record. Tension carries the committed
// value; prev holds the snapshot taken at the top of the running cycle so
// that propagation reads a consistent pre-cycle view.
type moduleState struct {
	id string

	beta  float64
	gamma float64

	excitation     float64
	resilience     float64
	baseResilience float64

	tension float64
	prev    float64

	inCrisis bool
	recovery int
}

// coupling is the resolved, index-based form of an Edge.
type coupling struct {
	source int
	target int
	weight float64
}

// ModuleSnapshot is the per-module slice of a cycle Snapshot.
type ModuleSnapshot struct {
	ID         string  `json:"id"`
	Tension    float64 `json:"tension"`
	Excitation float64 `json:"excitation"`
	Resilience float64 `json:"resilience"`
	InCrisis   bool    `json:"in_crisis"`
	// RecoveryLeft counts the cycles remaining before the crisis flag can
	// clear. Zero when the module is not in crisis.
	RecoveryLeft int `json:"recovery_left,omitempty"`
}

// Snapshot captures the committed state of one cycle.
type Snapshot struct {
	Cycle     int     `json:"cycle"`
	Phase     Phase   `json:"phase"`
	Monitored float64 `json:"monitored"`

	// Multiplier is the damping multiplier that will apply to the NEXT
	// cycle's integration; defense acts with one cycle of lag.
	Multiplier float64 `json:"multiplier"`

	Modules []ModuleSnapshot `json:"modules"`
}

// Module returns the snapshot for id, or false when the cycle did not
// include it.
func (s Snapshot) Module(id string) (ModuleSnapshot, bool) {
	for _, m := range s.Modules {
		if m.ID == id {
			return m, true
		}
	}
	return ModuleSnapshot{}, false
}
