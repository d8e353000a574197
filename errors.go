package tensionwall

import "fmt"

// UnknownModuleError reports a reference to a module id that is not
// registered with the engine. Cycles that carry an unknown id are rejected
// atomically: no state is mutated.
type UnknownModuleError struct {
	ID string
}

func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("unknown module %q", e.ID)
}

// InvalidCoefficientError reports a non-positive sensitivity coefficient or
// time step supplied at construction. These are always fatal: the engine
// never starts with an invalid coefficient.
type InvalidCoefficientError struct {
	Module      string // empty for engine-wide parameters such as dt
	Coefficient string
	Value       float64
}

func (e *InvalidCoefficientError) Error() string {
	if e.Module == "" {
		return fmt.Sprintf("invalid coefficient %s = %g", e.Coefficient, e.Value)
	}
	return fmt.Sprintf("module %q: invalid coefficient %s = %g", e.Module, e.Coefficient, e.Value)
}

// ConfigError reports an invalid construction-time parameter other than a
// coefficient: duplicate module ids, dangling edge references, threshold
// ordering violations, and the like.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Param, e.Reason)
}
