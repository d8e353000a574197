package tensionwall

// propagate computes the coupling inflow for every module from the tension
// snapshot taken at the top of the cycle. Each edge contributes
//
//	source.prev · w_eff · accel
//
// where w_eff is the declared weight scaled by the load-shedding factor when
// the source is in crisis, and accel is the acceleration factor when the
// source's snapshot tension exceeds the trigger. Contributions to a target
// are summed; edge declaration order does not matter beyond float rounding.
//
// Reading the snapshot (not the freshly integrated values) keeps the step
// order-independent: every module sees every other module as it stood when
// the cycle began.
func propagate(modules []*moduleState, edges []coupling, cfg Config) []float64 {
	inflow := make([]float64, len(modules))
	for _, e := range edges {
		src := modules[e.source]
		w := e.weight
		if src.inCrisis {
			w *= cfg.LoadSheddingFactor
		}
		accel := 1.0
		if src.prev > cfg.AccelerationTrigger {
			accel = cfg.AccelerationFactor
		}
		inflow[e.target] += src.prev * w * accel
	}
	return inflow
}
