package tensionwall

import "math"

// integrate advances one module's local tension by one cycle under the given
// damping multiplier and returns the new value, pre-coupling and unclamped
// above (the commit step applies the cap).
//
// Algebraic policy (memoryless):
//
//	T' = max(0, β·E − γ_eff·F)
//
// Integrative policy (first-order state):
//
//	T' = max(0, T + (β·E − γ_eff·F·T)·dt)
//
// where γ_eff = γ·multiplier. The multiplier is whatever the defense
// controller committed at the end of the previous cycle, so a FIREWALL
// classification reaches the dynamics one cycle late.
func integrate(m *moduleState, policy UpdatePolicy, dt, multiplier float64) float64 {
	gammaEff := m.gamma * multiplier
	if policy == PolicyAlgebraic {
		return math.Max(0, m.beta*m.excitation-gammaEff*m.resilience)
	}
	drift := m.beta*m.excitation - gammaEff*m.resilience*m.tension
	return math.Max(0, m.tension+drift*dt)
}

// clampTension commits a raw tension value into [0, cap].
func clampTension(t, cap float64) float64 {
	if t < 0 {
		return 0
	}
	if t > cap {
		return cap
	}
	return t
}
