package tensionwall

import (
	"math"
	"sort"
)

// DynamicsStats summarizes the monitored-tension trajectory so far.
type DynamicsStats struct {
	// Cycles is the total number of committed cycles.
	Cycles int

	// Peak is the highest monitored tension ever committed, including
	// cycles that have since rotated out of the sample ring.
	Peak float64

	// Velocity is the monitored delta of the most recent cycle.
	Velocity float64

	// P50 and P99 are nearest-rank percentiles over the retained ring.
	P50 float64
	P99 float64

	PhaseCycles     map[Phase]int
	Transitions     int
	FirewallEntries int
}

// dynamics records one monitored sample per cycle in a fixed ring and keeps
// cheap aggregates alongside. Percentiles are computed lazily and cached
// until the next record, so repeated stats reads between cycles cost
// nothing.
type dynamics struct {
	samples []float64
	next    int
	filled  int
	total   int

	peak float64
	last float64
	prev float64

	phaseCycles     map[Phase]int
	lastPhase       Phase
	transitions     int
	firewallEntries int

	p50        float64
	p99        float64
	cacheValid bool
}

func newDynamics(size int) *dynamics {
	if size <= 0 {
		size = DefaultConfig().HistorySize
	}
	return &dynamics{
		samples:     make([]float64, size),
		phaseCycles: make(map[Phase]int),
		lastPhase:   PhaseNominal,
	}
}

func (d *dynamics) record(monitored float64, phase Phase) {
	d.samples[d.next] = monitored
	d.next = (d.next + 1) % len(d.samples)
	if d.filled < len(d.samples) {
		d.filled++
	}
	d.total++
	d.cacheValid = false

	if monitored > d.peak {
		d.peak = monitored
	}
	d.prev = d.last
	d.last = monitored

	d.phaseCycles[phase]++
	if phase != d.lastPhase {
		d.transitions++
		if phase == PhaseFirewall {
			d.firewallEntries++
		}
	}
	d.lastPhase = phase
}

func (d *dynamics) stats() DynamicsStats {
	if !d.cacheValid {
		d.p50 = d.percentile(50)
		d.p99 = d.percentile(99)
		d.cacheValid = true
	}
	velocity := 0.0
	if d.total >= 2 {
		velocity = d.last - d.prev
	}
	phases := make(map[Phase]int, len(d.phaseCycles))
	for p, n := range d.phaseCycles {
		phases[p] = n
	}
	return DynamicsStats{
		Cycles:          d.total,
		Peak:            d.peak,
		Velocity:        velocity,
		P50:             d.p50,
		P99:             d.p99,
		PhaseCycles:     phases,
		Transitions:     d.transitions,
		FirewallEntries: d.firewallEntries,
	}
}

// percentile returns the nearest-rank p-th percentile of the retained
// samples, or 0 before the first cycle.
func (d *dynamics) percentile(p float64) float64 {
	if d.filled == 0 {
		return 0
	}
	sorted := make([]float64, d.filled)
	copy(sorted, d.samples[:d.filled])
	sort.Float64s(sorted)
	rank := int(math.Ceil(p/100*float64(d.filled))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= d.filled {
		rank = d.filled - 1
	}
	return sorted[rank]
}
