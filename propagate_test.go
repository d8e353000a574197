package tensionwall

import (
	"math"
	"testing"
)

// TestPropagate_Contribution verifies the edge formula T_source·w_eff·accel.
func TestPropagate_Contribution(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name   string
		source moduleState
		weight float64
		want   float64
	}{
		{
			name:   "calm source, plain weight",
			source: moduleState{prev: 0.5},
			weight: 0.1,
			want:   0.05, // 0.5·0.1
		},
		{
			name:   "critical source accelerates",
			source: moduleState{prev: 2.0},
			weight: 0.05,
			want:   0.15, // 2.0·0.05·1.5
		},
		{
			name:   "at trigger exactly, no acceleration",
			source: moduleState{prev: 1.0},
			weight: 0.1,
			want:   0.1, // strict >, so 1.0 stays plain
		},
		{
			name:   "crisis source sheds to 30%",
			source: moduleState{prev: 0.8, inCrisis: true},
			weight: 0.1,
			want:   0.024, // 0.8·(0.1·0.3)
		},
		{
			name:   "crisis and acceleration stack",
			source: moduleState{prev: 2.0, inCrisis: true},
			weight: 0.05,
			want:   0.045, // 2.0·(0.05·0.3)·1.5
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modules := []*moduleState{&tt.source, {id: "sink"}}
			edges := []coupling{{source: 0, target: 1, weight: tt.weight}}

			inflow := propagate(modules, edges, cfg)

			if math.Abs(inflow[1]-tt.want) > 1e-12 {
				t.Errorf("inflow = %.12f, want %.12f", inflow[1], tt.want)
			}
			if inflow[0] != 0 {
				t.Errorf("source received inflow %.12f, want 0", inflow[0])
			}
		})
	}
}

// TestPropagate_SheddingRatio verifies a crisis source contributes exactly
// the shedding factor of its healthy contribution.
func TestPropagate_SheddingRatio(t *testing.T) {
	cfg := DefaultConfig()
	healthy := []*moduleState{{prev: 0.9}, {}}
	crisis := []*moduleState{{prev: 0.9, inCrisis: true}, {}}
	edges := []coupling{{source: 0, target: 1, weight: 0.2}}

	h := propagate(healthy, edges, cfg)[1]
	c := propagate(crisis, edges, cfg)[1]

	if math.Abs(c-h*cfg.LoadSheddingFactor) > 1e-12 {
		t.Errorf("crisis contribution %.12f, want %.12f (%.0f%% of %.12f)",
			c, h*cfg.LoadSheddingFactor, cfg.LoadSheddingFactor*100, h)
	}
}

// TestPropagate_Commutativity verifies edge declaration order does not
// change the inflow sums.
func TestPropagate_Commutativity(t *testing.T) {
	cfg := DefaultConfig()
	build := func() []*moduleState {
		return []*moduleState{
			{prev: 1.7},
			{prev: 0.3},
			{prev: 2.4, inCrisis: true},
			{prev: 0.0},
		}
	}
	forward := []coupling{
		{source: 0, target: 3, weight: 0.11},
		{source: 1, target: 3, weight: 0.07},
		{source: 2, target: 3, weight: 0.05},
		{source: 0, target: 1, weight: 0.02},
		{source: 2, target: 1, weight: 0.09},
	}
	reversed := make([]coupling, len(forward))
	for i, e := range forward {
		reversed[len(forward)-1-i] = e
	}

	a := propagate(build(), forward, cfg)
	b := propagate(build(), reversed, cfg)

	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-12 {
			t.Errorf("module %d: forward %.15f, reversed %.15f", i, a[i], b[i])
		}
	}
}

// TestPropagate_ReadsSnapshot verifies contributions come from the
// cycle-start snapshot, not from freshly integrated values.
func TestPropagate_ReadsSnapshot(t *testing.T) {
	cfg := DefaultConfig()
	modules := []*moduleState{
		{prev: 0.5, tension: 9.0}, // tension already advanced this cycle
		{},
	}
	edges := []coupling{{source: 0, target: 1, weight: 0.1}}

	inflow := propagate(modules, edges, cfg)

	if math.Abs(inflow[1]-0.05) > 1e-12 {
		t.Errorf("inflow = %.12f, want 0.05 (from snapshot 0.5, not live 9.0)", inflow[1])
	}
}

// TestPropagate_FanInAndSelfLoop verifies summation and self-coupling.
func TestPropagate_FanInAndSelfLoop(t *testing.T) {
	cfg := DefaultConfig()
	modules := []*moduleState{
		{prev: 1.0},
		{prev: 2.0},
		{prev: 0.5},
	}
	edges := []coupling{
		{source: 0, target: 2, weight: 0.1}, // 1.0·0.1 = 0.1
		{source: 1, target: 2, weight: 0.1}, // 2.0·0.1·1.5 = 0.3
		{source: 2, target: 2, weight: 0.2}, // 0.5·0.2 = 0.1 self-loop
	}

	inflow := propagate(modules, edges, cfg)

	if math.Abs(inflow[2]-0.5) > 1e-12 {
		t.Errorf("fan-in inflow = %.12f, want 0.5", inflow[2])
	}
}
