// Package feed supplies per-cycle excitation inputs to a tension engine.
//
// A Provider returns one excitation map per call. Providers only need to
// report the modules they know about; the engine's sticky semantics carry
// the rest forward. The package ships a deterministic random walk for demos
// and tests, a file poller for operator-driven runs, and an HTTP provider
// with a circuit breaker for live signals.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
)

// Provider yields the excitation inputs for one cycle.
type Provider interface {
	Next(ctx context.Context) (map[string]float64, error)
}

// Static always returns the same excitation map.
type Static map[string]float64

func (s Static) Next(ctx context.Context) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(s))
	for id, v := range s {
		out[id] = v
	}
	return out, nil
}

// RandomWalkConfig tunes the synthetic signal walk.
type RandomWalkConfig struct {
	// Start is each module's initial raw signal value.
	Start float64

	// DriftMin and DriftMax bound the per-cycle uniform drift. The default
	// drift is biased upward so demo runs escalate.
	DriftMin float64
	DriftMax float64

	// Scale divides the raw signal into an excitation; Ceiling caps the
	// result.
	Scale   float64
	Ceiling float64

	Seed int64
}

// DefaultRandomWalkConfig returns the stress-demo walk: a VIX-like signal
// starting at 18 that drifts upward and normalizes against 40.
func DefaultRandomWalkConfig() RandomWalkConfig {
	return RandomWalkConfig{
		Start:    18.0,
		DriftMin: -0.5,
		DriftMax: 1.2,
		Scale:    40.0,
		Ceiling:  1.0,
		Seed:     1,
	}
}

// RandomWalk drives each module with an independent bounded random walk.
// Deterministic for a given seed and module order.
type RandomWalk struct {
	cfg    RandomWalkConfig
	rng    *rand.Rand
	ids    []string
	values map[string]float64
}

// NewRandomWalk builds a walk over the given module ids.
func NewRandomWalk(ids []string, cfg RandomWalkConfig) *RandomWalk {
	values := make(map[string]float64, len(ids))
	for _, id := range ids {
		values[id] = cfg.Start
	}
	ordered := make([]string, len(ids))
	copy(ordered, ids)
	return &RandomWalk{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		ids:    ordered,
		values: values,
	}
}

func (w *RandomWalk) Next(ctx context.Context) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(w.ids))
	for _, id := range w.ids {
		drift := w.cfg.DriftMin + w.rng.Float64()*(w.cfg.DriftMax-w.cfg.DriftMin)
		v := w.values[id] + drift
		if v < 0 {
			v = 0
		}
		w.values[id] = v
		e := v / w.cfg.Scale
		if e > w.cfg.Ceiling {
			e = w.cfg.Ceiling
		}
		out[id] = e
	}
	return out, nil
}

// FileProvider polls a JSON file of module id to excitation. Operators edit
// the file while a run is live; each cycle picks up the current contents.
// After a first successful read, a read or parse failure is not an error:
// the provider re-serves the last good map so a half-written file cannot
// stall a run.
type FileProvider struct {
	path string
	last map[string]float64
}

// NewFileProvider polls path. The file must hold a flat JSON object, for
// example {"payments": 0.6, "ledger": 0.1}.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (f *FileProvider) Next(ctx context.Context) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return f.fallback(err)
	}
	var values map[string]float64
	if err := json.Unmarshal(data, &values); err != nil {
		return f.fallback(err)
	}
	f.last = values
	return clone(values), nil
}

func (f *FileProvider) fallback(err error) (map[string]float64, error) {
	if f.last == nil {
		return nil, fmt.Errorf("feed file %s: %w", f.path, err)
	}
	return clone(f.last), nil
}

func clone(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for id, v := range m {
		out[id] = v
	}
	return out
}
