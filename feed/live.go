package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// LiveConfig tunes the HTTP signal provider.
type LiveConfig struct {
	// URL must serve a flat JSON object of module id to raw signal value.
	URL string

	// Timeout bounds each fetch.
	Timeout time.Duration

	// Scale and Ceiling normalize raw signals into excitations, the same
	// way the random walk does.
	Scale   float64
	Ceiling float64

	// BreakerTimeout is how long the circuit stays open after tripping
	// before a probe request is allowed through.
	BreakerTimeout time.Duration
}

// DefaultLiveConfig returns the live-feed defaults.
func DefaultLiveConfig() LiveConfig {
	return LiveConfig{
		Timeout:        5 * time.Second,
		Scale:          40.0,
		Ceiling:        1.0,
		BreakerTimeout: 30 * time.Second,
	}
}

// LiveProvider polls an HTTP endpoint for raw signals. Fetches run through
// a circuit breaker; while the circuit is open, or when a fetch fails, the
// provider serves from its fallback instead of erroring the cycle. A feed
// outage must never stall the engine that is supposed to defend against
// exactly that kind of trouble.
type LiveProvider struct {
	cfg      LiveConfig
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	fallback Provider
	log      *slog.Logger
}

// NewLiveProvider builds a provider for cfg.URL. fallback may be nil, in
// which case fetch failures surface as errors.
func NewLiveProvider(cfg LiveConfig, fallback Provider) *LiveProvider {
	log := slog.Default().With("component", "feed")
	p := &LiveProvider{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		fallback: fallback,
		log:      log,
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "live-feed",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("feed breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})
	return p
}

func (p *LiveProvider) Next(ctx context.Context) (map[string]float64, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetch(ctx)
	})
	if err != nil {
		if p.fallback == nil {
			return nil, fmt.Errorf("live feed: %w", err)
		}
		p.log.Warn("live feed unavailable, using fallback", "error", err)
		return p.fallback.Next(ctx)
	}
	return out.(map[string]float64), nil
}

func (p *LiveProvider) fetch(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed endpoint %s: status %d", p.cfg.URL, resp.StatusCode)
	}

	var raw map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("feed endpoint %s: %w", p.cfg.URL, err)
	}

	out := make(map[string]float64, len(raw))
	for id, v := range raw {
		e := v / p.cfg.Scale
		if e > p.cfg.Ceiling {
			e = p.cfg.Ceiling
		}
		out[id] = e
	}
	return out, nil
}
