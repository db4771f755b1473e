package breaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Config holds circuit breaker settings.
type Config struct {
	// Name identifies the breaker in logs and metrics.
	Name string

	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32

	// Interval clears counts while closed. 0 never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before half-opening.
	Timeout time.Duration

	// FailureRatio trips the breaker once reached.
	FailureRatio float64

	// MinRequests must be seen before FailureRatio is evaluated.
	MinRequests uint32
}

// DefaultConfig returns settings that open after half of at least five
// calls fail and probe again after ten seconds.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      10 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "storefront_kv_circuit_breaker_state",
		Help: "Current state of the key-value circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// ErrOpen is returned, wrapped in an unavailable error, while the breaker
// rejects calls.
var ErrOpen = gobreaker.ErrOpenState

// KeyValueStore guards another KeyValueStore with a circuit breaker.
// Not-found reads count as successes.
type KeyValueStore struct {
	next    repository.KeyValueStore
	breaker *gobreaker.CircuitBreaker[[]byte]
	name    string
}

// Wrap decorates next with a circuit breaker.
func Wrap(next repository.KeyValueStore, cfg Config, logger *slog.Logger) *KeyValueStore {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, apperrors.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &KeyValueStore{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		name:    cfg.Name,
	}
}

func (s *KeyValueStore) execute(fn func() ([]byte, error)) ([]byte, error) {
	v, err := s.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperrors.Unavailable(s.name, err)
	}
	return v, err
}

func (s *KeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.execute(func() ([]byte, error) {
		return s.next.Get(ctx, key)
	})
}

func (s *KeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.execute(func() ([]byte, error) {
		return nil, s.next.Set(ctx, key, value)
	})
	return err
}

func (s *KeyValueStore) Delete(ctx context.Context, key string) error {
	_, err := s.execute(func() ([]byte, error) {
		return nil, s.next.Delete(ctx, key)
	})
	return err
}

// Ping reports unavailability while open, otherwise delegates when the
// wrapped store supports it.
func (s *KeyValueStore) Ping(ctx context.Context) error {
	if s.breaker.State() == gobreaker.StateOpen {
		return apperrors.Unavailable(s.name, ErrOpen)
	}
	if p, ok := s.next.(repository.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// State returns the breaker state.
func (s *KeyValueStore) State() gobreaker.State {
	return s.breaker.State()
}
