package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mmynk/bizlens/internal/models"
)

// ErrUnavailable is returned while the breaker is open and fetches are
// being short-circuited.
var ErrUnavailable = errors.New("data source unavailable")

// BreakerConfig tunes when BreakerProvider stops calling its source.
type BreakerConfig struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
}

// BreakerProvider guards a Provider with a circuit breaker so a failing
// upstream is not hammered on every dashboard refresh.
type BreakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker
}

var _ Provider = (*BreakerProvider)(nil)

// NewBreakerProvider wraps next. The breaker opens after MaxFailures
// consecutive fetch errors and retries after OpenTimeout.
func NewBreakerProvider(next Provider, cfg BreakerConfig) *BreakerProvider {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	return &BreakerProvider{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.MaxFailures
			},
			// A cancelled request says nothing about the upstream's health.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed",
					"name", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		}),
	}
}

// State reports the breaker state, e.g. "closed" or "open".
func (p *BreakerProvider) State() string {
	return p.cb.State().String()
}

func (p *BreakerProvider) FetchBills(ctx context.Context) ([]models.Bill, error) {
	return guarded(p.cb, func() ([]models.Bill, error) { return p.next.FetchBills(ctx) })
}

func (p *BreakerProvider) FetchProducts(ctx context.Context) ([]models.Product, error) {
	return guarded(p.cb, func() ([]models.Product, error) { return p.next.FetchProducts(ctx) })
}

func (p *BreakerProvider) FetchCustomers(ctx context.Context) ([]models.Customer, error) {
	return guarded(p.cb, func() ([]models.Customer, error) { return p.next.FetchCustomers(ctx) })
}

func guarded[T any](cb *gobreaker.CircuitBreaker, fn func() ([]T, error)) ([]T, error) {
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return out.([]T), nil
}
