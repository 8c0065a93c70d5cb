package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/scout-analytics/adsbot/internal/circuitbreaker"
)

// rateLimited throttles calls to an inner provider. A limiter wait aborted by
// context cancellation surfaces as ErrUnavailable so the executor advances
// its state machine like any other provider error.
type rateLimited struct {
	inner   Provider
	limiter *rate.Limiter
}

// WithRateLimit wraps a provider with a requests-per-minute budget.
// rpm <= 0 disables throttling.
func WithRateLimit(p Provider, rpm int) Provider {
	if rpm <= 0 {
		return p
	}
	return &rateLimited{
		inner:   p,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
	}
}

func (r *rateLimited) Name() string { return r.inner.Name() }

func (r *rateLimited) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w: rate limiter: %v", r.inner.Name(), ErrUnavailable, err)
	}
	return r.inner.Complete(ctx, req)
}

// breakerGuarded short-circuits calls while the provider's breaker is open.
type breakerGuarded struct {
	inner   Provider
	breaker *circuitbreaker.CircuitBreaker
}

// WithBreaker wraps a provider with a circuit breaker. An open breaker
// surfaces as ErrUnavailable.
func WithBreaker(p Provider, cb *circuitbreaker.CircuitBreaker) Provider {
	return &breakerGuarded{inner: p, breaker: cb}
}

func (b *breakerGuarded) Name() string { return b.inner.Name() }

func (b *breakerGuarded) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	var out *Completion
	err := b.breaker.Execute(ctx, func() error {
		var callErr error
		out, callErr = b.inner.Complete(ctx, req)
		return callErr
	})
	if err != nil {
		if err == circuitbreaker.ErrOpen || err == circuitbreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%s: %w: %v", b.inner.Name(), ErrUnavailable, err)
		}
		return nil, err
	}
	return out, nil
}
