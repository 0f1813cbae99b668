package pricing

import (
	"context"
	"sync"

	"rentaldesk-backend/internal/logger"
)

// Provider supplies the rate schedule currently in effect. Billing always
// asks the provider at calculation time; schedules are never cached inside a
// rental beyond its stored breakdown.
type Provider interface {
	Current(ctx context.Context) (Schedule, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (Schedule, error)

func (f ProviderFunc) Current(ctx context.Context) (Schedule, error) {
	return f(ctx)
}

// StaticProvider always returns the same schedule. Used for tests and as the
// seed for FallbackProvider.
type StaticProvider struct {
	Schedule Schedule
}

func (p StaticProvider) Current(ctx context.Context) (Schedule, error) {
	return p.Schedule, nil
}

// FallbackProvider wraps an inner provider and keeps the last schedule it
// served. A provider outage or an invalid schedule must not fail a billing
// operation, so on error the last-known-good schedule is returned instead.
type FallbackProvider struct {
	inner Provider

	mu   sync.RWMutex
	last Schedule
}

// NewFallbackProvider seeds the fallback with a default schedule, typically
// from configuration. The seed must be valid.
func NewFallbackProvider(inner Provider, seed Schedule) *FallbackProvider {
	return &FallbackProvider{inner: inner, last: seed}
}

func (p *FallbackProvider) Current(ctx context.Context) (Schedule, error) {
	sched, err := p.inner.Current(ctx)
	if err == nil {
		err = sched.Validate()
	}
	if err != nil {
		logger.Warn("Rate schedule provider failed, serving last known good", "error", err)
		p.mu.RLock()
		defer p.mu.RUnlock()
		return p.last, nil
	}

	p.mu.Lock()
	p.last = sched
	p.mu.Unlock()
	return sched, nil
}
