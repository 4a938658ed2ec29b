package cache

import (
	"context"
	"log/slog"

	"agristack/internal/search/models"
	"agristack/pkg/platform/circuit"
)

// Guarded fronts a shared cache with a circuit breaker and keeps an
// in-process fallback warm. Failures of the primary never surface.
type Guarded struct {
	primary  Cache
	fallback Cache
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewGuarded(primary, fallback Cache, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guarded{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (g *Guarded) Get(ctx context.Context, term string) ([]models.SearchResult, bool, error) {
	results, ok, err := g.primary.Get(ctx, term)
	if err != nil {
		g.recordFailure(ctx, err)
		return g.fallback.Get(ctx, term)
	}
	if !g.recordSuccess(ctx) {
		return g.fallback.Get(ctx, term)
	}
	return results, ok, nil
}

func (g *Guarded) Set(ctx context.Context, term string, results []models.SearchResult) error {
	_ = g.fallback.Set(ctx, term, results)
	if err := g.primary.Set(ctx, term, results); err != nil {
		g.recordFailure(ctx, err)
		return nil
	}
	g.recordSuccess(ctx)
	return nil
}

// Purge clears the fallback first. A primary failure is returned so the
// caller can log it; stale shared entries still expire by TTL.
func (g *Guarded) Purge(ctx context.Context) error {
	_ = g.fallback.Purge(ctx)
	if err := g.primary.Purge(ctx); err != nil {
		g.recordFailure(ctx, err)
		return err
	}
	g.recordSuccess(ctx)
	return nil
}

// State exposes the breaker position for metrics.
func (g *Guarded) State() circuit.State {
	return g.breaker.State()
}

func (g *Guarded) recordFailure(ctx context.Context, err error) {
	_, change := g.breaker.RecordFailure()
	if change.Opened {
		g.logger.WarnContext(ctx, "search cache circuit opened", "breaker", g.breaker.Name(), "error", err)
	}
}

func (g *Guarded) recordSuccess(ctx context.Context) bool {
	usePrimary, change := g.breaker.RecordSuccess()
	if change.Closed {
		g.logger.InfoContext(ctx, "search cache circuit closed", "breaker", g.breaker.Name())
	}
	return usePrimary
}
