// Package service implements the global search aggregator: one term fans
// out to every collection and the hits are merged in a fixed order.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"agristack/internal/records/store"
	"agristack/internal/search/cache"
	"agristack/internal/search/metrics"
	"agristack/internal/search/models"
	"agristack/pkg/domain"
	dErrors "agristack/pkg/domain-errors"
	textutil "agristack/pkg/platform/strings"
	"agristack/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Querier

// Querier is the read side of the record store.
type Querier interface {
	Query(ctx context.Context, q store.Query) (*store.Page, error)
}

// Aggregator runs searches against the record store.
type Aggregator struct {
	records Querier
	cache   cache.Cache
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	sources []models.Source

	// generation advances on every Invalidate; a search only writes the
	// cache when no invalidation happened while it ran.
	generation atomic.Uint64
	writeMu    sync.Mutex
}

type Option func(*Aggregator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithCache enables result caching. Only complete result sets are cached.
func WithCache(c cache.Cache) Option {
	return func(a *Aggregator) { a.cache = c }
}

func WithTracer(t trace.Tracer) Option {
	return func(a *Aggregator) { a.tracer = t }
}

func New(records Querier, opts ...Option) *Aggregator {
	a := &Aggregator{
		records: records,
		logger:  slog.Default(),
		tracer:  otel.Tracer("agristack/search"),
		sources: models.Sources,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Search returns at most models.MaxResults hits for term, farmers first,
// then inspections, then outreach. A failing collection contributes no
// rows; the search itself only fails for an unauthenticated principal.
func (a *Aggregator) Search(ctx context.Context, p domain.Principal, term string) ([]models.SearchResult, error) {
	if !p.CanRead() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	term = textutil.NormalizeTerm(term)
	if textutil.RuneLen(term) < models.MinTermLength {
		a.metrics.IncrementSearch(metrics.OutcomeShortTerm)
		return []models.SearchResult{}, nil
	}

	ctx, span := a.tracer.Start(ctx, "search.Search", trace.WithAttributes(attribute.Int("term.length", len(term))))
	defer span.End()
	start := time.Now()

	gen := a.generation.Load()
	if a.cache != nil {
		if cached, ok, err := a.cache.Get(ctx, term); err == nil && ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			a.metrics.IncrementSearch(metrics.OutcomeCacheHit)
			a.metrics.ObserveSearch(start, len(cached))
			return cached, nil
		}
	}

	// Each goroutine owns one slot, so the merge order never depends on
	// completion order.
	perSource := make([][]models.SearchResult, len(a.sources))
	failed := make([]error, len(a.sources))
	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			perSource[i], failed[i] = a.searchSource(ctx, src, term)
			return nil
		})
	}
	_ = g.Wait()

	merged := make([]models.SearchResult, 0, models.MaxResults)
	partial := false
	for i, src := range a.sources {
		if failed[i] != nil {
			partial = true
			a.metrics.IncrementSubqueryFailure(string(src.Collection))
			span.RecordError(failed[i], trace.WithAttributes(attribute.String("collection", string(src.Collection))))
			a.logger.WarnContext(ctx, "search query failed, continuing without collection",
				"collection", src.Collection,
				"request_id", requestcontext.RequestID(ctx),
				"error", failed[i],
			)
			continue
		}
		merged = append(merged, perSource[i]...)
	}
	if len(merged) > models.MaxResults {
		merged = merged[:models.MaxResults]
	}

	if partial {
		span.SetStatus(codes.Error, "partial search failure")
		a.metrics.IncrementSearch(metrics.OutcomePartial)
	} else {
		a.metrics.IncrementSearch(metrics.OutcomeComplete)
		a.cacheResults(ctx, gen, term, merged)
	}
	span.SetAttributes(attribute.Int("results", len(merged)), attribute.Bool("partial", partial))
	a.metrics.ObserveSearch(start, len(merged))
	return merged, nil
}

// Invalidate drops cached results after a record changes so the next
// search sees the store as it is now.
func (a *Aggregator) Invalidate(ctx context.Context) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	a.generation.Add(1)
	if a.cache == nil {
		return
	}
	if err := a.cache.Purge(ctx); err != nil {
		a.logger.WarnContext(ctx, "search cache purge failed", "error", err)
	}
}

func (a *Aggregator) cacheResults(ctx context.Context, gen uint64, term string, results []models.SearchResult) {
	if a.cache == nil {
		return
	}
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	if a.generation.Load() != gen {
		return
	}
	if err := a.cache.Set(ctx, term, results); err != nil {
		a.logger.WarnContext(ctx, "search cache write failed", "error", err)
	}
}

func (a *Aggregator) searchSource(ctx context.Context, src models.Source, term string) ([]models.SearchResult, error) {
	ctx, span := a.tracer.Start(ctx, "search.query", trace.WithAttributes(attribute.String("collection", string(src.Collection))))
	defer span.End()

	page, err := a.records.Query(ctx, store.Query{
		Collection: src.Collection,
		Where:      []store.Predicate{store.ContainsAny(term, src.Fields...)},
		Limit:      models.PerTypeLimit,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("search %s: %w", src.Collection, err)
	}
	out := make([]models.SearchResult, 0, len(page.Records))
	for _, rec := range page.Records {
		out = append(out, models.Decorate(rec))
	}
	if len(out) > models.PerTypeLimit {
		out = out[:models.PerTypeLimit]
	}
	return out, nil
}
