// Package app assembles the record store, audit trail, search and export
// services from configuration. The HTTP server and the CLI share it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	exportmetrics "agristack/internal/export/metrics"
	exportservice "agristack/internal/export/service"
	jwttoken "agristack/internal/jwt_token"
	"agristack/internal/platform/config"
	"agristack/internal/platform/postgres"
	redisclient "agristack/internal/platform/redis"
	recordsmetrics "agristack/internal/records/metrics"
	recordsservice "agristack/internal/records/service"
	"agristack/internal/records/store"
	"agristack/internal/report"
	"agristack/internal/search/cache"
	searchmetrics "agristack/internal/search/metrics"
	searchservice "agristack/internal/search/service"
	audit "agristack/pkg/platform/audit"
	"agristack/pkg/platform/audit/publisher"
	"agristack/pkg/platform/audit/publishers/kafka"
	auditmemory "agristack/pkg/platform/audit/store/memory"
	auditpostgres "agristack/pkg/platform/audit/store/postgres"
	"agristack/pkg/platform/circuit"
)

const auditBuffer = 256

// App holds the wired services and the resources behind them.
type App struct {
	Config  config.Server
	Logger  *slog.Logger
	Store   store.Client
	Blobs   *store.FileBlobs
	Records *recordsservice.Service
	Search  *searchservice.Aggregator
	Exports *exportservice.Service
	Tokens  *jwttoken.JWTService
	Audit   *publisher.Publisher
	// AuditLog reads back events from the primary audit store.
	AuditLog audit.Lister

	db      *sql.DB
	redis   *redisclient.Client
	closers []func()
}

// New connects to the configured backends. Without DATABASE_URL records and
// audit events live in memory; search results are only cached when
// SEARCH_CACHE_TTL is set, shared through Redis when REDIS_URL is also set;
// without KAFKA_BROKERS audit events are not streamed.
func New(ctx context.Context, cfg config.Server, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{Config: cfg, Logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	auditStore, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafka.NewSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return nil, fmt.Errorf("audit sink: %w", err)
		}
		a.closers = append(a.closers, sink.Close)
		if err := sink.EnsureTopic(ctx, 1, 1); err != nil {
			logger.WarnContext(ctx, "could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		auditStore = audit.Tee{auditStore, sink}
	}
	a.Audit = publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(auditBuffer),
		publisher.WithLogger(logger),
	)
	a.closers = append(a.closers, a.Audit.Close)

	blobs, err := store.NewFileBlobs(cfg.Blob.Dir, cfg.Blob.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}
	a.Blobs = blobs

	loc := cfg.Report.Location()
	searchOpts := []searchservice.Option{
		searchservice.WithLogger(logger),
		searchservice.WithMetrics(searchmetrics.New(reg)),
	}
	searchCache, err := a.searchCache(ctx)
	if err != nil {
		return nil, err
	}
	if searchCache != nil {
		searchOpts = append(searchOpts, searchservice.WithCache(searchCache))
	}
	a.Search = searchservice.New(a.Store, searchOpts...)

	a.Records = recordsservice.New(a.Store,
		recordsservice.WithLogger(logger),
		recordsservice.WithAuditPublisher(a.Audit),
		recordsservice.WithMetrics(recordsmetrics.New(reg)),
		recordsservice.WithBlobStore(blobs),
		recordsservice.WithLocation(loc),
		recordsservice.WithApprovalWorkflow(cfg.ApprovalWorkflow),
		recordsservice.WithSearchInvalidator(a.Search),
	)

	a.Exports = exportservice.New(a.Store,
		exportservice.WithLogger(logger),
		exportservice.WithMetrics(exportmetrics.New(reg)),
		exportservice.WithAuditPublisher(a.Audit),
		exportservice.WithLocation(loc),
		exportservice.WithRenderer(report.NewRenderer(
			report.WithBrand(cfg.Report.Brand),
			report.WithLocation(loc),
		)),
	)

	a.Tokens = jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	ok = true
	return a, nil
}

func (a *App) openStores(ctx context.Context) (audit.Store, error) {
	db, err := postgres.Open(ctx, a.Config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if db == nil {
		a.Logger.InfoContext(ctx, "DATABASE_URL not set, using in-memory record store")
		a.Store = store.NewInMemory()
		events := auditmemory.NewInMemoryStore()
		a.AuditLog = events
		return events, nil
	}
	a.db = db
	a.closers = append(a.closers, func() { _ = db.Close() })
	if err := postgres.Migrate(ctx, db); err != nil {
		return nil, err
	}
	a.Store = store.NewPostgres(db)
	events := auditpostgres.New(db)
	a.AuditLog = events
	return events, nil
}

// searchCache returns nil when SEARCH_CACHE_TTL is zero. Every committed
// record change purges the cache, but writes made outside this process
// (another instance on a different store, direct SQL) only age out by TTL.
func (a *App) searchCache(ctx context.Context) (cache.Cache, error) {
	ttl := a.Config.Search.CacheTTL
	if ttl <= 0 {
		return nil, nil
	}
	local := cache.NewMemory(ttl)
	rc, err := redisclient.New(ctx, a.Config.Redis)
	if err != nil {
		return nil, fmt.Errorf("search cache: %w", err)
	}
	if rc == nil {
		return local, nil
	}
	a.redis = rc
	a.closers = append(a.closers, func() { _ = rc.Close() })
	return cache.NewGuarded(cache.NewRedis(rc.Client, ttl), local, circuit.New("search-cache"), a.Logger), nil
}

// Health pings the external backends that are configured.
func (a *App) Health(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
