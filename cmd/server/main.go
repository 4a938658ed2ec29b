package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agristack/internal/app"
	exporthandler "agristack/internal/export/handler"
	"agristack/internal/platform/config"
	"agristack/internal/platform/httpserver"
	"agristack/internal/platform/logger"
	"agristack/internal/platform/metrics"
	"agristack/internal/platform/middleware"
	"agristack/internal/platform/ratelimit"
	recordshandler "agristack/internal/records/handler"
	searchhandler "agristack/internal/search/handler"
	"agristack/pkg/platform/httputil"
	"agristack/pkg/platform/middleware/auth"
	"agristack/pkg/platform/middleware/metadata"
	"agristack/pkg/platform/middleware/request"
	"agristack/pkg/platform/middleware/requesttime"
)

// requestTimeout bounds API handlers; exports get the server write timeout.
const requestTimeout = 30 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.New(ctx, cfg, log, reg)
	if err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := httpserver.New(cfg.Addr, newRouter(a, log, reg))

	go func() {
		log.Info("starting agristack", "addr", cfg.Addr, "approval_workflow", cfg.ApprovalWorkflow)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}

func newRouter(a *app.App, log *slog.Logger, reg *prometheus.Registry) http.Handler {
	httpMetrics := metrics.New(reg)
	limiter := ratelimit.New(ratelimit.NewWindows(), log)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Recovery(log, httpMetrics))
	r.Use(middleware.Logger(log))
	r.Use(middleware.LatencyMiddleware(httpMetrics))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.Health(r.Context()); err != nil {
			log.WarnContext(r.Context(), "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	uploads := "/" + strings.Trim(a.Config.Blob.BaseURL, "/")
	r.Handle(uploads+"/*", http.StripPrefix(uploads+"/", http.FileServer(http.Dir(a.Blobs.Dir()))))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(a.Tokens, log))
		r.Use(middleware.ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			recordshandler.New(a.Records, log).Register(r)
			searchhandler.New(a.Search, log).Register(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(limiter.PerOperator("exports", a.Config.RateLimit.ExportLimit, a.Config.RateLimit.ExportWindow))
			exporthandler.New(a.Exports, log).Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(log))
			newAuditHandler(a.AuditLog, log).Register(r)
		})
	})
	return r
}
