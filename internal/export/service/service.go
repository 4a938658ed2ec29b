// Package service implements the export orchestrator: it fetches a report's
// rows for an inclusive date range and renders them, keeping "no rows" and
// "store unreachable" apart.
package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"agristack/internal/export/metrics"
	"agristack/internal/export/models"
	records "agristack/internal/records/models"
	"agristack/internal/records/store"
	"agristack/internal/report"
	"agristack/pkg/domain"
	dErrors "agristack/pkg/domain-errors"
	audit "agristack/pkg/platform/audit"
	"agristack/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Querier AuditPublisher Renderer

// fetchPageSize is how many rows each store round trip reads.
const fetchPageSize = 500

type Querier interface {
	Query(ctx context.Context, q store.Query) (*store.Page, error)
}

// Snapshotter is implemented by stores that can pin every page of one
// export to the same view of the data.
type Snapshotter interface {
	Snapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Renderer interface {
	Render(w io.Writer, f report.Format, doc report.Document) error
}

type Service struct {
	records        Querier
	renderer       Renderer
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	location       *time.Location
	now            func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = p }
}

func WithRenderer(r Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithLocation sets the zone calendar dates are resolved in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(records Querier, opts ...Option) *Service {
	s := &Service{
		records:  records,
		logger:   slog.Default(),
		tracer:   otel.Tracer("agristack/export"),
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = report.NewRenderer(report.WithLocation(s.location))
	}
	return s
}

// Export renders the requested report. Zero matching rows yield a no_data
// error and store failures an unavailable one; neither writes anything.
func (s *Service) Export(ctx context.Context, p domain.Principal, req models.Request) (*models.Artifact, error) {
	if !p.CanRead() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	req, err := normalize(req)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "export.Export", trace.WithAttributes(
		attribute.String("report.type", string(req.Type)),
		attribute.String("report.format", string(req.Format)),
	))
	defer span.End()
	start := time.Now()
	defer s.metrics.ObserveDuration(string(req.Format), start)

	rows, err := s.fetch(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		s.metrics.IncrementExport(string(req.Type), string(req.Format), metrics.OutcomeUnavailable)
		s.logger.ErrorContext(ctx, "export fetch failed",
			"report_type", req.Type,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, models.FailureMessage)
	}
	span.SetAttributes(attribute.Int("report.rows", len(rows)))

	if len(rows) == 0 {
		s.metrics.IncrementExport(string(req.Type), string(req.Format), metrics.OutcomeNoData)
		s.logAudit(ctx, p, audit.EventExportEmpty, req, 0)
		return nil, dErrors.New(dErrors.CodeNoData, report.NoDataMessage)
	}

	now := s.now()
	var buf bytes.Buffer
	err = s.renderer.Render(&buf, req.Format, report.Document{
		Type:        req.Type,
		From:        req.From,
		To:          req.To,
		Records:     rows,
		GeneratedAt: now,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		s.metrics.IncrementExport(string(req.Type), string(req.Format), metrics.OutcomeFailed)
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "export render failed", "report_type", req.Type, "format", req.Format, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render export")
	}

	s.metrics.IncrementExport(string(req.Type), string(req.Format), metrics.OutcomeGenerated)
	s.metrics.ObserveRows(string(req.Type), len(rows))
	s.logAudit(ctx, p, audit.EventExportGenerated, req, len(rows))

	return &models.Artifact{
		Type:        req.Type,
		Format:      req.Format,
		Filename:    report.Filename(req.Type, req.Format, now.In(s.location)),
		ContentType: req.Format.ContentType(),
		Rows:        len(rows),
		Body:        buf.Bytes(),
	}, nil
}

// fetch reads every row in range, newest first, a page at a time. When the
// store supports snapshots all pages come from one, so rows written during
// the export cannot shift later pages.
func (s *Service) fetch(ctx context.Context, req models.Request) ([]records.Record, error) {
	snap, ok := s.records.(Snapshotter)
	if !ok {
		return s.fetchPages(ctx, req)
	}
	var rows []records.Record
	err := snap.Snapshot(ctx, func(ctx context.Context) error {
		var err error
		rows, err = s.fetchPages(ctx, req)
		return err
	})
	return rows, err
}

func (s *Service) fetchPages(ctx context.Context, req models.Request) ([]records.Record, error) {
	where := store.CreatedBetween(req.From, req.To, s.location)
	var rows []records.Record
	seen := make(map[uuid.UUID]struct{})
	for offset := 0; ; offset += fetchPageSize {
		page, err := s.records.Query(ctx, store.Query{
			Collection: req.Type.Collection(),
			Where:      where,
			Limit:      fetchPageSize,
			Offset:     offset,
		})
		if err != nil {
			return nil, err
		}
		for _, rec := range page.Records {
			// Without a snapshot a row inserted ahead of the cursor pushes
			// an already-read row onto the next page.
			if _, dup := seen[rec.RecordID()]; dup {
				continue
			}
			seen[rec.RecordID()] = struct{}{}
			rows = append(rows, rec)
		}
		if len(page.Records) < fetchPageSize {
			return rows, nil
		}
	}
}

func normalize(req models.Request) (models.Request, error) {
	t, err := report.ParseType(string(req.Type))
	if err != nil {
		return req, err
	}
	f, err := report.ParseFormat(string(req.Format))
	if err != nil {
		return req, err
	}
	req.Type, req.Format = t, f
	return req, req.Validate()
}

func (s *Service) logAudit(ctx context.Context, p domain.Principal, event audit.AuditEvent, req models.Request, rows int) {
	attrs := map[string]string{
		"format": string(req.Format),
		"rows":   strconv.Itoa(rows),
	}
	if req.From != nil && !req.From.IsZero() {
		attrs["from"] = req.From.String()
	}
	if req.To != nil && !req.To.IsZero() {
		attrs["to"] = req.To.String()
	}
	s.logger.InfoContext(ctx, string(event),
		"event", string(event),
		"log_type", "audit",
		"report_type", string(req.Type),
		"operator_id", p.OperatorID.String(),
		"rows", rows,
	)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		OperatorID: p.OperatorID,
		Action:     string(event),
		Subject:    string(req.Type),
		Attributes: attrs,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
