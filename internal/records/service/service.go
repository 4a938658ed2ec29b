// Package service implements the console's record operations: registering
// farmers, filing inspections and outreach visits, approvals, photo
// uploads and the dashboard.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"agristack/internal/records/metrics"
	"agristack/internal/records/models"
	"agristack/internal/records/store"
	"agristack/pkg/domain"
	dErrors "agristack/pkg/domain-errors"
	audit "agristack/pkg/platform/audit"
	"agristack/pkg/platform/sentinel"
	"agristack/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks RecordStore BlobStore AuditPublisher SearchInvalidator

// RecordStore is the subset of store.Client the service depends on.
type RecordStore interface {
	Query(ctx context.Context, q store.Query) (*store.Page, error)
	Insert(ctx context.Context, rec models.Record) (models.Record, error)
	Update(ctx context.Context, c models.Collection, id uuid.UUID, patch models.Patch) (models.Record, error)
	Delete(ctx context.Context, c models.Collection, id uuid.UUID) error
}

type BlobStore interface {
	Put(ctx context.Context, filename string, r io.Reader) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// SearchInvalidator is told after every committed insert, update or
// delete so cached search results never outlive the records behind them.
type SearchInvalidator interface {
	Invalidate(ctx context.Context)
}

// registrationAttempts bounds retries when a generated registration id
// collides with an existing farmer.
const registrationAttempts = 5

// Service orchestrates record operations on behalf of a principal.
type Service struct {
	records          RecordStore
	blobs            BlobStore
	auditPublisher   AuditPublisher
	search           SearchInvalidator
	logger           *slog.Logger
	metrics          *metrics.Metrics
	location         *time.Location
	approvalWorkflow bool
	now              func() time.Time

	idMu  sync.Mutex
	idRNG *rand.Rand
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithSearchInvalidator(search SearchInvalidator) Option {
	return func(s *Service) { s.search = search }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithBlobStore(blobs BlobStore) Option {
	return func(s *Service) { s.blobs = blobs }
}

// WithLocation sets the timezone used for date ranges and month boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithApprovalWorkflow makes new inspections and outreach visits start as
// pending until an admin reviews them.
func WithApprovalWorkflow(enabled bool) Option {
	return func(s *Service) { s.approvalWorkflow = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSeed makes generated registration ids reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Service) { s.idRNG = rand.New(rand.NewPCG(seed, seed)) }
}

func New(records RecordStore, opts ...Option) *Service {
	s := &Service{
		records:  records,
		logger:   slog.Default(),
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idRNG == nil {
		s.idRNG = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

func (s *Service) nextRegistrationID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return models.NewRegistrationID(s.idRNG)
}

func requireRead(p domain.Principal) error {
	if !p.CanRead() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

func requireWrite(p domain.Principal) error {
	if err := requireRead(p); err != nil {
		return err
	}
	if !p.CanWrite() {
		return dErrors.New(dErrors.CodeForbidden, "inspector or admin role required")
	}
	return nil
}

func requireAdmin(p domain.Principal) error {
	if err := requireRead(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return nil
}

// storeError maps store failures onto coded errors. Coded errors from the
// store (query validation) pass through unchanged.
func storeError(err error, what string) error {
	var coded *dErrors.Error
	switch {
	case errors.As(err, &coded):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, what+" already exists")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "record store timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "record store unavailable")
	}
}

func subject(rec models.Record) string {
	return string(rec.Collection()) + "/" + rec.RecordID().String()
}

func (s *Service) logAudit(ctx context.Context, p domain.Principal, event audit.AuditEvent, subj string, attributes map[string]string) {
	args := []any{"event", string(event), "log_type", "audit", "subject", subj, "operator_id", p.OperatorID.String()}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, string(event), args...)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		OperatorID: p.OperatorID,
		Action:     string(event),
		Subject:    subj,
		Attributes: attributes,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
