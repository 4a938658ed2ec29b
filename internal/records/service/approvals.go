package service

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"agristack/internal/records/models"
	"agristack/internal/records/store"
	"agristack/pkg/domain"
	dErrors "agristack/pkg/domain-errors"
	audit "agristack/pkg/platform/audit"
)

// reviewable lists the collections that go through approval.
var reviewable = []models.Collection{models.CollectionInspections, models.CollectionOutreach}

// ListPendingApprovals returns inspections and outreach visits awaiting
// review, newest first.
func (s *Service) ListPendingApprovals(ctx context.Context, p domain.Principal) ([]models.Record, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	pages := make([]*store.Page, len(reviewable))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range reviewable {
		g.Go(func() error {
			page, err := s.query(gctx, store.Query{
				Collection: c,
				Where:      []store.Predicate{store.Eq("approval_status", string(models.ApprovalPending))},
			})
			if err != nil {
				return storeError(err, string(c))
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pending []models.Record
	for _, page := range pages {
		pending = append(pending, page.Records...)
	}
	slices.SortStableFunc(pending, func(a, b models.Record) int {
		return b.Created().Compare(a.Created())
	})
	return pending, nil
}

// SetApprovalStatus records an admin's review decision.
func (s *Service) SetApprovalStatus(ctx context.Context, p domain.Principal, c models.Collection, id uuid.UUID, status models.ApprovalStatus) (models.Reviewable, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if !slices.Contains(reviewable, c) {
		return nil, dErrors.New(dErrors.CodeValidation, "only inspections and outreach visits are reviewed")
	}
	if _, err := models.ParseApprovalStatus(string(status)); err != nil {
		return nil, err
	}

	updated, err := s.update(ctx, c, id, models.Patch{"approval_status": string(status)})
	if err != nil {
		return nil, storeError(err, "record")
	}
	s.metrics.IncrementApproval(string(c), string(status))
	s.logAudit(ctx, p, audit.EventApprovalChanged, subject(updated), map[string]string{"status": string(status)})
	return updated.(models.Reviewable), nil
}
