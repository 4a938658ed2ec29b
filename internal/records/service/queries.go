package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"agristack/internal/records/models"
	"agristack/internal/records/store"
	"agristack/pkg/domain"
	dErrors "agristack/pkg/domain-errors"
)

func (s *Service) Get(ctx context.Context, p domain.Principal, c models.Collection, id uuid.UUID) (models.Record, error) {
	if err := requireRead(p); err != nil {
		return nil, err
	}
	if !c.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown collection")
	}
	page, err := s.query(ctx, store.Query{
		Collection: c,
		Where:      []store.Predicate{store.Eq("id", id.String())},
		Limit:      1,
	})
	if err != nil {
		return nil, storeError(err, "record")
	}
	if len(page.Records) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	return page.Records[0], nil
}

// List returns a page of a collection, newest first.
func (s *Service) List(ctx context.Context, p domain.Principal, req models.ListRequest) (*models.ListResult, error) {
	if err := requireRead(p); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	page, err := s.query(ctx, store.Query{
		Collection: req.Collection,
		Where:      store.CreatedBetween(req.From, req.To, s.location),
		Limit:      req.Limit,
		Offset:     req.Offset,
		WithTotal:  true,
	})
	if err != nil {
		return nil, storeError(err, string(req.Collection))
	}
	return &models.ListResult{Records: page.Records, Total: page.Total}, nil
}

func (s *Service) query(ctx context.Context, q store.Query) (*store.Page, error) {
	start := time.Now()
	defer s.metrics.ObserveStore("query", start)
	return s.records.Query(ctx, q)
}

// count returns the number of rows matching where.
func (s *Service) count(ctx context.Context, c models.Collection, where ...store.Predicate) (int, error) {
	page, err := s.query(ctx, store.Query{Collection: c, Where: where, Limit: 1, WithTotal: true})
	if err != nil {
		return 0, err
	}
	return page.Total, nil
}
