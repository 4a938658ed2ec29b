package store

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"agristack/internal/records/models"
	dErrors "agristack/pkg/domain-errors"
	"agristack/pkg/platform/sentinel"
)

// InMemory keeps records in process. It backs tests, the CLI demo mode and
// servers started without DATABASE_URL.
type InMemory struct {
	mu   sync.RWMutex
	rows map[models.Collection]map[uuid.UUID]models.Record
	now  func() time.Time
}

type MemoryOption func(*InMemory)

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *InMemory) { s.now = now }
}

func NewInMemory(opts ...MemoryOption) *InMemory {
	s := &InMemory{
		rows: make(map[models.Collection]map[uuid.UUID]models.Record),
		now:  time.Now,
	}
	for _, c := range models.Collections {
		s.rows[c] = make(map[uuid.UUID]models.Record)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type snapshotKey struct{ store *InMemory }

// Snapshot freezes the current rows for the queries fn issues. Stored
// records are replaced rather than mutated, so copying the per-collection
// maps is enough.
func (s *InMemory) Snapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(snapshotKey{s}).(map[models.Collection]map[uuid.UUID]models.Record); ok {
		return fn(ctx)
	}
	s.mu.RLock()
	frozen := make(map[models.Collection]map[uuid.UUID]models.Record, len(s.rows))
	for c, rows := range s.rows {
		frozen[c] = maps.Clone(rows)
	}
	s.mu.RUnlock()
	return fn(context.WithValue(ctx, snapshotKey{s}, frozen))
}

func (s *InMemory) Query(ctx context.Context, q Query) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	rows := s.rows[q.Collection]
	if frozen, ok := ctx.Value(snapshotKey{s}).(map[models.Collection]map[uuid.UUID]models.Record); ok {
		rows = frozen[q.Collection]
	}
	matched := make([]models.Record, 0)
	for _, rec := range rows {
		if matches(models.FieldMap(rec), q.Where) {
			matched = append(matched, models.Clone(rec))
		}
	}
	s.mu.RUnlock()

	col := q.orderColumn()
	slices.SortStableFunc(matched, func(a, b models.Record) int {
		c, _ := compare(models.FieldMap(a)[col], models.FieldMap(b)[col])
		if c == 0 {
			// Stable tiebreak keeps paging deterministic.
			c = compareIDs(a.RecordID(), b.RecordID())
		}
		if !q.Ascending {
			c = -c
		}
		return c
	})

	page := &Page{}
	if q.WithTotal {
		page.Total = len(matched)
	}
	if q.Offset >= len(matched) {
		page.Records = []models.Record{}
		return page, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	page.Records = matched
	return page, nil
}

func (s *InMemory) Insert(ctx context.Context, rec models.Record) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rec == nil || !rec.Collection().IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "record is required")
	}
	stored := models.Clone(rec)
	stampNew(stored, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows[stored.Collection()]
	if _, exists := rows[stored.RecordID()]; exists {
		return nil, sentinel.ErrConflict
	}
	if f, ok := stored.(*models.Farmer); ok {
		for _, other := range rows {
			if other.(*models.Farmer).RegistrationID == f.RegistrationID {
				return nil, sentinel.ErrConflict
			}
		}
	}
	rows[stored.RecordID()] = stored
	return models.Clone(stored), nil
}

func (s *InMemory) Update(ctx context.Context, c models.Collection, id uuid.UUID, patch models.Patch) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[c][id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	updated := models.Clone(rec)
	if err := models.ApplyPatch(updated, patch, s.now()); err != nil {
		return nil, err
	}
	s.rows[c][id] = updated
	return models.Clone(updated), nil
}

func (s *InMemory) Delete(ctx context.Context, c models.Collection, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[c][id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.rows[c], id)
	return nil
}

// stampNew assigns an id and timestamps through the record's scan
// destinations so every variant is handled alike.
func stampNew(rec models.Record, now time.Time) {
	fields := rec.Fields()
	dests := rec.ScanDest()
	for i, f := range fields {
		switch f.Key {
		case "id":
			if p, ok := dests[i].(*uuid.UUID); ok && *p == uuid.Nil {
				*p = uuid.New()
			}
		case "created_at":
			if p, ok := dests[i].(*time.Time); ok && p.IsZero() {
				*p = now
			}
		case "updated_at":
			if p, ok := dests[i].(*time.Time); ok {
				*p = now
			}
		}
	}
}

func compareIDs(a, b uuid.UUID) int {
	return slices.Compare(a[:], b[:])
}
