package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"agristack/pkg/domain"
	audit "agristack/pkg/platform/audit"
)

// Store appends audit events to the audit_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `category, occurred_at, operator_id, subject, action, request_id, attributes`

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	attrs, err := json.Marshal(event.Attributes)
	if err != nil {
		return fmt.Errorf("marshal audit attributes: %w", err)
	}
	if event.Attributes == nil {
		attrs = []byte("{}")
	}
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	operator := ""
	if !event.OperatorID.IsNil() {
		operator = event.OperatorID.String()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, category, action, operator_id, subject, request_id, attributes, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), string(category), event.Action, operator, event.Subject,
		event.RequestID, string(attrs), event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByOperator(ctx context.Context, operatorID domain.OperatorID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM audit_events WHERE operator_id = $1 ORDER BY occurred_at ASC`,
		operatorID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM audit_events ORDER BY occurred_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			category string
			operator string
			attrs    []byte
			event    audit.Event
		)
		if err := rows.Scan(&category, &event.Timestamp, &operator, &event.Subject,
			&event.Action, &event.RequestID, &attrs); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		if parsed, err := uuid.Parse(operator); err == nil {
			event.OperatorID = domain.OperatorID(parsed)
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &event.Attributes); err != nil {
				return nil, fmt.Errorf("decode audit attributes: %w", err)
			}
			if len(event.Attributes) == 0 {
				event.Attributes = nil
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
