// Package store is the record store client: typed access to the farmer,
// inspection and outreach collections with an in-memory and a PostgreSQL
// implementation behind the same contract.
package store

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"agristack/internal/records/models"
	dErrors "agristack/pkg/domain-errors"
)

// Client is the record store contract. Implementations return
// sentinel.ErrNotFound, sentinel.ErrConflict or errors wrapping
// sentinel.ErrUnavailable when the backend cannot be reached.
type Client interface {
	Query(ctx context.Context, q Query) (*Page, error)
	Insert(ctx context.Context, rec models.Record) (models.Record, error)
	Update(ctx context.Context, c models.Collection, id uuid.UUID, patch models.Patch) (models.Record, error)
	Delete(ctx context.Context, c models.Collection, id uuid.UUID) error
	// Snapshot runs fn so that every Query issued with the ctx it receives
	// sees the store as it was when fn started.
	Snapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

// Op is a predicate operator.
type Op string

const (
	OpEq          Op = "eq"
	OpNeq         Op = "neq"
	OpGt          Op = "gt"
	OpGte         Op = "gte"
	OpLt          Op = "lt"
	OpLte         Op = "lte"
	OpIn          Op = "in"
	OpIsNull      Op = "is_null"
	OpContainsAny Op = "contains_any"
)

// Predicate constrains one field, or several for OpContainsAny.
type Predicate struct {
	Op     Op
	Field  string
	Fields []string
	Value  any
	Values []any
}

func Eq(field string, v any) Predicate  { return Predicate{Op: OpEq, Field: field, Value: v} }
func Neq(field string, v any) Predicate { return Predicate{Op: OpNeq, Field: field, Value: v} }
func Gt(field string, v any) Predicate  { return Predicate{Op: OpGt, Field: field, Value: v} }
func Gte(field string, v any) Predicate { return Predicate{Op: OpGte, Field: field, Value: v} }
func Lt(field string, v any) Predicate  { return Predicate{Op: OpLt, Field: field, Value: v} }
func Lte(field string, v any) Predicate { return Predicate{Op: OpLte, Field: field, Value: v} }
func IsNull(field string) Predicate     { return Predicate{Op: OpIsNull, Field: field} }

func In(field string, values ...any) Predicate {
	return Predicate{Op: OpIn, Field: field, Values: values}
}

// ContainsAny matches rows where any of fields contains term, ignoring case.
func ContainsAny(term string, fields ...string) Predicate {
	return Predicate{Op: OpContainsAny, Fields: fields, Value: term}
}

func (p Predicate) columns() []string {
	if p.Op == OpContainsAny {
		return p.Fields
	}
	return []string{p.Field}
}

// Query selects rows from one collection. Rows default to newest first.
type Query struct {
	Collection models.Collection
	Where      []Predicate
	OrderBy    string
	Ascending  bool
	Limit      int
	Offset     int
	// WithTotal also counts all matching rows, ignoring Limit and Offset.
	WithTotal bool
}

// Page is a query result.
type Page struct {
	Records []models.Record
	Total   int
}

func (q Query) orderColumn() string {
	if q.OrderBy == "" {
		return "created_at"
	}
	return q.OrderBy
}

// Validate rejects unknown collections and columns before they reach SQL.
func (q Query) Validate() error {
	if !q.Collection.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown collection")
	}
	if !models.HasColumn(q.Collection, q.orderColumn()) {
		return dErrors.New(dErrors.CodeValidation, "unknown order column: "+q.orderColumn())
	}
	if q.Limit < 0 || q.Offset < 0 {
		return dErrors.New(dErrors.CodeValidation, "limit and offset must not be negative")
	}
	for _, p := range q.Where {
		cols := p.columns()
		if len(cols) == 0 {
			return dErrors.New(dErrors.CodeValidation, "predicate has no field")
		}
		for _, col := range cols {
			if !models.HasColumn(q.Collection, col) {
				return dErrors.New(dErrors.CodeValidation, "unknown column: "+col)
			}
		}
		if p.Op == OpContainsAny {
			if s, ok := p.Value.(string); !ok || strings.TrimSpace(s) == "" {
				return dErrors.New(dErrors.CodeValidation, "contains_any needs a search term")
			}
		}
	}
	return nil
}
