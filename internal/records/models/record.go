package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "agristack/pkg/domain-errors"
)

// Collection names one of the three record sets.
type Collection string

const (
	CollectionFarmers     Collection = "farmers"
	CollectionInspections Collection = "inspections"
	CollectionOutreach    Collection = "outreach"
)

// Collections in the fixed order used by search merges and dashboards.
var Collections = []Collection{CollectionFarmers, CollectionInspections, CollectionOutreach}

func (c Collection) IsValid() bool {
	switch c {
	case CollectionFarmers, CollectionInspections, CollectionOutreach:
		return true
	}
	return false
}

// ParseCollection accepts the canonical names plus the table names used by
// the field apps (seed_inspections, gyan_vahan).
func ParseCollection(s string) (Collection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "farmers", "farmer":
		return CollectionFarmers, nil
	case "inspections", "inspection", "seed_inspections":
		return CollectionInspections, nil
	case "outreach", "gyan_vahan", "outreach_visits":
		return CollectionOutreach, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown collection: "+s)
}

// Field is one key/value pair in column order.
type Field struct {
	Key   string
	Value any
}

// Record is the capability every stored row shares. Fields returns values
// in column order; absent optional values are untyped nil.
type Record interface {
	Collection() Collection
	RecordID() uuid.UUID
	Created() time.Time
	Fields() []Field
	// ScanDest returns pointers aligned with Fields, for row scanning and patches.
	ScanDest() []any
}

// New returns an empty record of the collection's variant.
func New(c Collection) Record {
	switch c {
	case CollectionFarmers:
		return &Farmer{}
	case CollectionInspections:
		return &Inspection{}
	case CollectionOutreach:
		return &Outreach{}
	}
	return nil
}

// Columns lists the column keys of a collection in order.
func Columns(c Collection) []string {
	rec := New(c)
	if rec == nil {
		return nil
	}
	fields := rec.Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Key
	}
	return cols
}

// HasColumn reports whether key is a column of c.
func HasColumn(c Collection, key string) bool {
	for _, col := range Columns(c) {
		if col == key {
			return true
		}
	}
	return false
}

// FieldMap indexes a record's fields by key.
func FieldMap(r Record) map[string]any {
	fields := r.Fields()
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

func optString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func optBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func optFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func optDate(d *Date) any {
	if d == nil {
		return nil
	}
	return *d
}

func optApproval(a *ApprovalStatus) any {
	if a == nil {
		return nil
	}
	return string(*a)
}
