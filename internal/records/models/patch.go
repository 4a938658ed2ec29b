package models

import (
	"fmt"
	"reflect"
	"time"

	dErrors "agristack/pkg/domain-errors"
)

// Patch is a partial update keyed by column. A nil value clears an
// optional column.
type Patch map[string]any

// immutableColumns cannot be patched; updated_at is stamped by the store.
var immutableColumns = map[string]bool{
	"id":              true,
	"registration_id": true,
	"created_at":      true,
	"updated_at":      true,
}

// Keys returns the patch keys in the collection's column order so that
// generated SQL is stable.
func (p Patch) Keys(c Collection) []string {
	var keys []string
	for _, col := range Columns(c) {
		if _, ok := p[col]; ok {
			keys = append(keys, col)
		}
	}
	return keys
}

// Validate checks every key against the collection's mutable columns.
func (p Patch) Validate(c Collection) error {
	if len(p) == 0 {
		return dErrors.New(dErrors.CodeValidation, "update has no fields")
	}
	for key := range p {
		if immutableColumns[key] {
			return dErrors.New(dErrors.CodeValidation, key+" cannot be changed")
		}
		if !HasColumn(c, key) {
			return dErrors.New(dErrors.CodeValidation, "unknown field: "+key)
		}
	}
	return nil
}

// ApplyPatch assigns patch values onto rec through its scan destinations.
// Values must be assignable to the field type or to its element type for
// optional fields.
func ApplyPatch(rec Record, p Patch, now time.Time) error {
	if err := p.Validate(rec.Collection()); err != nil {
		return err
	}
	fields := rec.Fields()
	dests := rec.ScanDest()
	for i, f := range fields {
		v, ok := p[f.Key]
		if !ok {
			continue
		}
		if err := assign(reflect.ValueOf(dests[i]).Elem(), v); err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, "invalid value for "+f.Key)
		}
	}
	for i, f := range fields {
		if f.Key == "updated_at" {
			if t, ok := dests[i].(*time.Time); ok {
				*t = now
			}
		}
	}
	return nil
}

func assign(dst reflect.Value, v any) error {
	if v == nil {
		if dst.Kind() != reflect.Pointer {
			return fmt.Errorf("field is required")
		}
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(v)
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case dst.Kind() == reflect.Pointer && src.Type().AssignableTo(dst.Type().Elem()):
		ptr := reflect.New(dst.Type().Elem())
		ptr.Elem().Set(src)
		dst.Set(ptr)
	case dst.Kind() == reflect.Pointer && src.Type().ConvertibleTo(dst.Type().Elem()) && src.Kind() == dst.Type().Elem().Kind():
		ptr := reflect.New(dst.Type().Elem())
		ptr.Elem().Set(src.Convert(dst.Type().Elem()))
		dst.Set(ptr)
	case src.Type().ConvertibleTo(dst.Type()) && src.Kind() == dst.Kind():
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot use %T as %s", v, dst.Type())
	}
	return nil
}

// Clone returns a shallow copy so stores never hand out their own rows.
func Clone(rec Record) Record {
	switch r := rec.(type) {
	case *Farmer:
		c := *r
		return &c
	case *Inspection:
		c := *r
		return &c
	case *Outreach:
		c := *r
		return &c
	}
	return rec
}
