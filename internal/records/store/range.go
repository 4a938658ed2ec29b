package store

import (
	"time"

	"agristack/internal/records/models"
)

// CreatedBetween turns an inclusive calendar date range into created_at
// predicates. Days start at midnight in loc; to covers its whole day.
// Either bound may be nil.
func CreatedBetween(from, to *models.Date, loc *time.Location) []Predicate {
	if loc == nil {
		loc = time.UTC
	}
	var preds []Predicate
	if from != nil && !from.IsZero() {
		preds = append(preds, Gte("created_at", from.In(loc)))
	}
	if to != nil && !to.IsZero() {
		preds = append(preds, Lt("created_at", to.AddDays(1).In(loc)))
	}
	return preds
}
