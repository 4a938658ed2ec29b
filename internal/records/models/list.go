package models

import dErrors "agristack/pkg/domain-errors"

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// ListRequest pages through one collection, optionally bounded by an
// inclusive created_at date range.
type ListRequest struct {
	Collection Collection
	From       *Date
	To         *Date
	Limit      int
	Offset     int
}

func (r *ListRequest) Normalize() {
	if r.Limit == 0 {
		r.Limit = DefaultPageSize
	}
}

func (r *ListRequest) Validate() error {
	if !r.Collection.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown collection")
	}
	if r.Limit < 0 || r.Limit > MaxPageSize {
		return dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 500")
	}
	if r.Offset < 0 {
		return dErrors.New(dErrors.CodeValidation, "offset must not be negative")
	}
	return ValidateRange(r.From, r.To)
}

// ValidateRange rejects a range whose start is after its end.
func ValidateRange(from, to *Date) error {
	if from != nil && to != nil && !from.IsZero() && !to.IsZero() && from.After(*to) {
		return dErrors.New(dErrors.CodeValidation, "from date must not be after to date")
	}
	return nil
}

type ListResult struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}
