package sentinel

import "errors"

// Sentinel errors returned by record stores, blob stores and caches,
// optionally wrapped. Services translate them into coded domain errors.
//
//   - ErrNotFound: no record with the requested id in the collection
//   - ErrConflict: a unique column (registration id) already holds the value
//   - ErrInvalidState: the record cannot take the requested transition
//   - ErrUnavailable: the backing store could not be reached
//   - ErrCacheMiss: a cache lookup found nothing
//
// Validation failures do not belong here; use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrCacheMiss    = errors.New("cache miss")
)
