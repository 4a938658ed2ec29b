// Package cache keeps recent search results so repeated keystrokes over
// the same term do not fan out to the store again.
package cache

import (
	"context"
	"strings"

	"agristack/internal/search/models"
)

// Cache stores merged result lists by normalized term.
type Cache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, term string) (results []models.SearchResult, ok bool, err error)
	Set(ctx context.Context, term string, results []models.SearchResult) error
	// Purge drops every entry. Called whenever a record changes.
	Purge(ctx context.Context) error
}

// Key normalizes a term so "Ram" and " ram" share an entry. Inner
// whitespace is kept because it changes what a term matches.
func Key(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
