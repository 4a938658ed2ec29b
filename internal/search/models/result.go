// Package models holds the search result shape and the per-collection
// search configuration.
package models

import (
	"github.com/google/uuid"

	records "agristack/internal/records/models"
	textutil "agristack/pkg/platform/strings"
)

const (
	// MinTermLength is the shortest trimmed term that reaches the store.
	MinTermLength = 2
	// PerTypeLimit caps rows fetched from each collection.
	PerTypeLimit = 5
	// MaxResults caps the merged list.
	MaxResults = 10
)

// ResultType tags a result with the kind of record it points at.
type ResultType string

const (
	TypeFarmer     ResultType = "farmer"
	TypeInspection ResultType = "inspection"
	TypeOutreach   ResultType = "outreach"
)

// SearchResult is a transient, display-ready hit.
type SearchResult struct {
	ID       uuid.UUID  `json:"id"`
	Type     ResultType `json:"type"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle"`
}

// Source describes how one collection is searched.
type Source struct {
	Collection records.Collection
	Type       ResultType
	Fields     []string
}

// Sources is searched concurrently and merged in this order.
var Sources = []Source{
	{Collection: records.CollectionFarmers, Type: TypeFarmer, Fields: []string{"full_name", "mobile", "registration_id"}},
	{Collection: records.CollectionInspections, Type: TypeInspection, Fields: []string{"lot_no", "farmer_name", "crop"}},
	{Collection: records.CollectionOutreach, Type: TypeOutreach, Fields: []string{"inspector_name", "village", "district"}},
}

const (
	unknown = "Unknown"
	noID    = "No ID"
	dot     = " • "
)

// Decorate builds the title and subtitle for a record. Missing fields fall
// back to "Unknown", or "No ID" for a farmer without a registration id.
func Decorate(rec records.Record) SearchResult {
	res := SearchResult{ID: rec.RecordID()}
	switch r := rec.(type) {
	case *records.Farmer:
		res.Type = TypeFarmer
		res.Title = textutil.OrDefault(r.FullName, unknown)
		res.Subtitle = textutil.OrDefault(r.RegistrationID, noID) + dot + textutil.OrDefault(r.Village, unknown)
	case *records.Inspection:
		res.Type = TypeInspection
		res.Title = "Lot " + textutil.OrDefault(r.LotNo, unknown) + " - " + textutil.OrDefault(r.FarmerName, unknown)
		res.Subtitle = textutil.OrDefault(r.Crop, unknown) + dot + textutil.OrDefault(r.Variety, unknown)
	case *records.Outreach:
		res.Type = TypeOutreach
		res.Title = textutil.OrDefault(r.InspectorName, unknown)
		res.Subtitle = textutil.OrDefault(r.Village, unknown) + ", " + textutil.OrDefault(r.District, unknown)
	}
	return res
}
