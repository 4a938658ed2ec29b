package models

import (
	records "agristack/internal/records/models"
	"agristack/internal/report"
)

// FailureMessage is shown when the record store could not be read.
const FailureMessage = "Export failed. Please try again."

// Request selects a report type, output format and an optional inclusive
// range of creation dates.
type Request struct {
	Type   report.Type
	Format report.Format
	From   *records.Date
	To     *records.Date
}

// Validate checks the type, format and range.
func (r Request) Validate() error {
	if _, err := report.ParseType(string(r.Type)); err != nil {
		return err
	}
	if _, err := report.ParseFormat(string(r.Format)); err != nil {
		return err
	}
	return records.ValidateRange(r.From, r.To)
}

// Artifact is a rendered export.
type Artifact struct {
	Type        report.Type
	Format      report.Format
	Filename    string
	ContentType string
	Rows        int
	Body        []byte
}
