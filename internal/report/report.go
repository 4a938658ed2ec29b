// Package report renders record sets as CSV, PDF and XLSX documents.
package report

import (
	"strings"
	"time"

	records "agristack/internal/records/models"
	dErrors "agristack/pkg/domain-errors"
)

// NoDataMessage is shown when an export range holds no rows.
const NoDataMessage = "No data found for the selected range."

// Type selects both the collection and the column projection.
type Type string

const (
	TypeFarmers     Type = "farmers"
	TypeInspections Type = "inspections"
	TypeOutreach    Type = "outreach"
)

var typeInfo = map[Type]struct {
	collection records.Collection
	title      string
}{
	TypeFarmers:     {records.CollectionFarmers, "Registered Farmers List"},
	TypeInspections: {records.CollectionInspections, "Seed Inspection Reports"},
	TypeOutreach:    {records.CollectionOutreach, "Gyan Vahan Campaign Logs"},
}

// ParseType accepts the canonical names plus "gyan_vahan" for outreach.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeFarmers, TypeInspections, TypeOutreach:
		return t, nil
	case "gyan_vahan":
		return TypeOutreach, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown report type: "+s)
}

func (t Type) Collection() records.Collection { return typeInfo[t].collection }

// Title is the human heading of the report.
func (t Type) Title() string {
	if info, ok := typeInfo[t]; ok {
		return info.title
	}
	return strings.ToUpper(string(t))
}

type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatPDF, FormatXLSX:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unsupported export format: "+s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// FileStem returns "{type}_export_{YYYY-MM-DD}" for the day of now.
func FileStem(t Type, now time.Time) string {
	return string(t) + "_export_" + now.Format(time.DateOnly)
}

// Filename is FileStem plus the format extension.
func Filename(t Type, f Format, now time.Time) string {
	return FileStem(t, now) + "." + string(f)
}

// Document is everything a renderer needs.
type Document struct {
	Type        Type
	From        *records.Date
	To          *records.Date
	Records     []records.Record
	GeneratedAt time.Time
}

// Title defaults to the type's title.
func (d Document) Title() string { return d.Type.Title() }

// HasRange reports whether an explicit date bound was requested.
func (d Document) HasRange() bool {
	return (d.From != nil && !d.From.IsZero()) || (d.To != nil && !d.To.IsZero())
}

func errNoData() error {
	return dErrors.New(dErrors.CodeNoData, NoDataMessage)
}
