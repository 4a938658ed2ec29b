package report

import (
	"strings"

	records "agristack/internal/records/models"
)

// Column maps a display header onto a record field. Value, when set,
// derives the cell from the whole record instead of the keyed field.
type Column struct {
	Header string
	Key    string
	Value  func(records.Record) any
}

func (c Column) extract(rec records.Record, fields map[string]any) any {
	if c.Value != nil {
		return c.Value(rec)
	}
	return fields[c.Key]
}

// approval reports the effective status, so an absent value reads approved.
func approval(rec records.Record) any {
	if r, ok := rec.(records.Reviewable); ok {
		return string(r.Approval())
	}
	return nil
}

// projections holds the fixed column layout of each report type.
var projections = map[Type][]Column{
	TypeFarmers: {
		{Header: "Reg. ID", Key: "registration_id"},
		{Header: "Name", Key: "full_name"},
		{Header: "Gender", Key: "gender"},
		{Header: "Mobile", Key: "mobile"},
		{Header: "District", Key: "district"},
		{Header: "Block", Key: "block"},
		{Header: "Village", Key: "village"},
		{Header: "Area (Acres)", Key: "area"},
		{Header: "Registered On", Key: "created_at"},
	},
	TypeInspections: {
		{Header: "Lot No", Key: "lot_no"},
		{Header: "Farmer", Key: "farmer_name"},
		{Header: "Crop", Key: "crop"},
		{Header: "Variety", Key: "variety"},
		{Header: "Inspector", Key: "inspector_name"},
		{Header: "District", Key: "district"},
		{Header: "Village", Key: "village"},
		{Header: "Inspection Date", Key: "inspection_date"},
		{Header: "Result", Key: "is_passed"},
		{Header: "Status", Key: "approval_status", Value: approval},
	},
	TypeOutreach: {
		{Header: "Inspector", Key: "inspector_name"},
		{Header: "Role", Key: "inspector_role"},
		{Header: "District", Key: "district"},
		{Header: "Block", Key: "block"},
		{Header: "Village", Key: "village"},
		{Header: "Landmark", Key: "landmark"},
		{Header: "Farmers", Key: "farmers_count"},
		{Header: "Visited On", Key: "created_at"},
		{Header: "Status", Key: "approval_status", Value: approval},
	},
}

var hiddenKeys = map[string]bool{"id": true, "updated_at": true, "avatar_url": true}

// Columns returns the projection for t. Unmapped types get every field of
// the first record except bookkeeping ones, headed by the upper-cased key.
func Columns(t Type, first records.Record) []Column {
	if cols, ok := projections[t]; ok {
		return cols
	}
	if first == nil {
		return nil
	}
	var cols []Column
	for _, f := range first.Fields() {
		if hiddenKeys[f.Key] {
			continue
		}
		cols = append(cols, Column{Header: strings.ToUpper(f.Key), Key: f.Key})
	}
	return cols
}

// Project formats every record through cols.
func Project(cols []Column, recs []records.Record, fmtr CellFormatter) [][]string {
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		fields := records.FieldMap(rec)
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = fmtr.Format(c.Key, c.extract(rec, fields))
		}
		rows = append(rows, row)
	}
	return rows
}
