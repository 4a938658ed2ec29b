package models

import (
	"time"

	"github.com/google/uuid"
)

// CropOther marks a crop outside the catalogue; the real name is then
// supplied separately.
const CropOther = "Other"

// Inspection is a seed lot inspection filed by a field officer.
type Inspection struct {
	ID               uuid.UUID       `json:"id"`
	LotNo            string          `json:"lot_no"`
	Crop             string          `json:"crop"`
	Variety          string          `json:"variety"`
	InspectorName    string          `json:"inspector_name"`
	OfficerMobile    string          `json:"officer_mobile"`
	FarmerName       string          `json:"farmer_name"`
	District         string          `json:"district"`
	Block            string          `json:"block"`
	Village          string          `json:"village"`
	SpecificLocation string          `json:"specific_location"`
	SowingStatus     string          `json:"sowing_status"`
	InspectionDate   *Date           `json:"inspection_date,omitempty"`
	IsPassed         *bool           `json:"is_passed"`
	Remarks          *string         `json:"remarks,omitempty"`
	PhotoURL         *string         `json:"photo_url,omitempty"`
	ApprovalStatus   *ApprovalStatus `json:"approval_status,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (i *Inspection) Collection() Collection   { return CollectionInspections }
func (i *Inspection) RecordID() uuid.UUID      { return i.ID }
func (i *Inspection) Created() time.Time       { return i.CreatedAt }
func (i *Inspection) Approval() ApprovalStatus { return EffectiveApproval(i.ApprovalStatus) }

// Result is the display status used by activity feeds.
func (i *Inspection) Result() string {
	switch {
	case i.IsPassed == nil:
		return "Pending"
	case *i.IsPassed:
		return "Passed"
	default:
		return "Failed"
	}
}

func (i *Inspection) Fields() []Field {
	return []Field{
		{"id", i.ID.String()},
		{"lot_no", i.LotNo},
		{"crop", i.Crop},
		{"variety", i.Variety},
		{"inspector_name", i.InspectorName},
		{"officer_mobile", i.OfficerMobile},
		{"farmer_name", i.FarmerName},
		{"district", i.District},
		{"block", i.Block},
		{"village", i.Village},
		{"specific_location", i.SpecificLocation},
		{"sowing_status", i.SowingStatus},
		{"inspection_date", optDate(i.InspectionDate)},
		{"is_passed", optBool(i.IsPassed)},
		{"remarks", optString(i.Remarks)},
		{"photo_url", optString(i.PhotoURL)},
		{"approval_status", optApproval(i.ApprovalStatus)},
		{"created_at", i.CreatedAt},
		{"updated_at", i.UpdatedAt},
	}
}

func (i *Inspection) ScanDest() []any {
	return []any{
		&i.ID, &i.LotNo, &i.Crop, &i.Variety, &i.InspectorName, &i.OfficerMobile,
		&i.FarmerName, &i.District, &i.Block, &i.Village, &i.SpecificLocation,
		&i.SowingStatus, &i.InspectionDate, &i.IsPassed, &i.Remarks, &i.PhotoURL,
		&i.ApprovalStatus, &i.CreatedAt, &i.UpdatedAt,
	}
}
