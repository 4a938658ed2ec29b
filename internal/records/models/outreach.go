package models

import (
	"time"

	"github.com/google/uuid"
)

// Outreach is one stop of the gyan vahan awareness vehicle.
type Outreach struct {
	ID              uuid.UUID       `json:"id"`
	InspectorName   string          `json:"inspector_name"`
	InspectorRole   string          `json:"inspector_role"`
	InspectorMobile string          `json:"inspector_mobile"`
	District        string          `json:"district"`
	Block           string          `json:"block"`
	Village         string          `json:"village"`
	Landmark        *string         `json:"landmark,omitempty"`
	FarmersCount    int             `json:"farmers_count"`
	Remarks         *string         `json:"remarks,omitempty"`
	PhotoURL        *string         `json:"photo_url,omitempty"`
	ApprovalStatus  *ApprovalStatus `json:"approval_status,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (o *Outreach) Collection() Collection   { return CollectionOutreach }
func (o *Outreach) RecordID() uuid.UUID      { return o.ID }
func (o *Outreach) Created() time.Time       { return o.CreatedAt }
func (o *Outreach) Approval() ApprovalStatus { return EffectiveApproval(o.ApprovalStatus) }

func (o *Outreach) Fields() []Field {
	return []Field{
		{"id", o.ID.String()},
		{"inspector_name", o.InspectorName},
		{"inspector_role", o.InspectorRole},
		{"inspector_mobile", o.InspectorMobile},
		{"district", o.District},
		{"block", o.Block},
		{"village", o.Village},
		{"landmark", optString(o.Landmark)},
		{"farmers_count", o.FarmersCount},
		{"remarks", optString(o.Remarks)},
		{"photo_url", optString(o.PhotoURL)},
		{"approval_status", optApproval(o.ApprovalStatus)},
		{"created_at", o.CreatedAt},
		{"updated_at", o.UpdatedAt},
	}
}

func (o *Outreach) ScanDest() []any {
	return []any{
		&o.ID, &o.InspectorName, &o.InspectorRole, &o.InspectorMobile, &o.District,
		&o.Block, &o.Village, &o.Landmark, &o.FarmersCount, &o.Remarks, &o.PhotoURL,
		&o.ApprovalStatus, &o.CreatedAt, &o.UpdatedAt,
	}
}
