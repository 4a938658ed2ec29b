package models

import (
	"time"

	"github.com/google/uuid"
)

// Farmer is a registered beneficiary.
type Farmer struct {
	ID             uuid.UUID `json:"id"`
	RegistrationID string    `json:"registration_id"`
	FullName       string    `json:"full_name"`
	Gender         string    `json:"gender"`
	DOB            *Date     `json:"dob,omitempty"`
	Mobile         string    `json:"mobile"`
	Aadhaar        string    `json:"aadhaar"`
	District       string    `json:"district"`
	Block          string    `json:"block"`
	Panchayat      string    `json:"panchayat"`
	Village        string    `json:"village"`
	IFSC           string    `json:"ifsc"`
	AccountNo      string    `json:"account_no"`
	Khata          string    `json:"khata"`
	Khesra         string    `json:"khesra"`
	Area           *float64  `json:"area,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (f *Farmer) Collection() Collection { return CollectionFarmers }
func (f *Farmer) RecordID() uuid.UUID    { return f.ID }
func (f *Farmer) Created() time.Time     { return f.CreatedAt }

func (f *Farmer) Fields() []Field {
	return []Field{
		{"id", f.ID.String()},
		{"registration_id", f.RegistrationID},
		{"full_name", f.FullName},
		{"gender", f.Gender},
		{"dob", optDate(f.DOB)},
		{"mobile", f.Mobile},
		{"aadhaar", f.Aadhaar},
		{"district", f.District},
		{"block", f.Block},
		{"panchayat", f.Panchayat},
		{"village", f.Village},
		{"ifsc", f.IFSC},
		{"account_no", f.AccountNo},
		{"khata", f.Khata},
		{"khesra", f.Khesra},
		{"area", optFloat(f.Area)},
		{"created_at", f.CreatedAt},
		{"updated_at", f.UpdatedAt},
	}
}

func (f *Farmer) ScanDest() []any {
	return []any{
		&f.ID, &f.RegistrationID, &f.FullName, &f.Gender, &f.DOB, &f.Mobile,
		&f.Aadhaar, &f.District, &f.Block, &f.Panchayat, &f.Village, &f.IFSC,
		&f.AccountNo, &f.Khata, &f.Khesra, &f.Area, &f.CreatedAt, &f.UpdatedAt,
	}
}
