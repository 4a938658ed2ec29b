package models

import (
	"strings"
	"unicode"

	dErrors "agristack/pkg/domain-errors"
)

// ErrCropNameRequired is the validation message shown when crop is Other
// and no custom name was given.
const ErrCropNameRequired = "Please specify the crop name"

type RegisterFarmerRequest struct {
	FullName  string   `json:"full_name" yaml:"full_name"`
	Gender    string   `json:"gender" yaml:"gender"`
	DOB       *Date    `json:"dob,omitempty" yaml:"dob,omitempty"`
	Mobile    string   `json:"mobile" yaml:"mobile"`
	Aadhaar   string   `json:"aadhaar" yaml:"aadhaar"`
	District  string   `json:"district" yaml:"district"`
	Block     string   `json:"block" yaml:"block"`
	Panchayat string   `json:"panchayat" yaml:"panchayat"`
	Village   string   `json:"village" yaml:"village"`
	IFSC      string   `json:"ifsc" yaml:"ifsc"`
	AccountNo string   `json:"account_no" yaml:"account_no"`
	Khata     string   `json:"khata" yaml:"khata"`
	Khesra    string   `json:"khesra" yaml:"khesra"`
	Area      *float64 `json:"area,omitempty" yaml:"area,omitempty"`
}

func (r *RegisterFarmerRequest) Normalize() {
	if r == nil {
		return
	}
	r.FullName = strings.TrimSpace(r.FullName)
	r.Gender = strings.TrimSpace(r.Gender)
	r.Mobile = strings.TrimSpace(r.Mobile)
	r.Aadhaar = strings.ReplaceAll(strings.TrimSpace(r.Aadhaar), " ", "")
	r.District = strings.TrimSpace(r.District)
	r.Block = strings.TrimSpace(r.Block)
	r.Panchayat = strings.TrimSpace(r.Panchayat)
	r.Village = strings.TrimSpace(r.Village)
	r.IFSC = strings.ToUpper(strings.TrimSpace(r.IFSC))
	r.AccountNo = strings.TrimSpace(r.AccountNo)
	r.Khata = strings.TrimSpace(r.Khata)
	r.Khesra = strings.TrimSpace(r.Khesra)
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *RegisterFarmerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.FullName) > 200 {
		return dErrors.New(dErrors.CodeValidation, "full_name must be 200 characters or less")
	}
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	if r.Village == "" || r.District == "" {
		return dErrors.New(dErrors.CodeValidation, "village and district are required")
	}
	if err := validateMobile("mobile", r.Mobile); err != nil {
		return err
	}
	if r.Aadhaar != "" && (len(r.Aadhaar) != 12 || !allDigits(r.Aadhaar)) {
		return dErrors.New(dErrors.CodeValidation, "aadhaar must be 12 digits")
	}
	if r.Area != nil && *r.Area < 0 {
		return dErrors.New(dErrors.CodeValidation, "area must not be negative")
	}
	return nil
}

func (r *RegisterFarmerRequest) ToFarmer() *Farmer {
	return &Farmer{
		FullName:  r.FullName,
		Gender:    r.Gender,
		DOB:       r.DOB,
		Mobile:    r.Mobile,
		Aadhaar:   r.Aadhaar,
		District:  r.District,
		Block:     r.Block,
		Panchayat: r.Panchayat,
		Village:   r.Village,
		IFSC:      r.IFSC,
		AccountNo: r.AccountNo,
		Khata:     r.Khata,
		Khesra:    r.Khesra,
		Area:      r.Area,
	}
}

type RecordInspectionRequest struct {
	LotNo            string  `json:"lot_no" yaml:"lot_no"`
	Crop             string  `json:"crop" yaml:"crop"`
	OtherCrop        string  `json:"other_crop,omitempty" yaml:"other_crop,omitempty"`
	Variety          string  `json:"variety" yaml:"variety"`
	InspectorName    string  `json:"inspector_name" yaml:"inspector_name"`
	OfficerMobile    string  `json:"officer_mobile" yaml:"officer_mobile"`
	FarmerName       string  `json:"farmer_name" yaml:"farmer_name"`
	District         string  `json:"district" yaml:"district"`
	Block            string  `json:"block" yaml:"block"`
	Village          string  `json:"village" yaml:"village"`
	SpecificLocation string  `json:"specific_location" yaml:"specific_location"`
	SowingStatus     string  `json:"sowing_status" yaml:"sowing_status"`
	InspectionDate   *Date   `json:"inspection_date,omitempty" yaml:"inspection_date,omitempty"`
	IsPassed         *bool   `json:"is_passed,omitempty" yaml:"is_passed,omitempty"`
	Remarks          *string `json:"remarks,omitempty" yaml:"remarks,omitempty"`
	PhotoURL         *string `json:"photo_url,omitempty" yaml:"photo_url,omitempty"`
}

func (r *RecordInspectionRequest) Normalize() {
	if r == nil {
		return
	}
	r.LotNo = strings.TrimSpace(r.LotNo)
	r.Crop = strings.TrimSpace(r.Crop)
	r.OtherCrop = strings.TrimSpace(r.OtherCrop)
	r.Variety = strings.TrimSpace(r.Variety)
	r.InspectorName = strings.TrimSpace(r.InspectorName)
	r.OfficerMobile = strings.TrimSpace(r.OfficerMobile)
	r.FarmerName = strings.TrimSpace(r.FarmerName)
	r.District = strings.TrimSpace(r.District)
	r.Block = strings.TrimSpace(r.Block)
	r.Village = strings.TrimSpace(r.Village)
	r.SpecificLocation = strings.TrimSpace(r.SpecificLocation)
	r.SowingStatus = strings.TrimSpace(r.SowingStatus)
	r.Remarks = trimOptional(r.Remarks)
	r.PhotoURL = trimOptional(r.PhotoURL)
}

func (r *RecordInspectionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Remarks != nil && len(*r.Remarks) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "remarks must be 2000 characters or less")
	}
	if r.LotNo == "" {
		return dErrors.New(dErrors.CodeValidation, "lot_no is required")
	}
	if r.Crop == "" {
		return dErrors.New(dErrors.CodeValidation, "crop is required")
	}
	if r.Crop == CropOther && r.OtherCrop == "" {
		return dErrors.New(dErrors.CodeValidation, ErrCropNameRequired)
	}
	if r.InspectorName == "" || r.FarmerName == "" {
		return dErrors.New(dErrors.CodeValidation, "inspector_name and farmer_name are required")
	}
	if r.Village == "" || r.District == "" {
		return dErrors.New(dErrors.CodeValidation, "village and district are required")
	}
	if r.OfficerMobile != "" {
		if err := validateMobile("officer_mobile", r.OfficerMobile); err != nil {
			return err
		}
	}
	return nil
}

// CropName resolves the catalogue value or the custom name for Other.
func (r *RecordInspectionRequest) CropName() string {
	if r.Crop == CropOther {
		return r.OtherCrop
	}
	return r.Crop
}

func (r *RecordInspectionRequest) ToInspection() *Inspection {
	return &Inspection{
		LotNo:            r.LotNo,
		Crop:             r.CropName(),
		Variety:          r.Variety,
		InspectorName:    r.InspectorName,
		OfficerMobile:    r.OfficerMobile,
		FarmerName:       r.FarmerName,
		District:         r.District,
		Block:            r.Block,
		Village:          r.Village,
		SpecificLocation: r.SpecificLocation,
		SowingStatus:     r.SowingStatus,
		InspectionDate:   r.InspectionDate,
		IsPassed:         r.IsPassed,
		Remarks:          r.Remarks,
		PhotoURL:         r.PhotoURL,
	}
}

type LogOutreachRequest struct {
	InspectorName   string  `json:"inspector_name" yaml:"inspector_name"`
	InspectorRole   string  `json:"inspector_role" yaml:"inspector_role"`
	InspectorMobile string  `json:"inspector_mobile" yaml:"inspector_mobile"`
	District        string  `json:"district" yaml:"district"`
	Block           string  `json:"block" yaml:"block"`
	Village         string  `json:"village" yaml:"village"`
	Landmark        *string `json:"landmark,omitempty" yaml:"landmark,omitempty"`
	FarmersCount    int     `json:"farmers_count" yaml:"farmers_count"`
	Remarks         *string `json:"remarks,omitempty" yaml:"remarks,omitempty"`
	PhotoURL        *string `json:"photo_url,omitempty" yaml:"photo_url,omitempty"`
}

func (r *LogOutreachRequest) Normalize() {
	if r == nil {
		return
	}
	r.InspectorName = strings.TrimSpace(r.InspectorName)
	r.InspectorRole = strings.TrimSpace(r.InspectorRole)
	r.InspectorMobile = strings.TrimSpace(r.InspectorMobile)
	r.District = strings.TrimSpace(r.District)
	r.Block = strings.TrimSpace(r.Block)
	r.Village = strings.TrimSpace(r.Village)
	r.Landmark = trimOptional(r.Landmark)
	r.Remarks = trimOptional(r.Remarks)
	r.PhotoURL = trimOptional(r.PhotoURL)
}

func (r *LogOutreachRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.InspectorName == "" {
		return dErrors.New(dErrors.CodeValidation, "inspector_name is required")
	}
	if r.Village == "" || r.District == "" {
		return dErrors.New(dErrors.CodeValidation, "village and district are required")
	}
	if r.InspectorMobile != "" {
		if err := validateMobile("inspector_mobile", r.InspectorMobile); err != nil {
			return err
		}
	}
	if r.FarmersCount < 0 {
		return dErrors.New(dErrors.CodeValidation, "farmers_count must not be negative")
	}
	return nil
}

func (r *LogOutreachRequest) ToOutreach() *Outreach {
	return &Outreach{
		InspectorName:   r.InspectorName,
		InspectorRole:   r.InspectorRole,
		InspectorMobile: r.InspectorMobile,
		District:        r.District,
		Block:           r.Block,
		Village:         r.Village,
		Landmark:        r.Landmark,
		FarmersCount:    r.FarmersCount,
		Remarks:         r.Remarks,
		PhotoURL:        r.PhotoURL,
	}
}

func validateMobile(field, v string) error {
	if v == "" {
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	if len(v) != 10 || !allDigits(v) {
		return dErrors.New(dErrors.CodeValidation, field+" must be 10 digits")
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
