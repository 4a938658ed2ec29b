package models

import (
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "agristack/pkg/domain-errors"
)

func TestFieldsAlignWithScanDest(t *testing.T) {
	for _, c := range Collections {
		rec := New(c)
		require.NotNil(t, rec, c)
		assert.Len(t, rec.ScanDest(), len(rec.Fields()), c)
		assert.Equal(t, "id", rec.Fields()[0].Key, c)
		assert.Contains(t, Columns(c), "created_at", c)
	}
}

func TestOptionalFieldsAreUntypedNil(t *testing.T) {
	insp := &Inspection{ID: uuid.New()}
	m := FieldMap(insp)
	assert.Nil(t, m["is_passed"])
	assert.Nil(t, m["inspection_date"])
	assert.Nil(t, m["approval_status"])

	passed := true
	insp.IsPassed = &passed
	assert.Equal(t, true, FieldMap(insp)["is_passed"])
}

func TestApprovalDefaultsToApproved(t *testing.T) {
	assert.Equal(t, ApprovalApproved, (&Inspection{}).Approval())
	pending := ApprovalPending
	assert.Equal(t, ApprovalPending, (&Outreach{ApprovalStatus: &pending}).Approval())

	_, err := ParseApprovalStatus("maybe")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestInspectionResult(t *testing.T) {
	yes, no := true, false
	assert.Equal(t, "Pending", (&Inspection{}).Result())
	assert.Equal(t, "Passed", (&Inspection{IsPassed: &yes}).Result())
	assert.Equal(t, "Failed", (&Inspection{IsPassed: &no}).Result())
}

func TestParseCollectionAliases(t *testing.T) {
	c, err := ParseCollection("gyan_vahan")
	require.NoError(t, err)
	assert.Equal(t, CollectionOutreach, c)

	c, err = ParseCollection(" Seed_Inspections ")
	require.NoError(t, err)
	assert.Equal(t, CollectionInspections, c)

	_, err = ParseCollection("profiles")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestDateJSONAndScan(t *testing.T) {
	d := NewDate(2025, time.July, 4)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-07-04"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, d, scanned)
	require.NoError(t, scanned.Scan([]byte("2024-02-29")))
	assert.Equal(t, "2024-02-29", scanned.String())

	_, err = ParseDate("04/07/2025")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestApplyPatch(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	insp := &Inspection{ID: uuid.New(), LotNo: "L-1"}

	err := ApplyPatch(insp, Patch{
		"is_passed":       true,
		"approval_status": ApprovalRejected,
		"remarks":         "poor germination",
		"inspection_date": NewDate(2026, 1, 1),
	}, now)
	require.NoError(t, err)

	require.NotNil(t, insp.IsPassed)
	assert.True(t, *insp.IsPassed)
	assert.Equal(t, ApprovalRejected, insp.Approval())
	assert.Equal(t, "poor germination", *insp.Remarks)
	assert.Equal(t, "2026-01-01", insp.InspectionDate.String())
	assert.Equal(t, now, insp.UpdatedAt)

	t.Run("nil clears optional fields", func(t *testing.T) {
		require.NoError(t, ApplyPatch(insp, Patch{"is_passed": nil}, now))
		assert.Nil(t, insp.IsPassed)
	})

	t.Run("plain strings convert to approval status", func(t *testing.T) {
		require.NoError(t, ApplyPatch(insp, Patch{"approval_status": "approved"}, now))
		assert.Equal(t, ApprovalApproved, *insp.ApprovalStatus)
	})

	t.Run("rejects immutable and unknown keys", func(t *testing.T) {
		err := ApplyPatch(insp, Patch{"created_at": now}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		err = ApplyPatch(insp, Patch{"avatar_url": "x"}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects mismatched types", func(t *testing.T) {
		err := ApplyPatch(insp, Patch{"lot_no": 42}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("required fields cannot be cleared", func(t *testing.T) {
		err := ApplyPatch(insp, Patch{"lot_no": nil}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestRegistrationID(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 100 {
		id := NewRegistrationID(r)
		assert.True(t, IsRegistrationID(id), id)
	}
	assert.False(t, IsRegistrationID("FRM-012345"))
	assert.False(t, IsRegistrationID("FRM-1234567"))
}

func TestRecordInspectionRequestValidate(t *testing.T) {
	valid := func() *RecordInspectionRequest {
		return &RecordInspectionRequest{
			LotNo: "LOT-77", Crop: "Paddy", InspectorName: "S. Das", FarmerName: "Meena Devi",
			Village: "Rampur", District: "Gaya", OfficerMobile: "9876543210",
		}
	}

	req := valid()
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "Paddy", req.ToInspection().Crop)

	t.Run("other crop needs a name", func(t *testing.T) {
		req := valid()
		req.Crop = CropOther
		req.OtherCrop = "  "
		req.Normalize()
		err := req.Validate()
		require.Error(t, err)
		assert.Equal(t, ErrCropNameRequired, dErrors.MessageOf(err))

		req.OtherCrop = "Makhana"
		require.NoError(t, req.Validate())
		assert.Equal(t, "Makhana", req.ToInspection().Crop)
	})

	t.Run("bad mobile", func(t *testing.T) {
		req := valid()
		req.OfficerMobile = "98765"
		assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
	})
}

func TestRegisterFarmerRequestValidate(t *testing.T) {
	req := &RegisterFarmerRequest{
		FullName: " Ramesh Yadav ", Mobile: "9123456780", Aadhaar: "1234 5678 9012",
		Village: "Sonpur", District: "Saran", IFSC: "sbin0001234",
	}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "Ramesh Yadav", req.FullName)
	assert.Equal(t, "123456789012", req.Aadhaar)
	assert.Equal(t, "SBIN0001234", req.IFSC)

	req.Aadhaar = "12345"
	assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
}

func TestLogOutreachRequestValidate(t *testing.T) {
	req := &LogOutreachRequest{InspectorName: "A. Singh", Village: "Bakhtiyarpur", District: "Patna", FarmersCount: -1}
	assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
	req.FarmersCount = 35
	require.NoError(t, req.Validate())
}
