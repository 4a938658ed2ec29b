package models

import dErrors "agristack/pkg/domain-errors"

// ApprovalStatus is the review state of a field submission. Records that
// predate the review workflow carry no status and count as approved.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	switch ApprovalStatus(s) {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return ApprovalStatus(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "approval status must be pending, approved or rejected")
}

// EffectiveApproval resolves an optional status, defaulting to approved.
func EffectiveApproval(s *ApprovalStatus) ApprovalStatus {
	if s == nil || *s == "" {
		return ApprovalApproved
	}
	return *s
}

// Reviewable is implemented by the variants that go through approval.
type Reviewable interface {
	Record
	Approval() ApprovalStatus
}
