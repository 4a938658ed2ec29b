package audit

import (
	"context"
	"errors"
	"time"

	"agristack/pkg/domain"
)

// EventCategory classifies events for retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers changes to beneficiary and inspection data
	// and approval decisions. These are kept for the full retention period.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity such as exports and uploads.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It is
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category   EventCategory     `json:"category"`
	Timestamp  time.Time         `json:"timestamp"`
	OperatorID domain.OperatorID `json:"operator_id"`
	Action     string            `json:"action"`
	// Subject is "<collection>/<id>" for record events, the report type for exports.
	Subject    string            `json:"subject"`
	RequestID  string            `json:"request_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type AuditEvent string

const (
	EventFarmerRegistered   AuditEvent = "farmer_registered"
	EventFarmerUpdated      AuditEvent = "farmer_updated"
	EventInspectionRecorded AuditEvent = "inspection_recorded"
	EventInspectionResult   AuditEvent = "inspection_result_set"
	EventOutreachLogged     AuditEvent = "outreach_logged"
	EventApprovalChanged    AuditEvent = "approval_changed"
	EventRecordDeleted      AuditEvent = "record_deleted"
	EventPhotoUploaded      AuditEvent = "photo_uploaded"
	EventExportGenerated    AuditEvent = "export_generated"
	EventExportEmpty        AuditEvent = "export_empty"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventFarmerRegistered:   CategoryCompliance,
	EventFarmerUpdated:      CategoryCompliance,
	EventInspectionRecorded: CategoryCompliance,
	EventInspectionResult:   CategoryCompliance,
	EventOutreachLogged:     CategoryCompliance,
	EventApprovalChanged:    CategoryCompliance,
	EventRecordDeleted:      CategoryCompliance,

	EventPhotoUploaded:   CategoryOperations,
	EventExportGenerated: CategoryOperations,
	EventExportEmpty:     CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by stores that can read events back.
type Lister interface {
	ListByOperator(ctx context.Context, operatorID domain.OperatorID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Tee appends to every store and joins their errors. The first store is
// the one read back by Publisher.List.
type Tee []Store

func (t Tee) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range t {
		if err := s.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
