package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"agristack/internal/records/models"
	"agristack/pkg/domain"
	dErrors "agristack/pkg/domain-errors"
	audit "agristack/pkg/platform/audit"
	"agristack/pkg/platform/sentinel"
)

// RegisterFarmer validates the request, assigns a fresh registration id
// and stores the farmer. Registration id collisions are retried.
func (s *Service) RegisterFarmer(ctx context.Context, p domain.Principal, req *models.RegisterFarmerRequest) (*models.Farmer, error) {
	if err := requireWrite(p); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		stored models.Record
		err    error
	)
	for range registrationAttempts {
		farmer := req.ToFarmer()
		farmer.RegistrationID = s.nextRegistrationID()
		start := time.Now()
		stored, err = s.records.Insert(ctx, farmer)
		s.metrics.ObserveStore("insert", start)
		if !errors.Is(err, sentinel.ErrConflict) {
			break
		}
		s.logger.WarnContext(ctx, "registration id collision, retrying", "registration_id", farmer.RegistrationID)
	}
	if err != nil {
		return nil, storeError(err, "farmer")
	}
	s.invalidateSearch(ctx)

	f := stored.(*models.Farmer)
	s.metrics.IncrementCreated(string(models.CollectionFarmers))
	s.logAudit(ctx, p, audit.EventFarmerRegistered, subject(f), map[string]string{
		"registration_id": f.RegistrationID,
		"village":         f.Village,
	})
	return f, nil
}

// UpdateFarmer applies a partial update. Registration ids are immutable.
func (s *Service) UpdateFarmer(ctx context.Context, p domain.Principal, id uuid.UUID, patch models.Patch) (*models.Farmer, error) {
	if err := requireWrite(p); err != nil {
		return nil, err
	}
	if err := patch.Validate(models.CollectionFarmers); err != nil {
		return nil, err
	}
	updated, err := s.update(ctx, models.CollectionFarmers, id, patch)
	if err != nil {
		return nil, storeError(err, "farmer")
	}
	s.logAudit(ctx, p, audit.EventFarmerUpdated, subject(updated), map[string]string{
		"fields": strings.Join(patch.Keys(models.CollectionFarmers), ","),
	})
	return updated.(*models.Farmer), nil
}

func (s *Service) RecordInspection(ctx context.Context, p domain.Principal, req *models.RecordInspectionRequest) (*models.Inspection, error) {
	if err := requireWrite(p); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inspection := req.ToInspection()
	inspection.ApprovalStatus = s.initialApproval()
	stored, err := s.insert(ctx, inspection)
	if err != nil {
		return nil, storeError(err, "inspection")
	}

	i := stored.(*models.Inspection)
	s.metrics.IncrementCreated(string(models.CollectionInspections))
	s.logAudit(ctx, p, audit.EventInspectionRecorded, subject(i), map[string]string{
		"lot_no": i.LotNo,
		"result": i.Result(),
	})
	return i, nil
}

// SetInspectionResult records pass/fail for an inspection. A nil result
// puts it back to pending.
func (s *Service) SetInspectionResult(ctx context.Context, p domain.Principal, id uuid.UUID, passed *bool, remarks *string) (*models.Inspection, error) {
	if err := requireWrite(p); err != nil {
		return nil, err
	}
	patch := models.Patch{"is_passed": nil}
	if passed != nil {
		patch["is_passed"] = *passed
	}
	if remarks != nil {
		patch["remarks"] = *remarks
	}
	updated, err := s.update(ctx, models.CollectionInspections, id, patch)
	if err != nil {
		return nil, storeError(err, "inspection")
	}

	i := updated.(*models.Inspection)
	s.logAudit(ctx, p, audit.EventInspectionResult, subject(i), map[string]string{"result": i.Result()})
	return i, nil
}

func (s *Service) LogOutreachVisit(ctx context.Context, p domain.Principal, req *models.LogOutreachRequest) (*models.Outreach, error) {
	if err := requireWrite(p); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	visit := req.ToOutreach()
	visit.ApprovalStatus = s.initialApproval()
	stored, err := s.insert(ctx, visit)
	if err != nil {
		return nil, storeError(err, "outreach visit")
	}

	o := stored.(*models.Outreach)
	s.metrics.IncrementCreated(string(models.CollectionOutreach))
	s.logAudit(ctx, p, audit.EventOutreachLogged, subject(o), map[string]string{"village": o.Village})
	return o, nil
}

// Delete removes a record. Only admins delete.
func (s *Service) Delete(ctx context.Context, p domain.Principal, c models.Collection, id uuid.UUID) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if !c.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown collection")
	}
	start := time.Now()
	err := s.records.Delete(ctx, c, id)
	s.metrics.ObserveStore("delete", start)
	if err != nil {
		return storeError(err, "record")
	}
	s.invalidateSearch(ctx)
	s.logAudit(ctx, p, audit.EventRecordDeleted, string(c)+"/"+id.String(), nil)
	return nil
}

// UploadPhoto stores an inspection or outreach photo and returns its URL.
func (s *Service) UploadPhoto(ctx context.Context, p domain.Principal, filename string, r io.Reader) (string, error) {
	if err := requireWrite(p); err != nil {
		return "", err
	}
	if s.blobs == nil {
		return "", dErrors.New(dErrors.CodeUnavailable, "photo storage is not configured")
	}
	url, err := s.blobs.Put(ctx, filename, r)
	if err != nil {
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			return "", err
		}
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "photo upload failed")
	}
	s.metrics.IncrementPhotos()
	s.logAudit(ctx, p, audit.EventPhotoUploaded, url, nil)
	return url, nil
}

func (s *Service) initialApproval() *models.ApprovalStatus {
	if !s.approvalWorkflow {
		return nil
	}
	pending := models.ApprovalPending
	return &pending
}

func (s *Service) insert(ctx context.Context, rec models.Record) (models.Record, error) {
	start := time.Now()
	stored, err := s.records.Insert(ctx, rec)
	s.metrics.ObserveStore("insert", start)
	if err == nil {
		s.invalidateSearch(ctx)
	}
	return stored, err
}

func (s *Service) update(ctx context.Context, c models.Collection, id uuid.UUID, patch models.Patch) (models.Record, error) {
	start := time.Now()
	updated, err := s.records.Update(ctx, c, id, patch)
	s.metrics.ObserveStore("update", start)
	if err == nil {
		s.invalidateSearch(ctx)
	}
	return updated, err
}

func (s *Service) invalidateSearch(ctx context.Context) {
	if s.search != nil {
		s.search.Invalidate(ctx)
	}
}
