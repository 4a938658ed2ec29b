package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"agristack/internal/records/models"
	"agristack/internal/records/service/mocks"
	"agristack/internal/records/store"
	"agristack/pkg/domain"
	dErrors "agristack/pkg/domain-errors"
	audit "agristack/pkg/platform/audit"
	"agristack/pkg/platform/audit/publisher"
	auditmemory "agristack/pkg/platform/audit/store/memory"
	"agristack/pkg/platform/sentinel"
)

var (
	admin     = domain.Principal{OperatorID: domain.OperatorID(uuid.New()), Name: "Admin", Role: domain.RoleAdmin}
	inspector = domain.Principal{OperatorID: domain.OperatorID(uuid.New()), Name: "Officer", Role: domain.RoleInspector}
	viewer    = domain.Principal{OperatorID: domain.OperatorID(uuid.New()), Name: "Viewer", Role: domain.RoleViewer}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

type ServiceSuite struct {
	suite.Suite
	ctx    context.Context
	now    time.Time
	store  *store.InMemory
	events *auditmemory.InMemoryStore
	svc    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	s.store = store.NewInMemory(store.WithMemoryClock(func() time.Time { return s.now }))
	s.events = auditmemory.NewInMemoryStore()
	s.svc = New(s.store,
		WithLogger(discardLogger()),
		WithAuditPublisher(publisher.NewPublisher(s.events)),
		WithClock(func() time.Time { return s.now }),
		WithSeed(7),
	)
}

func (s *ServiceSuite) farmerRequest(name, village string) *models.RegisterFarmerRequest {
	return &models.RegisterFarmerRequest{
		FullName: name,
		Gender:   "Male",
		Mobile:   "9876543210",
		District: "Patna",
		Village:  village,
	}
}

func (s *ServiceSuite) inspectionRequest() *models.RecordInspectionRequest {
	return &models.RecordInspectionRequest{
		LotNo:         "L-101",
		Crop:          "Paddy",
		Variety:       "MTU-7029",
		InspectorName: "S. Kumar",
		FarmerName:    "Ram Prasad",
		District:      "Patna",
		Village:       "Rampur",
	}
}

func (s *ServiceSuite) TestRegisterFarmer() {
	s.Run("assigns a registration id and emits an audit event", func() {
		f, err := s.svc.RegisterFarmer(s.ctx, inspector, s.farmerRequest("  Ram Prasad ", "Rampur"))
		s.Require().NoError(err)
		s.True(models.IsRegistrationID(f.RegistrationID), f.RegistrationID)
		s.Equal("Ram Prasad", f.FullName)
		s.Equal(s.now, f.CreatedAt)

		events, err := s.events.ListByOperator(s.ctx, inspector.OperatorID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventFarmerRegistered), events[0].Action)
		s.Equal(audit.CategoryCompliance, events[0].Category)
		s.Equal("farmers/"+f.ID.String(), events[0].Subject)
	})

	s.Run("rejects invalid mobile numbers", func() {
		req := s.farmerRequest("Sita Devi", "Sonpur")
		req.Mobile = "12345"
		_, err := s.svc.RegisterFarmer(s.ctx, inspector, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("viewers cannot register", func() {
		_, err := s.svc.RegisterFarmer(s.ctx, viewer, s.farmerRequest("Sita Devi", "Sonpur"))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("anonymous callers are unauthorized", func() {
		_, err := s.svc.RegisterFarmer(s.ctx, domain.Anonymous, s.farmerRequest("Sita Devi", "Sonpur"))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestUpdateFarmerKeepsRegistrationID() {
	f, err := s.svc.RegisterFarmer(s.ctx, inspector, s.farmerRequest("Ram Prasad", "Rampur"))
	s.Require().NoError(err)

	updated, err := s.svc.UpdateFarmer(s.ctx, inspector, f.ID, models.Patch{"village": "Sonpur", "area": 2.5})
	s.Require().NoError(err)
	s.Equal("Sonpur", updated.Village)
	s.Require().NotNil(updated.Area)
	s.InDelta(2.5, *updated.Area, 0.001)

	_, err = s.svc.UpdateFarmer(s.ctx, inspector, f.ID, models.Patch{"registration_id": "FRM-999999"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.UpdateFarmer(s.ctx, inspector, uuid.New(), models.Patch{"village": "Sonpur"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestRecordInspection() {
	s.Run("custom crop name is required for Other", func() {
		req := s.inspectionRequest()
		req.Crop = models.CropOther
		_, err := s.svc.RecordInspection(s.ctx, inspector, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(models.ErrCropNameRequired, dErrors.MessageOf(err))
	})

	s.Run("custom crop name replaces Other", func() {
		req := s.inspectionRequest()
		req.Crop = models.CropOther
		req.OtherCrop = "Makhana"
		i, err := s.svc.RecordInspection(s.ctx, inspector, req)
		s.Require().NoError(err)
		s.Equal("Makhana", i.Crop)
		s.Nil(i.ApprovalStatus)
		s.Equal(models.ApprovalApproved, i.Approval())
	})

	s.Run("set result then clear it", func() {
		i, err := s.svc.RecordInspection(s.ctx, inspector, s.inspectionRequest())
		s.Require().NoError(err)
		s.Equal("Pending", i.Result())

		passed, err := s.svc.SetInspectionResult(s.ctx, inspector, i.ID, ptr(true), ptr("Seed purity fine"))
		s.Require().NoError(err)
		s.Equal("Passed", passed.Result())
		s.Require().NotNil(passed.Remarks)
		s.Equal("Seed purity fine", *passed.Remarks)

		cleared, err := s.svc.SetInspectionResult(s.ctx, inspector, i.ID, nil, nil)
		s.Require().NoError(err)
		s.Equal("Pending", cleared.Result())
	})
}

func (s *ServiceSuite) TestApprovalWorkflow() {
	svc := New(s.store, WithLogger(discardLogger()), WithApprovalWorkflow(true), WithClock(func() time.Time { return s.now }))

	i, err := svc.RecordInspection(s.ctx, inspector, s.inspectionRequest())
	s.Require().NoError(err)
	s.Require().NotNil(i.ApprovalStatus)
	s.Equal(models.ApprovalPending, *i.ApprovalStatus)

	o, err := svc.LogOutreachVisit(s.ctx, inspector, &models.LogOutreachRequest{
		InspectorName: "S. Kumar", District: "Patna", Village: "Rampur", FarmersCount: 40,
	})
	s.Require().NoError(err)

	_, err = svc.ListPendingApprovals(s.ctx, inspector)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	pending, err := svc.ListPendingApprovals(s.ctx, admin)
	s.Require().NoError(err)
	s.Len(pending, 2)

	reviewed, err := svc.SetApprovalStatus(s.ctx, admin, models.CollectionOutreach, o.ID, models.ApprovalRejected)
	s.Require().NoError(err)
	s.Equal(models.ApprovalRejected, reviewed.Approval())

	pending, err = svc.ListPendingApprovals(s.ctx, admin)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(i.ID, pending[0].RecordID())

	_, err = svc.SetApprovalStatus(s.ctx, admin, models.CollectionFarmers, o.ID, models.ApprovalApproved)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.SetApprovalStatus(s.ctx, admin, models.CollectionInspections, i.ID, models.ApprovalStatus("maybe"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestListAndGet() {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC) }
	for d := 1; d <= 5; d++ {
		_, err := s.store.Insert(s.ctx, &models.Farmer{
			RegistrationID: models.NewRegistrationID(nil),
			FullName:       "Farmer",
			CreatedAt:      day(d),
		})
		s.Require().NoError(err)
	}

	from, to := models.NewDate(2026, 3, 2), models.NewDate(2026, 3, 4)
	res, err := s.svc.List(s.ctx, viewer, models.ListRequest{
		Collection: models.CollectionFarmers, From: &from, To: &to, Limit: 2,
	})
	s.Require().NoError(err)
	s.Equal(3, res.Total)
	s.Require().Len(res.Records, 2)
	s.Equal(day(4), res.Records[0].Created())

	_, err = s.svc.List(s.ctx, viewer, models.ListRequest{Collection: models.CollectionFarmers, From: &to, To: &from})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	got, err := s.svc.Get(s.ctx, viewer, models.CollectionFarmers, res.Records[1].RecordID())
	s.Require().NoError(err)
	s.Equal(day(3), got.Created())

	_, err = s.svc.Get(s.ctx, viewer, models.CollectionFarmers, uuid.New())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDeleteRequiresAdmin() {
	f, err := s.svc.RegisterFarmer(s.ctx, inspector, s.farmerRequest("Ram Prasad", "Rampur"))
	s.Require().NoError(err)

	err = s.svc.Delete(s.ctx, inspector, models.CollectionFarmers, f.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	s.Require().NoError(s.svc.Delete(s.ctx, admin, models.CollectionFarmers, f.ID))
	err = s.svc.Delete(s.ctx, admin, models.CollectionFarmers, f.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDashboardStats() {
	insert := func(rec models.Record) {
		_, err := s.store.Insert(s.ctx, rec)
		s.Require().NoError(err)
	}
	thisMonth := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)
	insert(&models.Farmer{RegistrationID: "FRM-100001", Gender: "Male", Village: "Rampur", CreatedAt: thisMonth})
	insert(&models.Farmer{RegistrationID: "FRM-100002", Gender: "female", Village: " rampur ", CreatedAt: thisMonth})
	insert(&models.Farmer{RegistrationID: "FRM-100003", Gender: "FEMALE", Village: "Sonpur", CreatedAt: thisMonth})
	insert(&models.Farmer{RegistrationID: "FRM-100004", Gender: "", Village: "", CreatedAt: lastMonth})
	insert(&models.Farmer{RegistrationID: "FRM-100005", Gender: "male", Village: "Sonpur", CreatedAt: lastMonth})

	insert(&models.Inspection{LotNo: "1", IsPassed: ptr(true)})
	insert(&models.Inspection{LotNo: "2", IsPassed: ptr(false)})
	insert(&models.Inspection{LotNo: "3", ApprovalStatus: ptr(models.ApprovalPending)})
	insert(&models.Outreach{Village: "Rampur", FarmersCount: 25})
	insert(&models.Outreach{Village: "Sonpur", FarmersCount: 15, ApprovalStatus: ptr(models.ApprovalPending)})

	stats, err := s.svc.DashboardStats(s.ctx, viewer)
	s.Require().NoError(err)
	s.Equal(5, stats.TotalFarmers)
	s.Equal(3, stats.TotalInspections)
	s.Equal(1, stats.PassedInspections)
	s.Equal(1, stats.FailedInspections)
	s.Equal(2, stats.PendingApprovals)
	s.Equal(2, stats.VehicleCount)
	s.Equal(40, stats.FarmersReached)
	s.Equal(2, stats.VillagesCovered)
	s.Equal(models.Trend{ThisMonth: 3, LastMonth: 2, Percent: 150}, stats.FarmerTrend)
	s.Equal(models.GenderSplit{Male: 2, Female: 2, Other: 1}, stats.Gender)
}

func (s *ServiceSuite) TestRecentActivity() {
	at := func(h int) time.Time { return time.Date(2026, 3, 10, h, 0, 0, 0, time.UTC) }
	for h := 1; h <= 4; h++ {
		_, err := s.store.Insert(s.ctx, &models.Farmer{RegistrationID: models.NewRegistrationID(nil), FullName: "F", CreatedAt: at(h * 2)})
		s.Require().NoError(err)
		_, err = s.store.Insert(s.ctx, &models.Inspection{FarmerName: "F", Crop: "Wheat", CreatedAt: at(h*2 + 1), IsPassed: ptr(h%2 == 0)})
		s.Require().NoError(err)
	}

	feed, err := s.svc.RecentActivity(s.ctx, viewer)
	s.Require().NoError(err)
	s.Require().Len(feed, 5)
	s.Equal(at(9), feed[0].Timestamp)
	s.Equal("Inspection: F (Wheat)", feed[0].Title)
	s.Equal("Passed", feed[0].Status)
	s.Equal("New Farmer: F", feed[1].Title)
	s.Equal(at(5), feed[4].Timestamp)
}

func TestTrendPercent(t *testing.T) {
	assert.Equal(t, 0.0, trendPercent(0, 0))
	assert.Equal(t, 100.0, trendPercent(4, 0))
	assert.Equal(t, 50.0, trendPercent(1, 2))
	assert.Equal(t, 33.0, trendPercent(1, 3))
}

func TestStoreFailuresSurfaceAsUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	records := mocks.NewMockRecordStore(ctrl)
	svc := New(records, WithLogger(discardLogger()))

	records.EXPECT().Query(gomock.Any(), gomock.Any()).
		Return(nil, sentinel.ErrUnavailable).AnyTimes()

	_, err := svc.List(context.Background(), viewer, models.ListRequest{Collection: models.CollectionOutreach})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

	_, err = svc.DashboardStats(context.Background(), viewer)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestRegisterFarmerRetriesRegistrationCollisions(t *testing.T) {
	ctrl := gomock.NewController(t)
	records := mocks.NewMockRecordStore(ctrl)
	svc := New(records, WithLogger(discardLogger()), WithSeed(42))

	gomock.InOrder(
		records.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrConflict),
		records.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, rec models.Record) (models.Record, error) {
				f := rec.(*models.Farmer)
				f.ID = uuid.New()
				return f, nil
			}),
	)

	f, err := svc.RegisterFarmer(context.Background(), admin, &models.RegisterFarmerRequest{
		FullName: "Ram", Mobile: "9876543210", District: "Patna", Village: "Rampur",
	})
	require.NoError(t, err)
	assert.True(t, models.IsRegistrationID(f.RegistrationID))
}

func TestCommittedChangesInvalidateSearch(t *testing.T) {
	ctrl := gomock.NewController(t)
	search := mocks.NewMockSearchInvalidator(ctrl)
	ctx := context.Background()
	svc := New(store.NewInMemory(), WithLogger(discardLogger()), WithSearchInvalidator(search), WithApprovalWorkflow(true))

	// register, update, inspection, result, outreach, approval, delete
	search.EXPECT().Invalidate(gomock.Any()).Times(7)

	f, err := svc.RegisterFarmer(ctx, inspector, &models.RegisterFarmerRequest{
		FullName: "Ramesh Kumar", Mobile: "9876543210", District: "Patna", Village: "Rampur",
	})
	require.NoError(t, err)
	_, err = svc.UpdateFarmer(ctx, inspector, f.ID, models.Patch{"village": "Sonpur"})
	require.NoError(t, err)
	i, err := svc.RecordInspection(ctx, inspector, &models.RecordInspectionRequest{
		LotNo: "L-7", Crop: "Paddy", Variety: "MTU-7029", InspectorName: "S. Kumar",
		FarmerName: "Ramesh Kumar", District: "Patna", Village: "Rampur",
	})
	require.NoError(t, err)
	_, err = svc.SetInspectionResult(ctx, inspector, i.ID, ptr(true), nil)
	require.NoError(t, err)
	_, err = svc.LogOutreachVisit(ctx, inspector, &models.LogOutreachRequest{
		InspectorName: "S. Kumar", District: "Patna", Village: "Rampur",
	})
	require.NoError(t, err)
	_, err = svc.SetApprovalStatus(ctx, admin, models.CollectionInspections, i.ID, models.ApprovalApproved)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, admin, models.CollectionFarmers, f.ID))

	// rejected or failed writes leave the cache alone
	err = svc.Delete(ctx, admin, models.CollectionFarmers, f.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = svc.UpdateFarmer(ctx, viewer, f.ID, models.Patch{"village": "Barh"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestAuditFailureDoesNotFailTheOperation(t *testing.T) {
	ctrl := gomock.NewController(t)
	auditor := mocks.NewMockAuditPublisher(ctrl)
	svc := New(store.NewInMemory(), WithLogger(discardLogger()), WithAuditPublisher(auditor))

	auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(assert.AnError)

	_, err := svc.LogOutreachVisit(context.Background(), inspector, &models.LogOutreachRequest{
		InspectorName: "S. Kumar", District: "Patna", Village: "Rampur",
	})
	require.NoError(t, err)
}

func TestUploadPhoto(t *testing.T) {
	ctrl := gomock.NewController(t)
	blobs := mocks.NewMockBlobStore(ctrl)
	svc := New(store.NewInMemory(), WithLogger(discardLogger()), WithBlobStore(blobs))

	blobs.EXPECT().Put(gomock.Any(), "field.jpg", gomock.Any()).Return("/uploads/abc.jpg", nil)
	url, err := svc.UploadPhoto(context.Background(), inspector, "field.jpg", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/abc.jpg", url)

	blobs.EXPECT().Put(gomock.Any(), "notes.txt", gomock.Any()).
		Return("", dErrors.New(dErrors.CodeValidation, "only image uploads are accepted"))
	_, err = svc.UploadPhoto(context.Background(), inspector, "notes.txt", strings.NewReader("text"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	unconfigured := New(store.NewInMemory(), WithLogger(discardLogger()))
	_, err = unconfigured.UploadPhoto(context.Background(), inspector, "field.jpg", strings.NewReader("img"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}
