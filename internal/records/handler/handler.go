package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"agristack/internal/records/models"
	"agristack/internal/records/store"
	"agristack/pkg/domain"
	dErrors "agristack/pkg/domain-errors"
	"agristack/pkg/platform/httputil"
	"agristack/pkg/requestcontext"
)

// Service defines the record operations the handler exposes.
type Service interface {
	RegisterFarmer(ctx context.Context, p domain.Principal, req *models.RegisterFarmerRequest) (*models.Farmer, error)
	UpdateFarmer(ctx context.Context, p domain.Principal, id uuid.UUID, patch models.Patch) (*models.Farmer, error)
	RecordInspection(ctx context.Context, p domain.Principal, req *models.RecordInspectionRequest) (*models.Inspection, error)
	SetInspectionResult(ctx context.Context, p domain.Principal, id uuid.UUID, passed *bool, remarks *string) (*models.Inspection, error)
	LogOutreachVisit(ctx context.Context, p domain.Principal, req *models.LogOutreachRequest) (*models.Outreach, error)
	Get(ctx context.Context, p domain.Principal, c models.Collection, id uuid.UUID) (models.Record, error)
	List(ctx context.Context, p domain.Principal, req models.ListRequest) (*models.ListResult, error)
	Delete(ctx context.Context, p domain.Principal, c models.Collection, id uuid.UUID) error
	ListPendingApprovals(ctx context.Context, p domain.Principal) ([]models.Record, error)
	SetApprovalStatus(ctx context.Context, p domain.Principal, c models.Collection, id uuid.UUID, status models.ApprovalStatus) (models.Reviewable, error)
	UploadPhoto(ctx context.Context, p domain.Principal, filename string, r io.Reader) (string, error)
	DashboardStats(ctx context.Context, p domain.Principal) (*models.DashboardStats, error)
	RecentActivity(ctx context.Context, p domain.Principal) ([]models.Activity, error)
}

// Handler serves the record, approval, upload and dashboard endpoints.
type Handler struct {
	records Service
	logger  *slog.Logger
}

func New(records Service, logger *slog.Logger) *Handler {
	return &Handler{records: records, logger: logger}
}

// Register mounts the routes on r. Authentication is applied by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/farmers", h.handleRegisterFarmer)
	r.Patch("/farmers/{id}", h.handleUpdateFarmer)
	r.Post("/inspections", h.handleRecordInspection)
	r.Put("/inspections/{id}/result", h.handleSetInspectionResult)
	r.Post("/outreach", h.handleLogOutreach)

	r.Get("/records/{collection}", h.handleList)
	r.Get("/records/{collection}/{id}", h.handleGet)
	r.Delete("/records/{collection}/{id}", h.handleDelete)

	r.Get("/approvals", h.handleListPending)
	r.Put("/approvals/{collection}/{id}", h.handleSetApproval)

	r.Post("/photos", h.handleUploadPhoto)

	r.Get("/dashboard/stats", h.handleDashboardStats)
	r.Get("/dashboard/activity", h.handleRecentActivity)
}

func (h *Handler) handleRegisterFarmer(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterFarmerRequest
	if !h.decode(w, r, &req) {
		return
	}
	farmer, err := h.records.RegisterFarmer(r.Context(), requestcontext.Principal(r.Context()), &req)
	if err != nil {
		h.fail(w, r, "register farmer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, farmer)
}

func (h *Handler) handleUpdateFarmer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var patch models.Patch
	if !h.decode(w, r, &patch) {
		return
	}
	farmer, err := h.records.UpdateFarmer(r.Context(), requestcontext.Principal(r.Context()), id, patch)
	if err != nil {
		h.fail(w, r, "update farmer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, farmer)
}

func (h *Handler) handleRecordInspection(w http.ResponseWriter, r *http.Request) {
	var req models.RecordInspectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	inspection, err := h.records.RecordInspection(r.Context(), requestcontext.Principal(r.Context()), &req)
	if err != nil {
		h.fail(w, r, "record inspection", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, inspection)
}

type inspectionResultRequest struct {
	IsPassed *bool   `json:"is_passed"`
	Remarks  *string `json:"remarks,omitempty"`
}

func (h *Handler) handleSetInspectionResult(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req inspectionResultRequest
	if !h.decode(w, r, &req) {
		return
	}
	inspection, err := h.records.SetInspectionResult(r.Context(), requestcontext.Principal(r.Context()), id, req.IsPassed, req.Remarks)
	if err != nil {
		h.fail(w, r, "set inspection result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, inspection)
}

func (h *Handler) handleLogOutreach(w http.ResponseWriter, r *http.Request) {
	var req models.LogOutreachRequest
	if !h.decode(w, r, &req) {
		return
	}
	visit, err := h.records.LogOutreachVisit(r.Context(), requestcontext.Principal(r.Context()), &req)
	if err != nil {
		h.fail(w, r, "log outreach visit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, visit)
}

type listQuery struct {
	From   *models.Date `schema:"from"`
	To     *models.Date `schema:"to"`
	Limit  int          `schema:"limit"`
	Offset int          `schema:"offset"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	c, ok := h.pathCollection(w, r)
	if !ok {
		return
	}
	var q listQuery
	if err := httputil.DecodeQuery(r, &q); err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.records.List(r.Context(), requestcontext.Principal(r.Context()), models.ListRequest{
		Collection: c,
		From:       q.From,
		To:         q.To,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		h.fail(w, r, "list records", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, ok := h.pathCollection(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	rec, err := h.records.Get(r.Context(), requestcontext.Principal(r.Context()), c, id)
	if err != nil {
		h.fail(w, r, "get record", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.pathCollection(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.records.Delete(r.Context(), requestcontext.Principal(r.Context()), c, id); err != nil {
		h.fail(w, r, "delete record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.records.ListPendingApprovals(r.Context(), requestcontext.Principal(r.Context()))
	if err != nil {
		h.fail(w, r, "list pending approvals", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"records": pending, "total": len(pending)})
}

type approvalRequest struct {
	Status models.ApprovalStatus `json:"status"`
}

func (h *Handler) handleSetApproval(w http.ResponseWriter, r *http.Request) {
	c, ok := h.pathCollection(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req approvalRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.records.SetApprovalStatus(r.Context(), requestcontext.Principal(r.Context()), c, id, req.Status)
	if err != nil {
		h.fail(w, r, "set approval status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, store.MaxPhotoBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	url, err := h.records.UploadPhoto(r.Context(), requestcontext.Principal(r.Context()), header.Filename, file)
	if err != nil {
		h.fail(w, r, "upload photo", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (h *Handler) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.records.DashboardStats(r.Context(), requestcontext.Principal(r.Context()))
	if err != nil {
		h.fail(w, r, "dashboard stats", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	feed, err := h.records.RecentActivity(r.Context(), requestcontext.Principal(r.Context()))
	if err != nil {
		h.fail(w, r, "recent activity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"activity": feed})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := domain.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) pathCollection(w http.ResponseWriter, r *http.Request) (models.Collection, bool) {
	c, err := models.ParseCollection(chi.URLParam(r, "collection"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return c, true
}

// fail logs server-side failures and renders err. Client errors are
// logged at warn.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "operation", op, "error", err.Error()}
	if status := dErrors.ToHTTPStatus(code); status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "record operation failed", attrs...)
	} else {
		h.logger.WarnContext(ctx, "record operation rejected", attrs...)
	}
	httputil.WriteError(w, err)
}
