package handler

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"agristack/internal/export/models"
	records "agristack/internal/records/models"
	"agristack/internal/report"
	"agristack/pkg/domain"
	dErrors "agristack/pkg/domain-errors"
	"agristack/pkg/platform/httputil"
	"agristack/pkg/requestcontext"
)

// Exporter renders a report for a principal.
type Exporter interface {
	Export(ctx context.Context, p domain.Principal, req models.Request) (*models.Artifact, error)
}

type Handler struct {
	exports Exporter
	logger  *slog.Logger
}

func New(exports Exporter, logger *slog.Logger) *Handler {
	return &Handler{exports: exports, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/exports/{type}", h.handleExport)
}

type exportQuery struct {
	Format string        `schema:"format"`
	From   *records.Date `schema:"from"`
	To     *records.Date `schema:"to"`
}

// handleExport streams the rendered file as an attachment. An empty range
// answers 204 with the notice in X-Error-Description.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var q exportQuery
	if err := httputil.DecodeQuery(r, &q); err != nil {
		httputil.WriteError(w, err)
		return
	}
	art, err := h.exports.Export(ctx, requestcontext.Principal(ctx), models.Request{
		Type:   report.Type(chi.URLParam(r, "type")),
		Format: report.Format(q.Format),
		From:   q.From,
		To:     q.To,
	})
	if err != nil {
		attrs := []any{"request_id", requestcontext.RequestID(ctx), "report_type", chi.URLParam(r, "type"), "error", err.Error()}
		switch {
		case dErrors.HasCode(err, dErrors.CodeNoData):
			h.logger.InfoContext(ctx, "export range is empty", attrs...)
		case dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError:
			h.logger.ErrorContext(ctx, "export failed", attrs...)
		default:
			h.logger.WarnContext(ctx, "export rejected", attrs...)
		}
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Body)))
	w.Header().Set("X-Record-Count", strconv.Itoa(art.Rows))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Body); err != nil {
		h.logger.WarnContext(ctx, "failed to write export body", "error", err)
	}
}
