package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "agristack/pkg/domain-errors"
	audit "agristack/pkg/platform/audit"
	"agristack/pkg/platform/httputil"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// auditHandler lets admins read the audit trail back.
type auditHandler struct {
	events audit.Lister
	logger *slog.Logger
}

func newAuditHandler(events audit.Lister, logger *slog.Logger) *auditHandler {
	return &auditHandler{events: events, logger: logger}
}

func (h *auditHandler) Register(r chi.Router) {
	r.Get("/audit/events", h.handleRecent)
}

type auditQuery struct {
	Limit int `schema:"limit"`
}

func (h *auditHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	var q auditQuery
	if err := httputil.DecodeQuery(r, &q); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if q.Limit <= 0 {
		q.Limit = defaultAuditLimit
	}
	q.Limit = min(q.Limit, maxAuditLimit)

	events, err := h.events.ListRecent(r.Context(), q.Limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list audit events", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit log unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
