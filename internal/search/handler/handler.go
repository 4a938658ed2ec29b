package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agristack/internal/search/models"
	"agristack/pkg/domain"
	"agristack/pkg/platform/httputil"
	"agristack/pkg/requestcontext"
)

// Searcher runs a global search for a principal.
type Searcher interface {
	Search(ctx context.Context, p domain.Principal, term string) ([]models.SearchResult, error)
}

type Handler struct {
	search Searcher
	logger *slog.Logger
}

func New(search Searcher, logger *slog.Logger) *Handler {
	return &Handler{search: search, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/search", h.handleSearch)
}

type searchQuery struct {
	Q string `schema:"q"`
}

type searchResponse struct {
	Query   string                `json:"query"`
	Results []models.SearchResult `json:"results"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var q searchQuery
	if err := httputil.DecodeQuery(r, &q); err != nil {
		httputil.WriteError(w, err)
		return
	}
	results, err := h.search.Search(ctx, requestcontext.Principal(ctx), q.Q)
	if err != nil {
		h.logger.WarnContext(ctx, "search rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, searchResponse{Query: q.Q, Results: results})
}
