package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"agristack/internal/export/service"
	"agristack/internal/export/service/mocks"
	records "agristack/internal/records/models"
	"agristack/internal/records/store"
	"agristack/pkg/platform/sentinel"
	"agristack/pkg/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func router(svc Exporter) chi.Router {
	r := chi.NewRouter()
	New(svc, discardLogger()).Register(r)
	return r
}

func newService(t *testing.T) *service.Service {
	t.Helper()
	s := store.NewInMemory()
	_, err := s.Insert(context.Background(), &records.Farmer{
		FullName:       `A "B" C`,
		RegistrationID: "FRM-123456",
		Mobile:         "9999999999",
		CreatedAt:      time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return service.New(s,
		service.WithLogger(discardLogger()),
		service.WithClock(func() time.Time { return time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC) }),
	)
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return testutil.DoRequest(r, testutil.WithPrincipal(req, testutil.Viewer))
}

func TestExportDownload(t *testing.T) {
	r := router(newService(t))

	rr := get(r, "/exports/farmers?format=csv&from=2026-03-01&to=2026-03-31")
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=farmers_export_2026-03-31.csv`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "1", rr.Header().Get("X-Record-Count"))

	rows, err := csv.NewReader(bytes.NewReader(rr.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `A "B" C`, rows[1][2])
}

func TestExportEmptyRange(t *testing.T) {
	r := router(newService(t))

	rr := get(r, "/exports/inspections?format=pdf&from=2026-03-01&to=2026-03-31")
	testutil.AssertStatus(t, rr, http.StatusNoContent)
	assert.Equal(t, "No data found for the selected range.", rr.Header().Get("X-Error-Description"))
	assert.Zero(t, rr.Body.Len())
}

func TestExportStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	querier := mocks.NewMockQuerier(ctrl)
	querier.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrUnavailable)
	r := router(service.New(querier, service.WithLogger(discardLogger())))

	rr := get(r, "/exports/farmers?format=csv")
	testutil.AssertStatusAndError(t, rr, http.StatusServiceUnavailable, "unavailable")
	testutil.AssertErrorDescription(t, rr, "Export failed. Please try again.")
}

func TestExportRejectsBadInput(t *testing.T) {
	r := router(newService(t))

	testutil.AssertStatus(t, get(r, "/exports/tractors"), http.StatusBadRequest)
	testutil.AssertStatus(t, get(r, "/exports/farmers?from=01-03-2026"), http.StatusBadRequest)
	testutil.AssertStatus(t, get(r, "/exports/farmers?from=2026-04-01&to=2026-03-01"), http.StatusBadRequest)
}
