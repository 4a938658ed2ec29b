package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"agristack/internal/platform/logger"
	"agristack/pkg/domain"
	"agristack/pkg/requestcontext"
)

const (
	testLimit  = 3
	testWindow = time.Minute
)

type WindowsSuite struct {
	suite.Suite
	windows *Windows
	now     time.Time
}

func TestWindowsSuite(t *testing.T) {
	suite.Run(t, new(WindowsSuite))
}

func (s *WindowsSuite) SetupTest() {
	s.now = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	s.windows = NewWindows()
	s.windows.now = func() time.Time { return s.now }
}

func (s *WindowsSuite) TestAllowUpToLimit() {
	for i := range testLimit {
		res := s.windows.Allow("k", testLimit, testWindow)
		s.True(res.Allowed)
		s.Equal(testLimit-i-1, res.Remaining)
	}
	res := s.windows.Allow("k", testLimit, testWindow)
	s.False(res.Allowed)
	s.Equal(0, res.Remaining)
	s.Equal(60, res.RetryAfter)
}

func (s *WindowsSuite) TestWindowSlides() {
	s.windows.Allow("k", testLimit, testWindow)
	s.now = s.now.Add(30 * time.Second)
	s.windows.Allow("k", testLimit, testWindow)
	s.windows.Allow("k", testLimit, testWindow)
	s.False(s.windows.Allow("k", testLimit, testWindow).Allowed)

	// The first hit leaves the window; one slot frees up.
	s.now = s.now.Add(31 * time.Second)
	s.Equal(2, s.windows.Count("k", testWindow))
	s.True(s.windows.Allow("k", testLimit, testWindow).Allowed)
	s.False(s.windows.Allow("k", testLimit, testWindow).Allowed)
}

func (s *WindowsSuite) TestKeysAreIndependent() {
	for range testLimit {
		s.windows.Allow("a", testLimit, testWindow)
	}
	s.False(s.windows.Allow("a", testLimit, testWindow).Allowed)
	s.True(s.windows.Allow("b", testLimit, testWindow).Allowed)
}

func TestPerOperator(t *testing.T) {
	m := New(NewWindows(), logger.Discard())
	h := m.PerOperator("exports", 2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	op := domain.Principal{OperatorID: domain.OperatorID(uuid.New()), Role: domain.RoleViewer}
	other := domain.Principal{OperatorID: domain.OperatorID(uuid.New()), Role: domain.RoleViewer}
	call := func(p domain.Principal) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/exports/farmers", nil)
		ctx := requestcontext.WithClientIP(req.Context(), "10.0.0.1")
		req = req.WithContext(requestcontext.WithPrincipal(ctx, p))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	require.Equal(t, http.StatusOK, call(op).Code)
	rr := call(op)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	rr = call(op)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "rate_limit_exceeded")

	// Same IP, different operator.
	assert.Equal(t, http.StatusOK, call(other).Code)
}

func TestDisabledPassesThrough(t *testing.T) {
	m := New(NewWindows(), logger.Discard(), WithDisabled(true))
	h := m.PerOperator("exports", 1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for range 3 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	}
}
