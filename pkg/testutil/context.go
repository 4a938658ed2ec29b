package testutil

import (
	"net/http"

	"github.com/google/uuid"

	"agristack/pkg/domain"
	"agristack/pkg/requestcontext"
)

// NewPrincipal builds a principal with a fresh operator id.
func NewPrincipal(name string, role domain.Role) domain.Principal {
	return domain.Principal{
		OperatorID: domain.OperatorID(uuid.New()),
		Name:       name,
		Role:       role,
	}
}

// Admin and Inspector are ready-made principals for handler tests.
var (
	Admin     = NewPrincipal("Test Admin", domain.RoleAdmin)
	Inspector = NewPrincipal("Test Inspector", domain.RoleInspector)
	Viewer    = NewPrincipal("Test Viewer", domain.RoleViewer)
)

// WithPrincipal attaches a principal to the request the way the auth
// middleware does for authenticated requests.
func WithPrincipal(req *http.Request, p domain.Principal) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), p))
}

// WithRequestID attaches a request id to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
