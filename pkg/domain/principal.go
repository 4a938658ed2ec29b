package domain

import "strings"

// Role is the capability tier of an operator.
type Role string

const (
	RoleViewer    Role = "viewer"
	RoleInspector Role = "inspector"
	RoleAdmin     Role = "admin"
)

// ParseRole normalizes a role claim. Unknown roles degrade to viewer.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleInspector:
		return RoleInspector
	default:
		return RoleViewer
	}
}

// Principal is the authenticated caller. It is passed explicitly into
// search, export and record operations rather than read from ambient state.
type Principal struct {
	OperatorID OperatorID
	Name       string
	Role       Role
}

// Anonymous is the zero principal.
var Anonymous = Principal{}

func (p Principal) IsAuthenticated() bool { return !p.OperatorID.IsNil() }

func (p Principal) IsAdmin() bool { return p.IsAuthenticated() && p.Role == RoleAdmin }

// CanWrite reports whether the principal may create or change field records.
func (p Principal) CanWrite() bool {
	return p.IsAuthenticated() && (p.Role == RoleAdmin || p.Role == RoleInspector)
}

// CanRead covers search, listing and export.
func (p Principal) CanRead() bool { return p.IsAuthenticated() }
