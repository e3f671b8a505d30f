package auth

import "github.com/mrlokans/bookies/internal/entities"

// Capability is a permission checked against a session.
type Capability string

const (
	CapabilityLoggedIn  Capability = "logged-in"
	CapabilityAdminOnly Capability = "admin-only"
)

// SessionState is everything the gate keeps about one client session.
// The web layer loads it from and saves it back to the session store.
type SessionState struct {
	UserID   uint
	Username string
	Role     entities.UserRole
	Throttle ThrottleState
}

// LoggedIn reports whether both an identity and a username are present.
func (s *SessionState) LoggedIn() bool {
	return s.UserID != 0 && s.Username != ""
}

// IsAuthorized answers a capability check. Unknown capabilities are denied.
func (s *SessionState) IsAuthorized(capability Capability) bool {
	switch capability {
	case CapabilityAdminOnly:
		return s.Role == entities.UserRoleAdmin
	case CapabilityLoggedIn:
		return s.LoggedIn()
	default:
		return false
	}
}

// Clear drops identity, role and throttle counters.
func (s *SessionState) Clear() {
	*s = SessionState{}
}
