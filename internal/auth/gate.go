package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mrlokans/bookies/internal/config"
)

var ErrUnauthorized = errors.New("not authorized")

// Authenticator is the credential check the gate puts the throttle in front of.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*Identity, error)
}

// Gate combines credential checks with per-session throttling and
// answers authorization questions.
type Gate struct {
	auth           Authenticator
	throttle       Throttle
	resetOnSuccess bool
	now            func() time.Time
}

// NewGate creates a gate using the throttle settings from cfg.
func NewGate(auth Authenticator, cfg config.Auth) *Gate {
	return &Gate{
		auth:           auth,
		throttle:       NewThrottle(cfg),
		resetOnSuccess: cfg.ResetAttemptsOnSuccess,
		now:            time.Now,
	}
}

// Throttle returns the throttle policy in use.
func (g *Gate) Throttle() Throttle {
	return g.throttle
}

// Login checks the throttle, authenticates, and updates state in place.
// On success the identity fields are replaced. On an authentication
// failure the attempt is recorded and the identity is left untouched.
func (g *Gate) Login(ctx context.Context, state *SessionState, username, password string) (*Identity, error) {
	now := g.now()
	if err := g.throttle.Check(state.Throttle, now); err != nil {
		return nil, err
	}

	identity, err := g.auth.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) || errors.Is(err, ErrWrongPassword) {
			g.throttle.RecordFailure(&state.Throttle, now)
			log.Printf("Auth gate: failed login for %q (attempt %d)", username, state.Throttle.Attempts)
		}
		return nil, err
	}

	state.UserID = identity.ID
	state.Username = identity.Username
	state.Role = identity.Role
	if g.resetOnSuccess {
		g.throttle.Reset(&state.Throttle)
	}
	return identity, nil
}

// Logout clears the session unconditionally.
func (g *Gate) Logout(state *SessionState) {
	state.Clear()
}

// Authorize returns ErrUnauthorized when state lacks capability.
func (g *Gate) Authorize(state *SessionState, capability Capability) error {
	if state == nil || !state.IsAuthorized(capability) {
		return ErrUnauthorized
	}
	return nil
}
