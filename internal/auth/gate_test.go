package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookies/internal/entities"
)

type stubAuthenticator struct {
	identity *Identity
	err      error
	calls    int
}

func (s *stubAuthenticator) Authenticate(_ context.Context, _, _ string) (*Identity, error) {
	s.calls++
	return s.identity, s.err
}

func newTestGate(auth Authenticator, clock *fakeClock) *Gate {
	gate := NewGate(auth, testAuthConfig())
	gate.now = clock.Now
	return gate
}

func TestGate_LoginScenario(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	gate := newTestGate(svc, clock)

	_, err := svc.Register(ctx, "alice", "pw1", "pw1")
	require.NoError(t, err)

	var state SessionState
	for i := 0; i < 3; i++ {
		_, err := gate.Login(ctx, &state, "alice", "wrong")
		require.ErrorIs(t, err, ErrWrongPassword)
		clock.Advance(100 * time.Millisecond)
	}
	assert.Equal(t, 3, state.Throttle.Attempts)

	_, err = gate.Login(ctx, &state, "alice", "pw1")
	var throttled *ThrottledError
	require.True(t, errors.As(err, &throttled))
	assert.Equal(t, 2, throttled.RetryAfterSeconds())
	assert.False(t, state.LoggedIn())
	assert.Equal(t, 3, state.Throttle.Attempts, "blocked attempts are not counted")

	clock.Advance(2 * time.Second)
	identity, err := gate.Login(ctx, &state, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
	assert.True(t, state.LoggedIn())
	assert.Equal(t, entities.UserRoleUser, state.Role)
	assert.Zero(t, state.Throttle.Attempts)
}

func TestGate_LoginWithoutResetKeepsAttempts(t *testing.T) {
	stub := &stubAuthenticator{err: ErrUnknownUser}
	clock := &fakeClock{now: time.Now()}
	gate := newTestGate(stub, clock)
	gate.resetOnSuccess = false

	var state SessionState
	_, err := gate.Login(context.Background(), &state, "ghost", "x")
	require.ErrorIs(t, err, ErrUnknownUser)

	stub.err = nil
	stub.identity = &Identity{ID: 7, Username: "ghost", Role: entities.UserRoleUser}
	_, err = gate.Login(context.Background(), &state, "ghost", "x")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Throttle.Attempts)
}

func TestGate_StorageErrorIsNotCounted(t *testing.T) {
	stub := &stubAuthenticator{err: errors.New("disk on fire")}
	gate := newTestGate(stub, &fakeClock{now: time.Now()})

	var state SessionState
	_, err := gate.Login(context.Background(), &state, "alice", "pw")
	require.Error(t, err)
	assert.Zero(t, state.Throttle.Attempts)
}

func TestGate_ThrottleRunsBeforeAuthentication(t *testing.T) {
	stub := &stubAuthenticator{err: ErrWrongPassword}
	clock := &fakeClock{now: time.Now()}
	gate := newTestGate(stub, clock)

	state := SessionState{Throttle: ThrottleState{Attempts: 5, LastAttemptAt: clock.Now()}}
	_, err := gate.Login(context.Background(), &state, "alice", "pw")
	assert.ErrorIs(t, err, ErrThrottled)
	assert.Zero(t, stub.calls)
}

func TestGate_AdminLogin(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	gate := newTestGate(svc, &fakeClock{now: time.Now()})

	_, err := svc.Register(ctx, "ADMIN", "secret", "secret")
	require.NoError(t, err)

	var state SessionState
	identity, err := gate.Login(ctx, &state, "ADMIN", "secret")
	require.NoError(t, err)
	assert.Equal(t, entities.UserRoleAdmin, identity.Role)
	assert.NoError(t, gate.Authorize(&state, CapabilityAdminOnly))
}

func TestGate_Authorize(t *testing.T) {
	gate := NewGate(&stubAuthenticator{}, testAuthConfig())

	admin := &SessionState{UserID: 1, Username: "ADMIN", Role: entities.UserRoleAdmin}
	user := &SessionState{UserID: 2, Username: "alice", Role: entities.UserRoleUser}
	anonymous := &SessionState{}
	halfSet := &SessionState{UserID: 3}

	assert.NoError(t, gate.Authorize(admin, CapabilityAdminOnly))
	assert.NoError(t, gate.Authorize(admin, CapabilityLoggedIn))
	assert.ErrorIs(t, gate.Authorize(user, CapabilityAdminOnly), ErrUnauthorized)
	assert.NoError(t, gate.Authorize(user, CapabilityLoggedIn))
	assert.ErrorIs(t, gate.Authorize(anonymous, CapabilityLoggedIn), ErrUnauthorized)
	assert.ErrorIs(t, gate.Authorize(halfSet, CapabilityLoggedIn), ErrUnauthorized)
	assert.ErrorIs(t, gate.Authorize(nil, CapabilityLoggedIn), ErrUnauthorized)
	assert.ErrorIs(t, gate.Authorize(admin, Capability("superuser")), ErrUnauthorized)
}

func TestGate_Logout(t *testing.T) {
	gate := NewGate(&stubAuthenticator{}, testAuthConfig())
	state := &SessionState{
		UserID:   1,
		Username: "ADMIN",
		Role:     entities.UserRoleAdmin,
		Throttle: ThrottleState{Attempts: 4, LastAttemptAt: time.Now()},
	}

	gate.Logout(state)
	assert.Equal(t, SessionState{}, *state)
	assert.False(t, state.IsAuthorized(CapabilityAdminOnly))
}
