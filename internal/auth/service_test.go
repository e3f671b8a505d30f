package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookies/internal/entities"
)

func TestRolePolicy_RoleFor(t *testing.T) {
	policy := RolePolicy{AdminUsername: "ADMIN"}

	assert.Equal(t, entities.UserRoleAdmin, policy.RoleFor("ADMIN"))
	assert.Equal(t, entities.UserRoleUser, policy.RoleFor("admin"))
	assert.Equal(t, entities.UserRoleUser, policy.RoleFor("alice"))
	assert.Equal(t, entities.UserRoleUser, RolePolicy{}.RoleFor(""))
	assert.True(t, policy.IsReserved("ADMIN"))
	assert.False(t, RolePolicy{}.IsReserved(""))
}

func TestService_Register(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "pw1", "pw1")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "pw1", user.PasswordHash)

	tests := []struct {
		name     string
		username string
		password string
		confirm  string
		wantErr  error
	}{
		{"blank username", "  ", "pw", "pw", ErrInvalidInput},
		{"blank password", "bob", "", "", ErrInvalidInput},
		{"taken username", "alice", "pw", "pw", ErrUserExists},
		{"mismatched confirmation", "bob", "pw", "wp", ErrPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.password, tt.confirm)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw1", "pw1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "ADMIN", "root", "root")
	require.NoError(t, err)

	identity, err := svc.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, entities.UserRoleUser, identity.Role)

	identity, err = svc.Authenticate(ctx, "ADMIN", "root")
	require.NoError(t, err)
	assert.Equal(t, entities.UserRoleAdmin, identity.Role)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = svc.Authenticate(ctx, "mallory", "pw1")
	assert.ErrorIs(t, err, ErrUnknownUser)

	// Usernames are case-sensitive
	_, err = svc.Authenticate(ctx, "Alice", "pw1")
	assert.ErrorIs(t, err, ErrUnknownUser)
}
