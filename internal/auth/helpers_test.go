package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/bookies/internal/config"
	"github.com/mrlokans/bookies/internal/database"
	"github.com/mrlokans/bookies/internal/database/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testAuthConfig() config.Auth {
	return config.Auth{
		SessionLifetime:        time.Hour,
		BcryptCost:             bcrypt.MinCost,
		SecureCookies:          false,
		AdminUsername:          "ADMIN",
		ThrottleThreshold:      3,
		ThrottleBaseCooldown:   2 * time.Second,
		ThrottleMaxCooldown:    500 * time.Second,
		ResetAttemptsOnSuccess: true,
	}
}

func setupDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "auth.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func setupService(t *testing.T) (*Service, *database.Database) {
	t.Helper()
	db := setupDatabase(t)
	return NewService(users.NewRepository(db.DB), testAuthConfig()), db
}

// fakeClock is a settable time source for the gate.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}
