package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/bookies/internal/config"
	"github.com/mrlokans/bookies/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID        = "user_id"
	SessionKeyUsername      = "username"
	SessionKeyRole          = "role"
	SessionKeyAttempts      = "attempts"
	SessionKeyLastAttemptAt = "last_attempt_at"
)

const sessionLockStripes = 64

func init() {
	gob.Register(entities.UserRole(""))
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager and maps session data to SessionState.
type SessionManager struct {
	*scs.SessionManager

	locks [sessionLockStripes]sync.Mutex
}

// NewSessionManager creates a session manager backed by the sessions table in sqlDB.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)
	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	sm.Cookie.Name = "bookies_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// Lock serializes work on one session token. Tokens share stripes, so
// unrelated sessions may occasionally wait on each other.
func (sm *SessionManager) Lock(ctx context.Context) (unlock func()) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sm.Token(ctx)))
	mu := &sm.locks[h.Sum32()%sessionLockStripes]
	mu.Lock()
	return mu.Unlock
}

// LoadState reads the session into a SessionState.
func (sm *SessionManager) LoadState(ctx context.Context) SessionState {
	role, _ := sm.Get(ctx, SessionKeyRole).(entities.UserRole)
	return SessionState{
		UserID:   uint(sm.GetInt(ctx, SessionKeyUserID)),
		Username: sm.GetString(ctx, SessionKeyUsername),
		Role:     role,
		Throttle: ThrottleState{
			Attempts:      sm.GetInt(ctx, SessionKeyAttempts),
			LastAttemptAt: sm.GetTime(ctx, SessionKeyLastAttemptAt),
		},
	}
}

// SaveState writes state back. Zero-valued fields are removed so a cleared
// state leaves an empty session.
func (sm *SessionManager) SaveState(ctx context.Context, state SessionState) {
	sm.putOrRemove(ctx, SessionKeyUserID, int(state.UserID), state.UserID == 0)
	sm.putOrRemove(ctx, SessionKeyUsername, state.Username, state.Username == "")
	sm.putOrRemove(ctx, SessionKeyRole, state.Role, state.Role == "")
	sm.putOrRemove(ctx, SessionKeyAttempts, state.Throttle.Attempts, state.Throttle.Attempts == 0)
	sm.putOrRemove(ctx, SessionKeyLastAttemptAt, state.Throttle.LastAttemptAt, state.Throttle.LastAttemptAt.IsZero())
}

func (sm *SessionManager) putOrRemove(ctx context.Context, key string, val any, empty bool) {
	if empty {
		if sm.Exists(ctx, key) {
			sm.Remove(ctx, key)
		}
		return
	}
	sm.Put(ctx, key, val)
}

// StartAuthenticated renews the token to prevent fixation and stores state.
func (sm *SessionManager) StartAuthenticated(ctx context.Context, state SessionState) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.SaveState(ctx, state)
	return nil
}

// End destroys the session.
func (sm *SessionManager) End(ctx context.Context) error {
	return sm.Destroy(ctx)
}

// RefreshThrottle merges the throttle counters currently persisted for this
// session into state. Concurrent requests on one session each load their
// own snapshot; call this under Lock so the later one sees the earlier
// one's failures.
func (sm *SessionManager) RefreshThrottle(ctx context.Context, state *SessionState) error {
	token := sm.Token(ctx)
	if token == "" {
		return nil
	}
	b, found, err := sm.Store.Find(token)
	if err != nil || !found {
		return err
	}
	_, values, err := sm.Codec.Decode(b)
	if err != nil {
		return err
	}
	attempts, _ := values[SessionKeyAttempts].(int)
	if attempts > state.Throttle.Attempts {
		last, _ := values[SessionKeyLastAttemptAt].(time.Time)
		state.Throttle = ThrottleState{Attempts: attempts, LastAttemptAt: last}
	}
	return nil
}
