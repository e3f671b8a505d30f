// Package auth is the login gate for bookies.
//
// Service checks usernames and bcrypt digests against a UserStore and
// registers new accounts. Gate puts a per-session Throttle in front of
// Service: after AUTH_THROTTLE_THRESHOLD failed logins each further
// attempt must wait base*2^(attempts-threshold), capped at
// AUTH_THROTTLE_MAX_COOLDOWN. The counters live in SessionState together
// with the identity and role, and SessionManager persists that state in
// scs sessions stored in sqlite.
//
// Roles come from RolePolicy: the AUTH_ADMIN_USERNAME account is admin,
// everyone else is a plain user.
//
// # Usage
//
//	service := auth.NewService(users.NewRepository(db.DB), cfg.Auth)
//	gate := auth.NewGate(service, cfg.Auth)
//	router.Use(sessions.SessionLoadSave())
//	router.POST("/bookies/new", auth.RequireCapability(gate, auth.CapabilityAdminOnly), handler)
package auth
