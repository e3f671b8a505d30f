package http

import (
	"github.com/mrlokans/bookies/internal/auth"
	"github.com/mrlokans/bookies/internal/database"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	// Catalogue operations; *catalogue.Manager implements all three.
	Catalogue  CatalogueStore
	Collection CollectionStore
	Cleaner    OrphanAuthorsCleaner

	// Health checks
	Database *database.Database
	Version  string

	// Authentication
	AuthService    *auth.Service
	Gate           *auth.Gate
	SessionManager *auth.SessionManager

	// CSRF protection is enabled when a secret is set
	CSRFSecret    []byte
	SecureCookies bool

	// Task queue (optional); author cleanup runs inline without it
	TaskQueue TaskQueue

	// DisableRequestLog turns off gin's access log
	DisableRequestLog bool
}
