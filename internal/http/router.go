package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookies/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	if !cfg.DisableRequestLog {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
		router.GET("/csrf", auth.CSRFTokenHandler)
	}
	router.Use(cfg.SessionManager.SessionLoadSave())

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	auth.NewAuthController(cfg.AuthService, cfg.Gate, cfg.SessionManager).RegisterRoutes(router)

	loggedIn := auth.RequireCapability(cfg.Gate, auth.CapabilityLoggedIn)
	adminOnly := auth.RequireCapability(cfg.Gate, auth.CapabilityAdminOnly)

	books := NewBooksController(cfg.Catalogue)
	router.GET("/bookies", books.ListBooks)
	router.GET("/books/:id", books.GetBook)
	router.GET("/genres", books.ListGenres)
	router.POST("/bookies/new", adminOnly, books.CreateBook)
	router.POST("/books/:id/edit", adminOnly, books.UpdateBook)
	router.POST("/books/:id/delete", adminOnly, books.DeleteBook)

	collection := NewCollectionController(cfg.Collection)
	router.POST("/books/:id/add", loggedIn, collection.AddBook)
	router.DELETE("/books/:id/remove", loggedIn, collection.RemoveBook)
	router.POST("/books/:id/remove", loggedIn, collection.RemoveBook)
	router.GET("/myBooks", loggedIn, collection.MyBooks)

	maintenance := NewMaintenanceController(cfg.TaskQueue, cfg.Cleaner)
	admin := router.Group("/admin", adminOnly)
	admin.POST("/cleanup-authors", maintenance.CleanupAuthors)
	admin.GET("/tasks/:id", maintenance.TaskStatus)

	return router
}
