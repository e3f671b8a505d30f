package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookies/internal/auth"
	"github.com/mrlokans/bookies/internal/catalogue"
	"github.com/mrlokans/bookies/internal/config"
	"github.com/mrlokans/bookies/internal/database"
	"github.com/mrlokans/bookies/internal/database/books"
	"github.com/mrlokans/bookies/internal/database/users"
	http_controllers "github.com/mrlokans/bookies/internal/http"
	"github.com/mrlokans/bookies/internal/scheduler"
	"github.com/mrlokans/bookies/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// SIGKILL cannot be caught, so only INT and TERM are handled
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// CSRFSecret derives the CSRF key from the configured session secret, or
// generates a throwaway one when none is set.
func CSRFSecret(cfg config.Auth) ([]byte, error) {
	if cfg.SessionSecret != "" {
		secret, err := hex.DecodeString(cfg.SessionSecret)
		if err != nil {
			// Not hex, use as raw bytes
			return []byte(cfg.SessionSecret), nil
		}
		return secret, nil
	}

	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("generate CSRF secret: %w", err)
	}
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(secret)
}

// OpenDatabase opens the catalogue database with the configured genres seeded.
func OpenDatabase(cfg *config.Config) (*database.Database, error) {
	db, err := database.NewDatabase(cfg.Database.Path, cfg.Catalogue.Genres)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	return db, nil
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Bookies v%s", version)

	db, err := OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	manager := catalogue.NewManager(books.NewRepository(db.DB))

	authService := auth.NewService(users.NewRepository(db.DB), cfg.Auth)
	gate := auth.NewGate(authService, cfg.Auth)

	sqlDB, err := db.SQLDB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	csrfSecret, err := CSRFSecret(cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to prepare CSRF secret: %v", err)
	}

	log.Printf("Auth gate: admin account is %q, throttling after %d failures",
		cfg.Auth.AdminUsername, gate.Throttle().Threshold)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var authorScheduler *scheduler.AuthorCleanupScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewCleanupOrphanAuthorsQueue(manager))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		authorScheduler = scheduler.NewAuthorCleanupScheduler(taskClient, cfg.AuthorCleanup)
		if err := authorScheduler.Start(taskCtx); err != nil {
			log.Fatalf("Failed to start author cleanup scheduler: %v", err)
		}
		if next := authorScheduler.NextRun(); next != nil {
			log.Printf("Author cleanup scheduler: next run at %s", next.Format(time.RFC3339))
		}
	} else if cfg.AuthorCleanup.Enabled {
		log.Printf("WARNING: author cleanup schedule ignored because the task queue is disabled")
	}

	routerCfg := http_controllers.RouterConfig{
		Catalogue:      manager,
		Collection:     manager,
		Cleaner:        manager,
		Database:       db,
		Version:        version,
		AuthService:    authService,
		Gate:           gate,
		SessionManager: sessionManager,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
	}
	// A nil *tasks.Client must not end up inside the interface
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if authorScheduler != nil {
			authorScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
