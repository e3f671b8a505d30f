package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Catalogue
		Auth
		Tasks
		AuthorCleanup
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Catalogue struct {
		Genres []string
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// AdminUsername is the reserved account name that logs in with the admin role.
		AdminUsername string

		// Login throttling
		ThrottleThreshold      int           // Failed attempts allowed before cooldowns apply (default: 3)
		ThrottleBaseCooldown   time.Duration // Cooldown at the threshold, doubled per extra failure (default: 2s)
		ThrottleMaxCooldown    time.Duration // Cooldown ceiling (default: 500s)
		ResetAttemptsOnSuccess bool          // false keeps the legacy counter after a good login
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	AuthorCleanup struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
)

// splitList accepts both a real slice (defaults) and a comma-separated env value.
func splitList(v *viper.Viper, key string) []string {
	var raw []string
	switch val := v.Get(key).(type) {
	case string:
		raw = strings.Split(val, ",")
	default:
		raw = v.GetStringSlice(key)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("catalogue_genres", DefaultGenres)

	// Auth defaults
	v.SetDefault("auth_session_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h") // 24 hours
	v.SetDefault("auth_bcrypt_cost", 12)         // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)    // HTTPS-only cookies
	v.SetDefault("auth_admin_username", "ADMIN")
	v.SetDefault("auth_throttle_threshold", 3)
	v.SetDefault("auth_throttle_base_cooldown", "2s")
	v.SetDefault("auth_throttle_max_cooldown", "500s")
	v.SetDefault("auth_reset_attempts_on_success", true)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("author_cleanup_enabled", false)
	v.SetDefault("author_cleanup_schedule", "0 3 * * *")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Catalogue: Catalogue{
			Genres: splitList(v, "CATALOGUE_GENRES"),
		},
		Auth: Auth{
			SessionSecret:          v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:        v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:             v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:          v.GetBool("AUTH_SECURE_COOKIES"),
			AdminUsername:          v.GetString("AUTH_ADMIN_USERNAME"),
			ThrottleThreshold:      v.GetInt("AUTH_THROTTLE_THRESHOLD"),
			ThrottleBaseCooldown:   v.GetDuration("AUTH_THROTTLE_BASE_COOLDOWN"),
			ThrottleMaxCooldown:    v.GetDuration("AUTH_THROTTLE_MAX_COOLDOWN"),
			ResetAttemptsOnSuccess: v.GetBool("AUTH_RESET_ATTEMPTS_ON_SUCCESS"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		AuthorCleanup: AuthorCleanup{
			Enabled:  v.GetBool("AUTHOR_CLEANUP_ENABLED"),
			Schedule: v.GetString("AUTHOR_CLEANUP_SCHEDULE"),
		},
	}
}
