package auth

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Error codes returned to clients, matching the keys the login and
// registration forms display.
const (
	CodeWrongUsername   = "wrongUsername"
	CodeWrongPassword   = "wrongPassword"
	CodeUsedUser        = "usedUser"
	CodeBlankSpace      = "blankSpace"
	CodeNoMatch         = "noMatch"
	CodePasswordTooLong = "passwordTooLong"
	CodeThrottled       = "throttled"
	CodeReservedUser    = "reservedUser"
)

// HomePath is where browsers land after login, logout and registration.
const HomePath = "/bookies"

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service  *Service
	gate     *Gate
	sessions *SessionManager
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, gate *Gate, sessions *SessionManager) *AuthController {
	return &AuthController{
		service:  service,
		gate:     gate,
		sessions: sessions,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout)
	router.POST("/users/new", ac.Register)
	router.GET("/me", RequireCapability(ac.gate, CapabilityLoggedIn), ac.Me)
	router.GET(NotAuthorizedPath, ac.NotAuthorized)
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	ctx := c.Request.Context()

	unlock := ac.sessions.Lock(ctx)
	defer unlock()

	state := CurrentSession(c)
	if err := ac.sessions.RefreshThrottle(ctx, state); err != nil {
		log.Printf("Auth gate: failed to refresh throttle state: %v", err)
	}

	identity, err := ac.gate.Login(ctx, state, username, password)
	if err != nil {
		var throttled *ThrottledError
		switch {
		case errors.As(err, &throttled):
			seconds := throttled.RetryAfterSeconds()
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       CodeThrottled,
				"message":     fmt.Sprintf("Too many attempts! Please wait %d seconds.", seconds),
				"retry_after": seconds,
			})
		case errors.Is(err, ErrUnknownUser):
			ac.saveFailure(c, state)
			c.JSON(http.StatusUnauthorized, gin.H{"error": CodeWrongUsername})
		case errors.Is(err, ErrWrongPassword):
			ac.saveFailure(c, state)
			c.JSON(http.StatusUnauthorized, gin.H{"error": CodeWrongPassword})
		default:
			log.Printf("Auth gate: login error for %q: %v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	if err := ac.sessions.StartAuthenticated(ctx, *state); err != nil {
		log.Printf("Auth gate: failed to start session for %q: %v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	respond(c, http.StatusOK, gin.H{
		"id":       identity.ID,
		"username": identity.Username,
		"role":     identity.Role,
	}, HomePath)
}

// saveFailure persists the failure count before the lock is released.
func (ac *AuthController) saveFailure(c *gin.Context, state *SessionState) {
	ctx := c.Request.Context()
	ac.sessions.SaveState(ctx, *state)
	if _, _, err := ac.sessions.Commit(ctx); err != nil {
		log.Printf("Auth gate: failed to persist throttle state: %v", err)
	}
}

// Logout clears the session and its throttle counters.
func (ac *AuthController) Logout(c *gin.Context) {
	ac.gate.Logout(CurrentSession(c))
	if err := ac.sessions.End(c.Request.Context()); err != nil {
		log.Printf("Auth gate: failed to destroy session: %v", err)
	}
	respond(c, http.StatusOK, gin.H{"status": "logged out"}, HomePath)
}

// Register creates a new account. It does not log the user in. The admin
// account can only be created from the command line.
func (ac *AuthController) Register(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	passwordConfirm := c.PostForm("password_confirm")

	if ac.service.Roles().IsReserved(username) {
		log.Printf("Auth gate: refused web registration of reserved account %q", username)
		c.JSON(http.StatusForbidden, gin.H{"error": CodeReservedUser})
		return
	}

	user, err := ac.service.Register(c.Request.Context(), username, password, passwordConfirm)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": CodeBlankSpace})
		case errors.Is(err, ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": CodeUsedUser})
		case errors.Is(err, ErrPasswordMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": CodeNoMatch})
		case errors.Is(err, ErrPasswordTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": CodePasswordTooLong})
		default:
			log.Printf("Auth gate: registration failed for %q: %v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	respond(c, http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
	}, HomePath)
}

// Me reports who the current session belongs to.
func (ac *AuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"id":       GetUserID(c),
		"username": GetUsername(c),
		"admin":    IsAdmin(c),
	})
}

// NotAuthorized is the landing page for failed capability checks.
func (ac *AuthController) NotAuthorized(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
}

// respond writes JSON for API clients and redirects browsers to next.
func respond(c *gin.Context, status int, body gin.H, next string) {
	if next != "" && !WantsJSON(c) {
		c.Redirect(http.StatusSeeOther, next)
		return
	}
	c.JSON(status, body)
}
