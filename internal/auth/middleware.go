package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// NotAuthorizedPath is where browsers are sent when a capability check fails.
const NotAuthorizedPath = "/notAuthorized"

// RequireCapability aborts the request unless the session holds capability.
// JSON clients get 403; browsers are redirected to NotAuthorizedPath.
func RequireCapability(gate *Gate, capability Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := gate.Authorize(CurrentSession(c), capability); err != nil {
			if WantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "not authorized",
				})
				return
			}
			c.Redirect(http.StatusSeeOther, NotAuthorizedPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// WantsJSON reports whether the client asked for a JSON response.
func WantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// GetUserID returns the logged-in user's ID, or 0.
func GetUserID(c *gin.Context) uint {
	return CurrentSession(c).UserID
}

// GetUsername returns the logged-in user's username, or "".
func GetUsername(c *gin.Context) string {
	return CurrentSession(c).Username
}

// IsAdmin reports whether the current session has the admin role.
func IsAdmin(c *gin.Context) bool {
	return CurrentSession(c).IsAuthorized(CapabilityAdminOnly)
}
