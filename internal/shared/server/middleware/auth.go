package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hiremate-backend/internal/shared/auth"
	"hiremate-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userNameKey  = "userName"
	userRoleKey  = "userRole"

	// AutomationUserID is the actor recorded for requests made with the
	// automation token.
	AutomationUserID = "automation"
)

// Auth resolves the caller identity. A bearer equal to automationToken is the
// automation actor; any other bearer must be a valid JWT. In dev and test the
// X-User-Id and X-User-Role headers are accepted. Requests with no identity
// pass through anonymously; RequireRole gates protected routes.
func Auth(env, automationToken string) gin.HandlerFunc {
	devHeaders := env == "dev" || env == "test"
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			if automationToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(automationToken)) == 1 {
				c.Set(userIDKey, AutomationUserID)
				c.Set(userRoleKey, auth.RoleAutomation)
				c.Next()
				return
			}

			claims, err := auth.VerifyJWT(token)
			if err != nil || claims.Role == auth.RoleAutomation {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Set(userIDKey, claims.Sub)
			c.Set(userRoleKey, claims.Role)
			if claims.Email != "" {
				c.Set(userEmailKey, claims.Email)
			}
			if claims.Name != "" {
				c.Set(userNameKey, claims.Name)
			}
			c.Next()
			return
		}

		if devHeaders {
			if id := strings.TrimSpace(c.GetHeader("X-User-Id")); id != "" {
				role := strings.TrimSpace(c.GetHeader("X-User-Role"))
				if role == "" {
					role = auth.RoleJobSeeker
				}
				if !auth.ValidRole(role) || role == auth.RoleAutomation {
					respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid role header", nil)
					return
				}
				c.Set(userIDKey, id)
				c.Set(userRoleKey, role)
			}
		}
		c.Next()
	}
}

// RequireRole rejects anonymous callers with 401 and callers outside roles
// with 403.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if UserIDFromContext(c) == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
			return
		}
		if _, ok := allowed[RoleFromContext(c)]; !ok {
			respond.Error(c, http.StatusForbidden, "forbidden", "role not permitted", nil)
			return
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	return stringFromContext(c, userEmailKey)
}

// UserNameFromContext fetches the user name set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, userNameKey)
}

// RoleFromContext fetches the caller role set by the auth middleware.
func RoleFromContext(c *gin.Context) string {
	return stringFromContext(c, userRoleKey)
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
