package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hiremate-backend/internal/applications"
	"hiremate-backend/internal/interviews"
	"hiremate-backend/internal/jobs"
	"hiremate-backend/internal/shared/config"
	"hiremate-backend/internal/shared/metrics"
	"hiremate-backend/internal/shared/server/middleware"
	"hiremate-backend/internal/shared/server/respond"
	"hiremate-backend/internal/users"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterDeps struct {
	Config             config.Config
	UserHandler        *users.Handler
	JobHandler         *jobs.Handler
	ApplicationHandler *applications.Handler
	InterviewHandler   *interviews.Handler
	RateLimiter        *middleware.RateLimiter
	// Health is nil when running on in-memory repositories.
	Health HealthCheck
}

// rateLimitedRoutes maps "METHOD /full/path" to its rate limit group.
var rateLimitedRoutes = map[string]string{
	"POST /api/v1/applications":                     middleware.RateGroupSubmit,
	"POST /api/v1/interviews/:id/answers":           middleware.RateGroupAnswer,
	"POST /api/v1/interviews/token/:token/complete": middleware.RateGroupExternal,
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env, deps.Config.AutomationToken),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    middleware.DefaultRateLimitRules(),
			GroupFor: middleware.RouteGroups(rateLimitedRoutes),
			Limiter:  deps.RateLimiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.Health))
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.JobHandler != nil {
		deps.JobHandler.RegisterRoutes(api)
	}
	if deps.ApplicationHandler != nil {
		deps.ApplicationHandler.RegisterRoutes(api)
	}
	if deps.InterviewHandler != nil {
		deps.InterviewHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	return r
}

func healthHandler(check HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true, "storage": "memory"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := check(ctx); err != nil {
			respond.JSON(c, http.StatusServiceUnavailable, gin.H{"ok": false, "storage": "postgres", "error": err.Error()})
			return
		}
		respond.JSON(c, http.StatusOK, gin.H{"ok": true, "storage": "postgres"})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
