package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hiremate-backend/internal/shared/telemetry"
)

// Context keys handlers set so the request log can carry domain ids.
const (
	ApplicationIDKey    = "applicationId"
	InterviewIDKey      = "interviewId"
	JobIDKey            = "jobId"
	StatusTransitionKey = "statusTransition"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		telemetry.Info("request.complete", map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"route":             c.FullPath(),
			"status":            c.Writer.Status(),
			"status_transition": c.GetString(StatusTransitionKey),
			"duration_ms":       float64(latency.Microseconds()) / 1000.0,
			"user_id":           UserIDFromContext(c),
			"user_role":         RoleFromContext(c),
			"application_id":    c.GetString(ApplicationIDKey),
			"interview_id":      c.GetString(InterviewIDKey),
			"job_id":            c.GetString(JobIDKey),
			"client_ip":         c.ClientIP(),
		})
	}
}
