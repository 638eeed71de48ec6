package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(limiter *RateLimiter, rules map[string]RateLimitRule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(userIDKey, "seeker-1")
		c.Next()
	})
	r.Use(RateLimit(RateLimitConfig{
		GroupFor: RouteGroups(map[string]string{
			"POST /api/v1/applications":                     RateGroupSubmit,
			"POST /api/v1/interviews/:id/answers":           RateGroupAnswer,
			"POST /api/v1/interviews/token/:token/complete": RateGroupExternal,
		}),
		Limiter: limiter,
		Rules:   rules,
	}))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.POST("/api/v1/applications", ok)
	r.POST("/api/v1/interviews/:id/answers", ok)
	r.GET("/api/v1/jobs", ok)
	return r
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRateLimitAnswersHigherThanSubmit(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newLimitedRouter(NewRateLimiter(func() time.Time { return now }), map[string]RateLimitRule{
		RateGroupSubmit: {Rate: 1, Burst: 2},
		RateGroupAnswer: {Rate: 5, Burst: 10},
	})

	for i := 0; i < 5; i++ {
		if resp := serve(r, http.MethodPost, "/api/v1/interviews/iv-1/answers"); resp.Code != http.StatusOK {
			t.Fatalf("answer request %d expected 200, got %d", i+1, resp.Code)
		}
	}
	for i := 0; i < 2; i++ {
		if resp := serve(r, http.MethodPost, "/api/v1/applications"); resp.Code != http.StatusOK {
			t.Fatalf("submit request %d expected 200, got %d", i+1, resp.Code)
		}
	}
	if resp := serve(r, http.MethodPost, "/api/v1/applications"); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("submit request 3 expected 429, got %d", resp.Code)
	}
}

func TestRateLimitUngroupedRoutesUnlimited(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newLimitedRouter(NewRateLimiter(func() time.Time { return now }), map[string]RateLimitRule{
		RateGroupSubmit: {Rate: 1, Burst: 1},
	})
	for i := 0; i < 20; i++ {
		if resp := serve(r, http.MethodGet, "/api/v1/jobs"); resp.Code != http.StatusOK {
			t.Fatalf("jobs request %d expected 200, got %d", i+1, resp.Code)
		}
	}
}

func TestRateLimitRefillsOverTime(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newLimitedRouter(NewRateLimiter(func() time.Time { return now }), map[string]RateLimitRule{
		RateGroupSubmit: {Rate: 1, Burst: 1},
	})
	if resp := serve(r, http.MethodPost, "/api/v1/applications"); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp := serve(r, http.MethodPost, "/api/v1/applications"); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	now = now.Add(time.Second)
	if resp := serve(r, http.MethodPost, "/api/v1/applications"); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 after refill, got %d", resp.Code)
	}
}

func TestRateLimit429IncludesRetryAfter(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newLimitedRouter(NewRateLimiter(func() time.Time { return now }), map[string]RateLimitRule{
		RateGroupSubmit: {Rate: 1, Burst: 1},
	})

	serve(r, http.MethodPost, "/api/v1/applications")
	resp := serve(r, http.MethodPost, "/api/v1/applications")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Code != "rate_limited" {
		t.Fatalf("expected code=rate_limited, got %q", payload.Error.Code)
	}
	if _, ok := payload.Error.Details["retryAfterMs"]; !ok {
		t.Fatalf("expected retryAfterMs in details")
	}
}
