package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"hiremate-backend/internal/shared/auth"
)

func newAuthRouter(env, token string, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(env, token))
	router.GET("/whoami", RequireRole(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": UserIDFromContext(c), "role": RoleFromContext(c)})
	})
	return router
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev", ""))
	router.OPTIONS("/api/v1/applications", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/applications", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthAutomationToken(t *testing.T) {
	router := newAuthRouter("production", "s3cret", auth.RoleAutomation)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token, got %d", resp.Code)
	}
}

func TestAuthJWTRoleGate(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := auth.SignJWT(auth.Claims{Sub: "seeker-1", Role: auth.RoleJobSeeker})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	router := newAuthRouter("production", "", auth.RoleCompany)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthDevHeadersOnlyOutsideProduction(t *testing.T) {
	dev := newAuthRouter("dev", "", auth.RoleCompany)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-Id", "co-1")
	req.Header.Set("X-User-Role", auth.RoleCompany)
	resp := httptest.NewRecorder()
	dev.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 in dev, got %d", resp.Code)
	}

	prod := newAuthRouter("production", "", auth.RoleCompany)
	resp = httptest.NewRecorder()
	prod.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 in production, got %d", resp.Code)
	}
}

func TestAuthDevHeadersCannotClaimAutomation(t *testing.T) {
	router := newAuthRouter("dev", "", auth.RoleAutomation)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-Id", "bot")
	req.Header.Set("X-User-Role", auth.RoleAutomation)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
