package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hiremate-backend/internal/shared/server/middleware"
	"hiremate-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.PUT("/me", h.updateMe)
}

type updateMeRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.JSON(c, http.StatusOK, gin.H{
				"id":    userID,
				"email": middleware.UserEmailFromContext(c),
				"name":  middleware.UserNameFromContext(c),
				"role":  middleware.RoleFromContext(c),
			})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.OK(c, user)
}

func (h *Handler) updateMe(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" || userID == middleware.AutomationUserID {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	email := req.Email
	if email == "" {
		email = middleware.UserEmailFromContext(c)
	}
	name := req.Name
	if name == "" {
		name = middleware.UserNameFromContext(c)
	}
	user, err := h.Svc.Upsert(c.Request.Context(), User{
		ID:    userID,
		Email: email,
		Name:  name,
		Role:  middleware.RoleFromContext(c),
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save user", nil)
		return
	}
	respond.OK(c, user)
}
