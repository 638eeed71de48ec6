package interviews

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hiremate-backend/internal/applications"
	"hiremate-backend/internal/jobs"
	"hiremate-backend/internal/shared/auth"
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
	anyRole := middleware.RequireRole(auth.RoleJobSeeker, auth.RoleCompany, auth.RoleAutomation)
	staff := middleware.RequireRole(auth.RoleCompany, auth.RoleAutomation)

	rg.POST("/applications/:id/interview", staff, h.schedule)
	rg.GET("/applications/:id/interview", anyRole, h.getForApplication)
	rg.GET("/interviews/:id", anyRole, h.get)
	rg.POST("/interviews/:id/answers", middleware.RequireRole(auth.RoleJobSeeker), h.answer)
	rg.POST("/interviews/:id/complete", anyRole, h.complete)
	rg.POST("/interviews/:id/cancel", staff, h.cancel)
	// The access token is the credential for external interviewing systems.
	rg.POST("/interviews/token/:token/complete", h.completeExternal)
}

// authorize checks the caller may act on the application.
func (h *Handler) authorize(c *gin.Context, applicationID string) bool {
	c.Set(middleware.ApplicationIDKey, applicationID)
	app, err := h.Svc.Apps.Get(c.Request.Context(), applicationID)
	if err != nil {
		writeError(c, err)
		return false
	}
	c.Set(middleware.JobIDKey, app.JobID)
	ok, err := h.Svc.Apps.CanView(c.Request.Context(), app, middleware.UserIDFromContext(c), middleware.RoleFromContext(c))
	if err != nil {
		writeError(c, err)
		return false
	}
	if !ok {
		writeError(c, ErrForbidden)
		return false
	}
	return true
}

func (h *Handler) load(c *gin.Context) (Interview, bool) {
	id := c.Param("id")
	c.Set(middleware.InterviewIDKey, id)
	iv, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return Interview{}, false
	}
	if !h.authorize(c, iv.ApplicationID) {
		return Interview{}, false
	}
	return iv, true
}

// view hides the access token from candidates.
func view(c *gin.Context, iv Interview) Interview {
	if middleware.RoleFromContext(c) == auth.RoleJobSeeker {
		iv.AccessToken = ""
	}
	return iv
}

func (h *Handler) schedule(c *gin.Context) {
	appID := c.Param("id")
	if !h.authorize(c, appID) {
		return
	}
	iv, created, err := h.Svc.Schedule(c.Request.Context(), appID, middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.InterviewIDKey, iv.ID)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		c.Set(middleware.StatusTransitionKey, string(applications.StatusQualified)+"->"+string(applications.StatusInterviewScheduled))
	}
	respond.JSON(c, status, gin.H{"interview": iv, "alreadyScheduled": !created})
}

func (h *Handler) getForApplication(c *gin.Context) {
	appID := c.Param("id")
	if !h.authorize(c, appID) {
		return
	}
	iv, err := h.Svc.GetByApplication(c.Request.Context(), appID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.InterviewIDKey, iv.ID)
	respond.OK(c, view(c, iv))
}

func (h *Handler) get(c *gin.Context) {
	iv, ok := h.load(c)
	if !ok {
		return
	}
	respond.OK(c, view(c, iv))
}

type answerRequest struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

func (h *Handler) answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	iv, ok := h.load(c)
	if !ok {
		return
	}
	updated, q, err := h.Svc.SubmitAnswer(c.Request.Context(), AnswerInput{
		InterviewID: iv.ID,
		QuestionID:  strings.TrimSpace(req.QuestionID),
		Answer:      req.Answer,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	answered := len(updated.Answered())
	respond.OK(c, gin.H{
		"question":  q,
		"status":    updated.Status,
		"answered":  answered,
		"remaining": len(updated.Questions) - answered,
	})
}

func (h *Handler) complete(c *gin.Context) {
	iv, ok := h.load(c)
	if !ok {
		return
	}
	done, changed, err := h.Svc.Complete(c.Request.Context(), iv.ID, middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"interview": view(c, done), "alreadyCompleted": !changed})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancel(c *gin.Context) {
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
			return
		}
	}
	iv, ok := h.load(c)
	if !ok {
		return
	}
	cancelled, err := h.Svc.Cancel(c.Request.Context(), iv.ID, middleware.UserIDFromContext(c), strings.TrimSpace(req.Reason))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, cancelled)
}

type externalRequest struct {
	Score      *float64 `json:"score"`
	Transcript string   `json:"transcript"`
	Feedback   string   `json:"feedback"`
}

func (h *Handler) completeExternal(c *gin.Context) {
	var req externalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	if req.Score == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "score is required", nil)
		return
	}
	done, changed, err := h.Svc.CompleteExternal(c.Request.Context(), c.Param("token"), ExternalResult{
		Score:      *req.Score,
		Transcript: req.Transcript,
		Feedback:   req.Feedback,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.InterviewIDKey, done.ID)
	c.Set(middleware.ApplicationIDKey, done.ApplicationID)
	done.AccessToken = ""
	respond.OK(c, gin.H{"interview": done, "alreadyCompleted": !changed})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "interview not found", nil)
	case errors.Is(err, applications.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
	case errors.Is(err, jobs.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrQuestionMismatch):
		respond.Error(c, http.StatusBadRequest, "question_mismatch", "question does not belong to this interview", nil)
	case errors.Is(err, ErrAlreadyAnswered):
		respond.Error(c, http.StatusConflict, "already_answered", "question already answered", nil)
	case errors.Is(err, ErrNoAnswers):
		respond.Error(c, http.StatusConflict, "no_answers", "answer at least one question before completing", nil)
	case errors.Is(err, ErrInterviewClosed):
		respond.Error(c, http.StatusConflict, "interview_closed", "interview is no longer active", nil)
	case errors.Is(err, ErrNotEligible), errors.Is(err, applications.ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "not allowed for this interview", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "interview request failed", nil)
	}
}
