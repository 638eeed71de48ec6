package applications

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"hiremate-backend/internal/jobs"
	"hiremate-backend/internal/resume"
	"hiremate-backend/internal/shared/auth"
	"hiremate-backend/internal/shared/server/middleware"
	"hiremate-backend/internal/shared/server/respond"
	"hiremate-backend/internal/shared/util"
)

const maxResumeBytes = 5 << 20

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/applications", middleware.RequireRole(auth.RoleJobSeeker), h.submit)
	rg.GET("/applications/mine", middleware.RequireRole(auth.RoleJobSeeker), h.mine)
	rg.GET("/applications/:id", middleware.RequireRole(auth.RoleJobSeeker, auth.RoleCompany, auth.RoleAutomation), h.get)
	rg.GET("/applications/:id/logs", middleware.RequireRole(auth.RoleCompany, auth.RoleAutomation), h.logs)
	rg.PATCH("/applications/:id/status", middleware.RequireRole(auth.RoleCompany, auth.RoleAutomation), h.override)
	rg.POST("/applications/:id/promote", middleware.RequireRole(auth.RoleAutomation), h.promote)

	rg.GET("/jobs/:id/applications", middleware.RequireRole(auth.RoleCompany, auth.RoleAutomation), h.listForJob)
	rg.GET("/jobs/:id/top-candidates", middleware.RequireRole(auth.RoleCompany, auth.RoleAutomation), h.topCandidates)
	rg.GET("/jobs/:id/pipeline", middleware.RequireRole(auth.RoleCompany, auth.RoleAutomation), h.pipeline)
}

func (h *Handler) submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxResumeBytes+1<<20)

	jobID := strings.TrimSpace(c.PostForm("jobId"))
	if jobID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "jobId is required", nil)
		return
	}
	c.Set(middleware.JobIDKey, jobID)

	upload, err := readResume(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	app, err := h.Svc.Submit(c.Request.Context(), SubmitInput{
		CandidateID: middleware.UserIDFromContext(c),
		JobID:       jobID,
		CoverLetter: c.PostForm("coverLetter"),
		Resume:      upload,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.ApplicationIDKey, app.ID)
	c.Set(middleware.StatusTransitionKey, string(StatusNew)+"->"+string(app.Status))
	respond.JSON(c, http.StatusCreated, app)
}

// readResume takes the "resume" file part, or a "resumeText" field when no
// file was sent.
func readResume(c *gin.Context) (resume.Upload, error) {
	fh, err := c.FormFile("resume")
	if err != nil {
		text := strings.TrimSpace(c.PostForm("resumeText"))
		if text == "" {
			return resume.Upload{}, errors.New("resume file is required")
		}
		return resume.Upload{FileName: "resume.txt", MimeType: "text/plain", Data: []byte(text)}, nil
	}
	if fh.Size > maxResumeBytes {
		return resume.Upload{}, errors.New("resume exceeds 5MB")
	}
	f, err := fh.Open()
	if err != nil {
		return resume.Upload{}, fmt.Errorf("read resume: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxResumeBytes+1))
	if err != nil {
		return resume.Upload{}, fmt.Errorf("read resume: %w", err)
	}
	if len(data) > maxResumeBytes {
		return resume.Upload{}, errors.New("resume exceeds 5MB")
	}
	name, err := util.SanitizeFileName(fh.Filename)
	if err != nil {
		return resume.Upload{}, err
	}
	return resume.Upload{
		FileName: name,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

func (h *Handler) mine(c *gin.Context) {
	items, err := h.Svc.ListByCandidate(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

// load fetches the application and checks the caller may see it.
func (h *Handler) load(c *gin.Context) (Application, bool) {
	id := c.Param("id")
	c.Set(middleware.ApplicationIDKey, id)
	app, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return Application{}, false
	}
	c.Set(middleware.JobIDKey, app.JobID)
	ok, err := h.Svc.CanView(c.Request.Context(), app, middleware.UserIDFromContext(c), middleware.RoleFromContext(c))
	if err != nil {
		writeError(c, err)
		return Application{}, false
	}
	if !ok {
		writeError(c, ErrForbidden)
		return Application{}, false
	}
	return app, true
}

func (h *Handler) get(c *gin.Context) {
	app, ok := h.load(c)
	if !ok {
		return
	}
	respond.OK(c, app)
}

func (h *Handler) logs(c *gin.Context) {
	app, ok := h.load(c)
	if !ok {
		return
	}
	items, err := h.Svc.Logs(c.Request.Context(), app.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

type overrideRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *Handler) override(c *gin.Context) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	to, err := ParseStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	current, ok := h.load(c)
	if !ok {
		return
	}
	app, err := h.Svc.Override(c.Request.Context(), current.ID, to, middleware.UserIDFromContext(c), strings.TrimSpace(req.Reason))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, string(current.Status)+"->"+string(app.Status))
	respond.OK(c, app)
}

type promoteRequest struct {
	FinalScore *float64 `json:"finalScore"`
	Note       string   `json:"note"`
}

func (h *Handler) promote(c *gin.Context) {
	var req promoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	if req.FinalScore == nil || *req.FinalScore < 0 || *req.FinalScore > 100 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "finalScore must be between 0 and 100", nil)
		return
	}
	id := c.Param("id")
	c.Set(middleware.ApplicationIDKey, id)
	app, changed, err := h.Svc.Promote(c.Request.Context(), id, *req.FinalScore, strings.TrimSpace(req.Note))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.JobIDKey, app.JobID)
	if changed {
		c.Set(middleware.StatusTransitionKey, "->"+string(app.Status))
	}
	respond.OK(c, gin.H{"application": app, "changed": changed})
}

// jobAccess resolves the job id and checks the caller manages it.
func (h *Handler) jobAccess(c *gin.Context) (string, bool) {
	jobID := c.Param("id")
	c.Set(middleware.JobIDKey, jobID)
	ok, err := h.Svc.CanManageJob(c.Request.Context(), jobID, middleware.UserIDFromContext(c), middleware.RoleFromContext(c))
	if err != nil {
		writeError(c, err)
		return "", false
	}
	if !ok {
		writeError(c, ErrForbidden)
		return "", false
	}
	return jobID, true
}

func (h *Handler) listForJob(c *gin.Context) {
	jobID, ok := h.jobAccess(c)
	if !ok {
		return
	}
	var (
		items []Application
		err   error
	)
	active, _ := strconv.ParseBool(c.Query("active"))
	switch {
	case active:
		items, err = h.Svc.ListActive(c.Request.Context(), jobID)
	case c.Query("status") != "":
		var st Status
		st, err = ParseStatus(c.Query("status"))
		if err == nil {
			items, err = h.Svc.ListByJob(c.Request.Context(), jobID, st)
		}
	default:
		items, err = h.Svc.ListByJob(c.Request.Context(), jobID)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) topCandidates(c *gin.Context) {
	jobID, ok := h.jobAccess(c)
	if !ok {
		return
	}
	items, err := h.Svc.TopCandidates(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items, "threshold": h.Svc.Engine.Threshold})
}

func (h *Handler) pipeline(c *gin.Context) {
	jobID, ok := h.jobAccess(c)
	if !ok {
		return
	}
	p, err := h.Svc.Pipeline(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, p)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
	case errors.Is(err, jobs.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrDuplicate):
		respond.Error(c, http.StatusConflict, "duplicate_application", "already applied to this job", nil)
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, resume.ErrExtraction):
		respond.Error(c, http.StatusUnprocessableEntity, "resume_unreadable", "could not read resume", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "not allowed for this application", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "application request failed", nil)
	}
}
