package applications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiremate-backend/internal/decision"
	"hiremate-backend/internal/jobs"
	"hiremate-backend/internal/notify"
	"hiremate-backend/internal/qualification"
	"hiremate-backend/internal/resume"
	"hiremate-backend/internal/shared/server/middleware"
)

type recorder struct {
	mu      sync.Mutex
	changes []notify.Change
}

func (r *recorder) Notify(_ context.Context, c notify.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Kind, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.Kind)
	}
	return out
}

type fixedExtractor struct {
	parsed resume.Parsed
	err    error
}

func (f fixedExtractor) Extract(context.Context, resume.Upload) (resume.Parsed, error) {
	return f.parsed, f.err
}

func intp(v int) *int { return &v }

var strongResume = resume.Parsed{
	Skills:          []string{"go", "postgresql", "docker", "kubernetes"},
	ExperienceYears: intp(6),
	Education:       resume.Master,
	Certifications:  []string{"AWS Certified Solutions Architect"},
}

type fixture struct {
	svc   *Service
	repo  *MemoryRepo
	jobs  *jobs.Service
	notes *recorder
	job   jobs.Job
}

func newFixture(t *testing.T, ext resume.Extractor) fixture {
	t.Helper()
	jobSvc := jobs.NewService(jobs.NewMemoryRepo())
	job, err := jobSvc.Create(context.Background(), "co-1", jobs.CreateInput{
		Title:       "Backend Engineer",
		Description: "Go, PostgreSQL, Docker and Kubernetes. 3+ years experience. Bachelor's degree.",
		Category:    "Engineering",
	})
	require.NoError(t, err)

	repo := NewMemoryRepo()
	notes := &recorder{}
	return fixture{
		svc: &Service{
			Repo:      repo,
			Jobs:      jobSvc,
			Extractor: ext,
			Engine:    decision.Default(),
			Notifier:  notes,
		},
		repo:  repo,
		jobs:  jobSvc,
		notes: notes,
		job:   job,
	}
}

func upload() resume.Upload {
	return resume.Upload{FileName: "cv.txt", MimeType: "text/plain", Data: []byte("cv")}
}

// seed stores an application directly in the given status.
func (f fixture) seed(t *testing.T, candidate string, status Status) Application {
	t.Helper()
	app := Application{ID: "app-" + candidate, JobID: f.job.ID, CandidateID: candidate, Status: status}
	require.NoError(t, f.repo.Create(context.Background(), app, LogEntry{
		ScreeningType: ScreeningCV, FromStatus: StatusNew, ToStatus: status, Actor: ActorSystem,
	}))
	return app
}

func TestSubmitScoresAndLogs(t *testing.T) {
	f := newFixture(t, fixedExtractor{parsed: strongResume})
	ctx := context.Background()

	app, err := f.svc.Submit(ctx, SubmitInput{CandidateID: "cand-1", JobID: f.job.ID, CoverLetter: " hi ", Resume: upload()})
	require.NoError(t, err)

	want := qualification.Score(f.job.ScoringInput(), strongResume)
	assert.Equal(t, Status(want.Status), app.Status)
	require.NotNil(t, app.QualificationScore)
	assert.Equal(t, want.Score, *app.QualificationScore)
	assert.Equal(t, "hi", app.CoverLetter)
	assert.NotEqual(t, StatusNew, app.Status)

	logs, err := f.svc.Logs(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, ScreeningCV, logs[0].ScreeningType)
	assert.Equal(t, StatusNew, logs[0].FromStatus)
	assert.Equal(t, app.Status, logs[0].ToStatus)

	assert.Equal(t, []notify.Kind{notify.KindSubmitted}, f.notes.kinds())
	assert.Equal(t, "Backend Engineer", f.notes.changes[0].JobTitle)
}

func TestSubmitErrors(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, fixedExtractor{parsed: strongResume})
	_, err := f.svc.Submit(ctx, SubmitInput{CandidateID: "cand-1", JobID: f.job.ID, Resume: upload()})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, SubmitInput{CandidateID: "cand-1", JobID: f.job.ID, Resume: upload()})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = f.svc.Submit(ctx, SubmitInput{CandidateID: "cand-2", JobID: "missing", Resume: upload()})
	assert.ErrorIs(t, err, jobs.ErrNotFound)

	_, err = f.svc.Submit(ctx, SubmitInput{CandidateID: "cand-2", JobID: f.job.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad := newFixture(t, fixedExtractor{err: errors.Join(resume.ErrExtraction, errors.New("corrupt pdf"))})
	_, err = bad.svc.Submit(ctx, SubmitInput{CandidateID: "cand-3", JobID: bad.job.ID, Resume: upload()})
	assert.ErrorIs(t, err, resume.ErrExtraction)
	assert.Empty(t, bad.notes.kinds())
}

func TestAdvanceFollowsTransitionTable(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	app := f.seed(t, "cand-1", StatusQualified)

	_, _, err := f.svc.Advance(ctx, app.ID, StatusReadyForHumanInterview, Transition{ScreeningType: ScreeningInterview})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, changed, err := f.svc.Advance(ctx, app.ID, StatusInterviewScheduled, Transition{
		ScreeningType: ScreeningScheduling,
		Kind:          notify.KindScheduled,
		InterviewID:   "iv-1",
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusInterviewScheduled, got.Status)

	got, changed, err = f.svc.Advance(ctx, app.ID, StatusInterviewScheduled, Transition{Kind: notify.KindScheduled})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, StatusInterviewScheduled, got.Status)

	require.Equal(t, []notify.Kind{notify.KindScheduled}, f.notes.kinds())
	assert.Equal(t, "iv-1", f.notes.changes[0].InterviewID)

	logs, err := f.svc.Logs(ctx, app.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestAdvanceRecordsScores(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	app := f.seed(t, "cand-1", StatusInProgress)

	interview, final := 82.0, 78.4
	got, _, err := f.svc.Advance(ctx, app.ID, StatusReadyForHumanInterview, Transition{
		ScreeningType:  ScreeningInterview,
		Kind:           notify.KindInterviewCompleted,
		LogScore:       &final,
		InterviewScore: &interview,
		FinalScore:     &final,
	})
	require.NoError(t, err)
	require.NotNil(t, got.FinalScore)
	assert.Equal(t, 78.4, *got.FinalScore)

	require.Len(t, f.notes.changes, 1)
	c := f.notes.changes[0]
	require.NotNil(t, c.InterviewScore)
	assert.Equal(t, 82, *c.InterviewScore)
	assert.Equal(t, string(StatusReadyForHumanInterview), c.To)
}

func TestOverride(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	app := f.seed(t, "cand-1", StatusRejected)

	_, err := f.svc.Override(ctx, app.ID, StatusNew, "co-1", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := f.svc.Override(ctx, app.ID, StatusReadyForHumanInterview, "co-1", "strong referral")
	require.NoError(t, err)
	assert.Equal(t, StatusReadyForHumanInterview, got.Status)

	_, err = f.svc.Override(ctx, app.ID, StatusReadyForHumanInterview, "co-1", "again")
	require.NoError(t, err)

	assert.Equal(t, []notify.Kind{notify.KindOverride}, f.notes.kinds())
	logs, err := f.svc.Logs(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, ScreeningManual, logs[2].ScreeningType)
	assert.Equal(t, "co-1", logs[2].Actor)

	ok, err := f.svc.CanManageJob(ctx, f.job.ID, "co-1", "company")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.svc.CanManageJob(ctx, f.job.ID, "co-2", "company")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPromoteIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	app := f.seed(t, "cand-1", StatusInterviewScheduled)

	got, changed, err := f.svc.Promote(ctx, app.ID, 72.5, "final score above threshold")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusReadyForHumanInterview, got.Status)
	require.NotNil(t, got.FinalScore)
	assert.Equal(t, 72.5, *got.FinalScore)

	_, changed, err = f.svc.Promote(ctx, app.ID, 90, "again")
	require.NoError(t, err)
	assert.False(t, changed)

	logs, err := f.svc.Logs(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, ScreeningAutomation, logs[1].ScreeningType)
	assert.Len(t, f.notes.kinds(), 1)
}

func TestPromoteConcurrentLogsOnce(t *testing.T) {
	f := newFixture(t, nil)
	app := f.seed(t, "cand-1", StatusInterviewScheduled)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, changed, err := f.svc.Promote(context.Background(), app.ID, 80, "final score above threshold")
			if err != nil || !changed {
				return
			}
			mu.Lock()
			changes++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, changes)
	logs, err := f.svc.Logs(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Len(t, f.notes.kinds(), 1)
}

func TestTopCandidatesAndPipeline(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	scores := map[string]float64{"a": 64.99, "b": 65, "c": 91.2, "d": 70}
	for cand, score := range scores {
		app := f.seed(t, cand, StatusInProgress)
		score := score
		_, err := f.repo.Mutate(ctx, app.ID, func(a *Application) (*LogEntry, error) {
			a.FinalScore = &score
			return nil, nil
		})
		require.NoError(t, err)
	}
	f.seed(t, "e", StatusRejected)

	top, err := f.svc.TopCandidates(ctx, f.job.ID)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "c", top[0].CandidateID)
	assert.Equal(t, "d", top[1].CandidateID)
	assert.Equal(t, "b", top[2].CandidateID)

	p, err := f.svc.Pipeline(ctx, f.job.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 4, p.Counts[StatusInProgress])
	assert.Equal(t, 1, p.Counts[StatusRejected])
	assert.Equal(t, 0, p.Counts[StatusQualified])

	active, err := f.svc.ListActive(ctx, f.job.ID)
	require.NoError(t, err)
	assert.Len(t, active, 4)
}

func newRouter(f fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth("test", "auto-token"))
	NewHandler(f.svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func multipartSubmit(t *testing.T, jobID, text string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("jobId", jobID))
	require.NoError(t, w.WriteField("coverLetter", "Keen to join"))
	part, err := w.CreateFormFile("resume", "cv.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte(text))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHandlerSubmitAndDuplicate(t *testing.T) {
	f := newFixture(t, fixedExtractor{parsed: strongResume})
	r := newRouter(f)

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		body, ctype := multipartSubmit(t, f.job.ID, "Go developer")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", body)
		req.Header.Set("Content-Type", ctype)
		req.Header.Set("X-User-Id", "cand-1")
		req.Header.Set("X-User-Role", "job_seeker")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		require.Equal(t, want, resp.Code, "attempt %d: %s", i, resp.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/mine", nil)
	req.Header.Set("X-User-Id", "cand-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	var out struct {
		Items []Application `json:"items"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Len(t, out.Items, 1)
}

func TestHandlerSubmitUnreadableResume(t *testing.T) {
	f := newFixture(t, fixedExtractor{err: resume.ErrExtraction})
	r := newRouter(f)

	body, ctype := multipartSubmit(t, f.job.ID, "%PDF-broken")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("X-User-Id", "cand-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestHandlerOverrideChecksOwnership(t *testing.T) {
	f := newFixture(t, nil)
	r := newRouter(f)
	app := f.seed(t, "cand-1", StatusPendingReview)

	patch := func(user, role, status string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/applications/"+app.ID+"/status",
			strings.NewReader(`{"status":"`+status+`","reason":"reviewed"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-Id", user)
		req.Header.Set("X-User-Role", role)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp
	}

	assert.Equal(t, http.StatusForbidden, patch("cand-1", "job_seeker", "QUALIFIED_FOR_INTERVIEW").Code)
	assert.Equal(t, http.StatusForbidden, patch("co-2", "company", "QUALIFIED_FOR_INTERVIEW").Code)
	assert.Equal(t, http.StatusBadRequest, patch("co-1", "company", "HIRED").Code)
	assert.Equal(t, http.StatusConflict, patch("co-1", "company", "NEW_APPLICATION").Code)

	resp := patch("co-1", "company", "QUALIFIED_FOR_INTERVIEW")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var got Application
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, StatusQualified, got.Status)
}

func TestHandlerPromoteRequiresAutomation(t *testing.T) {
	f := newFixture(t, nil)
	r := newRouter(f)
	app := f.seed(t, "cand-1", StatusInProgress)

	send := func(auth string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/promote",
			strings.NewReader(`{"finalScore":80,"note":"reconciled"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-Id", "co-1")
		req.Header.Set("X-User-Role", "company")
		if auth != "" {
			req.Header.Set("Authorization", "Bearer "+auth)
		}
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp.Code
	}

	assert.Equal(t, http.StatusForbidden, send(""))
	assert.Equal(t, http.StatusOK, send("auto-token"))
	assert.Equal(t, http.StatusOK, send("auto-token"))

	got, err := f.svc.Get(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReadyForHumanInterview, got.Status)
}

var appColumns = []string{
	"id", "job_id", "candidate_id", "cover_letter", "status", "qualification_score", "interview_score", "final_score",
	"decision", "breakdown", "resume", "created_at", "updated_at",
}

func TestPGRepoCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO applications").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := &PGRepo{DB: db}
	err = repo.Create(context.Background(), Application{ID: "app-1", JobID: "job-1", CandidateID: "cand-1", Status: StatusQualified}, LogEntry{})
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoMutateWritesLog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	later := now.Add(time.Second)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM applications WHERE id = \\$1 FOR UPDATE").
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows(appColumns).
			AddRow("app-1", "job-1", "cand-1", nil, "QUALIFIED_FOR_INTERVIEW", 71.5, nil, nil, "Auto-shortlisted (score 60%+)", []byte(`{"skills":30}`), []byte(`{"skills":["go"]}`), now, now))
	mock.ExpectQuery("UPDATE applications").
		WithArgs("AI_INTERVIEW_SCHEDULED", 71.5, nil, nil, "Auto-shortlisted (score 60%+)", sqlmock.AnyArg(), "app-1").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(later))
	mock.ExpectExec("INSERT INTO qualification_logs").
		WithArgs(sqlmock.AnyArg(), "app-1", "SCHEDULING", "QUALIFIED_FOR_INTERVIEW", "AI_INTERVIEW_SCHEDULED", nil, nil, nil, "system").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	got, err := repo.Mutate(context.Background(), "app-1", func(a *Application) (*LogEntry, error) {
		from := a.Status
		a.Status = StatusInterviewScheduled
		return &LogEntry{ScreeningType: ScreeningScheduling, FromStatus: from, ToStatus: a.Status, Actor: ActorSystem}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInterviewScheduled, got.Status)
	assert.Equal(t, later, got.UpdatedAt)
	require.NotNil(t, got.Breakdown)
	assert.Equal(t, 30.0, got.Breakdown.Skills)
	assert.Equal(t, []string{"go"}, got.Resume.Skills)
	require.NoError(t, mock.ExpectationsWereMet())
}
