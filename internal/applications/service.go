package applications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"hiremate-backend/internal/decision"
	"hiremate-backend/internal/jobs"
	"hiremate-backend/internal/notify"
	"hiremate-backend/internal/qualification"
	"hiremate-backend/internal/resume"
	"hiremate-backend/internal/shared/auth"
	"hiremate-backend/internal/shared/metrics"
	"hiremate-backend/internal/shared/telemetry"
)

const (
	ActorSystem      = "system"
	maxCoverLetter   = 5000
	topCandidatesMax = 20
)

// errUnchanged aborts a mutation that would not change anything.
var errUnchanged = errors.New("unchanged")

// JobSource looks up job postings.
type JobSource interface {
	Get(ctx context.Context, jobID string) (jobs.Job, error)
}

// Notifier receives one call per status change.
type Notifier interface {
	Notify(ctx context.Context, c notify.Change)
}

type Service struct {
	Repo      Repo
	Jobs      JobSource
	Extractor resume.Extractor
	Engine    decision.Engine
	Notifier  Notifier
}

type SubmitInput struct {
	CandidateID string
	JobID       string
	CoverLetter string
	Resume      resume.Upload
}

// Submit extracts and scores a résumé, then stores the application already
// moved out of NEW_APPLICATION by the score band.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Application, error) {
	in.CandidateID = strings.TrimSpace(in.CandidateID)
	in.JobID = strings.TrimSpace(in.JobID)
	in.CoverLetter = strings.TrimSpace(in.CoverLetter)
	switch {
	case in.CandidateID == "":
		return Application{}, fmt.Errorf("%w: candidate id is required", ErrInvalidInput)
	case in.JobID == "":
		return Application{}, fmt.Errorf("%w: jobId is required", ErrInvalidInput)
	case len(in.Resume.Data) == 0:
		return Application{}, fmt.Errorf("%w: resume file is required", ErrInvalidInput)
	case len(in.CoverLetter) > maxCoverLetter:
		return Application{}, fmt.Errorf("%w: cover letter too long", ErrInvalidInput)
	}

	job, err := s.Jobs.Get(ctx, in.JobID)
	if err != nil {
		return Application{}, err
	}
	existing, err := s.Repo.ListByCandidate(ctx, in.CandidateID)
	if err != nil {
		return Application{}, err
	}
	for _, a := range existing {
		if a.JobID == in.JobID {
			return Application{}, ErrDuplicate
		}
	}

	parsed, err := s.Extractor.Extract(ctx, in.Resume)
	if err != nil {
		return Application{}, err
	}

	result := qualification.Score(job.ScoringInput(), parsed)
	status := Status(result.Status)
	if !CanTransition(StatusNew, status) {
		return Application{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, StatusNew, status)
	}

	score := result.Score
	breakdown := result.Breakdown
	app := Application{
		ID:                 uuid.NewString(),
		JobID:              job.ID,
		CandidateID:        in.CandidateID,
		CoverLetter:        in.CoverLetter,
		Status:             status,
		QualificationScore: &score,
		Decision:           result.Decision,
		Breakdown:          &breakdown,
		Resume:             parsed,
	}
	entry := LogEntry{
		ScreeningType: ScreeningCV,
		FromStatus:    StatusNew,
		ToStatus:      status,
		Score:         floatPtr(score),
		Decision:      result.Decision,
		Reason:        fmt.Sprintf("matched %d of %d job skills", matched(result), len(result.JobSkills)),
		Actor:         ActorSystem,
	}
	if err := s.Repo.Create(ctx, app, entry); err != nil {
		return Application{}, err
	}
	stored, err := s.Repo.GetByID(ctx, app.ID)
	if err != nil {
		return Application{}, err
	}

	metrics.IncApplicationsScored()
	metrics.IncStatusTransitions()
	telemetry.Info("application.scored", map[string]any{
		"application_id": app.ID,
		"job_id":         job.ID,
		"score":          score,
		"status":         string(status),
	})
	s.notify(ctx, notify.Change{
		Kind:          notify.KindSubmitted,
		ApplicationID: app.ID,
		JobID:         job.ID,
		JobTitle:      job.Title,
		CandidateID:   app.CandidateID,
		From:          string(StatusNew),
		To:            string(status),
		Score:         floatPtr(score),
		Actor:         ActorSystem,
	})
	return stored, nil
}

// Transition describes an automated status change.
type Transition struct {
	ScreeningType  ScreeningType
	Kind           notify.Kind
	Actor          string
	Reason         string
	Decision       string
	LogScore       *float64
	InterviewScore *float64
	FinalScore     *float64
	InterviewID    string
}

// Advance applies an automated transition. Moving to the current status is
// a no-op reported with changed=false; anything outside the transition table
// fails with ErrInvalidTransition.
func (s *Service) Advance(ctx context.Context, id string, to Status, t Transition) (Application, bool, error) {
	var from Status
	app, err := s.Repo.Mutate(ctx, id, func(a *Application) (*LogEntry, error) {
		from = a.Status
		if a.Status == to {
			return nil, errUnchanged
		}
		if !CanTransition(a.Status, to) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
		}
		a.Status = to
		if t.InterviewScore != nil {
			a.InterviewScore = t.InterviewScore
		}
		if t.FinalScore != nil {
			a.FinalScore = t.FinalScore
		}
		if t.Decision != "" {
			a.Decision = t.Decision
		}
		return &LogEntry{
			ScreeningType: t.ScreeningType,
			FromStatus:    from,
			ToStatus:      to,
			Score:         t.LogScore,
			Decision:      t.Decision,
			Reason:        t.Reason,
			Actor:         actorOr(t.Actor),
		}, nil
	})
	if errors.Is(err, errUnchanged) {
		current, gerr := s.Repo.GetByID(ctx, id)
		return current, false, gerr
	}
	if err != nil {
		return Application{}, false, err
	}
	s.afterTransition(ctx, app, from, t.Kind, t.Actor, t.Reason, t.InterviewID)
	return app, true, nil
}

// Override sets any status except NEW_APPLICATION. It is always logged; a
// notification goes out only when the status actually changed.
func (s *Service) Override(ctx context.Context, id string, to Status, actor, reason string) (Application, error) {
	return s.override(ctx, id, to, overrideOpts{
		screening: ScreeningManual,
		actor:     actor,
		reason:    reason,
	})
}

// Promote moves an application to READY_FOR_HUMAN_INTERVIEW on behalf of
// automation. Already-promoted applications are returned unchanged.
func (s *Service) Promote(ctx context.Context, id string, finalScore float64, note string) (Application, bool, error) {
	app, err := s.override(ctx, id, StatusReadyForHumanInterview, overrideOpts{
		screening:     ScreeningAutomation,
		actor:         auth.RoleAutomation,
		reason:        note,
		finalScore:    &finalScore,
		skipSameState: true,
	})
	if errors.Is(err, errUnchanged) {
		current, gerr := s.Repo.GetByID(ctx, id)
		return current, false, gerr
	}
	if err != nil {
		return Application{}, false, err
	}
	return app, true, nil
}

// overrideOpts.skipSameState turns a same-status override into errUnchanged
// instead of a logged no-op.
type overrideOpts struct {
	screening     ScreeningType
	actor         string
	reason        string
	finalScore    *float64
	skipSameState bool
}

func (s *Service) override(ctx context.Context, id string, to Status, o overrideOpts) (Application, error) {
	if !CanOverride(to) {
		return Application{}, fmt.Errorf("%w: cannot set %s manually", ErrInvalidTransition, to)
	}
	var from Status
	app, err := s.Repo.Mutate(ctx, id, func(a *Application) (*LogEntry, error) {
		from = a.Status
		if o.skipSameState && a.Status == to {
			return nil, errUnchanged
		}
		a.Status = to
		if o.finalScore != nil && a.FinalScore == nil {
			a.FinalScore = floatPtr(*o.finalScore)
		}
		return &LogEntry{
			ScreeningType: o.screening,
			FromStatus:    from,
			ToStatus:      to,
			Score:         o.finalScore,
			Reason:        o.reason,
			Actor:         actorOr(o.actor),
		}, nil
	})
	if err != nil {
		return Application{}, err
	}
	if from != to {
		s.afterTransition(ctx, app, from, notify.KindOverride, o.actor, o.reason, "")
	}
	return app, nil
}

func (s *Service) afterTransition(ctx context.Context, app Application, from Status, kind notify.Kind, actor, reason, interviewID string) {
	metrics.IncStatusTransitions()
	telemetry.Info("application.transition", map[string]any{
		"application_id": app.ID,
		"from":           string(from),
		"to":             string(app.Status),
		"actor":          actorOr(actor),
	})
	c := notify.Change{
		Kind:          kind,
		ApplicationID: app.ID,
		JobID:         app.JobID,
		CandidateID:   app.CandidateID,
		InterviewID:   interviewID,
		From:          string(from),
		To:            string(app.Status),
		Score:         app.FinalScore,
		Reason:        reason,
		Actor:         actorOr(actor),
		At:            app.UpdatedAt,
	}
	if app.InterviewScore != nil {
		v := int(*app.InterviewScore)
		c.InterviewScore = &v
	}
	if s.Jobs != nil {
		if job, err := s.Jobs.Get(ctx, app.JobID); err == nil {
			c.JobTitle = job.Title
		}
	}
	s.notify(ctx, c)
}

func (s *Service) notify(ctx context.Context, c notify.Change) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(ctx, c)
}

func (s *Service) Get(ctx context.Context, id string) (Application, error) {
	if strings.TrimSpace(id) == "" {
		return Application{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) ListByCandidate(ctx context.Context, candidateID string) ([]Application, error) {
	return s.Repo.ListByCandidate(ctx, candidateID)
}

func (s *Service) ListByJob(ctx context.Context, jobID string, statuses ...Status) ([]Application, error) {
	return s.Repo.ListByJob(ctx, jobID, statuses)
}

// ListActive returns applications the reconciler still has work for.
func (s *Service) ListActive(ctx context.Context, jobID string) ([]Application, error) {
	return s.Repo.ListByJob(ctx, jobID, ActiveStatuses)
}

// TopCandidates returns applications whose final score meets the threshold,
// best first, at most 20.
func (s *Service) TopCandidates(ctx context.Context, jobID string) ([]Application, error) {
	all, err := s.Repo.ListByJob(ctx, jobID, nil)
	if err != nil {
		return nil, err
	}
	out := []Application{}
	for _, a := range all {
		if a.FinalScore != nil && s.Engine.Promotable(*a.FinalScore) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].FinalScore > *out[j].FinalScore
	})
	if len(out) > topCandidatesMax {
		out = out[:topCandidatesMax]
	}
	return out, nil
}

func (s *Service) Pipeline(ctx context.Context, jobID string) (Pipeline, error) {
	all, err := s.Repo.ListByJob(ctx, jobID, nil)
	if err != nil {
		return Pipeline{}, err
	}
	p := Pipeline{JobID: jobID, Counts: make(map[Status]int, len(allStatuses))}
	for _, st := range allStatuses {
		p.Counts[st] = 0
	}
	for _, a := range all {
		p.Counts[a.Status]++
	}
	p.Total = len(all)
	return p, nil
}

func (s *Service) Logs(ctx context.Context, id string) ([]LogEntry, error) {
	return s.Repo.Logs(ctx, id)
}

// CanView reports whether a caller may read an application: its candidate,
// the company that owns the job, or automation.
func (s *Service) CanView(ctx context.Context, app Application, userID, role string) (bool, error) {
	switch role {
	case auth.RoleAutomation:
		return true, nil
	case auth.RoleJobSeeker:
		return app.CandidateID == userID, nil
	case auth.RoleCompany:
		return s.ownsJob(ctx, app.JobID, userID)
	}
	return false, nil
}

// CanManageJob reports whether a caller may act on a job's applications.
func (s *Service) CanManageJob(ctx context.Context, jobID, userID, role string) (bool, error) {
	switch role {
	case auth.RoleAutomation:
		return true, nil
	case auth.RoleCompany:
		return s.ownsJob(ctx, jobID, userID)
	}
	return false, nil
}

func (s *Service) ownsJob(ctx context.Context, jobID, companyID string) (bool, error) {
	job, err := s.Jobs.Get(ctx, jobID)
	if err != nil {
		return false, err
	}
	return job.CompanyID == companyID, nil
}

func matched(r qualification.Result) int {
	want := make(map[string]struct{}, len(r.JobSkills))
	for _, s := range r.JobSkills {
		want[s] = struct{}{}
	}
	n := 0
	for _, s := range r.CandidateSkills {
		if _, ok := want[s]; ok {
			n++
		}
	}
	return n
}

func actorOr(actor string) string {
	if strings.TrimSpace(actor) == "" {
		return ActorSystem
	}
	return actor
}
