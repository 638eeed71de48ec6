package interviews

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"hiremate-backend/internal/applications"
	"hiremate-backend/internal/decision"
	"hiremate-backend/internal/evaluation"
	"hiremate-backend/internal/jobs"
	"hiremate-backend/internal/notify"
	"hiremate-backend/internal/shared/metrics"
	"hiremate-backend/internal/shared/telemetry"
)

const maxAnswerLen = 10000

// Applications is the slice of the application service interviews drive.
type Applications interface {
	Get(ctx context.Context, id string) (applications.Application, error)
	Advance(ctx context.Context, id string, to applications.Status, t applications.Transition) (applications.Application, bool, error)
	Override(ctx context.Context, id string, to applications.Status, actor, reason string) (applications.Application, error)
	CanView(ctx context.Context, app applications.Application, userID, role string) (bool, error)
}

type JobSource interface {
	Get(ctx context.Context, jobID string) (jobs.Job, error)
}

type Service struct {
	Repo          Repo
	Apps          Applications
	Jobs          JobSource
	Questions     evaluation.QuestionGenerator
	Scorer        evaluation.Scorer
	Engine        decision.Engine
	QuestionCount int
	Now           func() time.Time

	locks keyedMutex
}

// Schedule creates the application's interview and moves the application to
// AI_INTERVIEW_SCHEDULED. When an interview is already scheduled or in
// progress it is returned with created=false and nothing else happens.
func (s *Service) Schedule(ctx context.Context, applicationID, actor string) (Interview, bool, error) {
	unlock := s.locks.Lock(applicationID)
	defer unlock()

	app, err := s.Apps.Get(ctx, applicationID)
	if err != nil {
		return Interview{}, false, err
	}
	existing, err := s.Repo.ActiveByApplication(ctx, applicationID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Interview{}, false, err
	}
	if app.Status != applications.StatusQualified {
		return Interview{}, false, fmt.Errorf("%w: status is %s", ErrNotEligible, app.Status)
	}

	job, err := s.Jobs.Get(ctx, app.JobID)
	if err != nil {
		return Interview{}, false, err
	}
	prompts := s.Questions.Generate(ctx, job.InterviewContext(), s.QuestionCount)

	iv := Interview{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		JobID:         job.ID,
		Status:        StatusScheduled,
		AccessToken:   newAccessToken(),
		JobTitle:      job.Title,
		ScheduledAt:   s.now(),
	}
	for i, p := range prompts {
		iv.Questions = append(iv.Questions, Question{
			ID:          uuid.NewString(),
			InterviewID: iv.ID,
			Order:       i + 1,
			Prompt:      p,
		})
	}
	if err := s.Repo.Create(ctx, iv); err != nil {
		if errors.Is(err, errActiveExists) {
			existing, gerr := s.Repo.ActiveByApplication(ctx, applicationID)
			return existing, false, gerr
		}
		return Interview{}, false, err
	}

	_, _, err = s.Apps.Advance(ctx, app.ID, applications.StatusInterviewScheduled, applications.Transition{
		ScreeningType: applications.ScreeningScheduling,
		Kind:          notify.KindScheduled,
		Actor:         actor,
		Reason:        fmt.Sprintf("AI interview scheduled with %d questions", len(iv.Questions)),
		InterviewID:   iv.ID,
	})
	if err != nil {
		// The application moved under us; drop the interview so a later
		// schedule starts clean.
		if _, cerr := s.Repo.Mutate(context.WithoutCancel(ctx), iv.ID, func(v *Interview) error {
			v.Status = StatusCancelled
			return nil
		}); cerr != nil {
			telemetry.Error("interview.schedule.rollback_failed", map[string]any{
				"interview_id": iv.ID,
				"error":        cerr,
			})
		}
		return Interview{}, false, err
	}

	metrics.IncInterviewsScheduled()
	telemetry.Info("interview.scheduled", map[string]any{
		"application_id": app.ID,
		"interview_id":   iv.ID,
		"questions":      len(iv.Questions),
	})
	stored, err := s.Repo.GetByID(ctx, iv.ID)
	return stored, true, err
}

type AnswerInput struct {
	InterviewID string
	QuestionID  string
	Answer      string
}

// SubmitAnswer scores one answer and records it. The first answer moves the
// interview and its application to IN_PROGRESS.
func (s *Service) SubmitAnswer(ctx context.Context, in AnswerInput) (Interview, Question, error) {
	answer := strings.TrimSpace(in.Answer)
	if answer == "" {
		return Interview{}, Question{}, fmt.Errorf("%w: answer is required", ErrInvalidInput)
	}
	if len(answer) > maxAnswerLen {
		return Interview{}, Question{}, fmt.Errorf("%w: answer too long", ErrInvalidInput)
	}

	iv, err := s.Repo.GetByID(ctx, in.InterviewID)
	if err != nil {
		return Interview{}, Question{}, err
	}
	idx, err := checkAnswerable(iv, in.QuestionID)
	if err != nil {
		return Interview{}, Question{}, err
	}

	// Scoring can call out to a model, so it runs before the row is locked.
	breakdown, source := s.Scorer.ScoreAnswer(ctx, iv.Questions[idx].Prompt, answer, s.jobContext(ctx, iv))
	score := breakdown.Score()
	now := s.now()

	started := false
	updated, err := s.Repo.Mutate(ctx, iv.ID, func(v *Interview) error {
		i, err := checkAnswerable(*v, in.QuestionID)
		if err != nil {
			return err
		}
		q := &v.Questions[i]
		q.Answer = answer
		q.Breakdown = &breakdown
		q.Score = &score
		q.Source = source
		q.AnsweredAt = &now
		v.Transcript += fmt.Sprintf("Q%d: %s\nA: %s\n\n", q.Order, q.Prompt, answer)
		if v.Status == StatusScheduled {
			v.Status = StatusInProgress
			v.StartedAt = &now
			started = true
		}
		return nil
	})
	if err != nil {
		return Interview{}, Question{}, err
	}

	if started {
		_, _, err := s.Apps.Advance(ctx, updated.ApplicationID, applications.StatusInProgress, applications.Transition{
			ScreeningType: applications.ScreeningInterview,
			Kind:          notify.KindStarted,
			Actor:         applications.ActorSystem,
			Reason:        "candidate started the AI interview",
			InterviewID:   updated.ID,
		})
		if err != nil {
			telemetry.Warn("interview.start.transition_failed", map[string]any{
				"application_id": updated.ApplicationID,
				"interview_id":   updated.ID,
				"error":          err,
			})
		}
	}

	i, _ := updated.question(in.QuestionID)
	return updated, updated.Questions[i], nil
}

func checkAnswerable(iv Interview, questionID string) (int, error) {
	if !iv.Status.Active() {
		return -1, ErrInterviewClosed
	}
	i, ok := iv.question(questionID)
	if !ok {
		return -1, ErrQuestionMismatch
	}
	if iv.Questions[i].Answered() {
		return -1, ErrAlreadyAnswered
	}
	return i, nil
}

// Complete aggregates the answered questions and routes the application
// through the decision engine. Completing a completed interview returns it
// with changed=false.
func (s *Service) Complete(ctx context.Context, interviewID, actor string) (Interview, bool, error) {
	iv, err := s.Repo.GetByID(ctx, interviewID)
	if err != nil {
		return Interview{}, false, err
	}
	unlock := s.locks.Lock(iv.ApplicationID)
	defer unlock()

	iv, err = s.Repo.GetByID(ctx, interviewID)
	if err != nil {
		return Interview{}, false, err
	}
	switch iv.Status {
	case StatusCompleted:
		return iv, false, nil
	case StatusCancelled:
		return Interview{}, false, ErrInterviewClosed
	}
	answered := iv.Answered()
	if len(answered) == 0 {
		return Interview{}, false, ErrNoAnswers
	}
	out, err := s.finish(ctx, iv, evaluation.Aggregate(answered), actor, nil)
	if err != nil {
		return Interview{}, false, err
	}
	return out, true, nil
}

// ExternalResult is an interview result reported by a third-party
// interviewing system.
type ExternalResult struct {
	Score      float64
	Transcript string
	Feedback   string
}

// CompleteExternal completes the interview identified by its access token
// with a supplied score, clamped to 0..100 and rounded.
func (s *Service) CompleteExternal(ctx context.Context, token string, res ExternalResult) (Interview, bool, error) {
	if math.IsNaN(res.Score) || math.IsInf(res.Score, 0) {
		return Interview{}, false, fmt.Errorf("%w: score must be a number", ErrInvalidInput)
	}
	iv, err := s.Repo.GetByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return Interview{}, false, err
	}
	unlock := s.locks.Lock(iv.ApplicationID)
	defer unlock()

	iv, err = s.Repo.GetByID(ctx, iv.ID)
	if err != nil {
		return Interview{}, false, err
	}
	switch iv.Status {
	case StatusCompleted:
		return iv, false, nil
	case StatusCancelled:
		return Interview{}, false, ErrInterviewClosed
	}
	score := int(math.Round(math.Max(0, math.Min(100, res.Score))))
	out, err := s.finish(ctx, iv, score, applications.ActorSystem, &res)
	if err != nil {
		return Interview{}, false, err
	}
	return out, true, nil
}

func (s *Service) finish(ctx context.Context, iv Interview, score int, actor string, ext *ExternalResult) (Interview, error) {
	app, err := s.Apps.Get(ctx, iv.ApplicationID)
	if err != nil {
		return Interview{}, err
	}
	var cv float64
	if app.QualificationScore != nil {
		cv = *app.QualificationScore
	}
	interviewScore := float64(score)
	final := s.Engine.FinalScore(cv, interviewScore)
	next := applications.Status(s.Engine.NextStatus(final))
	outcome := evaluation.OutcomeFor(score)
	now := s.now()

	done, err := s.Repo.Mutate(ctx, iv.ID, func(v *Interview) error {
		if !v.Status.Active() {
			return ErrInterviewClosed
		}
		v.Status = StatusCompleted
		v.Score = &score
		v.Outcome = outcome
		v.CompletedAt = &now
		if ext != nil {
			if t := strings.TrimSpace(ext.Transcript); t != "" {
				v.Transcript += t + "\n"
			}
			v.ExternalFeedback = strings.TrimSpace(ext.Feedback)
		}
		return nil
	})
	if err != nil {
		return Interview{}, err
	}
	metrics.IncInterviewsCompleted()

	_, _, err = s.Apps.Advance(ctx, app.ID, next, applications.Transition{
		ScreeningType:  applications.ScreeningInterview,
		Kind:           notify.KindInterviewCompleted,
		Actor:          actor,
		Decision:       string(outcome),
		Reason:         fmt.Sprintf("AI interview score %d, final score %.2f", score, final),
		LogScore:       &final,
		InterviewScore: &interviewScore,
		FinalScore:     &final,
		InterviewID:    iv.ID,
	})
	if err != nil {
		// The interview result stands; the reconciler or a recruiter picks
		// the application up from its current status.
		telemetry.Warn("interview.complete.transition_failed", map[string]any{
			"application_id": app.ID,
			"interview_id":   iv.ID,
			"status":         string(app.Status),
			"error":          err,
		})
	}
	telemetry.Info("interview.completed", map[string]any{
		"application_id": app.ID,
		"interview_id":   iv.ID,
		"score":          score,
		"final_score":    final,
		"outcome":        string(outcome),
	})
	return done, nil
}

// Cancel closes an active interview and returns the application to
// QUALIFIED_FOR_INTERVIEW so it can be scheduled again.
func (s *Service) Cancel(ctx context.Context, interviewID, actor, reason string) (Interview, error) {
	iv, err := s.Repo.GetByID(ctx, interviewID)
	if err != nil {
		return Interview{}, err
	}
	unlock := s.locks.Lock(iv.ApplicationID)
	defer unlock()

	cancelled, err := s.Repo.Mutate(ctx, interviewID, func(v *Interview) error {
		if !v.Status.Active() {
			return ErrInterviewClosed
		}
		v.Status = StatusCancelled
		return nil
	})
	if err != nil {
		return Interview{}, err
	}
	if strings.TrimSpace(reason) == "" {
		reason = "AI interview cancelled"
	}
	if _, err := s.Apps.Override(ctx, iv.ApplicationID, applications.StatusQualified, actor, reason); err != nil {
		return Interview{}, err
	}
	return cancelled, nil
}

func (s *Service) Get(ctx context.Context, id string) (Interview, error) {
	if strings.TrimSpace(id) == "" {
		return Interview{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// GetByApplication returns the application's most recent interview.
func (s *Service) GetByApplication(ctx context.Context, applicationID string) (Interview, error) {
	return s.Repo.LatestByApplication(ctx, applicationID)
}

func (s *Service) jobContext(ctx context.Context, iv Interview) evaluation.JobContext {
	if s.Jobs != nil {
		if job, err := s.Jobs.Get(ctx, iv.JobID); err == nil {
			return job.InterviewContext()
		}
	}
	return evaluation.JobContext{Title: iv.JobTitle}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func newAccessToken() string {
	var b [24]byte
	if _, err := rand.Read(b[:]); err != nil {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return hex.EncodeToString(b[:])
}
