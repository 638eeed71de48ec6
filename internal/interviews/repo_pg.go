package interviews

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"hiremate-backend/internal/evaluation"
)

// PGRepo implements Repo using Postgres. One active interview per
// application is enforced by the interviews_active_application_idx partial
// unique index.
type PGRepo struct {
	DB *sql.DB
}

const (
	interviewColumns = `id, application_id, job_id, status, access_token, score, outcome, job_title, external_feedback,
       transcript, scheduled_at, started_at, completed_at, updated_at`
	questionColumns = `id, interview_id, position, prompt, answer, breakdown, score, source, answered_at`

	uniqueViolation = "23505"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *PGRepo) Create(ctx context.Context, iv Interview) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `
INSERT INTO interviews (
	id, application_id, job_id, status, access_token, score, outcome, job_title, external_feedback,
	transcript, scheduled_at, started_at, completed_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, NULL, NULL, $6, NULL, '', $7, NULL, NULL, now())`
	if _, err := tx.ExecContext(ctx, query,
		iv.ID,
		iv.ApplicationID,
		iv.JobID,
		string(iv.Status),
		iv.AccessToken,
		iv.JobTitle,
		iv.ScheduledAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errActiveExists
		}
		return err
	}

	const insertQuestion = `
INSERT INTO interview_questions (id, interview_id, position, prompt)
VALUES ($1, $2, $3, $4)`
	for _, q := range iv.Questions {
		if _, err := tx.ExecContext(ctx, insertQuestion, q.ID, iv.ID, q.Order, q.Prompt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Interview, error) {
	return r.load(ctx, r.DB, `SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id)
}

func (r *PGRepo) GetByToken(ctx context.Context, token string) (Interview, error) {
	if token == "" {
		return Interview{}, ErrNotFound
	}
	return r.load(ctx, r.DB, `SELECT `+interviewColumns+` FROM interviews WHERE access_token = $1`, token)
}

func (r *PGRepo) ActiveByApplication(ctx context.Context, applicationID string) (Interview, error) {
	query := `
SELECT ` + interviewColumns + `
FROM interviews
WHERE application_id = $1 AND status IN ('SCHEDULED', 'IN_PROGRESS')
LIMIT 1`
	return r.load(ctx, r.DB, query, applicationID)
}

func (r *PGRepo) LatestByApplication(ctx context.Context, applicationID string) (Interview, error) {
	query := `
SELECT ` + interviewColumns + `
FROM interviews
WHERE application_id = $1
ORDER BY scheduled_at DESC
LIMIT 1`
	return r.load(ctx, r.DB, query, applicationID)
}

// Mutate locks the interview row, applies fn and writes the interview and
// every question back in one transaction.
func (r *PGRepo) Mutate(ctx context.Context, id string, fn MutateFunc) (Interview, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Interview{}, err
	}
	defer tx.Rollback()

	iv, err := r.load(ctx, tx, `SELECT `+interviewColumns+` FROM interviews WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return Interview{}, err
	}
	if err := fn(&iv); err != nil {
		return Interview{}, err
	}

	const update = `
UPDATE interviews
SET status = $1,
    score = $2,
    outcome = $3,
    external_feedback = $4,
    transcript = $5,
    started_at = $6,
    completed_at = $7,
    updated_at = now()
WHERE id = $8
RETURNING updated_at`
	if err := tx.QueryRowContext(ctx, update,
		string(iv.Status),
		nullableInt(iv.Score),
		nullableString(string(iv.Outcome)),
		nullableString(iv.ExternalFeedback),
		iv.Transcript,
		iv.StartedAt,
		iv.CompletedAt,
		id,
	).Scan(&iv.UpdatedAt); err != nil {
		return Interview{}, err
	}

	const updateQuestion = `
UPDATE interview_questions
SET answer = $1, breakdown = $2, score = $3, source = $4, answered_at = $5
WHERE id = $6 AND interview_id = $7`
	for _, q := range iv.Questions {
		if !q.Answered() {
			continue
		}
		breakdown, err := json.Marshal(q.Breakdown)
		if err != nil {
			return Interview{}, err
		}
		if _, err := tx.ExecContext(ctx, updateQuestion,
			q.Answer,
			breakdown,
			nullableInt(q.Score),
			nullableString(string(q.Source)),
			q.AnsweredAt,
			q.ID,
			id,
		); err != nil {
			return Interview{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Interview{}, err
	}
	return iv, nil
}

func (r *PGRepo) load(ctx context.Context, q querier, query string, arg any) (Interview, error) {
	iv, err := scanInterview(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Interview{}, ErrNotFound
		}
		return Interview{}, err
	}
	rows, err := q.QueryContext(ctx, `SELECT `+questionColumns+` FROM interview_questions WHERE interview_id = $1 ORDER BY position`, iv.ID)
	if err != nil {
		return Interview{}, err
	}
	defer rows.Close()
	iv.Questions = []Question{}
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return Interview{}, err
		}
		iv.Questions = append(iv.Questions, question)
	}
	if err := rows.Err(); err != nil {
		return Interview{}, err
	}
	return iv, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(row rowScanner) (Interview, error) {
	var iv Interview
	var status string
	var score sql.NullInt64
	var outcome, feedback sql.NullString
	var startedAt, completedAt sql.NullTime
	if err := row.Scan(
		&iv.ID,
		&iv.ApplicationID,
		&iv.JobID,
		&status,
		&iv.AccessToken,
		&score,
		&outcome,
		&iv.JobTitle,
		&feedback,
		&iv.Transcript,
		&iv.ScheduledAt,
		&startedAt,
		&completedAt,
		&iv.UpdatedAt,
	); err != nil {
		return Interview{}, err
	}
	iv.Status = Status(status)
	if score.Valid {
		v := int(score.Int64)
		iv.Score = &v
	}
	iv.Outcome = evaluation.Outcome(outcome.String)
	iv.ExternalFeedback = feedback.String
	iv.StartedAt = timePtr(startedAt)
	iv.CompletedAt = timePtr(completedAt)
	return iv, nil
}

func scanQuestion(row rowScanner) (Question, error) {
	var q Question
	var answer, source sql.NullString
	var breakdown []byte
	var score sql.NullInt64
	var answeredAt sql.NullTime
	if err := row.Scan(&q.ID, &q.InterviewID, &q.Order, &q.Prompt, &answer, &breakdown, &score, &source, &answeredAt); err != nil {
		return Question{}, err
	}
	q.Answer = answer.String
	q.Source = evaluation.Source(source.String)
	if len(breakdown) > 0 && string(breakdown) != "null" {
		var b evaluation.Breakdown
		if err := json.Unmarshal(breakdown, &b); err == nil {
			q.Breakdown = &b
		}
	}
	if score.Valid {
		v := int(score.Int64)
		q.Score = &v
	}
	q.AnsweredAt = timePtr(answeredAt)
	return q, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
