package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"hiremate-backend/internal/qualification"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const applicationColumns = `id, job_id, candidate_id, cover_letter, status, qualification_score, interview_score, final_score,
       decision, breakdown, resume, created_at, updated_at`

// Create inserts the application and its first log entry in one transaction.
// The (candidate_id, job_id) unique constraint turns a concurrent duplicate
// into a no-op insert, reported as ErrDuplicate.
func (r *PGRepo) Create(ctx context.Context, app Application, entry LogEntry) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	breakdown, err := marshalJSONB(app.Breakdown)
	if err != nil {
		return err
	}
	parsed, err := marshalJSONB(app.Resume)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO applications (
	id, job_id, candidate_id, cover_letter, status, qualification_score, interview_score, final_score,
	decision, breakdown, resume, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
ON CONFLICT (candidate_id, job_id) DO NOTHING`
	res, err := tx.ExecContext(ctx, query,
		app.ID,
		app.JobID,
		app.CandidateID,
		nullableString(app.CoverLetter),
		string(app.Status),
		app.QualificationScore,
		app.InterviewScore,
		app.FinalScore,
		nullableString(app.Decision),
		breakdown,
		parsed,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicate
	}
	if err := insertLog(ctx, tx, app.ID, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 LIMIT 1`
	app, err := scanApplication(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, err
	}
	return app, nil
}

// Mutate locks the row, applies fn and writes the row and log entry together.
func (r *PGRepo) Mutate(ctx context.Context, id string, fn MutateFunc) (Application, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Application{}, err
	}
	defer tx.Rollback()

	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 FOR UPDATE`
	app, err := scanApplication(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, err
	}

	entry, err := fn(&app)
	if err != nil {
		return Application{}, err
	}

	breakdown, err := marshalJSONB(app.Breakdown)
	if err != nil {
		return Application{}, err
	}
	const update = `
UPDATE applications
SET status = $1,
    qualification_score = $2,
    interview_score = $3,
    final_score = $4,
    decision = $5,
    breakdown = $6,
    updated_at = now()
WHERE id = $7
RETURNING updated_at`
	if err := tx.QueryRowContext(ctx, update,
		string(app.Status),
		app.QualificationScore,
		app.InterviewScore,
		app.FinalScore,
		nullableString(app.Decision),
		breakdown,
		id,
	).Scan(&app.UpdatedAt); err != nil {
		return Application{}, err
	}
	if entry != nil {
		if err := insertLog(ctx, tx, id, *entry); err != nil {
			return Application{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Application{}, err
	}
	return app, nil
}

func (r *PGRepo) ListByJob(ctx context.Context, jobID string, statuses []Status) ([]Application, error) {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}
	query := `
SELECT ` + applicationColumns + `
FROM applications
WHERE job_id = $1 AND ($2 = '' OR status = ANY(string_to_array($2, ',')))
ORDER BY created_at, id`
	return r.list(ctx, query, jobID, strings.Join(names, ","))
}

func (r *PGRepo) ListByCandidate(ctx context.Context, candidateID string) ([]Application, error) {
	query := `
SELECT ` + applicationColumns + `
FROM applications
WHERE candidate_id = $1
ORDER BY created_at, id`
	return r.list(ctx, query, candidateID)
}

func (r *PGRepo) Logs(ctx context.Context, applicationID string) ([]LogEntry, error) {
	const query = `
SELECT id, application_id, screening_type, from_status, to_status, score, decision, reason, actor, created_at
FROM qualification_logs
WHERE application_id = $1
ORDER BY created_at, seq`
	rows, err := r.DB.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LogEntry{}
	for rows.Next() {
		var e LogEntry
		var screening, from, to string
		var score sql.NullFloat64
		var decision, reason sql.NullString
		if err := rows.Scan(&e.ID, &e.ApplicationID, &screening, &from, &to, &score, &decision, &reason, &e.Actor, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ScreeningType = ScreeningType(screening)
		e.FromStatus = Status(from)
		e.ToStatus = Status(to)
		if score.Valid {
			e.Score = floatPtr(score.Float64)
		}
		e.Decision = decision.String
		e.Reason = reason.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		if _, err := r.GetByID(ctx, applicationID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PGRepo) list(ctx context.Context, query string, args ...any) ([]Application, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func insertLog(ctx context.Context, tx *sql.Tx, appID string, e LogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	const query = `
INSERT INTO qualification_logs (id, application_id, screening_type, from_status, to_status, score, decision, reason, actor, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`
	_, err := tx.ExecContext(ctx, query,
		e.ID,
		appID,
		string(e.ScreeningType),
		string(e.FromStatus),
		string(e.ToStatus),
		e.Score,
		nullableString(e.Decision),
		nullableString(e.Reason),
		e.Actor,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (Application, error) {
	var app Application
	var status string
	var coverLetter sql.NullString
	var qualificationScore sql.NullFloat64
	var interviewScore sql.NullFloat64
	var finalScore sql.NullFloat64
	var decision sql.NullString
	var breakdown []byte
	var parsed []byte
	if err := row.Scan(
		&app.ID,
		&app.JobID,
		&app.CandidateID,
		&coverLetter,
		&status,
		&qualificationScore,
		&interviewScore,
		&finalScore,
		&decision,
		&breakdown,
		&parsed,
		&app.CreatedAt,
		&app.UpdatedAt,
	); err != nil {
		return Application{}, err
	}
	app.Status = Status(status)
	app.CoverLetter = coverLetter.String
	app.Decision = decision.String
	if qualificationScore.Valid {
		app.QualificationScore = floatPtr(qualificationScore.Float64)
	}
	if interviewScore.Valid {
		app.InterviewScore = floatPtr(interviewScore.Float64)
	}
	if finalScore.Valid {
		app.FinalScore = floatPtr(finalScore.Float64)
	}
	if len(breakdown) > 0 && string(breakdown) != "null" {
		var b qualification.Breakdown
		if err := json.Unmarshal(breakdown, &b); err == nil {
			app.Breakdown = &b
		}
	}
	if len(parsed) > 0 {
		_ = json.Unmarshal(parsed, &app.Resume)
	}
	return app, nil
}

func marshalJSONB(value any) ([]byte, error) {
	if value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
