package jobs

import (
	"context"
	"database/sql"
	"errors"

	"hiremate-backend/internal/resume"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `id, company_id, title, description, category, location, min_years, education, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, job Job) error {
	const query = `
INSERT INTO jobs (` + jobColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.DB.ExecContext(ctx, query,
		job.ID,
		job.CompanyID,
		job.Title,
		job.Description,
		nullableString(job.Category),
		nullableString(job.Location),
		nullableInt(job.Requirements.MinYears),
		nullableEducation(job.Requirements.Education),
		job.CreatedAt,
		job.UpdatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 LIMIT 1`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	return job, nil
}

func (r *PGRepo) List(ctx context.Context, filter ListFilter) ([]Job, error) {
	filter = clampPage(filter)
	query := `
SELECT ` + jobColumns + `
FROM jobs
WHERE ($1 = '' OR company_id = $1)
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, filter.CompanyID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var job Job
	var category sql.NullString
	var location sql.NullString
	var minYears sql.NullInt64
	var education sql.NullString
	if err := row.Scan(
		&job.ID,
		&job.CompanyID,
		&job.Title,
		&job.Description,
		&category,
		&location,
		&minYears,
		&education,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return Job{}, err
	}
	job.Category = category.String
	job.Location = location.String
	if minYears.Valid {
		v := int(minYears.Int64)
		job.Requirements.MinYears = &v
	}
	if education.Valid {
		if lvl, err := resume.ParseEducationLevel(education.String); err == nil {
			job.Requirements.Education = lvl
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableEducation(level resume.EducationLevel) any {
	if !level.Valid() {
		return nil
	}
	return level.String()
}
