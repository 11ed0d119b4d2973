package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) CreateJob(ctx context.Context, job *domain.ExtractionJob) error {
	docsJSON, err := json.Marshal(job.DocumentIDs)
	if err != nil {
		return fmt.Errorf("marshal document ids: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO extraction_jobs (id, namespace, document_ids, status, error_message, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, job.ID, job.Namespace, docsJSON, string(job.Status), job.Error, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create extraction job: %w", err)
	}
	return nil
}

// GetJob returns the job together with its stored results in catalog order.
func (r *JobRepository) GetJob(ctx context.Context, id string) (*domain.ExtractionJob, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, namespace, document_ids, status, error_message, created_at, updated_at
FROM extraction_jobs
WHERE id = $1
`, id)

	var job domain.ExtractionJob
	var docsRaw []byte
	var status string
	if err := row.Scan(&job.ID, &job.Namespace, &docsRaw, &status, &job.Error, &job.CreatedAt, &job.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "get extraction job", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan extraction job: %w", err)
	}
	if err := json.Unmarshal(docsRaw, &job.DocumentIDs); err != nil {
		return nil, fmt.Errorf("unmarshal document ids: %w", err)
	}
	job.Status = domain.JobStatus(status)

	results, err := r.listResults(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Results = results
	return &job, nil
}

func (r *JobRepository) listResults(ctx context.Context, jobID string) ([]domain.IndicatorResult, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT indicator_key, indicator_name, value, unit, page, confidence, source_section, notes, status, attempts
FROM indicator_results
WHERE job_id = $1
ORDER BY position ASC
`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list indicator results: %w", err)
	}
	defer rows.Close()

	out := make([]domain.IndicatorResult, 0)
	for rows.Next() {
		var res domain.IndicatorResult
		var value sql.NullFloat64
		var unit, page, section, notes sql.NullString
		var status string
		if err := rows.Scan(&res.Key, &res.IndicatorName, &value, &unit, &page, &res.Confidence, &section, &notes, &status, &res.Attempts); err != nil {
			return nil, fmt.Errorf("scan indicator result: %w", err)
		}
		if value.Valid {
			res.Value = &value.Float64
		}
		res.Unit = nullString(unit)
		if page.Valid {
			ref := domain.PageRef(page.String)
			res.Page = &ref
		}
		res.SourceSection = nullString(section)
		res.Notes = nullString(notes)
		res.Status = domain.IndicatorStatus(status)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indicator results: %w", err)
	}
	return out, nil
}

func (r *JobRepository) UpdateJobStatus(ctx context.Context, id string, status domain.JobStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE extraction_jobs
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update extraction job status: %w", err)
	}
	return requireAffected(res, domain.ErrJobNotFound, "update extraction job status", id)
}

// SaveResults replaces the stored results of a job in one transaction.
func (r *JobRepository) SaveResults(ctx context.Context, jobID string, results []domain.IndicatorResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM indicator_results WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("clear indicator results: %w", err)
	}
	for i, res := range results {
		var page any
		if res.Page != nil {
			page = string(*res.Page)
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO indicator_results (
	job_id, position, indicator_key, indicator_name, value, unit, page, confidence, source_section, notes, status, attempts
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`, jobID, i, res.Key, res.IndicatorName, res.Value, res.Unit, page, res.Confidence, res.SourceSection, res.Notes, string(res.Status), res.Attempts)
		if err != nil {
			return fmt.Errorf("insert indicator result %s: %w", res.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results tx: %w", err)
	}
	return nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
