package runlog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"apsiteimport/internal/domain"
)

// Repository persists run history: one row per run plus one row per
// assignment outcome. It is an append-only audit record, not state the
// pipeline reads back.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a repository backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) RecordRun(ctx context.Context, record domain.RunRecord) error {
	if r.pool == nil {
		return fmt.Errorf("run log repository not initialized")
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO runs (id, site_id, site_name, file_name, status, issue_count, success_count, failed_count, total_count, artifact_path)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID,
		record.SiteID,
		record.SiteName,
		record.FileName,
		string(record.Status),
		record.IssueCount,
		record.Counts.Success,
		record.Counts.Failed,
		record.Counts.Total,
		record.ArtifactPath,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func (r *Repository) RecordOutcomes(ctx context.Context, runID uuid.UUID, outcomes []domain.AssignmentOutcome) error {
	if r.pool == nil {
		return fmt.Errorf("run log repository not initialized")
	}

	for _, outcome := range outcomes {
		_, err := r.pool.Exec(
			ctx,
			`INSERT INTO run_outcomes (run_id, row_number, serial, mac, status, error_message)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			runID,
			outcome.Row,
			outcome.Serial,
			outcome.MAC,
			string(outcome.Status),
			outcome.Error,
		)
		if err != nil {
			return fmt.Errorf("record outcome for row %d: %w", outcome.Row, err)
		}
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit, offset int) ([]domain.RunRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("run log repository not initialized")
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, site_id, site_name, file_name, status, issue_count, success_count, failed_count, total_count, artifact_path, created_at
		 FROM runs
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	records := []domain.RunRecord{}
	for rows.Next() {
		var (
			record    domain.RunRecord
			status    string
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&record.ID,
			&record.SiteID,
			&record.SiteName,
			&record.FileName,
			&status,
			&record.IssueCount,
			&record.Counts.Success,
			&record.Counts.Failed,
			&record.Counts.Total,
			&record.ArtifactPath,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("scan run: %w", scanErr)
		}
		record.Status = domain.RunStatus(status)
		if createdAt.Valid {
			record.CreatedAt = createdAt.Time
		}
		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate runs: %w", rowsErr)
	}
	return records, nil
}
