package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alumnihub/gradimport/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Runs implements core.RunStore over Postgres. Outcome lists are stored
// as JSONB documents; they are written once at finalize and never
// mutated afterward.
type Runs struct {
	db DBTX
}

const runColumns = `id, file_name, status, processed, created_count, updated_count,
	skipped_count, valid_rows, invalid_rows, conflicts, started_at, completed_at`

// Create persists a new pending run, assigning an ID when the run does
// not carry one.
func (r *Runs) Create(ctx context.Context, run *core.ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO import_runs (id, file_name, status, started_at)
		VALUES ($1, $2, $3, $4)`,
		toPgUUID(run.ID), run.FileName, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("create import run: %w", err)
	}
	return nil
}

// FinalizeSummary writes the aggregated totals and outcome lists in one
// update. This is the single summary write at the end of a run.
func (r *Runs) FinalizeSummary(ctx context.Context, run *core.ImportRun) error {
	validRows, err := json.Marshal(orEmptyValid(run.ValidRows))
	if err != nil {
		return fmt.Errorf("marshal valid rows: %w", err)
	}
	invalidRows, err := json.Marshal(orEmptyInvalid(run.InvalidRows))
	if err != nil {
		return fmt.Errorf("marshal invalid rows: %w", err)
	}
	conflicts, err := json.Marshal(orEmptyConflicts(run.Conflicts))
	if err != nil {
		return fmt.Errorf("marshal conflicts: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE import_runs SET
			status = $1,
			processed = $2,
			created_count = $3,
			updated_count = $4,
			skipped_count = $5,
			valid_rows = $6,
			invalid_rows = $7,
			conflicts = $8,
			completed_at = $9
		WHERE id = $10`,
		string(run.Status), run.Processed, run.Created, run.Updated, run.Skipped,
		validRows, invalidRows, conflicts,
		toPgTimestamptz(run.CompletedAt), toPgUUID(run.ID),
	)
	if err != nil {
		return fmt.Errorf("finalize import run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finalize import run: run %s not found", run.ID)
	}
	return nil
}

// GetByID returns a persisted run summary, or nil when unknown.
func (r *Runs) GetByID(ctx context.Context, id string) (*core.ImportRun, error) {
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM import_runs WHERE id = $1`, runColumns),
		toPgUUID(id))
	if err != nil {
		return nil, fmt.Errorf("get import run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRun(rows)
}

// ListRecent returns the most recent runs, newest first. Outcome lists
// are included; callers listing for dashboards typically only read the
// counters.
func (r *Runs) ListRecent(ctx context.Context, limit int) ([]core.ImportRun, error) {
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM import_runs ORDER BY started_at DESC LIMIT $1`, runColumns),
		limit)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	var runs []core.ImportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanRun(rows pgx.Rows) (*core.ImportRun, error) {
	var run core.ImportRun
	var id pgtype.UUID
	var status string
	var validRows, invalidRows, conflicts []byte
	var completedAt pgtype.Timestamptz

	err := rows.Scan(
		&id, &run.FileName, &status, &run.Processed, &run.Created,
		&run.Updated, &run.Skipped, &validRows, &invalidRows, &conflicts,
		&run.StartedAt, &completedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan import run: %w", err)
	}

	run.ID = uuidToString(id)
	run.Status = core.RunStatus(status)
	run.CompletedAt = fromPgTimestamptz(completedAt)

	if err := json.Unmarshal(validRows, &run.ValidRows); err != nil {
		return nil, fmt.Errorf("unmarshal valid rows: %w", err)
	}
	if err := json.Unmarshal(invalidRows, &run.InvalidRows); err != nil {
		return nil, fmt.Errorf("unmarshal invalid rows: %w", err)
	}
	if err := json.Unmarshal(conflicts, &run.Conflicts); err != nil {
		return nil, fmt.Errorf("unmarshal conflicts: %w", err)
	}

	return &run, nil
}

func orEmptyValid(v []core.ValidRow) []core.ValidRow {
	if v == nil {
		return []core.ValidRow{}
	}
	return v
}

func orEmptyInvalid(v []core.InvalidRow) []core.InvalidRow {
	if v == nil {
		return []core.InvalidRow{}
	}
	return v
}

func orEmptyConflicts(v []core.ConflictRow) []core.ConflictRow {
	if v == nil {
		return []core.ConflictRow{}
	}
	return v
}
