package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"negativacao-sync/internal/domain"
)

const runsSchema = `
	CREATE TABLE IF NOT EXISTS workflow_runs (
		key        TEXT PRIMARY KEY,
		workflow   TEXT        NOT NULL,
		deal_id    TEXT        NOT NULL,
		kind       TEXT        NOT NULL,
		status     TEXT        NOT NULL,
		message    TEXT        NOT NULL DEFAULT '',
		mutations  INTEGER     NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)
`

type RunsFilter struct {
	Workflow *string
	DealID   *string
	Status   *string
	Since    *time.Time
	Limit    int
}

// RunRepository is the durable journal of workflow runs.
type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, runsSchema); err != nil {
		return fmt.Errorf("create workflow_runs: %w", err)
	}
	return nil
}

func (r *RunRepository) Insert(ctx context.Context, run domain.Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workflow_runs (key, workflow, deal_id, kind, status, message, mutations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (key) DO NOTHING`,
		run.Key,
		string(run.Workflow),
		run.DealID,
		string(run.Kind),
		string(run.Status),
		run.Message,
		run.Mutations,
		run.Created,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.Key, err)
	}
	return nil
}

// ErrRunNotFound is returned by Get for an unknown key.
var ErrRunNotFound = errors.New("run not found")

func (r *RunRepository) Get(ctx context.Context, key string) (domain.Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT key, workflow, deal_id, kind, status, message, mutations, created_at
		FROM workflow_runs
		WHERE key = $1`, key)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Run{}, ErrRunNotFound
	}
	return run, err
}

func (r *RunRepository) List(ctx context.Context, f RunsFilter) ([]domain.Run, error) {
	baseQuery := `
		SELECT key, workflow, deal_id, kind, status, message, mutations, created_at
		FROM workflow_runs
	`

	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.Workflow != nil {
		where = append(where, fmt.Sprintf("workflow = $%d", i))
		args = append(args, *f.Workflow)
		i++
	}

	if f.DealID != nil {
		where = append(where, fmt.Sprintf("deal_id = $%d", i))
		args = append(args, *f.DealID)
		i++
	}

	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", i))
		args = append(args, *f.Status)
		i++
	}

	if f.Since != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", i))
		args = append(args, *f.Since)
		i++
	}

	query := baseQuery + " WHERE " + strings.Join(where, " AND ") + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", i)
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (domain.Run, error) {
	var (
		run                    domain.Run
		workflow, kind, status string
	)
	err := row.Scan(
		&run.Key,
		&workflow,
		&run.DealID,
		&kind,
		&status,
		&run.Message,
		&run.Mutations,
		&run.Created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Run{}, err
	}
	if err != nil {
		return domain.Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Workflow = domain.Workflow(workflow)
	run.Kind = domain.Kind(kind)
	run.Status = domain.Status(status)
	return run, nil
}
