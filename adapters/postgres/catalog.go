package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/pdfkb/pdfkb/catalog"
)

// PostgresRepository implements catalog.Repository on PostgreSQL
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}
	return &PostgresRepository{db: db}, nil
}

// Required database schema
const schema = `
CREATE TABLE IF NOT EXISTS processing_runs (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    status TEXT NOT NULL,
    documents INTEGER NOT NULL DEFAULT 0,
    chunks INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    error TEXT,
    metadata JSONB,
    started_at TIMESTAMP WITH TIME ZONE NOT NULL,
    completed_at TIMESTAMP WITH TIME ZONE
);

CREATE INDEX IF NOT EXISTS idx_processing_runs_source ON processing_runs(source);
CREATE INDEX IF NOT EXISTS idx_processing_runs_status ON processing_runs(status);
CREATE INDEX IF NOT EXISTS idx_processing_runs_started_at ON processing_runs(started_at);
`

func (r *PostgresRepository) InitSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *PostgresRepository) CreateRun(ctx context.Context, run catalog.Run) error {
	metadata, err := json.Marshal(run.Metadata)
	if err != nil {
		return catalog.NewCatalogError("CreateRun", run.ID, err,
			catalog.ErrCodeInternal, "failed to marshal metadata")
	}

	query := `
		INSERT INTO processing_runs (id, source, status, documents, chunks, skipped, metadata, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		run.ID, run.Source, string(run.Status),
		run.Documents, run.Chunks, run.Skipped,
		metadata, run.StartedAt,
	)
	if err != nil {
		return catalog.NewCatalogError("CreateRun", run.ID, err,
			catalog.ErrCodeInternal, "failed to insert run")
	}

	return nil
}

func (r *PostgresRepository) CompleteRun(ctx context.Context, run catalog.Run) error {
	query := `
		UPDATE processing_runs
		SET status = $2, documents = $3, chunks = $4, skipped = $5, error = $6, completed_at = $7
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		run.ID, string(run.Status),
		run.Documents, run.Chunks, run.Skipped,
		nullString(run.Error), run.CompletedAt,
	)
	if err != nil {
		return catalog.NewCatalogError("CompleteRun", run.ID, err,
			catalog.ErrCodeInternal, "failed to update run")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return catalog.NewCatalogError("CompleteRun", run.ID, err,
			catalog.ErrCodeInternal, "failed to read update result")
	}
	if affected == 0 {
		return catalog.NewCatalogError("CompleteRun", run.ID, nil,
			catalog.ErrCodeNotFound, "run not found")
	}

	return nil
}

func (r *PostgresRepository) GetRun(ctx context.Context, id string) (*catalog.Run, error) {
	query := `
		SELECT id, source, status, documents, chunks, skipped, error, metadata, started_at, completed_at
		FROM processing_runs
		WHERE id = $1
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.NewCatalogError("GetRun", id, err,
				catalog.ErrCodeNotFound, "run not found")
		}
		return nil, catalog.NewCatalogError("GetRun", id, err,
			catalog.ErrCodeInternal, "failed to query run")
	}

	return run, nil
}

func (r *PostgresRepository) ListRuns(ctx context.Context, filter catalog.Filter, limit int) ([]catalog.Run, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)

	if filter.Source != "" {
		args = append(args, filter.Source)
		conditions = append(conditions, fmt.Sprintf("source = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conditions = append(conditions, fmt.Sprintf("started_at >= $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT id, source, status, documents, chunks, skipped, error, metadata, started_at, completed_at
		FROM processing_runs
		%s
		ORDER BY started_at DESC
		LIMIT $%d
	`, whereClause, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, catalog.NewCatalogError("ListRuns", "", err,
			catalog.ErrCodeInternal, "failed to query runs")
	}
	defer rows.Close()

	var runs []catalog.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, catalog.NewCatalogError("ListRuns", "", err,
				catalog.ErrCodeInternal, "failed to scan run")
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, catalog.NewCatalogError("ListRuns", "", err,
			catalog.ErrCodeInternal, "failed to iterate runs")
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*catalog.Run, error) {
	var run catalog.Run
	var status string
	var runError sql.NullString
	var metadata []byte
	var completedAt sql.NullTime

	err := row.Scan(&run.ID, &run.Source, &status,
		&run.Documents, &run.Chunks, &run.Skipped,
		&runError, &metadata, &run.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	run.Status = catalog.Status(status)
	if runError.Valid {
		run.Error = runError.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &run.Metadata); err != nil {
			return nil, err
		}
	}

	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
