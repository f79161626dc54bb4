package catalog

import (
	"context"
	"time"
)

// Status of a processing run
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run records one pass of a data source through the knowledge base:
// which source was processed, how much came out of it, and how it ended.
type Run struct {
	ID          string         `json:"id"`
	Source      string         `json:"source"`
	Status      Status         `json:"status"`
	Documents   int            `json:"documents"`
	Chunks      int            `json:"chunks"`
	Skipped     int            `json:"skipped"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// Filter represents query filters for listing runs
type Filter struct {
	Source   string
	Statuses []Status
	Since    *time.Time
}

func (f Filter) IsEmpty() bool {
	return f.Source == "" && len(f.Statuses) == 0 && f.Since == nil
}

// Repository interface defines methods for run bookkeeping
type Repository interface {
	// CreateRun persists a new run in StatusRunning
	CreateRun(ctx context.Context, run Run) error

	// CompleteRun stores the final counters and status of a run
	CompleteRun(ctx context.Context, run Run) error

	// GetRun retrieves a run by ID
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns retrieves runs matching the filter, newest first
	ListRuns(ctx context.Context, filter Filter, limit int) ([]Run, error)
}

// Catalog wraps a Repository with run lifecycle helpers
type Catalog struct {
	repo Repository
	opts *Options
}

func New(repo Repository, opts ...Option) *Catalog {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Catalog{
		repo: repo,
		opts: options,
	}
}

// StartRun creates and persists a run for the given source
func (c *Catalog) StartRun(ctx context.Context, source string, metadata map[string]any) (*Run, error) {
	run := Run{
		ID:        c.opts.GenerateID(),
		Source:    source,
		Status:    StatusRunning,
		Metadata:  metadata,
		StartedAt: time.Now(),
	}

	if err := c.repo.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	return &run, nil
}

// FinishRun marks a run completed or failed and persists its counters
func (c *Catalog) FinishRun(ctx context.Context, run *Run, runErr error) error {
	now := time.Now()
	run.CompletedAt = &now
	run.Status = StatusCompleted
	if runErr != nil {
		run.Status = StatusFailed
		run.Error = runErr.Error()
	}

	return c.repo.CompleteRun(ctx, *run)
}

// GetRun retrieves a run by ID
func (c *Catalog) GetRun(ctx context.Context, id string) (*Run, error) {
	return c.repo.GetRun(ctx, id)
}

// ListRuns retrieves runs matching the filter, newest first. A limit of
// zero applies the catalog's default.
func (c *Catalog) ListRuns(ctx context.Context, filter Filter, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = c.opts.ListLimit
	}
	return c.repo.ListRuns(ctx, filter, limit)
}
