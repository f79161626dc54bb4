package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pdfkb/pdfkb/catalog"
)

func TestInMemoryRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	run := catalog.Run{
		ID:        "run-1",
		Source:    "./docs",
		Status:    catalog.StatusRunning,
		StartedAt: time.Now(),
	}

	if err := repo.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun() unexpected error = %v", err)
	}

	// Duplicate ID conflicts
	err := repo.CreateRun(ctx, run)
	var cerr *catalog.CatalogError
	if !errors.As(err, &cerr) || cerr.Code != catalog.ErrCodeConflict {
		t.Errorf("duplicate CreateRun() error = %v, want conflict", err)
	}

	run.Status = catalog.StatusCompleted
	run.Documents = 3
	run.Chunks = 17
	if err := repo.CompleteRun(ctx, run); err != nil {
		t.Fatalf("CompleteRun() unexpected error = %v", err)
	}

	got, err := repo.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() unexpected error = %v", err)
	}
	if got.Status != catalog.StatusCompleted {
		t.Errorf("Status = %v, want %v", got.Status, catalog.StatusCompleted)
	}
	if got.Documents != 3 || got.Chunks != 17 {
		t.Errorf("counters = (%d, %d), want (3, 17)", got.Documents, got.Chunks)
	}
}

func TestInMemoryRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	_, err := repo.GetRun(ctx, "missing")
	var cerr *catalog.CatalogError
	if !errors.As(err, &cerr) || cerr.Code != catalog.ErrCodeNotFound {
		t.Errorf("GetRun() error = %v, want not found", err)
	}

	err = repo.CompleteRun(ctx, catalog.Run{ID: "missing"})
	if !errors.As(err, &cerr) || cerr.Code != catalog.ErrCodeNotFound {
		t.Errorf("CompleteRun() error = %v, want not found", err)
	}
}

func TestInMemoryRepositoryListRuns(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	base := time.Now()
	seed := []catalog.Run{
		{ID: "a", Source: "./docs", Status: catalog.StatusCompleted, StartedAt: base.Add(-3 * time.Hour)},
		{ID: "b", Source: "./docs", Status: catalog.StatusFailed, StartedAt: base.Add(-2 * time.Hour)},
		{ID: "c", Source: "./other", Status: catalog.StatusCompleted, StartedAt: base.Add(-1 * time.Hour)},
	}
	for _, run := range seed {
		if err := repo.CreateRun(ctx, run); err != nil {
			t.Fatalf("CreateRun(%s) unexpected error = %v", run.ID, err)
		}
	}

	tests := []struct {
		name    string
		filter  catalog.Filter
		limit   int
		wantIDs []string
	}{
		{
			name:    "All runs newest first",
			filter:  catalog.Filter{},
			limit:   10,
			wantIDs: []string{"c", "b", "a"},
		},
		{
			name:    "Filter by source",
			filter:  catalog.Filter{Source: "./docs"},
			limit:   10,
			wantIDs: []string{"b", "a"},
		},
		{
			name:    "Filter by status",
			filter:  catalog.Filter{Statuses: []catalog.Status{catalog.StatusFailed}},
			limit:   10,
			wantIDs: []string{"b"},
		},
		{
			name:    "Limit applies after sorting",
			filter:  catalog.Filter{},
			limit:   1,
			wantIDs: []string{"c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := repo.ListRuns(ctx, tt.filter, tt.limit)
			if err != nil {
				t.Fatalf("ListRuns() unexpected error = %v", err)
			}
			if len(runs) != len(tt.wantIDs) {
				t.Fatalf("ListRuns() returned %d runs, want %d", len(runs), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if runs[i].ID != id {
					t.Errorf("runs[%d].ID = %s, want %s", i, runs[i].ID, id)
				}
			}
		})
	}
}

func TestInMemoryRepositorySinceFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	base := time.Now()
	old := catalog.Run{ID: "old", Source: "s", Status: catalog.StatusCompleted, StartedAt: base.Add(-48 * time.Hour)}
	recent := catalog.Run{ID: "recent", Source: "s", Status: catalog.StatusCompleted, StartedAt: base}
	for _, run := range []catalog.Run{old, recent} {
		if err := repo.CreateRun(ctx, run); err != nil {
			t.Fatalf("CreateRun() unexpected error = %v", err)
		}
	}

	since := base.Add(-time.Hour)
	runs, err := repo.ListRuns(ctx, catalog.Filter{Since: &since}, 10)
	if err != nil {
		t.Fatalf("ListRuns() unexpected error = %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "recent" {
		t.Errorf("ListRuns(since) = %v, want only the recent run", runs)
	}
}
