package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/pdfkb/pdfkb/catalog"
)

// InMemoryRepository implements catalog.Repository using in-memory storage
type InMemoryRepository struct {
	runs map[string]catalog.Run
	mu   sync.RWMutex
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		runs: make(map[string]catalog.Run),
	}
}

func (r *InMemoryRepository) CreateRun(ctx context.Context, run catalog.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; exists {
		return catalog.NewCatalogError("CreateRun", run.ID, nil,
			catalog.ErrCodeConflict, "run already exists")
	}

	r.runs[run.ID] = run
	return nil
}

func (r *InMemoryRepository) CompleteRun(ctx context.Context, run catalog.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; !exists {
		return catalog.NewCatalogError("CompleteRun", run.ID, nil,
			catalog.ErrCodeNotFound, "run not found")
	}

	r.runs[run.ID] = run
	return nil
}

func (r *InMemoryRepository) GetRun(ctx context.Context, id string) (*catalog.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, exists := r.runs[id]
	if !exists {
		return nil, catalog.NewCatalogError("GetRun", id, nil,
			catalog.ErrCodeNotFound, "run not found")
	}

	return &run, nil
}

func (r *InMemoryRepository) ListRuns(ctx context.Context, filter catalog.Filter, limit int) ([]catalog.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var runs []catalog.Run
	for _, run := range r.runs {
		if matchesFilter(run, filter) {
			runs = append(runs, run)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	return runs, nil
}

func matchesFilter(run catalog.Run, filter catalog.Filter) bool {
	if filter.IsEmpty() {
		return true
	}

	if filter.Source != "" && run.Source != filter.Source {
		return false
	}
	if filter.Since != nil && run.StartedAt.Before(*filter.Since) {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if run.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
