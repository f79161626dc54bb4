package kb

import (
	"context"
	"errors"
	"testing"

	"github.com/pdfkb/pdfkb/adapters/inmemory"
	"github.com/pdfkb/pdfkb/catalog"
	"github.com/pdfkb/pdfkb/datasource"
	"github.com/pdfkb/pdfkb/document"
	"github.com/pdfkb/pdfkb/vectorstore"
)

// fakeEmbedder returns a fixed vector per input
type fakeEmbedder struct{}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	vectors := make([][]float32, len(documents))
	for i := range documents {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

// fakeStore records operations and reports existing sources
type fakeStore struct {
	existing map[string]bool
	added    []vectorstore.Document
	deleted  []vectorstore.Filter
}

func newFakeStore() *fakeStore {
	return &fakeStore{existing: make(map[string]bool)}
}

func (f *fakeStore) InitDB(ctx context.Context, forceRecreate bool) error {
	return nil
}

func (f *fakeStore) AddDocuments(ctx context.Context, docs []vectorstore.Document, vectors [][]float32) error {
	f.added = append(f.added, docs...)
	return nil
}

func (f *fakeStore) SimilaritySearch(ctx context.Context, vector []float32, limit int, filter vectorstore.Filter) ([]vectorstore.Document, error) {
	docs := make([]vectorstore.Document, 0, limit)
	for _, doc := range f.added {
		docs = append(docs, doc)
		if len(docs) == limit {
			break
		}
	}
	return docs, nil
}

func (f *fakeStore) Exists(ctx context.Context, filter vectorstore.Filter) (bool, error) {
	source, _ := filter["source"].(string)
	return f.existing[source], nil
}

func (f *fakeStore) Delete(ctx context.Context, filter vectorstore.Filter) error {
	f.deleted = append(f.deleted, filter)
	return nil
}

// fakeSource streams a fixed document list, then an optional error
type fakeSource struct {
	docs []datasource.Document
	err  error
}

func (f *fakeSource) Load(ctx context.Context, opts ...datasource.Option) ([]datasource.Document, error) {
	return datasource.Drain(f.Stream(ctx, opts...))
}

func (f *fakeSource) Stream(ctx context.Context, opts ...datasource.Option) (<-chan datasource.Document, <-chan error) {
	docCh := make(chan datasource.Document)
	errCh := make(chan error, 1)

	go func() {
		defer close(docCh)
		for _, doc := range f.docs {
			docCh <- doc
		}
		if f.err != nil {
			errCh <- f.err
		}
	}()

	return docCh, errCh
}

func newTestKB(t *testing.T, store *fakeStore, opts ...Option) *KnowledgeBase {
	t.Helper()
	splitter := document.NewCharacterSplitter(50, 0, " ")
	knowledgeBase, err := New(&fakeEmbedder{}, store, splitter, opts...)
	if err != nil {
		t.Fatalf("New() unexpected error = %v", err)
	}
	return knowledgeBase
}

func TestSyncIndexesNewDocuments(t *testing.T) {
	store := newFakeStore()
	knowledgeBase := newTestKB(t, store)

	source := &fakeSource{docs: []datasource.Document{
		{
			Content:  "First page content here.",
			Metadata: map[string]interface{}{"page": 1, "last_modified": "2024-03-15"},
			Source:   "a.pdf",
		},
		{
			Content:  "Second page content here.",
			Metadata: map[string]interface{}{"page": 2, "last_modified": "2024-03-15"},
			Source:   "a.pdf",
		},
	}}

	if err := knowledgeBase.Sync(context.Background(), source, "a.pdf"); err != nil {
		t.Fatalf("Sync() unexpected error = %v", err)
	}

	if len(store.added) == 0 {
		t.Fatal("Sync() added no chunks")
	}
	for _, doc := range store.added {
		if doc.Metadata["source"] != "a.pdf" {
			t.Errorf("chunk source = %v, want a.pdf", doc.Metadata["source"])
		}
	}

	// Stale chunks are cleared per document before re-adding
	if len(store.deleted) != 2 {
		t.Errorf("Delete called %d times, want 2", len(store.deleted))
	}
}

func TestSyncSkipsExistingDocuments(t *testing.T) {
	store := newFakeStore()
	store.existing["a.pdf"] = true
	knowledgeBase := newTestKB(t, store)

	source := &fakeSource{docs: []datasource.Document{
		{
			Content:  "Already indexed.",
			Metadata: map[string]interface{}{"last_modified": "2024-03-15"},
			Source:   "a.pdf",
		},
	}}

	if err := knowledgeBase.Sync(context.Background(), source, "a.pdf"); err != nil {
		t.Fatalf("Sync() unexpected error = %v", err)
	}

	if len(store.added) != 0 {
		t.Errorf("Sync() added %d chunks for an existing document", len(store.added))
	}
	if len(store.deleted) != 0 {
		t.Errorf("Sync() deleted chunks for a skipped document")
	}
}

func TestSyncHandlesNilMetadata(t *testing.T) {
	store := newFakeStore()
	knowledgeBase := newTestKB(t, store)

	// Sources are not required to populate metadata
	source := &fakeSource{docs: []datasource.Document{
		{
			Content: "Bare document without metadata.",
			Source:  "bare.pdf",
		},
	}}

	if err := knowledgeBase.Sync(context.Background(), source, "bare.pdf"); err != nil {
		t.Fatalf("Sync() unexpected error = %v", err)
	}

	if len(store.added) == 0 {
		t.Fatal("Sync() added no chunks")
	}
	for _, doc := range store.added {
		if doc.Metadata["source"] != "bare.pdf" {
			t.Errorf("chunk source = %v, want bare.pdf", doc.Metadata["source"])
		}
	}
}

func TestSyncPropagatesSourceErrors(t *testing.T) {
	store := newFakeStore()
	knowledgeBase := newTestKB(t, store)

	wantErr := errors.New("render failed")
	source := &fakeSource{
		docs: []datasource.Document{
			{
				Content:  "Good page.",
				Metadata: map[string]interface{}{},
				Source:   "a.pdf",
			},
		},
		err: wantErr,
	}

	err := knowledgeBase.Sync(context.Background(), source, "a.pdf")
	if !errors.Is(err, wantErr) {
		t.Errorf("Sync() error = %v, want %v", err, wantErr)
	}
}

func TestSyncRecordsRunInCatalog(t *testing.T) {
	store := newFakeStore()
	store.existing["skip.pdf"] = true
	runs := catalog.New(inmemory.NewInMemoryRepository())
	knowledgeBase := newTestKB(t, store, WithCatalog(runs))

	source := &fakeSource{docs: []datasource.Document{
		{
			Content:  "Indexed page.",
			Metadata: map[string]interface{}{"last_modified": "2024-03-15"},
			Source:   "new.pdf",
		},
		{
			Content:  "Skipped page.",
			Metadata: map[string]interface{}{"last_modified": "2024-03-15"},
			Source:   "skip.pdf",
		},
	}}

	if err := knowledgeBase.Sync(context.Background(), source, "batch"); err != nil {
		t.Fatalf("Sync() unexpected error = %v", err)
	}

	history, err := runs.ListRuns(context.Background(), catalog.Filter{Source: "batch"}, 1)
	if err != nil {
		t.Fatalf("ListRuns() unexpected error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("ListRuns() returned %d runs, want 1", len(history))
	}

	run := history[0]
	if run.Status != catalog.StatusCompleted {
		t.Errorf("run status = %v, want %v", run.Status, catalog.StatusCompleted)
	}
	if run.Documents != 1 {
		t.Errorf("run documents = %d, want 1", run.Documents)
	}
	if run.Skipped != 1 {
		t.Errorf("run skipped = %d, want 1", run.Skipped)
	}
	if run.Chunks == 0 {
		t.Error("run recorded no chunks")
	}
	if run.CompletedAt == nil {
		t.Error("run has no completion time")
	}
}

func TestSyncRecordsFailedRun(t *testing.T) {
	store := newFakeStore()
	runs := catalog.New(inmemory.NewInMemoryRepository())
	knowledgeBase := newTestKB(t, store, WithCatalog(runs))

	source := &fakeSource{err: errors.New("connection reset")}

	if err := knowledgeBase.Sync(context.Background(), source, "batch"); err == nil {
		t.Fatal("Sync() error = nil, want source error")
	}

	history, err := runs.ListRuns(context.Background(),
		catalog.Filter{Statuses: []catalog.Status{catalog.StatusFailed}}, 1)
	if err != nil {
		t.Fatalf("ListRuns() unexpected error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("ListRuns() returned %d failed runs, want 1", len(history))
	}
	if history[0].Error == "" {
		t.Error("failed run has no error message")
	}
}

func TestSimilaritySearch(t *testing.T) {
	store := newFakeStore()
	store.added = []vectorstore.Document{
		{PageContent: "chunk", Metadata: map[string]interface{}{"source": "a.pdf"}, Score: 0.9},
	}
	knowledgeBase := newTestKB(t, store)

	results, err := knowledgeBase.SimilaritySearch(context.Background(), "query", 2, nil)
	if err != nil {
		t.Fatalf("SimilaritySearch() unexpected error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("SimilaritySearch() returned %d documents, want 1", len(results))
	}
	if results[0].PageContent != "chunk" {
		t.Errorf("result content = %q, want %q", results[0].PageContent, "chunk")
	}
}
