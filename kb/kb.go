package kb

import (
	"context"

	"github.com/pdfkb/pdfkb/catalog"
	"github.com/pdfkb/pdfkb/datasource"
	"github.com/pdfkb/pdfkb/document"
	"github.com/pdfkb/pdfkb/embedding"
	"github.com/pdfkb/pdfkb/vectorstore"
)

// KnowledgeBase indexes document records produced by data sources into a
// vector store, chunking them on the way in
type KnowledgeBase struct {
	vStore   *vectorstore.VectorStore
	store    vectorstore.Store
	splitter document.Splitter
	opts     *Options
}

// New creates a new KnowledgeBase instance with the provided options
func New(
	embedder embedding.Embedder,
	store vectorstore.Store,
	splitter document.Splitter,
	opts ...Option,
) (*KnowledgeBase, error) {
	// Initialize with default options
	options := defaultOptions()

	// Apply provided options
	for _, opt := range opts {
		opt(options)
	}

	// Create vector store with options
	vStore := vectorstore.New(
		store,
		embedder,
		vectorstore.WithScoreThreshold(options.ScoreThreshold),
		vectorstore.WithFilters(options.Filters),
	)

	kb := &KnowledgeBase{
		vStore:   vStore,
		store:    store,
		splitter: splitter,
		opts:     options,
	}

	return kb, nil
}

// GetOptions returns a copy of the current options
func (kb *KnowledgeBase) GetOptions() Options {
	return *kb.opts
}

// Close releases any resources held by the knowledge base
func (kb *KnowledgeBase) Close() error {
	return nil
}

func (kb *KnowledgeBase) InitStore(ctx context.Context, forceRecreate bool) error {
	return kb.store.InitDB(ctx, forceRecreate)
}

// Sync streams a data source into the vector store. Documents whose
// source and last-modified metadata already exist are skipped; stale
// chunks of re-synced sources are replaced. When a catalog is configured
// the run and its counters are recorded there under name.
func (kb *KnowledgeBase) Sync(ctx context.Context, ds datasource.DataSource, name string) error {
	var run *catalog.Run
	if kb.opts.Catalog != nil {
		started, err := kb.opts.Catalog.StartRun(ctx, name, nil)
		if err != nil {
			return err
		}
		run = started
	}

	err := kb.syncStream(ctx, ds, run)

	if kb.opts.Catalog != nil {
		if finishErr := kb.opts.Catalog.FinishRun(ctx, run, err); finishErr != nil && err == nil {
			return finishErr
		}
	}

	return err
}

func (kb *KnowledgeBase) syncStream(ctx context.Context, ds datasource.DataSource, run *catalog.Run) error {
	docCh, errCh := ds.Stream(ctx)
	for {
		select {
		case doc, ok := <-docCh:
			if !ok {
				// Sources report an error before closing the stream
				select {
				case err := <-errCh:
					return err
				default:
					return nil
				}
			}
			if err := kb.processData(ctx, doc, run); err != nil {
				return err
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (kb *KnowledgeBase) processData(ctx context.Context, doc datasource.Document, run *catalog.Run) error {
	// Add source to metadata
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]interface{})
	}
	doc.Metadata["source"] = doc.Source

	// Check if document exists and needs update
	checkDoc := document.Document{
		Metadata: map[string]interface{}{
			"source":        doc.Source,
			"last_modified": doc.Metadata["last_modified"],
		},
	}

	exists, err := kb.vStore.DocumentExists(ctx, []document.Document{checkDoc})
	if err != nil {
		return err
	}

	// If document exists with same metadata, skip processing
	if exists[0] {
		if run != nil {
			run.Skipped++
		}
		return nil
	}

	// Split document into chunks
	docu := document.New(doc.Content, doc.Metadata)
	chunks, err := document.SplitDocuments(kb.splitter, []document.Document{docu})
	if err != nil {
		return err
	}

	// Delete existing document chunks if any (regardless of last_modified)
	filter := vectorstore.Filter{
		"source": doc.Source,
	}
	if err := kb.vStore.Delete(ctx, filter); err != nil {
		return err
	}

	// Add new chunks
	if err := kb.vStore.AddDocuments(ctx, chunks); err != nil {
		return err
	}

	if run != nil {
		run.Documents++
		run.Chunks += len(chunks)
	}

	return nil
}

func (kb *KnowledgeBase) SimilaritySearch(
	ctx context.Context,
	query string,
	limit int,
	filter vectorstore.Filter,
) ([]vectorstore.Document, error) {
	return kb.vStore.SimilaritySearch(ctx, query, limit, filter)
}
