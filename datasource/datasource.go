package datasource

import "context"

// Document represents a document emitted by a data source
type Document struct {
	Content  string
	Metadata map[string]interface{}
	Source   string
}

// DataSource represents a source of documents
type DataSource interface {
	// Load loads all documents from the source
	Load(ctx context.Context, opts ...Option) ([]Document, error)

	// Stream emits documents lazily, one per consumption step. The
	// document channel is closed when the source is exhausted; a failure
	// surfaces on the error channel and ends the stream.
	Stream(ctx context.Context, opts ...Option) (<-chan Document, <-chan error)
}

// Drain collects a stream into a slice. Sources implement Load with it.
func Drain(docCh <-chan Document, errCh <-chan error) ([]Document, error) {
	var documents []Document
	for {
		select {
		case doc, ok := <-docCh:
			if !ok {
				// Sources report an error before closing the stream
				select {
				case err := <-errCh:
					return nil, err
				default:
					return documents, nil
				}
			}
			documents = append(documents, doc)
		case err := <-errCh:
			return nil, err
		}
	}
}
