package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/net/html"

	"github.com/pdfkb/pdfkb/document"
	"github.com/pdfkb/pdfkb/storage"
)

// Processor turns one PDF file into a lazy sequence of document records,
// one per page in page order. The underlying document is opened at
// construction and released when processing completes, is abandoned, or
// Close is called.
type Processor struct {
	path string
	doc  *fitz.Document
	opts *Options

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewProcessor opens the PDF at path. Missing files and documents MuPDF
// cannot parse fail here rather than at iteration time.
func NewProcessor(path string, opts ...Option) (*Processor, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, newProcessorError("NewProcessor", path, 0, err,
			ErrCodeOpenFailed, "failed to open PDF")
	}

	return &Processor{
		path: path,
		doc:  doc,
		opts: options,
	}, nil
}

// Process emits one record per page on the returned channel. The sequence
// is finite and non-restartable; a second call reports an error. Pages
// are rendered one per consumption step, and failures surface on the
// error channel at the point of iteration.
func (p *Processor) Process(ctx context.Context) (<-chan document.Document, <-chan error) {
	docCh := make(chan document.Document)
	errCh := make(chan error, 1)

	p.mu.Lock()
	if p.started || p.closed {
		code, msg := ErrCodeExhausted, "sequence already consumed"
		if p.closed && !p.started {
			code, msg = ErrCodeClosed, "processor is closed"
		}
		p.mu.Unlock()
		errCh <- newProcessorError("Process", p.path, 0, nil, code, msg)
		close(docCh)
		return docCh, errCh
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(docCh)
		defer p.Close()

		fileMeta := fileMetadata(p.doc.Metadata())
		saver := &imageSaver{dir: p.opts.ImageDir, archive: p.opts.Archive}

		for page := 0; page < p.doc.NumPage(); page++ {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			rec, err := p.processPage(ctx, page, fileMeta, saver)
			if err != nil {
				if p.opts.SkipFailedPages {
					continue
				}
				errCh <- err
				return
			}

			select {
			case docCh <- rec:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return docCh, errCh
}

// Load drains Process into a slice
func (p *Processor) Load(ctx context.Context) ([]document.Document, error) {
	docCh, errCh := p.Process(ctx)

	var docs []document.Document
	for {
		select {
		case doc, ok := <-docCh:
			if !ok {
				// The error, if any, is queued before the channel closes
				select {
				case err := <-errCh:
					return nil, err
				default:
					return docs, nil
				}
			}
			docs = append(docs, doc)
		case err := <-errCh:
			return nil, err
		}
	}
}

// Close releases the underlying document. Safe to call more than once.
func (p *Processor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		p.doc.Close()
	}
	return nil
}

func (p *Processor) processPage(ctx context.Context, page int, fileMeta map[string]interface{}, saver *imageSaver) (document.Document, error) {
	pageText, err := p.doc.Text(page)
	if err != nil {
		return document.Document{}, newProcessorError("processPage", p.path, page+1, err,
			ErrCodeRenderFailed, "failed to extract page text")
	}

	pageHTML, err := p.doc.HTML(page, false)
	if err != nil {
		return document.Document{}, newProcessorError("processPage", p.path, page+1, err,
			ErrCodeRenderFailed, "failed to render page HTML")
	}

	root, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return document.Document{}, newProcessorError("processPage", p.path, page+1, err,
			ErrCodeRenderFailed, "failed to parse page HTML")
	}

	content, err := collectPage(ctx, root, p.opts, saver)
	if err != nil {
		return document.Document{}, newProcessorError("processPage", p.path, page+1, err,
			ErrCodeImageWrite, "failed to save page image")
	}

	tables, err := p.encodeTables(ctx, page, detectTables(pageText))
	if err != nil {
		return document.Document{}, newProcessorError("processPage", p.path, page+1, err,
			ErrCodeTableWrite, "failed to write page tables")
	}

	metadata := map[string]interface{}{
		"page":   page + 1,
		"source": p.path,
		"titles": content.titles,
		"images": content.images,
		"tables": tables,
	}
	for k, v := range fileMeta {
		metadata[k] = v
	}
	for k, v := range p.opts.Metadata {
		metadata[k] = v
	}

	return document.New(content.text.String(), metadata), nil
}

// encodeTables serializes detected tables and, when a table directory is
// configured, writes each one out as a JSON file as well.
func (p *Processor) encodeTables(ctx context.Context, page int, tables []Table) ([]string, error) {
	encoded := make([]string, 0, len(tables))

	for i, table := range tables {
		text, err := table.Encode()
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, text)

		if p.opts.TableDir == "" {
			continue
		}

		if err := os.MkdirAll(p.opts.TableDir, 0o755); err != nil {
			return nil, err
		}

		base := strings.TrimSuffix(filepath.Base(p.path), filepath.Ext(p.path))
		name := fmt.Sprintf("%s_page%03d_table%02d.json", base, page+1, i+1)
		body, err := table.MarshalJSON()
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(p.opts.TableDir, name), body, 0o644); err != nil {
			return nil, err
		}

		if p.opts.Archive != nil {
			err := p.opts.Archive.Put(ctx, name, strings.NewReader(string(body)),
				storage.WithContentType("application/json"))
			if err != nil {
				return nil, err
			}
		}
	}

	return encoded, nil
}
