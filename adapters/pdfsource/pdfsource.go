package pdfsource

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfkb/pdfkb/datasource"
	"github.com/pdfkb/pdfkb/pdf"
)

// PDFSource streams document records from a PDF file or a directory of
// PDF files on the local filesystem.
type PDFSource struct {
	root     string
	procOpts []pdf.Option
}

// NewPDFSource creates a source rooted at a .pdf file or a directory.
// Processor options are applied to every file the source processes.
func NewPDFSource(root string, procOpts ...pdf.Option) *PDFSource {
	return &PDFSource{
		root:     root,
		procOpts: procOpts,
	}
}

func (s *PDFSource) Load(ctx context.Context, opts ...datasource.Option) ([]datasource.Document, error) {
	return datasource.Drain(s.Stream(ctx, opts...))
}

func (s *PDFSource) Stream(ctx context.Context, opts ...datasource.Option) (<-chan datasource.Document, <-chan error) {
	options := &datasource.LoadOptions{}
	for _, opt := range opts {
		opt(options)
	}

	docCh := make(chan datasource.Document)
	errCh := make(chan error, 1)

	go func() {
		defer close(docCh)

		paths, err := s.collectPaths(options)
		if err != nil {
			errCh <- err
			return
		}

		emitted := 0
		for _, path := range paths {
			if options.MaxItems > 0 && emitted >= options.MaxItems {
				return
			}

			info, err := os.Stat(path)
			if err != nil {
				errCh <- &datasource.DataSourceError{
					Source:  "pdf",
					Op:      "Stream",
					Err:     err,
					Code:    datasource.ErrCodeNotFound,
					Message: "failed to stat PDF file",
				}
				return
			}

			lastModified := info.ModTime().UTC().Format(time.RFC3339)
			metadata := map[string]interface{}{
				"path":          path,
				"last_modified": lastModified,
				"size":          info.Size(),
			}
			if options.Filter != nil && !options.Filter(metadata) {
				continue
			}

			if err := s.streamFile(ctx, path, lastModified, options, &emitted, docCh); err != nil {
				errCh <- err
				return
			}
		}
	}()

	return docCh, errCh
}

// streamFile processes one PDF and forwards its records. Each record
// carries the file's modification time so consumers can detect
// already-indexed documents.
func (s *PDFSource) streamFile(ctx context.Context, path, lastModified string, options *datasource.LoadOptions, emitted *int, docCh chan<- datasource.Document) error {
	proc, err := pdf.NewProcessor(path, s.procOpts...)
	if err != nil {
		return &datasource.DataSourceError{
			Source:  "pdf",
			Op:      "Stream",
			Err:     err,
			Code:    datasource.ErrCodeInvalidFormat,
			Message: "failed to open PDF file",
		}
	}
	defer proc.Close()

	pageCh, procErrCh := proc.Process(ctx)
	for {
		select {
		case rec, ok := <-pageCh:
			if !ok {
				select {
				case err := <-procErrCh:
					return &datasource.DataSourceError{
						Source:  "pdf",
						Op:      "Stream",
						Err:     err,
						Code:    datasource.ErrCodeInternal,
						Message: "failed to process PDF file",
					}
				default:
					return nil
				}
			}
			rec.Metadata["last_modified"] = lastModified
			doc := datasource.Document{
				Content:  rec.PageContent,
				Metadata: rec.Metadata,
				Source:   path,
			}
			select {
			case docCh <- doc:
				*emitted++
				if options.MaxItems > 0 && *emitted >= options.MaxItems {
					return nil
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		case err := <-procErrCh:
			return &datasource.DataSourceError{
				Source:  "pdf",
				Op:      "Stream",
				Err:     err,
				Code:    datasource.ErrCodeInternal,
				Message: "failed to process PDF file",
			}
		}
	}
}

// collectPaths resolves the root to the list of PDF files to process
func (s *PDFSource) collectPaths(options *datasource.LoadOptions) ([]string, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, &datasource.DataSourceError{
			Source:  "pdf",
			Op:      "collectPaths",
			Err:     err,
			Code:    datasource.ErrCodeNotFound,
			Message: "source path not found",
		}
	}

	if !info.IsDir() {
		return []string{s.root}, nil
	}

	var paths []string
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && !options.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, &datasource.DataSourceError{
			Source:  "pdf",
			Op:      "collectPaths",
			Err:     err,
			Code:    datasource.ErrCodeInternal,
			Message: "failed to walk source directory",
		}
	}

	return paths, nil
}
