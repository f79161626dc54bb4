package websource

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pdfkb/pdfkb/datasource"
	"github.com/pdfkb/pdfkb/pdf"
)

// WebSource streams document records from PDFs served over HTTP. Each URL
// is fetched to a temporary file, processed, and removed again.
type WebSource struct {
	urls     []string
	client   *http.Client
	procOpts []pdf.Option
}

func NewWebSource(urls []string, timeout time.Duration, procOpts ...pdf.Option) *WebSource {
	return &WebSource{
		urls:     urls,
		procOpts: procOpts,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (w *WebSource) Load(ctx context.Context, opts ...datasource.Option) ([]datasource.Document, error) {
	return datasource.Drain(w.Stream(ctx, opts...))
}

func (w *WebSource) Stream(ctx context.Context, opts ...datasource.Option) (<-chan datasource.Document, <-chan error) {
	options := &datasource.LoadOptions{}
	for _, opt := range opts {
		opt(options)
	}

	docCh := make(chan datasource.Document)
	errCh := make(chan error, 1)

	go func() {
		defer close(docCh)

		emitted := 0
		for _, url := range w.urls {
			if options.MaxItems > 0 && emitted >= options.MaxItems {
				return
			}

			metadata := map[string]interface{}{
				"url": url,
			}
			if options.Filter != nil && !options.Filter(metadata) {
				continue
			}

			if err := w.streamURL(ctx, url, options, &emitted, docCh); err != nil {
				errCh <- err
				return
			}
		}
	}()

	return docCh, errCh
}

func (w *WebSource) streamURL(ctx context.Context, url string, options *datasource.LoadOptions, emitted *int, docCh chan<- datasource.Document) error {
	path, lastModified, err := w.fetchURL(ctx, url)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	proc, err := pdf.NewProcessor(path, w.procOpts...)
	if err != nil {
		return &datasource.DataSourceError{
			Source:  "web",
			Op:      "streamURL",
			Err:     err,
			Code:    datasource.ErrCodeInvalidFormat,
			Message: "fetched content is not a valid PDF",
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
						Source:  "web",
						Op:      "streamURL",
						Err:     err,
						Code:    datasource.ErrCodeInternal,
						Message: "failed to process fetched PDF",
					}
				default:
					return nil
				}
			}
			rec.Metadata["source"] = url
			if lastModified != "" {
				rec.Metadata["last_modified"] = lastModified
			}
			doc := datasource.Document{
				Content:  rec.PageContent,
				Metadata: rec.Metadata,
				Source:   url,
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
				Source:  "web",
				Op:      "streamURL",
				Err:     err,
				Code:    datasource.ErrCodeInternal,
				Message: "failed to process fetched PDF",
			}
		}
	}
}

// fetchURL downloads one PDF to a temp file and returns its path along
// with the server's Last-Modified time in RFC 3339 form, when reported.
func (w *WebSource) fetchURL(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", "", &datasource.DataSourceError{
			Source:  "web",
			Op:      "fetchURL",
			Err:     err,
			Code:    datasource.ErrCodeInvalidSource,
			Message: "invalid URL",
		}
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", "", &datasource.DataSourceError{
			Source:  "web",
			Op:      "fetchURL",
			Err:     err,
			Code:    datasource.ErrCodeInternal,
			Message: "failed to fetch URL",
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", &datasource.DataSourceError{
			Source:  "web",
			Op:      "fetchURL",
			Code:    datasource.ErrCodeNotFound,
			Message: "failed to fetch URL: " + resp.Status,
		}
	}

	lastModified := ""
	if header := resp.Header.Get("Last-Modified"); header != "" {
		if t, err := http.ParseTime(header); err == nil {
			lastModified = t.UTC().Format(time.RFC3339)
		}
	}

	tmp, err := os.CreateTemp("", "pdfkb-web-*.pdf")
	if err != nil {
		return "", "", &datasource.DataSourceError{
			Source:  "web",
			Op:      "fetchURL",
			Err:     err,
			Code:    datasource.ErrCodeInternal,
			Message: "failed to create temp file",
		}
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", "", &datasource.DataSourceError{
			Source:  "web",
			Op:      "fetchURL",
			Err:     err,
			Code:    datasource.ErrCodeInternal,
			Message: "failed to read response body",
		}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", "", &datasource.DataSourceError{
			Source:  "web",
			Op:      "fetchURL",
			Err:     err,
			Code:    datasource.ErrCodeInternal,
			Message: "failed to close temp file",
		}
	}

	return tmp.Name(), lastModified, nil
}
