package s3source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pdfkb/pdfkb/datasource"
	"github.com/pdfkb/pdfkb/pdf"
)

// S3Source streams document records from PDF objects stored under an S3
// prefix. Each object is downloaded to a temporary file, processed, and
// removed again.
type S3Source struct {
	client   *s3.Client
	bucket   string
	prefix   string
	procOpts []pdf.Option
}

func NewS3Source(client *s3.Client, bucket, prefix string, procOpts ...pdf.Option) *S3Source {
	return &S3Source{
		client:   client,
		bucket:   bucket,
		prefix:   prefix,
		procOpts: procOpts,
	}
}

func (s *S3Source) Load(ctx context.Context, opts ...datasource.Option) ([]datasource.Document, error) {
	return datasource.Drain(s.Stream(ctx, opts...))
}

func (s *S3Source) Stream(ctx context.Context, opts ...datasource.Option) (<-chan datasource.Document, <-chan error) {
	options := &datasource.LoadOptions{}
	for _, opt := range opts {
		opt(options)
	}

	docCh := make(chan datasource.Document)
	errCh := make(chan error, 1)

	go func() {
		defer close(docCh)

		input := &s3.ListObjectsV2Input{
			Bucket: &s.bucket,
			Prefix: &s.prefix,
		}

		emitted := 0
		paginator := s3.NewListObjectsV2Paginator(s.client, input)

		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				errCh <- &datasource.DataSourceError{
					Source:  "s3",
					Op:      "Stream",
					Err:     err,
					Code:    datasource.ErrCodeInternal,
					Message: "failed to list objects",
				}
				return
			}

			for _, obj := range page.Contents {
				if options.MaxItems > 0 && emitted >= options.MaxItems {
					return
				}
				if !strings.EqualFold(filepath.Ext(*obj.Key), ".pdf") {
					continue
				}
				if !options.Recursive && filepath.Dir(*obj.Key) != strings.TrimSuffix(s.prefix, "/") {
					continue
				}

				lastModified := obj.LastModified.UTC().Format(time.RFC3339)
				metadata := map[string]interface{}{
					"key":           *obj.Key,
					"last_modified": lastModified,
					"size":          *obj.Size,
					"etag":          *obj.ETag,
				}
				if options.Filter != nil && !options.Filter(metadata) {
					continue
				}

				if err := s.streamObject(ctx, *obj.Key, lastModified, options, &emitted, docCh); err != nil {
					errCh <- err
					return
				}
			}
		}
	}()

	return docCh, errCh
}

// streamObject downloads one PDF object to a temp file and forwards its
// records. The temp file is removed when processing finishes. Each record
// carries the object's last-modified time so consumers can detect
// already-indexed documents.
func (s *S3Source) streamObject(ctx context.Context, key, lastModified string, options *datasource.LoadOptions, emitted *int, docCh chan<- datasource.Document) error {
	path, err := s.download(ctx, key)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	proc, err := pdf.NewProcessor(path, s.procOpts...)
	if err != nil {
		return &datasource.DataSourceError{
			Source:  "s3",
			Op:      "streamObject",
			Err:     err,
			Code:    datasource.ErrCodeInvalidFormat,
			Message: "failed to open PDF object",
		}
	}
	defer proc.Close()

	source := "s3://" + s.bucket + "/" + key

	pageCh, procErrCh := proc.Process(ctx)
	for {
		select {
		case rec, ok := <-pageCh:
			if !ok {
				select {
				case err := <-procErrCh:
					return &datasource.DataSourceError{
						Source:  "s3",
						Op:      "streamObject",
						Err:     err,
						Code:    datasource.ErrCodeInternal,
						Message: "failed to process PDF object",
					}
				default:
					return nil
				}
			}
			rec.Metadata["source"] = source
			rec.Metadata["last_modified"] = lastModified
			doc := datasource.Document{
				Content:  rec.PageContent,
				Metadata: rec.Metadata,
				Source:   source,
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
				Source:  "s3",
				Op:      "streamObject",
				Err:     err,
				Code:    datasource.ErrCodeInternal,
				Message: "failed to process PDF object",
			}
		}
	}
}

func (s *S3Source) download(ctx context.Context, key string) (string, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return "", &datasource.DataSourceError{
			Source:  "s3",
			Op:      "download",
			Err:     err,
			Code:    datasource.ErrCodeInternal,
			Message: "failed to get object",
		}
	}
	defer result.Body.Close()

	tmp, err := os.CreateTemp("", "pdfkb-s3-*.pdf")
	if err != nil {
		return "", &datasource.DataSourceError{
			Source:  "s3",
			Op:      "download",
			Err:     err,
			Code:    datasource.ErrCodeInternal,
			Message: "failed to create temp file",
		}
	}

	if _, err := io.Copy(tmp, result.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", &datasource.DataSourceError{
			Source:  "s3",
			Op:      "download",
			Err:     err,
			Code:    datasource.ErrCodeInternal,
			Message: "failed to write temp file",
		}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", &datasource.DataSourceError{
			Source:  "s3",
			Op:      "download",
			Err:     err,
			Code:    datasource.ErrCodeInternal,
			Message: "failed to close temp file",
		}
	}

	return tmp.Name(), nil
}
