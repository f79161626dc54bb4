package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo represents metadata about a stored object
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
	ContentType  string
	Metadata     map[string]string
}

// DataStore is the archive target for extracted artifacts (page images,
// table JSON files). Keys are flat artifact names.
type DataStore interface {
	Put(ctx context.Context, key string, data io.Reader, options ...PutOption) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Exists(ctx context.Context, key string) (bool, error)

	// GetPresignedGetURL returns a URL a downstream consumer can fetch
	// the artifact from without store credentials
	GetPresignedGetURL(ctx context.Context, key string, expires time.Duration) (PresignedURL, error)
}

// PutOption allows customizing Put operations
type PutOption func(*PutOptions)

// PutOptions contains configuration for Put operations
type PutOptions struct {
	ContentType  string
	Metadata     map[string]string
	CacheControl string
}

// WithContentType sets the content type for the object
func WithContentType(contentType string) PutOption {
	return func(o *PutOptions) {
		o.ContentType = contentType
	}
}

// WithMetadata sets additional metadata for the object
func WithMetadata(metadata map[string]string) PutOption {
	return func(o *PutOptions) {
		o.Metadata = metadata
	}
}

// WithCacheControl sets the Cache-Control header for the object
func WithCacheControl(cacheControl string) PutOption {
	return func(o *PutOptions) {
		o.CacheControl = cacheControl
	}
}

// PresignedURL represents a presigned URL with its associated metadata
type PresignedURL struct {
	URL     string
	Method  string
	Headers map[string]string
}
