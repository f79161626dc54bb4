package kb

import (
	"github.com/pdfkb/pdfkb/catalog"
	"github.com/pdfkb/pdfkb/vectorstore"
)

// Options contains configuration for the knowledge base
type Options struct {
	Namespace      string
	ScoreThreshold float32
	Filters        vectorstore.Filter
	TopK           int
	Catalog        *catalog.Catalog // Optional run bookkeeping
}

// Option is a function type to modify Options
type Option func(*Options)

// Default options
func defaultOptions() *Options {
	return &Options{
		ScoreThreshold: 0.0,
		TopK:           4,
		Catalog:        nil, // Default to no catalog
	}
}

// WithNamespace sets the namespace for the knowledge base
func WithNamespace(namespace string) Option {
	return func(o *Options) {
		o.Namespace = namespace
	}
}

// WithScoreThreshold sets the minimum similarity score threshold
func WithScoreThreshold(threshold float32) Option {
	return func(o *Options) {
		o.ScoreThreshold = threshold
	}
}

// WithFilters sets default filters for queries
func WithFilters(filters vectorstore.Filter) Option {
	return func(o *Options) {
		o.Filters = filters
	}
}

// WithTopK sets the number of similar documents to retrieve
func WithTopK(k int) Option {
	return func(o *Options) {
		o.TopK = k
	}
}

// WithCatalog records sync runs in the given catalog
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *Options) {
		o.Catalog = c
	}
}
