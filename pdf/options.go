package pdf

import "github.com/pdfkb/pdfkb/storage"

// Options contains configuration for the processor
type Options struct {
	// ImageDir is the directory extracted images are written to
	ImageDir string
	// TableDir is the directory extracted tables are written to as JSON
	// files. Empty means tables are only embedded in record metadata.
	TableDir string
	// Metadata is extra metadata merged into every emitted record
	Metadata map[string]interface{}
	// EmbedTitles wraps detected headings in HTML heading markup inside
	// the page content
	EmbedTitles bool
	// ExtractImages decodes base64 page images and saves them to ImageDir
	ExtractImages bool
	// SkipFailedPages continues with the next page when one page fails
	// instead of aborting the whole sequence
	SkipFailedPages bool
	// Archive, when set, receives a copy of every saved artifact
	Archive storage.DataStore
}

// Option is a function type to modify Options
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		ImageDir: "./pdf_images",
	}
}

// WithImageDir sets the directory extracted images are saved to
func WithImageDir(dir string) Option {
	return func(o *Options) {
		o.ImageDir = dir
	}
}

// WithTableDir sets a directory to write extracted tables to as JSON files
func WithTableDir(dir string) Option {
	return func(o *Options) {
		o.TableDir = dir
	}
}

// WithMetadata sets extra metadata merged into every emitted record
func WithMetadata(metadata map[string]interface{}) Option {
	return func(o *Options) {
		o.Metadata = metadata
	}
}

// WithEmbedTitles sets whether detected headings are wrapped in HTML
// heading markup inside the page content
func WithEmbedTitles(embed bool) Option {
	return func(o *Options) {
		o.EmbedTitles = embed
	}
}

// WithImageExtraction sets whether embedded page images are decoded and
// saved to the image directory
func WithImageExtraction(extract bool) Option {
	return func(o *Options) {
		o.ExtractImages = extract
	}
}

// WithSkipFailedPages sets whether a failing page is skipped rather than
// aborting the sequence
func WithSkipFailedPages(skip bool) Option {
	return func(o *Options) {
		o.SkipFailedPages = skip
	}
}

// WithArchive mirrors every saved image and table file to the given store
func WithArchive(store storage.DataStore) Option {
	return func(o *Options) {
		o.Archive = store
	}
}
