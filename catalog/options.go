package catalog

import "github.com/google/uuid"

type IDGenerator func() string

// Options contains configuration for the catalog
type Options struct {
	ListLimit  int         // Default limit for ListRuns
	GenerateID IDGenerator // Function to generate run IDs
}

// Option is a function type to modify Options
type Option func(*Options)

// WithListLimit sets the default limit for ListRuns
func WithListLimit(limit int) Option {
	return func(o *Options) {
		o.ListLimit = limit
	}
}

// DefaultIDGenerator generates a UUID string
func DefaultIDGenerator() string {
	return uuid.New().String()
}

// WithGenerateID sets the ID generation function
func WithGenerateID(generator IDGenerator) Option {
	return func(o *Options) {
		o.GenerateID = generator
	}
}

// DefaultOptions returns the default options
func DefaultOptions() *Options {
	return &Options{
		ListLimit:  20,
		GenerateID: DefaultIDGenerator,
	}
}
