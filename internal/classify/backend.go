package classify

import (
	"context"

	"docket/internal/taxonomy"
)

// Backend classifies extracted document text against a taxonomy. Backends
// must be safely callable repeatedly and leave no partial state behind on
// failure.
type Backend interface {
	// Name identifies the backend in configuration and logs.
	Name() string
	// Available reports whether the backend is minimally configured to
	// attempt a classification.
	Available() bool
	// Classify maps extracted text (plus an advisory context hint) onto the
	// taxonomy. Backends apply their own timeouts and surface them as errors.
	Classify(ctx context.Context, text, hint string, t taxonomy.Taxonomy) (Result, error)
}
