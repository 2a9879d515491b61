package classify

import (
	"context"
	"log/slog"
	"strings"

	"docket/internal/logging"
	"docket/internal/taxonomy"
)

// Orchestrator dispatches classification over the configured backends with
// ordered fallback to the deterministic keyword backend. Classify never
// returns an error: at worst the caller gets a low-confidence keyword
// result.
type Orchestrator struct {
	provider string
	backends []Backend
	fallback Backend
	logger   *slog.Logger
}

// NewOrchestrator builds the dispatch chain. provider selects a backend by
// name; when empty, the first available backend in the given priority order
// wins. The keyword backend is always the terminal fallback, even when not
// listed.
func NewOrchestrator(provider string, backends []Backend, logger *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		provider: strings.ToLower(strings.TrimSpace(provider)),
		backends: backends,
		fallback: NewKeywordBackend(),
		logger:   logging.NewComponentLogger(logger, "classify"),
	}
	for _, backend := range backends {
		if backend.Name() == o.fallback.Name() {
			o.fallback = backend
			break
		}
	}
	return o
}

// Backend returns the backend Classify would try first.
func (o *Orchestrator) Backend() Backend {
	return o.pick()
}

func (o *Orchestrator) pick() Backend {
	if o.provider != "" {
		for _, backend := range o.backends {
			if backend.Name() == o.provider {
				return backend
			}
		}
		return o.fallback
	}
	for _, backend := range o.backends {
		if backend.Available() {
			return backend
		}
	}
	return o.fallback
}

// Classify runs the selected backend and, on any failure, falls back exactly
// once to the keyword backend for this document. The failing backend is
// never retried within one call, and the failure is logged at low severity
// rather than propagated.
func (o *Orchestrator) Classify(ctx context.Context, text, hint string, t taxonomy.Taxonomy) Result {
	backend := o.pick()

	result, err := backend.Classify(ctx, text, hint, t)
	if err == nil {
		result.Backend = backend.Name()
		return result
	}

	if backend.Name() == o.fallback.Name() {
		// The keyword backend does not fail; guard anyway.
		o.logger.Warn("offline backend returned an error",
			logging.String(logging.FieldBackend, backend.Name()),
			logging.Error(err))
		result = uncategorizedResult(t, "")
		result.Backend = backend.Name()
		return result
	}

	o.logger.Debug("classification backend failed, falling back to keyword matching",
		logging.String(logging.FieldBackend, backend.Name()),
		logging.Error(err))

	result, fallbackErr := o.fallback.Classify(ctx, text, hint, t)
	if fallbackErr != nil {
		result = uncategorizedResult(t, "")
	}
	result.Backend = o.fallback.Name()
	return result
}
