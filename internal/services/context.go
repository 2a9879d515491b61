package services

import "context"

// Scope carries the pipeline coordinates of the work a context belongs to.
// It travels as a single value so annotating one field copies the others.
type Scope struct {
	ItemID    int64
	Stage     string
	RequestID string
}

type scopeKey struct{}

func scopeFrom(ctx context.Context) Scope {
	if s, ok := ctx.Value(scopeKey{}).(Scope); ok {
		return s
	}
	return Scope{}
}

// WithItemID annotates context with the queue item identifier.
func WithItemID(ctx context.Context, id int64) context.Context {
	s := scopeFrom(ctx)
	s.ItemID = id
	return context.WithValue(ctx, scopeKey{}, s)
}

// ItemIDFromContext extracts the queue item identifier if present.
func ItemIDFromContext(ctx context.Context) (int64, bool) {
	s := scopeFrom(ctx)
	return s.ItemID, s.ItemID != 0
}

// WithStage annotates context with the workflow stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	s := scopeFrom(ctx)
	s.Stage = stage
	return context.WithValue(ctx, scopeKey{}, s)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	s := scopeFrom(ctx)
	return s.Stage, s.Stage != ""
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	s := scopeFrom(ctx)
	s.RequestID = id
	return context.WithValue(ctx, scopeKey{}, s)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	s := scopeFrom(ctx)
	return s.RequestID, s.RequestID != ""
}
