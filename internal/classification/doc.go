// Package classification implements the workflow stage that assigns a
// taxonomy category to extracted document text.
//
// The stage asks the classify orchestrator for a result, which in turn picks
// the configured backend or falls back to offline keyword matching. The stage
// never fails an item over backend trouble; the worst outcome is a low
// confidence routing to the uncategorized bucket.
package classification
