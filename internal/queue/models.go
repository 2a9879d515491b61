package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending     Status = "pending"
	StatusExtracting  Status = "extracting"
	StatusExtracted   Status = "extracted"
	StatusClassifying Status = "classifying"
	StatusClassified  Status = "classified"
	StatusFiling      Status = "filing"
	StatusCompleted   Status = "completed"
	StatusDuplicate   Status = "duplicate"
	StatusFailed      Status = "failed"
)

// DaemonStopReason is the error message set when items are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusExtracting,
	StatusExtracted,
	StatusClassifying,
	StatusClassified,
	StatusFiling,
	StatusCompleted,
	StatusDuplicate,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusExtracting:  {},
	StatusClassifying: {},
	StatusFiling:      {},
}

// ActiveStatuses returns the statuses of items still moving through the
// workflow. Inbox scanning uses this set to avoid enqueueing a document twice.
func ActiveStatuses() []Status {
	return []Status{
		StatusPending,
		StatusExtracting,
		StatusExtracted,
		StatusClassifying,
		StatusClassified,
		StatusFiling,
	}
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Duplicate  int
	Completed  int
}

// Item represents a queue item persisted in SQLite. The ledger tracks
// processing progress only; the organized library and its sidecars remain
// the source of truth for filed documents.
type Item struct {
	ID                 int64
	SourcePath         string
	OriginalName       string
	ContentHash        string
	Status             Status
	ExtractedText      string
	ClassificationJSON string
	FinalFile          string
	ErrorMessage       string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ProgressStage      string
	ProgressPercent    float64
	ProgressMessage    string
	LastHeartbeat      *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether a status ends the item's workflow.
func IsTerminal(status Status) bool {
	switch status {
	case StatusCompleted, StatusDuplicate, StatusFailed:
		return true
	default:
		return false
	}
}

// InitProgress resets progress fields for a new stage.
func (i *Item) InitProgress(stage, message string) {
	if i.ProgressStage == "" {
		i.ProgressStage = stage
	}
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message.
// Clears heartbeat and sets progress fields appropriately.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}
