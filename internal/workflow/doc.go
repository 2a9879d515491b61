// Package workflow advances queue items through the configured processing
// stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// items into registered stage handlers (extractor, classifier, organizer)
// while capturing progress and failure metadata. It also aggregates queue
// stats, calls stage health checks, and emits queue-level notifications when
// processing starts or completes.
//
// Items advance strictly pending -> extracting -> extracted -> classifying ->
// classified -> filing -> completed, with duplicate and failed as the other
// terminal outcomes. RunOnce drains the queue synchronously for the one-shot
// CLI path; Start runs the same loop in the background for the daemon.
//
// Add new lifecycle stages by extending StageSet, updating the queue status
// enums, and teaching the manager how to transition items; this package is the
// authoritative home for that coordination logic.
package workflow
