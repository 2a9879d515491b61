package queue_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"docket/internal/queue"
	"docket/internal/testsupport"
)

func TestOpenAppliesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	source := filepath.Join(cfg.Paths.InboxDir, "invoice.pdf")
	item, err := store.NewFile(ctx, source, "hash-1")
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}
	if item.OriginalName != "invoice.pdf" {
		t.Fatalf("unexpected original name %q", item.OriginalName)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.ContentHash != "hash-1" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}

	found, err := store.FindBySourcePath(ctx, source)
	if err != nil {
		t.Fatalf("FindBySourcePath failed: %v", err)
	}
	if found == nil || found.ID != item.ID {
		t.Fatalf("expected to find inserted item, got %#v", found)
	}
}

func TestFindBySourcePathStatusFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	source := filepath.Join(cfg.Paths.InboxDir, "statement.pdf")
	item, err := store.NewFile(ctx, source, "hash-filter")
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	item.Status = queue.StatusCompleted
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	active, err := store.FindBySourcePath(ctx, source, queue.ActiveStatuses()...)
	if err != nil {
		t.Fatalf("FindBySourcePath failed: %v", err)
	}
	if active != nil {
		t.Fatalf("expected no active item, got %#v", active)
	}

	any, err := store.FindBySourcePath(ctx, source)
	if err != nil {
		t.Fatalf("FindBySourcePath failed: %v", err)
	}
	if any == nil || any.Status != queue.StatusCompleted {
		t.Fatalf("expected completed item, got %#v", any)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	statuses := []queue.Status{queue.StatusExtracting, queue.StatusClassifying, queue.StatusFiling}
	var ids []int64
	for i, status := range statuses {
		source := filepath.Join(cfg.Paths.InboxDir, fmt.Sprintf("doc-%d.pdf", i))
		item, err := store.NewFile(ctx, source, fmt.Sprintf("hash-reset-%d", i))
		if err != nil {
			t.Fatalf("NewFile failed: %v", err)
		}
		item.Status = status
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if int(count) != len(statuses) {
		t.Fatalf("expected %d items reset, got %d", len(statuses), count)
	}
	for _, id := range ids {
		updated, err := store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status != queue.StatusPending {
			t.Fatalf("expected pending after reset, got %s", updated.Status)
		}
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stale, err := store.NewFile(ctx, filepath.Join(cfg.Paths.InboxDir, "stale.pdf"), "hash-stale")
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	stale.Status = queue.StatusExtracting
	old := time.Now().Add(-time.Hour)
	stale.LastHeartbeat = &old
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fresh, err := store.NewFile(ctx, filepath.Join(cfg.Paths.InboxDir, "fresh.pdf"), "hash-fresh")
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	fresh.Status = queue.StatusClassifying
	now := time.Now()
	fresh.LastHeartbeat = &now
	if err := store.Update(ctx, fresh); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reclaimed item, got %d", count)
	}

	reclaimed, err := store.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if reclaimed.Status != queue.StatusPending {
		t.Fatalf("expected stale item back in pending, got %s", reclaimed.Status)
	}
	kept, err := store.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if kept.Status != queue.StatusClassifying {
		t.Fatalf("expected fresh item untouched, got %s", kept.Status)
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	var failedIDs []int64
	for i := 0; i < 2; i++ {
		item, err := store.NewFile(ctx, filepath.Join(cfg.Paths.InboxDir, fmt.Sprintf("failed-%d.pdf", i)), fmt.Sprintf("hash-failed-%d", i))
		if err != nil {
			t.Fatalf("NewFile failed: %v", err)
		}
		item.SetFailed("extraction blew up")
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		failedIDs = append(failedIDs, item.ID)
	}
	completed, err := store.NewFile(ctx, filepath.Join(cfg.Paths.InboxDir, "done.pdf"), "hash-done")
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	completed.Status = queue.StatusCompleted
	if err := store.Update(ctx, completed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	updated, err := store.RetryFailed(ctx, failedIDs[0])
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 item retried, got %d", updated)
	}
	first, err := store.GetByID(ctx, failedIDs[0])
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if first.Status != queue.StatusPending || first.ErrorMessage != "" {
		t.Fatalf("expected clean pending item, got status=%s error=%q", first.Status, first.ErrorMessage)
	}

	updated, err = store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected remaining failed item retried, got %d", updated)
	}

	untouched, err := store.GetByID(ctx, completed.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if untouched.Status != queue.StatusCompleted {
		t.Fatalf("completed item must not be retried, got %s", untouched.Status)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	specs := map[string]queue.Status{
		"a.pdf": queue.StatusPending,
		"b.pdf": queue.StatusExtracting,
		"c.pdf": queue.StatusCompleted,
		"d.pdf": queue.StatusDuplicate,
		"e.pdf": queue.StatusFailed,
	}
	i := 0
	for name, status := range specs {
		item, err := store.NewFile(ctx, filepath.Join(cfg.Paths.InboxDir, name), fmt.Sprintf("hash-stats-%d", i))
		if err != nil {
			t.Fatalf("NewFile failed: %v", err)
		}
		i++
		if status == queue.StatusPending {
			continue
		}
		item.Status = status
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatusPending] != 1 || stats[queue.StatusCompleted] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 5 || health.Processing != 1 || health.Duplicate != 1 || health.Failed != 1 {
		t.Fatalf("unexpected health: %#v", health)
	}
}

func TestClearCompletedKeepsActive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	pending, err := store.NewFile(ctx, filepath.Join(cfg.Paths.InboxDir, "pending.pdf"), "hash-p")
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	for i, status := range []queue.Status{queue.StatusCompleted, queue.StatusDuplicate} {
		item, err := store.NewFile(ctx, filepath.Join(cfg.Paths.InboxDir, fmt.Sprintf("filed-%d.pdf", i)), fmt.Sprintf("hash-t-%d", i))
		if err != nil {
			t.Fatalf("NewFile failed: %v", err)
		}
		item.Status = status
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	removed, err := store.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	remaining, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != pending.ID {
		t.Fatalf("expected only pending item to remain, got %#v", remaining)
	}
}

func TestNextForStatusesOrdersByCreation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first, err := store.NewFile(ctx, filepath.Join(cfg.Paths.InboxDir, "first.pdf"), "hash-first")
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	if _, err := store.NewFile(ctx, filepath.Join(cfg.Paths.InboxDir, "second.pdf"), "hash-second"); err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}

	next, err := store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest pending item, got %#v", next)
	}
}
