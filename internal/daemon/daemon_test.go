package daemon_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"docket/internal/config"
	"docket/internal/daemon"
	"docket/internal/queue"
	"docket/internal/stage"
	"docket/internal/testsupport"
	"docket/internal/workflow"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type idleHandler struct{ name string }

func (h idleHandler) Prepare(context.Context, *queue.Item) error { return nil }
func (h idleHandler) Execute(context.Context, *queue.Item) error { return nil }
func (h idleHandler) HealthCheck(context.Context) stage.Health   { return stage.Healthy(h.name) }

func newTestDaemon(t *testing.T) (*config.Config, *queue.Store, *daemon.Daemon) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := quietLogger()
	wf := workflow.NewManager(cfg, store, logger)
	wf.ConfigureStages(workflow.StageSet{
		Extractor:  idleHandler{name: "extractor"},
		Classifier: idleHandler{name: "classifier"},
		Organizer:  idleHandler{name: "organizer"},
	})
	d, err := daemon.New(cfg, store, logger, wf)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return cfg, store, d
}

func writeInboxFile(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	path := filepath.Join(cfg.Paths.InboxDir, name)
	if err := os.WriteFile(path, []byte("content of "+name), 0o644); err != nil {
		t.Fatalf("write inbox file: %v", err)
	}
	return path
}

func TestAddFileEnqueuesDocument(t *testing.T) {
	cfg, _, d := newTestDaemon(t)
	path := writeInboxFile(t, cfg, "statement.pdf")

	item, err := d.AddFile(context.Background(), path)
	if err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	if item.SourcePath != path {
		t.Fatalf("unexpected source path %q", item.SourcePath)
	}
	if item.OriginalName != "statement.pdf" {
		t.Fatalf("unexpected original name %q", item.OriginalName)
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("new item should be pending, got %q", item.Status)
	}
	if item.ContentHash == "" {
		t.Fatal("content hash must be recorded at enqueue time")
	}
}

func TestAddFileDeduplicatesActiveItems(t *testing.T) {
	cfg, _, d := newTestDaemon(t)
	path := writeInboxFile(t, cfg, "statement.pdf")
	ctx := context.Background()

	first, err := d.AddFile(ctx, path)
	if err != nil {
		t.Fatalf("first AddFile failed: %v", err)
	}
	second, err := d.AddFile(ctx, path)
	if err != nil {
		t.Fatalf("second AddFile failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the existing item back, got #%d and #%d", first.ID, second.ID)
	}
}

func TestAddFileRejectsUnsupportedAndInvalidPaths(t *testing.T) {
	cfg, _, d := newTestDaemon(t)
	ctx := context.Background()

	if _, err := d.AddFile(ctx, writeInboxFile(t, cfg, "archive.zip")); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	if _, err := d.AddFile(ctx, cfg.Paths.InboxDir); err == nil {
		t.Fatal("expected error for directory path")
	}
	if _, err := d.AddFile(ctx, filepath.Join(cfg.Paths.InboxDir, "missing.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := d.AddFile(ctx, "   "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestScannerPicksUpSupportedDocuments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := quietLogger()

	writeInboxFile(t, cfg, "invoice.pdf")
	writeInboxFile(t, cfg, "archive.zip")
	writeInboxFile(t, cfg, ".hidden.pdf")

	scanner := daemon.NewScanner(cfg, store, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scanner.Start(ctx)
	defer scanner.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for {
		items, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(items) == 1 {
			if items[0].OriginalName != "invoice.pdf" {
				t.Fatalf("unexpected queued document %q", items[0].OriginalName)
			}
			return
		}
		if len(items) > 1 {
			t.Fatalf("unsupported or hidden files queued: %d items", len(items))
		}
		if time.Now().After(deadline) {
			t.Fatal("scanner did not enqueue the inbox document in time")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestScannerSkipsActiveItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	path := writeInboxFile(t, cfg, "pending.pdf")
	if _, err := store.NewFile(ctx, path, "preexisting-hash"); err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	scanner := daemon.NewScanner(cfg, store, quietLogger())
	runCtx, cancel := context.WithCancel(ctx)
	scanner.Start(runCtx)
	time.Sleep(300 * time.Millisecond)
	cancel()
	scanner.Stop()

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("active item must not be requeued, got %d items", len(items))
	}
}

func TestDaemonStartStop(t *testing.T) {
	_, _, d := newTestDaemon(t)
	t.Cleanup(func() { d.Stop() })

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("status should report running")
	}
	if status.PID != os.Getpid() {
		t.Fatalf("unexpected pid %d", status.PID)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("second Start should fail while running")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("status should report stopped after Stop")
	}
}
