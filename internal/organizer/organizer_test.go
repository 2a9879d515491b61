package organizer_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"docket/internal/classify"
	"docket/internal/config"
	"docket/internal/dupindex"
	"docket/internal/fileutil"
	"docket/internal/organizer"
	"docket/internal/queue"
	"docket/internal/sidecar"
	"docket/internal/testsupport"
)

type recordingNotifier struct {
	mu         sync.Mutex
	filed      []string
	duplicates []string
}

func (r *recordingNotifier) NotifyDocumentFiled(ctx context.Context, originalName, finalFile string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filed = append(r.filed, finalFile)
	return nil
}

func (r *recordingNotifier) NotifyDuplicate(ctx context.Context, originalName, existingFile string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.duplicates = append(r.duplicates, existingFile)
	return nil
}

func (r *recordingNotifier) NotifyQueueStarted(context.Context, int) error { return nil }
func (r *recordingNotifier) NotifyQueueCompleted(context.Context, int, int, time.Duration) error {
	return nil
}
func (r *recordingNotifier) NotifyError(context.Context, error, string) error { return nil }
func (r *recordingNotifier) TestNotification(context.Context) error           { return nil }

func newTestOrganizer(t *testing.T) (*config.Config, *queue.Store, *organizer.Organizer, *recordingNotifier) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	org := organizer.NewOrganizerWithDependencies(cfg, store, logger, notifier)
	return cfg, store, org, notifier
}

func enqueueClassified(t *testing.T, cfg *config.Config, store *queue.Store, name, content string, result classify.Result) *queue.Item {
	t.Helper()
	ctx := context.Background()

	source := filepath.Join(cfg.Paths.InboxDir, name)
	if err := os.WriteFile(source, []byte(content), 0o644); err != nil {
		t.Fatalf("write inbox document: %v", err)
	}
	hash, err := fileutil.HashFile(source)
	if err != nil {
		t.Fatalf("hash document: %v", err)
	}
	item, err := store.NewFile(ctx, source, hash)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("encode classification: %v", err)
	}
	item.ClassificationJSON = string(encoded)
	item.ExtractedText = content
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return item
}

func receiptResult() classify.Result {
	return classify.Result{
		JDArea:       "10-19 Finance",
		JDCategory:   "14 Receipts",
		DocumentType: "invoice",
		Issuer:       "Amazon",
		DocumentDate: "2024-03-14",
		Summary:      "Order invoice",
		Confidence:   classify.ConfidenceMedium,
	}
}

func TestExecuteFilesDocumentIntoLibrary(t *testing.T) {
	cfg, store, org, notifier := newTestOrganizer(t)
	ctx := context.Background()

	item := enqueueClassified(t, cfg, store, "scan001.pdf", "order 42 from amazon", receiptResult())
	if err := org.Execute(ctx, item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := filepath.Join(cfg.Paths.LibraryDir, "10-19 Finance", "14 Receipts", "14.01 Amazon invoice 2024.pdf")
	if item.FinalFile != want {
		t.Fatalf("expected final file %q, got %q", want, item.FinalFile)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("filed document missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.InboxDir, "scan001.pdf")); !os.IsNotExist(err) {
		t.Fatal("inbox copy should be gone after filing")
	}

	meta, err := sidecar.Read(want)
	if err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}
	if meta.ID != "14.01" || meta.Issuer != "Amazon" {
		t.Fatalf("sidecar content wrong: %+v", meta)
	}
	if meta.ExtractedText != "order 42 from amazon" {
		t.Fatalf("extracted text not captured: %q", meta.ExtractedText)
	}

	idx := dupindex.New(cfg.Paths.LibraryDir, nil)
	rel, found, err := idx.Lookup(item.ContentHash)
	if err != nil || !found {
		t.Fatalf("filed document not indexed: found=%v err=%v", found, err)
	}
	if !strings.HasSuffix(rel, "14.01 Amazon invoice 2024.pdf") {
		t.Fatalf("unexpected index entry %q", rel)
	}

	if len(notifier.filed) != 1 {
		t.Fatalf("expected 1 filed notification, got %d", len(notifier.filed))
	}
}

func TestExecuteDetectsDuplicate(t *testing.T) {
	cfg, store, org, notifier := newTestOrganizer(t)
	ctx := context.Background()

	first := enqueueClassified(t, cfg, store, "first.pdf", "same content", receiptResult())
	if err := org.Execute(ctx, first); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}

	second := enqueueClassified(t, cfg, store, "resubmitted.pdf", "same content", receiptResult())
	if err := org.Execute(ctx, second); err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}

	if second.Status != queue.StatusDuplicate {
		t.Fatalf("expected duplicate status, got %q", second.Status)
	}
	if second.FinalFile != first.FinalFile {
		t.Fatalf("duplicate should point at the original file, got %q", second.FinalFile)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.InboxDir, "resubmitted.pdf")); !os.IsNotExist(err) {
		t.Fatal("duplicate inbox copy should be removed")
	}

	categoryDir := filepath.Join(cfg.Paths.LibraryDir, "10-19 Finance", "14 Receipts")
	entries, err := os.ReadDir(categoryDir)
	if err != nil {
		t.Fatalf("read category dir: %v", err)
	}
	documents := 0
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), sidecar.Suffix) {
			documents++
		}
	}
	if documents != 1 {
		t.Fatalf("expected exactly one filed document, got %d", documents)
	}

	if len(notifier.duplicates) != 1 {
		t.Fatalf("expected 1 duplicate notification, got %d", len(notifier.duplicates))
	}
}

func TestExecuteKeepsDuplicateInboxCopyWhenConfigured(t *testing.T) {
	cfg, store, org, _ := newTestOrganizer(t)
	cfg.Library.RemoveDuplicateInbox = false
	ctx := context.Background()

	first := enqueueClassified(t, cfg, store, "orig.pdf", "kept content", receiptResult())
	if err := org.Execute(ctx, first); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}

	second := enqueueClassified(t, cfg, store, "again.pdf", "kept content", receiptResult())
	if err := org.Execute(ctx, second); err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.InboxDir, "again.pdf")); err != nil {
		t.Fatalf("inbox copy should remain: %v", err)
	}
}

func TestExecuteRoutesUnknownCategoryToUncategorized(t *testing.T) {
	cfg, store, org, _ := newTestOrganizer(t)
	ctx := context.Background()

	result := receiptResult()
	result.JDCategory = "77 Mystery"
	item := enqueueClassified(t, cfg, store, "odd.pdf", "unrecognized content", result)

	if err := org.Execute(ctx, item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	wantDir := filepath.Join(cfg.Paths.LibraryDir, "00-09 System", "09 Uncategorized")
	if filepath.Dir(item.FinalFile) != wantDir {
		t.Fatalf("expected fallback into %q, got %q", wantDir, item.FinalFile)
	}
}

func TestExecuteLeavesSourceOnUnparsableClassification(t *testing.T) {
	cfg, store, org, _ := newTestOrganizer(t)
	ctx := context.Background()

	item := enqueueClassified(t, cfg, store, "broken.pdf", "content", receiptResult())
	item.ClassificationJSON = "{not json"
	if err := org.Execute(ctx, item); err == nil {
		t.Fatal("expected error for unparsable classification")
	}

	if _, err := os.Stat(filepath.Join(cfg.Paths.InboxDir, "broken.pdf")); err != nil {
		t.Fatalf("inbox copy must survive a filing failure: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.QuarantineDir, "broken.pdf")); !os.IsNotExist(err) {
		t.Fatal("filing failures must not quarantine the document")
	}
}

func TestExecuteLeavesSourceWhenCategoryDirBlocked(t *testing.T) {
	cfg, store, org, _ := newTestOrganizer(t)
	ctx := context.Background()

	// A regular file where the area folder belongs makes MkdirAll fail.
	if err := os.WriteFile(filepath.Join(cfg.Paths.LibraryDir, "10-19 Finance"), []byte("in the way"), 0o644); err != nil {
		t.Fatalf("obstruct area path: %v", err)
	}

	item := enqueueClassified(t, cfg, store, "doc.pdf", "order 42 from amazon", receiptResult())
	if err := org.Execute(ctx, item); err == nil {
		t.Fatal("expected error when the category directory cannot be created")
	}

	if _, err := os.Stat(filepath.Join(cfg.Paths.InboxDir, "doc.pdf")); err != nil {
		t.Fatalf("inbox copy must survive a filing failure: %v", err)
	}
	entries, err := os.ReadDir(cfg.Paths.QuarantineDir)
	if err != nil {
		t.Fatalf("read quarantine dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("quarantine must stay empty on filing failures, found %d entries", len(entries))
	}
}

func TestPreviewDoesNotTouchLibrary(t *testing.T) {
	cfg, store, org, _ := newTestOrganizer(t)
	ctx := context.Background()

	item := enqueueClassified(t, cfg, store, "preview.pdf", "preview content", receiptResult())
	plan, err := org.Preview(ctx, item)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if plan.Duplicate {
		t.Fatal("fresh document must not preview as duplicate")
	}
	if plan.Identifier != "14.01" {
		t.Fatalf("unexpected identifier %q", plan.Identifier)
	}
	if plan.FileName != "14.01 Amazon invoice 2024.pdf" {
		t.Fatalf("unexpected file name %q", plan.FileName)
	}

	if _, err := os.Stat(plan.TargetPath); !os.IsNotExist(err) {
		t.Fatal("preview must not create the target file")
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.InboxDir, "preview.pdf")); err != nil {
		t.Fatalf("preview must leave the inbox copy: %v", err)
	}
}

func TestRepairSidecarsRebuildsMissingSidecar(t *testing.T) {
	cfg, store, org, _ := newTestOrganizer(t)
	ctx := context.Background()

	item := enqueueClassified(t, cfg, store, "filed.pdf", "order 42 from amazon", receiptResult())
	if err := org.Execute(ctx, item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	item.Status = queue.StatusCompleted
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := os.Remove(sidecar.PathFor(item.FinalFile)); err != nil {
		t.Fatalf("remove sidecar: %v", err)
	}

	repaired, err := org.RepairSidecars(ctx)
	if err != nil {
		t.Fatalf("RepairSidecars: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("expected 1 repaired sidecar, got %d", repaired)
	}

	meta, err := sidecar.Read(item.FinalFile)
	if err != nil {
		t.Fatalf("sidecar not rebuilt: %v", err)
	}
	if meta.ID != "14.01" || meta.Issuer != "Amazon" {
		t.Fatalf("rebuilt sidecar content wrong: %+v", meta)
	}
	if meta.ExtractedText != "order 42 from amazon" {
		t.Fatalf("rebuilt sidecar missing text: %q", meta.ExtractedText)
	}
}

func TestRepairSidecarsBackfillsExtractedText(t *testing.T) {
	cfg, store, org, _ := newTestOrganizer(t)
	ctx := context.Background()

	item := enqueueClassified(t, cfg, store, "thin.pdf", "contract terms apply", receiptResult())
	if err := org.Execute(ctx, item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	item.Status = queue.StatusCompleted
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	meta, err := sidecar.Read(item.FinalFile)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	meta.ExtractedText = ""
	if err := sidecar.Write(item.FinalFile, meta); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}

	repaired, err := org.RepairSidecars(ctx)
	if err != nil {
		t.Fatalf("RepairSidecars: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("expected 1 repaired sidecar, got %d", repaired)
	}

	restored, err := sidecar.Read(item.FinalFile)
	if err != nil {
		t.Fatalf("read repaired sidecar: %v", err)
	}
	if restored.ExtractedText != "contract terms apply" {
		t.Fatalf("text not backfilled: %q", restored.ExtractedText)
	}
	if restored.Issuer != "Amazon" {
		t.Fatalf("amend must not disturb other keys: %+v", restored)
	}

	again, err := org.RepairSidecars(ctx)
	if err != nil {
		t.Fatalf("second RepairSidecars: %v", err)
	}
	if again != 0 {
		t.Fatalf("repair must be idempotent, repaired %d", again)
	}
}

func TestSecondGroupKeyGetsNextIdentifier(t *testing.T) {
	cfg, store, org, _ := newTestOrganizer(t)
	ctx := context.Background()

	first := enqueueClassified(t, cfg, store, "a.pdf", "content a", receiptResult())
	if err := org.Execute(ctx, first); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}

	other := receiptResult()
	other.Issuer = "Deutsche Bahn"
	second := enqueueClassified(t, cfg, store, "b.pdf", "content b", other)
	if err := org.Execute(ctx, second); err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}

	if base := filepath.Base(second.FinalFile); !strings.HasPrefix(base, "14.02 ") {
		t.Fatalf("expected new sequence 14.02, got %q", base)
	}
}
