package dupindex_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"docket/internal/dupindex"
	"docket/internal/fileutil"
	"docket/internal/sidecar"
)

func newTestIndex(t *testing.T) (*dupindex.Index, string) {
	t.Helper()
	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return dupindex.New(root, logger), root
}

func writeLibraryFile(t *testing.T, root, rel string, contents []byte) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestRecordAndLookup(t *testing.T) {
	index, _ := newTestIndex(t)

	if err := index.Record("abc123", "10-19 Finance/14 Receipts/14.01 Amazon Invoice 2024.pdf"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	path, found, err := index.Lookup("abc123")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !found || path != "10-19 Finance/14 Receipts/14.01 Amazon Invoice 2024.pdf" {
		t.Fatalf("unexpected lookup result: %q found=%v", path, found)
	}

	if _, found, err := index.Lookup("missing"); err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}
}

func TestCorruptIndexStartsEmpty(t *testing.T) {
	index, root := newTestIndex(t)

	writeLibraryFile(t, root, ".docket/dupindex.json", []byte("{broken"))

	count, err := index.Len()
	if err != nil {
		t.Fatalf("Len must not fail on corrupt index: %v", err)
	}
	if count != 0 {
		t.Fatalf("corrupt index must read as empty, got %d entries", count)
	}
}

func TestRebuildReplacesEntries(t *testing.T) {
	index, root := newTestIndex(t)

	doc := writeLibraryFile(t, root, "10-19 Finance/14 Receipts/14.01 Amazon Invoice 2024.pdf", []byte("invoice bytes"))
	writeLibraryFile(t, root, "10-19 Finance/14 Receipts/14.01 Amazon Invoice 2024.pdf"+sidecar.Suffix, []byte("{}"))
	writeLibraryFile(t, root, "00-09 System/00 Index/jdex.json", []byte("{}"))
	writeLibraryFile(t, root, "10-19 Finance/.hidden.pdf", []byte("hidden"))

	if err := index.Record("stalehash", "gone/file.pdf"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	added, removed, err := index.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if added != 1 || removed != 1 {
		t.Fatalf("expected added=1 removed=1, got added=%d removed=%d", added, removed)
	}

	hash, err := fileutil.HashFile(doc)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	path, found, err := index.Lookup(hash)
	if err != nil || !found {
		t.Fatalf("expected rebuilt entry, found=%v err=%v", found, err)
	}
	if path != "10-19 Finance/14 Receipts/14.01 Amazon Invoice 2024.pdf" {
		t.Fatalf("unexpected rebuilt path %q", path)
	}

	if _, found, _ := index.Lookup("stalehash"); found {
		t.Fatal("stale entry must be dropped by rebuild")
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	index, root := newTestIndex(t)

	writeLibraryFile(t, root, "20-29 Work/21 Contracts/21.01 Acme Contract 2023.pdf", []byte("contract"))

	if _, _, err := index.Rebuild(context.Background()); err != nil {
		t.Fatalf("first Rebuild failed: %v", err)
	}
	added, removed, err := index.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("second Rebuild failed: %v", err)
	}
	if added != 0 || removed != 0 {
		t.Fatalf("second rebuild must be a no-op, got added=%d removed=%d", added, removed)
	}
}
