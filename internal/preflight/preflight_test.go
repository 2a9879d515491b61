package preflight_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docket/internal/preflight"
	"docket/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Inbox directory", dir)
	if !result.Passed {
		t.Fatalf("existing writable directory should pass: %s", result.Detail)
	}

	missing := preflight.CheckDirectoryAccess("Inbox directory", filepath.Join(dir, "missing"))
	if missing.Passed {
		t.Fatal("missing directory should fail")
	}
	if !strings.Contains(missing.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", missing.Detail)
	}

	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	notDir := preflight.CheckDirectoryAccess("Inbox directory", file)
	if notDir.Passed {
		t.Fatal("regular file should fail directory check")
	}
	if !strings.Contains(notDir.Detail, "is not a directory") {
		t.Fatalf("unexpected detail %q", notDir.Detail)
	}
}

func TestCheckBinary(t *testing.T) {
	testsupport.NewConfig(t, testsupport.WithStubbedBinaries("docket-test-tool"))

	result := preflight.CheckBinary("Test tool", "docket-test-tool")
	if !result.Passed {
		t.Fatalf("stubbed binary should resolve: %s", result.Detail)
	}

	missing := preflight.CheckBinary("Test tool", "docket-definitely-absent")
	if missing.Passed {
		t.Fatal("absent binary should fail")
	}
	if !strings.Contains(missing.Detail, "not found on PATH") {
		t.Fatalf("unexpected detail %q", missing.Detail)
	}

	unset := preflight.CheckBinary("Test tool", "  ")
	if unset.Passed || unset.Detail != "not configured" {
		t.Fatalf("blank command should report not configured, got %+v", unset)
	}
}

func TestRunAllWithKeywordProvider(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Classifier.Provider = "keyword"

	results := preflight.RunAll(context.Background(), cfg)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	names := make(map[string]bool, len(results))
	for _, result := range results {
		names[result.Name] = true
		if !result.Passed {
			t.Fatalf("check %q failed: %s", result.Name, result.Detail)
		}
	}
	for _, want := range []string{"Inbox directory", "Library directory", "Log directory", "Quarantine directory", "PDF text tool", "OCR tool"} {
		if !names[want] {
			t.Fatalf("missing check %q in %v", want, names)
		}
	}
	if names["LLM API"] || names["Classifier CLI"] {
		t.Fatal("keyword provider must not trigger external classifier checks")
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := preflight.RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}
