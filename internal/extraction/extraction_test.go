package extraction_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docket/internal/config"
	"docket/internal/extraction"
	"docket/internal/queue"
	"docket/internal/services"
	"docket/internal/testsupport"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newExtractor(t *testing.T, cfg *config.Config) *extraction.Extractor {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	return extraction.NewExtractor(cfg, store, quietLogger())
}

func TestExecuteReadsPlainText(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	extractor := newExtractor(t, cfg)

	source := filepath.Join(cfg.Paths.InboxDir, "note.txt")
	if err := os.WriteFile(source, []byte("Invoice from Amazon\nTotal 42.00"), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}

	item := &queue.Item{SourcePath: source, OriginalName: "note.txt"}
	if err := extractor.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := extractor.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(item.ExtractedText, "Invoice from Amazon") {
		t.Fatalf("extracted text missing content: %q", item.ExtractedText)
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("expected completed progress, got %v", item.ProgressPercent)
	}
}

func TestExecuteMissingSourceFailsValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	extractor := newExtractor(t, cfg)

	item := &queue.Item{SourcePath: filepath.Join(cfg.Paths.InboxDir, "gone.txt")}
	err := extractor.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteQuarantinesOnToolFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	// A tool that never exists forces the extraction failure path.
	cfg.Extraction.PDFTool = "docket-no-such-tool"
	extractor := newExtractor(t, cfg)

	source := filepath.Join(cfg.Paths.InboxDir, "scan.pdf")
	if err := os.WriteFile(source, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}

	item := &queue.Item{SourcePath: source, OriginalName: "scan.pdf"}
	err := extractor.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected error for failing tool")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(cfg.Paths.QuarantineDir, "scan.pdf")); statErr != nil {
		t.Fatalf("document not quarantined: %v", statErr)
	}
	if _, statErr := os.Stat(source); !os.IsNotExist(statErr) {
		t.Fatal("inbox copy should be gone after quarantine")
	}
}

func TestHealthCheckReportsMissingTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	extractor := newExtractor(t, cfg)

	health := extractor.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("stubbed tools should be healthy: %s", health.Detail)
	}

	cfg.Extraction.OCRTool = "docket-absent-ocr"
	broken := newExtractor(t, cfg)
	health = broken.HealthCheck(context.Background())
	if health.Ready {
		t.Fatal("missing OCR tool should be unhealthy")
	}
	if !strings.Contains(health.Detail, "docket-absent-ocr") {
		t.Fatalf("detail should name the missing tool: %s", health.Detail)
	}
}
