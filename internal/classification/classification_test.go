package classification_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"docket/internal/classification"
	"docket/internal/classify"
	"docket/internal/testsupport"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const invoiceText = `Amazon EU
Invoice 4711

Order total: 23.90 EUR
Payment received 2024-03-14. Keep this receipt for your records.`

func TestExecuteClassifiesWithKeywordBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	handler := classification.NewClassifier(cfg, store, quietLogger())

	ctx := context.Background()
	item, err := store.NewFile(ctx, "/inbox/invoice.pdf", "hash-1")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	item.ExtractedText = invoiceText

	if err := handler.Prepare(ctx, item); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := handler.Execute(ctx, item); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var result classify.Result
	if err := json.Unmarshal([]byte(item.ClassificationJSON), &result); err != nil {
		t.Fatalf("decode classification: %v", err)
	}
	if result.JDArea != "10-19 Finance" {
		t.Fatalf("expected Finance area, got %q", result.JDArea)
	}
	if result.JDCategory != "14 Receipts" {
		t.Fatalf("expected Receipts category, got %q", result.JDCategory)
	}
	if result.Issuer != "Amazon EU" {
		t.Fatalf("expected issuer from letterhead, got %q", result.Issuer)
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("expected complete progress, got %v", item.ProgressPercent)
	}
}

func TestExecuteClassifiesEmptyTextAsUncategorized(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	handler := classification.NewClassifier(cfg, store, quietLogger())

	ctx := context.Background()
	item, err := store.NewFile(ctx, "/inbox/empty.pdf", "hash-2")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	item.ExtractedText = "   \n  "

	if err := handler.Execute(ctx, item); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var result classify.Result
	if err := json.Unmarshal([]byte(item.ClassificationJSON), &result); err != nil {
		t.Fatalf("decode classification: %v", err)
	}
	if result.JDCategory != "09 Uncategorized" {
		t.Fatalf("expected uncategorized fallback, got %q", result.JDCategory)
	}
}

func TestHealthCheckReportsBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	handler := classification.NewClassifier(cfg, store, quietLogger())

	health := handler.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("expected healthy classifier, got %q", health.Detail)
	}
}
