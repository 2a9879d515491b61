package classify_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"docket/internal/classify"
	"docket/internal/taxonomy"
)

type scriptedBackend struct {
	name      string
	available bool
	result    classify.Result
	err       error
	calls     int
}

func (b *scriptedBackend) Name() string    { return b.name }
func (b *scriptedBackend) Available() bool { return b.available }
func (b *scriptedBackend) Classify(context.Context, string, string, taxonomy.Taxonomy) (classify.Result, error) {
	b.calls++
	return b.result, b.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOrchestratorUsesProviderBackend(t *testing.T) {
	preferred := &scriptedBackend{
		name:      "llm",
		available: true,
		result:    classify.Result{JDArea: "10-19 Finance", JDCategory: "14 Receipts", Confidence: classify.ConfidenceHigh},
	}
	other := &scriptedBackend{name: "cli", available: true}
	o := classify.NewOrchestrator("llm", []classify.Backend{other, preferred}, quietLogger())

	result := o.Classify(context.Background(), "some text", "", taxonomy.Defaults())
	if result.Backend != "llm" {
		t.Fatalf("expected llm backend, got %q", result.Backend)
	}
	if preferred.calls != 1 || other.calls != 0 {
		t.Fatalf("expected only the configured provider to run, calls llm=%d cli=%d", preferred.calls, other.calls)
	}
}

func TestOrchestratorAutoPicksFirstAvailable(t *testing.T) {
	unavailable := &scriptedBackend{name: "llm", available: false}
	available := &scriptedBackend{
		name: "cli", available: true,
		result: classify.Result{JDCategory: "14 Receipts"},
	}
	o := classify.NewOrchestrator("", []classify.Backend{unavailable, available}, quietLogger())

	result := o.Classify(context.Background(), "text", "", taxonomy.Defaults())
	if result.Backend != "cli" {
		t.Fatalf("expected first available backend, got %q", result.Backend)
	}
	if unavailable.calls != 0 {
		t.Fatal("unavailable backend must not be called")
	}
}

func TestOrchestratorFallsBackToKeywordOnFailure(t *testing.T) {
	failing := &scriptedBackend{name: "llm", available: true, err: errors.New("api down")}
	o := classify.NewOrchestrator("llm", []classify.Backend{failing}, quietLogger())

	result := o.Classify(context.Background(), "Amazon invoice order total payment", "", taxonomy.Defaults())
	if result.Backend != "keyword" {
		t.Fatalf("expected keyword fallback, got %q", result.Backend)
	}
	if failing.calls != 1 {
		t.Fatalf("failing backend must be tried exactly once, got %d calls", failing.calls)
	}
	if result.JDCategory == "" {
		t.Fatal("fallback must still produce a category")
	}
}

func TestOrchestratorNeverFails(t *testing.T) {
	failing := &scriptedBackend{name: "llm", available: true, err: errors.New("boom")}
	o := classify.NewOrchestrator("llm", []classify.Backend{failing}, quietLogger())

	// Even with no usable text the chain terminates in a result.
	result := o.Classify(context.Background(), "", "", taxonomy.Defaults())
	if result.JDCategory != taxonomy.UncategorizedLabel {
		t.Fatalf("expected uncategorized bucket, got %q", result.JDCategory)
	}
	if result.Confidence != classify.ConfidenceLow {
		t.Fatalf("expected low confidence, got %q", result.Confidence)
	}
}

func TestKeywordBackendMatchesReceipts(t *testing.T) {
	backend := classify.NewKeywordBackend()
	text := "Amazon EU S.a.r.l.\nInvoice\nOrder 123-456\nPayment received 2024-03-14\nTotal EUR 42.00"

	result, err := backend.Classify(context.Background(), text, "amazon_invoice.pdf", taxonomy.Defaults())
	if err != nil {
		t.Fatalf("keyword backend must not fail: %v", err)
	}
	if result.JDCategory != "14 Receipts" {
		t.Fatalf("expected receipts category, got %q", result.JDCategory)
	}
	if !strings.HasPrefix(result.Issuer, "Amazon") {
		t.Fatalf("expected issuer from letterhead, got %q", result.Issuer)
	}
	if result.DocumentDate != "2024-03-14" {
		t.Fatalf("expected ISO date extracted, got %q", result.DocumentDate)
	}
	if result.Confidence != classify.ConfidenceMedium {
		t.Fatalf("expected medium confidence for strong match, got %q", result.Confidence)
	}
}

func TestKeywordBackendMatchesInsurance(t *testing.T) {
	backend := classify.NewKeywordBackend()
	text := "TK Techniker Krankenkasse\nYour insurance policy premium for coverage year 2024"

	result, err := backend.Classify(context.Background(), text, "", taxonomy.Defaults())
	if err != nil {
		t.Fatalf("keyword backend must not fail: %v", err)
	}
	if result.JDCategory != "13 Insurance" {
		t.Fatalf("expected insurance category, got %q", result.JDCategory)
	}
}

func TestKeywordBackendRoutesUnknownToUncategorized(t *testing.T) {
	backend := classify.NewKeywordBackend()

	result, err := backend.Classify(context.Background(), "zzz qqq xxx", "", taxonomy.Defaults())
	if err != nil {
		t.Fatalf("keyword backend must not fail: %v", err)
	}
	if result.JDCategory != taxonomy.UncategorizedLabel {
		t.Fatalf("expected uncategorized, got %q", result.JDCategory)
	}
}

func TestKeywordBackendUsesHintWhenTextIsWeak(t *testing.T) {
	backend := classify.NewKeywordBackend()

	result, err := backend.Classify(context.Background(), "scan page one", "rechnung_amazon.pdf", taxonomy.Defaults())
	if err != nil {
		t.Fatalf("keyword backend must not fail: %v", err)
	}
	if result.JDCategory != "14 Receipts" {
		t.Fatalf("expected hint to route to receipts, got %q", result.JDCategory)
	}
}

func TestCategoryNumber(t *testing.T) {
	r := classify.Result{JDCategory: "14 Receipts"}
	if n, ok := r.CategoryNumber(); !ok || n != 14 {
		t.Fatalf("unexpected category number %d ok=%v", n, ok)
	}
	r.JDCategory = "14"
	if n, ok := r.CategoryNumber(); !ok || n != 14 {
		t.Fatalf("bare number must parse, got %d ok=%v", n, ok)
	}
	r.JDCategory = "Receipts"
	if _, ok := r.CategoryNumber(); ok {
		t.Fatal("expected non-numeric category to be rejected")
	}
}
