package sidecar_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docket/internal/sidecar"
)

func testDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "14.01 Amazon Invoice 2024.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return path
}

func TestPathFor(t *testing.T) {
	got := sidecar.PathFor("/lib/14.01 Invoice.pdf")
	if got != "/lib/14.01 Invoice.pdf.meta.json" {
		t.Fatalf("unexpected sidecar path %q", got)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	doc := testDocument(t)
	date := "2024-03-14"
	meta := sidecar.Metadata{
		ID:           "14.01",
		JDArea:       "10-19 Finance",
		JDCategory:   "14 Receipts",
		DocumentType: "invoice",
		Issuer:       "Amazon",
		DocumentDate: &date,
		Tags:         []string{"order"},
		Summary:      "Quarterly invoice",
	}

	if err := sidecar.Write(doc, meta); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	loaded, err := sidecar.Read(doc)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if loaded.ID != "14.01" || loaded.Issuer != "Amazon" {
		t.Fatalf("round trip lost fields: %+v", loaded)
	}
	if loaded.DocumentDate == nil || *loaded.DocumentDate != "2024-03-14" {
		t.Fatalf("document date not preserved: %v", loaded.DocumentDate)
	}
	if loaded.SubjectPerson != nil {
		t.Fatalf("expected nil subject person, got %v", *loaded.SubjectPerson)
	}
}

func TestWriteNormalizesNilTags(t *testing.T) {
	doc := testDocument(t)
	if err := sidecar.Write(doc, sidecar.Metadata{ID: "11.01"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(sidecar.PathFor(doc))
	if err != nil {
		t.Fatalf("read sidecar file: %v", err)
	}
	if strings.Contains(string(data), `"tags": null`) {
		t.Fatal("tags must serialize as an empty array, not null")
	}
}

func TestAmendPreservesUnknownKeys(t *testing.T) {
	doc := testDocument(t)
	if err := sidecar.Write(doc, sidecar.Metadata{ID: "14.01", Issuer: "Amazon"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Simulate a newer tool having added a key this version does not model.
	raw, err := os.ReadFile(sidecar.PathFor(doc))
	if err != nil {
		t.Fatalf("read sidecar file: %v", err)
	}
	var doc2 map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc2); err != nil {
		t.Fatalf("decode sidecar: %v", err)
	}
	doc2["reviewed_by"] = json.RawMessage(`"alex"`)
	updated, err := json.Marshal(doc2)
	if err != nil {
		t.Fatalf("encode sidecar: %v", err)
	}
	if err := os.WriteFile(sidecar.PathFor(doc), updated, 0o644); err != nil {
		t.Fatalf("rewrite sidecar: %v", err)
	}

	if err := sidecar.Amend(doc, map[string]any{"summary": "Corrected summary"}); err != nil {
		t.Fatalf("Amend failed: %v", err)
	}

	final, err := os.ReadFile(sidecar.PathFor(doc))
	if err != nil {
		t.Fatalf("read sidecar file: %v", err)
	}
	var result map[string]json.RawMessage
	if err := json.Unmarshal(final, &result); err != nil {
		t.Fatalf("decode amended sidecar: %v", err)
	}
	if string(result["reviewed_by"]) != `"alex"` {
		t.Fatalf("unknown key lost in amend: %s", result["reviewed_by"])
	}
	if string(result["summary"]) != `"Corrected summary"` {
		t.Fatalf("amended key not updated: %s", result["summary"])
	}
	if string(result["issuer"]) != `"Amazon"` {
		t.Fatalf("untouched key changed: %s", result["issuer"])
	}
}

func TestBackfillText(t *testing.T) {
	doc := testDocument(t)
	if err := sidecar.Write(doc, sidecar.Metadata{ID: "14.01"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := sidecar.BackfillText(doc, "Invoice total 42.00 EUR"); err != nil {
		t.Fatalf("BackfillText failed: %v", err)
	}
	meta, err := sidecar.Read(doc)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if meta.ExtractedText != "Invoice total 42.00 EUR" {
		t.Fatalf("extracted text not backfilled: %q", meta.ExtractedText)
	}
}

func TestReadMissingSidecar(t *testing.T) {
	doc := testDocument(t)
	if _, err := sidecar.Read(doc); err == nil {
		t.Fatal("expected error for missing sidecar")
	}
}
