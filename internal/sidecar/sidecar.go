// Package sidecar reads and writes the JSON metadata document colocated
// with every filed file.
//
// The key set is fixed and consumed by external tooling; partial updates go
// through Amend, which preserves any key it does not intend to change,
// including keys this version does not know about.
package sidecar

import (
	"encoding/json"
	"fmt"
	"os"

	"docket/internal/fileutil"
)

// Suffix is appended to a filed document's name to form its sidecar path.
const Suffix = ".meta.json"

// Metadata is the persisted classification record for one filed document.
type Metadata struct {
	ID            string   `json:"id"`
	JDArea        string   `json:"jd_area"`
	JDCategory    string   `json:"jd_category"`
	DocumentType  string   `json:"document_type"`
	Issuer        string   `json:"issuer"`
	SubjectPerson *string  `json:"subject_person"`
	DocumentDate  *string  `json:"document_date"`
	Tags          []string `json:"tags"`
	Summary       string   `json:"summary"`
	ExtractedText string   `json:"extracted_text"`
}

// PathFor returns the sidecar location for a filed document path.
func PathFor(documentPath string) string {
	return documentPath + Suffix
}

// Write persists the metadata next to the filed document.
func Write(documentPath string, meta Metadata) error {
	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if err := fileutil.WriteJSONAtomic(PathFor(documentPath), append(data, '\n')); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

// Read loads the sidecar for a filed document.
func Read(documentPath string) (Metadata, error) {
	data, err := os.ReadFile(PathFor(documentPath))
	if err != nil {
		return Metadata{}, fmt.Errorf("read sidecar: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("decode sidecar: %w", err)
	}
	return meta, nil
}

// Amend rewrites only the provided keys of an existing sidecar. The document
// is decoded into a raw key map so every untouched key, known or unknown,
// survives the rewrite byte-for-byte in value.
func Amend(documentPath string, fields map[string]any) error {
	data, err := os.ReadFile(PathFor(documentPath))
	if err != nil {
		return fmt.Errorf("read sidecar: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode sidecar: %w", err)
	}

	for key, value := range fields {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode sidecar field %q: %w", key, err)
		}
		raw[key] = encoded
	}

	updated, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if err := fileutil.WriteJSONAtomic(PathFor(documentPath), append(updated, '\n')); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

// BackfillText amends only the extracted_text field, the repair path for
// documents filed before their text was captured.
func BackfillText(documentPath, text string) error {
	return Amend(documentPath, map[string]any{"extracted_text": text})
}
