package classify

import (
	"context"
	"fmt"

	"docket/internal/services/llm"
	"docket/internal/taxonomy"
)

// LLMBackend classifies documents through an OpenAI-compatible chat
// completion endpoint.
type LLMBackend struct {
	client   *llm.Client
	maxChars int
}

// NewLLMBackend wraps an LLM client as a classification backend. maxChars
// bounds how much extracted text is sent per request.
func NewLLMBackend(client *llm.Client, maxChars int) *LLMBackend {
	if maxChars <= 0 {
		maxChars = 4000
	}
	return &LLMBackend{client: client, maxChars: maxChars}
}

// Name implements Backend.
func (b *LLMBackend) Name() string { return "llm" }

// Available implements Backend: the backend is usable when credentials are
// configured.
func (b *LLMBackend) Available() bool {
	return b.client.Configured()
}

// Classify implements Backend.
func (b *LLMBackend) Classify(ctx context.Context, text, hint string, t taxonomy.Taxonomy) (Result, error) {
	content, err := b.client.CompleteJSON(ctx, systemPrompt, buildPrompt(text, hint, t, b.maxChars))
	if err != nil {
		return Result{}, fmt.Errorf("llm classify: %w", err)
	}
	return decodeBackendResult(content)
}

// wireResult matches the JSON shape the prompt demands. Nullable fields come
// back as pointers so an explicit null decodes cleanly.
type wireResult struct {
	JDArea        string   `json:"jd_area"`
	JDCategory    string   `json:"jd_category"`
	DocumentType  string   `json:"document_type"`
	Issuer        string   `json:"issuer"`
	SubjectPerson *string  `json:"subject_person"`
	Tags          []string `json:"tags"`
	Confidence    string   `json:"confidence"`
	Summary       string   `json:"summary"`
	DocumentDate  *string  `json:"document_date"`
}

func decodeBackendResult(content string) (Result, error) {
	var wire wireResult
	if err := llm.DecodeLLMJSON(content, &wire); err != nil {
		return Result{}, fmt.Errorf("parse classification payload: %w", err)
	}
	if wire.JDCategory == "" {
		return Result{}, fmt.Errorf("classification payload missing jd_category")
	}

	result := Result{
		JDArea:       wire.JDArea,
		JDCategory:   wire.JDCategory,
		DocumentType: wire.DocumentType,
		Issuer:       wire.Issuer,
		Tags:         wire.Tags,
		Confidence:   ParseConfidence(wire.Confidence),
		Summary:      wire.Summary,
	}
	if wire.SubjectPerson != nil {
		result.SubjectPerson = *wire.SubjectPerson
	}
	if wire.DocumentDate != nil {
		result.DocumentDate = *wire.DocumentDate
	}
	result.Normalize()
	return result, nil
}
