package classify

import (
	"fmt"
	"strings"

	"docket/internal/taxonomy"
	"docket/internal/textutil"
)

const systemPrompt = "You are a document categorization assistant using the Johnny.Decimal system. You respond with JSON only."

// buildPrompt renders the single user prompt shared by the llm and cli
// backends: the available taxonomy, the document text, naming rules, and the
// exact JSON shape expected back.
func buildPrompt(text, hint string, t taxonomy.Taxonomy, maxChars int) string {
	var b strings.Builder

	b.WriteString("Available Johnny.Decimal areas and categories:\n")
	for _, area := range t.Areas {
		// The system area stays out of the prompt; routing there is the
		// engine's fallback, not a choice the model should make.
		if area.Lo == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", area.Label())
		for _, cat := range area.Categories {
			fmt.Fprintf(&b, "  - %s\n", cat.Label())
		}
	}

	b.WriteString("\nAnalyze this document and categorize it.\n\nDocument content:\n---\n")
	b.WriteString(textutil.Truncate(text, maxChars))
	b.WriteString("\n---\n")

	if hint = strings.TrimSpace(hint); hint != "" {
		fmt.Fprintf(&b, "\nContext hint (advisory, e.g. originating folder): %s\n", hint)
	}

	b.WriteString(`
IMPORTANT naming rules:
- "document_type" describes WHAT the document is (e.g., "Blood Test Results", "Employment Contract", "Insurance Card")
- "issuer" is the organization/entity that CREATED or ISSUED the document (e.g., "TK Insurance", "Amazon")
- Do NOT use the document subject's personal name as issuer (a medical report FOR "John Smith" is issued by the hospital, not John Smith)
- "subject_person" is filled ONLY if the document is about someone OTHER than the system owner, otherwise null

Respond with ONLY valid JSON in this exact format:
{
    "jd_area": "one of the areas like 10-19 Finance",
    "jd_category": "one of the categories like 14 Receipts",
    "document_type": "specific type like Blood Test Results or Employment Contract",
    "issuer": "organization that created/issued the document",
    "subject_person": "person the document is about, or null",
    "tags": ["tag1", "tag2", "tag3"],
    "confidence": "high/medium/low",
    "summary": "One sentence summary of the document",
    "document_date": "YYYY-MM-DD if a date is found, null otherwise"
}`)

	return b.String()
}
