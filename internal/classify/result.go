package classify

import (
	"strconv"
	"strings"

	"docket/internal/taxonomy"
)

// Confidence grades how much trust to place in a classification.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence normalizes a confidence string, defaulting to low.
func ParseConfidence(value string) Confidence {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high":
		return ConfidenceHigh
	case "medium":
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Result is the classification of one document. It exists only for the
// duration of a filing operation; the sidecar is its persistent form.
type Result struct {
	JDArea        string     `json:"jd_area"`
	JDCategory    string     `json:"jd_category"`
	DocumentType  string     `json:"document_type"`
	Issuer        string     `json:"issuer"`
	SubjectPerson string     `json:"subject_person,omitempty"`
	DocumentDate  string     `json:"document_date,omitempty"`
	Tags          []string   `json:"tags"`
	Summary       string     `json:"summary"`
	Confidence    Confidence `json:"confidence"`

	// Backend names the backend that produced the result.
	Backend string `json:"-"`
}

// CategoryNumber extracts the two-digit category number from the JDCategory
// label, e.g. "14 Receipts" or "14".
func (r Result) CategoryNumber() (int, bool) {
	fields := strings.Fields(strings.TrimSpace(r.JDCategory))
	if len(fields) == 0 {
		return 0, false
	}
	number, err := strconv.Atoi(fields[0])
	if err != nil || number < 0 || number > 99 {
		return 0, false
	}
	return number, true
}

// Normalize trims fields and clamps the confidence to a known tier.
func (r *Result) Normalize() {
	r.JDArea = strings.TrimSpace(r.JDArea)
	r.JDCategory = strings.TrimSpace(r.JDCategory)
	r.DocumentType = strings.TrimSpace(r.DocumentType)
	r.Issuer = strings.TrimSpace(r.Issuer)
	r.SubjectPerson = strings.TrimSpace(r.SubjectPerson)
	r.DocumentDate = strings.TrimSpace(r.DocumentDate)
	r.Summary = strings.TrimSpace(r.Summary)
	r.Confidence = ParseConfidence(string(r.Confidence))
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.DocumentType == "" {
		r.DocumentType = "Document"
	}
}

// uncategorizedResult routes a document to the fallback bucket.
func uncategorizedResult(t taxonomy.Taxonomy, summary string) Result {
	result := Result{
		JDArea:       taxonomy.SystemAreaLabel,
		JDCategory:   taxonomy.UncategorizedLabel,
		DocumentType: "Document",
		Summary:      summary,
		Confidence:   ConfidenceLow,
		Tags:         []string{},
	}
	if area, cat, ok := t.Category(taxonomy.UncategorizedNumber); ok {
		result.JDArea = area.Label()
		result.JDCategory = cat.Label()
	}
	return result
}
