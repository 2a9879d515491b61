package classify

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"docket/internal/taxonomy"
	"docket/internal/textutil"
)

// KeywordBackend is the mandatory offline terminal of the fallback chain:
// deterministic keyword matching against the taxonomy, no I/O, never fails.
type KeywordBackend struct{}

// NewKeywordBackend constructs the offline backend.
func NewKeywordBackend() *KeywordBackend {
	return &KeywordBackend{}
}

// Name implements Backend.
func (b *KeywordBackend) Name() string { return "keyword" }

// Available implements Backend. The offline backend is always available.
func (b *KeywordBackend) Available() bool { return true }

// Classify scores every category's keywords against the tokenized text and
// picks the best match. The hint is consulted directly when the text-derived
// signal is weak. The result is at most medium confidence; with no keyword
// hits at all the document routes to the uncategorized bucket.
func (b *KeywordBackend) Classify(_ context.Context, text, hint string, t taxonomy.Taxonomy) (Result, error) {
	lowered := strings.ToLower(text)
	fingerprint := textutil.NewFingerprint(text)
	hintLowered := strings.ToLower(hint)

	var (
		bestArea  taxonomy.Area
		bestCat   taxonomy.Category
		bestScore int
	)
	for _, area := range t.Areas {
		for _, cat := range area.Categories {
			score := scoreKeywords(cat.Keywords, lowered, fingerprint)
			if score < 2 && hintLowered != "" {
				score += scoreKeywords(cat.Keywords, hintLowered, nil)
			}
			if score > bestScore {
				bestArea, bestCat, bestScore = area, cat, score
			}
		}
	}

	if bestScore == 0 {
		return uncategorizedResult(t, summarize(text)), nil
	}

	confidence := ConfidenceLow
	if bestScore >= 3 {
		confidence = ConfidenceMedium
	}

	result := Result{
		JDArea:       bestArea.Label(),
		JDCategory:   bestCat.Label(),
		DocumentType: bestCat.Name,
		Issuer:       issuerFromText(text),
		DocumentDate: dateFromText(text),
		Tags:         []string{strings.ToLower(bestCat.Name)},
		Summary:      summarize(text),
		Confidence:   confidence,
	}
	result.Normalize()
	return result, nil
}

// scoreKeywords counts keyword hits. Single-word keywords match tokens;
// multi-word keywords match as substrings of the lowered text.
func scoreKeywords(keywords []string, lowered string, fingerprint *textutil.Fingerprint) int {
	score := 0
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if strings.ContainsRune(keyword, ' ') {
			if strings.Contains(lowered, keyword) {
				score += 2
			}
			continue
		}
		if fingerprint != nil {
			if fingerprint.Contains(keyword) {
				score++
			}
			continue
		}
		if strings.Contains(lowered, keyword) {
			score++
		}
	}
	return score
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(19|20)\d{2}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}[./]\d{1,2}[./](19|20)\d{2}\b`),
	regexp.MustCompile(`\b(19|20)\d{2}\b`),
}

func dateFromText(text string) string {
	for _, pattern := range datePatterns {
		if match := pattern.FindString(text); match != "" {
			return match
		}
	}
	return ""
}

// issuerFromText guesses the issuing party from the capitalized word prefix
// of the first non-empty line, the position letterheads put the sender in.
func issuerFromText(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		words := strings.Fields(line)
		var issuer []string
		for _, word := range words {
			if len(issuer) >= 4 || !startsUpper(word) {
				break
			}
			issuer = append(issuer, strings.TrimRight(word, ".,;:"))
		}
		return strings.Join(issuer, " ")
	}
	return ""
}

func startsUpper(word string) bool {
	for _, r := range word {
		return unicode.IsUpper(r) || unicode.IsDigit(r)
	}
	return false
}

func summarize(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if collapsed == "" {
		return "No text extracted"
	}
	return fmt.Sprintf("Keyword match: %s", textutil.Truncate(collapsed, 120))
}
