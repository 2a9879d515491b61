package textutil

import "strings"

// CleanFilenamePart strips characters that are unsafe in filenames and trims
// the result to maxLength runes. maxLength of 0 means unlimited.
func CleanFilenamePart(text string, maxLength int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = strings.TrimRight(text, ".,;:")
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "\x00", "")
	text = replacer.Replace(text)
	text = strings.Join(strings.Fields(text), " ")

	if maxLength > 0 {
		runes := []rune(text)
		if len(runes) > maxLength {
			text = strings.TrimSpace(string(runes[:maxLength]))
		}
	}
	return text
}

// Truncate shortens text to at most max runes, appending an ellipsis marker
// when anything was cut. max of 0 means unlimited.
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
