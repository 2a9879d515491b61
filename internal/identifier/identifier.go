// Package identifier assigns stable "CC.SS" identifiers to filed documents.
//
// Sequence numbers are never stored in a counter file: every allocation
// forward-scans the category directory, rebuilding the map from grouping key
// (normalized issuer + document year) to assigned sequence out of existing
// filenames and sidecars. A key that was already assigned a sequence gets
// the same identifier back; a new key gets the smallest unused two-digit
// sequence. Deleting the earliest file therefore frees its number for the
// next new grouping key, which is an accepted, documented property.
package identifier

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"docket/internal/logging"
	"docket/internal/sidecar"
)

// ErrCategoryFull is returned when all 99 sequence numbers of a category are
// assigned.
var ErrCategoryFull = errors.New("category has no free sequence numbers")

// UnknownIssuer substitutes for an empty issuer in grouping keys.
const UnknownIssuer = "Unknown"

var filenamePattern = regexp.MustCompile(`^(\d{2})\.(\d{2}) `)

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

var foldCaser = cases.Fold()

// GroupKey identifies the (issuer, year) grouping that owns one identifier
// within a category.
type GroupKey struct {
	Issuer string
	Year   string
}

// NewGroupKey builds a normalized grouping key. The issuer is case-folded
// and whitespace-collapsed so "Amazon EU" and "amazon  eu" share a key; an
// empty issuer maps to the Unknown bucket.
func NewGroupKey(issuer, year string) GroupKey {
	return GroupKey{Issuer: NormalizeIssuer(issuer), Year: strings.TrimSpace(year)}
}

// NormalizeIssuer canonicalizes an issuer name for grouping purposes.
func NormalizeIssuer(issuer string) string {
	collapsed := strings.Join(strings.Fields(issuer), " ")
	if collapsed == "" {
		return foldCaser.String(UnknownIssuer)
	}
	return foldCaser.String(collapsed)
}

// YearFromDate extracts a four-digit year from a date string, or "" when
// none is present.
func YearFromDate(date string) string {
	return yearPattern.FindString(date)
}

// Allocator derives identifiers by scanning category directories.
type Allocator struct {
	logger *slog.Logger
}

// NewAllocator creates an identifier allocator.
func NewAllocator(logger *slog.Logger) *Allocator {
	return &Allocator{logger: logging.NewComponentLogger(logger, "identifier")}
}

// AllocateOrReuse returns the identifier for a grouping key within a
// category directory. A key already present in the directory's filenames
// and sidecars receives its existing identifier unchanged; otherwise the
// smallest unused sequence is minted.
func (a *Allocator) AllocateOrReuse(categoryDir string, categoryNumber int, key GroupKey) (string, error) {
	used, byKey, err := a.scan(categoryDir, categoryNumber)
	if err != nil {
		return "", err
	}

	if seq, ok := byKey[key]; ok {
		return Format(categoryNumber, seq), nil
	}

	for seq := 1; seq <= 99; seq++ {
		if _, taken := used[seq]; !taken {
			return Format(categoryNumber, seq), nil
		}
	}
	return "", fmt.Errorf("%w: category %02d", ErrCategoryFull, categoryNumber)
}

// Format renders an identifier, e.g. Format(14, 1) == "14.01".
func Format(categoryNumber, sequence int) string {
	return fmt.Sprintf("%02d.%02d", categoryNumber, sequence)
}

// Parse splits an identifier into category number and sequence.
func Parse(id string) (category, sequence int, ok bool) {
	parts := strings.SplitN(id, ".", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, false
	}
	category, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	sequence, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return category, sequence, true
}

// scan rebuilds the sequence usage of a category directory. Filenames supply
// the used-sequence set; sidecars supply the authoritative key-to-sequence
// mapping. A file without a sidecar still reserves its sequence.
func (a *Allocator) scan(categoryDir string, categoryNumber int) (map[int]struct{}, map[GroupKey]int, error) {
	used := make(map[int]struct{})
	byKey := make(map[GroupKey]int)

	entries, err := os.ReadDir(categoryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return used, byKey, nil
		}
		return nil, nil, fmt.Errorf("scan category directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, sidecar.Suffix) {
			continue
		}
		match := filenamePattern.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		cat, _ := strconv.Atoi(match[1])
		if cat != categoryNumber {
			continue
		}
		seq, _ := strconv.Atoi(match[2])
		if seq == 0 {
			continue
		}
		used[seq] = struct{}{}

		meta, err := sidecar.Read(filepath.Join(categoryDir, name))
		if err != nil {
			continue
		}
		year := ""
		if meta.DocumentDate != nil {
			year = YearFromDate(*meta.DocumentDate)
		}
		key := NewGroupKey(meta.Issuer, year)
		if existing, dup := byKey[key]; !dup || seq < existing {
			byKey[key] = seq
		}
	}
	return used, byKey, nil
}

// UniqueName disambiguates an exact target-name collision by appending _1,
// _2, ... before the extension, never reusing a suffix already present.
func UniqueName(dir, name string) string {
	if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
	}
}
