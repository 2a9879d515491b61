package taxonomy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"docket/internal/fileutil"
	"docket/internal/logging"
)

const documentVersion = 1

// JdexRelPath locates the persisted taxonomy document under the library root.
var JdexRelPath = filepath.Join(SystemAreaLabel, IndexCategoryLabel, "jdex.json")

// Store computes the effective taxonomy for a library root. It holds no
// cached state: every call re-reads the persisted document and re-scans the
// folder tree so that user renames between operations are honored.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a taxonomy store rooted at the library directory.
func NewStore(root string, logger *slog.Logger) *Store {
	return &Store{root: root, logger: logging.NewComponentLogger(logger, "taxonomy")}
}

// JdexPath returns the absolute path of the persisted taxonomy document.
func (s *Store) JdexPath() string {
	return filepath.Join(s.root, JdexRelPath)
}

// Effective merges defaults, the persisted document, and filesystem
// discovery in ascending precedence and validates the result. Violations are
// advisory here; callers display them but still receive the merged taxonomy.
func (s *Store) Effective() (Taxonomy, []Violation, error) {
	persisted, found, err := s.Persisted()
	if err != nil {
		return Taxonomy{}, nil, err
	}
	if !found {
		persisted = Taxonomy{}
	}

	discovered, err := s.discover()
	if err != nil {
		return Taxonomy{}, nil, err
	}

	merged := Merge(Defaults(), persisted, discovered)
	violations := Validate(merged)
	if len(violations) > 0 {
		s.logger.Warn("effective taxonomy has structural violations",
			logging.Int("violations", len(violations)),
			logging.String("first", violations[0].String()))
	}
	return merged, violations, nil
}

// Persisted loads the user-authored taxonomy document. A missing, corrupt,
// or unreadable document is treated as absent, never fatal.
func (s *Store) Persisted() (Taxonomy, bool, error) {
	data, err := os.ReadFile(s.JdexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Taxonomy{}, false, nil
		}
		s.logger.Warn("persisted taxonomy unreadable, ignoring", logging.Error(err))
		return Taxonomy{}, false, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("persisted taxonomy corrupt, ignoring", logging.Error(err))
		return Taxonomy{}, false, nil
	}

	taxonomy, err := doc.toTaxonomy()
	if err != nil {
		s.logger.Warn("persisted taxonomy malformed, ignoring", logging.Error(err))
		return Taxonomy{}, false, nil
	}
	return taxonomy, true, nil
}

// Author validates and persists a user-authored taxonomy, then creates the
// matching area and category folders. Unlike discovery, authoring enforces
// the structural invariants: any violation rejects the write.
func (s *Store) Author(t Taxonomy) error {
	if violations := Validate(t); len(violations) > 0 {
		return fmt.Errorf("taxonomy rejected: %s", joinViolations(violations))
	}

	doc := fromTaxonomy(t)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode taxonomy document: %w", err)
	}
	if err := fileutil.WriteJSONAtomic(s.JdexPath(), append(data, '\n')); err != nil {
		return fmt.Errorf("write taxonomy document: %w", err)
	}

	if err := s.CreateFolders(t); err != nil {
		return err
	}

	s.logger.Info("persisted taxonomy authored", logging.Int("areas", len(t.Areas)))
	return nil
}

// CreateFolders materializes area and category directories for the taxonomy.
func (s *Store) CreateFolders(t Taxonomy) error {
	for _, area := range t.Areas {
		areaDir := filepath.Join(s.root, area.Label())
		if err := os.MkdirAll(areaDir, 0o755); err != nil {
			return fmt.Errorf("create area folder %q: %w", area.Label(), err)
		}
		for _, cat := range area.Categories {
			catDir := filepath.Join(areaDir, cat.Label())
			if err := os.MkdirAll(catDir, 0o755); err != nil {
				return fmt.Errorf("create category folder %q: %w", cat.Label(), err)
			}
		}
	}
	return nil
}

// discover scans the library tree for folder names matching the taxonomy
// grammar. Non-conforming folders are ignored as taxonomy input; they may
// still hold ordinary content.
func (s *Store) discover() (Taxonomy, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return Taxonomy{}, nil
		}
		return Taxonomy{}, fmt.Errorf("scan library root: %w", err)
	}

	var discovered Taxonomy
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		area, ok := ParseAreaFolder(entry.Name())
		if !ok {
			continue
		}

		catEntries, err := os.ReadDir(filepath.Join(s.root, entry.Name()))
		if err != nil {
			return Taxonomy{}, fmt.Errorf("scan area folder %q: %w", entry.Name(), err)
		}
		for _, catEntry := range catEntries {
			if !catEntry.IsDir() {
				continue
			}
			cat, ok := ParseCategoryFolder(catEntry.Name())
			if !ok || !area.Contains(cat.Number) {
				continue
			}
			area.Categories = append(area.Categories, cat)
		}
		discovered.Areas = append(discovered.Areas, area)
	}
	return discovered, nil
}

// NextAreaRange suggests the lowest free decade for a new area.
func NextAreaRange(t Taxonomy) (lo, hi int, ok bool) {
	for lo = 0; lo <= 90; lo += 10 {
		hi = lo + 9
		free := true
		for _, area := range t.Areas {
			if area.Lo <= hi && lo <= area.Hi {
				free = false
				break
			}
		}
		if free {
			return lo, hi, true
		}
	}
	return 0, 0, false
}

// NextCategoryNumber suggests the smallest unused category number inside the
// area's range.
func NextCategoryNumber(area Area) (int, bool) {
	used := make(map[int]struct{}, len(area.Categories))
	for _, cat := range area.Categories {
		used[cat.Number] = struct{}{}
	}
	for n := area.Lo; n <= area.Hi; n++ {
		if _, taken := used[n]; !taken {
			return n, true
		}
	}
	return 0, false
}

func joinViolations(violations []Violation) string {
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, "; ")
}

type document struct {
	Version int            `json:"version"`
	Areas   []documentArea `json:"areas"`
}

type documentArea struct {
	Range      string     `json:"range"`
	Name       string     `json:"name"`
	Categories []Category `json:"categories,omitempty"`
}

func fromTaxonomy(t Taxonomy) document {
	doc := document{Version: documentVersion}
	for _, area := range t.Areas {
		doc.Areas = append(doc.Areas, documentArea{
			Range:      area.RangeLabel(),
			Name:       area.Name,
			Categories: area.Categories,
		})
	}
	return doc
}

func (d document) toTaxonomy() (Taxonomy, error) {
	var t Taxonomy
	for _, entry := range d.Areas {
		lo, hi, err := parseRange(entry.Range)
		if err != nil {
			return Taxonomy{}, err
		}
		t.Areas = append(t.Areas, Area{
			Lo:         lo,
			Hi:         hi,
			Name:       entry.Name,
			Categories: entry.Categories,
		})
	}
	return t, nil
}

func parseRange(value string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("range %q is not of the form NN-NN", value)
	}
	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: %w", value, err)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: %w", value, err)
	}
	return lo, hi, nil
}
