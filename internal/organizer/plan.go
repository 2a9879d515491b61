package organizer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"docket/internal/classify"
	"docket/internal/fileutil"
	"docket/internal/identifier"
	"docket/internal/queue"
	"docket/internal/services"
	"docket/internal/stage"
	"docket/internal/taxonomy"
	"docket/internal/textutil"
)

// Plan describes where a classified document would be filed.
type Plan struct {
	Duplicate     bool
	ExistingFile  string
	Identifier    string
	AreaLabel     string
	CategoryLabel string
	FileName      string
	TargetPath    string
}

// Preview computes the filing plan for a classified item without moving
// anything. It performs the same duplicate lookup, taxonomy resolution, and
// identifier scan that Execute would.
func (o *Organizer) Preview(ctx context.Context, item *queue.Item) (Plan, error) {
	source := strings.TrimSpace(item.SourcePath)
	if source == "" {
		return Plan{}, services.Wrap(
			services.ErrValidation, "filing", "validate inputs",
			"No source file recorded for filing", nil)
	}

	hash := strings.TrimSpace(item.ContentHash)
	if hash == "" {
		computed, err := fileutil.HashFile(source)
		if err != nil {
			return Plan{}, services.Wrap(services.ErrTransient, "filing", "hash source", "Failed to hash document", err)
		}
		hash = computed
	}

	existingRel, found, err := o.dupindex.Lookup(hash)
	if err == nil && found {
		return Plan{Duplicate: true, ExistingFile: existingRel}, nil
	}

	result, err := stage.ParseClassification(item.ClassificationJSON)
	if err != nil {
		return Plan{}, err
	}
	return o.plan(result, hash, item.OriginalName)
}

// plan resolves the category directory, identifier, and target filename for
// a classification result. Reads the library but never writes it.
func (o *Organizer) plan(result classify.Result, contentHash, originalName string) (Plan, error) {
	tax, _, err := o.taxonomy.Effective()
	if err != nil {
		return Plan{}, services.Wrap(services.ErrConfiguration, "filing", "load taxonomy", "Failed to load effective taxonomy", err)
	}

	area, category, resolved := resolveCategory(tax, result)
	if !resolved {
		return Plan{}, services.Wrap(
			services.ErrConfiguration, "filing", "resolve category",
			"Taxonomy has no usable category, not even the uncategorized bucket", nil)
	}

	categoryDir := filepath.Join(o.cfg.Paths.LibraryDir, area.Label(), category.Label())
	key := identifier.NewGroupKey(result.Issuer, identifier.YearFromDate(result.DocumentDate))
	id, err := o.allocator.AllocateOrReuse(categoryDir, category.Number, key)
	if err != nil {
		if errors.Is(err, identifier.ErrCategoryFull) {
			return Plan{}, services.Wrap(
				services.ErrValidation, "filing", "allocate identifier",
				fmt.Sprintf("Category %s has no free identifiers", category.Label()), err)
		}
		return Plan{}, services.Wrap(services.ErrTransient, "filing", "allocate identifier", "Failed to scan category directory", err)
	}

	name := buildFileName(id, result, originalName)
	name = identifier.UniqueName(categoryDir, name)
	return Plan{
		Identifier:    id,
		AreaLabel:     area.Label(),
		CategoryLabel: category.Label(),
		FileName:      name,
		TargetPath:    filepath.Join(categoryDir, name),
	}, nil
}

// resolveCategory maps the classified category onto the effective taxonomy,
// falling back to the uncategorized bucket when the number is unknown.
func resolveCategory(tax taxonomy.Taxonomy, result classify.Result) (taxonomy.Area, taxonomy.Category, bool) {
	if number, ok := result.CategoryNumber(); ok {
		if area, category, found := tax.Category(number); found {
			return area, category, true
		}
	}
	if area, category, found := tax.Category(taxonomy.UncategorizedNumber); found {
		return area, category, true
	}
	return taxonomy.Area{}, taxonomy.Category{}, false
}

// buildFileName renders "CC.SS Issuer DocumentType Year.ext".
func buildFileName(id string, result classify.Result, originalName string) string {
	parts := []string{id}
	issuer := textutil.CleanFilenamePart(result.Issuer, 30)
	if issuer == "" {
		issuer = identifier.UnknownIssuer
	}
	parts = append(parts, issuer)
	if docType := textutil.CleanFilenamePart(result.DocumentType, 30); docType != "" {
		parts = append(parts, docType)
	}
	if year := identifier.YearFromDate(result.DocumentDate); year != "" {
		parts = append(parts, year)
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	return strings.Join(parts, " ") + ext
}
