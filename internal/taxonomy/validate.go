package taxonomy

import (
	"fmt"
	"strings"
)

// Rule identifies a class of taxonomy violation.
type Rule string

const (
	RuleTooManyAreas       Rule = "too_many_areas"
	RuleTooManyCategories  Rule = "too_many_categories"
	RuleOverlappingRanges  Rule = "overlapping_ranges"
	RuleBadRange           Rule = "bad_range"
	RuleCategoryOutOfRange Rule = "category_out_of_range"
	RuleDuplicateCategory  Rule = "duplicate_category"
	RuleBadName            Rule = "bad_name"
)

// MaxAreas bounds the number of top-level areas.
const MaxAreas = 10

// MaxCategoriesPerArea bounds the number of categories within one area.
const MaxCategoriesPerArea = 10

// Violation describes one structural problem found during validation.
// Violations are advisory for structure discovered on the filesystem and
// enforced when authoring a persisted document.
type Violation struct {
	Rule    Rule
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Message)
}

func violationf(rule Rule, format string, args ...any) Violation {
	return Violation{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// Validate evaluates the structural invariants post-merge and reports every
// violation found. An empty result means the taxonomy is structurally sound.
func Validate(t Taxonomy) []Violation {
	var violations []Violation

	if len(t.Areas) > MaxAreas {
		violations = append(violations, violationf(RuleTooManyAreas,
			"taxonomy defines %d areas, maximum is %d", len(t.Areas), MaxAreas))
	}

	for _, area := range t.Areas {
		if area.Lo < 0 || area.Hi > 99 || area.Lo > area.Hi {
			violations = append(violations, violationf(RuleBadRange,
				"area %q has invalid range %02d-%02d", area.Name, area.Lo, area.Hi))
		}
		if strings.TrimSpace(area.Name) == "" {
			violations = append(violations, violationf(RuleBadName,
				"area %s has an empty name", area.RangeLabel()))
		}

		if len(area.Categories) > MaxCategoriesPerArea {
			violations = append(violations, violationf(RuleTooManyCategories,
				"area %q defines %d categories, maximum is %d", area.Name, len(area.Categories), MaxCategoriesPerArea))
		}

		seen := make(map[int]struct{}, len(area.Categories))
		for _, cat := range area.Categories {
			if !area.Contains(cat.Number) {
				violations = append(violations, violationf(RuleCategoryOutOfRange,
					"category %02d %q is outside area range %s", cat.Number, cat.Name, area.RangeLabel()))
			}
			if strings.TrimSpace(cat.Name) == "" {
				violations = append(violations, violationf(RuleBadName,
					"category %02d in area %q has an empty name", cat.Number, area.Name))
			}
			if _, dup := seen[cat.Number]; dup {
				violations = append(violations, violationf(RuleDuplicateCategory,
					"category number %02d appears more than once in area %q", cat.Number, area.Name))
			}
			seen[cat.Number] = struct{}{}
		}
	}

	for i := 0; i < len(t.Areas); i++ {
		for j := i + 1; j < len(t.Areas); j++ {
			a, b := t.Areas[i], t.Areas[j]
			if a.Lo <= b.Hi && b.Lo <= a.Hi {
				violations = append(violations, violationf(RuleOverlappingRanges,
					"area ranges %s and %s overlap", a.RangeLabel(), b.RangeLabel()))
			}
		}
	}

	return violations
}
