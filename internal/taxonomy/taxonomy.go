package taxonomy

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Category is a taxonomy bucket nested under an Area, identified by a
// two-digit number inside the Area's range. Keywords feed the offline
// classification backend.
type Category struct {
	Number   int      `json:"number"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords,omitempty"`
}

// Label renders the category's folder name, e.g. "14 Receipts".
func (c Category) Label() string {
	return fmt.Sprintf("%02d %s", c.Number, c.Name)
}

// Area is a top-level taxonomy bucket spanning a two-digit numeric range.
type Area struct {
	Lo         int
	Hi         int
	Name       string
	Categories []Category
}

// Label renders the area's folder name, e.g. "10-19 Finance".
func (a Area) Label() string {
	return fmt.Sprintf("%02d-%02d %s", a.Lo, a.Hi, a.Name)
}

// RangeLabel renders the numeric range alone, e.g. "10-19".
func (a Area) RangeLabel() string {
	return fmt.Sprintf("%02d-%02d", a.Lo, a.Hi)
}

// Contains reports whether a category number falls inside the area's range.
func (a Area) Contains(number int) bool {
	return number >= a.Lo && number <= a.Hi
}

// Category returns the area's category with the given number.
func (a Area) Category(number int) (Category, bool) {
	for _, cat := range a.Categories {
		if cat.Number == number {
			return cat, true
		}
	}
	return Category{}, false
}

// Taxonomy is the merged view of areas and categories consumed by
// classification and filing.
type Taxonomy struct {
	Areas []Area
}

// AreaFor returns the area whose range contains the given category number.
func (t Taxonomy) AreaFor(number int) (Area, bool) {
	for _, area := range t.Areas {
		if area.Contains(number) {
			return area, true
		}
	}
	return Area{}, false
}

// Category resolves a category number to its area and category definition.
func (t Taxonomy) Category(number int) (Area, Category, bool) {
	area, ok := t.AreaFor(number)
	if !ok {
		return Area{}, Category{}, false
	}
	cat, ok := area.Category(number)
	if !ok {
		return area, Category{}, false
	}
	return area, cat, true
}

// FindArea returns the area with the exact [lo, hi] range.
func (t Taxonomy) FindArea(lo, hi int) (Area, bool) {
	for _, area := range t.Areas {
		if area.Lo == lo && area.Hi == hi {
			return area, true
		}
	}
	return Area{}, false
}

var (
	areaFolderPattern     = regexp.MustCompile(`^(\d{2})-(\d{2}) (.+)$`)
	categoryFolderPattern = regexp.MustCompile(`^(\d{2}) (.+)$`)
)

// ParseAreaFolder interprets a folder name as an area declaration.
// Names not matching "NN-NN Name" are not taxonomy input.
func ParseAreaFolder(name string) (Area, bool) {
	match := areaFolderPattern.FindStringSubmatch(strings.TrimSpace(name))
	if match == nil {
		return Area{}, false
	}
	lo, _ := strconv.Atoi(match[1])
	hi, _ := strconv.Atoi(match[2])
	label := strings.TrimSpace(match[3])
	if label == "" {
		return Area{}, false
	}
	return Area{Lo: lo, Hi: hi, Name: label}, true
}

// ParseCategoryFolder interprets a folder name as a category declaration.
// Names not matching "NN Name" are not taxonomy input.
func ParseCategoryFolder(name string) (Category, bool) {
	match := categoryFolderPattern.FindStringSubmatch(strings.TrimSpace(name))
	if match == nil {
		return Category{}, false
	}
	number, _ := strconv.Atoi(match[1])
	label := strings.TrimSpace(match[2])
	if label == "" {
		return Category{}, false
	}
	return Category{Number: number, Name: label}, true
}

// Merge combines taxonomy layers in ascending precedence: a later layer's
// area overwrites an earlier one occupying the same numeric range, and the
// analogous nested overwrite applies to categories keyed by number. Keywords
// are retained from the highest-precedence layer that declares any.
func Merge(layers ...Taxonomy) Taxonomy {
	type rangeKey struct{ lo, hi int }
	areas := make(map[rangeKey]Area)
	order := make([]rangeKey, 0)

	for _, layer := range layers {
		for _, area := range layer.Areas {
			key := rangeKey{area.Lo, area.Hi}
			existing, seen := areas[key]
			if !seen {
				order = append(order, key)
				areas[key] = cloneArea(area)
				continue
			}
			merged := existing
			if strings.TrimSpace(area.Name) != "" {
				merged.Name = area.Name
			}
			for _, cat := range area.Categories {
				merged.Categories = overwriteCategory(merged.Categories, cat)
			}
			areas[key] = merged
		}
	}

	result := Taxonomy{Areas: make([]Area, 0, len(order))}
	for _, key := range order {
		area := areas[key]
		sort.Slice(area.Categories, func(i, j int) bool {
			return area.Categories[i].Number < area.Categories[j].Number
		})
		result.Areas = append(result.Areas, area)
	}
	sort.Slice(result.Areas, func(i, j int) bool {
		return result.Areas[i].Lo < result.Areas[j].Lo
	})
	return result
}

func overwriteCategory(categories []Category, next Category) []Category {
	for i, cat := range categories {
		if cat.Number != next.Number {
			continue
		}
		if strings.TrimSpace(next.Name) != "" {
			categories[i].Name = next.Name
		}
		if len(next.Keywords) > 0 {
			categories[i].Keywords = append([]string(nil), next.Keywords...)
		}
		return categories
	}
	return append(categories, cloneCategory(next))
}

func cloneArea(area Area) Area {
	clone := area
	clone.Categories = make([]Category, 0, len(area.Categories))
	for _, cat := range area.Categories {
		clone.Categories = append(clone.Categories, cloneCategory(cat))
	}
	return clone
}

func cloneCategory(cat Category) Category {
	clone := cat
	if len(cat.Keywords) > 0 {
		clone.Keywords = append([]string(nil), cat.Keywords...)
	}
	return clone
}
