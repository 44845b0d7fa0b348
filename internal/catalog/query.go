package catalog

import (
	"fmt"
	"slices"
	"strings"
)

// SortCriterion selects the ordering applied by SortBy.
type SortCriterion string

const (
	SortDefault   SortCriterion = "default"
	SortPriceLow  SortCriterion = "price-low"
	SortPriceHigh SortCriterion = "price-high"
	SortRating    SortCriterion = "rating"
	SortName      SortCriterion = "name"
)

var validSortCriteria = []SortCriterion{
	SortDefault,
	SortPriceLow,
	SortPriceHigh,
	SortRating,
	SortName,
}

// IsValid reports whether the value is a known SortCriterion.
func (s SortCriterion) IsValid() bool {
	return slices.Contains(validSortCriteria, s)
}

// ParseSortCriterion converts raw input into a SortCriterion; blank input is SortDefault.
func ParseSortCriterion(value string) (SortCriterion, error) {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return SortDefault, nil
	}
	candidate := SortCriterion(trimmed)
	if !candidate.IsValid() {
		return "", fmt.Errorf("invalid sort criterion %q", value)
	}
	return candidate, nil
}

// AllCategories is the category filter value that disables category filtering.
const AllCategories = "all"

// Query bundles the browse knobs applied by Apply.
type Query struct {
	Search   string
	Category string
	Level    string
	Sort     SortCriterion
}

// Apply filters by category and level, then searches, then sorts. The corpus is not mutated.
func Apply(corpus []Product, q Query) []Product {
	out := FilterByCategory(q.Category, corpus)
	out = FilterByLevel(q.Level, out)
	out = Search(q.Search, out)
	return SortBy(q.Sort, out)
}

// Search returns products whose title, category, level or description contains
// query, case-insensitively. A blank query matches everything.
func Search(query string, corpus []Product) []Product {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return slices.Clone(corpus)
	}
	out := make([]Product, 0, len(corpus))
	for _, p := range corpus {
		if containsFold(p.Title, needle) ||
			containsFold(p.Category, needle) ||
			containsFold(p.Level, needle) ||
			containsFold(p.Description, needle) {
			out = append(out, p)
		}
	}
	return out
}

func containsFold(haystack, lowerNeedle string) bool {
	return haystack != "" && strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

// FilterByCategory keeps products in exactly the given category. Blank or "all"
// disables the filter.
func FilterByCategory(category string, corpus []Product) []Product {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, AllCategories) {
		return slices.Clone(corpus)
	}
	return filter(corpus, func(p Product) bool { return p.Category == category })
}

// FilterByLevel keeps products tagged with the given grade level. Blank or "all"
// disables the filter.
func FilterByLevel(level string, corpus []Product) []Product {
	level = strings.TrimSpace(level)
	if level == "" || strings.EqualFold(level, AllCategories) {
		return slices.Clone(corpus)
	}
	return filter(corpus, func(p Product) bool { return strings.EqualFold(p.Level, level) })
}

func filter(corpus []Product, keep func(Product) bool) []Product {
	out := make([]Product, 0, len(corpus))
	for _, p := range corpus {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// SortBy returns a sorted copy of corpus. Unknown criteria fall back to SortDefault.
// Ties keep their relative order.
func SortBy(criterion SortCriterion, corpus []Product) []Product {
	out := slices.Clone(corpus)
	var cmp func(a, b Product) int
	switch criterion {
	case SortPriceLow:
		cmp = func(a, b Product) int { return a.Price.Cmp(b.Price) }
	case SortPriceHigh:
		cmp = func(a, b Product) int { return b.Price.Cmp(a.Price) }
	case SortRating:
		cmp = func(a, b Product) int {
			ra, rb := a.RatingValue(), b.RatingValue()
			switch {
			case ra > rb:
				return -1
			case ra < rb:
				return 1
			}
			return 0
		}
	case SortName:
		cmp = func(a, b Product) int { return strings.Compare(a.Title, b.Title) }
	default:
		cmp = func(a, b Product) int { return a.ID - b.ID }
	}
	slices.SortStableFunc(out, cmp)
	return out
}
