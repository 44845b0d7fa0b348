package catalog

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func fixtureProducts() []Product {
	return []Product{
		{ID: 3, Title: "Science Explorer", Price: decimal.RequireFromString("249.99"), Category: "science", Level: "1-7", Description: "Physics and chemistry", Rating: &Rating{Rate: 4.1, Count: 10}},
		{ID: 1, Title: "Brainy Builder", Price: decimal.RequireFromString("299.99"), Category: "workbook", Level: "A3", Description: "Activities for grade 3"},
		{ID: 2, Title: "Mathematics Series", Price: decimal.RequireFromString("199.99"), Category: "mathematics", Level: "1-7", Description: "Progressive learning", Rating: &Rating{Rate: 4.8, Count: 3}},
		{ID: 4, Title: "Art Concepts", Price: decimal.RequireFromString("89.99"), Category: "art", Level: "A4", Description: "Creative thinking with MATH puzzles"},
	}
}

func ids(products []Product) []int {
	out := make([]int, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestSearchMatchesTitleCategoryDescriptionCaseInsensitively(t *testing.T) {
	corpus := fixtureProducts()

	got := Search("math", corpus)
	require.Equal(t, []int{2, 4}, ids(got))
	for _, p := range got {
		hay := strings.ToLower(p.Title + " " + p.Category + " " + p.Description)
		require.Contains(t, hay, "math")
	}

	require.Equal(t, []int{3}, ids(Search("SCIENCE", corpus)))
	require.Equal(t, []int{1}, ids(Search("a3", corpus)), "level is searchable")
	require.Len(t, Search("   ", corpus), len(corpus))
	require.Empty(t, Search("geography", corpus))
}

func TestSearchOverBuiltinCatalog(t *testing.T) {
	corpus := builtinProducts()
	got := Search("math", corpus)
	require.NotEmpty(t, got)
	for _, p := range got {
		hay := strings.ToLower(p.Title + "|" + p.Category + "|" + p.Level + "|" + p.Description)
		require.Contains(t, hay, "math")
	}
	require.Equal(t, []int{2, 9}, ids(got))
}

func TestFilterByCategory(t *testing.T) {
	corpus := fixtureProducts()
	require.Equal(t, []int{3}, ids(FilterByCategory("science", corpus)))
	require.Len(t, FilterByCategory("all", corpus), 4)
	require.Len(t, FilterByCategory("", corpus), 4)
	require.Empty(t, FilterByCategory("Science", corpus), "category match is exact")
}

func TestFilterByLevel(t *testing.T) {
	corpus := fixtureProducts()
	require.Equal(t, []int{3, 2}, ids(FilterByLevel("1-7", corpus)))
	require.Equal(t, []int{1}, ids(FilterByLevel("a3", corpus)))
	require.Len(t, FilterByLevel("all", corpus), 4)
}

func TestSortBy(t *testing.T) {
	corpus := fixtureProducts()
	tests := []struct {
		criterion SortCriterion
		want      []int
	}{
		{SortDefault, []int{1, 2, 3, 4}},
		{SortPriceLow, []int{4, 2, 3, 1}},
		{SortPriceHigh, []int{1, 3, 2, 4}},
		{SortRating, []int{2, 3, 1, 4}},
		{SortName, []int{4, 1, 2, 3}},
		{SortCriterion("bogus"), []int{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(string(tt.criterion), func(t *testing.T) {
			require.Equal(t, tt.want, ids(SortBy(tt.criterion, corpus)))
		})
	}
	require.Equal(t, []int{3, 1, 2, 4}, ids(corpus), "corpus must not be mutated")
}

func TestParseSortCriterion(t *testing.T) {
	got, err := ParseSortCriterion("")
	require.NoError(t, err)
	require.Equal(t, SortDefault, got)

	got, err = ParseSortCriterion(" Price-High ")
	require.NoError(t, err)
	require.Equal(t, SortPriceHigh, got)

	_, err = ParseSortCriterion("popularity")
	require.Error(t, err)
}

func TestApplyComposesFilters(t *testing.T) {
	corpus := fixtureProducts()
	got := Apply(corpus, Query{Level: "1-7", Search: "s", Sort: SortPriceLow})
	require.Equal(t, []int{2, 3}, ids(got))
}

func TestProductValid(t *testing.T) {
	require.True(t, Product{ID: 1, Price: decimal.Zero}.Valid())
	require.False(t, Product{ID: 1, Price: decimal.NewFromInt(-1)}.Valid())
	require.False(t, Product{ID: 1, Rating: &Rating{Rate: 5.5}}.Valid())
	require.False(t, Product{ID: 1, Rating: &Rating{Rate: 3, Count: -1}}.Valid())
}
