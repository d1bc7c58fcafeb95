package filter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"ringroad/pkg/model"
)

func sample() []*model.POI {
	return []*model.POI{
		{ID: "1", Name: "Gullfoss", Category: model.CategoryWaterfall, Description: "Golden falls", Tags: []string{"golden circle"}},
		{ID: "2", Name: "Skógafoss", Category: model.CategoryWaterfall, Description: "Staircase"},
		{ID: "3", Name: "Reykjavík", Category: model.CategoryTown, Description: "Capital city", Tags: []string{"harbour"}},
		{ID: "4", Name: "Geysir", Category: model.CategoryGeothermal, Description: "Strokkur erupts", Tags: []string{"golden circle", "park"}},
		{ID: "5", Name: "Þingvellir", Category: model.CategoryPark, Description: "Rift valley"},
	}
}

func ids(pois []*model.POI) []string {
	out := make([]string, len(pois))
	for i, p := range pois {
		out[i] = p.ID
	}
	return out
}

func TestApply(t *testing.T) {
	favs := map[string]bool{"2": true, "4": true}

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{name: "EmptyAll", query: Query{Category: All}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "ZeroQuery", query: Query{}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "AllCaseInsensitive", query: Query{Category: "all"}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "TermFoss", query: Query{Term: "foss", Category: All}, want: []string{"1", "2"}},
		{name: "TermUpperCase", query: Query{Term: "FOSS"}, want: []string{"1", "2"}},
		{name: "TermInDescription", query: Query{Term: "capital"}, want: []string{"3"}},
		{name: "TermInTag", query: Query{Term: "golden circle"}, want: []string{"1", "4"}},
		{name: "TermPadded", query: Query{Term: "  strokkur "}, want: []string{"4"}},
		{name: "Category", query: Query{Category: "waterfall"}, want: []string{"1", "2"}},
		{name: "CategoryViaTag", query: Query{Category: "park"}, want: []string{"4", "5"}},
		{name: "TermAndCategory", query: Query{Term: "golden", Category: "geothermal"}, want: []string{"4"}},
		{name: "NoMatch", query: Query{Term: "volcano"}, want: []string{}},
		{
			name:  "FavoritesOnly",
			query: Query{FavoritesOnly: true, IsFavorite: func(id string) bool { return favs[id] }},
			want:  []string{"2", "4"},
		},
		{name: "FavoritesOnlyNoPredicate", query: Query{FavoritesOnly: true}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(sample(), tt.query)))
		})
	}
}

func TestApply_TermAcrossAllCategories(t *testing.T) {
	pois := []*model.POI{
		{ID: "g", Name: "Gullfoss", Category: model.CategoryWaterfall},
		{ID: "s", Name: "Skógafoss", Category: model.CategoryWaterfall},
		{ID: "r", Name: "Reykjavík", Category: model.CategoryTown},
	}
	assert.Equal(t, []string{"g", "s"}, ids(Apply(pois, Query{Term: "foss", Category: All})))
}

func TestApply_Stability(t *testing.T) {
	pois := sample()
	terms := []string{"", "a", "foss", "golden", "x", "ík", "R"}
	categories := []string{All, "", "waterfall", "town", "park", "golden circle", "nope"}

	for _, term := range terms {
		for _, cat := range categories {
			t.Run(fmt.Sprintf("%q/%q", term, cat), func(t *testing.T) {
				got := Apply(pois, Query{Term: term, Category: cat})
				// Output must be a subsequence of the input
				j := 0
				for _, p := range got {
					for j < len(pois) && pois[j] != p {
						j++
					}
					if j == len(pois) {
						t.Fatalf("result not an ordered subsequence: %v", ids(got))
					}
					j++
				}
			})
		}
	}
}

func TestApply_DoesNotMutate(t *testing.T) {
	pois := sample()
	before := ids(pois)
	Apply(pois, Query{Term: "foss", Category: "waterfall"})
	assert.Equal(t, before, ids(pois))
	assert.Equal(t, "Gullfoss", pois[0].Name)
}
