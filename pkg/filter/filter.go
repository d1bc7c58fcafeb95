// Package filter selects the POIs matching a search term and category.
package filter

import (
	"strings"

	"ringroad/pkg/model"
)

// All is the category selector matching every POI.
const All = "All"

// Query is the filter state. The zero value matches everything.
type Query struct {
	Term          string
	Category      string
	FavoritesOnly bool
	IsFavorite    func(id string) bool // Consulted only when FavoritesOnly is set
}

// Apply returns the POIs matching q, in input order.
// It never mutates pois or their elements; an empty result is valid.
func Apply(pois []*model.POI, q Query) []*model.POI {
	term := strings.ToLower(strings.TrimSpace(q.Term))
	category := strings.TrimSpace(q.Category)

	out := make([]*model.POI, 0, len(pois))
	for _, p := range pois {
		if p == nil {
			continue
		}
		if !matchesCategory(p, category) || !matchesTerm(p, term) {
			continue
		}
		if q.FavoritesOnly && (q.IsFavorite == nil || !q.IsFavorite(p.ID)) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// matchesTerm expects term already lowercased.
func matchesTerm(p *model.POI, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func matchesCategory(p *model.POI, category string) bool {
	if category == "" || strings.EqualFold(category, All) {
		return true
	}
	return string(p.Category) == category || p.HasTag(category)
}
