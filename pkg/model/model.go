package model

import (
	"strings"
)

// Category is the kind of place a POI represents.
type Category string

const (
	CategoryWaterfall  Category = "waterfall"
	CategoryGeothermal Category = "geothermal"
	CategoryTown       Category = "town"
	CategoryLandmark   Category = "landmark"
	CategoryPark       Category = "park"
)

// KnownCategories lists the categories a catalog may use, in display order.
var KnownCategories = []Category{
	CategoryWaterfall,
	CategoryGeothermal,
	CategoryTown,
	CategoryLandmark,
	CategoryPark,
}

// POI represents a Point of Interest along the route.
type POI struct {
	ID          string   `json:"id" yaml:"id"` // Stable, unique across the catalog
	Name        string   `json:"name" yaml:"name" validate:"required"`
	Category    Category `json:"category" yaml:"category" validate:"required,oneof=waterfall geothermal town landmark park"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Description string   `json:"description" yaml:"description"`
	Narration   string   `json:"narration,omitempty" yaml:"narration,omitempty"`

	// Coordinates
	Lat float64 `json:"lat" yaml:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lng" yaml:"lng" validate:"gte=-180,lte=180"`

	Link  string `json:"link,omitempty" yaml:"link,omitempty"`
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	Visitor *VisitorInfo `json:"visitor,omitempty" yaml:"visitor,omitempty"`
}

// VisitorInfo holds optional practical details shown with a POI.
type VisitorInfo struct {
	Duration      string   `json:"duration,omitempty" yaml:"duration,omitempty"` // e.g. "1-2 hours"
	BestTime      string   `json:"best_time,omitempty" yaml:"best_time,omitempty"`
	Accessibility string   `json:"accessibility,omitempty" yaml:"accessibility,omitempty"`
	Tips          []string `json:"tips,omitempty" yaml:"tips,omitempty"`
}

// NarrationText returns the text to read aloud for the POI.
// Falls back to the description when no dedicated narration exists.
func (p *POI) NarrationText() string {
	if s := strings.TrimSpace(p.Narration); s != "" {
		return s
	}
	return strings.TrimSpace(p.Description)
}

// HasTag reports whether the POI carries the tag (case-insensitive).
func (p *POI) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Document is the on-disk/over-the-wire catalog format.
// Route points are [lat, lng] pairs, matching the renderer's convention.
type Document struct {
	POIs  []*POI       `json:"pois" yaml:"pois" validate:"dive"`
	Route [][2]float64 `json:"route,omitempty" yaml:"route,omitempty"`
}
