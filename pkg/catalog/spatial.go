package catalog

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/uber/h3-go/v4"

	"ringroad/pkg/model"
)

// cellResolution is the H3 resolution of the nearby index (~8.5 km edges).
const cellResolution = 5

// Bounds is a south-west / north-east box in degrees.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Center returns the box midpoint as lat, lon.
func (b Bounds) Center() (lat, lon float64) {
	return (b.South + b.North) / 2, (b.West + b.East) / 2
}

// IsZero reports whether the box is empty.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// Bounds returns the extent of the route and all POIs, widened by pad
// (a fraction of the width and height) on every side.
func (c *Catalog) Bounds(pad float64) Bounds {
	var bound orb.Bound
	first := true
	extend := func(p orb.Point) {
		if first {
			bound = p.Bound()
			first = false
			return
		}
		bound = bound.Extend(p)
	}
	for _, p := range c.route {
		extend(p)
	}
	for _, p := range c.pois {
		extend(orb.Point{p.Lon, p.Lat})
	}
	if first {
		return Bounds{}
	}

	dx := (bound.Max.X() - bound.Min.X()) * pad
	dy := (bound.Max.Y() - bound.Min.Y()) * pad
	return Bounds{
		South: bound.Min.Y() - dy,
		West:  bound.Min.X() - dx,
		North: bound.Max.Y() + dy,
		East:  bound.Max.X() + dx,
	}
}

// Nearest returns the POI closest to the coordinate and its distance in meters.
func (c *Catalog) Nearest(lat, lon float64) (*model.POI, float64, bool) {
	origin := orb.Point{lon, lat}
	var best *model.POI
	bestDist := 0.0
	for _, p := range c.pois {
		d := geo.Distance(origin, orb.Point{p.Lon, p.Lat})
		if best == nil || d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, bestDist, best != nil
}

// Hit is a POI with its distance from a query point.
type Hit struct {
	POI      *model.POI `json:"poi"`
	Distance float64    `json:"distance_m"`
}

// Nearby returns POIs whose index cell lies within rings hex rings of the
// coordinate, closest first.
func (c *Catalog) Nearby(lat, lon float64, rings int) ([]Hit, error) {
	if rings < 0 {
		rings = 0
	}
	origin, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), cellResolution)
	if err != nil {
		return nil, err
	}
	disk, err := h3.GridDisk(origin, rings)
	if err != nil {
		return nil, err
	}

	pt := orb.Point{lon, lat}
	var hits []Hit
	for _, cell := range disk {
		for _, i := range c.cells[cell] {
			p := c.pois[i]
			hits = append(hits, Hit{POI: p, Distance: geo.Distance(pt, orb.Point{p.Lon, p.Lat})})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Distance < hits[b].Distance })
	return hits, nil
}
