package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/uber/h3-go/v4"

	"ringroad/pkg/model"
)

// Catalog is the ordered, read-only POI list plus the route polyline.
// The order defines next/previous adjacency.
type Catalog struct {
	pois  []*model.POI
	index map[string]int
	route orb.LineString
	cells map[h3.Cell][]int
}

// New builds a catalog from already validated records.
// Records without an id get one derived from their name.
func New(pois []*model.POI, route [][2]float64) (*Catalog, error) {
	c := &Catalog{
		pois:  make([]*model.POI, 0, len(pois)),
		index: make(map[string]int, len(pois)),
		route: make(orb.LineString, 0, len(route)),
		cells: make(map[h3.Cell][]int),
	}

	for _, p := range pois {
		if p == nil {
			continue
		}
		if strings.TrimSpace(p.ID) == "" {
			p.ID = DeriveID(p.Name)
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s (%s)", ErrDuplicateID, p.ID, p.Name)
		}
		i := len(c.pois)
		c.index[p.ID] = i
		c.pois = append(c.pois, p)

		cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lon), cellResolution)
		if err != nil {
			return nil, fmt.Errorf("failed to index %s: %w", p.Name, err)
		}
		c.cells[cell] = append(c.cells[cell], i)
	}

	for i, pt := range route {
		lat, lon := pt[0], pt[1]
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("%w: #%d [%v, %v]", ErrInvalidRoute, i, lat, lon)
		}
		c.route = append(c.route, orb.Point{lon, lat})
	}

	return c, nil
}

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ringroad:poi"))

// DeriveID returns a stable identifier for a POI name.
func DeriveID(name string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.TrimSpace(name))).String()
}

// Len returns the number of POIs.
func (c *Catalog) Len() int {
	return len(c.pois)
}

// POIs returns the records in catalog order. The slice is a copy.
func (c *Catalog) POIs() []*model.POI {
	out := make([]*model.POI, len(c.pois))
	copy(out, c.pois)
	return out
}

// At returns the POI at position i, or nil when out of range.
func (c *Catalog) At(i int) *model.POI {
	if i < 0 || i >= len(c.pois) {
		return nil
	}
	return c.pois[i]
}

// Get returns the POI with the given id.
func (c *Catalog) Get(id string) (*model.POI, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.pois[i], true
}

// IndexOf returns the catalog position of id, or -1.
func (c *Catalog) IndexOf(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

// Next returns the POI after id. ok is false for the last POI or an unknown id.
func (c *Catalog) Next(id string) (*model.POI, bool) {
	i := c.IndexOf(id)
	if i < 0 || i+1 >= len(c.pois) {
		return nil, false
	}
	return c.pois[i+1], true
}

// Previous returns the POI before id. ok is false for the first POI or an unknown id.
func (c *Catalog) Previous(id string) (*model.POI, bool) {
	i := c.IndexOf(id)
	if i <= 0 {
		return nil, false
	}
	return c.pois[i-1], true
}

// Categories returns the distinct categories in order of first appearance.
func (c *Catalog) Categories() []model.Category {
	seen := make(map[model.Category]bool)
	var out []model.Category
	for _, p := range c.pois {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}

// Route returns the route as [lat, lng] pairs.
func (c *Catalog) Route() [][2]float64 {
	out := make([][2]float64, len(c.route))
	for i, p := range c.route {
		out[i] = [2]float64{p.Lat(), p.Lon()}
	}
	return out
}

// RouteLength returns the route length in meters.
func (c *Catalog) RouteLength() float64 {
	if len(c.route) < 2 {
		return 0
	}
	return geo.Length(c.route)
}
