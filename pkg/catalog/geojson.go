package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"ringroad/pkg/model"
)

// decodeGeoJSON reads a FeatureCollection: Point features are POIs in
// collection order with their fields in properties, LineString features
// are joined into the route.
func decodeGeoJSON(data []byte) (*model.Document, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson: %w", err)
	}

	doc := &model.Document{}
	for i, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Point:
			p, err := poiFromProperties(f.Properties)
			if err != nil {
				return nil, fmt.Errorf("feature #%d: %w", i, err)
			}
			p.Lat, p.Lon = g.Lat(), g.Lon()
			doc.POIs = append(doc.POIs, p)
		case orb.LineString:
			for _, pt := range g {
				doc.Route = append(doc.Route, [2]float64{pt.Lat(), pt.Lon()})
			}
		}
	}
	return doc, nil
}

func poiFromProperties(props geojson.Properties) (*model.POI, error) {
	raw, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}
	var p model.POI
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid properties: %w", err)
	}
	return &p, nil
}

// FeatureCollection renders the catalog as GeoJSON: one Point per POI
// followed by the route LineString, if any.
func (c *Catalog) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range c.pois {
		f := geojson.NewFeature(orb.Point{p.Lon, p.Lat})
		f.ID = p.ID
		f.Properties["id"] = p.ID
		f.Properties["name"] = p.Name
		f.Properties["category"] = string(p.Category)
		if len(p.Tags) > 0 {
			f.Properties["tags"] = p.Tags
		}
		fc.Append(f)
	}
	if len(c.route) > 0 {
		f := geojson.NewFeature(c.route.Clone())
		f.Properties["kind"] = "route"
		f.Properties["length_m"] = c.RouteLength()
		fc.Append(f)
	}
	return fc
}
