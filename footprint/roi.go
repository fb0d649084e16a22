package footprint

import (
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	orbjson "github.com/paulmach/orb/geojson"
	"github.com/peterstace/simplefeatures/geom"
	"github.com/venicegeo/geojson-go/geojson"
)

// ROI is the region of interest records are clipped against
type ROI struct {
	Geometry orb.Geometry
	shape    geom.Geometry
	bound    orb.Bound
}

// NewROI creates a region of interest from a polygon, multipolygon or bound
func NewROI(g orb.Geometry) (*ROI, error) {
	var polygons orb.MultiPolygon
	switch shape := g.(type) {
	case orb.Polygon:
		polygons = orb.MultiPolygon{shape}
	case orb.MultiPolygon:
		polygons = shape
	case orb.Bound:
		polygons = orb.MultiPolygon{shape.ToPolygon()}
		g = polygons[0]
	case nil:
		return nil, ErrEmptyGeometry
	default:
		return nil, fmt.Errorf("a region of interest must be areal, got %s", g.GeoJSONType())
	}
	if err := Validate(polygons); err != nil {
		return nil, err
	}
	shape, err := toGeom(polygons)
	if err != nil {
		return nil, fmt.Errorf("region of interest: %w", err)
	}
	return &ROI{Geometry: g, shape: shape, bound: polygons.Bound()}, nil
}

// ParseBBox creates a region of interest from a GeoJSON bounding box string "x1,y1,x2,y2"
func ParseBBox(input string) (*ROI, error) {
	bbox, err := geojson.NewBoundingBox(input)
	if err != nil {
		return nil, err
	}
	if len(bbox) != 4 {
		return nil, fmt.Errorf("expected a two dimensional bounding box, got %v", input)
	}
	if err = bbox.Valid(); err != nil {
		return nil, err
	}
	return NewROI(orb.Bound{Min: orb.Point{bbox[0], bbox[1]}, Max: orb.Point{bbox[2], bbox[3]}})
}

// ParseROI creates a region of interest from a GeoJSON document. Feature
// collections contribute every areal feature.
func ParseROI(data []byte) (*ROI, error) {
	if fc, err := orbjson.UnmarshalFeatureCollection(data); err == nil && fc.Type == "FeatureCollection" {
		var polygons orb.MultiPolygon
		for _, feature := range fc.Features {
			polygons = appendAreal(polygons, feature.Geometry)
		}
		if len(polygons) == 0 {
			return nil, errors.New("feature collection has no polygons")
		}
		return NewROI(polygons)
	}
	if feature, err := orbjson.UnmarshalFeature(data); err == nil && feature.Type == "Feature" {
		return NewROI(feature.Geometry)
	}
	geometry, err := orbjson.UnmarshalGeometry(data)
	if err != nil {
		return nil, err
	}
	return NewROI(geometry.Geometry())
}

// LoadROI reads a GeoJSON region of interest from a file
func LoadROI(path string) (*ROI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseROI(data)
}

func appendAreal(polygons orb.MultiPolygon, g orb.Geometry) orb.MultiPolygon {
	switch shape := g.(type) {
	case orb.Polygon:
		return append(polygons, shape)
	case orb.MultiPolygon:
		return append(polygons, shape...)
	}
	return polygons
}

// Bound returns the bounding box of the region
func (r *ROI) Bound() orb.Bound {
	return r.bound
}

// WKT renders the region for remote catalogue footprint queries
func (r *ROI) WKT() string {
	return wkt.MarshalString(r.Geometry)
}

// Intersects reports whether g touches the region
func (r *ROI) Intersects(g orb.Geometry) bool {
	if g == nil || !r.bound.Intersects(g.Bound()) {
		return false
	}
	switch g.(type) {
	case orb.Point, orb.Polygon, orb.MultiPolygon:
	default:
		return false
	}
	other, err := toGeom(g)
	if err != nil {
		// footprints are validated on parse, so only the bounds are left to compare
		return true
	}
	return geom.Intersects(r.shape, other)
}

// toGeom converts an orb geometry for the topological predicates
func toGeom(g orb.Geometry) (geom.Geometry, error) {
	return geom.UnmarshalWKT(wkt.MarshalString(g))
}
