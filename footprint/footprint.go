// Package footprint handles acquisition footprints and the region of interest
// they are clipped against. All coordinates are longitude/latitude in EPSG:4326.
package footprint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// ErrEmptyGeometry is returned for geometries without coordinates
var ErrEmptyGeometry = errors.New("empty geometry")

// ParseWKT parses a footprint. Only points, polygons and multipolygons are accepted.
func ParseWKT(s string) (orb.Geometry, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyGeometry
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, err
	}
	if err = Validate(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks that g is a supported, non-empty geometry with coordinates in range
func Validate(g orb.Geometry) error {
	var points []orb.Point
	switch geom := g.(type) {
	case orb.Point:
		points = []orb.Point{geom}
	case orb.Polygon:
		if len(geom) == 0 || len(geom[0]) < 4 {
			return ErrEmptyGeometry
		}
		for _, ring := range geom {
			points = append(points, ring...)
		}
	case orb.MultiPolygon:
		if len(geom) == 0 {
			return ErrEmptyGeometry
		}
		for _, polygon := range geom {
			if err := Validate(polygon); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return ErrEmptyGeometry
	default:
		return fmt.Errorf("unsupported geometry type %s", g.GeoJSONType())
	}
	for _, p := range points {
		if p[0] < -180 || p[0] > 180 || p[1] < -90 || p[1] > 90 {
			return fmt.Errorf("coordinate %v is outside EPSG:4326 bounds", p)
		}
	}
	return nil
}

// Corners are the four corner coordinates of a scene
type Corners struct {
	UpperLeftLat, UpperLeftLon   float64
	UpperRightLat, UpperRightLon float64
	LowerRightLat, LowerRightLon float64
	LowerLeftLat, LowerLeftLon   float64
}

// Polygon returns the closed footprint ring UL, UR, LR, LL, UL
func (c Corners) Polygon() orb.Polygon {
	return orb.Polygon{orb.Ring{
		{c.UpperLeftLon, c.UpperLeftLat},
		{c.UpperRightLon, c.UpperRightLat},
		{c.LowerRightLon, c.LowerRightLat},
		{c.LowerLeftLon, c.LowerLeftLat},
		{c.UpperLeftLon, c.UpperLeftLat},
	}}
}

// ShapeType names the single shape kind a geometry is stored as in a shapefile
func ShapeType(g orb.Geometry) string {
	switch g.(type) {
	case orb.Point:
		return "Point"
	case orb.Polygon, orb.MultiPolygon:
		return "Polygon"
	default:
		return ""
	}
}
