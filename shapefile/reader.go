package shapefile

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/venicegeo/bf-metadata-summary/model"
	"github.com/venicegeo/bf-metadata-summary/source"
	"github.com/venicegeo/bf-metadata-summary/util"
)

// Adapter reads an intermediate per-mission shapefile. Attributes are handed
// on as strings and the ROI is applied; the time window is left to the
// merge filter since each mission names its time column differently.
type Adapter struct {
	SourceName string
	Path       string
	Context    util.LogContext
	Stats      source.Stats
}

// Name implements source.Adapter
func (a *Adapter) Name() string {
	return a.SourceName
}

// Fetch implements source.Adapter
func (a *Adapter) Fetch(ctx context.Context, q source.Query) ([]source.RawRecord, error) {
	a.Stats = source.Stats{StartTime: time.Now()}
	defer func() { a.Stats.EndTime = time.Now() }()

	var raws []source.RawRecord
	err := scan(a.Path, func(fields []shp.Field, values []string, geometry orb.Geometry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.Stats.Read++
		if geometry == nil {
			a.Stats.Errors++
			util.LogAlert(a.Context, fmt.Sprintf("Skipping null shape %d in %s", a.Stats.Read-1, a.Path))
			return nil
		}
		if q.ROI != nil && !q.ROI.Intersects(geometry) {
			a.Stats.OutsideROI++
			return nil
		}
		raw := source.RawRecord{Fields: make(map[string]interface{}, len(fields)), Geometry: geometry}
		for i, field := range fields {
			if values[i] == "" {
				raw.Fields[field.String()] = nil
			} else {
				raw.Fields[field.String()] = values[i]
			}
		}
		raws = append(raws, raw)
		a.Stats.Kept++
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, model.NewError(model.SourceUnavailable, a.SourceName, "", a.Path, err)
	}
	util.LogInfo(a.Context, fmt.Sprintf("Read %s: %s", a.Path, a.Stats.String()))
	return raws, nil
}

// Load reads a summary shapefile back into a dataset, typing numeric
// attributes from the DBF field definitions
func Load(path string) (*model.Dataset, error) {
	ds := &model.Dataset{}
	err := scan(path, func(fields []shp.Field, values []string, geometry orb.Geometry) error {
		if ds.Columns == nil {
			ds.Columns = make([]string, len(fields))
			for i, field := range fields {
				ds.Columns[i] = field.String()
			}
		}
		record := model.NewRecord(path)
		record.Geometry = geometry
		for i, field := range fields {
			value, err := typedValue(field, values[i])
			if err != nil {
				return model.NewError(model.SchemaViolation, path, field.String(), values[i], err)
			}
			if value != nil {
				record.Set(field.String(), value)
			}
		}
		ds.Records = append(ds.Records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func typedValue(field shp.Field, text string) (interface{}, error) {
	if text == "" {
		return nil, nil
	}
	switch field.Fieldtype {
	case 'N':
		if field.Precision == 0 {
			return strconv.ParseInt(text, 10, 64)
		}
		return strconv.ParseFloat(text, 64)
	case 'F':
		return strconv.ParseFloat(text, 64)
	}
	return text, nil
}

// scan calls fn for every shape of the file at path with its trimmed
// attribute values
func scan(path string, fn func([]shp.Field, []string, orb.Geometry) error) error {
	reader, err := shp.Open(trimShp(path) + ".shp")
	if err != nil {
		return err
	}
	defer reader.Close()

	fields := reader.Fields()
	for reader.Next() {
		row, shape := reader.Shape()
		values := make([]string, len(fields))
		for i := range fields {
			// unwritten attributes are NUL filled
			values[i] = strings.Trim(reader.ReadAttribute(row, i), " \x00")
		}
		if err = fn(fields, values, fromShape(shape)); err != nil {
			return err
		}
	}
	return reader.Err()
}

// fromShape converts a shape to orb. A clockwise ring starts a new polygon,
// a counterclockwise one is a hole in the polygon before it. Rings come
// back counterclockwise outside and clockwise inside.
func fromShape(shape shp.Shape) orb.Geometry {
	switch s := shape.(type) {
	case *shp.Point:
		return orb.Point{s.X, s.Y}
	case *shp.Polygon:
		var mp orb.MultiPolygon
		for i, start := range s.Parts {
			end := len(s.Points)
			if i+1 < len(s.Parts) {
				end = int(s.Parts[i+1])
			}
			ring := make(orb.Ring, 0, end-int(start))
			for _, p := range s.Points[start:end] {
				ring = append(ring, orb.Point{p.X, p.Y})
			}
			if ring.Orientation() == orb.CCW && len(mp) > 0 {
				ring.Reverse()
				mp[len(mp)-1] = append(mp[len(mp)-1], ring)
				continue
			}
			if ring.Orientation() == orb.CW {
				ring.Reverse()
			}
			mp = append(mp, orb.Polygon{ring})
		}
		switch len(mp) {
		case 0:
			return nil
		case 1:
			return mp[0]
		}
		return mp
	}
	return nil
}
