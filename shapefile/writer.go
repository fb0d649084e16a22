// Package shapefile writes the summary as an ESRI shapefile and reads
// intermediate shapefiles back as a metadata source.
package shapefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/renameio/v2"
	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/venicegeo/bf-metadata-summary/footprint"
	"github.com/venicegeo/bf-metadata-summary/model"
	"github.com/venicegeo/bf-metadata-summary/schema"
	"github.com/venicegeo/bf-metadata-summary/util"
)

// WGS84PRJ declares EPSG:4326 in the .prj sidecar
const WGS84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// Extensions are the files that make up one written shapefile
var Extensions = []string{".shp", ".shx", ".dbf", ".prj", ".cpg"}

// Writer emits datasets as shapefiles. Output is staged beside the target
// and moved into place only once every file is complete.
type Writer struct {
	// MaxBytes caps the total size of all files; zero means no cap
	MaxBytes int64
	Context  util.LogContext
}

// Result describes a written artifact
type Result struct {
	Path    string
	Files   []string
	Bytes   int64
	Records int
}

// Write writes ds to target (a path with or without the .shp extension)
func (w *Writer) Write(ds *model.Dataset, target string) (*Result, error) {
	staged, err := w.Stage(ds, target)
	if err != nil {
		return nil, err
	}
	if err = CommitAll(staged); err != nil {
		return nil, err
	}
	return staged.Result, nil
}

// Stage writes every file of the shapefile for target into a temporary
// directory beside it, without touching target itself
func (w *Writer) Stage(ds *model.Dataset, target string) (*Staged, error) {
	base := trimShp(target)
	dir, name := filepath.Dir(base), filepath.Base(base)

	shapeType, err := shapeTypeOf(ds)
	if err != nil {
		return nil, err
	}
	fields, columns, err := dbfFields(ds.Columns)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp(dir, "."+name+"-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary output directory: %w", err)
	}
	staged := &Staged{
		Result:  &Result{Path: base + ".shp", Records: ds.Len()},
		context: w.Context,
		discard: []func() error{func() error { return os.RemoveAll(tmpDir) }},
	}
	if err = w.stageShapes(staged, filepath.Join(tmpDir, name), base, shapeType, fields, columns, ds); err != nil {
		staged.Discard()
		return nil, err
	}
	staged.message = fmt.Sprintf("Wrote %d records to %s (%d bytes)", staged.Result.Records, staged.Result.Path, staged.Result.Bytes)
	return staged, nil
}

func (w *Writer) stageShapes(staged *Staged, tmpBase, base string, shapeType shp.ShapeType, fields []shp.Field, columns []schema.Column, ds *model.Dataset) error {
	if err := writeShapes(tmpBase, shapeType, fields, columns, ds); err != nil {
		return err
	}
	if err := os.WriteFile(tmpBase+".prj", []byte(WGS84PRJ), 0644); err != nil {
		return err
	}
	if err := os.WriteFile(tmpBase+".cpg", []byte("UTF-8"), 0644); err != nil {
		return err
	}

	result := staged.Result
	for _, ext := range Extensions {
		info, err := os.Stat(tmpBase + ext)
		if err != nil {
			return err
		}
		result.Bytes += info.Size()
	}
	if w.MaxBytes > 0 && result.Bytes > w.MaxBytes {
		return model.NewError(model.OutputTooLarge, "", "", result.Bytes,
			fmt.Errorf("%s would be %d bytes, the limit is %d", result.Path, result.Bytes, w.MaxBytes))
	}

	for _, ext := range Extensions {
		from, to := tmpBase+ext, base+ext
		staged.files = append(staged.files, pendingFile{target: to, install: func() error { return os.Rename(from, to) }})
		result.Files = append(result.Files, to)
	}
	return nil
}

// WriteGeoJSON writes ds as a GeoJSON feature collection to target
func (w *Writer) WriteGeoJSON(ds *model.Dataset, target string) (*Result, error) {
	staged, err := w.StageGeoJSON(ds, target)
	if err != nil {
		return nil, err
	}
	if err = CommitAll(staged); err != nil {
		return nil, err
	}
	return staged.Result, nil
}

// StageGeoJSON writes ds as a GeoJSON feature collection to a pending file
// beside target
func (w *Writer) StageGeoJSON(ds *model.Dataset, target string) (*Staged, error) {
	fc, err := ds.GeoJSONFeatureCollection()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, err
	}
	if w.MaxBytes > 0 && int64(len(data)) > w.MaxBytes {
		return nil, model.NewError(model.OutputTooLarge, "", "", len(data),
			fmt.Errorf("%s would be %d bytes, the limit is %d", target, len(data), w.MaxBytes))
	}
	pending, err := renameio.NewPendingFile(target,
		renameio.WithTempDir(filepath.Dir(target)), renameio.WithStaticPermissions(0644))
	if err != nil {
		return nil, err
	}
	if _, err = pending.Write(data); err != nil {
		pending.Cleanup()
		return nil, err
	}
	return &Staged{
		Result:  &Result{Path: target, Files: []string{target}, Bytes: int64(len(data)), Records: ds.Len()},
		context: w.Context,
		files:   []pendingFile{{target: target, install: pending.CloseAtomicallyReplace}},
		discard: []func() error{pending.Cleanup},
		message: fmt.Sprintf("Wrote %d features to %s", ds.Len(), target),
	}, nil
}

func trimShp(target string) string {
	if strings.HasSuffix(strings.ToLower(target), ".shp") {
		return target[:len(target)-4]
	}
	return target
}

// shapeTypeOf picks the one shape type every record can be stored as
func shapeTypeOf(ds *model.Dataset) (shp.ShapeType, error) {
	kind := ""
	for _, record := range ds.Records {
		current := footprint.ShapeType(record.Geometry)
		if current == "" {
			return 0, model.NewError(model.UnparsableGeometry, record.Source, "geometry", record.String(model.FieldFilename),
				fmt.Errorf("cannot store %T in a shapefile", record.Geometry))
		}
		if kind != "" && kind != current {
			return 0, model.NewError(model.SchemaViolation, record.Source, "geometry", record.String(model.FieldFilename),
				fmt.Errorf("%s geometry in a %s shapefile", current, kind))
		}
		kind = current
	}
	if kind == "Point" {
		return shp.POINT, nil
	}
	return shp.POLYGON, nil
}

func dbfFields(names []string) ([]shp.Field, []schema.Column, error) {
	fields := make([]shp.Field, len(names))
	columns := make([]schema.Column, len(names))
	for i, name := range names {
		if len(name) > schema.MaxShapefileKeyLen {
			return nil, nil, model.NewError(model.SchemaViolation, "", name, nil,
				fmt.Errorf("column name is longer than %d characters", schema.MaxShapefileKeyLen))
		}
		column := schema.ColumnFor(name)
		switch column.Kind {
		case schema.Integer:
			fields[i] = shp.NumberField(name, column.Width)
		case schema.Float:
			fields[i] = shp.FloatField(name, column.Width, column.Precision)
		default:
			fields[i] = shp.StringField(name, column.Width)
		}
		columns[i] = column
	}
	return fields, columns, nil
}

func writeShapes(tmpBase string, shapeType shp.ShapeType, fields []shp.Field, columns []schema.Column, ds *model.Dataset) error {
	writer, err := shp.Create(tmpBase+".shp", shapeType)
	if err != nil {
		return err
	}
	if err = writer.SetFields(fields); err != nil {
		writer.Close()
		return err
	}
	for _, record := range ds.Records {
		row := int(writer.Write(toShape(record.Geometry)))
		for i, column := range columns {
			value, ok := attributeValue(column, record.Attributes[column.Name])
			if !ok {
				continue
			}
			if err = writer.WriteAttribute(row, i, value); err != nil {
				writer.Close()
				return model.NewError(model.SchemaViolation, record.Source, column.Name, value, err)
			}
		}
	}
	writer.Close()
	// The writer names its table <base>dbf
	return os.Rename(tmpBase+"dbf", tmpBase+".dbf")
}

// toShape converts a point or areal geometry. Outer rings are written
// clockwise and holes counterclockwise.
func toShape(g orb.Geometry) shp.Shape {
	switch geom := g.(type) {
	case orb.Point:
		return &shp.Point{X: geom[0], Y: geom[1]}
	case orb.Polygon:
		return polygonShape(orb.MultiPolygon{geom})
	case orb.MultiPolygon:
		return polygonShape(geom)
	}
	return &shp.Null{}
}

func polygonShape(mp orb.MultiPolygon) *shp.Polygon {
	var parts [][]shp.Point
	for _, polygon := range mp {
		for i, ring := range polygon {
			ring = ring.Clone()
			outer := i == 0
			if (outer && ring.Orientation() == orb.CCW) || (!outer && ring.Orientation() == orb.CW) {
				ring.Reverse()
			}
			points := make([]shp.Point, len(ring))
			for j, p := range ring {
				points[j] = shp.Point{X: p[0], Y: p[1]}
			}
			parts = append(parts, points)
		}
	}
	polygon := shp.Polygon(*shp.NewPolyLine(parts))
	return &polygon
}

func attributeValue(column schema.Column, value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case int64:
		switch column.Kind {
		case schema.Integer:
			return int(v), true
		case schema.Float:
			return float64(v), true
		}
	case float64:
		switch column.Kind {
		case schema.Float:
			return v, true
		case schema.Integer:
			if v == float64(int64(v)) {
				return int(v), true
			}
		}
	}
	return truncate(textValue(value), int(column.Width)), true
}

func textValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
