package shapefile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/venicegeo/bf-metadata-summary/footprint"
	"github.com/venicegeo/bf-metadata-summary/model"
	"github.com/venicegeo/bf-metadata-summary/schema"
	"github.com/venicegeo/bf-metadata-summary/source"
	"github.com/venicegeo/bf-metadata-summary/util"
)

var (
	mockSquare = orb.Polygon{orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}}
	mockHoled  = orb.Polygon{
		orb.Ring{{10, 10}, {14, 10}, {14, 14}, {10, 14}, {10, 10}},
		orb.Ring{{11, 11}, {11, 12}, {12, 12}, {12, 11}, {11, 11}},
	}
	mockMulti = orb.MultiPolygon{
		{orb.Ring{{20, 20}, {21, 20}, {21, 21}, {20, 21}, {20, 20}}},
		{orb.Ring{{30, 30}, {31, 30}, {31, 31}, {30, 31}, {30, 30}}},
	}
)

func mockDataset() *model.Dataset {
	columns := []string{model.FieldMission, model.FieldStartTime, model.FieldOrbitAbs, model.FieldCloudCover, model.FieldFilename, "notes"}
	newRecord := func(mission, filename string, cover interface{}, orbit interface{}, g orb.Geometry) *model.Record {
		r := model.NewRecord("test")
		r.Set(model.FieldMission, mission)
		r.Set(model.FieldStartTime, "2021-06-01 10:00:00.000000")
		r.Set(model.FieldFilename, filename)
		r.Set(model.FieldCloudCover, cover)
		r.Set(model.FieldOrbitAbs, orbit)
		r.Geometry = g
		return r
	}
	records := []*model.Record{
		newRecord(schema.MissionLandsat, "LC08_A", 12.5, nil, mockSquare),
		newRecord(schema.MissionSentinel1, "S1A_B", model.NoCloudCover, int64(38123), mockHoled),
		newRecord(schema.MissionSentinel2, "S2B_C", nil, int64(7), mockMulti),
	}
	records[0].Set("notes", "café")
	return &model.Dataset{Columns: columns, Records: records}
}

func TestWrite_RoundTrip(t *testing.T) {
	// Mock
	dir := t.TempDir()
	target := filepath.Join(dir, "summary.shp")
	writer := &Writer{Context: &util.BasicLogContext{}}

	// Tested code
	result, err := writer.Write(mockDataset(), target)

	// Asserts
	if !assert.Nil(t, err) {
		t.FailNow()
	}
	assert.Equal(t, target, result.Path)
	assert.Equal(t, 3, result.Records)
	assert.Len(t, result.Files, len(Extensions))
	for _, file := range result.Files {
		_, err := os.Stat(file)
		assert.Nil(t, err, file)
	}
	prj, _ := os.ReadFile(filepath.Join(dir, "summary.prj"))
	assert.Equal(t, WGS84PRJ, string(prj))
	cpg, _ := os.ReadFile(filepath.Join(dir, "summary.cpg"))
	assert.Equal(t, "UTF-8", string(cpg))
	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, len(Extensions), "temporary files left behind")

	ds, err := Load(target)
	assert.Nil(t, err)
	assert.Equal(t, mockDataset().Columns, ds.Columns)
	assert.Equal(t, 3, ds.Len())

	assert.Equal(t, mockSquare, ds.Records[0].Geometry)
	assert.Equal(t, mockHoled, ds.Records[1].Geometry)
	assert.Equal(t, mockMulti, ds.Records[2].Geometry)

	assert.Equal(t, 12.5, ds.Records[0].Attributes[model.FieldCloudCover])
	assert.Equal(t, model.NoCloudCover, ds.Records[1].Attributes[model.FieldCloudCover])
	_, present := ds.Records[2].Get(model.FieldCloudCover)
	assert.False(t, present)
	assert.Equal(t, int64(38123), ds.Records[1].Attributes[model.FieldOrbitAbs])
	assert.Equal(t, "2021-06-01 10:00:00.000000", ds.Records[1].String(model.FieldStartTime))
	assert.Equal(t, "café", ds.Records[0].String("notes"))
}

func TestWrite_Points(t *testing.T) {
	record := model.NewRecord("test")
	record.Set(model.FieldMission, schema.MissionLandsat)
	record.Geometry = orb.Point{-80.5, 43.25}
	target := filepath.Join(t.TempDir(), "points")

	_, err := (&Writer{}).Write(&model.Dataset{Columns: []string{model.FieldMission}, Records: []*model.Record{record}}, target)
	assert.Nil(t, err)

	ds, err := Load(target + ".shp")
	assert.Nil(t, err)
	assert.Equal(t, orb.Point{-80.5, 43.25}, ds.Records[0].Geometry)
}

func TestWrite_Failures(t *testing.T) {
	dir := t.TempDir()

	ds := mockDataset()
	ds.Records[1].Geometry = orb.Point{1, 1}
	_, err := (&Writer{}).Write(ds, filepath.Join(dir, "mixed.shp"))
	assert.True(t, errors.Is(err, model.SchemaViolation))

	ds = mockDataset()
	ds.Columns = append(ds.Columns, "acquisition_start")
	_, err = (&Writer{}).Write(ds, filepath.Join(dir, "long.shp"))
	assert.True(t, errors.Is(err, model.SchemaViolation))
	assert.Contains(t, err.Error(), "acquisition_start")

	ds = mockDataset()
	ds.Records[0].Geometry = nil
	_, err = (&Writer{}).Write(ds, filepath.Join(dir, "null.shp"))
	assert.True(t, errors.Is(err, model.UnparsableGeometry))

	_, err = (&Writer{MaxBytes: 100}).Write(mockDataset(), filepath.Join(dir, "big.shp"))
	assert.True(t, errors.Is(err, model.OutputTooLarge))

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "a failed write must leave nothing behind")
}

func TestWriteGeoJSON(t *testing.T) {
	target := filepath.Join(t.TempDir(), "summary.geojson")

	result, err := (&Writer{}).WriteGeoJSON(mockDataset(), target)
	assert.Nil(t, err)
	assert.Equal(t, 3, result.Records)

	data, err := os.ReadFile(target)
	assert.Nil(t, err)
	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	assert.Nil(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	assert.Len(t, doc.Features, 3)
	assert.Contains(t, doc.Features[2].Properties, model.FieldCloudCover)
	assert.Nil(t, doc.Features[2].Properties[model.FieldCloudCover])

	_, err = (&Writer{MaxBytes: 10}).WriteGeoJSON(mockDataset(), target+".small")
	assert.True(t, errors.Is(err, model.OutputTooLarge))
	_, err = os.Stat(target + ".small")
	assert.True(t, os.IsNotExist(err))
}

func TestWrite_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "summary.shp")
	_, err := (&Writer{}).Write(mockDataset(), target)
	assert.Nil(t, err)

	ds := mockDataset()
	ds.Records = ds.Records[:1]
	result, err := (&Writer{}).Write(ds, target)
	assert.Nil(t, err)
	assert.Equal(t, 1, result.Records)

	loaded, err := Load(target)
	assert.Nil(t, err)
	assert.Equal(t, 1, loaded.Len())
	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, len(Extensions), "no staged or set aside files remain")
}

func TestCommitAll_RestoresPrevious(t *testing.T) {
	// Mock
	dir := t.TempDir()
	target := filepath.Join(dir, "summary.shp")
	_, err := (&Writer{}).Write(mockDataset(), target)
	assert.Nil(t, err)
	previous := map[string][]byte{}
	for _, ext := range Extensions {
		previous[ext], _ = os.ReadFile(filepath.Join(dir, "summary"+ext))
	}

	lostDir := filepath.Join(dir, "lost")
	assert.Nil(t, os.Mkdir(lostDir, 0755))
	ds := mockDataset()
	ds.Records = ds.Records[:1]
	first, err := (&Writer{}).Stage(ds, target)
	assert.Nil(t, err)
	second, err := (&Writer{}).StageGeoJSON(ds, filepath.Join(lostDir, "summary.geojson"))
	assert.Nil(t, err)
	assert.Nil(t, os.RemoveAll(lostDir))

	// Tested code
	err = CommitAll(first, second)

	// Asserts
	assert.NotNil(t, err)
	for _, ext := range Extensions {
		data, readErr := os.ReadFile(filepath.Join(dir, "summary"+ext))
		assert.Nil(t, readErr)
		assert.Equal(t, previous[ext], data, "summary%s is restored", ext)
	}
	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, len(Extensions))
}

func TestStage_Discard(t *testing.T) {
	dir := t.TempDir()
	writer := &Writer{}

	shapes, err := writer.Stage(mockDataset(), filepath.Join(dir, "summary.shp"))
	assert.Nil(t, err)
	features, err := writer.StageGeoJSON(mockDataset(), filepath.Join(dir, "summary.geojson"))
	assert.Nil(t, err)
	assert.Equal(t, filepath.Join(dir, "summary.dbf"), shapes.Result.Files[2])

	assert.Nil(t, DiscardAll(shapes, features))
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestAdapter_Fetch(t *testing.T) {
	target := filepath.Join(t.TempDir(), "intermediate.shp")
	_, err := (&Writer{}).Write(mockDataset(), target)
	assert.Nil(t, err)

	roi, err := footprint.ParseBBox("-1,-1,5,5")
	assert.Nil(t, err)
	adapter := &Adapter{SourceName: "landsat-shp", Path: target, Context: &util.BasicLogContext{}}
	raws, err := adapter.Fetch(context.Background(), source.Query{ROI: roi})

	assert.Nil(t, err)
	assert.Equal(t, "landsat-shp", adapter.Name())
	assert.Len(t, raws, 1)
	assert.Equal(t, "LC08_A", raws[0].Fields[model.FieldFilename])
	assert.Equal(t, "12.5000", raws[0].Fields[model.FieldCloudCover])
	assert.Nil(t, raws[0].Fields[model.FieldOrbitAbs])
	assert.Equal(t, 3, adapter.Stats.Read)
	assert.Equal(t, 2, adapter.Stats.OutsideROI)

	adapter.Path = filepath.Join(t.TempDir(), "missing.shp")
	_, err = adapter.Fetch(context.Background(), source.Query{})
	assert.True(t, errors.Is(err, model.SourceUnavailable))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	adapter.Path = target
	_, err = adapter.Fetch(ctx, source.Query{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "caf", truncate("café", 4))
	assert.Equal(t, strings.Repeat("x", 254), truncate(strings.Repeat("x", 300), 254))
}
