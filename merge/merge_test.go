package merge

import (
	"sort"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/venicegeo/bf-metadata-summary/model"
	"github.com/venicegeo/bf-metadata-summary/schema"
	"github.com/venicegeo/bf-metadata-summary/util"
)

var mockSquare = orb.Polygon{orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}

func mockRecord(source, mission, start string, attrs map[string]interface{}) *model.Record {
	record := model.NewRecord(source)
	record.Set(model.FieldMission, mission)
	record.Set(model.FieldStartTime, start)
	record.Set(model.FieldFilename, source+"-"+start)
	for k, v := range attrs {
		record.Set(k, v)
	}
	record.Geometry = mockSquare
	return record
}

func mockTables() [][]*model.Record {
	landsat := []*model.Record{
		mockRecord("landsat-l2", schema.MissionLandsat, "2021-06-01 10:00:00.000000", map[string]interface{}{model.FieldCloudCover: 12.5, "ellipsoid": "WGS84"}),
		mockRecord("landsat-l2", schema.MissionLandsat, "2021-07-01 10:00:00.000000", map[string]interface{}{model.FieldCloudCover: 0.0}),
	}
	sentinel2 := []*model.Record{
		mockRecord("sentinel-2", schema.MissionSentinel2, "2021-06-02 10:00:00.000000", map[string]interface{}{model.FieldCloudCover: 88.0, "tileid": "17TNJ"}),
	}
	radarsat := []*model.Record{
		mockRecord("radarsat-2", schema.MissionRadarsat2, "2021-06-03 10:00:00.000000", map[string]interface{}{"quality": "Good", "beam": "S3"}),
		mockRecord("radarsat-2", schema.MissionRadarsat2, "2021-06-04 10:00:00.000000", map[string]interface{}{"quality": nil}),
	}
	return [][]*model.Record{landsat, sentinel2, radarsat}
}

func filenames(ds *model.Dataset) []string {
	names := make([]string, 0, ds.Len())
	for _, r := range ds.Records {
		names = append(names, r.String(model.FieldFilename))
	}
	sort.Strings(names)
	return names
}

func TestMerge_OrderIndependent(t *testing.T) {
	tables := mockTables()

	forward := Merge(tables[0], tables[1], tables[2])
	backward := Merge(tables[2], nil, tables[1], tables[0])

	assert.Equal(t, forward.Columns, backward.Columns)
	assert.Equal(t, filenames(forward), filenames(backward))
	assert.Equal(t, 5, forward.Len())
	assert.Equal(t, model.FieldMission, forward.Columns[0])
	assert.True(t, forward.HasColumn("tileid"))
	assert.True(t, forward.HasColumn("beam"))
}

func TestMerge_Empty(t *testing.T) {
	ds := Merge()
	assert.Equal(t, 0, ds.Len())

	ds = Merge(nil, []*model.Record{})
	assert.Equal(t, 0, ds.Len())
	filtered, report := Filter(&util.BasicLogContext{}, ds, Options{})
	assert.Equal(t, 0, filtered.Len())
	assert.Equal(t, 0, report.Kept)
}

// Three sources, only two of which report cloud cover
func TestFilter_CloudCoverSentinel(t *testing.T) {
	// Mock
	ds := Merge(mockTables()...)

	// Tested code
	filtered, report := Filter(&util.BasicLogContext{}, ds, Options{})

	// Asserts
	assert.Equal(t, 5, report.Kept)
	for _, record := range filtered.Records {
		value, present := record.Get(model.FieldCloudCover)
		assert.True(t, present)
		cover, ok := value.(float64)
		assert.True(t, ok, "cloudcover of %s is %v", record.Mission(), value)
		assert.True(t, cover >= 0 || cover == model.NoCloudCover)
		if record.Mission() == schema.MissionRadarsat2 {
			assert.Equal(t, model.NoCloudCover, cover)
		}
	}
	_, original := ds.Records[3].Get(model.FieldCloudCover)
	assert.False(t, original, "Filter must not modify its input")
}

func TestFilter_CloudCoverInvalid(t *testing.T) {
	ds := Merge([]*model.Record{
		mockRecord("sentinel-2", schema.MissionSentinel2, "2021-06-02 10:00:00.000000", map[string]interface{}{model.FieldCloudCover: nil}),
		mockRecord("sentinel-2", schema.MissionSentinel2, "2021-06-03 10:00:00.000000", map[string]interface{}{model.FieldCloudCover: -5.0}),
		mockRecord("sentinel-2", schema.MissionSentinel2, "2021-06-04 10:00:00.000000", map[string]interface{}{model.FieldCloudCover: int64(3)}),
		mockRecord("sentinel-1", schema.MissionSentinel1, "2021-06-04 10:00:00.000000", map[string]interface{}{model.FieldCloudCover: 40.0}),
	})

	filtered, report := Filter(&util.BasicLogContext{}, ds, Options{})

	assert.Equal(t, 2, filtered.Len())
	assert.Equal(t, 1, report.Dropped[ReasonMissingCloudCover])
	assert.Equal(t, 1, report.Dropped[ReasonBadCloudCover])
	assert.Equal(t, 3.0, filtered.Records[0].Attributes[model.FieldCloudCover])
	assert.Equal(t, model.NoCloudCover, filtered.Records[1].Attributes[model.FieldCloudCover])
}

func TestFilter_Window(t *testing.T) {
	ds := Merge([]*model.Record{
		mockRecord("landsat-l2", schema.MissionLandsat, "2021-04-30 23:59:59.999999", map[string]interface{}{model.FieldCloudCover: 1.0}),
		mockRecord("landsat-l2", schema.MissionLandsat, "2021-05-01 00:00:00.000000", map[string]interface{}{model.FieldCloudCover: 1.0}),
		mockRecord("landsat-l2", schema.MissionLandsat, "2021-12-01 00:00:00.000000", map[string]interface{}{model.FieldCloudCover: 1.0}),
		mockRecord("landsat-l2", schema.MissionLandsat, "", map[string]interface{}{model.FieldCloudCover: 1.0}),
		mockRecord("landsat-l2", schema.MissionLandsat, "yesterday", map[string]interface{}{model.FieldCloudCover: 1.0}),
	})
	opts := Options{
		Start: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC),
	}

	filtered, report := Filter(&util.BasicLogContext{}, ds, opts)
	assert.Equal(t, 1, filtered.Len())
	assert.Equal(t, "2021-05-01 00:00:00.000000", filtered.Records[0].String(model.FieldStartTime))
	assert.Equal(t, 2, report.Dropped[ReasonOutsideWindow])
	assert.Equal(t, 1, report.Dropped[ReasonNoStartTime])
	assert.Equal(t, 1, report.Dropped[ReasonBadStartTime])

	opts.ClosedEnd = true
	filtered, _ = Filter(&util.BasicLogContext{}, ds, opts)
	assert.Equal(t, 2, filtered.Len())
}

func TestFilter_QualityAndPruning(t *testing.T) {
	tables := mockTables()
	tables[2] = append(tables[2], mockRecord("radarsat-2", schema.MissionRadarsat2, "2021-06-05 10:00:00.000000", map[string]interface{}{"quality": "Problem"}))
	ds := Merge(tables...)

	filtered, report := Filter(&util.BasicLogContext{}, ds, Options{})
	assert.Equal(t, 5, filtered.Len())
	assert.Equal(t, 1, report.Dropped[ReasonQuality])
	assert.False(t, filtered.HasColumn("quality"))
	assert.False(t, filtered.HasColumn("ellipsoid"))
	assert.True(t, filtered.HasColumn("beam"))
	assert.Contains(t, report.Pruned, "ellipsoid")
	for _, record := range filtered.Records {
		_, present := record.Get("ellipsoid")
		assert.False(t, present)
	}

	filtered, _ = Filter(&util.BasicLogContext{}, ds, Options{QualitySentinel: "Good"})
	assert.Equal(t, 5, filtered.Len())

	retain := []string{model.FieldStartTime, model.FieldMission, "quality", "not-a-column"}
	filtered, _ = Filter(&util.BasicLogContext{}, ds, Options{Retain: retain})
	assert.Equal(t, []string{model.FieldStartTime, model.FieldMission, "quality"}, filtered.Columns)
	_, present := filtered.Records[0].Get(model.FieldCloudCover)
	assert.False(t, present)
}

func TestAreaBranch(t *testing.T) {
	ds := Merge(mockTables()...)
	big := mockRecord("sentinel-3", schema.MissionSentinel3, "2021-06-06 10:00:00.000000", map[string]interface{}{model.FieldCloudCover: 5.0})
	big.Geometry = orb.Polygon{orb.Ring{{0, 0}, {20, 0}, {20, 20}, {0, 20}, {0, 0}}}
	ds = Merge(ds.Records, []*model.Record{big})
	filtered, _ := Filter(&util.BasicLogContext{}, ds, Options{
		CloudCoverMissions: []string{schema.MissionLandsat, schema.MissionSentinel2, schema.MissionSentinel3},
	})

	out, stats := AreaBranch(&util.BasicLogContext{}, filtered, AreaOptions{
		ExcludeMissions: []string{schema.MissionSentinel3},
		MaxKm2:          map[string]float64{schema.MissionSentinel2: 100},
		DropColumns:     []string{"beam"},
	})

	assert.Len(t, stats, 3)
	for _, s := range stats {
		assert.True(t, s.Min <= s.Mean && s.Mean <= s.Max, s.String())
	}
	assert.Equal(t, schema.MissionLandsat, stats[0].Mission)
	assert.Equal(t, 2, stats[0].Count)
	assert.InDelta(t, 12391, stats[0].Mean, 50)

	assert.Equal(t, 2, out.Len())
	for _, record := range out.Records {
		assert.Equal(t, schema.MissionLandsat, record.Mission())
		area, ok := record.Float(model.FieldArea)
		assert.True(t, ok)
		assert.InDelta(t, 12391, area, 50)
	}
	assert.Equal(t, model.FieldArea, out.Columns[len(out.Columns)-1])
	assert.False(t, out.HasColumn("beam"))
	_, hasArea := filtered.Records[0].Get(model.FieldArea)
	assert.False(t, hasArea)
}
