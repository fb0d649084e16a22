// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package landsat

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/venicegeo/bf-metadata-summary/footprint"
	"github.com/venicegeo/bf-metadata-summary/model"
	"github.com/venicegeo/bf-metadata-summary/schema"
	"github.com/venicegeo/bf-metadata-summary/source"
	"github.com/venicegeo/bf-metadata-summary/util"
)

const sampleHeader = "Landsat Product Identifier L1,Date Acquired,Start Time,Satellite,Scene Cloud Cover L1,WRS Path,WRS Row," +
	"Corner Upper Left Latitude,Corner Upper Left Longitude,Corner Upper Right Latitude,Corner Upper Right Longitude," +
	"Corner Lower Left Latitude,Corner Lower Left Longitude,Corner Lower Right Latitude,Corner Lower Right Longitude\n"

// Lake Erie, outside the window, far away, and two broken rows
var sampleBulkCSV = []byte(sampleHeader +
	"LC08_L1TP_018030_20210601_20210608_02_T1,2021/06/01,2021:152:16:01:02.1234567,8,12.5,18,30,43,-80,43,-79,42,-80,42,-79\n" +
	"LC08_L1TP_018030_20210401_20210408_02_T1,2021/04/01,2021:091:16:01:02.1234567,8,1.0,18,30,43,-80,43,-79,42,-80,42,-79\n" +
	"LC09_L1TP_150040_20210602_20210608_02_T1,2021/06/02,2021:153:05:01:02.1234567,9,3.0,150,40,30,70,30,71,29,70,29,71\n" +
	"LC09_L1TP_018030_20210603_20210608_02_T1,June 3rd,2021:154:16:01:02.1234567,9,3.0,18,30,43,-80,43,-79,42,-80,42,-79\n" +
	"LC09_L1TP_018030_20210604_20210608_02_T1,2021/06/04,2021:155:16:01:02.1234567,9,3.0,18,30,north,-80,43,-79,42,-80,42,-79\n")

type mockUSGSHandler struct{}

func (h mockUSGSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/missing.csv.gz" {
		http.NotFound(w, r)
		return
	}
	gzipWriter := gzip.NewWriter(w)
	gzipWriter.Write(sampleBulkCSV)
	gzipWriter.Close()
}

func mockQuery(t *testing.T) source.Query {
	roi, err := footprint.NewROI(orb.Polygon{orb.Ring{{-83, 41}, {-78, 41}, {-78, 44}, {-83, 44}, {-83, 41}}})
	if !assert.Nil(t, err) {
		t.FailNow()
	}
	return source.Query{
		Start: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC),
		ROI:   roi,
	}
}

func TestFetch_File(t *testing.T) {
	// Mock
	path := filepath.Join(t.TempDir(), "LANDSAT_OT_C2_L1.csv")
	assert.Nil(t, os.WriteFile(path, sampleBulkCSV, 0644))
	adapter := &Adapter{SourceName: "landsat-l1", Location: path, Context: &util.BasicLogContext{}}

	// Tested code
	records, err := adapter.Fetch(context.Background(), mockQuery(t))

	// Asserts
	assert.Nil(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "landsat-l1", adapter.Name())
	assert.Equal(t, 5, adapter.Stats.Read)
	assert.Equal(t, 1, adapter.Stats.Kept)
	assert.Equal(t, 1, adapter.Stats.OutsideWindow)
	assert.Equal(t, 1, adapter.Stats.OutsideROI)
	assert.Equal(t, 2, adapter.Stats.Errors)

	record := records[0]
	assert.Equal(t, "LC08_L1TP_018030_20210601_20210608_02_T1", record.Fields["Landsat Product Identifier L1"])
	polygon, ok := record.Geometry.(orb.Polygon)
	assert.True(t, ok)
	assert.Equal(t, orb.Point{-80, 43}, polygon[0][0])
	assert.Equal(t, orb.Point{-79, 42}, polygon[0][2])
	assert.Equal(t, polygon[0][0], polygon[0][4])
}

func TestFetch_NormalizesAsLevel1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LANDSAT_OT_C2_L1.csv")
	assert.Nil(t, os.WriteFile(path, sampleBulkCSV, 0644))
	adapter := &Adapter{SourceName: "landsat-l1", Location: path, Context: &util.BasicLogContext{}}
	records, err := adapter.Fetch(context.Background(), source.Query{})
	assert.Nil(t, err)
	assert.Len(t, records, 3)

	mapping, err := schema.Lookup("landsat-l1")
	assert.Nil(t, err)
	normalizer := &schema.Normalizer{Source: "landsat-l1", Mapping: mapping, Context: &util.BasicLogContext{}}
	normalized, report, err := normalizer.NormalizeAll(records)
	assert.Nil(t, err)
	assert.Equal(t, 3, report.Accepted)
	assert.Equal(t, "2021-06-01 16:01:02.123456", normalized[0].String(model.FieldStartTime))
	assert.Equal(t, "LANDSAT-8", normalized[0].String(model.FieldPlatform))
	assert.Equal(t, "LANDSAT-9", normalized[2].String(model.FieldPlatform))
}

func TestFetch_GzipURL(t *testing.T) {
	server := httptest.NewServer(mockUSGSHandler{})
	defer server.Close()

	adapter := &Adapter{SourceName: "landsat-l2", Location: server.URL + "/LANDSAT_OT_C2_L2.csv.gz", Client: server.Client(), Context: &util.BasicLogContext{}}
	records, err := adapter.Fetch(context.Background(), mockQuery(t))
	assert.Nil(t, err)
	assert.Len(t, records, 1)

	adapter.Location = server.URL + "/missing.csv.gz"
	_, err = adapter.Fetch(context.Background(), mockQuery(t))
	assert.True(t, errors.Is(err, model.SourceUnavailable))
	assert.Contains(t, err.Error(), "404")
}

func TestFetch_Failures(t *testing.T) {
	adapter := &Adapter{SourceName: "landsat-l1", Location: filepath.Join(t.TempDir(), "nope.csv"), Context: &util.BasicLogContext{}}
	_, err := adapter.Fetch(context.Background(), source.Query{})
	assert.True(t, errors.Is(err, model.SourceUnavailable))
	assert.Contains(t, err.Error(), "landsat-l1")

	path := filepath.Join(t.TempDir(), "bad-header.csv")
	assert.Nil(t, os.WriteFile(path, []byte("Date Acquired,WRS Path\n2021/06/01,18\n"), 0644))
	adapter.Location = path
	_, err = adapter.Fetch(context.Background(), source.Query{})
	assert.True(t, errors.Is(err, model.SchemaViolation))
	assert.Contains(t, err.Error(), ColumnUpperLeftLat)

	path = filepath.Join(t.TempDir(), "empty.csv")
	assert.Nil(t, os.WriteFile(path, []byte(sampleHeader), 0644))
	adapter.Location = path
	records, err := adapter.Fetch(context.Background(), source.Query{})
	assert.Nil(t, err)
	assert.Empty(t, records)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	adapter.Location = filepath.Join(t.TempDir(), "sample.csv")
	assert.Nil(t, os.WriteFile(adapter.Location, sampleBulkCSV, 0644))
	_, err = adapter.Fetch(ctx, source.Query{})
	assert.True(t, errors.Is(err, context.Canceled))
}
