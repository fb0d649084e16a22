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

// Package landsat reads the USGS Landsat 8/9 bulk metadata files.
package landsat

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/venicegeo/bf-metadata-summary/footprint"
	csvcolumnmap "github.com/venicegeo/bf-metadata-summary/landsat/csvcolumnmap"
	"github.com/venicegeo/bf-metadata-summary/model"
	"github.com/venicegeo/bf-metadata-summary/schema"
	"github.com/venicegeo/bf-metadata-summary/source"
	"github.com/venicegeo/bf-metadata-summary/util"
)

// Bulk metadata columns the adapter reads itself
const (
	ColumnDateAcquired  = "Date Acquired"
	ColumnUpperLeftLat  = "Corner Upper Left Latitude"
	ColumnUpperLeftLon  = "Corner Upper Left Longitude"
	ColumnUpperRightLat = "Corner Upper Right Latitude"
	ColumnUpperRightLon = "Corner Upper Right Longitude"
	ColumnLowerRightLat = "Corner Lower Right Latitude"
	ColumnLowerRightLon = "Corner Lower Right Longitude"
	ColumnLowerLeftLat  = "Corner Lower Left Latitude"
	ColumnLowerLeftLon  = "Corner Lower Left Longitude"
)

var requiredColumns = []string{
	ColumnDateAcquired,
	ColumnUpperLeftLat, ColumnUpperLeftLon,
	ColumnUpperRightLat, ColumnUpperRightLon,
	ColumnLowerRightLat, ColumnLowerRightLon,
	ColumnLowerLeftLat, ColumnLowerLeftLon,
}

var progressLogInterval = 30 * time.Second

// Adapter reads one bulk metadata file (one product level)
type Adapter struct {
	SourceName string
	// Location is a local path or an http(s) URL
	Location string
	Gzip     bool
	Client   *http.Client
	Context  util.LogContext

	// Stats describes the last Fetch
	Stats source.Stats
}

// Name implements source.Adapter
func (a *Adapter) Name() string {
	return a.SourceName
}

// Fetch implements source.Adapter. Rows are kept when their acquisition date
// is inside the query window and their corner footprint touches the ROI.
func (a *Adapter) Fetch(ctx context.Context, q source.Query) ([]source.RawRecord, error) {
	client := a.Client
	if client == nil {
		client = util.HTTPClient()
	}
	reader, err := openReader(ctx, a.Context, client, a.Location, a.Gzip)
	if err != nil {
		return nil, model.NewError(model.SourceUnavailable, a.SourceName, "", a.Location, err)
	}
	defer reader.Close()
	return a.ingest(ctx, reader, q)
}

func (a *Adapter) ingest(ctx context.Context, reader io.Reader, q source.Query) ([]source.RawRecord, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true
	firstRow, err := csvReader.Read()
	if err != nil {
		return nil, model.NewError(model.SourceUnavailable, a.SourceName, "", a.Location, fmt.Errorf("error reading first line: %w", err))
	}
	colMap, err := csvcolumnmap.New(requiredColumns, firstRow)
	if err != nil {
		return nil, model.NewError(model.SchemaViolation, a.SourceName, "", a.Location, err)
	}
	// Window is applied on the acquisition day; the exact start time is
	// checked again after normalization.
	dayQuery := q
	if !q.Start.IsZero() {
		dayQuery.Start = q.Start.Truncate(24 * time.Hour)
	}

	a.Stats = source.Stats{StartTime: time.Now()}
	stats := &a.Stats
	lastProgressLogTime := time.Now()
	var records []source.RawRecord

CSVLoop:
	for {
		if stats.Read%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if time.Since(lastProgressLogTime) > progressLogInterval {
			util.LogInfo(a.Context, "Ingest progress: "+stats.String())
			lastProgressLogTime = time.Now()
		}

		rawLineValues, csvErr := csvReader.Read()
		switch {
		case csvErr == nil:
		case errors.Is(csvErr, io.EOF):
			break CSVLoop
		default:
			var parseErr *csv.ParseError
			if !errors.As(csvErr, &parseErr) {
				return nil, model.NewError(model.SourceUnavailable, a.SourceName, "", a.Location, csvErr)
			}
			util.LogAlert(a.Context, fmt.Sprintf("Error reading csv line: %v", csvErr))
			stats.Errors++
			continue
		}
		stats.Read++

		acquired, err := time.Parse(schema.LandsatDateAcquiredLayout, colMap.Value(rawLineValues, ColumnDateAcquired))
		if err != nil {
			stats.Errors++
			util.LogAlert(a.Context, fmt.Sprintf("Skipping row %d: bad %s: %v", stats.Read, ColumnDateAcquired, err))
			continue
		}
		if !dayQuery.InWindow(acquired) {
			stats.OutsideWindow++
			continue
		}

		corners, err := readCorners(colMap, rawLineValues)
		if err != nil {
			stats.Errors++
			util.LogAlert(a.Context, fmt.Sprintf("Skipping row %d: %v", stats.Read, err))
			continue
		}
		polygon := corners.Polygon()
		if q.ROI != nil && !q.ROI.Intersects(polygon) {
			stats.OutsideROI++
			continue
		}

		valueMap := colMap.CreateValueMap()
		colMap.UpdateMap(rawLineValues, valueMap)
		records = append(records, source.RawRecord{Fields: valueMap, Geometry: polygon})
		stats.Kept++
	}

	stats.EndTime = time.Now()
	util.LogInfo(a.Context, fmt.Sprintf("Ingest of %s complete: %v", a.SourceName, stats.String()))
	return records, nil
}

func readCorners(colMap csvcolumnmap.CsvColumnMap, row []string) (footprint.Corners, error) {
	var (
		corners footprint.Corners
		err     error
	)
	targets := []struct {
		column string
		value  *float64
	}{
		{ColumnUpperLeftLat, &corners.UpperLeftLat}, {ColumnUpperLeftLon, &corners.UpperLeftLon},
		{ColumnUpperRightLat, &corners.UpperRightLat}, {ColumnUpperRightLon, &corners.UpperRightLon},
		{ColumnLowerRightLat, &corners.LowerRightLat}, {ColumnLowerRightLon, &corners.LowerRightLon},
		{ColumnLowerLeftLat, &corners.LowerLeftLat}, {ColumnLowerLeftLon, &corners.LowerLeftLon},
	}
	for _, target := range targets {
		raw := colMap.Value(row, target.column)
		if *target.value, err = strconv.ParseFloat(raw, 64); err != nil {
			return corners, fmt.Errorf("bad %s %q", target.column, raw)
		}
	}
	return corners, nil
}
