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

package model

import (
	"github.com/venicegeo/geojson-go/geojson"
)

// Dataset is the merged table of canonical records. Columns is the ordered
// column set; a record without a value for a column reads as null.
type Dataset struct {
	Columns []string
	Records []*Record
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.Records)
}

// HasColumn reports whether name is one of the dataset's columns
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Missions returns the distinct mission names in record order
func (d *Dataset) Missions() []string {
	seen := map[string]bool{}
	var missions []string
	for _, r := range d.Records {
		if m := r.Mission(); !seen[m] {
			seen[m] = true
			missions = append(missions, m)
		}
	}
	return missions
}

// ColumnSelection restricts a feature's properties to a fixed column set,
// filling absent columns with null
type ColumnSelection []string

// Apply implements the GeoJSONFeatureMixin interface
func (cs ColumnSelection) Apply(feature *geojson.Feature) error {
	properties := make(map[string]interface{}, len(cs))
	for _, column := range cs {
		properties[column] = feature.Properties[column]
	}
	feature.Properties = properties
	return nil
}

// GeoJSONFeatureCollection implements the GeoJSONFeatureCollectionCreator interface
func (d *Dataset) GeoJSONFeatureCollection() (*geojson.FeatureCollection, error) {
	selection := ColumnSelection(d.Columns)
	features := make([]*geojson.Feature, len(d.Records))
	for i, record := range d.Records {
		feature, err := record.GeoJSONFeature()
		if err != nil {
			return nil, err
		}
		if err = selection.Apply(feature); err != nil {
			return nil, err
		}
		features[i] = feature
	}
	return geojson.NewFeatureCollection(features), nil
}
