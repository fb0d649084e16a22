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
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"
	"github.com/venicegeo/geojson-go/geojson"
)

// Canonical field names shared by every mission
const (
	FieldMission    = "mission"
	FieldPlatform   = "platform"
	FieldStartTime  = "starttime"
	FieldDataType   = "datatype"
	FieldProcLevel  = "proc_level"
	FieldOrbitDir   = "orbit_dir"
	FieldOrbitAbs   = "orbit_abs"
	FieldOrbitRel   = "orbit_rel"
	FieldFilename   = "filename"
	FieldLink       = "link"
	FieldCloudCover = "cloudcover"
	FieldQuality    = "quality"
	FieldArea       = "area_km2"
)

// NoCloudCover is the cloud cover of a mission that cannot measure it
const NoCloudCover = -1.0

// Record is one acquisition in the canonical schema. Attribute values are
// string, int64, float64 or nil; the geometry is in EPSG:4326.
type Record struct {
	Source     string
	Attributes map[string]interface{}
	Geometry   orb.Geometry
}

// NewRecord creates an empty record for the named source
func NewRecord(source string) *Record {
	return &Record{Source: source, Attributes: make(map[string]interface{})}
}

// Mission returns the canonical mission name
func (r *Record) Mission() string {
	return r.String(FieldMission)
}

// Get returns the attribute and whether it is present
func (r *Record) Get(name string) (interface{}, bool) {
	v, ok := r.Attributes[name]
	return v, ok
}

// Set stores an attribute
func (r *Record) Set(name string, value interface{}) {
	r.Attributes[name] = value
}

// Delete removes an attribute
func (r *Record) Delete(name string) {
	delete(r.Attributes, name)
}

// String returns the attribute rendered as text; absent and null attributes are ""
func (r *Record) String(name string) string {
	switch v := r.Attributes[name].(type) {
	case nil:
		return ""
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

// Float returns a numeric attribute as float64. The second result is false
// for absent, null and non-numeric attributes.
func (r *Record) Float(name string) (float64, bool) {
	switch v := r.Attributes[name].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Clone returns a copy that can be modified without touching r
func (r *Record) Clone() *Record {
	clone := &Record{Source: r.Source, Geometry: orb.Clone(r.Geometry), Attributes: make(map[string]interface{}, len(r.Attributes))}
	for k, v := range r.Attributes {
		clone.Attributes[k] = v
	}
	return clone
}

// GeoJSONFeature implements the GeoJSONFeatureCreator interface
func (r *Record) GeoJSONFeature() (*geojson.Feature, error) {
	if r.Geometry == nil {
		return nil, NewError(UnparsableGeometry, r.Source, "geometry", nil, nil)
	}
	properties := make(map[string]interface{}, len(r.Attributes))
	for k, v := range r.Attributes {
		properties[k] = v
	}
	var id interface{}
	if filename := r.String(FieldFilename); filename != "" {
		id = filename
	}
	return geojson.NewFeature(orbjson.NewGeometry(r.Geometry), id, properties), nil
}
