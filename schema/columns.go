// Package schema maps each source's records onto the canonical schema of the
// metadata summary.
package schema

import (
	"sort"

	"github.com/venicegeo/bf-metadata-summary/model"
)

// Kind is the type a canonical value is coerced to
type Kind int

// Value kinds. Auto takes the kind from the column table.
const (
	Auto Kind = iota
	Text
	Integer
	Float
	Timestamp
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Timestamp:
		return "timestamp"
	default:
		return "auto"
	}
}

// Column describes one canonical column. Width and Precision size the
// shapefile attribute; SubsetOnly columns are meaningful to a subset of
// missions and are pruned from the summary unless retained explicitly.
type Column struct {
	Name       string
	Kind       Kind
	Width      uint8
	Precision  uint8
	SubsetOnly bool
}

// Columns is the canonical column table, in output order
var Columns = []Column{
	{Name: model.FieldMission, Kind: Text, Width: 20},
	{Name: model.FieldPlatform, Kind: Text, Width: 20},
	{Name: model.FieldStartTime, Kind: Timestamp, Width: 26},
	{Name: "endtime", Kind: Timestamp, Width: 26},
	{Name: "ingestion", Kind: Timestamp, Width: 26},
	{Name: model.FieldDataType, Kind: Text, Width: 40},
	{Name: model.FieldProcLevel, Kind: Text, Width: 20},
	{Name: "sensormode", Kind: Text, Width: 20},
	{Name: model.FieldOrbitDir, Kind: Text, Width: 12},
	{Name: model.FieldOrbitAbs, Kind: Integer, Width: 10},
	{Name: model.FieldOrbitRel, Kind: Integer, Width: 10},
	{Name: model.FieldCloudCover, Kind: Float, Width: 12, Precision: 4},
	{Name: model.FieldFilename, Kind: Text, Width: 120},
	{Name: model.FieldLink, Kind: Text, Width: 254},
	{Name: "sceneid", Kind: Text, Width: 30},
	{Name: "collection", Kind: Text, Width: 4},
	{Name: "wrs_path", Kind: Integer, Width: 4},
	{Name: "wrs_row", Kind: Integer, Width: 4},
	{Name: "day_night", Kind: Text, Width: 8},
	{Name: "sun_elev", Kind: Float, Width: 14, Precision: 8},
	{Name: "sun_azim", Kind: Float, Width: 14, Precision: 8},
	{Name: "sensorid", Kind: Text, Width: 12},
	{Name: "utm_zone", Kind: Integer, Width: 4},
	{Name: "polarisati", Kind: Text, Width: 20},
	{Name: "uuid", Kind: Text, Width: 40},
	{Name: "tileid", Kind: Text, Width: 10},
	{Name: "passnumRel", Kind: Integer, Width: 6},
	{Name: "passnumAbs", Kind: Integer, Width: 8},
	{Name: "recordId", Kind: Integer, Width: 12},
	{Name: "angle_inc", Kind: Float, Width: 12, Precision: 4},
	{Name: "spatialRes", Kind: Float, Width: 10, Precision: 2},
	{Name: "beam", Kind: Text, Width: 20},
	{Name: "beammode", Kind: Text, Width: 20},
	{Name: "lookOrient", Kind: Text, Width: 10},
	{Name: "featureId", Kind: Text, Width: 80},
	{Name: "thisRecord", Kind: Text, Width: 254},
	{Name: model.FieldArea, Kind: Float, Width: 16, Precision: 3},
	{Name: "ellipsoid", Kind: Text, Width: 10, SubsetOnly: true},
	{Name: "timeliness", Kind: Text, Width: 20, SubsetOnly: true},
	{Name: "slice", Kind: Integer, Width: 6, SubsetOnly: true},
	{Name: "lutApplied", Kind: Text, Width: 40, SubsetOnly: true},
	{Name: "polTransmt", Kind: Text, Width: 4, SubsetOnly: true},
	{Name: model.FieldQuality, Kind: Text, Width: 20, SubsetOnly: true},
	{Name: "applicatin", Kind: Text, Width: 40, SubsetOnly: true},
	{Name: "AzLookNum", Kind: Integer, Width: 4, SubsetOnly: true},
	{Name: "RngLookNum", Kind: Integer, Width: 4, SubsetOnly: true},
	{Name: "PolIn_Prod", Kind: Text, Width: 20, SubsetOnly: true},
	{Name: "beam_mode", Kind: Text, Width: 60, SubsetOnly: true},
	{Name: "pxlSpacing", Kind: Float, Width: 10, Precision: 4, SubsetOnly: true},
}

var columnIndex = func() map[string]int {
	index := make(map[string]int, len(Columns))
	for i, c := range Columns {
		index[c.Name] = i
	}
	return index
}()

// LookupColumn returns the column table entry for name
func LookupColumn(name string) (Column, bool) {
	i, ok := columnIndex[name]
	if !ok {
		return Column{}, false
	}
	return Columns[i], true
}

// ColumnFor returns the table entry for name, or a text column of the
// maximum width for names the table does not know
func ColumnFor(name string) Column {
	if c, ok := LookupColumn(name); ok {
		return c
	}
	return Column{Name: name, Kind: Text, Width: 254}
}

// SubsetOnly returns the names of every prunable column
func SubsetOnly() []string {
	var names []string
	for _, c := range Columns {
		if c.SubsetOnly {
			names = append(names, c.Name)
		}
	}
	return names
}

// OrderColumns sorts names into table order. Names the table does not know
// follow, alphabetically.
func OrderColumns(names []string) []string {
	ordered := append([]string(nil), names...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ii, iok := columnIndex[ordered[i]]
		ji, jok := columnIndex[ordered[j]]
		switch {
		case iok && jok:
			return ii < ji
		case iok != jok:
			return iok
		default:
			return ordered[i] < ordered[j]
		}
	})
	return ordered
}
