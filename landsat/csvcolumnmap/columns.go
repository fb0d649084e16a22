package csvcolumnmap

import (
	"fmt"
	"strings"
)

//csvNamedColumn matches a header name to a column index in a csv file
type csvNamedColumn struct {
	index int
	key   string
}

//CsvColumnMap matches the name and index of columns
type CsvColumnMap struct {
	entries  []csvNamedColumn
	required map[string]int
}

//CreateValueMap creates an empty map suitable for matching
//values to column names
func (m *CsvColumnMap) CreateValueMap() map[string]interface{} {
	return make(map[string]interface{}, len(m.entries))
}

//UpdateMap populates the valueMap with the values read from the csv.
//Short rows leave the missing trailing columns null.
func (m *CsvColumnMap) UpdateMap(rawValues []string, valueMap map[string]interface{}) {
	for _, namedCol := range m.entries {
		if namedCol.index < len(rawValues) {
			valueMap[namedCol.key] = rawValues[namedCol.index]
		} else {
			valueMap[namedCol.key] = nil
		}
	}
}

//Value returns the raw value of a required column
func (m *CsvColumnMap) Value(rawValues []string, name string) string {
	idx, ok := m.required[name]
	if !ok || idx >= len(rawValues) {
		return ""
	}
	return strings.TrimSpace(rawValues[idx])
}

//New creates a column map over every column of columnNamesRow. Every name in
//requiredColumns must be present.
func New(requiredColumns []string, columnNamesRow []string) (CsvColumnMap, error) {
	inverseMap := make(map[string]int, len(columnNamesRow))
	entries := make([]csvNamedColumn, 0, len(columnNamesRow))
	for idx, name := range columnNamesRow {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			continue
		}
		if _, dup := inverseMap[name]; dup {
			continue
		}
		inverseMap[name] = idx
		entries = append(entries, csvNamedColumn{idx, name})
	}

	required := make(map[string]int, len(requiredColumns))
	var missing []string
	for _, name := range requiredColumns {
		columnIndex, keyExists := inverseMap[name]
		if !keyExists {
			missing = append(missing, name)
			continue
		}
		required[name] = columnIndex
	}
	if len(missing) > 0 {
		return CsvColumnMap{}, fmt.Errorf("no such column: %s", strings.Join(missing, ", "))
	}

	return CsvColumnMap{entries: entries, required: required}, nil
}
