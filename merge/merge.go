// Package merge concatenates the normalized records of every source into one
// dataset and filters it down to the published summary.
package merge

import (
	"github.com/venicegeo/bf-metadata-summary/model"
	"github.com/venicegeo/bf-metadata-summary/schema"
)

// Merge concatenates the tables into one dataset. The column set is the union
// of every record's attributes in column table order, so it does not depend on
// the order the tables are passed in. Empty tables contribute nothing.
func Merge(tables ...[]*model.Record) *model.Dataset {
	var (
		total   int
		columns []string
		seen    = map[string]bool{}
	)
	for _, table := range tables {
		total += len(table)
	}
	records := make([]*model.Record, 0, total)
	for _, table := range tables {
		for _, record := range table {
			if record == nil {
				continue
			}
			for name := range record.Attributes {
				if !seen[name] {
					seen[name] = true
					columns = append(columns, name)
				}
			}
			records = append(records, record)
		}
	}
	return &model.Dataset{Columns: schema.OrderColumns(columns), Records: records}
}
