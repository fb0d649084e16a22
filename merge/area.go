package merge

import (
	"fmt"
	"math"

	"github.com/venicegeo/bf-metadata-summary/footprint"
	"github.com/venicegeo/bf-metadata-summary/model"
	"github.com/venicegeo/bf-metadata-summary/util"
)

// AreaOptions configures the area branch
type AreaOptions struct {
	// MaxKm2 drops a mission's records whose footprint is larger, per mission
	MaxKm2          map[string]float64
	ExcludeMissions []string
	DropColumns     []string
}

// AreaStats summarizes footprint areas of one mission, in square kilometers
type AreaStats struct {
	Mission string
	Count   int
	Min     float64
	Max     float64
	Mean    float64
}

func (s AreaStats) String() string {
	return fmt.Sprintf("%s: count=%d min=%.1f max=%.1f mean=%.1f", s.Mission, s.Count, s.Min, s.Max, s.Mean)
}

// AreaBranch derives the cloud cover summary: records with a measured cloud
// cover, each tagged with its equal-area footprint size. Stats are taken per
// mission before missions are excluded or capped.
func AreaBranch(ctx util.LogContext, ds *model.Dataset, opts AreaOptions) (*model.Dataset, []AreaStats) {
	excluded := map[string]bool{}
	for _, m := range opts.ExcludeMissions {
		excluded[m] = true
	}
	dropped := map[string]bool{}
	for _, c := range opts.DropColumns {
		dropped[c] = true
	}

	var (
		measured []*model.Record
		stats    []AreaStats
		index    = map[string]int{}
	)
	for _, source := range ds.Records {
		cover, ok := source.Float(model.FieldCloudCover)
		if !ok || cover < 0 {
			continue
		}
		area := footprint.EqualAreaKm2(source.Geometry)
		if area <= 0 || math.IsNaN(area) {
			continue
		}
		record := source.Clone()
		record.Set(model.FieldArea, area)
		measured = append(measured, record)

		mission := record.Mission()
		i, ok := index[mission]
		if !ok {
			i = len(stats)
			index[mission] = i
			stats = append(stats, AreaStats{Mission: mission, Min: area, Max: area})
		}
		s := &stats[i]
		s.Count++
		s.Min = math.Min(s.Min, area)
		s.Max = math.Max(s.Max, area)
		s.Mean += (area - s.Mean) / float64(s.Count)
	}
	for _, s := range stats {
		util.LogInfo(ctx, "Footprint area "+s.String())
	}

	var records []*model.Record
	for _, record := range measured {
		mission := record.Mission()
		if excluded[mission] {
			continue
		}
		if limit, ok := opts.MaxKm2[mission]; ok {
			if area, _ := record.Float(model.FieldArea); area > limit {
				continue
			}
		}
		for c := range dropped {
			record.Delete(c)
		}
		records = append(records, record)
	}

	var columns []string
	for _, c := range ds.Columns {
		if !dropped[c] && c != model.FieldArea {
			columns = append(columns, c)
		}
	}
	if !dropped[model.FieldArea] {
		columns = append(columns, model.FieldArea)
	}
	return &model.Dataset{Columns: columns, Records: records}, stats
}
