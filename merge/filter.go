package merge

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/venicegeo/bf-metadata-summary/model"
	"github.com/venicegeo/bf-metadata-summary/schema"
	"github.com/venicegeo/bf-metadata-summary/util"
)

// DefaultQualitySentinel marks a record the provider flagged as unusable
const DefaultQualitySentinel = "Problem"

// DefaultCloudCoverMissions are the missions whose cloud cover is kept
var DefaultCloudCoverMissions = []string{schema.MissionLandsat, schema.MissionSentinel2}

// Reasons a record is dropped by Filter
const (
	ReasonNoStartTime       = "missing starttime"
	ReasonBadStartTime      = "unparsable starttime"
	ReasonOutsideWindow     = "outside window"
	ReasonQuality           = "quality"
	ReasonMissingCloudCover = "missing cloudcover"
	ReasonBadCloudCover     = "negative cloudcover"
)

// Options configures Filter. A zero Start or End leaves that side of the
// window open. Retain, when set, is the exact output column list.
type Options struct {
	Start              time.Time
	End                time.Time
	ClosedEnd          bool
	QualitySentinel    string
	Retain             []string
	CloudCoverMissions []string
}

func (o Options) qualitySentinel() string {
	if o.QualitySentinel == "" {
		return DefaultQualitySentinel
	}
	return o.QualitySentinel
}

func (o Options) cloudCoverMissions() map[string]bool {
	missions := o.CloudCoverMissions
	if missions == nil {
		missions = DefaultCloudCoverMissions
	}
	set := make(map[string]bool, len(missions))
	for _, m := range missions {
		set[m] = true
	}
	return set
}

func (o Options) inWindow(t time.Time) bool {
	if !o.Start.IsZero() && t.Before(o.Start) {
		return false
	}
	if !o.End.IsZero() {
		if o.ClosedEnd {
			return !t.After(o.End)
		}
		return t.Before(o.End)
	}
	return true
}

// Report counts the records Filter read, kept and dropped per reason
type Report struct {
	Read    int
	Kept    int
	Dropped map[string]int
	Pruned  []string
}

func (r Report) String() string {
	reasons := make([]string, 0, len(r.Dropped))
	for reason, n := range r.Dropped {
		reasons = append(reasons, fmt.Sprintf("%s=%d", reason, n))
	}
	sort.Strings(reasons)
	return fmt.Sprintf("read=%d kept=%d dropped=[%s] pruned=[%s]",
		r.Read, r.Kept, strings.Join(reasons, " "), strings.Join(r.Pruned, " "))
}

// Filter applies, in order, the temporal window, the quality filter, column
// pruning and cloud cover normalization. The input dataset is not modified.
func Filter(ctx util.LogContext, ds *model.Dataset, opts Options) (*model.Dataset, Report) {
	report := Report{Read: ds.Len(), Dropped: map[string]int{}}
	drop := func(record *model.Record, reason string, detail string) {
		report.Dropped[reason]++
		util.LogAlert(ctx, fmt.Sprintf("Dropped %s record %s from %s: %s",
			record.Mission(), record.String(model.FieldFilename), record.Source, detail))
	}

	sentinel := opts.qualitySentinel()
	var kept []*model.Record
	for _, record := range ds.Records {
		raw := record.String(model.FieldStartTime)
		if raw == "" {
			drop(record, ReasonNoStartTime, ReasonNoStartTime)
			continue
		}
		start, err := model.ParseTime(raw)
		if err != nil {
			drop(record, ReasonBadStartTime, err.Error())
			continue
		}
		if !opts.inWindow(start) {
			report.Dropped[ReasonOutsideWindow]++
			continue
		}
		if record.String(model.FieldQuality) == sentinel {
			drop(record, ReasonQuality, "quality is "+sentinel)
			continue
		}
		kept = append(kept, record.Clone())
	}

	columns, pruned := pruneColumns(ds.Columns, opts.Retain)
	report.Pruned = pruned
	for _, record := range kept {
		for _, name := range pruned {
			record.Delete(name)
		}
	}

	if containsString(columns, model.FieldCloudCover) {
		applicable := opts.cloudCoverMissions()
		normalized := kept[:0]
		for _, record := range kept {
			if !applicable[record.Mission()] {
				record.Set(model.FieldCloudCover, model.NoCloudCover)
				normalized = append(normalized, record)
				continue
			}
			cover, ok := record.Float(model.FieldCloudCover)
			switch {
			case !ok:
				// the sentinel means not applicable, never missing
				drop(record, ReasonMissingCloudCover, "no cloud cover for a mission that reports it")
				continue
			case cover < 0:
				drop(record, ReasonBadCloudCover, fmt.Sprintf("cloud cover %v", cover))
				continue
			}
			record.Set(model.FieldCloudCover, cover)
			normalized = append(normalized, record)
		}
		kept = normalized
	}

	report.Kept = len(kept)
	util.LogInfo(ctx, "Filtered dataset: "+report.String())
	return &model.Dataset{Columns: columns, Records: kept}, report
}

// pruneColumns returns the output columns and the dropped ones. Without a
// retention list the subset-only columns go; with one, only the listed
// columns that the dataset has are kept, in the list's order.
func pruneColumns(columns []string, retain []string) ([]string, []string) {
	keep := map[string]bool{}
	var out []string
	if len(retain) > 0 {
		present := map[string]bool{}
		for _, c := range columns {
			present[c] = true
		}
		for _, c := range retain {
			if present[c] && !keep[c] {
				keep[c] = true
				out = append(out, c)
			}
		}
	} else {
		subset := map[string]bool{}
		for _, c := range schema.SubsetOnly() {
			subset[c] = true
		}
		for _, c := range columns {
			if !subset[c] {
				keep[c] = true
				out = append(out, c)
			}
		}
	}
	var pruned []string
	for _, c := range columns {
		if !keep[c] {
			pruned = append(pruned, c)
		}
	}
	return out, pruned
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
