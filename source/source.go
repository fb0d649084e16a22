// Package source defines how metadata records are pulled from a mission's
// catalogue or bulk file before they are normalized.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/venicegeo/bf-metadata-summary/footprint"
)

// Query narrows what an adapter fetches. Zero times leave that side of the
// window open; a nil ROI disables spatial filtering.
type Query struct {
	Start time.Time
	End   time.Time
	ROI   *footprint.ROI
}

// InWindow reports whether t falls in [Start, End)
func (q Query) InWindow(t time.Time) bool {
	if !q.Start.IsZero() && t.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && !t.Before(q.End) {
		return false
	}
	return true
}

// RawRecord is one record as the source reports it. Fields hold strings,
// numbers or nil. The footprint comes either already parsed or as WKT.
type RawRecord struct {
	Fields   map[string]interface{}
	WKT      string
	Geometry orb.Geometry
}

// Adapter fetches raw records for one source
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]RawRecord, error)
}

// Stats counts what an adapter did with the records it saw
type Stats struct {
	Read          int
	Kept          int
	OutsideWindow int
	OutsideROI    int
	Errors        int
	StartTime     time.Time
	EndTime       time.Time
}

func (s *Stats) String() string {
	return fmt.Sprintf("read=%d kept=%d outsideWindow=%d outsideROI=%d errors=%d elapsed=%v",
		s.Read, s.Kept, s.OutsideWindow, s.OutsideROI, s.Errors, s.EndTime.Sub(s.StartTime).Round(time.Millisecond))
}
