// Package pipeline runs the sources of a summary in parallel, merges and
// filters what they return and writes the artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/venicegeo/bf-metadata-summary/copernicus"
	"github.com/venicegeo/bf-metadata-summary/eodms"
	"github.com/venicegeo/bf-metadata-summary/landsat"
	"github.com/venicegeo/bf-metadata-summary/merge"
	"github.com/venicegeo/bf-metadata-summary/model"
	"github.com/venicegeo/bf-metadata-summary/schema"
	"github.com/venicegeo/bf-metadata-summary/shapefile"
	"github.com/venicegeo/bf-metadata-summary/source"
	"github.com/venicegeo/bf-metadata-summary/util"
	"golang.org/x/sync/errgroup"
)

// SourceReport is what happened to one source
type SourceReport struct {
	Name      string
	Fetched   int
	Normalize schema.Report
	Elapsed   time.Duration
}

// Report describes a finished run
type Report struct {
	Sources []SourceReport
	Filter  merge.Report
	Area    []merge.AreaStats
	Outputs []*shapefile.Result
}

// Run executes one summary. Any source failure aborts the run before
// anything is written, and the artifacts are moved into place together.
func Run(ctx context.Context, cfg *RunConfig) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	q, err := cfg.Query()
	if err != nil {
		return nil, err
	}
	logCtx := &util.BasicLogContext{}
	// set the session before the context is shared between tasks
	util.LogInfo(logCtx, fmt.Sprintf("Starting run %s with %d sources", logCtx.SessionID(), len(cfg.Sources)))

	fetchQuery := q
	if cfg.ClosedEnd && !q.End.IsZero() {
		fetchQuery.End = q.End.Add(time.Nanosecond)
	}

	policy := schema.RejectRecord
	if cfg.Strict {
		policy = schema.AbortSource
	}

	report := &Report{Sources: make([]SourceReport, len(cfg.Sources))}
	tables := make([][]*model.Record, len(cfg.Sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, sc := range cfg.Sources {
		i, sc := i, sc
		g.Go(func() error {
			records, sourceReport, err := runSource(gctx, logCtx, sc, fetchQuery, policy)
			if err != nil {
				return err
			}
			tables[i] = records
			report.Sources[i] = sourceReport
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	ds := merge.Merge(tables...)
	filtered, filterReport := merge.Filter(logCtx, ds, cfg.FilterOptions(q))
	report.Filter = filterReport

	maxBytes := cfg.MaxBytes
	if maxBytes == 0 {
		maxBytes = util.GetMaxOutputBytes()
	}
	writer := &shapefile.Writer{MaxBytes: maxBytes, Context: logCtx}

	// every artifact is staged first so that nothing lands unless all of them do
	var staged []*shapefile.Staged
	defer func() { shapefile.DiscardAll(staged...) }()
	stage := func(s *shapefile.Staged, err error) error {
		if err != nil {
			return err
		}
		staged = append(staged, s)
		return nil
	}

	if err = stage(writer.Stage(filtered, cfg.Output)); err != nil {
		return nil, err
	}
	if cfg.GeoJSON != "" {
		if err = stage(writer.StageGeoJSON(filtered, cfg.GeoJSON)); err != nil {
			return nil, err
		}
	}
	if cfg.Area != nil {
		area, stats := merge.AreaBranch(logCtx, filtered, merge.AreaOptions{
			MaxKm2:          cfg.Area.MaxKm2,
			ExcludeMissions: cfg.Area.Exclude,
			DropColumns:     cfg.Area.Drop,
		})
		report.Area = stats
		if err = stage(writer.Stage(area, cfg.Area.Output)); err != nil {
			return nil, fmt.Errorf("area: %w", err)
		}
	}
	for i, sc := range cfg.Sources {
		if sc.Output == "" {
			continue
		}
		if err = stage(writer.Stage(merge.Merge(tables[i]), sc.Output)); err != nil {
			return nil, fmt.Errorf("source %s: %w", sc.Name, err)
		}
	}

	if err = shapefile.CommitAll(staged...); err != nil {
		return nil, err
	}
	for _, s := range staged {
		report.Outputs = append(report.Outputs, s.Result)
	}
	return report, nil
}

func runSource(ctx context.Context, logCtx util.LogContext, sc SourceConfig, q source.Query, policy schema.Policy) ([]*model.Record, SourceReport, error) {
	start := time.Now()
	sourceReport := SourceReport{Name: sc.Name}
	mapping, err := schema.Lookup(sc.mapping())
	if err != nil {
		return nil, sourceReport, err
	}
	adapter := newAdapter(sc, logCtx)

	raws, err := adapter.Fetch(ctx, q)
	if err != nil {
		return nil, sourceReport, fmt.Errorf("source %s: %w", sc.Name, err)
	}
	sourceReport.Fetched = len(raws)
	if len(raws) == 0 {
		util.LogAlert(logCtx, model.NewError(model.EmptyResultSet, sc.Name, "", nil,
			errors.New("the source returned no records for the query")).Error())
	}

	normalizer := &schema.Normalizer{Source: sc.Name, Mapping: mapping, Policy: policy, Context: logCtx}
	records, normalizeReport, err := normalizer.NormalizeAll(raws)
	sourceReport.Normalize = normalizeReport
	sourceReport.Elapsed = time.Since(start)
	if err != nil {
		return nil, sourceReport, err
	}
	util.LogInfo(logCtx, fmt.Sprintf("Source %s: fetched=%d accepted=%d rejected=%d in %v",
		sc.Name, len(raws), normalizeReport.Accepted, normalizeReport.RejectedTotal(), sourceReport.Elapsed.Round(time.Millisecond)))
	return records, sourceReport, nil
}

// newAdapter builds the adapter for a validated source configuration.
// Remote endpoints and credentials default to the environment.
func newAdapter(sc SourceConfig, logCtx util.LogContext) source.Adapter {
	switch sc.Kind {
	case KindLandsat:
		location := sc.Path
		if location == "" {
			location = sc.URL
		}
		return &landsat.Adapter{SourceName: sc.Name, Location: location, Gzip: sc.Gzip, Context: logCtx}
	case KindCopernicus:
		hub := &copernicus.Context{BaseURL: sc.URL}
		if hub.BaseURL == "" {
			hub.BaseURL = util.GetCopernicusURL()
		}
		hub.Username, hub.Password = util.GetCopernicusCredentials()
		return &copernicus.Adapter{
			SourceName: sc.Name,
			Options:    copernicus.SearchOptions{PlatformName: sc.Platform, InstrumentName: sc.Instrument, ProductType: sc.ProductType},
			Context:    hub,
		}
	case KindEODMS:
		hub := &eodms.Context{BaseURL: sc.URL}
		if hub.BaseURL == "" {
			hub.BaseURL = util.GetEODMSURL()
		}
		hub.Username, hub.Password = util.GetEODMSCredentials()
		return &eodms.Adapter{SourceName: sc.Name, Collection: sc.Collection, MaxResults: sc.MaxResults, Context: hub}
	default:
		path := sc.Path
		if path == "" {
			path = sc.URL
		}
		return &shapefile.Adapter{SourceName: sc.Name, Path: path, Context: logCtx}
	}
}
