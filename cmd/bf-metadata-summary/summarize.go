package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/venicegeo/bf-metadata-summary/pipeline"
	"github.com/venicegeo/bf-metadata-summary/schema"
	"github.com/venicegeo/bf-metadata-summary/util"
	cli "gopkg.in/urfave/cli.v1"
)

// runConfig reads the run file and lets flags override it
func runConfig(c *cli.Context) (*pipeline.RunConfig, error) {
	cfg := &pipeline.RunConfig{}
	if path := c.String("config"); path != "" {
		loaded, err := pipeline.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	for flag, field := range map[string]*string{
		"start":   &cfg.Start,
		"end":     &cfg.End,
		"roi":     &cfg.ROI,
		"bbox":    &cfg.BBox,
		"output":  &cfg.Output,
		"geojson": &cfg.GeoJSON,
	} {
		if value := c.String(flag); value != "" {
			*field = value
		}
	}
	if c.Bool("closed-end") {
		cfg.ClosedEnd = true
	}
	if c.Bool("strict") {
		cfg.Strict = true
	}
	return cfg, nil
}

func summarizeAction(c *cli.Context) error {
	logCtx := &util.BasicLogContext{}
	cfg, err := runConfig(c)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := pipeline.Run(ctx, cfg)
	if err != nil {
		util.LogSimpleErr(logCtx, "Summary failed", err)
		return cli.NewExitError(fmt.Sprintf("summary failed: %v", err), 1)
	}
	for _, s := range report.Sources {
		fmt.Fprintf(out, "%-16s fetched=%d accepted=%d rejected=%d\n", s.Name, s.Fetched, s.Normalize.Accepted, s.Normalize.RejectedTotal())
	}
	fmt.Fprintln(out, "filter:", report.Filter.String())
	for _, stats := range report.Area {
		fmt.Fprintln(out, "area:", stats.String())
	}
	for _, result := range report.Outputs {
		fmt.Fprintf(out, "wrote %s (%d records, %d bytes)\n", result.Path, result.Records, result.Bytes)
	}
	return nil
}

func checkSchemaAction(*cli.Context) error {
	if err := schema.CheckAll(); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	for _, name := range schema.Names() {
		fmt.Fprintln(out, name, "ok")
	}
	return nil
}
