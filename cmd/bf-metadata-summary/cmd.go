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

package main

import (
	"fmt"
	"io"
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// out is where commands print their results
var out io.Writer = os.Stdout

var summarizeFlags = []cli.Flag{
	cli.StringFlag{Name: "config, c", Usage: "YAML run file listing the sources"},
	cli.StringFlag{Name: "start", Usage: "Start of the acquisition window (inclusive)"},
	cli.StringFlag{Name: "end", Usage: "End of the acquisition window (exclusive unless --closed-end)"},
	cli.BoolFlag{Name: "closed-end", Usage: "Include acquisitions at exactly the end of the window"},
	cli.StringFlag{Name: "roi", Usage: "GeoJSON file holding the region of interest"},
	cli.StringFlag{Name: "bbox", Usage: "Region of interest as a bounding box (x1,y1,x2,y2)"},
	cli.StringFlag{Name: "output, o", Usage: "Shapefile to write"},
	cli.StringFlag{Name: "geojson", Usage: "Also write the summary as GeoJSON to this file"},
	cli.BoolFlag{Name: "strict", Usage: "Abort the run at the first record that cannot be normalized"},
}

var commands = cli.Commands{
	cli.Command{
		Name:    "summarize",
		Aliases: []string{"run"},
		Usage:   "Fetch, merge and filter the configured sources into a shapefile",
		Flags:   summarizeFlags,
		Action:  summarizeAction,
	},
	cli.Command{
		Name:   "check-schema",
		Usage:  "Validate every mission mapping against the shapefile key length",
		Action: checkSchemaAction,
	},
	cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serve the written artifacts as GeoJSON",
		Action:  serveAction,
	},
	cli.Command{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "Print the version number",
		Action:  versionAction,
	},
}

func createCliApp() (app *cli.App) {
	app = cli.NewApp()
	app.Name = "bf-metadata-summary"
	app.Usage = "Build the satellite metadata summary"
	app.Version = version
	app.Commands = commands
	return
}

func versionAction(*cli.Context) error {
	_, err := fmt.Fprintln(out, version)
	return err
}
