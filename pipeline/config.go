package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/venicegeo/bf-metadata-summary/footprint"
	"github.com/venicegeo/bf-metadata-summary/merge"
	"github.com/venicegeo/bf-metadata-summary/model"
	"github.com/venicegeo/bf-metadata-summary/schema"
	"github.com/venicegeo/bf-metadata-summary/source"
	"gopkg.in/yaml.v3"
)

// Source kinds
const (
	KindLandsat    = "landsat"
	KindCopernicus = "copernicus"
	KindEODMS      = "eodms"
	KindShapefile  = "shapefile"
)

// SourceConfig describes one source of a run. Mapping defaults to Name.
// When Output is set the normalized records of the source are also written
// there, before they are merged and filtered.
type SourceConfig struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Mapping     string `yaml:"mapping"`
	Path        string `yaml:"path"`
	URL         string `yaml:"url"`
	Gzip        bool   `yaml:"gzip"`
	Platform    string `yaml:"platform"`
	Instrument  string `yaml:"instrument"`
	ProductType string `yaml:"producttype"`
	Collection  string `yaml:"collection"`
	MaxResults  int    `yaml:"maxresults"`
	Output      string `yaml:"output"`
}

func (sc SourceConfig) mapping() string {
	if sc.Mapping == "" {
		return sc.Name
	}
	return sc.Mapping
}

// AreaConfig enables the area branch, written to Output
type AreaConfig struct {
	Output  string             `yaml:"output"`
	MaxKm2  map[string]float64 `yaml:"maxkm2"`
	Exclude []string           `yaml:"exclude"`
	Drop    []string           `yaml:"drop"`
}

// RunConfig is everything one run needs. Start and End accept any of the
// model time layouts; ROI is a GeoJSON file and BBox "x1,y1,x2,y2".
type RunConfig struct {
	Sources            []SourceConfig `yaml:"sources"`
	Start              string         `yaml:"start"`
	End                string         `yaml:"end"`
	ClosedEnd          bool           `yaml:"closedend"`
	ROI                string         `yaml:"roi"`
	BBox               string         `yaml:"bbox"`
	Output             string         `yaml:"output"`
	GeoJSON            string         `yaml:"geojson"`
	Retain             []string       `yaml:"retain"`
	QualitySentinel    string         `yaml:"quality"`
	CloudCoverMissions []string       `yaml:"cloudcovermissions"`
	Area               *AreaConfig    `yaml:"area"`
	Strict             bool           `yaml:"strict"`
	MaxBytes           int64          `yaml:"maxbytes"`
}

// LoadConfig reads a YAML run file. Unknown keys are an error.
func LoadConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML run configuration
func ParseConfig(data []byte) (*RunConfig, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var cfg RunConfig
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("invalid run configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration before anything is fetched
func (c *RunConfig) Validate() error {
	var errs []error
	if len(c.Sources) == 0 {
		errs = append(errs, errors.New("no sources configured"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("no output configured"))
	}
	names := map[string]bool{}
	for i, sc := range c.Sources {
		label := fmt.Sprintf("source %d (%s)", i, sc.Name)
		if sc.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", label))
		} else if names[sc.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate name", label))
		}
		names[sc.Name] = true
		if _, err := schema.Lookup(sc.mapping()); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
		}
		switch sc.Kind {
		case KindLandsat, KindShapefile:
			if sc.Path == "" && sc.URL == "" {
				errs = append(errs, fmt.Errorf("%s: a path or url is required", label))
			}
		case KindCopernicus:
		case KindEODMS:
			if sc.Collection == "" {
				errs = append(errs, fmt.Errorf("%s: a collection is required", label))
			}
		default:
			errs = append(errs, fmt.Errorf("%s: unknown kind %q", label, sc.Kind))
		}
	}
	if c.Area != nil && c.Area.Output == "" {
		errs = append(errs, errors.New("area: no output configured"))
	}
	errs = append(errs, c.checkOutputs()...)
	if _, err := c.Query(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// checkOutputs rejects two artifacts written to the same place
func (c *RunConfig) checkOutputs() []error {
	var errs []error
	seen := map[string]string{}
	claim := func(owner, path string) {
		if path == "" {
			return
		}
		key := filepath.Clean(path)
		if strings.HasSuffix(strings.ToLower(key), ".shp") {
			key = key[:len(key)-4]
		}
		if other, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("%s: output %s is also written by %s", owner, path, other))
			return
		}
		seen[key] = owner
	}
	claim("output", c.Output)
	claim("geojson", c.GeoJSON)
	if c.Area != nil {
		claim("area", c.Area.Output)
	}
	for _, sc := range c.Sources {
		claim("source "+sc.Name, sc.Output)
	}
	return errs
}

// Query builds the adapter query from the window and region of interest
func (c *RunConfig) Query() (source.Query, error) {
	var q source.Query
	var err error
	if q.Start, err = parseBound("start", c.Start); err != nil {
		return q, err
	}
	if q.End, err = parseBound("end", c.End); err != nil {
		return q, err
	}
	if !q.Start.IsZero() && !q.End.IsZero() && !q.Start.Before(q.End) {
		return q, fmt.Errorf("start %s is not before end %s", c.Start, c.End)
	}
	switch {
	case c.ROI != "" && c.BBox != "":
		return q, errors.New("roi and bbox are mutually exclusive")
	case c.ROI != "":
		q.ROI, err = footprint.LoadROI(c.ROI)
	case c.BBox != "":
		q.ROI, err = footprint.ParseBBox(c.BBox)
	}
	if err != nil {
		return q, fmt.Errorf("invalid region of interest: %w", err)
	}
	return q, nil
}

// FilterOptions returns the merge filter settings for the run
func (c *RunConfig) FilterOptions(q source.Query) merge.Options {
	return merge.Options{
		Start:              q.Start,
		End:                q.End,
		ClosedEnd:          c.ClosedEnd,
		QualitySentinel:    c.QualitySentinel,
		Retain:             c.Retain,
		CloudCoverMissions: c.CloudCoverMissions,
	}
}

func parseBound(name, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := model.ParseTime(value)
	if err != nil {
		return t, fmt.Errorf("invalid %s: %w", name, err)
	}
	return t, nil
}
