// Package eodms searches the Earth Observation Data Management System REST
// API for RADARSAT products.
package eodms

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/paulmach/orb/encoding/wkt"
	orbjson "github.com/paulmach/orb/geojson"
	"github.com/venicegeo/bf-metadata-summary/model"
	"github.com/venicegeo/bf-metadata-summary/source"
	"github.com/venicegeo/bf-metadata-summary/util"
)

// DefaultMaxResults caps the records asked for per search page
const DefaultMaxResults = 1000

var httpRequestJSON = util.ReqByObjJSON

// Adapter searches one RAPI collection
type Adapter struct {
	SourceName string
	Collection string
	MaxResults int
	Context    *Context
}

// Name implements source.Adapter
func (a *Adapter) Name() string {
	return a.SourceName
}

// Fetch implements source.Adapter
func (a *Adapter) Fetch(ctx context.Context, q source.Query) ([]source.RawRecord, error) {
	return Search(ctx, a.SourceName, a.Collection, q, a.MaxResults, a.Context)
}

// Search returns every record of the collection matching the query,
// following moreResultsUrl until the catalogue runs out
func Search(ctx context.Context, sourceName, collection string, q source.Query, maxResults int, hub *Context) ([]source.RawRecord, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	params := url.Values{
		"collection": {collection},
		"format":     {"json"},
		"maxResults": {strconv.Itoa(maxResults)},
	}
	if query := buildQuery(q); query != "" {
		params.Set("query", query)
	}
	next, err := resolveURL(hub.BaseURL, "search?"+params.Encode())
	if err != nil {
		err = util.LogSimpleErr(hub, fmt.Sprintf("Failed to parse %v into a URL.", hub.BaseURL), err)
		return nil, model.NewError(model.SourceUnavailable, sourceName, "", hub.BaseURL, err)
	}

	var records []source.RawRecord
	visited := map[string]bool{}
	for next != "" && !visited[next] {
		visited[next] = true
		util.LogAudit(hub, util.LogAuditInput{Actor: "eodms/Search", Action: http.MethodGet, Actee: next, Message: "Requesting " + collection + " records from EODMS", Severity: util.INFO})

		var response searchResponse
		status, err := httpRequestJSON(ctx, hub.Client, http.MethodGet, next, hub.Username, hub.Password, &response)
		if err != nil {
			return nil, classify(hub, sourceName, status, err)
		}
		for _, r := range response.Results {
			records = append(records, flattenResult(r))
		}
		if len(response.Results) == 0 || response.MoreResultsURL == "" {
			break
		}
		if next, err = resolveURL(next, response.MoreResultsURL); err != nil {
			return nil, model.NewError(model.SourceUnavailable, sourceName, "", response.MoreResultsURL, err)
		}
	}
	util.LogInfo(hub, fmt.Sprintf("Found %d %s records", len(records), sourceName))
	return records, nil
}

func classify(hub *Context, sourceName string, status int, err error) error {
	var parseErr util.Error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		util.LogAlert(hub, fmt.Sprintf("EODMS rejected the credentials for %s: %v", sourceName, err))
		return model.NewError(model.AuthenticationFailed, sourceName, "", nil, err)
	case errors.As(err, &parseErr):
		return model.NewError(model.SourceUnavailable, sourceName, "", nil, parseErr.Log(hub, "eodms"))
	case status >= 500 || status == 0:
		return model.NewError(model.SourceUnavailable, sourceName, "", nil, util.LogSimpleErr(hub, "Failed to search EODMS.", err))
	default:
		util.LogAlert(hub, fmt.Sprintf("Failed to search EODMS for %s: %v", sourceName, err))
		return model.NewError(model.SourceUnavailable, sourceName, "", nil, err)
	}
}

func buildQuery(q source.Query) string {
	var clauses []string
	if !q.Start.IsZero() {
		clauses = append(clauses, fmt.Sprintf("CATALOG_IMAGE.START_DATETIME>='%s'", q.Start.UTC().Format(time.RFC3339)))
	}
	if !q.End.IsZero() {
		clauses = append(clauses, fmt.Sprintf("CATALOG_IMAGE.START_DATETIME<'%s'", q.End.UTC().Format(time.RFC3339)))
	}
	if q.ROI != nil {
		clauses = append(clauses, "CATALOG_IMAGE.THE_GEOM_4326 INTERSECTS "+q.ROI.WKT())
	}
	return strings.Join(clauses, " AND ")
}

func resolveURL(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// flattenResult merges the fixed keys and both metadata layouts into one
// field map. Fixed keys win over metadata with the same name.
func flattenResult(r result) source.RawRecord {
	fields := make(map[string]interface{}, len(r.Fields)+len(r.Metadata)+len(r.Metadata2))
	for k, v := range r.Fields {
		fields[k] = v
	}
	setMissing := func(key string, value interface{}) {
		if _, ok := fields[key]; !ok && key != "" {
			fields[key] = value
		}
	}
	for _, item := range r.Metadata2 {
		key := item.ID
		if key == "" {
			key = camelCase(item.Label)
		}
		setMissing(key, item.Value)
	}
	for _, pair := range r.Metadata {
		if len(pair) != 2 {
			continue
		}
		if label, ok := pair[0].(string); ok {
			setMissing(camelCase(label), pair[1])
		}
	}

	record := source.RawRecord{Fields: fields, WKT: r.WKTGeometry}
	if record.WKT == "" {
		record.WKT = geoJSONToWKT(r.Geometry)
	}
	return record
}

func geoJSONToWKT(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	geometry, err := orbjson.UnmarshalGeometry(raw)
	if err != nil {
		return ""
	}
	return wkt.MarshalString(geometry.Geometry())
}

// camelCase turns a metadata label such as "Incidence Angle" into "incidenceAngle"
func camelCase(label string) string {
	words := strings.FieldsFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for i, word := range words {
		if i == 0 {
			b.WriteString(strings.ToLower(word))
			continue
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}
