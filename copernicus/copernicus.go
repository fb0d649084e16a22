// Copyright 2016, RadiantBlue Technologies, Inc.
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

package copernicus

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/venicegeo/bf-metadata-summary/model"
	"github.com/venicegeo/bf-metadata-summary/source"
	"github.com/venicegeo/bf-metadata-summary/util"
)

const solrTimeLayout = "2006-01-02T15:04:05.000Z"

// Adapter searches the hub for the products of one Sentinel mission
type Adapter struct {
	SourceName string
	Options    SearchOptions
	Context    *Context
}

// Name implements source.Adapter
func (a *Adapter) Name() string {
	return a.SourceName
}

// Fetch implements source.Adapter
func (a *Adapter) Fetch(ctx context.Context, q source.Query) ([]source.RawRecord, error) {
	return Search(ctx, a.SourceName, q, a.Options, a.Context)
}

// Search pages through every product matching the query
func Search(ctx context.Context, sourceName string, q source.Query, options SearchOptions, hub *Context) ([]source.RawRecord, error) {
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	query := buildQuery(q, options)
	util.LogInfo(hub, fmt.Sprintf("Searching %s: %s", sourceName, query))

	var records []source.RawRecord
	for start := 0; ; {
		params := url.Values{
			"q":       {query},
			"format":  {"json"},
			"rows":    {strconv.Itoa(pageSize)},
			"start":   {strconv.Itoa(start)},
			"orderby": {"beginposition asc"},
		}
		inputURL := "search?" + params.Encode()
		body, err := hubRequest(ctx, hub, sourceName, inputURL)
		if err != nil {
			return nil, err
		}
		page, total, err := parseSearchPage(hub, body, inputURL)
		if err != nil {
			return nil, model.NewError(model.SourceUnavailable, sourceName, "", nil, err)
		}
		records = append(records, page...)
		start += len(page)
		if len(page) == 0 || start >= total {
			break
		}
	}
	util.LogInfo(hub, fmt.Sprintf("Found %d %s products", len(records), sourceName))
	return records, nil
}

func buildQuery(q source.Query, options SearchOptions) string {
	clauses := []string{fmt.Sprintf("beginposition:[%s TO %s]", solrTime(q.Start, "*"), solrTime(q.End, "NOW"))}
	if options.PlatformName != "" {
		clauses = append(clauses, "platformname:"+options.PlatformName)
	}
	if options.InstrumentName != "" {
		clauses = append(clauses, "instrumentshortname:"+options.InstrumentName)
	}
	if options.ProductType != "" {
		clauses = append(clauses, "producttype:"+options.ProductType)
	}
	if q.ROI != nil {
		clauses = append(clauses, fmt.Sprintf(`footprint:"Intersects(%s)"`, q.ROI.WKT()))
	}
	return strings.Join(clauses, " AND ")
}

func solrTime(t time.Time, open string) string {
	if t.IsZero() {
		return open
	}
	return t.UTC().Format(solrTimeLayout)
}

// hubRequest performs an authenticated GET and returns the body of a successful response
func hubRequest(ctx context.Context, hub *Context, sourceName string, inputURL string) ([]byte, error) {
	baseURL, err := url.Parse(hub.BaseURL)
	if err != nil {
		err = util.LogSimpleErr(hub, fmt.Sprintf("Failed to parse %v into a URL.", hub.BaseURL), err)
		return nil, model.NewError(model.SourceUnavailable, sourceName, "", hub.BaseURL, err)
	}
	relativeURL, err := url.Parse(inputURL)
	if err != nil {
		return nil, model.NewError(model.SourceUnavailable, sourceName, "", inputURL, err)
	}
	requestURL := baseURL.ResolveReference(relativeURL).String()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		err = util.LogSimpleErr(hub, fmt.Sprintf("Failed to make a new HTTP request for %v.", requestURL), err)
		return nil, model.NewError(model.SourceUnavailable, sourceName, "", nil, err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(hub.Username+":"+hub.Password)))
	util.LogAudit(hub, util.LogAuditInput{Actor: "copernicus/hubRequest", Action: http.MethodGet, Actee: requestURL, Message: "Requesting data from Copernicus", Severity: util.INFO})

	response, err := hub.httpClient().Do(request)
	if err != nil {
		err = util.LogSimpleErr(hub, "Failed to complete Copernicus request.", err)
		return nil, model.NewError(model.SourceUnavailable, sourceName, "", nil, err)
	}
	defer response.Body.Close()
	util.LogAudit(hub, util.LogAuditInput{Actor: requestURL, Action: http.MethodGet + " response", Actee: "copernicus/hubRequest", Message: "Receiving data from Copernicus: " + response.Status, Severity: util.INFO})

	switch {
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		message := fmt.Sprintf("Copernicus rejected the credentials for %s: %v", sourceName, response.Status)
		util.LogAlert(hub, message)
		return nil, model.NewError(model.AuthenticationFailed, sourceName, "", nil, util.HTTPErr{Status: response.StatusCode, Message: message})
	case (response.StatusCode >= 400) && (response.StatusCode < 500):
		message := fmt.Sprintf("Failed to search Copernicus: %v", response.Status)
		util.LogAlert(hub, message)
		return nil, model.NewError(model.SourceUnavailable, sourceName, "", nil, util.HTTPErr{Status: response.StatusCode, Message: message})
	case response.StatusCode >= 500:
		err = util.LogSimpleErr(hub, "Failed to search Copernicus.", errors.New(response.Status))
		return nil, model.NewError(model.SourceUnavailable, sourceName, "", nil, util.HTTPErr{Status: response.StatusCode, Message: err.Error()})
	default:
		//no op
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, model.NewError(model.SourceUnavailable, sourceName, "", nil, err)
	}
	return body, nil
}
