package copernicus

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/venicegeo/bf-metadata-summary/source"
	"github.com/venicegeo/bf-metadata-summary/util"
)

func parseSearchPage(hub *Context, body []byte, inputURL string) ([]source.RawRecord, int, error) {
	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		hubErr := util.Error{LogMsg: "Failed to Unmarshal response from Copernicus search: " + err.Error(),
			SimpleMsg:  "Copernicus returned an unexpected response for this request. See log for further details.",
			Response:   string(body),
			URL:        inputURL,
			HTTPStatus: http.StatusOK}
		return nil, 0, hubErr.Log(hub, "")
	}
	total := len(response.Feed.Entries)
	if response.Feed.TotalResults != "" {
		if n, err := response.Feed.TotalResults.Int64(); err == nil {
			total = int(n)
		}
	}
	records := make([]source.RawRecord, len(response.Feed.Entries))
	for i, e := range response.Feed.Entries {
		records[i] = flattenEntry(e)
	}
	return records, total, nil
}

// flattenEntry merges the typed attribute lists of an entry into one field
// map. Integers and doubles keep their numeric type where they parse.
func flattenEntry(e entry) source.RawRecord {
	fields := make(map[string]interface{}, len(e.Str)+len(e.Int)+len(e.Double)+len(e.Date)+3)
	for _, c := range e.Str {
		fields[c.Name] = c.Content
	}
	for _, c := range e.Date {
		fields[c.Name] = c.Content
	}
	for _, c := range e.Int {
		if n, err := strconv.ParseInt(c.Content, 10, 64); err == nil {
			fields[c.Name] = n
		} else {
			fields[c.Name] = c.Content
		}
	}
	for _, c := range e.Double {
		if f, err := strconv.ParseFloat(c.Content, 64); err == nil {
			fields[c.Name] = f
		} else {
			fields[c.Name] = c.Content
		}
	}
	if _, ok := fields["uuid"]; !ok && e.ID != "" {
		fields["uuid"] = e.ID
	}
	if e.Title != "" {
		fields["title"] = e.Title
	}
	for _, l := range e.Links {
		switch l.Rel {
		case "":
			fields["link"] = l.Href
		case "alternative", "icon":
			fields["link_"+l.Rel] = l.Href
		}
	}

	record := source.RawRecord{Fields: fields}
	if wkt, ok := fields["footprint"].(string); ok {
		record.WKT = wkt
	}
	return record
}
