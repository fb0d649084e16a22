package eodms

import (
	"encoding/json"
	"net/http"

	"github.com/venicegeo/bf-metadata-summary/util"
)

// Context is the context for an EODMS RAPI operation
type Context struct {
	BaseURL   string
	Username  string
	Password  string
	Client    *http.Client
	sessionID string
}

// AppName returns the application name
func (c *Context) AppName() string {
	return util.AppName
}

// SessionID returns a Session ID, creating one if needed
func (c *Context) SessionID() string {
	if c.sessionID == "" {
		c.sessionID, _ = util.PsuUUID()
	}
	return c.sessionID
}

// LogRootDir returns an empty string
func (c *Context) LogRootDir() string {
	return ""
}

type searchResponse struct {
	Results        []result `json:"results"`
	TotalResults   int      `json:"totalResults"`
	MoreResultsURL string   `json:"moreResultsUrl"`
}

// result is one catalogue record. Besides the fixed keys a record carries
// its metadata as label/value pairs, in one or both of two layouts.
type result struct {
	Fields      map[string]interface{} `json:"-"`
	Metadata    [][]interface{}        `json:"metadata"`
	Metadata2   []metadataItem         `json:"metadata2"`
	Geometry    json.RawMessage        `json:"geometry"`
	WKTGeometry string                 `json:"wktGeometry"`
}

type metadataItem struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Value interface{} `json:"value"`
}

func (r *result) UnmarshalJSON(data []byte) error {
	type plain result
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, key := range []string{"metadata", "metadata2", "geometry", "wktGeometry"} {
		delete(fields, key)
	}
	*r = result(decoded)
	r.Fields = fields
	return nil
}
