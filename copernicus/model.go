package copernicus

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/venicegeo/bf-metadata-summary/util"
)

// DefaultPageSize is the number of entries asked for per search page
const DefaultPageSize = 100

// Context is the context for a Copernicus Open Access Hub operation
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

func (c *Context) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return util.HTTPClient()
}

// SearchOptions narrow an OpenSearch query beyond the window and ROI
type SearchOptions struct {
	PlatformName   string
	InstrumentName string
	ProductType    string
	PageSize       int
}

type searchResponse struct {
	Feed feed `json:"feed"`
}

type feed struct {
	TotalResults json.Number `json:"opensearch:totalResults"`
	Entries      entryList   `json:"entry"`
}

type entry struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Links   []link        `json:"-"`
	RawLink oneOrMany     `json:"link"`
	Str     namedContents `json:"str"`
	Int     namedContents `json:"int"`
	Double  namedContents `json:"double"`
	Date    namedContents `json:"date"`
}

type link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type namedContent struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// oneOrMany holds a JSON value the hub sends as an object when there is
// exactly one of it and as an array otherwise
type oneOrMany []json.RawMessage

func (o *oneOrMany) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*o = nil
		return nil
	case data[0] == '[':
		var many []json.RawMessage
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	default:
		*o = oneOrMany{json.RawMessage(data)}
		return nil
	}
}

type entryList []entry

func (l *entryList) UnmarshalJSON(data []byte) error {
	var raw oneOrMany
	if err := raw.UnmarshalJSON(data); err != nil {
		return err
	}
	entries := make([]entry, len(raw))
	for i, item := range raw {
		if err := json.Unmarshal(item, &entries[i]); err != nil {
			return err
		}
		if err := decodeAll(entries[i].RawLink, &entries[i].Links); err != nil {
			return err
		}
	}
	*l = entries
	return nil
}

type namedContents []namedContent

func (n *namedContents) UnmarshalJSON(data []byte) error {
	var raw oneOrMany
	if err := raw.UnmarshalJSON(data); err != nil {
		return err
	}
	var contents []namedContent
	if err := decodeAll(raw, &contents); err != nil {
		return err
	}
	*n = contents
	return nil
}

func decodeAll[T any](raw oneOrMany, out *[]T) error {
	items := make([]T, len(raw))
	for i, item := range raw {
		if err := json.Unmarshal(item, &items[i]); err != nil {
			return err
		}
	}
	*out = items
	return nil
}
