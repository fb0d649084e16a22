package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const defaultHTTPTimeout = 2 * time.Minute

var (
	httpClient     *http.Client
	httpClientOnce sync.Once
)

// HTTPClient returns the shared client used for remote catalogue requests
func HTTPClient() *http.Client {
	httpClientOnce.Do(func() {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	})
	return httpClient
}

// ReqByObjJSON sends a request with basic auth (when username is set) and
// decodes the JSON response into out. Responses of 400 and above come back
// as an HTTPErr carrying the status and the start of the body.
func ReqByObjJSON(ctx context.Context, client *http.Client, method, url, username, password string, out interface{}) (int, error) {
	if client == nil {
		client = HTTPClient()
	}
	request, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	request.Header.Set("Accept", "application/json")
	if username != "" {
		request.SetBasicAuth(username, password)
	}
	response, err := client.Do(request)
	if err != nil {
		return 0, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return response.StatusCode, err
	}
	if response.StatusCode >= 400 {
		if len(body) > 512 {
			body = body[:512]
		}
		return response.StatusCode, HTTPErr{Status: response.StatusCode, Message: fmt.Sprintf("%v: %s", response.Status, body)}
	}
	if err = json.Unmarshal(body, out); err != nil {
		return response.StatusCode, Error{LogMsg: "Failed to Unmarshal response: " + err.Error(),
			SimpleMsg:  "Unexpected response from " + url,
			Response:   string(body),
			URL:        url,
			HTTPStatus: response.StatusCode}
	}
	return response.StatusCode, nil
}
