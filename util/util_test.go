package util

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const sampleVcap = `{
	"user-provided": [
		{"name": "copernicus", "credentials": {"username": "vcap-user", "password": "vcap-pass", "port": 443}}
	]
}`

func observeLogs(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zapcore.DebugLevel)
	previous := SetLogger(zap.New(core))
	t.Cleanup(func() { RestoreLogger(previous) })
	return logs
}

func TestLogSimpleErr(t *testing.T) {
	logs := observeLogs(t)
	ctx := &BasicLogContext{}

	err := LogSimpleErr(ctx, "Failed to fetch.", errors.New("connection refused"))

	assert.EqualError(t, err, "Failed to fetch.")
	entries := logs.FilterMessage("Failed to fetch.").All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "connection refused", entries[0].ContextMap()["error"])
	assert.Equal(t, AppName, entries[0].ContextMap()["app"])
	assert.Equal(t, ctx.SessionID(), entries[0].ContextMap()["session"])
}

func TestLogAudit_SeverityMapsToLevel(t *testing.T) {
	logs := observeLogs(t)

	LogAudit(&BasicLogContext{}, LogAuditInput{Actor: "a", Action: "b", Actee: "c", Message: "bad", Severity: ERROR})
	LogAudit(&BasicLogContext{}, LogAuditInput{Actor: "a", Action: "b", Actee: "c", Message: "fine", Severity: INFO})

	assert.Equal(t, zapcore.ErrorLevel, logs.FilterMessage("bad").All()[0].Level)
	assert.Equal(t, zapcore.InfoLevel, logs.FilterMessage("fine").All()[0].Level)
	assert.Equal(t, "a", logs.FilterMessage("fine").All()[0].ContextMap()["actor"])
}

func TestError_Log(t *testing.T) {
	logs := observeLogs(t)
	e := Error{LogMsg: "unmarshal failed", SimpleMsg: "unexpected response", Response: "<html>", URL: "http://x", HTTPStatus: 502}

	err := e.Log(&BasicLogContext{}, "search")

	assert.EqualError(t, err, "unexpected response")
	entries := logs.FilterMessage("search: unmarshal failed").All()
	assert.Len(t, entries, 1)
	assert.Equal(t, int64(502), entries[0].ContextMap()["status"])
}

func TestHTTPError(t *testing.T) {
	observeLogs(t)
	request := httptest.NewRequest("GET", "/artifacts/missing", nil)
	writer := httptest.NewRecorder()

	HTTPError(request, writer, &BasicLogContext{}, "not here", http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, writer.Code)
	assert.Contains(t, writer.Body.String(), "not here")
}

func TestReqByObjJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, _ := r.BasicAuth()
		switch {
		case r.URL.Path == "/broken":
			w.Write([]byte("not json"))
		case user != "rapi" || password != "secret":
			http.Error(w, "bad login", http.StatusUnauthorized)
		default:
			w.Write([]byte(`{"totalResults": 2}`))
		}
	}))
	defer server.Close()

	var out struct {
		TotalResults int `json:"totalResults"`
	}
	status, err := ReqByObjJSON(context.Background(), server.Client(), http.MethodGet, server.URL+"/search", "rapi", "secret", &out)
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, out.TotalResults)

	status, err = ReqByObjJSON(context.Background(), server.Client(), http.MethodGet, server.URL+"/search", "rapi", "wrong", &out)
	assert.Equal(t, http.StatusUnauthorized, status)
	var httpErr HTTPErr
	assert.True(t, errors.As(err, &httpErr))
	assert.Contains(t, httpErr.Message, "bad login")

	_, err = ReqByObjJSON(context.Background(), server.Client(), http.MethodGet, server.URL+"/broken", "", "", &out)
	var parseErr Error
	assert.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "not json", parseErr.Response)
}

func TestPsuUUID(t *testing.T) {
	a, err := PsuUUID()
	assert.Nil(t, err)
	b, _ := PsuUUID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestVcapCredentials(t *testing.T) {
	services, err := ParseVcapServices([]byte(sampleVcap))
	assert.Nil(t, err)

	service := services.FindServiceByName("copernicus")
	assert.NotNil(t, service)
	assert.Nil(t, services.FindServiceByName("eodms"))

	user, err := service.Credentials.String("username")
	assert.Nil(t, err)
	assert.Equal(t, "vcap-user", user)
	port, err := service.Credentials.Int("port")
	assert.Nil(t, err)
	assert.Equal(t, 443, port)
	_, err = service.Credentials.Int("username")
	assert.NotNil(t, err)
	_, err = service.Credentials.String("missing")
	assert.NotNil(t, err)
}

func TestGetCopernicusCredentials_FallsBackToVcap(t *testing.T) {
	observeLogs(t)
	os.Unsetenv(COPERNICUS_USERNAME)
	os.Unsetenv(COPERNICUS_PASSWORD)
	t.Setenv(VCAP_SERVICES, sampleVcap)

	user, pass := GetCopernicusCredentials()
	assert.Equal(t, "vcap-user", user)
	assert.Equal(t, "vcap-pass", pass)

	t.Setenv(COPERNICUS_USERNAME, "env-user")
	t.Setenv(COPERNICUS_PASSWORD, "env-pass")
	user, pass = GetCopernicusCredentials()
	assert.Equal(t, "env-user", user)
	assert.Equal(t, "env-pass", pass)
}

func TestGetMaxOutputBytes(t *testing.T) {
	observeLogs(t)
	t.Setenv(SUMMARY_MAX_OUTPUT_BYTES, "2048")
	assert.Equal(t, int64(2048), GetMaxOutputBytes())

	t.Setenv(SUMMARY_MAX_OUTPUT_BYTES, "lots")
	assert.Equal(t, DefaultMaxOutputBytes, GetMaxOutputBytes())
}

func TestLoadDotEnv(t *testing.T) {
	observeLogs(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	assert.Nil(t, os.WriteFile(path, []byte("EODMS_URL=https://eodms.example/rapi/\n"), 0600))
	os.Unsetenv(EODMS_URL)
	t.Cleanup(func() { os.Unsetenv(EODMS_URL) })

	assert.Nil(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "https://eodms.example/rapi/", GetEODMSURL())
}
