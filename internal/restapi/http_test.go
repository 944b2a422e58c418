package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mobkml.dev/cellmap/internal/app"
	"mobkml.dev/cellmap/internal/appconf"
	"mobkml.dev/cellmap/internal/logging"
	"mobkml.dev/cellmap/internal/models"
	"mobkml.dev/cellmap/internal/profiles"
	"mobkml.dev/cellmap/internal/workspace"
)

const testAPIKey = "TEST"

var testDate = time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC)

const sitesCSV = `Site,Cell,Latitude,Longitude,EARFCN,Azimuth,UF,Municipio
SPA01,SPA01A,-23.55,-46.63,1300,0,SP,Sao Paulo
SPA01,SPA01B,-23.55,-46.63,9410,120,SP,Sao Paulo
CPS01,CPS01A,-22.90,-47.06,1300,240,SP,Campinas
RJO01,RJO01A,-22.90,-43.17,3050,90,RJ,Rio de Janeiro
`

// createTestApi creates a RestAPI over an empty workspace and an in-memory
// profile store. Rate limiting is off.
func createTestApi(t *testing.T) *RestAPI {
	return createTestApiWithRateLimit(t, 0)
}

func createTestApiWithRateLimit(t *testing.T, rateLimit int) *RestAPI {
	logger := logging.NewStructuredLogger(io.Discard, slog.LevelError)
	cfg := appconf.Config{
		Env:       appconf.EnvFlagToEnvironment("test"),
		ApiKeys:   []string{testAPIKey},
		RateLimit: rateLimit,
		DBType:    profiles.DriverSQLite,
		DBPath:    ":memory:",
	}

	store, err := profiles.Open(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	application := &app.Application{
		Config:    cfg,
		Logger:    logger,
		Workspace: workspace.New(),
		Profiles:  store,
	}

	api := NewRestAPI(application)
	api.now = func() time.Time { return testDate }
	t.Cleanup(api.Stop)
	return api
}

// doRequest sends one request through the full middleware chain with the
// test API key and returns the response with its body.
func doRequest(t *testing.T, api *RestAPI, method, endpoint string, body io.Reader, contentType string) (*http.Response, []byte) {
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	req, err := http.NewRequest(method, server.URL+endpoint, body)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", testAPIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

// serveApiAndRetrieveEndpoint GETs endpoint and decodes the envelope.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	resp, b := doRequest(t, api, http.MethodGet, endpoint, nil, "")
	var response models.ResponseModel
	require.NoError(t, json.Unmarshal(b, &response), string(b))
	return resp, response
}

// postJSON posts payload and returns the raw response.
func postJSON(t *testing.T, api *RestAPI, endpoint string, payload interface{}) (*http.Response, []byte) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	} else {
		body = http.NoBody
	}
	return doRequest(t, api, http.MethodPost, endpoint, body, "application/json")
}

// uploadFile posts content as the multipart "file" field.
func uploadFile(t *testing.T, api *RestAPI, filename, content string) (*http.Response, []byte) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return doRequest(t, api, http.MethodPost, "/api/upload", &buf, mw.FormDataContentType())
}

// decodeData unmarshals the envelope data of body into dst.
func decodeData(t *testing.T, body []byte, dst interface{}) {
	var envelope struct {
		Code int             `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope), string(body))
	require.NoError(t, json.Unmarshal(envelope.Data, dst), string(envelope.Data))
}

// decodeError returns the status text of an error envelope.
func decodeError(t *testing.T, body []byte) errorResponseModel {
	var model errorResponseModel
	require.NoError(t, json.Unmarshal(body, &model), string(body))
	return model
}

// loadSites uploads sitesCSV and auto-maps it.
func loadSites(t *testing.T, api *RestAPI) {
	resp, body := uploadFile(t, api, "sites.csv", sitesCSV)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	resp, body = postJSON(t, api, "/api/auto-map", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}
