// Package client is a typed HTTP client for the cellmap REST API. Every call
// takes a context and returns *APIError for non-2xx responses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"mobkml.dev/cellmap/internal/logging"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to one cellmap server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a client. A zero timeout means 30 seconds.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "cellmap_client")),
	}
}

// APIError is a response the server answered with a non-2xx status.
type APIError struct {
	Status int
	Text   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Text)
}

// Attachment is a downloaded export.
type Attachment struct {
	Filename    string
	ContentType string
	Body        []byte
}

type envelope struct {
	Code int             `json:"code"`
	Text string          `json:"text"`
	Data json.RawMessage `json:"data"`
}

type errorBody struct {
	Text        string              `json:"text"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return req, nil
}

// do sends req and returns the response when its status is 2xx. The caller
// closes the body.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "error response body")

	apiErr := &APIError{Status: resp.StatusCode, Text: http.StatusText(resp.StatusCode)}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorBody
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Text != "":
			apiErr.Text = body.Text
		case len(body.FieldErrors) > 0:
			apiErr.Text = joinFieldErrors(body.FieldErrors)
		}
	}
	return nil, apiErr
}

func joinFieldErrors(fieldErrors map[string][]string) string {
	keys := make([]string, 0, len(fieldErrors))
	for k := range fieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(fieldErrors[k], " "))
	}
	return strings.Join(parts, "; ")
}

// call sends a JSON request and decodes the envelope data into out, which
// may be nil.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "response body")

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding %s data: %w", req.URL.Path, err)
	}
	return nil
}

// download posts to path and returns the attachment it answers with.
func (c *Client) download(ctx context.Context, path string) (Attachment, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return Attachment{}, err
	}
	resp, err := c.do(req)
	if err != nil {
		return Attachment{}, err
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "attachment body")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Attachment{}, fmt.Errorf("reading %s: %w", path, err)
	}
	att := Attachment{ContentType: resp.Header.Get("Content-Type"), Body: body}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		att.Filename = params["filename"]
	}
	return att, nil
}
