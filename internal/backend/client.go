// Package backend is the HTTP client for the external journaling API.
// Every call targets {baseURL}{path} and is authenticated with the caller's
// bearer token when one is supplied.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/observability"
	"github.com/quillnote/quillnote/internal/provider/resilience"
)

// ProviderName identifies the backend in logs, breakers and metrics.
const ProviderName = "journal-backend"

// maxBodySize bounds how much of an upstream body is read into memory.
const maxBodySize = 32 << 20

// Request describes one outbound call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Token is the bearer token; empty sends no Authorization header.
	Token string
	// Body is JSON encoded when non-nil. json.RawMessage is sent verbatim.
	Body any
	// Accept overrides the default application/json Accept header.
	Accept string
	// Route is the path template used as the metrics label, for example
	// "/entries/{id}". Path is used when empty.
	Route string
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	StatusCode int
	// Detail is the message found in the upstream error body, if any.
	Detail   string
	Response *Response
}

func (e *StatusError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, msg)
}

// StatusCode returns the upstream status carried by err, or 0 when err is not a *StatusError.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// Doer is the transport the client sends requests through.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	// BaseURL is the external API base URL (required).
	BaseURL string

	// HTTPClient is the transport. If nil, uses a resilient client with defaults.
	HTTPClient Doer

	// Metrics records per-call outcomes. Optional.
	Metrics *observability.Metrics

	Logger zerolog.Logger
}

// Client calls the external journaling API.
type Client struct {
	baseURL    string
	httpClient Doer
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// NewClient creates a new backend client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL returns the absolute URL for path and query.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Do sends req and reads the whole response. Non-2xx responses are returned
// as a *StatusError together with the response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := c.do(ctx, req)
	route := req.Route
	if route == "" {
		route = req.Path
	}
	c.metrics.ObserveUpstream(req.Method, route, statusLabel(resp, err), time.Since(start))

	if err != nil {
		c.logger.Debug().
			Err(err).
			Str("method", req.Method).
			Str("path", req.Path).
			Dur("duration", time.Since(start)).
			Msg("backend call failed")
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader = http.NoBody
	if req.Body != nil {
		var payload []byte
		switch b := req.Body.(type) {
		case json.RawMessage:
			payload = b
		case []byte:
			payload = b
		default:
			encoded, err := json.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("encoding request body: %w", err)
			}
			payload = encoded
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.URL(req.Path, req.Query), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	accept := req.Accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return resp, &StatusError{
			StatusCode: httpResp.StatusCode,
			Detail:     errorDetail(data),
			Response:   resp,
		}
	}

	return resp, nil
}

// errorDetail extracts a human-readable message from an upstream error body.
// FastAPI style {"detail": "..."} as well as {"error": "..."} and {"message": "..."}
// bodies are understood.
func errorDetail(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "error", "message"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func statusLabel(resp *Response, err error) string {
	switch {
	case resp != nil:
		return fmt.Sprintf("%d", resp.StatusCode)
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	default:
		return "error"
	}
}
