package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/metrics"
	"github.com/angelmondragon/soundmarket/pkg/types"
)

const (
	defaultBaseURL           = "http://localhost:8000"
	defaultUserAgent         = "soundmarket-console"
	requestIDHeader          = "X-Request-Id"
	errorBodyReadLimit int64 = 64 * 1024
)

var errNoCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "not logged in")

// Client talks to the marketplace REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	timeout    time.Duration
	logg       *logger.Logger
	metrics    *metrics.RequestMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. Its transport is wrapped with the
// bearer transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout bounds every request. Zero keeps requests unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if strings.TrimSpace(agent) != "" {
			c.userAgent = agent
		}
	}
}

// WithLogger sets the logger used for request logs.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

// WithMetrics records request metrics.
func WithMetrics(m *metrics.RequestMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New builds a client that authenticates with creds.
func New(creds Credentials, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		logg:       logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	// copy so a caller-supplied client is not mutated
	httpClient := *client.httpClient
	httpClient.Transport = &bearerTransport{base: httpClient.Transport, creds: creds}
	if client.timeout > 0 {
		httpClient.Timeout = client.timeout
	}
	client.httpClient = &httpClient
	return client
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends req and decodes a JSON response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read response body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s %s response", req.Method, req.Route()))
	}
	return nil
}

// Download describes a streamed file response.
type Download struct {
	FileName    string
	ContentType string
	Bytes       int64
}

// Download sends req and streams the response body into w.
func (c *Client) Download(ctx context.Context, req Request, w io.Writer) (Download, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return Download{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return Download{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stream download")
	}
	return Download{
		FileName:    fileNameFromDisposition(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Bytes:       written,
	}, nil
}

// send performs the round trip and converts non-2xx responses into errors.
// On success the caller owns resp.Body.
func (c *Client) send(ctx context.Context, req Request) (*http.Response, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "api client not configured")
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	requestID := uuid.NewString()
	ctx = c.logg.WithRequestID(ctx, requestID)
	ctx = c.logg.WithEndpoint(ctx, req.Method, req.Route())
	if req.Anonymous {
		ctx = withAnonymous(ctx)
	}

	body, contentType, err := req.body()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "build request body")
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL(c.baseURL), body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build request")
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(requestIDHeader, requestID)

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(started)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			// credential failures happen before anything is sent
			return nil, typed
		}
		c.metrics.Observe(req.Method, req.Route(), 0, elapsed)
		c.logg.WarnErr(ctx, "request.failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s", req.Method, req.Route()))
	}

	c.metrics.Observe(req.Method, req.Route(), resp.StatusCode, elapsed)
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"status":      resp.StatusCode,
		"duration_ms": elapsed.Milliseconds(),
	})
	c.logg.Debug(logCtx, "request.complete")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()
	return nil, responseError(resp)
}

func responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	var body types.ErrorBody
	detail := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		detail = body.Message()
	}
	return pkgerrors.FromResponse(resp.StatusCode, detail)
}

func fileNameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := params["filename"]
	if name == "" {
		return ""
	}
	return path.Base(strings.ReplaceAll(name, "\\", "/"))
}
