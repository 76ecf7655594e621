package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shorts-web/internal/common/errors"
	"shorts-web/internal/common/logging"
	"shorts-web/internal/session"
)

// S3Host is the default object storage entry. It covers every Amazon S3
// endpoint without treating other amazonaws.com hosts (EC2, ELB, API Gateway)
// as storage.
const S3Host = "s3.amazonaws.com"

// maxErrorBody bounds how much of a failed backend response is kept on the error.
const maxErrorBody = 2048

// ClientConfig holds HTTP client configuration
type ClientConfig struct {
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	Transport           http.RoundTripper
	ObjectStorageHosts  []string
}

// DefaultClientConfig returns default HTTP client configuration
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:             30 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ObjectStorageHosts:  []string{S3Host},
	}
}

// ClientOption is a function that modifies ClientConfig
type ClientOption func(*ClientConfig)

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithMaxIdleConns sets the maximum number of idle connections
func WithMaxIdleConns(max int) ClientOption {
	return func(c *ClientConfig) {
		c.MaxIdleConns = max
	}
}

// WithMaxIdleConnsPerHost sets the maximum number of idle connections per host
func WithMaxIdleConnsPerHost(max int) ClientOption {
	return func(c *ClientConfig) {
		c.MaxIdleConnsPerHost = max
	}
}

// WithIdleConnTimeout sets the idle connection timeout
func WithIdleConnTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.IdleConnTimeout = timeout
	}
}

// WithTransport sets a custom base transport
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *ClientConfig) {
		c.Transport = transport
	}
}

// WithObjectStorageHosts replaces the host suffixes that never receive the
// session credential.
func WithObjectStorageHosts(hosts ...string) ClientOption {
	return func(c *ClientConfig) {
		c.ObjectStorageHosts = hosts
	}
}

// RequestOptions describes one backend call.
type RequestOptions struct {
	Method string
	// Path is resolved against the base URL unless it is an absolute URL.
	Path    string
	Query   url.Values
	Body    io.Reader
	Headers map[string]string
	// ContentLength is set on the request when positive; object storage
	// rejects chunked uploads to pre-signed URLs.
	ContentLength int64
}

// Response represents an HTTP response with its raw body
type Response struct {
	StatusCode int
	Headers    http.Header
	RawBody    []byte
	Duration   time.Duration
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v interface{}) error {
	if v == nil || len(bytes.TrimSpace(r.RawBody)) == 0 {
		return nil
	}
	if raw, ok := v.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], r.RawBody...)
		return nil
	}
	if err := json.Unmarshal(r.RawBody, v); err != nil {
		return errors.InternalError("failed to decode backend response", err)
	}
	return nil
}

// Client calls the backend REST API. The zero-credential client returned by
// New is shared process-wide; WithSession derives a per-session client that
// injects the bearer credential.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	base         http.RoundTripper
	storageHosts []string
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...ClientOption) (*Client, error) {
	cfg := DefaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.ConfigError(fmt.Sprintf("invalid backend base URL %q", baseURL))
	}

	base := cfg.Transport
	if base == nil {
		base = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			IdleConnTimeout:     cfg.IdleConnTimeout,
		}
	}

	hosts := make([]string, 0, len(cfg.ObjectStorageHosts))
	for _, h := range cfg.ObjectStorageHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, h)
		}
	}

	return &Client{
		baseURL:      parsed,
		base:         base,
		storageHosts: hosts,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &bearerTransport{next: base, storageHosts: hosts},
		},
	}, nil
}

// WithSession returns a client bound to store. Every outgoing request reads
// the credential at send time, so a credential set mid-request is picked up.
func (c *Client) WithSession(store session.Store) *Client {
	clone := *c
	clone.httpClient = &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &bearerTransport{
			next:         c.base,
			store:        store,
			storageHosts: c.storageHosts,
		},
	}
	return &clone
}

// BaseURL returns the backend base address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// IsObjectStorageHost reports whether host matches one of the configured
// object storage suffixes.
func (c *Client) IsObjectStorageHost(host string) bool {
	return IsObjectStorageHost(c.storageHosts, host)
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	var target *url.URL
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		u, err := url.Parse(path)
		if err != nil {
			return "", errors.ValidationError(fmt.Sprintf("invalid URL %q", path))
		}
		target = u
	} else {
		rel, err := url.Parse(strings.TrimLeft(path, "/"))
		if err != nil {
			return "", errors.ValidationError(fmt.Sprintf("invalid path %q", path))
		}
		u := *c.baseURL
		u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + rel.Path
		u.RawPath = ""
		u.RawQuery = rel.RawQuery
		target = &u
	}

	if len(query) > 0 {
		merged := target.Query()
		for key, values := range query {
			for _, v := range values {
				merged.Add(key, v)
			}
		}
		target.RawQuery = merged.Encode()
	}
	return target.String(), nil
}

// Request performs one backend call. Non-2xx answers come back as a FetchError
// together with the response so callers can inspect the body. There is no
// retry.
func (c *Client) Request(ctx context.Context, opts *RequestOptions) (*Response, error) {
	target, err := c.resolve(opts.Path, opts.Query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, target, opts.Body)
	if err != nil {
		return nil, errors.InternalError("failed to create request", err)
	}
	if opts.ContentLength > 0 {
		req.ContentLength = opts.ContentLength
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if appErr, ok := errors.As(err); ok {
			return nil, appErr
		}
		return nil, errors.ConnectionError("request failed", err).
			WithContext("method", opts.Method).
			WithContext("url", redactQuery(target))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ConnectionError("failed to read response body", err)
	}

	response := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		RawBody:    body,
		Duration:   duration,
	}

	logging.WithContext(ctx).Debug("Backend call completed",
		logging.String("method", opts.Method),
		logging.String("url", redactQuery(target)),
		logging.Int("status", resp.StatusCode),
		logging.Duration("duration", duration))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return response, nil
	}

	fetchErr := errors.FetchError(fmt.Sprintf("backend returned %d", resp.StatusCode), resp.StatusCode).
		WithContext("method", opts.Method).
		WithContext("path", opts.Path)
	if len(body) > 0 {
		fetchErr.WithContext("body", truncate(string(body), maxErrorBody))
	}
	return response, fetchErr
}

// Get issues GET path?query and decodes the JSON answer into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	resp, err := c.Request(ctx, &RequestOptions{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Post sends body as JSON. A nil body sends no payload.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPost, path, nil, body, out)
}

// Put sends body as JSON with optional query parameters.
func (c *Client) Put(ctx context.Context, path string, query url.Values, body, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPut, path, query, body, out)
}

// Delete issues DELETE path.
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	resp, err := c.Request(ctx, &RequestOptions{Method: http.MethodDelete, Path: path})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// PutBinary uploads raw bytes, typically to a pre-signed object storage URL.
func (c *Client) PutBinary(ctx context.Context, rawURL, contentType string, body io.Reader, size int64) error {
	headers := map[string]string{"Accept": "*/*"}
	if contentType != "" {
		headers["Content-Type"] = contentType
	}
	_, err := c.Request(ctx, &RequestOptions{
		Method:        http.MethodPut,
		Path:          rawURL,
		Body:          body,
		Headers:       headers,
		ContentLength: size,
	})
	return err
}

func (c *Client) sendJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	opts := &RequestOptions{Method: method, Path: path, Query: query}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.InternalError("failed to encode request body", err)
		}
		opts.Body = bytes.NewReader(data)
		opts.ContentLength = int64(len(data))
		opts.Headers = map[string]string{"Content-Type": "application/json"}
	}

	resp, err := c.Request(ctx, opts)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// redactQuery drops the query string, which may hold pre-signed signatures
// or authorization codes.
func redactQuery(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}
