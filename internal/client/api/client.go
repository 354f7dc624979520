package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/dmitrijs2005/communityhub/internal/logging"
	"github.com/dmitrijs2005/communityhub/internal/metrics"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	HeaderRequestID   = "X-Request-ID"
	DefaultTimeout    = 30 * time.Second
	defaultFileField  = "file"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

// TokenStore is the persisted side of the bearer token.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
}

// Params are GET query parameters. Nil values are skipped.
type Params = map[string]any

// File is a multipart attachment.
type File struct {
	// Field is the form field name, "file" when empty.
	Field  string
	Name   string
	Reader io.Reader
}

type Client struct {
	baseURL string
	http    *http.Client
	store   TokenStore
	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  logging.Logger

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests to limit per second. A non-positive
// limit disables limiting.
func WithRateLimit(limit float64, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for baseURL and loads the persisted token from store.
// An unreadable token is logged and treated as absent.
func New(ctx context.Context, baseURL string, store TokenStore, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		store:   store,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if store != nil {
		token, err := store.Token(ctx)
		if err != nil {
			c.logger.Warn(ctx, "failed to load persisted token", "error", err)
		}
		c.token = token
	}
	return c, nil
}

// Token returns the in-memory token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the token in memory and in the store. An empty token
// removes it from both; memory is cleared even when the store fails, so a
// cleared session never keeps sending the old bearer.
func (c *Client) SetToken(ctx context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token == "" {
		c.token = ""
	}
	if c.store != nil {
		if err := c.store.SetToken(ctx, token); err != nil {
			return fmt.Errorf("persist token: %w", err)
		}
	}
	c.token = token
	return nil
}

func (c *Client) Get(ctx context.Context, endpoint string, params Params) (*Response, error) {
	if q := encodeParams(params); q != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + q
	}
	return c.do(ctx, http.MethodGet, endpoint, nil, "")
}

func (c *Client) Post(ctx context.Context, endpoint string, payload any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, endpoint, payload)
}

func (c *Client) Put(ctx context.Context, endpoint string, payload any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPut, endpoint, payload)
}

func (c *Client) Patch(ctx context.Context, endpoint string, payload any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPatch, endpoint, payload)
}

func (c *Client) Delete(ctx context.Context, endpoint string, payload any) (*Response, error) {
	return c.doJSON(ctx, http.MethodDelete, endpoint, payload)
}

// UploadFile posts a multipart form holding file and the extra fields.
func (c *Client) UploadFile(ctx context.Context, endpoint string, file File, fields map[string]string) (*Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if file.Reader != nil {
		field := file.Field
		if field == "" {
			field = defaultFileField
		}
		part, err := mw.CreateFormFile(field, file.Name)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return nil, fmt.Errorf("copy file %s: %w", file.Name, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	return c.do(ctx, http.MethodPost, endpoint, &buf, mw.FormDataContentType())
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload any) (*Response, error) {
	if payload == nil {
		return c.do(ctx, method, endpoint, nil, contentTypeJSON)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return c.do(ctx, method, endpoint, bytes.NewReader(b), contentTypeJSON)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set(HeaderRequestID, requestID)
	if contentType != "" {
		req.Header.Set(headerContentType, contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	route := routeLabel(endpoint)
	log := c.logger.With("method", method, "endpoint", route, "request_id", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveAPIRequest(method, route, 0, time.Since(start))
		log.Warn(ctx, "request failed", "error", err)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.metrics.ObserveAPIRequest(method, route, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	log.Debug(ctx, "request done", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(resp.StatusCode, raw)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &out, nil
}

func encodeParams(params Params) string {
	if len(params) == 0 {
		return ""
	}
	q := url.Values{}
	for k, v := range params {
		rv := reflect.ValueOf(v)
		if !rv.IsValid() {
			continue
		}
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				continue
			}
			v = rv.Elem().Interface()
		}
		q.Set(k, fmt.Sprint(v))
	}
	return q.Encode()
}

// routeLabel strips the query and collapses id-like path segments so the
// metrics label set stays small.
func routeLabel(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	parts := strings.Split(endpoint, "/")
	for i, p := range parts {
		if strings.IndexFunc(p, unicode.IsDigit) >= 0 {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
