// Package httpapi implements ports.Transport over HTTP with retries and error classification.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.trai.ch/mirror/internal/adapters/telemetry"
	"go.trai.ch/mirror/internal/core/backoff"
	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/mirror/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 8 * time.Second

	// maxErrorBody bounds how much of an error response is read for its message.
	maxErrorBody = 64 << 10
)

// DefaultRetryStatuses are the statuses retried when Options.RetryStatuses is nil.
var DefaultRetryStatuses = []int{
	http.StatusRequestTimeout,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Options configure a Client. Zero values select the defaults.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	MaxAttempts   int
	Backoff       backoff.Policy
	RetryStatuses []int
	// HotPaths are collection paths whose GET responses must never be served from an HTTP cache.
	HotPaths   []string
	HTTPClient *http.Client
}

// Client implements ports.Transport.
type Client struct {
	base   *url.URL
	http   *http.Client
	opts   Options
	creds  ports.CredentialResolver
	tracer ports.Tracer
	logger ports.Logger
}

// New creates a Client. creds and tracer may be nil.
func New(opts Options, creds ports.CredentialResolver, tracer ports.Tracer, logger ports.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "invalid base url"), "url", opts.BaseURL)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Backoff.Base <= 0 {
		opts.Backoff = backoff.New(defaultBaseDelay, defaultMaxDelay)
	}
	if opts.RetryStatuses == nil {
		opts.RetryStatuses = DefaultRetryStatuses
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if tracer == nil {
		tracer = telemetry.NewNoOpTracer()
	}

	return &Client{
		base:   base,
		http:   client,
		opts:   opts,
		creds:  creds,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Get issues a GET with the given query and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

type call struct {
	method    string
	path      string
	target    string
	body      []byte
	requestID string
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (err error) {
	cl := call{
		method:    method,
		path:      path,
		target:    c.resolve(path, query),
		requestID: ulid.Make().String(),
	}
	if body != nil {
		cl.body, err = json.Marshal(body)
		if err != nil {
			return &domain.APIError{Kind: domain.KindValidation, Method: method, Path: path, Message: "encode request body", Cause: err}
		}
	}

	ctx, span := c.tracer.Start(ctx, method+" "+path,
		ports.WithAttribute(telemetry.AttrMethod, method),
		ports.WithAttribute(telemetry.AttrPath, path),
		ports.WithAttribute(telemetry.AttrRequestID, cl.requestID),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	for attempt := 0; ; attempt++ {
		span.SetAttribute(telemetry.AttrAttempts, attempt+1)

		status, data, reqErr := c.attempt(ctx, cl)
		if reqErr == nil {
			span.SetAttribute(telemetry.AttrStatus, status)
			if status >= 200 && status < 300 {
				return decode(cl, status, data, out)
			}
		}

		// Credential failures are final and already classified.
		if reqErr != nil && errors.Is(reqErr, domain.ErrUnauthorized) {
			return reqErr
		}

		retryable := c.retryable(ctx, status, reqErr)
		if !retryable || attempt+1 >= c.opts.MaxAttempts {
			return classify(cl, status, data, reqErr)
		}

		delay := c.opts.Backoff.Delay(attempt)
		c.logger.Debug(fmt.Sprintf("%s %s: attempt %d failed, retrying in %s", method, path, attempt+1, delay.Round(time.Millisecond)))
		if sleepErr := backoff.Sleep(ctx, delay); sleepErr != nil {
			return &domain.APIError{Kind: domain.KindNetwork, Method: method, Path: path, Cause: sleepErr}
		}
	}
}

func (c *Client) attempt(ctx context.Context, cl call) (int, []byte, error) {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, cl.target, body)
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(domain.RequestIDHeader, cl.requestID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.method == http.MethodGet && c.isHot(cl.path) {
		req.Header.Set("Cache-Control", "no-store")
		req.Header.Set("Pragma", "no-cache")
	}
	if c.creds != nil {
		token, err := c.creds.Token(ctx)
		if err != nil {
			return 0, nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	reader := io.Reader(resp.Body)
	if resp.StatusCode >= 300 {
		reader = io.LimitReader(resp.Body, maxErrorBody)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

func (c *Client) retryable(ctx context.Context, status int, reqErr error) bool {
	if ctx.Err() != nil {
		return false
	}
	if reqErr != nil {
		return true
	}
	return slices.Contains(c.opts.RetryStatuses, status)
}

func (c *Client) isHot(path string) bool {
	for _, hot := range c.opts.HotPaths {
		if path == hot || strings.HasPrefix(path, hot+"/") {
			return true
		}
	}
	return false
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()
	return u.String()
}

func decode(cl call, status int, data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.APIError{Kind: domain.KindNetwork, Status: status, Method: cl.method, Path: cl.path, Message: "decode response", Cause: err}
	}
	return nil
}

func classify(cl call, status int, data []byte, reqErr error) error {
	if reqErr != nil {
		return &domain.APIError{Kind: domain.KindNetwork, Method: cl.method, Path: cl.path, Cause: reqErr}
	}
	return &domain.APIError{
		Kind:    domain.KindForStatus(status),
		Status:  status,
		Method:  cl.method,
		Path:    cl.path,
		Message: serverMessage(data),
	}
}

// serverMessage extracts the "message" or "error" field of a JSON error body.
func serverMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
