// Package api is the client for the process resource of the orchestration
// server: terminating a process and fetching its current status.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/procwatch/internal/log"
	"github.com/zjrosen/procwatch/internal/process"
	"github.com/zjrosen/procwatch/internal/tracing"
)

// processPath is the resource prefix, relative to the base URL.
const processPath = "/api/v1/process/"

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// DefaultUserAgent is sent when no WithUserAgent option is given.
const DefaultUserAgent = "procwatch"

// Client talks to the process resource. It holds no per-call state and is
// safe for concurrent use; ordering of concurrent results is the caller's
// concern.
type Client struct {
	baseURL   string
	http      *http.Client
	headers   HeaderProvider
	tracer    trace.Tracer
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying http.Client. Timeouts, proxies and
// transports are configured there.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithHeaders sets the provider consulted for headers on every request.
func WithHeaders(p HeaderProvider) Option {
	return func(c *Client) {
		c.headers = p
	}
}

// WithTracer enables spans for each operation.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the server at baseURL, e.g.
// "https://concord.example.com". A trailing slash is ignored.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", baseURL)
	}
	u.RawQuery = ""
	u.Fragment = ""

	c := &Client{
		baseURL:   strings.TrimRight(u.String(), "/"),
		http:      http.DefaultClient,
		tracer:    noop.NewTracerProvider().Tracer("noop"),
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ProcessURL returns the resource URL for id. The id is escaped as a single
// path segment and never interpreted.
func (c *Client) ProcessURL(id process.ID) string {
	return c.baseURL + processPath + url.PathEscape(string(id))
}

// Terminate asks the server to stop the process. It returns true when the
// server accepted the request. The response body is ignored.
func (c *Client) Terminate(ctx context.Context, id process.ID) (bool, error) {
	ctx, span := c.tracer.Start(ctx, tracing.SpanTerminate,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String(tracing.AttrProcessID, string(id))),
	)
	defer span.End()

	log.Debug(log.CatAPI, "Terminate request", "id", id)

	if _, err := c.do(ctx, span, OpTerminate, http.MethodDelete, id); err != nil {
		recordError(span, err)
		log.Debug(log.CatAPI, "Terminate failed", "id", id, "error", err, "trace_id", tracing.TraceID(ctx))
		return false, err
	}

	span.SetStatus(codes.Ok, "")
	log.Debug(log.CatAPI, "Terminate accepted", "id", id)
	return true, nil
}

// FetchStatus returns the current status payload of the process. An unknown
// status value is not an error; a body without a status is a *DecodeError.
func (c *Client) FetchStatus(ctx context.Context, id process.ID) (*process.Entry, error) {
	ctx, span := c.tracer.Start(ctx, tracing.SpanFetchStatus,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String(tracing.AttrProcessID, string(id))),
	)
	defer span.End()

	log.Debug(log.CatAPI, "Fetch status request", "id", id)

	body, err := c.do(ctx, span, OpFetchStatus, http.MethodGet, id)
	if err != nil {
		recordError(span, err)
		log.Debug(log.CatAPI, "Fetch status failed", "id", id, "error", err, "trace_id", tracing.TraceID(ctx))
		return nil, err
	}

	var entry process.Entry
	if err := json.Unmarshal(body, &entry); err != nil {
		derr := &DecodeError{Op: OpFetchStatus, ID: id, Body: body, Err: err}
		recordError(span, derr)
		log.Debug(log.CatAPI, "Fetch status undecodable", "id", id, "error", err)
		return nil, derr
	}

	span.SetAttributes(attribute.String(tracing.AttrProcessStatus, string(entry.Status)))
	span.SetStatus(codes.Ok, "")
	log.Debug(log.CatAPI, "Fetch status ok", "id", id, "status", entry.Status)
	return &entry, nil
}

// do performs one round trip and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, span trace.Span, op Op, method string, id process.ID) ([]byte, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	req, err := http.NewRequestWithContext(ctx, method, c.ProcessURL(id), nil)
	if err != nil {
		return nil, &TransportError{Op: op, ID: id, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if c.headers != nil {
		h, err := c.headers.Headers(ctx)
		if err != nil {
			return nil, &TransportError{Op: op, ID: id, Err: fmt.Errorf("resolving headers: %w", err)}
		}
		for k, vs := range h {
			req.Header.Del(k)
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, ID: id, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int(tracing.AttrHTTPStatusCode, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The status is authoritative; a truncated error body is kept as read.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		return nil, &APIError{
			Op:         op,
			ID:         id,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Header:     resp.Header.Clone(),
			Body:       body,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Op: op, ID: id, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(
		attribute.String(tracing.AttrErrorType, errorType(err)),
		attribute.String(tracing.AttrErrorMessage, err.Error()),
	)
}

func errorType(err error) string {
	var (
		transportErr *TransportError
		apiErr       *APIError
		decodeErr    *DecodeError
	)
	switch {
	case errors.As(err, &apiErr):
		return "api"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &transportErr):
		return "transport"
	default:
		return "other"
	}
}
