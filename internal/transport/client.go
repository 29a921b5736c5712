// Package transport sends authenticated requests to the Commserve REST API.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/telemetry"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-Id"

// Client is the HTTP client every SDK object sends its requests through.
type Client struct {
	baseURL    string
	username   string
	password   string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
	metrics    *telemetry.Metrics
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger requests are logged to.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = telemetry.Component(l, "transport") }
}

// WithMetrics records request counts and durations.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracer wraps every request in a span.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets a pre-issued authentication token, skipping Login.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// NewClient creates a Client from a Connection.
func NewClient(conn *models.Connection, opts ...Option) *Client {
	tr := &http.Transport{}
	if conn.Insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	} else if conn.CACert != "" {
		pool := x509.NewCertPool()
		if pool.AppendCertsFromPEM([]byte(conn.CACert)) {
			tr.TLSClientConfig = &tls.Config{RootCAs: pool}
		}
	}
	c := &Client{
		baseURL:    conn.BaseURL(),
		username:   conn.Username,
		password:   conn.Password,
		httpClient: &http.Client{Transport: tr, Timeout: 5 * time.Minute},
		log:        zerolog.Nop(),
		tracer:     noop.NewTracerProvider().Tracer("transport"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges the connection's credentials for an authentication token.
func (c *Client) Login(ctx context.Context) error {
	body := map[string]string{
		"username": c.username,
		"password": base64.StdEncoding.EncodeToString([]byte(c.password)),
	}
	resp, err := c.MakeRequest(ctx, http.MethodPost, "Login", body)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("login: HTTP %d: %s", resp.StatusCode, UpdateResponse(resp.Text()))
	}
	doc, err := resp.JSON()
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	token := doc.String("token")
	if token == "" {
		msg := ""
		if list := doc.List("errList"); len(list) > 0 {
			if first, ok := models.AsDocument(list[0]); ok {
				msg = first.String("errLogMessage")
			}
		}
		if msg == "" {
			msg = "no token in response"
		}
		return fmt.Errorf("login: %s", msg)
	}
	c.token = token
	c.log.Debug().Str("user", c.username).Msg("logged in")
	return nil
}

// Token returns the current authentication token, "" before Login.
func (c *Client) Token() string {
	return c.token
}

// MakeRequest sends one request. path is relative to the API root and may
// carry a query string. body, when non-nil, is sent as JSON.
//
// A non-nil error means no response was received; HTTP error statuses are
// reported through Response.OK so callers can render the body.
func (c *Client) MakeRequest(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	requestID := uuid.New().String()
	ctx, span := c.tracer.Start(ctx, method+" "+servicePath(path), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("cvsdk.request_id", requestID),
	)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimPrefix(path, "/"), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.token != "" {
		req.Header.Set("Authtoken", c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	c.metrics.ObserveRequest(method, resp.StatusCode, elapsed)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("reading response: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Str("request_id", requestID).
		Msg("commserve request")

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// servicePath drops the query string and numeric ids so span names stay low-cardinality.
func servicePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
