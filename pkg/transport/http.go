package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-cba/pkg/payload"
)

// DefaultTimeout bounds a request when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

// HTTPClient posts payloads to a fixed endpoint.
type HTTPClient struct {
	endpoint string
	encoding Encoding
	dialect  Dialect
	severity string
	client   *http.Client
	header   http.Header
	logger   logrus.FieldLogger
}

var _ Client = (*HTTPClient)(nil)

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithEncoding sets the request body encoding.
func WithEncoding(enc Encoding) Option {
	return func(c *HTTPClient) {
		if enc != "" {
			c.encoding = enc
		}
	}
}

// WithDialect sets the response dialect.
func WithDialect(d Dialect) Option {
	return func(c *HTTPClient) {
		if d != "" {
			c.dialect = d
		}
	}
}

// WithDefaultSeverity sets the severity of legacy messages.
func WithDefaultSeverity(severity string) Option {
	return func(c *HTTPClient) {
		if trimmed := strings.TrimSpace(severity); trimmed != "" {
			c.severity = trimmed
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *HTTPClient) {
		c.header.Add(key, value)
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewHTTPClient returns a client posting to endpoint.
func NewHTTPClient(endpoint string, opts ...Option) (*HTTPClient, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("transport: endpoint is required")
	}
	c := &HTTPClient{
		endpoint: endpoint,
		encoding: EncodingMultipart,
		dialect:  DialectTyped,
		client:   &http.Client{Timeout: DefaultTimeout},
		header:   make(http.Header),
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// Endpoint returns the configured endpoint.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// Send posts p and decodes the reply. Non-2xx responses return a
// StatusError. There is no retry.
func (c *HTTPClient) Send(ctx context.Context, p *payload.Payload) (Response, error) {
	if p == nil {
		p = payload.New()
	}
	body, contentType, err := p.Encode(c.encoding.ContentType())
	if err != nil {
		return Response{}, fmt.Errorf("transport: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("transport: build request: %w", err)
	}
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	logger := c.logger.WithFields(logrus.Fields{
		"endpoint": c.endpoint,
		"handler":  p.Get("handler"),
	})
	logger.Debug("transport: sending request")

	res, err := c.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("transport: post %s: %w", c.endpoint, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		var cause error
		if text := strings.TrimSpace(string(snippet)); text != "" {
			cause = errors.New(text)
		}
		logger.WithField("status", res.StatusCode).Warn("transport: request failed")
		return Response{}, StatusError{Code: res.StatusCode, Err: cause}
	}

	resp, err := Decode(res.Body, c.dialect, c.severity)
	if err != nil {
		return Response{}, err
	}
	logger.WithFields(logrus.Fields{
		"patches":  len(resp.Patches),
		"messages": len(resp.Messages),
	}).Debug("transport: response decoded")
	return resp, nil
}
