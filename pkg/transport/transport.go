// Package transport carries serialized payloads to the server and decodes
// the patch and message response. HTTPClient is the production client;
// ReadRequest and WriteResponse implement the same wire format for Go
// servers and test doubles.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-cba/pkg/notify"
	"github.com/goliatone/go-cba/pkg/patch"
	"github.com/goliatone/go-cba/pkg/payload"
)

// ErrFilesNotSupported is returned when a payload with files is sent using
// the urlencoded encoding.
var ErrFilesNotSupported = payload.ErrFilesNotSupported

// ErrDialectMismatch is returned when the messages of a response are not in
// the configured dialect.
var ErrDialectMismatch = errors.New("transport: response messages do not match dialect")

// Response is the decoded server reply: patches first, then messages.
type Response struct {
	Patches  []patch.Entry
	Messages []notify.Message
}

// Client sends a payload and returns the decoded response.
type Client interface {
	Send(ctx context.Context, p *payload.Payload) (Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, p *payload.Payload) (Response, error)

// Send calls f.
func (f ClientFunc) Send(ctx context.Context, p *payload.Payload) (Response, error) {
	return f(ctx, p)
}

// HTTPError is implemented by errors that carry an HTTP status.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: status %d: %v", e.StatusCode(), e.Err)
	}
	return fmt.Sprintf("transport: status %d: %s", e.StatusCode(), http.StatusText(e.StatusCode()))
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Dialect selects how response messages are encoded.
type Dialect string

const (
	// DialectTyped messages are {"type": ..., "text": ...} objects.
	DialectTyped Dialect = "typed"
	// DialectLegacy messages are plain strings shown with the default
	// severity.
	DialectLegacy Dialect = "legacy"
)

// ParseDialect validates a configured dialect. Empty means typed.
func ParseDialect(raw string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(raw))) {
	case "", DialectTyped:
		return DialectTyped, nil
	case DialectLegacy:
		return DialectLegacy, nil
	default:
		return "", fmt.Errorf("transport: unknown dialect %q", raw)
	}
}

// Encoding selects the request body format.
type Encoding string

const (
	// EncodingMultipart posts multipart/form-data and supports files.
	EncodingMultipart Encoding = "multipart"
	// EncodingForm posts application/x-www-form-urlencoded.
	EncodingForm Encoding = "form"
)

// ParseEncoding validates a configured encoding. Empty means multipart.
func ParseEncoding(raw string) (Encoding, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(raw))) {
	case "", EncodingMultipart:
		return EncodingMultipart, nil
	case EncodingForm, "urlencoded":
		return EncodingForm, nil
	default:
		return "", fmt.Errorf("transport: unknown encoding %q", raw)
	}
}

// ContentType returns the request content type for the encoding.
func (e Encoding) ContentType() string {
	if e == EncodingForm {
		return payload.ContentTypeFormURLEncoded
	}
	return payload.ContentTypeMultipart
}

func asHTTPError(err error) (HTTPError, bool) {
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		return httpErr, true
	}
	return nil, false
}
