package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-cba/pkg/notify"
	"github.com/goliatone/go-cba/pkg/patch"
)

type wireResponse struct {
	HTML     []patch.Entry     `json:"html"`
	Messages []json.RawMessage `json:"messages"`
}

type wireOut struct {
	HTML     []patch.Entry `json:"html"`
	Messages []any         `json:"messages"`
}

// DefaultLegacySeverity is the severity of plain string messages when none
// is configured.
const DefaultLegacySeverity = "positive"

// Decode reads a response body in the given dialect. Legacy messages get
// severity, or DefaultLegacySeverity when it is empty.
func Decode(r io.Reader, dialect Dialect, severity string) (Response, error) {
	var wire wireResponse
	dec := json.NewDecoder(r)
	if err := dec.Decode(&wire); err != nil {
		return Response{}, fmt.Errorf("transport: decode response: %w", err)
	}
	if strings.TrimSpace(severity) == "" {
		severity = DefaultLegacySeverity
	}

	resp := Response{Patches: wire.HTML}
	if len(wire.Messages) > 0 {
		resp.Messages = make([]notify.Message, 0, len(wire.Messages))
	}
	for idx, raw := range wire.Messages {
		msg, err := decodeMessage(raw, dialect, severity)
		if err != nil {
			return Response{}, fmt.Errorf("transport: message %d: %w", idx, err)
		}
		resp.Messages = append(resp.Messages, msg)
	}
	return resp, nil
}

func decodeMessage(raw json.RawMessage, dialect Dialect, severity string) (notify.Message, error) {
	trimmed := bytes.TrimSpace(raw)
	isString := len(trimmed) > 0 && trimmed[0] == '"'
	isObject := len(trimmed) > 0 && trimmed[0] == '{'

	switch dialect {
	case DialectLegacy:
		if !isString {
			return notify.Message{}, fmt.Errorf("%w: expected string in %s dialect", ErrDialectMismatch, dialect)
		}
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return notify.Message{}, err
		}
		return notify.Message{Type: severity, Text: text}, nil
	case DialectTyped, "":
		if !isObject {
			return notify.Message{}, fmt.Errorf("%w: expected object in %s dialect", ErrDialectMismatch, DialectTyped)
		}
		var msg notify.Message
		if err := json.Unmarshal(trimmed, &msg); err != nil {
			return notify.Message{}, err
		}
		return msg, nil
	default:
		return notify.Message{}, fmt.Errorf("transport: unknown dialect %q", dialect)
	}
}

// Encode writes resp in the given dialect. Legacy output drops message
// types.
func Encode(w io.Writer, resp Response, dialect Dialect) error {
	out := wireOut{
		HTML:     resp.Patches,
		Messages: make([]any, 0, len(resp.Messages)),
	}
	if out.HTML == nil {
		out.HTML = []patch.Entry{}
	}
	for _, msg := range resp.Messages {
		if dialect == DialectLegacy {
			out.Messages = append(out.Messages, msg.Text)
			continue
		}
		out.Messages = append(out.Messages, msg)
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("transport: encode response: %w", err)
	}
	return nil
}
