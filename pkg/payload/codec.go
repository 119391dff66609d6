package payload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/goliatone/go-cba/pkg/dom"
)

// Content types understood by the codec.
const (
	ContentTypeMultipart      = "multipart/form-data"
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"
)

// ErrFilesNotSupported is returned when a payload carrying files is encoded
// with the urlencoded codec.
var ErrFilesNotSupported = errors.New("payload: files require multipart encoding")

// WriteMultipart encodes the payload as multipart/form-data and returns the
// content type, including the boundary. File contents are streamed from
// their handles.
func (p *Payload) WriteMultipart(w io.Writer) (string, error) {
	mw := multipart.NewWriter(w)
	for _, field := range p.fields {
		if !field.IsFile() {
			if err := mw.WriteField(field.Name, field.Value); err != nil {
				return "", fmt.Errorf("payload: write field %q: %w", field.Name, err)
			}
			continue
		}
		if err := writeFilePart(mw, field); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("payload: close multipart writer: %w", err)
	}
	return mw.FormDataContentType(), nil
}

// EncodeForm encodes the payload as application/x-www-form-urlencoded,
// preserving entry order.
func (p *Payload) EncodeForm() (string, error) {
	if p.HasFiles() {
		return "", ErrFilesNotSupported
	}
	var b strings.Builder
	for idx, field := range p.fields {
		if idx > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(field.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(field.Value))
	}
	return b.String(), nil
}

// ParseForm decodes an urlencoded body preserving entry order.
func ParseForm(body string) (*Payload, error) {
	out := New()
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("payload: decode key %q: %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("payload: decode value of %q: %w", key, err)
		}
		out.Add(key, value)
	}
	return out, nil
}

// ParseMultipart decodes a multipart body preserving part order. File parts
// are buffered in memory.
func ParseMultipart(r io.Reader, boundary string) (*Payload, error) {
	out := New()
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("payload: read part: %w", err)
		}
		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return nil, fmt.Errorf("payload: read part %q: %w", part.FormName(), err)
		}
		if part.FileName() == "" {
			out.Add(part.FormName(), string(data))
			continue
		}
		out.AddFile(part.FormName(), dom.FileFromBytes(part.FileName(), part.Header.Get("Content-Type"), data))
	}
}

// Decode reads a payload from body according to contentType.
func Decode(contentType string, body io.Reader) (*Payload, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("payload: parse content type: %w", err)
	}
	switch mediaType {
	case ContentTypeMultipart:
		boundary := params["boundary"]
		if boundary == "" {
			return nil, errors.New("payload: multipart boundary missing")
		}
		return ParseMultipart(body, boundary)
	case ContentTypeFormURLEncoded:
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("payload: read body: %w", err)
		}
		return ParseForm(string(data))
	default:
		return nil, fmt.Errorf("payload: unsupported content type %q", mediaType)
	}
}

// FromRequest decodes the body of an incoming request.
func FromRequest(r *http.Request) (*Payload, error) {
	if r == nil || r.Body == nil {
		return nil, errors.New("payload: request body is required")
	}
	return Decode(r.Header.Get("Content-Type"), r.Body)
}

// Encode renders the payload with the named encoding and returns the body
// and content type.
func (p *Payload) Encode(contentType string) ([]byte, string, error) {
	switch contentType {
	case ContentTypeFormURLEncoded:
		body, err := p.EncodeForm()
		if err != nil {
			return nil, "", err
		}
		return []byte(body), ContentTypeFormURLEncoded, nil
	case ContentTypeMultipart, "":
		var buf bytes.Buffer
		ct, err := p.WriteMultipart(&buf)
		if err != nil {
			return nil, "", err
		}
		return buf.Bytes(), ct, nil
	default:
		return nil, "", fmt.Errorf("payload: unsupported content type %q", contentType)
	}
}

func writeFilePart(mw *multipart.Writer, field Field) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(field.Name), escapeQuotes(field.File.Name)))
	contentType := field.File.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("payload: create file part %q: %w", field.Name, err)
	}
	if field.File.Open == nil {
		return nil
	}
	rc, err := field.File.Open()
	if err != nil {
		return fmt.Errorf("payload: open file %q: %w", field.File.Name, err)
	}
	defer rc.Close()
	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("payload: copy file %q: %w", field.File.Name, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
