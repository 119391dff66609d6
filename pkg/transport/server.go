package transport

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-cba/pkg/payload"
)

// HandlerFunc answers one decoded request.
type HandlerFunc func(r *http.Request, p *payload.Payload) (Response, error)

// ReadRequest decodes a submitted payload from either supported encoding.
func ReadRequest(r *http.Request) (*payload.Payload, error) {
	p, err := payload.FromRequest(r)
	if err != nil {
		return nil, fmt.Errorf("transport: read request: %w", err)
	}
	return p, nil
}

// WriteResponse writes resp as JSON in the given dialect.
func WriteResponse(w http.ResponseWriter, resp Response, dialect Dialect) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	return Encode(w, resp, dialect)
}

// Handler serves the wire protocol on top of fn. Errors carrying a status
// are answered with that status, anything else with 500.
func Handler(dialect Dialect, fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		p, err := ReadRequest(r)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		resp, err := fn(r, p)
		if err != nil {
			writeError(w, err)
			return
		}
		_ = WriteResponse(w, resp, dialect)
	})
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if httpErr, ok := asHTTPError(err); ok {
		code = httpErr.StatusCode()
	}
	http.Error(w, http.StatusText(code), code)
}
