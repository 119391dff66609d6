package testsupport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goliatone/go-cba/pkg/payload"
	"github.com/goliatone/go-cba/pkg/transport"
)

// RecordingTransport records every payload it is asked to send and answers
// from a queue of canned replies. When the queue is empty the last reply
// is repeated.
type RecordingTransport struct {
	mu      sync.Mutex
	sent    []*payload.Payload
	replies []Reply

	// Gate, when set, is received from before each reply is returned.
	Gate chan struct{}
}

// Reply is a canned transport answer.
type Reply struct {
	Response transport.Response
	Err      error
}

var _ transport.Client = (*RecordingTransport)(nil)

// NewRecordingTransport returns a transport answering with replies in order.
func NewRecordingTransport(replies ...Reply) *RecordingTransport {
	return &RecordingTransport{replies: replies}
}

// Reply queues another answer.
func (r *RecordingTransport) Reply(resp transport.Response, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, Reply{Response: resp, Err: err})
}

// Send records p and returns the next reply.
func (r *RecordingTransport) Send(ctx context.Context, p *payload.Payload) (transport.Response, error) {
	r.mu.Lock()
	r.sent = append(r.sent, p)
	var reply Reply
	switch len(r.replies) {
	case 0:
	case 1:
		reply = r.replies[0]
	default:
		reply = r.replies[0]
		r.replies = r.replies[1:]
	}
	gate := r.Gate
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return transport.Response{}, ctx.Err()
		}
	}
	return reply.Response, reply.Err
}

// Sent returns the recorded payloads.
func (r *RecordingTransport) Sent() []*payload.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*payload.Payload, len(r.sent))
	copy(out, r.sent)
	return out
}

// Last returns the most recent payload, or nil.
func (r *RecordingTransport) Last() *payload.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return nil
	}
	return r.sent[len(r.sent)-1]
}

// NewServer starts an httptest server that answers the wire protocol with
// fn. The server is closed when the test ends.
func NewServer(t *testing.T, dialect transport.Dialect, fn transport.HandlerFunc) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(transport.Handler(dialect, fn))
	t.Cleanup(srv.Close)
	return srv
}

// StaticHandler answers every request with resp.
func StaticHandler(resp transport.Response) transport.HandlerFunc {
	return func(*http.Request, *payload.Payload) (transport.Response, error) {
		return resp, nil
	}
}
