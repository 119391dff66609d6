package dispatch

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Common event types.
const (
	EventClick     = "click"
	EventChange    = "change"
	EventKeyUp     = "keyup"
	EventKeyDown   = "keydown"
	EventDragStart = "dragstart"
	EventDrop      = "drop"
)

// DefaultEvents are the event classes bound by delegation.
var DefaultEvents = []string{EventClick, EventChange, EventKeyUp}

// TransferFormat is the drag data format the source id is stored under.
const TransferFormat = "text/plain"

// ErrNoTransferData is returned by Transfer.GetData for unknown formats.
var ErrNoTransferData = errors.New("dispatch: no transfer data")

// DataTransfer is the drag data channel shared by a dragstart and the
// matching drop.
type DataTransfer interface {
	SetData(format, value string)
	GetData(format string) (string, error)
}

// Transfer is an in-memory DataTransfer.
type Transfer struct {
	mu   sync.Mutex
	data map[string]string
}

// NewTransfer returns an empty Transfer.
func NewTransfer() *Transfer {
	return &Transfer{data: make(map[string]string)}
}

// SetData stores value under format.
func (t *Transfer) SetData(format, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.data == nil {
		t.data = make(map[string]string)
	}
	t.data[format] = value
}

// GetData returns the value stored under format.
func (t *Transfer) GetData(format string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	value, ok := t.data[format]
	if !ok {
		return "", ErrNoTransferData
	}
	return value, nil
}

// Event is one element event handed to the runtime.
type Event struct {
	Type     string
	Target   *html.Node
	Transfer DataTransfer
	// KeyCode is set for keyboard events.
	KeyCode int

	mu        sync.Mutex
	prevented bool
}

// NewEvent builds an event of eventType on target.
func NewEvent(eventType string, target *html.Node) *Event {
	return &Event{Type: normalizeEventType(eventType), Target: target}
}

func normalizeEventType(eventType string) string {
	return strings.ToLower(strings.TrimSpace(eventType))
}

// PreventDefault marks the default behaviour as suppressed.
func (e *Event) PreventDefault() {
	e.mu.Lock()
	e.prevented = true
	e.mu.Unlock()
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prevented
}

func isKeyboard(eventType string) bool {
	switch eventType {
	case EventKeyUp, EventKeyDown, "keypress":
		return true
	}
	return false
}
