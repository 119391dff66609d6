// Package dispatch routes element events to the server or to a registered
// client action. Elements declare handlers with attributes such as
// click_handler="server:update_cart" or change_handler="client:selectRow".
package dispatch

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-cba/pkg/dom"
)

// Scope says where a handler runs.
type Scope string

const (
	ScopeServer Scope = "server"
	ScopeClient Scope = "client"
)

// HandlerSuffix is appended to the event type to form the attribute name.
const HandlerSuffix = "_handler"

// HandlerSpec is a parsed "<scope>:<name>" attribute value.
type HandlerSpec struct {
	Scope Scope
	Name  string
}

func (s HandlerSpec) String() string {
	return string(s.Scope) + ":" + s.Name
}

// HandlerAttr returns the attribute that declares the handler for eventType.
func HandlerAttr(eventType string) string {
	return strings.ToLower(strings.TrimSpace(eventType)) + HandlerSuffix
}

// ParseHandlerSpec splits raw on the first colon. The boolean is false for
// values without a colon, with an empty name, or with an unknown scope.
func ParseHandlerSpec(raw string) (HandlerSpec, bool) {
	scope, name, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return HandlerSpec{}, false
	}
	spec := HandlerSpec{Scope: Scope(strings.TrimSpace(scope)), Name: strings.TrimSpace(name)}
	if spec.Name == "" {
		return HandlerSpec{}, false
	}
	switch spec.Scope {
	case ScopeServer, ScopeClient:
		return spec, true
	default:
		return HandlerSpec{}, false
	}
}

// SpecFor reads and parses the handler spec declared on element for
// eventType.
func SpecFor(element *html.Node, eventType string) (HandlerSpec, bool) {
	raw, ok := dom.Attr(element, HandlerAttr(eventType))
	if !ok {
		return HandlerSpec{}, false
	}
	return ParseHandlerSpec(raw)
}
