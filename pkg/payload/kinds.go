package payload

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/goliatone/go-cba/pkg/dom"
)

// Kind is the semantic type of a component; it decides the serialization
// rule applied to it.
type Kind string

const (
	KindText           Kind = "text"
	KindCheckbox       Kind = "checkbox"
	KindRadio          Kind = "radio"
	KindFile           Kind = "file"
	KindSelectSingle   Kind = "select-single"
	KindSelectMultiple Kind = "select-multiple"
	KindOther          Kind = "other"
)

// KindAttr lets markup force the kind of a component, e.g. a custom widget
// that should serialize like a checkbox.
const KindAttr = "data-kind"

// Matcher decides whether a rule applies to the element.
type Matcher func(n *html.Node) bool

type kindRule struct {
	kind     Kind
	priority int
	match    Matcher
	order    int
}

// KindRegistry resolves component kinds from registered matchers. Higher
// priority wins; ties fall back to registration order. Elements no rule
// matches resolve to KindOther.
type KindRegistry struct {
	mu    sync.RWMutex
	rules []kindRule
}

// NewKindRegistry constructs a registry with the built-in form-control
// matchers registered.
func NewKindRegistry() *KindRegistry {
	reg := &KindRegistry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a matcher for kind.
func (r *KindRegistry) Register(kind Kind, priority int, matcher Matcher) {
	if r == nil || matcher == nil || strings.TrimSpace(string(kind)) == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, kindRule{
		kind:     kind,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the kind of n. An explicit data-kind attribute is honoured
// before matcher evaluation.
func (r *KindRegistry) Resolve(n *html.Node) Kind {
	if explicit := strings.TrimSpace(dom.AttrOr(n, KindAttr, "")); explicit != "" {
		return Kind(strings.ToLower(explicit))
	}
	if r == nil {
		return KindOther
	}
	r.mu.RLock()
	rules := append([]kindRule(nil), r.rules...)
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(n) {
			return entry.kind
		}
	}
	return KindOther
}

func (r *KindRegistry) registerBuiltins() {
	r.Register(KindFile, 90, inputOfType("file"))
	r.Register(KindCheckbox, 80, inputOfType("checkbox"))
	r.Register(KindRadio, 70, inputOfType("radio"))
	r.Register(KindSelectMultiple, 60, func(n *html.Node) bool {
		return dom.Tag(n) == "select" && dom.Multiple(n)
	})
	r.Register(KindSelectSingle, 50, func(n *html.Node) bool {
		return dom.Tag(n) == "select"
	})
	r.Register(KindText, 40, func(n *html.Node) bool {
		return dom.Tag(n) == "textarea"
	})
	r.Register(KindText, 30, func(n *html.Node) bool {
		return dom.Tag(n) == "input"
	})
}

func inputOfType(kind string) Matcher {
	return func(n *html.Node) bool {
		return dom.InputType(n) == kind
	}
}
