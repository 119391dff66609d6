package payload

import (
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/goliatone/go-cba/pkg/dom"
)

// DefaultSelector matches the elements that take part in serialization.
const DefaultSelector = "input.component, textarea.component, select"

// Serializer walks the components of a document and captures their state.
type Serializer struct {
	selector string
	kinds    *KindRegistry
	logger   logrus.FieldLogger
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithSelector overrides the component selector.
func WithSelector(selector string) Option {
	return func(s *Serializer) {
		if trimmed := strings.TrimSpace(selector); trimmed != "" {
			s.selector = trimmed
		}
	}
}

// WithKindRegistry replaces the kind registry, e.g. to register custom
// widgets.
func WithKindRegistry(kinds *KindRegistry) Option {
	return func(s *Serializer) {
		if kinds != nil {
			s.kinds = kinds
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Serializer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSerializer validates the selector and returns a ready Serializer.
func NewSerializer(opts ...Option) (*Serializer, error) {
	s := &Serializer{
		selector: DefaultSelector,
		kinds:    NewKindRegistry(),
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if err := dom.CompileSelector(s.selector); err != nil {
		return nil, err
	}
	return s, nil
}

// MustSerializer panics when the options are invalid.
func MustSerializer(opts ...Option) *Serializer {
	s, err := NewSerializer(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Serialize captures every component in document order. Components missing
// the attribute their rule keys on are skipped. The document is only read.
func (s *Serializer) Serialize(doc *dom.Document) *Payload {
	out := New()
	if doc == nil {
		return out
	}
	nodes, err := doc.QueryAll(s.selector)
	if err != nil {
		// The selector compiled in NewSerializer; nothing to serialize.
		return out
	}
	for _, node := range nodes {
		s.serializeNode(doc, node, out)
	}
	s.logger.WithField("fields", out.Len()).Debug("payload: serialized components")
	return out
}

// Component is an element taking part in serialization and its resolved
// kind.
type Component struct {
	Node *html.Node
	Kind Kind
}

// Components lists the elements Serialize would visit, in document order.
func (s *Serializer) Components(doc *dom.Document) []Component {
	if doc == nil {
		return nil
	}
	nodes, err := doc.QueryAll(s.selector)
	if err != nil {
		return nil
	}
	out := make([]Component, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, Component{Node: node, Kind: s.kinds.Resolve(node)})
	}
	return out
}

func (s *Serializer) serializeNode(doc *dom.Document, n *html.Node, out *Payload) {
	kind := s.kinds.Resolve(n)
	id := dom.ID(n)

	switch kind {
	case KindFile:
		if id == "" {
			return
		}
		for _, file := range doc.Files(n) {
			out.AddFile(id, file)
		}
	case KindCheckbox, KindRadio:
		name := dom.AttrOr(n, "name", "")
		if name == "" || !dom.Checked(n) {
			return
		}
		if kind == KindRadio {
			// A browser keeps only the last radio checked in the markup.
			out.Set(name, dom.Value(n))
			return
		}
		out.Add(name, dom.Value(n))
	case KindSelectMultiple:
		if id == "" {
			return
		}
		key := ListKey(id)
		for _, value := range dom.SelectedValues(n) {
			out.Add(key, value)
		}
	case KindSelectSingle:
		if id == "" {
			return
		}
		selected := dom.SelectedValues(n)
		if len(selected) == 0 {
			return
		}
		out.Add(id, selected[0])
	default:
		if id == "" {
			return
		}
		out.Add(id, dom.Value(n))
	}
}
