// Package patch applies server-rendered fragments to a document. Each entry
// names a target; the fragment replaces the target, or the nearest ancestor
// carrying the marker class when the target itself is not directly
// replaceable. Resolution is a pure lookup and Applier is the only mutator.
package patch

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-cba/pkg/dom"
)

// DefaultMarker is the class that makes an element directly replaceable.
const DefaultMarker = "render"

// ErrUnresolvedTarget is returned when neither the target nor any of its
// ancestors carries the marker, or the target does not exist.
var ErrUnresolvedTarget = errors.New("patch: target could not be resolved")

// Entry is a single replacement. Target is a reference such as "#panel";
// Node, when set, is used instead of looking Target up.
type Entry struct {
	Target string
	Node   *html.Node
	Markup string
}

// MarshalJSON encodes the entry as the two element wire array
// [target, markup].
func (e Entry) MarshalJSON() ([]byte, error) {
	target := e.Target
	if target == "" && e.Node != nil {
		if id := dom.ID(e.Node); id != "" {
			target = "#" + id
		}
	}
	return json.Marshal([2]string{target, e.Markup})
}

// UnmarshalJSON decodes the [target, markup] wire array.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("patch: decode entry: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("patch: entry must have 2 elements, got %d", len(pair))
	}
	e.Target = pair[0]
	e.Markup = pair[1]
	e.Node = nil
	return nil
}

func (e Entry) label() string {
	if e.Target != "" {
		return e.Target
	}
	if id := dom.ID(e.Node); id != "" {
		return "#" + id
	}
	return "<node>"
}

var idReference = regexp.MustCompile(`^#[A-Za-z0-9_\-:.]+$`)

// Locate finds the element an entry refers to without considering the
// marker. Plain "#id" references are looked up by id so that ids that are
// not valid CSS identifiers (for example UUIDs starting with a digit) still
// resolve.
func Locate(doc *dom.Document, entry Entry) (*html.Node, error) {
	if entry.Node != nil {
		if !doc.Contains(entry.Node) {
			return nil, fmt.Errorf("%w: %s is detached", ErrUnresolvedTarget, entry.label())
		}
		return entry.Node, nil
	}
	target := strings.TrimSpace(entry.Target)
	if target == "" {
		return nil, fmt.Errorf("%w: empty target", ErrUnresolvedTarget)
	}
	var node *html.Node
	if idReference.MatchString(target) {
		node = doc.ByID(target[1:])
	} else {
		found, err := doc.Query(target)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnresolvedTarget, err)
		}
		node = found
	}
	if node == nil {
		return nil, fmt.Errorf("%w: %s not found", ErrUnresolvedTarget, target)
	}
	return node, nil
}

// Resolve returns the element the entry's markup replaces: the target when
// it carries marker, otherwise its nearest marked ancestor.
func Resolve(doc *dom.Document, entry Entry, marker string) (*html.Node, error) {
	if marker == "" {
		marker = DefaultMarker
	}
	node, err := Locate(doc, entry)
	if err != nil {
		return nil, err
	}
	if dom.HasClass(node, marker) {
		return node, nil
	}
	if anchor := dom.ClosestWithClass(node.Parent, marker); anchor != nil {
		return anchor, nil
	}
	return nil, fmt.Errorf("%w: no %q ancestor for %s", ErrUnresolvedTarget, marker, entry.label())
}
