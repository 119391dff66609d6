package payload

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-cba/pkg/dom"
)

// DefaultCSRFField is the anti-forgery field name the server collaborator
// expects when none is configured.
const DefaultCSRFField = "csrfmiddlewaretoken"

// HiddenField is a name/value pair added to every server dispatch, such as
// the anti-forgery token. Use the helpers to build common fields.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken constructs the anti-forgery field. An empty name falls back to
// DefaultCSRFField.
func CSRFToken(name, token string) HiddenField {
	if strings.TrimSpace(name) == "" {
		name = DefaultCSRFField
	}
	return Hidden(name, token)
}

// CSRFFromDocument reads the anti-forgery token from the hidden input named
// name, the way server-rendered pages expose it. The boolean is false when
// the page carries no such input.
func CSRFFromDocument(doc *dom.Document, name string) (HiddenField, bool) {
	if doc == nil {
		return HiddenField{}, false
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultCSRFField
	}
	inputs, err := doc.QueryAll("input")
	if err != nil {
		return HiddenField{}, false
	}
	var match *html.Node
	for _, input := range inputs {
		if dom.AttrOr(input, "name", "") == name {
			match = input
			break
		}
	}
	if match == nil {
		return HiddenField{}, false
	}
	return CSRFToken(name, dom.AttrOr(match, "value", "")), true
}

// MergeHiddenFields folds fields into a copy of base. Names are trimmed,
// blank names are dropped and the last value for a name wins.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	put := func(name, value string) {
		if name = strings.TrimSpace(name); name != "" {
			out[name] = value
		}
	}
	for name, value := range base {
		put(name, value)
	}
	for _, field := range fields {
		put(field.Name, field.Value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields lists fields ordered by name, so every dispatch
// appends them in the same order.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	var out []HiddenField
	for name, value := range fields {
		if strings.TrimSpace(name) == "" {
			continue
		}
		out = append(out, HiddenField{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AddHidden appends the hidden fields, replacing existing values with the
// same name.
func (p *Payload) AddHidden(fields ...HiddenField) {
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		p.Set(name, field.Value)
	}
}
