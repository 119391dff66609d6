package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr returns the value of the attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, attr := range n.Attr {
		if attr.Namespace == "" && strings.EqualFold(attr.Key, key) {
			return attr.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or fallback when it is absent.
func AttrOr(n *html.Node, key, fallback string) string {
	if value, ok := Attr(n, key); ok {
		return value
	}
	return fallback
}

// HasAttr reports whether the attribute is present, whatever its value.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// SetAttr sets or adds an attribute.
func SetAttr(n *html.Node, key, value string) {
	if n == nil || n.Type != html.ElementNode {
		return
	}
	for idx, attr := range n.Attr {
		if attr.Namespace == "" && strings.EqualFold(attr.Key, key) {
			n.Attr[idx].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// RemoveAttr deletes every occurrence of the attribute.
func RemoveAttr(n *html.Node, key string) {
	if n == nil || len(n.Attr) == 0 {
		return
	}
	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		if attr.Namespace == "" && strings.EqualFold(attr.Key, key) {
			continue
		}
		kept = append(kept, attr)
	}
	n.Attr = kept
}

// ID returns the element id, or an empty string.
func ID(n *html.Node) string {
	return AttrOr(n, "id", "")
}

// Tag returns the lower-case element name, or an empty string for non
// element nodes.
func Tag(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.Data)
}

// Classes splits the class attribute.
func Classes(n *html.Node) []string {
	return strings.Fields(AttrOr(n, "class", ""))
}

// HasClass reports whether the class list contains name.
func HasClass(n *html.Node, name string) bool {
	for _, class := range Classes(n) {
		if class == name {
			return true
		}
	}
	return false
}

// AddClass appends name to the class list when missing.
func AddClass(n *html.Node, name string) {
	if n == nil || name == "" || HasClass(n, name) {
		return
	}
	SetAttr(n, "class", strings.TrimSpace(AttrOr(n, "class", "")+" "+name))
}

// RemoveClass drops name from the class list.
func RemoveClass(n *html.Node, name string) {
	if !HasClass(n, name) {
		return
	}
	classes := Classes(n)
	kept := classes[:0]
	for _, class := range classes {
		if class != name {
			kept = append(kept, class)
		}
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// Closest walks from n (inclusive) up to the root and returns the first
// element for which match is true.
func Closest(n *html.Node, match func(*html.Node) bool) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && match(cur) {
			return cur
		}
	}
	return nil
}

// ClosestWithClass is Closest for a class name.
func ClosestWithClass(n *html.Node, class string) *html.Node {
	return Closest(n, func(el *html.Node) bool {
		return HasClass(el, class)
	})
}

// Siblings returns the element siblings of n, excluding n.
func Siblings(n *html.Node) []*html.Node {
	if n == nil || n.Parent == nil {
		return nil
	}
	var out []*html.Node
	for cur := n.Parent.FirstChild; cur != nil; cur = cur.NextSibling {
		if cur != n && cur.Type == html.ElementNode {
			out = append(out, cur)
		}
	}
	return out
}

// Text returns the concatenated text content of the subtree.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	walk(n, func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
	})
	return b.String()
}

// InputType returns the lower-case type of an input element. Inputs without
// a type attribute are text inputs.
func InputType(n *html.Node) string {
	if n == nil || n.DataAtom != atom.Input {
		return ""
	}
	kind := strings.ToLower(strings.TrimSpace(AttrOr(n, "type", "")))
	if kind == "" {
		return "text"
	}
	return kind
}

// Checked reports the checked state of a checkbox or radio input.
func Checked(n *html.Node) bool {
	return HasAttr(n, "checked")
}

// SetChecked toggles the checked state.
func SetChecked(n *html.Node, checked bool) {
	if checked {
		SetAttr(n, "checked", "")
		return
	}
	RemoveAttr(n, "checked")
}

// Multiple reports whether a select allows several selected options.
func Multiple(n *html.Node) bool {
	return HasAttr(n, "multiple")
}

// Value returns the current value of a form control: the value attribute for
// inputs (checkboxes and radios default to "on"), the text of a textarea, and
// the first selected option of a select.
func Value(n *html.Node) string {
	switch Tag(n) {
	case "textarea":
		return Text(n)
	case "select":
		selected := SelectedValues(n)
		if len(selected) == 0 {
			return ""
		}
		return selected[0]
	case "input":
		if value, ok := Attr(n, "value"); ok {
			return value
		}
		switch InputType(n) {
		case "checkbox", "radio":
			return "on"
		}
		return ""
	default:
		return AttrOr(n, "value", "")
	}
}

// SetValue updates the value of a form control. For selects, every option
// whose value equals value becomes the only selected option.
func SetValue(n *html.Node, value string) {
	switch Tag(n) {
	case "textarea":
		for child := n.FirstChild; child != nil; {
			next := child.NextSibling
			n.RemoveChild(child)
			child = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: value})
	case "select":
		SelectValues(n, value)
	default:
		SetAttr(n, "value", value)
	}
}

// Options returns the option elements of a select, including those nested in
// optgroups.
func Options(sel *html.Node) []*html.Node {
	var out []*html.Node
	walk(sel, func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Option {
			out = append(out, n)
		}
	})
	return out
}

// OptionValue returns the value attribute of an option or its trimmed text.
func OptionValue(option *html.Node) string {
	if value, ok := Attr(option, "value"); ok {
		return value
	}
	return strings.TrimSpace(Text(option))
}

// SelectedValues returns the values of the selected options of sel in
// document order. A single-value select reports its last selected option,
// or its first enabled option when none is selected, as browsers do.
func SelectedValues(sel *html.Node) []string {
	options := Options(sel)
	multiple := Multiple(sel)
	var out []string
	for _, option := range options {
		if !HasAttr(option, "selected") {
			continue
		}
		if multiple {
			out = append(out, OptionValue(option))
		} else {
			out = []string{OptionValue(option)}
		}
	}
	if len(out) > 0 || multiple {
		return out
	}
	for _, option := range options {
		if !HasAttr(option, "disabled") {
			return []string{OptionValue(option)}
		}
	}
	return nil
}

// SelectValues marks the options matching values as selected and clears the
// rest. A single-value select keeps only the first match.
func SelectValues(sel *html.Node, values ...string) {
	wanted := make(map[string]struct{}, len(values))
	for _, value := range values {
		wanted[value] = struct{}{}
	}
	picked := false
	for _, option := range Options(sel) {
		_, ok := wanted[OptionValue(option)]
		if ok && (Multiple(sel) || !picked) {
			SetAttr(option, "selected", "")
			picked = true
			continue
		}
		RemoveAttr(option, "selected")
	}
}
