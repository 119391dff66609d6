package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ErrDetached is returned when an operation needs a node that is no longer
// part of the document tree.
var ErrDetached = errors.New("dom: node is not attached to the document")

// Document is a mutable HTML tree plus the per-element state a browser keeps
// outside of markup (selected files).
type Document struct {
	root  *html.Node
	files map[*html.Node][]File
}

// New wraps an already parsed tree. A nil root yields an empty document.
func New(root *html.Node) *Document {
	if root == nil {
		root = &html.Node{Type: html.DocumentNode}
	}
	return &Document{
		root:  root,
		files: make(map[*html.Node][]File),
	}
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse document: %w", err)
	}
	return New(root), nil
}

// ParseString is Parse for in-memory markup.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// MustParseString panics when markup cannot be parsed. Useful for fixtures.
func MustParseString(markup string) *Document {
	doc, err := ParseString(markup)
	if err != nil {
		panic(err)
	}
	return doc
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Query returns the first element matching selector in document order, or
// nil when nothing matches.
func (d *Document) Query(selector string) (*html.Node, error) {
	sel, err := compile(selector)
	if err != nil {
		return nil, err
	}
	return sel.MatchFirst(d.root), nil
}

// QueryAll returns every element matching selector in document order.
func (d *Document) QueryAll(selector string) ([]*html.Node, error) {
	sel, err := compile(selector)
	if err != nil {
		return nil, err
	}
	return sel.MatchAll(d.root), nil
}

// ByID returns the first element carrying the given id attribute.
func (d *Document) ByID(id string) *html.Node {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return findFirst(d.root, func(n *html.Node) bool {
		value, ok := Attr(n, "id")
		return ok && value == id
	})
}

// Contains reports whether n is reachable from the document root.
func (d *Document) Contains(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == d.root {
			return true
		}
	}
	return false
}

// Replace swaps target and its whole subtree for the nodes parsed from
// markup. The markup is parsed as a fragment in the context of the target's
// parent. The inserted nodes are returned in order.
func (d *Document) Replace(target *html.Node, markup string) ([]*html.Node, error) {
	if target == nil || target.Parent == nil || !d.Contains(target) {
		return nil, ErrDetached
	}
	parent := target.Parent
	nodes, err := parseFragment(markup, parent)
	if err != nil {
		return nil, err
	}
	for _, node := range nodes {
		parent.InsertBefore(node, target)
	}
	d.forgetFiles(target)
	parent.RemoveChild(target)
	return nodes, nil
}

// Append parses markup in the context of parent and appends the resulting
// nodes as its last children.
func (d *Document) Append(parent *html.Node, markup string) ([]*html.Node, error) {
	if parent == nil || !d.Contains(parent) {
		return nil, ErrDetached
	}
	nodes, err := parseFragment(markup, parent)
	if err != nil {
		return nil, err
	}
	for _, node := range nodes {
		parent.AppendChild(node)
	}
	return nodes, nil
}

// Remove detaches n from the tree. Removing a node that is already detached
// is a no-op and reports false.
func (d *Document) Remove(n *html.Node) bool {
	if n == nil || n.Parent == nil || !d.Contains(n) {
		return false
	}
	d.forgetFiles(n)
	n.Parent.RemoveChild(n)
	return true
}

// AttachFiles records the files selected on a file input, replacing any
// previous selection. Files are kept as handles; nothing is read here.
func (d *Document) AttachFiles(input *html.Node, files ...File) {
	if input == nil {
		return
	}
	if len(files) == 0 {
		delete(d.files, input)
		return
	}
	d.files[input] = append([]File(nil), files...)
}

// Files returns the files currently selected on input.
func (d *Document) Files(input *html.Node) []File {
	if input == nil {
		return nil
	}
	return d.files[input]
}

// Render writes the whole document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// OuterHTML renders a single node and its subtree.
func OuterHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func (d *Document) forgetFiles(subtree *html.Node) {
	if len(d.files) == 0 {
		return
	}
	walk(subtree, func(n *html.Node) {
		delete(d.files, n)
	})
}

func parseFragment(markup string, context *html.Node) ([]*html.Node, error) {
	ctx := context
	if ctx != nil && ctx.Type != html.ElementNode {
		ctx = nil
	}
	if ctx == nil {
		ctx = &html.Node{Type: html.ElementNode, Data: "body"}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	return nodes, nil
}

var (
	selectorMu    sync.RWMutex
	selectorCache = make(map[string]cascadia.Selector)
)

// CompileSelector validates a CSS selector group. Compiled selectors are
// cached for the life of the process.
func CompileSelector(selector string) error {
	_, err := compile(selector)
	return err
}

func compile(selector string) (cascadia.Selector, error) {
	trimmed := strings.TrimSpace(selector)
	if trimmed == "" {
		return nil, errors.New("dom: selector is required")
	}
	selectorMu.RLock()
	sel, ok := selectorCache[trimmed]
	selectorMu.RUnlock()
	if ok {
		return sel, nil
	}
	sel, err := cascadia.Compile(trimmed)
	if err != nil {
		return nil, fmt.Errorf("dom: compile selector %q: %w", trimmed, err)
	}
	selectorMu.Lock()
	selectorCache[trimmed] = sel
	selectorMu.Unlock()
	return sel, nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, fn)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, match); found != nil {
			return found
		}
	}
	return nil
}
