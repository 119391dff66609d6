// Package dom is the document adapter the runtime works against. It wraps a
// golang.org/x/net/html node tree with selector queries, form-control state
// helpers, attached file handles, and subtree replacement.
//
// A Document is not safe for concurrent use. Callers serialise access through
// a Runner, which plays the role of the browser UI thread.
package dom
