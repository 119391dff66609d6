// Package payload turns the component state of a document into the ordered
// key/value/file multimap sent to the server, and encodes or decodes that
// multimap on the wire (multipart/form-data or urlencoded).
package payload
