package payload

import (
	"net/url"

	"github.com/goliatone/go-cba/pkg/dom"
)

// ListSuffix marks keys that repeat once per selected value.
const ListSuffix = "[]"

// ListKey returns the repeated-value key for a component id.
func ListKey(id string) string {
	return id + ListSuffix
}

// Field is one entry of a Payload. File is set for file fields, in which case
// Value holds the file name.
type Field struct {
	Name  string
	Value string
	File  *dom.File
}

// IsFile reports whether the field carries a file handle.
func (f Field) IsFile() bool {
	return f.File != nil
}

// Payload is an ordered multimap from field name to values. Repeated names
// keep every value in insertion order. The zero value is ready to use.
type Payload struct {
	fields []Field
}

// New returns an empty payload.
func New() *Payload {
	return &Payload{}
}

// Add appends a scalar value under name.
func (p *Payload) Add(name, value string) {
	p.fields = append(p.fields, Field{Name: name, Value: value})
}

// AddFile appends a file handle under name. The file is not read.
func (p *Payload) AddFile(name string, file dom.File) {
	handle := file
	p.fields = append(p.fields, Field{Name: name, Value: file.Name, File: &handle})
}

// Set replaces every value stored under name with a single value, keeping the
// position of the first occurrence.
func (p *Payload) Set(name, value string) {
	for idx, field := range p.fields {
		if field.Name == name {
			p.fields[idx] = Field{Name: name, Value: value}
			p.fields = append(p.fields[:idx+1], removeName(p.fields[idx+1:], name)...)
			return
		}
	}
	p.Add(name, value)
}

// Del removes every value stored under name.
func (p *Payload) Del(name string) {
	p.fields = removeName(p.fields, name)
}

// Has reports whether name has at least one value.
func (p *Payload) Has(name string) bool {
	for _, field := range p.fields {
		if field.Name == name {
			return true
		}
	}
	return false
}

// Get returns the first scalar value stored under name.
func (p *Payload) Get(name string) string {
	for _, field := range p.fields {
		if field.Name == name && !field.IsFile() {
			return field.Value
		}
	}
	return ""
}

// Values returns every scalar value stored under name in order.
func (p *Payload) Values(name string) []string {
	var out []string
	for _, field := range p.fields {
		if field.Name == name && !field.IsFile() {
			out = append(out, field.Value)
		}
	}
	return out
}

// Files returns every file stored under name in order.
func (p *Payload) Files(name string) []dom.File {
	var out []dom.File
	for _, field := range p.fields {
		if field.Name == name && field.IsFile() {
			out = append(out, *field.File)
		}
	}
	return out
}

// HasFiles reports whether any field carries a file.
func (p *Payload) HasFiles() bool {
	for _, field := range p.fields {
		if field.IsFile() {
			return true
		}
	}
	return false
}

// Fields returns a copy of the entries in order.
func (p *Payload) Fields() []Field {
	return append([]Field(nil), p.fields...)
}

// Names returns the distinct field names in order of first appearance.
func (p *Payload) Names() []string {
	seen := make(map[string]struct{}, len(p.fields))
	var out []string
	for _, field := range p.fields {
		if _, ok := seen[field.Name]; ok {
			continue
		}
		seen[field.Name] = struct{}{}
		out = append(out, field.Name)
	}
	return out
}

// Len returns the number of entries.
func (p *Payload) Len() int {
	return len(p.fields)
}

// Merge appends every entry of other.
func (p *Payload) Merge(other *Payload) {
	if other == nil {
		return
	}
	p.fields = append(p.fields, other.fields...)
}

// Form returns the scalar entries as url.Values. File entries are skipped.
func (p *Payload) Form() url.Values {
	out := make(url.Values)
	for _, field := range p.fields {
		if field.IsFile() {
			continue
		}
		out[field.Name] = append(out[field.Name], field.Value)
	}
	return out
}

func removeName(fields []Field, name string) []Field {
	kept := fields[:0]
	for _, field := range fields {
		if field.Name != name {
			kept = append(kept, field)
		}
	}
	return kept
}
