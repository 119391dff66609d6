// Package identifier produces collision-resistant names for ephemeral
// document elements such as notification messages. Identifiers are random
// version 4 UUIDs; they are never used as durable identities.
package identifier

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator returns a fresh identifier on every call.
type Generator interface {
	New() string
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func() string

// New calls f.
func (f GeneratorFunc) New() string {
	return f()
}

// UUID is the default generator.
type UUID struct{}

// New returns a random version 4 UUID in canonical form.
func (UUID) New() string {
	return uuid.NewString()
}

// Default returns the UUID generator.
func Default() Generator {
	return UUID{}
}

// IsValid reports whether id is a canonical version 4 UUID.
func IsValid(id string) bool {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return len(id) == 36 && parsed.Version() == 4 && parsed.Variant() == uuid.RFC4122
}

// Sequence returns a deterministic generator producing prefix-1, prefix-2...
// It is intended for tests and golden output.
func Sequence(prefix string) Generator {
	var n atomic.Uint64
	return GeneratorFunc(func() string {
		return prefix + "-" + strconv.FormatUint(n.Add(1), 10)
	})
}

