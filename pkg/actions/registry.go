// Package actions holds the client-side actions that elements can bind to
// with a "client:<name>" handler spec. The registry is populated by the
// embedding application at startup.
package actions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

var (
	// ErrActionNotFound is returned when a handler spec names an action that
	// was never registered.
	ErrActionNotFound = errors.New("actions: action not found")
	// ErrDuplicateAction is returned when a name is registered twice.
	ErrDuplicateAction = errors.New("actions: action already registered")
)

// Action runs locally with the element that triggered the event.
type Action func(element *html.Node) error

// Registry stores actions by name.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Action),
	}
}

// Register adds an action. Empty names, nil actions, and duplicate names
// are rejected.
func (r *Registry) Register(name string, action Action) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("actions: action name is required")
	}
	if action == nil {
		return fmt.Errorf("actions: action %q is nil", trimmed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[trimmed]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateAction, trimmed)
	}
	r.actions[trimmed] = action
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(name string, action Action) {
	if err := r.Register(name, action); err != nil {
		panic(err)
	}
}

// Lookup retrieves an action by name.
func (r *Registry) Lookup(name string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrActionNotFound, name)
	}
	return action, nil
}

// Invoke looks up name and runs it with element. A missing action fails
// loudly with ErrActionNotFound.
func (r *Registry) Invoke(name string, element *html.Node) error {
	action, err := r.Lookup(name)
	if err != nil {
		return err
	}
	return action(element)
}

// List returns a sorted list of action names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether an action is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.actions[name]
	return ok
}
