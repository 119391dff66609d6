package gotemplate

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/flosch/pongo2/v6"
	gotemplatepkg "github.com/goliatone/go-template"

	"github.com/goliatone/go-cba/pkg/template"
)

// Kind names a template engine.
type Kind string

const (
	// KindPongo2 is the in-package pongo2 set. It is the default.
	KindPongo2 Kind = "pongo2"
	// KindGoTemplate is the github.com/goliatone/go-template renderer.
	KindGoTemplate Kind = "go-template"
)

// ErrUnknownKind is returned for an engine name ParseKind does not know.
var ErrUnknownKind = errors.New("gotemplate: unknown engine")

var _ template.TemplateRenderer = (*gotemplatepkg.Engine)(nil)

// ParseKind maps a configuration value to a Kind. Empty means KindPongo2.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", KindPongo2:
		return KindPongo2, nil
	case KindGoTemplate:
		return KindGoTemplate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// NewStandard builds a go-template renderer that also knows the classname
// filter the message templates use.
func NewStandard(opts ...gotemplatepkg.Option) (*gotemplatepkg.Engine, error) {
	all := append([]gotemplatepkg.Option{
		gotemplatepkg.WithTemplateFunc(map[string]any{
			"classname": pongo2.FilterFunction(filterClassName),
		}),
	}, opts...)
	engine, err := gotemplatepkg.NewRenderer(all...)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: go-template renderer: %w", err)
	}
	return engine, nil
}

// NewKind builds the engine named by kind. Templates found under dir take
// precedence over files; either may be empty but not both.
func NewKind(kind Kind, dir string, files fs.FS) (template.TemplateRenderer, error) {
	dir = strings.TrimSpace(dir)
	switch kind {
	case KindGoTemplate:
		var opts []gotemplatepkg.Option
		if dir != "" {
			opts = append(opts, gotemplatepkg.WithBaseDir(dir))
		}
		if files != nil {
			opts = append(opts, gotemplatepkg.WithFS(files))
		}
		engine, err := NewStandard(opts...)
		if err != nil {
			return nil, err
		}
		return engine, nil
	case KindPongo2, "":
		engine, err := New(WithBaseDir(dir), WithFS(files))
		if err != nil {
			return nil, err
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
