package prompt

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-cba/pkg/dom"
	"github.com/goliatone/go-cba/pkg/payload"
)

// EditComponents asks for a new value for each component and writes the
// answers back into doc. Radios sharing a name are asked once as a group.
func EditComponents(ctx context.Context, d Driver, doc *dom.Document, components []payload.Component) error {
	askedRadios := make(map[string]struct{})
	for _, c := range components {
		label := componentLabel(c.Node)
		var err error
		switch c.Kind {
		case payload.KindCheckbox:
			err = editCheckbox(ctx, d, c.Node, label)
		case payload.KindRadio:
			name := dom.AttrOr(c.Node, "name", "")
			if _, done := askedRadios[name]; done || name == "" {
				continue
			}
			askedRadios[name] = struct{}{}
			err = editRadioGroup(ctx, d, radioGroup(components, name), name)
		case payload.KindSelectSingle:
			err = editSelect(ctx, d, c.Node, label)
		case payload.KindSelectMultiple:
			err = editMultiSelect(ctx, d, c.Node, label)
		case payload.KindFile:
			err = editFile(ctx, d, doc, c.Node, label)
		default:
			err = editText(ctx, d, c.Node, label)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func componentLabel(n *html.Node) string {
	if id := dom.ID(n); id != "" {
		return id
	}
	if name := dom.AttrOr(n, "name", ""); name != "" {
		return name
	}
	return dom.Tag(n)
}

func editText(ctx context.Context, d Driver, n *html.Node, label string) error {
	value, err := d.Input(ctx, InputConfig{Message: label, Default: dom.Value(n)})
	if err != nil {
		return err
	}
	dom.SetValue(n, value)
	return nil
}

func editCheckbox(ctx context.Context, d Driver, n *html.Node, label string) error {
	checked, err := d.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("%s (%s)", label, dom.Value(n)),
		Default: dom.Checked(n),
	})
	if err != nil {
		return err
	}
	dom.SetChecked(n, checked)
	return nil
}

func radioGroup(components []payload.Component, name string) []*html.Node {
	var out []*html.Node
	for _, c := range components {
		if c.Kind == payload.KindRadio && dom.AttrOr(c.Node, "name", "") == name {
			out = append(out, c.Node)
		}
	}
	return out
}

func editRadioGroup(ctx context.Context, d Driver, radios []*html.Node, name string) error {
	options := make([]string, len(radios))
	current := -1
	for i, radio := range radios {
		options[i] = dom.Value(radio)
		if current < 0 && dom.Checked(radio) {
			current = i
		}
	}
	idx, err := d.Select(ctx, SelectConfig{Message: name, Options: options, DefaultIndex: current})
	if err != nil {
		return err
	}
	for i, radio := range radios {
		dom.SetChecked(radio, i == idx)
	}
	return nil
}

func optionValues(sel *html.Node) []string {
	options := dom.Options(sel)
	out := make([]string, len(options))
	for i, option := range options {
		out[i] = dom.OptionValue(option)
	}
	return out
}

func editSelect(ctx context.Context, d Driver, n *html.Node, label string) error {
	options := optionValues(n)
	if len(options) == 0 {
		return nil
	}
	current := -1
	if selected := dom.SelectedValues(n); len(selected) > 0 {
		current = indexOf(options, selected[0])
	}
	idx, err := d.Select(ctx, SelectConfig{Message: label, Options: options, DefaultIndex: current})
	if err != nil {
		return err
	}
	if idx >= 0 && idx < len(options) {
		dom.SelectValues(n, options[idx])
	}
	return nil
}

func editMultiSelect(ctx context.Context, d Driver, n *html.Node, label string) error {
	options := optionValues(n)
	if len(options) == 0 {
		return nil
	}
	picked, err := d.MultiSelect(ctx, SelectConfig{
		Message:  label,
		Options:  options,
		Defaults: indicesOf(options, dom.SelectedValues(n)),
	})
	if err != nil {
		return err
	}
	dom.SelectValues(n, defaultsFromIndices(options, picked)...)
	return nil
}

func editFile(ctx context.Context, d Driver, doc *dom.Document, n *html.Node, label string) error {
	raw, err := d.Input(ctx, InputConfig{
		Message: label,
		Help:    "comma separated paths, empty keeps the current selection",
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var files []dom.File
	for _, path := range strings.Split(raw, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		file, err := dom.FileFromPath(path)
		if err != nil {
			return fmt.Errorf("prompt: %s: %w", label, err)
		}
		files = append(files, file)
	}
	doc.AttachFiles(n, files...)
	return nil
}
