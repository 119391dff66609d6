package actions

import (
	"golang.org/x/net/html"

	"github.com/goliatone/go-cba/pkg/dom"
)

// Built-in action names.
const (
	ActionSelectRow            = "selectRow"
	ActionToggleDeleteCheckbox = "toggleDeleteCheckbox"
)

// SelectedClass marks the active row of a table.
const SelectedClass = "selected"

// NewDefaultRegistry returns a registry with the built-in actions.
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()
	RegisterBuiltins(reg)
	return reg
}

// RegisterBuiltins adds the built-in actions, skipping names already taken.
func RegisterBuiltins(reg *Registry) {
	if reg == nil {
		return
	}
	builtins := map[string]Action{
		ActionSelectRow:            SelectRow,
		ActionToggleDeleteCheckbox: ToggleDeleteCheckbox,
	}
	for name, action := range builtins {
		if reg.Has(name) {
			continue
		}
		_ = reg.Register(name, action)
	}
}

// SelectRow marks the closest table row as selected and clears the mark on
// its sibling rows.
func SelectRow(element *html.Node) error {
	row := dom.Closest(element, func(n *html.Node) bool {
		return dom.Tag(n) == "tr"
	})
	if row == nil {
		return nil
	}
	for _, sibling := range dom.Siblings(row) {
		if dom.Tag(sibling) == "tr" {
			dom.RemoveClass(sibling, SelectedClass)
		}
	}
	dom.AddClass(row, SelectedClass)
	return nil
}

// ToggleDeleteCheckbox flips the delete checkbox that sits next to a file
// preview image: the input inside the sibling carrying the "checkbox" class.
func ToggleDeleteCheckbox(element *html.Node) error {
	for _, sibling := range dom.Siblings(element) {
		if !dom.HasClass(sibling, "checkbox") {
			continue
		}
		for child := sibling.FirstChild; child != nil; child = child.NextSibling {
			if dom.Tag(child) == "input" {
				dom.SetChecked(child, !dom.Checked(child))
				return nil
			}
		}
	}
	return nil
}
