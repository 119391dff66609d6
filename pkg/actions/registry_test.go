package actions_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-cba/pkg/actions"
	"github.com/goliatone/go-cba/pkg/dom"
)

func TestRegistry_RegisterAndInvoke(t *testing.T) {
	reg := actions.NewRegistry()
	var got *html.Node
	reg.MustRegister("doThing", func(el *html.Node) error {
		got = el
		return nil
	})

	doc := dom.MustParseString(`<button id="b"></button>`)
	button := doc.ByID("b")
	if err := reg.Invoke("doThing", button); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got != button {
		t.Fatalf("expected action to receive the element")
	}
	if !reg.Has("doThing") {
		t.Fatalf("expected action registered")
	}
}

func TestRegistry_MissingActionFailsLoudly(t *testing.T) {
	reg := actions.NewRegistry()
	err := reg.Invoke("doThing", nil)
	if !errors.Is(err, actions.ErrActionNotFound) {
		t.Fatalf("expected ErrActionNotFound, got %v", err)
	}
}

func TestRegistry_RejectsInvalidRegistrations(t *testing.T) {
	reg := actions.NewRegistry()
	noop := func(*html.Node) error { return nil }

	if err := reg.Register(" ", noop); err == nil {
		t.Fatalf("expected empty name error")
	}
	if err := reg.Register("nil", nil); err == nil {
		t.Fatalf("expected nil action error")
	}
	if err := reg.Register("a", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("a", noop); !errors.Is(err, actions.ErrDuplicateAction) {
		t.Fatalf("expected ErrDuplicateAction, got %v", err)
	}
	_ = reg.Register("b", noop)
	if diff := cmp.Diff([]string{"a", "b"}, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectRow_MarksOnlyClickedRow(t *testing.T) {
	doc := dom.MustParseString(`<table><tbody>
<tr id="r1" class="selected"><td>1</td></tr>
<tr id="r2"><td id="cell">2</td></tr>
</tbody></table>`)
	reg := actions.NewDefaultRegistry()

	if err := reg.Invoke(actions.ActionSelectRow, doc.ByID("cell")); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if dom.HasClass(doc.ByID("r1"), actions.SelectedClass) {
		t.Fatalf("expected previous selection cleared")
	}
	if !dom.HasClass(doc.ByID("r2"), actions.SelectedClass) {
		t.Fatalf("expected clicked row selected")
	}
}

func TestToggleDeleteCheckbox(t *testing.T) {
	doc := dom.MustParseString(`<div class="file-input">
<img id="preview" src="a.png"><div class="checkbox"><input id="del" type="checkbox" name="delete-upload[]" value="7"></div>
</div>`)
	reg := actions.NewDefaultRegistry()

	if err := reg.Invoke(actions.ActionToggleDeleteCheckbox, doc.ByID("preview")); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !dom.Checked(doc.ByID("del")) {
		t.Fatalf("expected checkbox checked")
	}
	_ = reg.Invoke(actions.ActionToggleDeleteCheckbox, doc.ByID("preview"))
	if dom.Checked(doc.ByID("del")) {
		t.Fatalf("expected checkbox unchecked again")
	}
}
