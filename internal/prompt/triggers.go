package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-cba/pkg/dispatch"
	"github.com/goliatone/go-cba/pkg/dom"
)

// ErrNoTriggers is returned when the page declares no handlers.
var ErrNoTriggers = errors.New("prompt: page declares no handlers")

// Trigger is one element/event pair declared with a handler attribute.
type Trigger struct {
	Element *html.Node
	Event   string
	Spec    dispatch.HandlerSpec
}

// Label is the text shown for the trigger in a selection list.
func (t Trigger) Label() string {
	target := dom.ID(t.Element)
	if target == "" {
		target = dom.Tag(t.Element)
	} else {
		target = "#" + target
	}
	return fmt.Sprintf("%s %s → %s", target, t.Event, t.Spec)
}

// Triggers lists every well-formed handler attribute in document order.
func Triggers(doc *dom.Document) []Trigger {
	var out []Trigger
	nodes, err := doc.QueryAll("*")
	if err != nil {
		return nil
	}
	for _, n := range nodes {
		for _, attr := range n.Attr {
			event, ok := strings.CutSuffix(attr.Key, dispatch.HandlerSuffix)
			if !ok || event == "" {
				continue
			}
			spec, ok := dispatch.ParseHandlerSpec(attr.Val)
			if !ok {
				continue
			}
			out = append(out, Trigger{Element: n, Event: event, Spec: spec})
		}
	}
	return out
}

// ChooseTrigger asks which trigger to fire.
func ChooseTrigger(ctx context.Context, d Driver, triggers []Trigger) (Trigger, error) {
	if len(triggers) == 0 {
		return Trigger{}, ErrNoTriggers
	}
	labels := make([]string, len(triggers))
	for i, t := range triggers {
		labels[i] = t.Label()
	}
	idx, err := d.Select(ctx, SelectConfig{Message: "Trigger", Options: labels, PageSize: 15})
	if err != nil {
		return Trigger{}, err
	}
	if idx < 0 || idx >= len(triggers) {
		return Trigger{}, fmt.Errorf("prompt: invalid trigger selection %d", idx)
	}
	return triggers[idx], nil
}
