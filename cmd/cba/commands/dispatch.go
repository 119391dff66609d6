package commands

import (
	"time"

	"github.com/spf13/cobra"

	cba "github.com/goliatone/go-cba"
	"github.com/goliatone/go-cba/internal/printer"
	"github.com/goliatone/go-cba/pkg/clock"
	"github.com/goliatone/go-cba/pkg/dispatch"
	"github.com/goliatone/go-cba/pkg/dom"
)

type dispatchFlags struct {
	page      string
	target    string
	event     string
	sets      []string
	source    string
	keyCode   int
	delegate  bool
	output    string
	printPage bool
}

func newDispatchCommand(global *globalFlags, d *deps) *cobra.Command {
	flags := &dispatchFlags{}
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Fire one element event against the endpoint",
		Example: `  cba dispatch --page cart.html --target add --set qty=3
  cba dispatch --page board.html --event drop --target lane-2 --source card-7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(cmd, global, flags, d)
		},
	}
	cmd.Flags().StringVarP(&flags.page, "page", "p", "", "HTML page to load (required)")
	cmd.Flags().StringVarP(&flags.target, "target", "t", "", "id of the element the event fires on (required)")
	cmd.Flags().StringVarP(&flags.event, "event", "e", dispatch.EventClick, "event type")
	cmd.Flags().StringArrayVar(&flags.sets, "set", nil, "set a component before dispatching, as id=value (repeatable)")
	cmd.Flags().StringVar(&flags.source, "source", "", "id of the dragged element for drop events")
	cmd.Flags().IntVar(&flags.keyCode, "key-code", 0, "key code for keyboard events")
	cmd.Flags().BoolVar(&flags.delegate, "delegate", false, "route through the nearest element carrying the event class")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write the patched page to a file")
	cmd.Flags().BoolVar(&flags.printPage, "print-page", false, "print the patched page to stdout")
	_ = cmd.MarkFlagRequired("page")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func runDispatch(cmd *cobra.Command, global *globalFlags, flags *dispatchFlags, d *deps) error {
	p := newPrinter(cmd)

	cfg, err := loadConfig(global)
	if err != nil {
		return p.Error("Invalid configuration", err.Error(), []string{"Check the file passed with --config"})
	}
	doc, err := loadPage(flags.page)
	if err != nil {
		return p.ErrorWithContext("Cannot load page", err.Error(), map[string]string{"page": flags.page}, nil)
	}
	if err := applySets(doc, flags.sets); err != nil {
		return p.Error("Cannot set component", err.Error(), nil)
	}
	target := doc.ByID(flags.target)
	if target == nil {
		return p.ErrorWithContext("Target not found", "The page has no element with that id.",
			map[string]string{"target": flags.target}, nil)
	}

	// One-shot runs print the page with its messages still in place.
	rt, err := newRuntime(cmd, doc, cfg, d, clock.NewManual(time.Now()))
	if err != nil {
		return p.Error("Cannot build runtime", err.Error(), []string{"Pass --endpoint or set endpoint in the config file"})
	}

	ev := cba.NewEvent(flags.event, target)
	ev.KeyCode = flags.keyCode
	if flags.source != "" {
		source := doc.ByID(flags.source)
		if source == nil {
			return p.ErrorWithContext("Drag source not found", "The page has no element with that id.",
				map[string]string{"source": flags.source}, nil)
		}
		ev.Transfer = dispatch.NewTransfer()
		rt.DragStart(&dispatch.Event{Type: dispatch.EventDragStart, Target: source, Transfer: ev.Transfer})
	}

	if err := fire(cmd, p, rt, ev, flags.delegate); err != nil {
		return err
	}
	if flags.output != "" || flags.printPage {
		if err := writePage(cmd.OutOrStdout(), doc, flags.output); err != nil {
			return p.Error("Cannot write page", err.Error(), nil)
		}
		if flags.output != "" {
			p.Success("Page written to %s", flags.output)
		}
	}
	return nil
}

// fire dispatches ev and reports the outcome.
func fire(cmd *cobra.Command, p *printer.Printer, rt *cba.Runtime, ev *cba.Event, delegate bool) error {
	run := rt.Dispatch
	if delegate {
		run = rt.HandleEvent
	}
	p.Step("%s on #%s", ev.Type, dom.ID(ev.Target))
	out, err := run(cmd.Context(), ev)
	if err != nil {
		return p.ErrorWithContext("Dispatch failed", err.Error(), map[string]string{
			"event":  ev.Type,
			"target": dom.ID(ev.Target),
		}, nil)
	}
	if !out.Handled {
		p.Warning("no handler declared for %s on #%s", ev.Type, dom.ID(ev.Target))
		return nil
	}
	if out.Spec.Scope == dispatch.ScopeClient {
		p.Success("ran client action %s", out.Spec.Name)
		return nil
	}
	p.Messages(out.Response.Messages)
	p.Success("%s: %d patch(es) applied, %d skipped", out.Spec.Name, len(out.Patches.Applied), len(out.Patches.Skipped))
	return nil
}
