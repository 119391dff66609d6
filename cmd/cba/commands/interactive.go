package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	cba "github.com/goliatone/go-cba"
	"github.com/goliatone/go-cba/internal/prompt"
	"github.com/goliatone/go-cba/pkg/clock"
	"github.com/goliatone/go-cba/pkg/dispatch"
	"github.com/goliatone/go-cba/pkg/payload"
)

func newInteractiveCommand(global *globalFlags, d *deps) *cobra.Command {
	var page, output string
	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Edit components and fire handlers from a prompt",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runInteractive(cmd, global, d, page, output)
			if errors.Is(err, prompt.ErrAborted) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&page, "page", "p", "", "HTML page to load (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the final page to a file on exit")
	_ = cmd.MarkFlagRequired("page")
	return cmd
}

func runInteractive(cmd *cobra.Command, global *globalFlags, d *deps, page, output string) error {
	p := newPrinter(cmd)
	ctx := cmd.Context()

	cfg, err := loadConfig(global)
	if err != nil {
		return p.Error("Invalid configuration", err.Error(), []string{"Check the file passed with --config"})
	}
	doc, err := loadPage(page)
	if err != nil {
		return p.ErrorWithContext("Cannot load page", err.Error(), map[string]string{"page": page}, nil)
	}
	rt, err := newRuntime(cmd, doc, cfg, d, clock.Real{})
	if err != nil {
		return p.Error("Cannot build runtime", err.Error(), []string{"Pass --endpoint or set endpoint in the config file"})
	}
	serializer, err := payload.NewSerializer(payload.WithSelector(cfg.ComponentSelector))
	if err != nil {
		return p.Error("Invalid component selector", err.Error(), nil)
	}
	driver := d.driver
	if driver == nil {
		driver = prompt.Survey()
	}

	for {
		edit, err := driver.Confirm(ctx, prompt.ConfirmConfig{Message: "Edit components first?"})
		if err != nil {
			return err
		}
		if edit {
			var components []payload.Component
			rt.Runner().Run(func() { components = serializer.Components(doc) })
			var editErr error
			rt.Runner().Run(func() { editErr = prompt.EditComponents(ctx, driver, doc, components) })
			if editErr != nil {
				if errors.Is(editErr, prompt.ErrAborted) {
					return editErr
				}
				p.Warning("%v", editErr)
			}
		}

		var triggers []prompt.Trigger
		rt.Runner().Run(func() { triggers = prompt.Triggers(doc) })
		trigger, err := prompt.ChooseTrigger(ctx, driver, triggers)
		if err != nil {
			if errors.Is(err, prompt.ErrNoTriggers) {
				return p.Error("Nothing to dispatch", "The page declares no *_handler attributes.", nil)
			}
			return err
		}

		ev := cba.NewEvent(trigger.Event, trigger.Element)
		if trigger.Event == dispatch.EventDrop {
			if err := askDragSource(ctx, driver, rt, ev); err != nil {
				return err
			}
		}
		// Failures are reported and the session continues.
		_ = fire(cmd, p, rt, ev, false)

		again, err := driver.Confirm(ctx, prompt.ConfirmConfig{Message: "Fire another handler?", Default: true})
		if err != nil {
			return err
		}
		if !again {
			break
		}
	}

	if output != "" {
		var writeErr error
		rt.Runner().Run(func() { writeErr = writePage(cmd.OutOrStdout(), doc, output) })
		if writeErr != nil {
			return p.Error("Cannot write page", writeErr.Error(), nil)
		}
		p.Success("Page written to %s", output)
	}
	return nil
}

func askDragSource(ctx context.Context, driver prompt.Driver, rt *cba.Runtime, ev *cba.Event) error {
	id, err := driver.Input(ctx, prompt.InputConfig{
		Message: "Dragged element id",
		Help:    "empty sends the drop without a source",
	})
	if err != nil || id == "" {
		return err
	}
	var source *html.Node
	rt.Runner().Run(func() { source = rt.Document().ByID(id) })
	if source == nil {
		return nil
	}
	ev.Transfer = dispatch.NewTransfer()
	rt.DragStart(&dispatch.Event{Type: dispatch.EventDragStart, Target: source, Transfer: ev.Transfer})
	return nil
}
