package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cba "github.com/goliatone/go-cba"
	"github.com/goliatone/go-cba/internal/printer"
	"github.com/goliatone/go-cba/pkg/clock"
	"github.com/goliatone/go-cba/pkg/config"
	"github.com/goliatone/go-cba/pkg/dom"
	"github.com/goliatone/go-cba/pkg/payload"
)

func newPrinter(cmd *cobra.Command) *printer.Printer {
	return printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if flags.endpoint != "" {
		cfg.Endpoint = flags.endpoint
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, cfg.Validate()
}

func loadPage(path string) (*dom.Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("page path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dom.Parse(f)
}

func newRuntime(cmd *cobra.Command, doc *dom.Document, cfg config.Config, d *deps, clk clock.Clock) (*cba.Runtime, error) {
	logger := cfg.Logger()
	logger.SetOutput(cmd.ErrOrStderr())
	opts := []cba.Option{
		cba.WithLogger(logger),
		cba.WithClock(clk),
	}
	if d.transport != nil {
		opts = append(opts, cba.WithTransport(d.transport))
	}
	return cba.New(doc, cfg, opts...)
}

// applySets writes id=value assignments into the page before a dispatch.
// Checkboxes and radios take a boolean, selects a comma separated list and
// file inputs comma separated paths.
func applySets(doc *dom.Document, sets []string) error {
	kinds := payload.NewKindRegistry()
	for _, set := range sets {
		id, value, ok := strings.Cut(set, "=")
		id = strings.TrimPrefix(strings.TrimSpace(id), "#")
		if !ok || id == "" {
			return fmt.Errorf("invalid --set %q: want id=value", set)
		}
		el := doc.ByID(id)
		if el == nil {
			return fmt.Errorf("--set %q: no element with id %q", set, id)
		}
		switch kinds.Resolve(el) {
		case payload.KindCheckbox, payload.KindRadio:
			checked, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("--set %q: %w", set, err)
			}
			dom.SetChecked(el, checked)
		case payload.KindSelectSingle, payload.KindSelectMultiple:
			dom.SelectValues(el, splitList(value)...)
		case payload.KindFile:
			var files []dom.File
			for _, path := range splitList(value) {
				file, err := dom.FileFromPath(path)
				if err != nil {
					return fmt.Errorf("--set %q: %w", set, err)
				}
				files = append(files, file)
			}
			doc.AttachFiles(el, files...)
		default:
			dom.SetValue(el, value)
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func writePage(w io.Writer, doc *dom.Document, path string) error {
	if path == "" {
		if err := doc.Render(w); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := doc.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
