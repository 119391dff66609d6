package commands

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-cba/pkg/clock"
	"github.com/goliatone/go-cba/pkg/notify"
	"github.com/goliatone/go-cba/pkg/patch"
	"github.com/goliatone/go-cba/pkg/transport"
)

func newRenderCommand(global *globalFlags) *cobra.Command {
	var page, response, output string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Apply a saved server response to a page without a network call",
		Long: `render decodes a response file in the configured dialect, applies its
patches to the page and inserts its messages, then prints the result. It is
useful to check which regions a response replaces.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, global, page, response, output)
		},
	}
	cmd.Flags().StringVarP(&page, "page", "p", "", "HTML page to load (required)")
	cmd.Flags().StringVarP(&response, "response", "r", "", "JSON response file (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the page to a file instead of stdout")
	_ = cmd.MarkFlagRequired("page")
	_ = cmd.MarkFlagRequired("response")
	return cmd
}

func runRender(cmd *cobra.Command, global *globalFlags, page, response, output string) error {
	p := newPrinter(cmd)

	cfg, err := loadConfig(global)
	if err != nil {
		return p.Error("Invalid configuration", err.Error(), []string{"Check the file passed with --config"})
	}
	doc, err := loadPage(page)
	if err != nil {
		return p.ErrorWithContext("Cannot load page", err.Error(), map[string]string{"page": page}, nil)
	}

	f, err := os.Open(response)
	if err != nil {
		return p.ErrorWithContext("Cannot open response", err.Error(), map[string]string{"response": response}, nil)
	}
	defer f.Close()
	dialect, _ := transport.ParseDialect(cfg.Dialect)
	resp, err := transport.Decode(f, dialect, cfg.DefaultSeverity)
	if err != nil {
		return p.ErrorWithContext("Cannot decode response", err.Error(), map[string]string{
			"response": response,
			"dialect":  string(dialect),
		}, []string{"Set dialect: legacy for plain string messages"})
	}

	logger := cfg.Logger()
	logger.SetOutput(cmd.ErrOrStderr())
	policy, _ := patch.ParsePolicy(cfg.PatchPolicy)
	applier := patch.NewApplier(patch.WithMarker(cfg.MarkerClass), patch.WithPolicy(policy), patch.WithLogger(logger))
	result, err := applier.Apply(doc, resp.Patches)
	if err != nil {
		return p.Error("Patch failed", err.Error(), nil)
	}
	for _, skipped := range result.Skipped {
		p.Warning("skipped %s: %v", skipped.Target, skipped.Err)
	}

	if len(resp.Messages) > 0 {
		manager, err := notify.NewManager(
			notify.WithContainer(cfg.MessagesContainer),
			notify.WithClock(clock.NewManual(time.Now())),
			notify.WithLogger(logger),
		)
		if err != nil {
			return p.Error("Cannot render messages", err.Error(), nil)
		}
		if _, err := manager.AddMessages(doc, resp.Messages); err != nil {
			p.Warning("%v", err)
		}
	}

	if err := writePage(cmd.OutOrStdout(), doc, output); err != nil {
		return p.Error("Cannot write page", err.Error(), nil)
	}
	return nil
}
