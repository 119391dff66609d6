package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-cba/internal/prompt"
	"github.com/goliatone/go-cba/pkg/transport"
)

var versionInfo = "dev"

// SetVersionInfo sets the version reported by --version.
func SetVersionInfo(v, c, d string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// Execute builds the root command and runs it against os.Args.
func Execute() error {
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
	return NewRootCommand().Execute()
}

// Option injects collaborators, mostly for tests.
type Option func(*deps)

type deps struct {
	driver    prompt.Driver
	transport transport.Client
}

// WithDriver sets the prompt driver used by the interactive command.
func WithDriver(d prompt.Driver) Option {
	return func(o *deps) { o.driver = d }
}

// WithTransport replaces the HTTP transport.
func WithTransport(c transport.Client) Option {
	return func(o *deps) { o.transport = c }
}

type globalFlags struct {
	configPath string
	endpoint   string
	logLevel   string
}

// NewRootCommand returns a fresh command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	d := &deps{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "cba",
		Short: "cba - terminal client for server-driven pages",
		Long: `cba loads a server-rendered page, lets you change its components and
fire the handlers its elements declare. Server handlers post the page state
to the endpoint and apply the returned patches and messages; client handlers
run the built-in actions.`,
		Version: versionInfo,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors:      true,
		SilenceUsage:       true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&flags.endpoint, "endpoint", "", "endpoint URL (overrides config)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (overrides config)")

	root.AddCommand(
		newDispatchCommand(flags, d),
		newInteractiveCommand(flags, d),
		newRenderCommand(flags),
	)
	return root
}
