package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/goliatone/go-cba/pkg/notify"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Printer writes CLI output. Out carries results, Err carries diagnostics.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// New returns a printer writing to out and errOut; nil writers fall back to
// stdout and stderr.
func New(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{Out: out, Err: errOut}
}

// SeverityColor returns the colour used for a message severity.
func SeverityColor(severity string) *color.Color {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "positive", "success":
		return green
	case "warning":
		return yellow
	case "negative", "error":
		return red
	default:
		return cyan
	}
}

// Message prints a server message prefixed by its severity.
func (p *Printer) Message(msg notify.Message) {
	severity := strings.TrimSpace(msg.Type)
	if severity == "" {
		severity = notify.DefaultSeverity
	}
	SeverityColor(severity).Fprintf(p.Out, "[%s] ", severity)
	fmt.Fprintln(p.Out, msg.Text)
}

// Messages prints every message in order.
func (p *Printer) Messages(msgs []notify.Message) {
	for _, msg := range msgs {
		p.Message(msg)
	}
}

// Success prints a success line in green with a checkmark prefix.
func (p *Printer) Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprintln(p.Out, msg)
}

// Step prints a step line in cyan.
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.Out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Warning prints a warning line in yellow to the error stream.
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.Err, "⚠️  %s\n", fmt.Sprintf(format, a...))
}

// Error prints a formatted error with an explanation and suggestions to
// the error stream and returns an error carrying only the title, so cobra
// can exit non-zero without printing it twice.
func (p *Printer) Error(title, explanation string, suggestions []string) error {
	return p.ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext is Error with key/value details, printed in key order.
func (p *Printer) ErrorWithContext(title, explanation string, context map[string]string, suggestions []string) error {
	red.Fprintf(p.Err, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(p.Err, "%s\n", explanation)
	}
	if len(context) > 0 {
		keys := make([]string, 0, len(context))
		for key := range context {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		fmt.Fprintln(p.Err)
		for _, key := range keys {
			fmt.Fprintf(p.Err, "  %s: %s\n", key, context[key])
		}
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(p.Err)
		if len(suggestions) == 1 {
			fmt.Fprintf(p.Err, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(p.Err, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(p.Err, "  %d. %s\n", i+1, suggestion)
			}
		}
	}
	return fmt.Errorf("%s", title)
}
