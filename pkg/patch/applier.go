package patch

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/goliatone/go-cba/pkg/dom"
)

// Policy decides what happens when an entry cannot be resolved.
type Policy string

const (
	// PolicySkip logs the failure, records it in the result, and continues
	// with the next entry.
	PolicySkip Policy = "skip"
	// PolicyAbort stops at the first unresolved entry and returns
	// ErrUnresolvedTarget. Entries applied before it stay applied.
	PolicyAbort Policy = "abort"
)

// ParsePolicy validates a policy name. Empty input yields PolicySkip.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicySkip:
		return PolicySkip, nil
	case PolicyAbort:
		return PolicyAbort, nil
	default:
		return "", fmt.Errorf("patch: unknown policy %q", raw)
	}
}

// Applied describes an entry that was applied.
type Applied struct {
	Index  int
	Target string
	Nodes  []*html.Node
}

// Skipped describes an entry that could not be resolved.
type Skipped struct {
	Index  int
	Target string
	Err    error
}

// Result reports the outcome of a batch.
type Result struct {
	Applied []Applied
	Skipped []Skipped
}

// Applier replaces document subtrees with patch markup.
type Applier struct {
	marker string
	policy Policy
	logger logrus.FieldLogger
}

// Option configures an Applier.
type Option func(*Applier)

// WithMarker overrides the marker class.
func WithMarker(marker string) Option {
	return func(a *Applier) {
		if trimmed := strings.TrimSpace(marker); trimmed != "" {
			a.marker = trimmed
		}
	}
}

// WithPolicy sets the resolution failure policy.
func WithPolicy(policy Policy) Option {
	return func(a *Applier) {
		if policy != "" {
			a.policy = policy
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(a *Applier) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewApplier returns an Applier using the default marker and PolicySkip
// unless overridden.
func NewApplier(opts ...Option) *Applier {
	a := &Applier{
		marker: DefaultMarker,
		policy: PolicySkip,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a
}

// Marker returns the configured marker class.
func (a *Applier) Marker() string {
	return a.marker
}

// Apply applies entries strictly in order. Every entry is resolved against
// the document as left by the previous entries, so a later entry never
// writes through a reference made stale by an earlier replacement.
func (a *Applier) Apply(doc *dom.Document, entries []Entry) (Result, error) {
	var result Result
	for idx, entry := range entries {
		anchor, err := Resolve(doc, entry, a.marker)
		if err == nil {
			var nodes []*html.Node
			nodes, err = doc.Replace(anchor, entry.Markup)
			if err == nil {
				result.Applied = append(result.Applied, Applied{Index: idx, Target: entry.label(), Nodes: nodes})
				a.logger.WithFields(logrus.Fields{
					"target": entry.label(),
					"anchor": dom.ID(anchor),
				}).Debug("patch: applied entry")
				continue
			}
		}

		log := a.logger.WithFields(logrus.Fields{"target": entry.label(), "index": idx})
		if a.policy == PolicyAbort {
			log.WithError(err).Warn("patch: aborting batch")
			return result, fmt.Errorf("patch: entry %d: %w", idx, err)
		}
		log.WithError(err).Warn("patch: skipping entry")
		result.Skipped = append(result.Skipped, Skipped{Index: idx, Target: entry.label(), Err: err})
	}
	return result, nil
}
