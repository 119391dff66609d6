package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/goliatone/go-cba/pkg/clock"
	"github.com/goliatone/go-cba/pkg/dom"
	"github.com/goliatone/go-cba/pkg/identifier"
	"github.com/goliatone/go-cba/pkg/template"
	"github.com/goliatone/go-cba/pkg/template/gotemplate"
)

// Defaults for the message lifecycle.
const (
	DefaultDelay        = 3000 * time.Millisecond
	DefaultFadeDuration = 500 * time.Millisecond
	DefaultContainer    = "#messages"
	DefaultSeverity     = "info"
	// FadingAttr marks a message element that entered the fade phase.
	FadingAttr = "data-fading"
	// ElementPrefix prefixes the generated id of every message element.
	ElementPrefix = "message-"
)

// ErrNoContainer is returned when the document has no messages container.
var ErrNoContainer = errors.New("notify: messages container not found")

// Message is a severity tag plus display text.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ElementID returns the element id used for a message identifier.
func ElementID(id string) string {
	return ElementPrefix + id
}

// Manager inserts message elements and schedules their removal.
type Manager struct {
	ids       identifier.Generator
	clock     clock.Clock
	runner    dom.Runner
	renderer  template.TemplateRenderer
	template  string
	sanitizer Sanitizer
	container string
	severity  string
	delay     time.Duration
	fade      time.Duration
	logger    logrus.FieldLogger
}

// Option configures a Manager.
type Option func(*Manager)

// WithGenerator sets the identifier generator.
func WithGenerator(gen identifier.Generator) Option {
	return func(m *Manager) {
		if gen != nil {
			m.ids = gen
		}
	}
}

// WithClock sets the clock used for teardown timers.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithRunner sets the runner timer callbacks execute on. It must be the
// runner that guards the document passed to AddMessages.
func WithRunner(r dom.Runner) Option {
	return func(m *Manager) {
		if r != nil {
			m.runner = r
		}
	}
}

// WithRenderer replaces the template renderer and the template name used
// for message markup.
func WithRenderer(renderer template.TemplateRenderer, name string) Option {
	return func(m *Manager) {
		if renderer != nil {
			m.renderer = renderer
		}
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			m.template = trimmed
		}
	}
}

// WithSanitizer replaces the policy applied to message text.
func WithSanitizer(s Sanitizer) Option {
	return func(m *Manager) {
		if s != nil {
			m.sanitizer = s
		}
	}
}

// WithContainer sets the selector of the messages container.
func WithContainer(selector string) Option {
	return func(m *Manager) {
		if trimmed := strings.TrimSpace(selector); trimmed != "" {
			m.container = trimmed
		}
	}
}

// WithDefaultSeverity sets the severity used for messages without a type.
func WithDefaultSeverity(severity string) Option {
	return func(m *Manager) {
		if trimmed := strings.TrimSpace(severity); trimmed != "" {
			m.severity = trimmed
		}
	}
}

// WithDelay sets how long a message stays fully visible.
func WithDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.delay = d
		}
	}
}

// WithFadeDuration sets the length of the fade phase.
func WithFadeDuration(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.fade = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager builds a Manager. Without WithRenderer the embedded message
// template is used. Without WithRunner the manager guards its timers with
// a Thread of its own, so AddMessages must not be called from inside it.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		ids:       identifier.Default(),
		clock:     clock.Real{},
		runner:    dom.NewThread(),
		template:  MessageTemplate,
		sanitizer: defaultSanitizer(),
		container: DefaultContainer,
		severity:  DefaultSeverity,
		delay:     DefaultDelay,
		fade:      DefaultFadeDuration,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}
	if m.renderer == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(TemplatesFS()))
		if err != nil {
			return nil, fmt.Errorf("notify: build template engine: %w", err)
		}
		m.renderer = engine
	}
	return m, nil
}

// Runner returns the runner timer callbacks execute on.
func (m *Manager) Runner() dom.Runner {
	return m.runner
}

// Delay returns the visible phase duration.
func (m *Manager) Delay() time.Duration {
	return m.delay
}

// FadeDuration returns the fade phase duration.
func (m *Manager) FadeDuration() time.Duration {
	return m.fade
}

// Render returns the markup for a single message.
func (m *Manager) Render(id string, msg Message) (string, error) {
	severity := strings.TrimSpace(msg.Type)
	if severity == "" {
		severity = m.severity
	}
	out, err := m.renderer.Render(m.template, map[string]any{
		"id":   id,
		"type": severity,
		"text": sanitizeText(m.sanitizer, msg.Text),
	})
	if err != nil {
		return "", fmt.Errorf("notify: render message: %w", err)
	}
	return out, nil
}

// AddMessages inserts one element per message into the container and
// schedules each removal. It must run on the manager's runner; the returned
// identifiers are in message order.
func (m *Manager) AddMessages(doc *dom.Document, messages []Message) ([]string, error) {
	if len(messages) == 0 {
		return nil, nil
	}
	container, err := doc.Query(m.container)
	if err != nil {
		return nil, fmt.Errorf("notify: container selector: %w", err)
	}
	if container == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoContainer, m.container)
	}

	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		id := m.ids.New()
		markup, err := m.Render(id, msg)
		if err != nil {
			return ids, err
		}
		nodes, err := doc.Append(container, markup)
		if err != nil {
			return ids, fmt.Errorf("notify: insert message: %w", err)
		}
		element := findElement(nodes, ElementID(id))
		if element == nil {
			return ids, fmt.Errorf("notify: template produced no element with id %q", ElementID(id))
		}
		ids = append(ids, id)
		m.logger.WithFields(logrus.Fields{"message_id": id, "type": msg.Type}).Debug("notify: message added")
		m.schedule(doc, element, id)
	}
	return ids, nil
}

func (m *Manager) schedule(doc *dom.Document, element *html.Node, id string) {
	m.clock.AfterFunc(m.delay, func() {
		m.runner.Run(func() {
			if !doc.Contains(element) {
				return
			}
			dom.SetAttr(element, FadingAttr, "true")
			dom.SetAttr(element, "style", fmt.Sprintf("opacity: 0; transition: opacity %dms", m.fade.Milliseconds()))
		})
		m.clock.AfterFunc(m.fade, func() {
			m.runner.Run(func() {
				if doc.Remove(element) {
					m.logger.WithField("message_id", id).Debug("notify: message removed")
				}
			})
		})
	})
}

func findElement(nodes []*html.Node, id string) *html.Node {
	for _, node := range nodes {
		if node.Type == html.ElementNode && dom.ID(node) == id {
			return node
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if found := findElement([]*html.Node{child}, id); found != nil {
				return found
			}
		}
	}
	return nil
}
