// Package cba is the client runtime of a server-driven UI protocol. Elements
// declare handlers in attributes; server handlers post the page components
// and apply the returned patches and messages, client handlers run actions
// registered by the host application.
//
// New wires every component from a config.Config; the subpackages can also
// be composed directly.
package cba

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-cba/pkg/actions"
	"github.com/goliatone/go-cba/pkg/clock"
	"github.com/goliatone/go-cba/pkg/config"
	"github.com/goliatone/go-cba/pkg/dispatch"
	"github.com/goliatone/go-cba/pkg/dom"
	"github.com/goliatone/go-cba/pkg/identifier"
	"github.com/goliatone/go-cba/pkg/notify"
	"github.com/goliatone/go-cba/pkg/patch"
	"github.com/goliatone/go-cba/pkg/payload"
	"github.com/goliatone/go-cba/pkg/template/gotemplate"
	"github.com/goliatone/go-cba/pkg/transport"
)

// Runtime aliases dispatch.Runtime for callers using the root package.
type Runtime = dispatch.Runtime

// Event aliases dispatch.Event.
type Event = dispatch.Event

// Message aliases notify.Message.
type Message = notify.Message

// Config aliases config.Config.
type Config = config.Config

// NewEvent builds an event; see dispatch.NewEvent.
var NewEvent = dispatch.NewEvent

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return config.Default()
}

// Option overrides a collaborator New would otherwise build from config.
type Option func(*settings)

type settings struct {
	client     transport.Client
	httpClient *http.Client
	clock      clock.Clock
	runner     dom.Runner
	ids        identifier.Generator
	registry   *actions.Registry
	logger     logrus.FieldLogger
	headers    http.Header
}

// WithTransport replaces the HTTP transport, typically with a test double.
func WithTransport(c transport.Client) Option {
	return func(s *settings) { s.client = c }
}

// WithHTTPClient sets the http.Client used by the HTTP transport.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithHeader adds a header sent by the HTTP transport.
func WithHeader(key, value string) Option {
	return func(s *settings) {
		if s.headers == nil {
			s.headers = make(http.Header)
		}
		s.headers.Add(key, value)
	}
}

// WithClock sets the clock driving message teardown.
func WithClock(c clock.Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithRunner sets the runner guarding the document.
func WithRunner(r dom.Runner) Option {
	return func(s *settings) { s.runner = r }
}

// WithGenerator sets the message identifier generator.
func WithGenerator(g identifier.Generator) Option {
	return func(s *settings) { s.ids = g }
}

// WithRegistry sets the client action registry. Built-in actions are added
// to it unless their names are taken.
func WithRegistry(reg *actions.Registry) Option {
	return func(s *settings) { s.registry = reg }
}

// WithLogger overrides the logger built from config.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *settings) { s.logger = logger }
}

// New validates cfg and builds a Runtime for doc.
func New(doc *dom.Document, cfg Config, opts ...Option) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := settings{}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	if s.logger == nil {
		s.logger = cfg.Logger()
	}
	if s.runner == nil {
		s.runner = dom.NewThread()
	}
	if s.registry == nil {
		s.registry = actions.NewRegistry()
	}
	actions.RegisterBuiltins(s.registry)

	serializer, err := payload.NewSerializer(
		payload.WithSelector(cfg.ComponentSelector),
		payload.WithLogger(s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("cba: serializer: %w", err)
	}

	policy, _ := patch.ParsePolicy(cfg.PatchPolicy)
	applier := patch.NewApplier(
		patch.WithMarker(cfg.MarkerClass),
		patch.WithPolicy(policy),
		patch.WithLogger(s.logger),
	)

	kind, _ := gotemplate.ParseKind(cfg.Templates.Engine)
	renderer, err := gotemplate.NewKind(kind, cfg.Templates.Dir, notify.TemplatesFS())
	if err != nil {
		return nil, fmt.Errorf("cba: templates: %w", err)
	}

	manager, err := notify.NewManager(
		notify.WithRenderer(renderer, notify.MessageTemplate),
		notify.WithContainer(cfg.MessagesContainer),
		notify.WithDelay(cfg.MessageDelay),
		notify.WithFadeDuration(cfg.FadeDuration),
		notify.WithRunner(s.runner),
		notify.WithClock(s.clock),
		notify.WithGenerator(s.ids),
		notify.WithLogger(s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("cba: notifications: %w", err)
	}

	client := s.client
	if client == nil && cfg.Endpoint != "" {
		client, err = newHTTPClient(cfg, s)
		if err != nil {
			return nil, err
		}
	}

	race, _ := dispatch.ParseRacePolicy(cfg.RacePolicy)
	dispatchOpts := []dispatch.Option{
		dispatch.WithRunner(s.runner),
		dispatch.WithSerializer(serializer),
		dispatch.WithPatcher(applier),
		dispatch.WithNotifier(manager),
		dispatch.WithRegistry(s.registry),
		dispatch.WithRacePolicy(race),
		dispatch.WithEvents(cfg.Events...),
		dispatch.WithCSRFToken(cfg.CSRF.Field, cfg.CSRF.Token),
		dispatch.WithLogger(s.logger),
	}
	if client != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithTransport(client))
	}
	if cfg.CSRF.FromDocument {
		dispatchOpts = append(dispatchOpts, dispatch.WithCSRFFromDocument(cfg.CSRF.Field))
	}
	return dispatch.New(doc, dispatchOpts...)
}

func newHTTPClient(cfg Config, s settings) (*transport.HTTPClient, error) {
	encoding, _ := transport.ParseEncoding(cfg.Encoding)
	dialect, _ := transport.ParseDialect(cfg.Dialect)
	httpClient := s.httpClient
	if httpClient == nil && cfg.Timeout > 0 {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	opts := []transport.Option{
		transport.WithEncoding(encoding),
		transport.WithDialect(dialect),
		transport.WithDefaultSeverity(cfg.DefaultSeverity),
		transport.WithHTTPClient(httpClient),
		transport.WithLogger(s.logger),
	}
	for key, values := range s.headers {
		for _, value := range values {
			opts = append(opts, transport.WithHeader(key, value))
		}
	}
	client, err := transport.NewHTTPClient(cfg.Endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("cba: transport: %w", err)
	}
	return client, nil
}
