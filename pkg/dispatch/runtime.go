package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/goliatone/go-cba/pkg/actions"
	"github.com/goliatone/go-cba/pkg/dom"
	"github.com/goliatone/go-cba/pkg/notify"
	"github.com/goliatone/go-cba/pkg/patch"
	"github.com/goliatone/go-cba/pkg/payload"
	"github.com/goliatone/go-cba/pkg/transport"
)

// Request fields added to every server dispatch.
const (
	FieldHandler  = "handler"
	FieldEventID  = "event_id"
	FieldSourceID = "source_id"
	FieldKeyCode  = "key_code"
)

var (
	// ErrNoTarget is returned for events without a target element.
	ErrNoTarget = errors.New("dispatch: event has no target")
	// ErrNoTransport is returned when a server handler fires on a runtime
	// built without a transport.
	ErrNoTransport = errors.New("dispatch: no transport configured")
	// ErrRunnerMismatch is returned by New when the notifier schedules its
	// document work on a different runner than the runtime.
	ErrRunnerMismatch = errors.New("dispatch: notifier uses a different runner")
)

// RacePolicy decides what happens to the response of a request that was
// overtaken by a newer one.
type RacePolicy string

const (
	// RaceNone applies every response in arrival order.
	RaceNone RacePolicy = "none"
	// RaceLatest drops responses of superseded requests.
	RaceLatest RacePolicy = "latest"
)

// ParseRacePolicy validates a configured race policy. Empty means none.
func ParseRacePolicy(raw string) (RacePolicy, error) {
	switch RacePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RaceNone:
		return RaceNone, nil
	case RaceLatest:
		return RaceLatest, nil
	default:
		return "", fmt.Errorf("dispatch: unknown race policy %q", raw)
	}
}

// Serializer collects component values from the document.
type Serializer interface {
	Serialize(doc *dom.Document) *payload.Payload
}

// Patcher applies response patches.
type Patcher interface {
	Apply(doc *dom.Document, entries []patch.Entry) (patch.Result, error)
}

// Notifier shows response messages.
type Notifier interface {
	AddMessages(doc *dom.Document, messages []notify.Message) ([]string, error)
}

// runnerBound is implemented by notifiers that touch the document later,
// from timers, through a runner.
type runnerBound interface {
	Runner() dom.Runner
}

// Outcome describes what a dispatch did.
type Outcome struct {
	Handled    bool
	Spec       HandlerSpec
	Payload    *payload.Payload
	Response   transport.Response
	Patches    patch.Result
	MessageIDs []string
	// Superseded is set when the response was dropped by RaceLatest.
	Superseded bool
}

// Result is delivered by DispatchAsync.
type Result struct {
	Outcome Outcome
	Err     error
}

// Runtime wires the serializer, transport, patch applier, notification
// manager and action registry around one document. Document work runs on
// the runner; Dispatch must not be called from inside that runner.
type Runtime struct {
	doc        *dom.Document
	runner     dom.Runner
	serializer Serializer
	client     transport.Client
	patcher    Patcher
	notifier   Notifier
	registry   *actions.Registry
	hiddenSet  map[string]string
	hidden     []payload.HiddenField
	csrfField  string
	csrfLookup bool
	race       RacePolicy
	events     map[string]struct{}
	logger     logrus.FieldLogger

	seq atomic.Uint64
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithRunner sets the runner guarding the document.
func WithRunner(r dom.Runner) Option {
	return func(rt *Runtime) {
		if r != nil {
			rt.runner = r
		}
	}
}

// WithSerializer replaces the payload serializer.
func WithSerializer(s Serializer) Option {
	return func(rt *Runtime) {
		if s != nil {
			rt.serializer = s
		}
	}
}

// WithTransport sets the client used by server handlers.
func WithTransport(c transport.Client) Option {
	return func(rt *Runtime) {
		if c != nil {
			rt.client = c
		}
	}
}

// WithPatcher replaces the patch applier.
func WithPatcher(p Patcher) Option {
	return func(rt *Runtime) {
		if p != nil {
			rt.patcher = p
		}
	}
}

// WithNotifier replaces the notification manager. A notifier exposing its
// runner, such as *notify.Manager, must share the runtime's runner; New
// fails with ErrRunnerMismatch otherwise. Runners are compared with ==.
func WithNotifier(n Notifier) Option {
	return func(rt *Runtime) {
		if n != nil {
			rt.notifier = n
		}
	}
}

// WithRegistry sets the client action registry.
func WithRegistry(reg *actions.Registry) Option {
	return func(rt *Runtime) {
		if reg != nil {
			rt.registry = reg
		}
	}
}

// WithHiddenFields adds fields sent with every server dispatch. A name
// given more than once keeps its last value; fields are sent sorted by name.
func WithHiddenFields(fields ...payload.HiddenField) Option {
	return func(rt *Runtime) {
		rt.hiddenSet = payload.MergeHiddenFields(rt.hiddenSet, fields...)
	}
}

// WithCSRFToken sends token under field (DefaultCSRFField when empty).
// An empty token is ignored.
func WithCSRFToken(field, token string) Option {
	return func(rt *Runtime) {
		if strings.TrimSpace(token) == "" {
			return
		}
		rt.hiddenSet = payload.MergeHiddenFields(rt.hiddenSet, payload.CSRFToken(field, token))
	}
}

// WithCSRFFromDocument reads the token from the page input named field on
// every dispatch. An explicit WithCSRFToken for the same field wins.
func WithCSRFFromDocument(field string) Option {
	return func(rt *Runtime) {
		rt.csrfLookup = true
		rt.csrfField = strings.TrimSpace(field)
	}
}

// WithRacePolicy sets the race policy.
func WithRacePolicy(p RacePolicy) Option {
	return func(rt *Runtime) {
		if p != "" {
			rt.race = p
		}
	}
}

// WithEvents replaces the event classes bound by HandleEvent.
func WithEvents(events ...string) Option {
	return func(rt *Runtime) {
		bound := make(map[string]struct{}, len(events))
		for _, ev := range events {
			if trimmed := strings.ToLower(strings.TrimSpace(ev)); trimmed != "" {
				bound[trimmed] = struct{}{}
			}
		}
		if len(bound) > 0 {
			rt.events = bound
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// New builds a Runtime for doc. Missing collaborators get defaults, except
// the transport: server handlers fail with ErrNoTransport until one is set.
func New(doc *dom.Document, opts ...Option) (*Runtime, error) {
	if doc == nil {
		return nil, errors.New("dispatch: document is required")
	}
	rt := &Runtime{
		doc:    doc,
		runner: dom.NewThread(),
		race:   RaceNone,
		logger: logrus.StandardLogger(),
	}
	rt.events = make(map[string]struct{}, len(DefaultEvents))
	for _, ev := range DefaultEvents {
		rt.events[ev] = struct{}{}
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(rt)
	}
	rt.hidden = payload.SortedHiddenFields(rt.hiddenSet)

	if rt.serializer == nil {
		s, err := payload.NewSerializer(payload.WithLogger(rt.logger))
		if err != nil {
			return nil, err
		}
		rt.serializer = s
	}
	if rt.patcher == nil {
		rt.patcher = patch.NewApplier(patch.WithLogger(rt.logger))
	}
	if rt.notifier == nil {
		n, err := notify.NewManager(notify.WithRunner(rt.runner), notify.WithLogger(rt.logger))
		if err != nil {
			return nil, err
		}
		rt.notifier = n
	} else if bound, ok := rt.notifier.(runnerBound); ok && bound.Runner() != rt.runner {
		return nil, ErrRunnerMismatch
	}
	if rt.registry == nil {
		rt.registry = actions.NewDefaultRegistry()
	}
	return rt, nil
}

// Document returns the document the runtime works on.
func (rt *Runtime) Document() *dom.Document {
	return rt.doc
}

// Runner returns the runner guarding the document.
func (rt *Runtime) Runner() dom.Runner {
	return rt.runner
}

// Registry returns the client action registry.
func (rt *Runtime) Registry() *actions.Registry {
	return rt.registry
}

// Bound reports whether HandleEvent delegates eventType.
func (rt *Runtime) Bound(eventType string) bool {
	_, ok := rt.events[strings.ToLower(strings.TrimSpace(eventType))]
	return ok
}

// HandleEvent delegates ev to the nearest element, starting at the target,
// that carries the event type as a class. Unbound event types and targets
// outside any such element are ignored.
func (rt *Runtime) HandleEvent(ctx context.Context, ev *Event) (Outcome, error) {
	if ev == nil || ev.Target == nil {
		return Outcome{}, ErrNoTarget
	}
	eventType := normalizeEventType(ev.Type)
	if !rt.Bound(eventType) {
		return Outcome{}, nil
	}
	var bound *html.Node
	rt.runner.Run(func() {
		bound = dom.ClosestWithClass(ev.Target, eventType)
	})
	if bound == nil {
		return Outcome{}, nil
	}
	ev.PreventDefault()
	return rt.Dispatch(ctx, &Event{
		Type:     eventType,
		Target:   bound,
		Transfer: ev.Transfer,
		KeyCode:  ev.KeyCode,
	})
}

// DragStart records the dragged element id in the event transfer so the
// matching drop can report it as source_id.
func (rt *Runtime) DragStart(ev *Event) {
	if ev == nil || ev.Target == nil || ev.Transfer == nil {
		return
	}
	var id string
	rt.runner.Run(func() {
		id = dom.ID(ev.Target)
	})
	ev.Transfer.SetData(TransferFormat, id)
}

// DispatchAsync runs Dispatch on its own goroutine.
func (rt *Runtime) DispatchAsync(ctx context.Context, ev *Event) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		outcome, err := rt.Dispatch(ctx, ev)
		out <- Result{Outcome: outcome, Err: err}
		close(out)
	}()
	return out
}

// Dispatch resolves the handler spec declared on the event target and runs
// it. Missing or malformed specs are a silent no-op. Client actions run on
// the runner; server handlers serialize the document, send the payload and
// apply patches before messages.
func (rt *Runtime) Dispatch(ctx context.Context, ev *Event) (Outcome, error) {
	if ev == nil || ev.Target == nil {
		return Outcome{}, ErrNoTarget
	}
	eventType := normalizeEventType(ev.Type)

	var (
		spec HandlerSpec
		ok   bool
	)
	rt.runner.Run(func() {
		spec, ok = SpecFor(ev.Target, eventType)
	})
	if !ok {
		return Outcome{}, nil
	}
	ev.PreventDefault()

	logger := rt.logger.WithFields(logrus.Fields{
		"event":   eventType,
		"handler": spec.String(),
	})

	if spec.Scope == ScopeClient {
		var err error
		rt.runner.Run(func() {
			err = rt.registry.Invoke(spec.Name, ev.Target)
		})
		if err != nil {
			logger.WithError(err).Error("dispatch: client action failed")
			return Outcome{Handled: true, Spec: spec}, fmt.Errorf("dispatch: %s: %w", spec, err)
		}
		return Outcome{Handled: true, Spec: spec}, nil
	}

	return rt.dispatchServer(ctx, ev, eventType, spec, logger)
}

func (rt *Runtime) dispatchServer(ctx context.Context, ev *Event, eventType string, spec HandlerSpec, logger logrus.FieldLogger) (Outcome, error) {
	outcome := Outcome{Handled: true, Spec: spec}
	if rt.client == nil {
		return outcome, ErrNoTransport
	}

	var body *payload.Payload
	rt.runner.Run(func() {
		body = rt.buildPayload(ev, eventType, spec)
	})
	outcome.Payload = body

	seq := rt.seq.Add(1)
	logger = logger.WithFields(logrus.Fields{
		"event_id": body.Get(FieldEventID),
		"seq":      seq,
	})
	logger.WithField("payload", describePayload(body)).Debug("dispatch: sending payload")

	resp, err := rt.client.Send(ctx, body)
	if err != nil {
		logger.WithError(err).Error("dispatch: request failed")
		return outcome, fmt.Errorf("dispatch: %s: %w", spec, err)
	}
	outcome.Response = resp

	var applyErr error
	rt.runner.Run(func() {
		if rt.race == RaceLatest && seq != rt.seq.Load() {
			outcome.Superseded = true
			return
		}
		outcome.Patches, applyErr = rt.patcher.Apply(rt.doc, resp.Patches)
		if applyErr != nil {
			return
		}
		outcome.MessageIDs, applyErr = rt.notifier.AddMessages(rt.doc, resp.Messages)
	})
	if outcome.Superseded {
		logger.Info("dispatch: dropping superseded response")
		return outcome, nil
	}
	if applyErr != nil {
		logger.WithError(applyErr).Error("dispatch: applying response failed")
		return outcome, fmt.Errorf("dispatch: %s: %w", spec, applyErr)
	}
	return outcome, nil
}

func (rt *Runtime) buildPayload(ev *Event, eventType string, spec HandlerSpec) *payload.Payload {
	body := rt.serializer.Serialize(rt.doc)
	body.Add(FieldHandler, spec.Name)
	body.Add(FieldEventID, dom.ID(ev.Target))

	if eventType == EventDrop && ev.Transfer != nil {
		if source, err := ev.Transfer.GetData(TransferFormat); err == nil && source != "" {
			body.Add(FieldSourceID, source)
		} else if err != nil {
			rt.logger.WithError(err).Debug("dispatch: drop without drag source")
		}
	}
	if isKeyboard(eventType) && ev.KeyCode != 0 {
		body.Add(FieldKeyCode, strconv.Itoa(ev.KeyCode))
	}

	if rt.csrfLookup {
		if field, ok := payload.CSRFFromDocument(rt.doc, rt.csrfField); ok {
			body.AddHidden(field)
		}
	}
	body.AddHidden(rt.hidden...)
	return body
}

func describePayload(p *payload.Payload) map[string][]string {
	out := make(map[string][]string, p.Len())
	for _, field := range p.Fields() {
		value := field.Value
		if field.IsFile() {
			value = "file:" + field.File.Name
		}
		out[field.Name] = append(out[field.Name], value)
	}
	return out
}
