package notify_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/goliatone/go-cba/pkg/clock"
	"github.com/goliatone/go-cba/pkg/dom"
	"github.com/goliatone/go-cba/pkg/identifier"
	"github.com/goliatone/go-cba/pkg/notify"
	"github.com/goliatone/go-cba/pkg/template/gotemplate"
)

func newManager(t *testing.T, clk *clock.Manual, opts ...notify.Option) *notify.Manager {
	t.Helper()
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	base := []notify.Option{
		notify.WithClock(clk),
		notify.WithGenerator(identifier.Sequence("msg")),
		notify.WithLogger(logger),
	}
	m, err := notify.NewManager(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestAddMessagesInsertsElements(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	m := newManager(t, clk)
	doc := dom.MustParseString(`<div id="messages"></div>`)

	ids, err := m.AddMessages(doc, []notify.Message{
		{Type: "success", Text: "Saved"},
		{Type: "error", Text: "Quantity <b>too</b> high"},
	})
	if err != nil {
		t.Fatalf("AddMessages: %v", err)
	}
	if diff := cmp.Diff([]string{"msg-1", "msg-2"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	first := doc.ByID(notify.ElementID("msg-1"))
	if first == nil {
		t.Fatalf("message-msg-1 not inserted: %s", doc.String())
	}
	for _, class := range []string{"ui", "large", "success", "message"} {
		if !dom.HasClass(first, class) {
			t.Errorf("expected class %q on %s", class, dom.OuterHTML(first))
		}
	}
	if got := dom.Text(first); got != "Saved" {
		t.Errorf("text = %q, want Saved", got)
	}

	second := doc.ByID(notify.ElementID("msg-2"))
	if second == nil {
		t.Fatalf("message-msg-2 not inserted")
	}
	if !strings.Contains(dom.OuterHTML(second), "<b>too</b>") {
		t.Errorf("inline markup should survive sanitising: %s", dom.OuterHTML(second))
	}
	if clk.Pending() != 2 {
		t.Fatalf("pending timers = %d, want 2", clk.Pending())
	}
}

func TestMessageLifecycle(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	m := newManager(t, clk)
	doc := dom.MustParseString(`<div id="messages"></div>`)

	if _, err := m.AddMessages(doc, []notify.Message{{Type: "info", Text: "Hello"}}); err != nil {
		t.Fatalf("AddMessages: %v", err)
	}
	el := doc.ByID("message-msg-1")

	clk.Advance(notify.DefaultDelay - time.Millisecond)
	if dom.HasAttr(el, notify.FadingAttr) {
		t.Fatalf("message faded before the delay elapsed")
	}

	clk.Advance(time.Millisecond)
	if !dom.HasAttr(el, notify.FadingAttr) {
		t.Fatalf("message should be fading after the delay")
	}
	if !doc.Contains(el) {
		t.Fatalf("message removed before the fade finished")
	}

	clk.Advance(notify.DefaultFadeDuration)
	if doc.Contains(el) {
		t.Fatalf("message should be removed after the fade")
	}
	if clk.Pending() != 0 {
		t.Fatalf("pending timers = %d, want 0", clk.Pending())
	}
}

func TestMessageTimersAreIndependent(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	m := newManager(t, clk)
	doc := dom.MustParseString(`<div id="messages"></div>`)

	if _, err := m.AddMessages(doc, []notify.Message{{Text: "first"}}); err != nil {
		t.Fatalf("AddMessages: %v", err)
	}
	clk.Advance(time.Second)
	if _, err := m.AddMessages(doc, []notify.Message{{Text: "second"}}); err != nil {
		t.Fatalf("AddMessages: %v", err)
	}

	clk.Advance(2500 * time.Millisecond)
	if doc.ByID("message-msg-1") != nil {
		t.Fatalf("first message should be gone at 3.5s")
	}
	second := doc.ByID("message-msg-2")
	if second == nil || dom.HasAttr(second, notify.FadingAttr) {
		t.Fatalf("second message should still be fully visible at 3.5s")
	}

	clk.Advance(time.Second)
	if doc.ByID("message-msg-2") != nil {
		t.Fatalf("second message should be gone at 4.5s")
	}
}

func TestMissingTypeUsesDefaultSeverity(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	m := newManager(t, clk, notify.WithDefaultSeverity("warning"))
	doc := dom.MustParseString(`<div id="messages"></div>`)

	if _, err := m.AddMessages(doc, []notify.Message{{Text: "heads up"}}); err != nil {
		t.Fatalf("AddMessages: %v", err)
	}
	if el := doc.ByID("message-msg-1"); !dom.HasClass(el, "warning") {
		t.Fatalf("expected warning class: %s", doc.String())
	}
}

func TestScriptsAreStripped(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	m := newManager(t, clk)
	doc := dom.MustParseString(`<div id="messages"></div>`)

	if _, err := m.AddMessages(doc, []notify.Message{{Type: "error", Text: `<script>alert(1)</script>Oops`}}); err != nil {
		t.Fatalf("AddMessages: %v", err)
	}
	out := doc.String()
	if strings.Contains(out, "<script") {
		t.Fatalf("script survived sanitising: %s", out)
	}
	if got := dom.Text(doc.ByID("message-msg-1")); got != "Oops" {
		t.Fatalf("text = %q, want Oops", got)
	}
}

func TestSeverityIsReducedToClassToken(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	m := newManager(t, clk)
	doc := dom.MustParseString(`<div id="messages"></div>`)

	if _, err := m.AddMessages(doc, []notify.Message{{Type: `x" onclick="y`, Text: "hi"}}); err != nil {
		t.Fatalf("AddMessages: %v", err)
	}
	el := doc.ByID("message-msg-1")
	if dom.HasAttr(el, "onclick") {
		t.Fatalf("severity escaped the class attribute: %s", dom.OuterHTML(el))
	}
}

func TestMissingContainer(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	m := newManager(t, clk)
	doc := dom.MustParseString(`<div id="elsewhere"></div>`)

	_, err := m.AddMessages(doc, []notify.Message{{Text: "lost"}})
	if !errors.Is(err, notify.ErrNoContainer) {
		t.Fatalf("expected ErrNoContainer, got %v", err)
	}
	if clk.Pending() != 0 {
		t.Fatalf("no timers should be scheduled without a container")
	}
}

func TestEmptyMessagesIsNoop(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	m := newManager(t, clk)
	doc := dom.MustParseString(`<div id="elsewhere"></div>`)

	ids, err := m.AddMessages(doc, nil)
	if err != nil || ids != nil {
		t.Fatalf("expected no-op, got ids=%v err=%v", ids, err)
	}
}

func TestRemovalAfterContainerReplaced(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	m := newManager(t, clk)
	doc := dom.MustParseString(`<section id="page"><div id="messages"></div></section>`)

	if _, err := m.AddMessages(doc, []notify.Message{{Text: "bye"}}); err != nil {
		t.Fatalf("AddMessages: %v", err)
	}
	if _, err := doc.Replace(doc.ByID("page"), `<section id="page"><div id="messages"></div></section>`); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	clk.Advance(notify.DefaultDelay + notify.DefaultFadeDuration)
	if doc.ByID("message-msg-1") != nil {
		t.Fatalf("detached message should not reappear")
	}
}

func TestCustomDurations(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	m := newManager(t, clk, notify.WithDelay(100*time.Millisecond), notify.WithFadeDuration(10*time.Millisecond))
	doc := dom.MustParseString(`<div id="messages"></div>`)

	if _, err := m.AddMessages(doc, []notify.Message{{Text: "quick"}}); err != nil {
		t.Fatalf("AddMessages: %v", err)
	}
	clk.Advance(110 * time.Millisecond)
	if doc.ByID("message-msg-1") != nil {
		t.Fatalf("message should be gone after 110ms")
	}
}

func TestRunnerGuardsTimerCallbacks(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	runner := &countingRunner{}
	m := newManager(t, clk, notify.WithRunner(runner))
	doc := dom.MustParseString(`<div id="messages"></div>`)

	if _, err := m.AddMessages(doc, []notify.Message{{Text: "counted"}}); err != nil {
		t.Fatalf("AddMessages: %v", err)
	}
	clk.Advance(notify.DefaultDelay + notify.DefaultFadeDuration)
	if runner.calls != 2 {
		t.Fatalf("runner calls = %d, want 2 (fade and remove)", runner.calls)
	}
}

type countingRunner struct {
	calls int
}

func (r *countingRunner) Run(fn func()) {
	r.calls++
	fn()
}

func TestGoTemplateRendererBuildsMessages(t *testing.T) {
	engine, err := gotemplate.NewKind(gotemplate.KindGoTemplate, "", notify.TemplatesFS())
	if err != nil {
		t.Fatalf("NewKind: %v", err)
	}
	clk := clock.NewManual(time.Unix(0, 0))
	m := newManager(t, clk, notify.WithRenderer(engine, notify.MessageTemplate))
	doc := dom.MustParseString(`<div id="messages"></div>`)

	if _, err := m.AddMessages(doc, []notify.Message{{Type: " Positive Note!", Text: "Saved <b>now</b>"}}); err != nil {
		t.Fatalf("AddMessages: %v", err)
	}
	el := doc.ByID("message-msg-1")
	if el == nil {
		t.Fatalf("message not inserted: %s", doc.String())
	}
	for _, class := range []string{"ui", "large", "positive-note", "message"} {
		if !dom.HasClass(el, class) {
			t.Errorf("expected class %q on %s", class, dom.OuterHTML(el))
		}
	}
	if !strings.Contains(dom.OuterHTML(el), "<b>now</b>") {
		t.Errorf("inline markup lost: %s", dom.OuterHTML(el))
	}
}

func TestDefaultRunnerIsThread(t *testing.T) {
	m, err := notify.NewManager()
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, ok := m.Runner().(*dom.Thread); !ok {
		t.Fatalf("default runner = %T, want *dom.Thread", m.Runner())
	}
}
