package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-cba/internal/prompt"
	"github.com/goliatone/go-cba/pkg/notify"
	"github.com/goliatone/go-cba/pkg/patch"
	"github.com/goliatone/go-cba/pkg/testsupport"
	"github.com/goliatone/go-cba/pkg/transport"
)

func init() {
	color.NoColor = true
}

func run(t *testing.T, args []string, opts ...Option) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand(opts...)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func cartResponse() transport.Response {
	return transport.Response{
		Patches:  []patch.Entry{{Target: "#qty", Markup: `<div class="render" id="cart"><p id="total">3</p></div>`}},
		Messages: []notify.Message{{Type: "positive", Text: "Cart updated"}},
	}
}

func TestRootShowsHelp(t *testing.T) {
	out, _, err := run(t, []string{})
	require.NoError(t, err)
	assert.Contains(t, out, "dispatch")
	assert.Contains(t, out, "interactive")
	assert.Contains(t, out, "render")
}

func TestRootRejectsUnknownFlag(t *testing.T) {
	_, _, err := run(t, []string{"--bogus"})
	require.Error(t, err)
}

func TestDispatchSendsPageState(t *testing.T) {
	tr := testsupport.NewRecordingTransport(testsupport.Reply{Response: cartResponse()})
	out, _, err := run(t, []string{
		"dispatch", "--page", "testdata/cart.html", "--target", "add",
		"--set", "qty=3", "--set", "gift=true", "--print-page",
	}, WithTransport(tr))
	require.NoError(t, err)

	sent := tr.Last()
	require.NotNil(t, sent)
	assert.Equal(t, "3", sent.Get("qty"))
	assert.Equal(t, "yes", sent.Get("gift"))
	assert.Equal(t, "update_cart", sent.Get("handler"))
	assert.Equal(t, "add", sent.Get("event_id"))

	assert.Contains(t, out, "→ click on #add")
	assert.Contains(t, out, "[positive] Cart updated")
	assert.Contains(t, out, "update_cart: 1 patch(es) applied, 0 skipped")
	assert.Contains(t, out, `<p id="total">3</p>`)
	assert.Contains(t, out, `id="message-`)
}

func TestDispatchAgainstServer(t *testing.T) {
	srv := testsupport.NewServer(t, transport.DialectTyped, testsupport.StaticHandler(cartResponse()))
	out, _, err := run(t, []string{
		"dispatch", "--endpoint", srv.URL, "--page", "testdata/cart.html", "--target", "add",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Cart updated")
}

func TestDispatchDropCarriesSource(t *testing.T) {
	tr := testsupport.NewRecordingTransport()
	_, _, err := run(t, []string{
		"dispatch", "--page", "testdata/cart.html", "--event", "drop", "--target", "lane", "--source", "card",
	}, WithTransport(tr))
	require.NoError(t, err)
	require.NotNil(t, tr.Last())
	assert.Equal(t, "card", tr.Last().Get("source_id"))
	assert.Equal(t, "move", tr.Last().Get("handler"))
}

func TestDispatchWritesOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.html")
	tr := testsupport.NewRecordingTransport(testsupport.Reply{Response: cartResponse()})
	out, _, err := run(t, []string{
		"dispatch", "--page", "testdata/cart.html", "--target", "add", "--output", path,
	}, WithTransport(tr))
	require.NoError(t, err)
	assert.Contains(t, out, "Page written to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<p id="total">3</p>`)
}

func TestDispatchErrors(t *testing.T) {
	tr := testsupport.NewRecordingTransport()
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"missing target", []string{"dispatch", "--page", "testdata/cart.html", "--target", "nope"}, "Target not found"},
		{"missing page", []string{"dispatch", "--page", "testdata/none.html", "--target", "add"}, "Cannot load page"},
		{"bad set", []string{"dispatch", "--page", "testdata/cart.html", "--target", "add", "--set", "qty"}, "Cannot set component"},
		{"bad source", []string{"dispatch", "--page", "testdata/cart.html", "--event", "drop", "--target", "lane", "--source", "x"}, "Drag source not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, errOut, err := run(t, tc.args, WithTransport(tr))
			require.Error(t, err)
			assert.Contains(t, errOut, tc.want)
		})
	}
}

func TestDispatchWithoutEndpointFails(t *testing.T) {
	_, errOut, err := run(t, []string{"dispatch", "--page", "testdata/cart.html", "--target", "add"})
	require.Error(t, err)
	assert.Contains(t, errOut, "Dispatch failed")
}

func TestDispatchUnhandledWarns(t *testing.T) {
	_, errOut, err := run(t, []string{"dispatch", "--page", "testdata/cart.html", "--target", "card"},
		WithTransport(testsupport.NewRecordingTransport()))
	require.NoError(t, err)
	assert.Contains(t, errOut, "no handler declared for click on #card")
}

func TestRenderAppliesResponseFile(t *testing.T) {
	out, errOut, err := run(t, []string{
		"render", "--page", "testdata/cart.html", "--response", "testdata/response.json",
	})
	require.NoError(t, err)
	assert.Contains(t, out, `<p id="total">42</p>`)
	assert.Contains(t, out, "Cart updated")
	assert.Contains(t, errOut, "skipped #missing")
}

func TestRenderLegacyDialectMismatch(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "cba.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("dialect: legacy\n"), 0o644))
	_, errOut, err := run(t, []string{
		"render", "--config", cfgPath, "--page", "testdata/cart.html", "--response", "testdata/response.json",
	})
	require.Error(t, err)
	assert.Contains(t, errOut, "Cannot decode response")
}

// script answers prompts from fixed queues.
type script struct {
	inputs   []string
	confirms []bool
	selects  []int
}

func (s *script) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	if len(s.inputs) == 0 {
		return cfg.Default, nil
	}
	out := s.inputs[0]
	s.inputs = s.inputs[1:]
	return out, nil
}

func (s *script) Confirm(_ context.Context, cfg prompt.ConfirmConfig) (bool, error) {
	if len(s.confirms) == 0 {
		return false, nil
	}
	out := s.confirms[0]
	s.confirms = s.confirms[1:]
	return out, nil
}

func (s *script) Select(_ context.Context, cfg prompt.SelectConfig) (int, error) {
	if len(s.selects) == 0 {
		return cfg.DefaultIndex, nil
	}
	out := s.selects[0]
	s.selects = s.selects[1:]
	return out, nil
}

func (s *script) MultiSelect(_ context.Context, cfg prompt.SelectConfig) ([]int, error) {
	return cfg.Defaults, nil
}

func TestInteractiveEditsAndFires(t *testing.T) {
	tr := testsupport.NewRecordingTransport()
	path := filepath.Join(t.TempDir(), "out.html")
	driver := &script{
		// qty, then the drag source for the second round.
		inputs: []string{"7", "card"},
		// edit, gift, fire another, edit, fire another.
		confirms: []bool{true, true, true, false, false},
		// #add click, then #lane drop.
		selects: []int{0, 1},
	}
	out, _, err := run(t, []string{"interactive", "--page", "testdata/cart.html", "--output", path},
		WithTransport(tr), WithDriver(driver))
	require.NoError(t, err)

	sent := tr.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "7", sent[0].Get("qty"))
	assert.Equal(t, "yes", sent[0].Get("gift"))
	assert.Equal(t, "update_cart", sent[0].Get("handler"))
	assert.Equal(t, "move", sent[1].Get("handler"))
	assert.Equal(t, "card", sent[1].Get("source_id"))
	assert.Equal(t, 2, strings.Count(out, "→ "))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `value="7"`)
}

func TestInteractiveAbortIsClean(t *testing.T) {
	driver := &abortDriver{}
	_, _, err := run(t, []string{"interactive", "--page", "testdata/cart.html"},
		WithTransport(testsupport.NewRecordingTransport()), WithDriver(driver))
	require.NoError(t, err)
}

type abortDriver struct{ script }

func (abortDriver) Confirm(context.Context, prompt.ConfirmConfig) (bool, error) {
	return false, prompt.ErrAborted
}
