package prompt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-cba/pkg/dom"
	"github.com/goliatone/go-cba/pkg/payload"
)

// scripted answers prompts from fixed queues.
type scripted struct {
	inputs   []string
	confirms []bool
	selects  []int
	multi    [][]int
	asked    []string
}

func (s *scripted) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.asked = append(s.asked, "input:"+cfg.Message)
	if len(s.inputs) == 0 {
		return cfg.Default, nil
	}
	out := s.inputs[0]
	s.inputs = s.inputs[1:]
	return out, nil
}

func (s *scripted) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	s.asked = append(s.asked, "confirm:"+cfg.Message)
	if len(s.confirms) == 0 {
		return cfg.Default, nil
	}
	out := s.confirms[0]
	s.confirms = s.confirms[1:]
	return out, nil
}

func (s *scripted) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.asked = append(s.asked, "select:"+cfg.Message)
	if len(s.selects) == 0 {
		return cfg.DefaultIndex, nil
	}
	out := s.selects[0]
	s.selects = s.selects[1:]
	return out, nil
}

func (s *scripted) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	s.asked = append(s.asked, "multi:"+cfg.Message)
	if len(s.multi) == 0 {
		return cfg.Defaults, nil
	}
	out := s.multi[0]
	s.multi = s.multi[1:]
	return out, nil
}

const page = `<html><body>
<input class="component" id="qty" value="1">
<input class="component" type="checkbox" id="gift" name="gift" value="yes">
<input class="component" type="radio" id="s" name="size" value="s" checked>
<input class="component" type="radio" id="m" name="size" value="m">
<select id="colour"><option value="red">Red</option><option value="blue">Blue</option></select>
<select id="pets" multiple><option value="cat" selected>Cat</option><option value="dog">Dog</option></select>
<input class="component" type="file" id="upload">
<button id="add" click_handler="server:update_cart" keyup_handler="client:selectRow">Add</button>
<div drop_handler="server:move"></div>
<span click_handler="broken"></span>
</body></html>`

func TestEditComponents(t *testing.T) {
	doc := dom.MustParseString(page)
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, []byte("PNG"), 0o644))

	d := &scripted{
		inputs:   []string{"3", path},
		confirms: []bool{true},
		selects:  []int{1, 1},
		multi:    [][]int{{1}},
	}
	s := payload.MustSerializer()
	require.NoError(t, EditComponents(context.Background(), d, doc, s.Components(doc)))

	require.Equal(t, []string{
		"input:qty", "confirm:gift (yes)", "select:size", "select:colour", "multi:pets", "input:upload",
	}, d.asked)

	got := s.Serialize(doc)
	require.Equal(t, "3", got.Get("qty"))
	require.Equal(t, "yes", got.Get("gift"))
	require.Equal(t, []string{"m"}, got.Values("size"))
	require.Equal(t, "blue", got.Get("colour"))
	require.Equal(t, []string{"dog"}, got.Values("pets[]"))
	files := got.Files("upload")
	require.Len(t, files, 1)
	require.Equal(t, "photo.png", files[0].Name)
}

func TestEditComponentsMissingFile(t *testing.T) {
	doc := dom.MustParseString(`<input class="component" type="file" id="upload">`)
	d := &scripted{inputs: []string{filepath.Join(t.TempDir(), "missing.bin")}}
	err := EditComponents(context.Background(), d, doc, payload.MustSerializer().Components(doc))
	require.Error(t, err)
}

func TestTriggers(t *testing.T) {
	doc := dom.MustParseString(page)
	triggers := Triggers(doc)

	var labels []string
	for _, tr := range triggers {
		labels = append(labels, tr.Label())
	}
	require.Equal(t, []string{
		"#add click → server:update_cart",
		"#add keyup → client:selectRow",
		"div drop → server:move",
	}, labels)

	chosen, err := ChooseTrigger(context.Background(), &scripted{selects: []int{2}}, triggers)
	require.NoError(t, err)
	require.Equal(t, "drop", chosen.Event)
	require.Equal(t, "move", chosen.Spec.Name)
}

func TestChooseTriggerErrors(t *testing.T) {
	_, err := ChooseTrigger(context.Background(), &scripted{}, nil)
	require.True(t, errors.Is(err, ErrNoTriggers))

	doc := dom.MustParseString(page)
	_, err = ChooseTrigger(context.Background(), &scripted{selects: []int{-1}}, Triggers(doc))
	require.Error(t, err)
}

func TestHelpers(t *testing.T) {
	options := []string{"a", "b", "c"}
	require.Equal(t, 1, indexOf(options, "b"))
	require.Equal(t, -1, indexOf(options, "z"))
	require.Equal(t, []int{0, 2}, indicesOf(options, []string{"c", "a"}))
	require.Equal(t, []string{"a", "c"}, defaultsFromIndices(options, []int{0, 5, 2}))
}
