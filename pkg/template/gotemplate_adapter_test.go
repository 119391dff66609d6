package template_test

import (
	"embed"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-cba/pkg/template/gotemplate"
	"github.com/goliatone/go-cba/pkg/testsupport"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()
	sub, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	engine, err := gotemplate.New(gotemplate.WithFS(sub))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestGoTemplateEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "  Ada "}, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "hello.golden"))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render template mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func TestGoTemplateEngine_RenderStringAndGlobals(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{"site": "cba"}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	out, err := engine.Render(`<i class="{{ kind|classname }}">{{ site }}:{{ text }}</i>`, map[string]any{
		"kind": " Positive Message!",
		"text": "<b>",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `<i class="positive-message">cba:&lt;b&gt;</i>`
	if out != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, out)
	}
}

func TestGoTemplateEngine_StructData(t *testing.T) {
	engine := newEngine(t)
	type view struct {
		Name string `json:"name"`
	}
	out, err := engine.RenderTemplate("hello.tpl", view{Name: "Grace"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Hello Grace!" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestGoTemplateEngine_RequiresLoader(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without loaders")
	}
}

func TestNewKindRendersWithEitherEngine(t *testing.T) {
	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "hello.golden"))
	for _, name := range []string{"", "pongo2", "Go-Template"} {
		t.Run(name, func(t *testing.T) {
			kind, err := gotemplate.ParseKind(name)
			if err != nil {
				t.Fatalf("ParseKind(%q): %v", name, err)
			}
			engine, err := gotemplate.NewKind(kind, filepath.Join("testdata", "templates"), nil)
			if err != nil {
				t.Fatalf("NewKind(%s): %v", kind, err)
			}
			got, err := engine.RenderTemplate("hello", map[string]any{"name": "  Ada "})
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if got != want {
				t.Fatalf("want %q, got %q", want, got)
			}
			out, err := engine.Render(`{{ kind|classname }}`, map[string]any{"kind": "Very Bad!"})
			if err != nil {
				t.Fatalf("render classname: %v", err)
			}
			if out != "very-bad" {
				t.Fatalf("classname = %q, want very-bad", out)
			}
		})
	}
}

func TestParseKindRejectsUnknown(t *testing.T) {
	if _, err := gotemplate.ParseKind("jinja"); !errors.Is(err, gotemplate.ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
}
