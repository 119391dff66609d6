package config_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-cba/pkg/config"
)

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := config.Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(config.Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCanDisablePageCSRF(t *testing.T) {
	if !config.Default().CSRF.FromDocument {
		t.Fatalf("default should read the csrf token from the page")
	}
	cfg, err := config.Parse([]byte("csrf:\n  from_document: false\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.CSRF.FromDocument {
		t.Fatalf("from_document: false was ignored")
	}
	if cfg.CSRF.Field != "csrfmiddlewaretoken" {
		t.Fatalf("field = %q, want default kept", cfg.CSRF.Field)
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join("testdata", "legacy.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := config.Default()
	want.Endpoint = "http://localhost:8000/cart/"
	want.Encoding = "form"
	want.Dialect = "legacy"
	want.DefaultSeverity = "positive"
	want.MessageDelay = time.Second
	want.FadeDuration = 500 * time.Millisecond
	want.PatchPolicy = "abort"
	want.RacePolicy = "latest"
	want.CSRF = config.CSRFConfig{Field: "csrfmiddlewaretoken", FromDocument: true}
	want.Events = []string{"click", "change", "keyup", "drop"}
	want.LogLevel = "debug"
	want.Timeout = 5 * time.Second

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.Logger().GetLevel() != logrus.DebugLevel {
		t.Fatalf("logger level = %s, want debug", cfg.Logger().GetLevel())
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":       "endpiont: x\n",
		"dialect":           "dialect: xml\n",
		"encoding":          "encoding: json\n",
		"patch policy":      "patch_policy: retry\n",
		"race policy":       "race_policy: first\n",
		"log level":         "log_level: loud\n",
		"template engine":   "templates:\n  engine: jinja\n",
		"selector":          "component_selector: \"input[\"\n",
		"marker":            "marker_class: .render\n",
		"negative duration": "message_delay: -1s\n",
		"bad duration":      "timeout: soon\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := config.Parse([]byte(body)); err == nil {
				t.Fatalf("expected error for %q", strings.TrimSpace(body))
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join("testdata", "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := config.Load(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
