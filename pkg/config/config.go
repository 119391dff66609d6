// Package config loads the runtime configuration from YAML. Every field has
// a default, so an empty file is a valid configuration for a page posting
// back to itself.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-cba/pkg/dispatch"
	"github.com/goliatone/go-cba/pkg/dom"
	"github.com/goliatone/go-cba/pkg/notify"
	"github.com/goliatone/go-cba/pkg/patch"
	"github.com/goliatone/go-cba/pkg/payload"
	"github.com/goliatone/go-cba/pkg/template/gotemplate"
	"github.com/goliatone/go-cba/pkg/transport"
)

// Config is the top-level runtime configuration.
type Config struct {
	Endpoint          string        `yaml:"endpoint"`
	Encoding          string        `yaml:"encoding,omitempty"`         // multipart or form
	Dialect           string        `yaml:"dialect,omitempty"`          // typed or legacy
	DefaultSeverity   string        `yaml:"default_severity,omitempty"` // severity of legacy messages
	ComponentSelector string        `yaml:"component_selector,omitempty"`
	MarkerClass       string        `yaml:"marker_class,omitempty"`
	MessagesContainer string        `yaml:"messages_container,omitempty"`
	MessageDelay      time.Duration `yaml:"message_delay,omitempty"`
	FadeDuration      time.Duration `yaml:"fade_duration,omitempty"`
	PatchPolicy       string        `yaml:"patch_policy,omitempty"` // skip or abort
	RacePolicy        string        `yaml:"race_policy,omitempty"`  // none or latest
	CSRF              CSRFConfig    `yaml:"csrf,omitempty"`
	Templates         Templates     `yaml:"templates,omitempty"`
	Events            []string      `yaml:"events,omitempty"`
	LogLevel          string        `yaml:"log_level,omitempty"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
}

// CSRFConfig configures the anti-forgery field.
type CSRFConfig struct {
	Field string `yaml:"field,omitempty"`
	Token string `yaml:"token,omitempty"`
	// FromDocument reads the token from the page input named Field. It is
	// on by default; an explicit Token wins.
	FromDocument bool `yaml:"from_document"`
}

// Templates selects the engine that renders message markup.
type Templates struct {
	Engine string `yaml:"engine,omitempty"` // pongo2 or go-template
	// Dir overrides the embedded templates with files from disk.
	Dir string `yaml:"dir,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Encoding:          string(transport.EncodingMultipart),
		Dialect:           string(transport.DialectTyped),
		DefaultSeverity:   transport.DefaultLegacySeverity,
		ComponentSelector: payload.DefaultSelector,
		MarkerClass:       patch.DefaultMarker,
		MessagesContainer: notify.DefaultContainer,
		MessageDelay:      notify.DefaultDelay,
		FadeDuration:      notify.DefaultFadeDuration,
		PatchPolicy:       string(patch.PolicySkip),
		RacePolicy:        string(dispatch.RaceNone),
		CSRF:              CSRFConfig{Field: payload.DefaultCSRFField, FromDocument: true},
		Templates:         Templates{Engine: string(gotemplate.KindPongo2)},
		Events:            append([]string(nil), dispatch.DefaultEvents...),
		LogLevel:          logrus.InfoLevel.String(),
		Timeout:           transport.DefaultTimeout,
	}
}

// Load reads and validates the YAML file at path.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Config{}, errors.New("config: path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerations, selectors and durations.
func (c *Config) Validate() error {
	if _, err := transport.ParseEncoding(c.Encoding); err != nil {
		return fmt.Errorf("config: encoding: %w", err)
	}
	if _, err := transport.ParseDialect(c.Dialect); err != nil {
		return fmt.Errorf("config: dialect: %w", err)
	}
	if _, err := patch.ParsePolicy(c.PatchPolicy); err != nil {
		return fmt.Errorf("config: patch_policy: %w", err)
	}
	if _, err := dispatch.ParseRacePolicy(c.RacePolicy); err != nil {
		return fmt.Errorf("config: race_policy: %w", err)
	}
	if _, err := gotemplate.ParseKind(c.Templates.Engine); err != nil {
		return fmt.Errorf("config: templates.engine: %w", err)
	}
	if _, err := logrus.ParseLevel(c.logLevel()); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	for name, selector := range map[string]string{
		"component_selector": c.ComponentSelector,
		"messages_container": c.MessagesContainer,
	} {
		if strings.TrimSpace(selector) == "" {
			continue
		}
		if err := dom.CompileSelector(selector); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	if strings.ContainsAny(strings.TrimSpace(c.MarkerClass), " .#") {
		return fmt.Errorf("config: marker_class must be a single class name, got %q", c.MarkerClass)
	}
	for name, d := range map[string]time.Duration{
		"message_delay": c.MessageDelay,
		"fade_duration": c.FadeDuration,
		"timeout":       c.Timeout,
	} {
		if d < 0 {
			return fmt.Errorf("config: %s must be >= 0, got %s", name, d)
		}
	}
	return nil
}

// Logger returns a text logger at the configured level.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if level, err := logrus.ParseLevel(c.logLevel()); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

func (c *Config) logLevel() string {
	if strings.TrimSpace(c.LogLevel) == "" {
		return logrus.InfoLevel.String()
	}
	return strings.TrimSpace(c.LogLevel)
}
