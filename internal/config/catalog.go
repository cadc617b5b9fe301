package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Catalog holds the per-flow timeout table and the localized message table.
// It is loaded once at startup and injected; components never read it from
// ambient global state.
type Catalog struct {
	defaultTimeout time.Duration
	flowTimeouts   map[string]time.Duration
	messages       map[string]map[string]string
	defaultLang    string
}

type catalogFile struct {
	Timeouts struct {
		DefaultMinutes int            `yaml:"default_minutes"`
		Flows          map[string]int `yaml:"flows"`
	} `yaml:"timeouts"`
	Messages map[string]map[string]string `yaml:"messages"`
}

// LoadCatalog reads the YAML catalog from path.
func LoadCatalog(path, defaultLang string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data, defaultLang)
}

// ParseCatalog builds a Catalog from raw YAML.
func ParseCatalog(data []byte, defaultLang string) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		defaultTimeout: DefaultFlowTimeout,
		flowTimeouts:   make(map[string]time.Duration, len(file.Timeouts.Flows)),
		messages:       file.Messages,
		defaultLang:    defaultLang,
	}
	if file.Timeouts.DefaultMinutes > 0 {
		c.defaultTimeout = time.Duration(file.Timeouts.DefaultMinutes) * time.Minute
	}
	for flow, minutes := range file.Timeouts.Flows {
		if minutes > 0 {
			c.flowTimeouts[flow] = time.Duration(minutes) * time.Minute
		}
	}
	if c.messages == nil {
		c.messages = map[string]map[string]string{}
	}
	return c, nil
}

// DefaultCatalog returns a catalog with no overrides, useful in tests.
func DefaultCatalog(defaultLang string) *Catalog {
	return &Catalog{
		defaultTimeout: DefaultFlowTimeout,
		flowTimeouts:   map[string]time.Duration{},
		messages:       map[string]map[string]string{},
		defaultLang:    defaultLang,
	}
}

// FlowTimeout returns the idle timeout for a flow, falling back to the
// catalog default. Flows with long natural dwell time declare overrides.
func (c *Catalog) FlowTimeout(flow string) time.Duration {
	if d, ok := c.flowTimeouts[flow]; ok {
		return d
	}
	return c.defaultTimeout
}

// Message looks up a localized string by key, falling back to the default
// language and then to the key itself so a missing entry is visible but
// never fatal.
func (c *Catalog) Message(lang, key string) string {
	if table, ok := c.messages[lang]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if table, ok := c.messages[c.defaultLang]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	return key
}

// DefaultLanguage returns the configured fallback language.
func (c *Catalog) DefaultLanguage() string {
	return c.defaultLang
}

// WithFlowTimeout returns a copy with one flow timeout overridden. Intended
// for tests that need a short timeout.
func (c *Catalog) WithFlowTimeout(flow string, d time.Duration) *Catalog {
	clone := &Catalog{
		defaultTimeout: c.defaultTimeout,
		flowTimeouts:   make(map[string]time.Duration, len(c.flowTimeouts)+1),
		messages:       c.messages,
		defaultLang:    c.defaultLang,
	}
	for k, v := range c.flowTimeouts {
		clone.flowTimeouts[k] = v
	}
	clone.flowTimeouts[flow] = d
	return clone
}
