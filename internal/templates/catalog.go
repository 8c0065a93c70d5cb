// Package templates maintains the prompt template catalog keyed by template
// ID. A missing template is a caller error, not a provider error.
package templates

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

// ErrTemplateNotFound is returned when a template ID has no catalog entry.
var ErrTemplateNotFound = errors.New("template not found")

// Entry captures a loaded template alongside bookkeeping data.
type Entry struct {
	ID         string
	Text       string
	SourcePath string
	compiled   *template.Template
}

// Catalog is an in-memory catalogue of prompt templates, optionally loaded
// from YAML files on disk.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// templateFile is the on-disk YAML shape: a flat id -> template text map.
type templateFile struct {
	Templates map[string]string `yaml:"templates"`
}

// NewCatalog constructs a catalog pre-populated with the built-in dashboard
// templates. Callers may replace or extend them via Register or LoadDirectory.
func NewCatalog() *Catalog {
	c := &Catalog{entries: make(map[string]*Entry)}
	for id, text := range builtinTemplates {
		// Built-ins are static and must parse; a failure here is a programming
		// error surfaced at startup.
		if err := c.Register(id, text); err != nil {
			panic(fmt.Sprintf("builtin template %s: %v", id, err))
		}
	}
	return c
}

// Register adds or replaces a template under the given ID.
func (c *Catalog) Register(id, text string) error {
	tmpl, err := template.New(id).Option("missingkey=zero").Parse(text)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", id, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = &Entry{ID: id, Text: text, compiled: tmpl}
	return nil
}

// LoadDirectory loads every YAML template file under the provided directory.
func (c *Catalog) LoadDirectory(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat template directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("template path %s is not a directory", root)
	}

	var failures []string
	walkFn := func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, walkErr))
			return nil
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}
		if err := c.loadFile(path); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
		}
		return nil
	}
	if err := filepath.WalkDir(root, walkFn); err != nil {
		return fmt.Errorf("walk template directory %s: %w", root, err)
	}
	if len(failures) > 0 {
		return fmt.Errorf("template load failures: %s", strings.Join(failures, "; "))
	}
	return nil
}

func (c *Catalog) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var tf templateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	for id, text := range tf.Templates {
		if err := c.Register(id, text); err != nil {
			return err
		}
		c.mu.Lock()
		c.entries[id].SourcePath = path
		c.mu.Unlock()
	}
	return nil
}

// Get returns the raw template text for an ID.
func (c *Catalog) Get(id string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return e.Text, nil
}

// Render executes the template with the supplied data.
func (c *Catalog) Render(id string, data map[string]interface{}) (string, error) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	var buf bytes.Buffer
	if err := e.compiled.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", id, err)
	}
	return buf.String(), nil
}

// IDs returns the registered template IDs in sorted order.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// builtinTemplates cover the dashboard's canned analytic questions.
var builtinTemplates = map[string]string{
	"top_products": "List the top {{.limit}} products by sales for {{.period}}. " +
		"Focus on revenue and unit movement.",
	"regional_performance": "Summarize retail performance for {{.region}} over {{.period}}, " +
		"highlighting growth or decline versus the prior period.",
	"substitution_analysis": "Analyze brand substitution behavior for {{.category}}: " +
		"which brands are shoppers switching between, and what share is at risk?",
	"demand_forecast": "Forecast demand for {{.category}} over the next {{.horizon}}, " +
		"accounting for seasonal effects.",
	"basket_insight": "Describe typical basket composition when {{.product}} is purchased, " +
		"including common co-purchases and peso value.",
}
