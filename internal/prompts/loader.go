// Package prompts holds the embedded classifier prompt templates. Templates
// use {{.Name}} placeholders; each key declares the names it requires and the
// embedded file is checked against them on first use.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed classification.json
var classificationJSON []byte

// Key names one prompt template.
type Key string

// Prompt keys.
const (
	ClassifyFields  Key = "classify-fields"
	AutoAddDecision Key = "auto-add-decision"
)

// required lists the placeholders each template must contain and every
// caller must supply.
var required = map[Key][]string{
	ClassifyFields:  {"Taxonomy", "Page", "Siblings", "Examples", "Fields"},
	AutoAddDecision: {"GroupType", "StoredCount", "VisibleCount", "SectionText", "FieldLabels", "ButtonText"},
}

var placeholder = regexp.MustCompile(`\{\{\.([A-Za-z]+)\}\}`)

var (
	loadOnce  sync.Once
	templates map[Key]string
	loadErr   error
)

// TemplateError reports an embedded template that does not match its
// declared placeholders.
type TemplateError struct {
	Key     Key
	Message string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("prompt %s: %s", e.Key, e.Message)
}

func load() (map[Key]string, error) {
	loadOnce.Do(func() {
		templates, loadErr = parse(classificationJSON)
	})
	return templates, loadErr
}

// parse decodes a template file and validates every declared key.
func parse(data []byte) (map[Key]string, error) {
	var raw map[Key]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}
	for key, names := range required {
		tmpl, ok := raw[key]
		if !ok {
			return nil, &TemplateError{Key: key, Message: "missing template"}
		}
		want := make(map[string]bool, len(names))
		for _, n := range names {
			want[n] = true
			if !strings.Contains(tmpl, "{{."+n+"}}") {
				return nil, &TemplateError{Key: key, Message: "missing placeholder " + n}
			}
		}
		for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
			if !want[m[1]] {
				return nil, &TemplateError{Key: key, Message: "undeclared placeholder " + m[1]}
			}
		}
	}
	return raw, nil
}

// Keys returns the available prompt keys in sorted order.
func Keys() []Key {
	keys := make([]Key, 0, len(required))
	for k := range required {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Template returns the raw template for key.
func Template(key Key) (string, error) {
	tmpls, err := load()
	if err != nil {
		return "", err
	}
	tmpl, ok := tmpls[key]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", key)
	}
	return tmpl, nil
}

// Render fills the template for key in one pass. data must hold exactly the
// key's placeholders. Values are inserted verbatim and never re-expanded, so
// page text containing "{{.X}}" reaches the model unchanged.
func Render(key Key, data map[string]string) (string, error) {
	tmpl, err := Template(key)
	if err != nil {
		return "", err
	}
	names := required[key]
	for _, n := range names {
		if _, ok := data[n]; !ok {
			return "", fmt.Errorf("prompt %s: no value for %s", key, n)
		}
	}
	if len(data) != len(names) {
		return "", fmt.Errorf("prompt %s: got %d values, want %d", key, len(data), len(names))
	}
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		return data[m[3:len(m)-2]]
	}), nil
}
