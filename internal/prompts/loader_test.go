package prompts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func autoAddData() map[string]string {
	return map[string]string{
		"GroupType":    "WORK",
		"StoredCount":  "2",
		"VisibleCount": "1",
		"SectionText":  "Work Experience",
		"FieldLabels":  "Company, Title",
		"ButtonText":   "Add another",
	}
}

func TestEmbeddedTemplatesMatchDeclaredPlaceholders(t *testing.T) {
	tmpls, err := parse(classificationJSON)
	require.NoError(t, err)
	for _, key := range Keys() {
		assert.NotEmpty(t, tmpls[key], key)
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []Key{AutoAddDecision, ClassifyFields}, Keys())
}

func TestTemplate_Unknown(t *testing.T) {
	_, err := Template("cover-letter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown prompt")
}

func TestRender_FillsEveryPlaceholder(t *testing.T) {
	out, err := Render(AutoAddDecision, autoAddData())
	require.NoError(t, err)
	assert.NotContains(t, out, "{{.")
	assert.Contains(t, out, `"Add another"`)
	assert.Contains(t, out, "2 stored WORK entries")
}

func TestRender_ValueErrors(t *testing.T) {
	missing := autoAddData()
	delete(missing, "ButtonText")

	extra := autoAddData()
	extra["Company"] = "Acme"

	tests := []struct {
		name    string
		data    map[string]string
		message string
	}{
		{"missing value", missing, "no value for ButtonText"},
		{"extra value", extra, "got 7 values, want 6"},
		{"nil data", nil, "no value for GroupType"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(AutoAddDecision, tt.data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestRender_PageTextIsNotExpanded(t *testing.T) {
	data := autoAddData()
	data["SectionText"] = "Tell us about {{.ButtonText}}"

	out, err := Render(AutoAddDecision, data)
	require.NoError(t, err)
	assert.Contains(t, out, "Tell us about {{.ButtonText}}")
}

func TestParse_RejectsMismatchedTemplates(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		message string
	}{
		{"missing key", `{"classify-fields": "{{.Taxonomy}}{{.Page}}{{.Siblings}}{{.Examples}}{{.Fields}}"}`, "missing template"},
		{"missing placeholder", `{"classify-fields": "{{.Taxonomy}}", "auto-add-decision": "x"}`, "missing placeholder"},
		{"undeclared placeholder", `{
			"classify-fields": "{{.Taxonomy}}{{.Page}}{{.Siblings}}{{.Examples}}{{.Fields}}{{.Resume}}",
			"auto-add-decision": "{{.GroupType}}{{.StoredCount}}{{.VisibleCount}}{{.SectionText}}{{.FieldLabels}}{{.ButtonText}}"
		}`, "undeclared placeholder Resume"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.json))
			require.Error(t, err)
			var tmplErr *TemplateError
			if errors.As(err, &tmplErr) {
				assert.Contains(t, tmplErr.Error(), tt.message)
				return
			}
			t.Fatalf("want *TemplateError, got %v", err)
		})
	}

	_, err := parse([]byte("{ invalid"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse prompt templates")
}
