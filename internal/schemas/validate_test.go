package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSONString_Valid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`
	jsonContent := `{"name": "test"}`

	err := ValidateJSONString(schemaContent, jsonContent)
	assert.NoError(t, err)
}

func TestValidateJSONString_Invalid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`
	jsonContent := `{"age": 30}`

	err := ValidateJSONString(schemaContent, jsonContent)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateJSONString_BadSchema(t *testing.T) {
	err := ValidateJSONString(`{not json`, `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "name", Message: "is required"},
			{Field: "age", Message: "must be a number"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "name")
	assert.Contains(t, errorMsg, "age")
}

func TestClassifyFieldsResponseSchema(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name: "valid response",
			body: `{"success": true, "creditsUsed": 1, "results": [{"index": 0, "type": "EMAIL", "confidence": 0.9}]}`,
		},
		{
			name: "failure without results",
			body: `{"success": false, "error": "boom"}`,
		},
		{
			name:    "missing success",
			body:    `{"results": []}`,
			wantErr: true,
		},
		{
			name:    "confidence out of range",
			body:    `{"success": true, "results": [{"index": 0, "type": "EMAIL", "confidence": 1.5}]}`,
			wantErr: true,
		},
		{
			name:    "result without type",
			body:    `{"success": true, "results": [{"index": 0}]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSONString(ClassifyFieldsResponse, tt.body)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAutoAddDecisionSchema(t *testing.T) {
	assert.NoError(t, ValidateJSONString(AutoAddDecision, `{"shouldAdd": true, "confidence": 0.8, "reason": "button says add"}`))
	assert.Error(t, ValidateJSONString(AutoAddDecision, `{"shouldAdd": "yes", "confidence": 0.8}`))
	assert.Error(t, ValidateJSONString(AutoAddDecision, `{"confidence": 0.8}`))
}

func TestClassificationResultsSchema(t *testing.T) {
	assert.NoError(t, ValidateJSONString(ClassificationResults, `[{"index": 0, "type": "PHONE", "confidence": 0.7}]`))
	assert.NoError(t, ValidateJSONString(ClassificationResults, `[]`))
	assert.Error(t, ValidateJSONString(ClassificationResults, `{"index": 0}`))
}
