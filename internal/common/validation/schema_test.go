package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"verifier"},
		Properties: map[string]Property{
			"verifier": {Type: "string", MinLength: IntPtr(1), MaxLength: IntPtr(10)},
			"mode":     {Type: "string", Enum: []string{"fast", "slow"}},
			"timeout":  {Type: "integer", Minimum: FloatPtr(0)},
			"score":    {Type: "number", Minimum: FloatPtr(0), Maximum: FloatPtr(1)},
			"hosts":    {Type: "array", Items: &Property{Type: "string"}},
			"values": {
				Type:     "object",
				Required: []string{"token"},
				Properties: map[string]Property{
					"token": {Type: "string"},
				},
			},
		},
		AdditionalProperties: false,
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		wantValid bool
		wantField string
		wantCode  string
	}{
		{
			name:      "valid",
			input:     map[string]interface{}{"verifier": "HCaptcha", "timeout": float64(30), "score": 0.5, "hosts": []interface{}{"a"}},
			wantValid: true,
		},
		{
			name:      "missing required",
			input:     map[string]interface{}{},
			wantField: "verifier",
			wantCode:  "REQUIRED_FIELD_MISSING",
		},
		{
			name:      "extra field",
			input:     map[string]interface{}{"verifier": "x", "unknown": true},
			wantField: "unknown",
			wantCode:  "EXTRA_FIELD",
		},
		{
			name:      "wrong type",
			input:     map[string]interface{}{"verifier": 12.0},
			wantField: "verifier",
			wantCode:  "INVALID_TYPE",
		},
		{
			name:      "too long",
			input:     map[string]interface{}{"verifier": "far-too-long-name"},
			wantField: "verifier",
			wantCode:  "MAX_LENGTH_VIOLATION",
		},
		{
			name:      "enum",
			input:     map[string]interface{}{"verifier": "x", "mode": "medium"},
			wantField: "mode",
			wantCode:  "INVALID_ENUM_VALUE",
		},
		{
			name:      "fractional integer",
			input:     map[string]interface{}{"verifier": "x", "timeout": 1.5},
			wantField: "timeout",
			wantCode:  "INVALID_TYPE",
		},
		{
			name:      "above maximum",
			input:     map[string]interface{}{"verifier": "x", "score": 1.5},
			wantField: "score",
			wantCode:  "MAXIMUM_VIOLATION",
		},
		{
			name:      "nested required",
			input:     map[string]interface{}{"verifier": "x", "values": map[string]interface{}{}},
			wantField: "values.token",
			wantCode:  "REQUIRED_FIELD_MISSING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(tt.input, testSchema())
			assert.Equal(t, tt.wantValid, result.Valid, result.GetErrorMessages())
			if tt.wantValid {
				assert.Empty(t, result.Errors)
				return
			}
			require.True(t, result.HasErrors(tt.wantField), result.GetErrorMessages())
			fieldErrs := result.GetErrorsForField(tt.wantField)
			require.NotEmpty(t, fieldErrs)
			assert.Equal(t, tt.wantCode, fieldErrs[0].Code)
		})
	}
}

func TestValidateInput_NilInput(t *testing.T) {
	result := ValidateInput(nil, testSchema())
	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors("verifier"))
}

func TestGetErrorsForField_Nested(t *testing.T) {
	vr := &ValidationResult{Errors: []ValidationError{
		{Field: "values.token", Message: "m"},
		{Field: "valuesX", Message: "m"},
	}}
	assert.Len(t, vr.GetErrorsForField("values"), 1)
	assert.Equal(t, []string{"values.token: m", "valuesX: m"}, vr.GetErrorMessages())
}
