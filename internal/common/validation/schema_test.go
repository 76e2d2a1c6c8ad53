// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roomSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"location", "rooms"},
		"properties": map[string]interface{}{
			"location": map[string]interface{}{"type": "string", "minLength": 1},
			"rooms": map[string]interface{}{
				"type":     "array",
				"minItems": 1,
				"items": map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"roomType"},
					"properties": map[string]interface{}{
						"roomType": map[string]interface{}{"type": "string"},
						"width":    map[string]interface{}{"type": "number", "exclusiveMinimum": 0},
					},
				},
			},
		},
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name       string
		doc        map[string]interface{}
		wantValid  bool
		wantFields []string
	}{
		{
			name: "valid",
			doc: map[string]interface{}{
				"location": "Urban",
				"rooms":    []interface{}{map[string]interface{}{"roomType": "Kitchen", "width": 3.0}},
			},
			wantValid: true,
		},
		{
			name:       "missing required",
			doc:        map[string]interface{}{"rooms": []interface{}{map[string]interface{}{"roomType": "Kitchen"}}},
			wantFields: []string{"location"},
		},
		{
			name: "nested violation uses index notation",
			doc: map[string]interface{}{
				"location": "Urban",
				"rooms":    []interface{}{map[string]interface{}{"roomType": "Kitchen", "width": -1.0}},
			},
			wantFields: []string{"rooms[0].width"},
		},
		{
			name: "wrong type",
			doc: map[string]interface{}{
				"location": 12,
				"rooms":    []interface{}{map[string]interface{}{"roomType": "Kitchen"}},
			},
			wantFields: []string{"location"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateDocument(roomSchema(), tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			for _, f := range tt.wantFields {
				assert.True(t, result.HasErrors(f), "expected error on %s, got %v", f, result.GetErrorMessages())
			}
		})
	}
}

func TestValidateJSON(t *testing.T) {
	result, err := ValidateJSON(roomSchema(), `{"location":"Urban","rooms":[]}`)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.GetErrorsForField("rooms"))

	_, err = ValidateJSON(roomSchema(), `{not json`)
	assert.Error(t, err)
}

func TestValidationResult_Add(t *testing.T) {
	result := &ValidationResult{Valid: true}
	result.Add("rooms[0].roomType", "unknown label \"Dungeon\"", "UNKNOWN_LABEL")

	assert.False(t, result.Valid)
	assert.Equal(t, []string{`rooms[0].roomType: unknown label "Dungeon"`}, result.GetErrorMessages())
	assert.Len(t, result.GetErrorsForField("rooms"), 1)
}

func TestNormalizeField(t *testing.T) {
	assert.Equal(t, "rooms[0].width", normalizeField("rooms.0.width"))
	assert.Equal(t, "rooms[10]", normalizeField("rooms.10"))
	assert.Equal(t, "a[1][2].b", normalizeField("a.1.2.b"))
	assert.Equal(t, "", normalizeField("(root)"))
}

func TestValidateTaskTypeNaming(t *testing.T) {
	assert.NoError(t, ValidateTaskTypeNaming("calculate-renovation-estimate"))
	assert.Error(t, ValidateTaskTypeNaming("Calculate"))
	assert.Error(t, ValidateTaskTypeNaming("calculate.estimate"))
}

func TestContactValidators(t *testing.T) {
	assert.True(t, ValidateEmail("client@example.co.uk"))
	assert.False(t, ValidateEmail("client@"))
	assert.True(t, ValidatePhone("+447700900123"))
	assert.False(t, ValidatePhone("07700 900123"))
}
