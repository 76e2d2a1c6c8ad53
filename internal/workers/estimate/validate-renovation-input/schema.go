// internal/workers/estimate/validate-renovation-input/schema.go
package validaterenovationinput

func stringProp() map[string]interface{} {
	return map[string]interface{}{"type": "string"}
}

func requiredString() map[string]interface{} {
	return map[string]interface{}{"type": "string", "minLength": 1}
}

// ProjectInputSchema is the JSON schema for the job variables of this task.
// Labels are checked against the rate card afterwards, not here.
func ProjectInputSchema() map[string]interface{} {
	room := map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"roomType", "floorFinish", "wallFinish"},
		"properties": map[string]interface{}{
			"roomType":      requiredString(),
			"width":         map[string]interface{}{"type": "number"},
			"length":        map[string]interface{}{"type": "number"},
			"totalArea":     map[string]interface{}{"type": "number"},
			"ceilingHeight": stringProp(),
			"floorFinish":   requiredString(),
			"wallFinish":    requiredString(),
			"furniture":     stringProp(),
		},
	}

	return map[string]interface{}{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []interface{}{"project"},
		"properties": map[string]interface{}{
			"project": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"location", "propertyAge", "rooms"},
				"properties": map[string]interface{}{
					"location":     requiredString(),
					"city":         stringProp(),
					"propertyAge":  requiredString(),
					"propertyType": stringProp(),
					"condition":    stringProp(),
					"access":       stringProp(),
					"urgency":      stringProp(),
					"rooms": map[string]interface{}{
						"type":     "array",
						"minItems": 1,
						"items":    room,
					},
				},
			},
		},
	}
}
