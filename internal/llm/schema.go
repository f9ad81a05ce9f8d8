package llm

// BuildItemsJSONSchema returns the JSON-Schema (draft 2020-12 subset) for the
// extraction response as a generic map. We pass this to the model as a
// structured output constraint and also use it locally to validate.
//
// source_snippet is not required at the schema level: an item without it is
// dropped per item at the gateway, not failed per block.
func BuildItemsJSONSchema() map[string]any {
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"raw_name":       map[string]any{"type": "string", "minLength": 1},
			"canonical_name": map[string]any{"type": "string"},
			"canonical_key":  map[string]any{"type": "string"},
			"quantity":       map[string]any{"type": "number"},
			"unit":           map[string]any{"type": "string"},
			"mark":           map[string]any{"type": "string"},
			"gost":           map[string]any{"type": "string"},
			"description":    map[string]any{"type": "string"},
			"note":           map[string]any{"type": "string"},
			"source_snippet": map[string]any{"type": "string"},
			"confidence":     map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"raw_name"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"items": map[string]any{"type": "array", "items": item},
		},
		"required": []string{"items"},
	}
}
