package providers

// geminiSchemaFields is the whitelist of JSON-Schema keys the Gemini
// function-declaration schema accepts; every other key (e.g.
// additionalProperties, $schema, examples) must be stripped recursively
// or the API rejects the tool declaration outright.
var geminiSchemaFields = map[string]bool{
	"type":        true,
	"description": true,
	"required":    true,
	"properties":  true,
	"items":       true,
	"enum":        true,
}

// NormalizeGeminiSchema recursively strips any key outside
// geminiSchemaFields from a tool's input schema.
func NormalizeGeminiSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		if !geminiSchemaFields[k] {
			continue
		}
		switch k {
		case "properties":
			if props, ok := v.(map[string]any); ok {
				normalized := make(map[string]any, len(props))
				for name, propSchema := range props {
					if nested, ok := propSchema.(map[string]any); ok {
						normalized[name] = NormalizeGeminiSchema(nested)
					} else {
						normalized[name] = propSchema
					}
				}
				out[k] = normalized
				continue
			}
		case "items":
			if nested, ok := v.(map[string]any); ok {
				out[k] = NormalizeGeminiSchema(nested)
				continue
			}
		}
		out[k] = v
	}
	return out
}
