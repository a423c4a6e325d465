package orchestrator

import "testing"

func TestValidateToolArguments_NilSchemaAlwaysPasses(t *testing.T) {
	if err := ValidateToolArguments("any_tool", nil, map[string]any{"whatever": 1}); err != nil {
		t.Errorf("unexpected error with nil schema: %v", err)
	}
}

func TestValidateToolArguments_Valid(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ticker": map[string]any{"type": "string"},
		},
		"required": []any{"ticker"},
	}
	err := ValidateToolArguments("get_quote", schema, map[string]any{"ticker": "AAPL"})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateToolArguments_MissingRequiredField(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ticker": map[string]any{"type": "string"},
		},
		"required": []any{"ticker"},
	}
	err := ValidateToolArguments("get_quote", schema, map[string]any{})
	if err == nil {
		t.Error("expected error for missing required field")
	}
}

func TestValidateToolArguments_WrongType(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"limit": map[string]any{"type": "integer"},
		},
	}
	err := ValidateToolArguments("search", schema, map[string]any{"limit": "not-a-number"})
	if err == nil {
		t.Error("expected error for wrong argument type")
	}
}
