package orchestrator

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var argumentSchemaCache sync.Map

// ValidateToolArguments checks a tool invocation's arguments against its
// declared input schema before the call reaches the tool channel, so a
// model's malformed tool call surfaces as a validation error instead of
// an opaque server-side rejection.
func ValidateToolArguments(toolName string, schema map[string]any, arguments map[string]any) error {
	if schema == nil {
		return nil
	}
	compiled, err := compileArgumentSchema(schema)
	if err != nil {
		return fmt.Errorf("orchestrator: compile schema for tool %q: %w", toolName, err)
	}

	payload, err := json.Marshal(arguments)
	if err != nil {
		return fmt.Errorf("orchestrator: encode arguments for tool %q: %w", toolName, err)
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("orchestrator: decode arguments for tool %q: %w", toolName, err)
	}

	if err := compiled.Validate(decoded); err != nil {
		return fmt.Errorf("orchestrator: arguments for tool %q: %w", toolName, err)
	}
	return nil
}

func compileArgumentSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	key := string(encoded)
	if cached, ok := argumentSchemaCache.Load(key); ok {
		if compiled, ok := cached.(*jsonschema.Schema); ok {
			return compiled, nil
		}
	}

	compiled, err := jsonschema.CompileString("tool-arguments.json", key)
	if err != nil {
		return nil, err
	}
	argumentSchemaCache.Store(key, compiled)
	return compiled, nil
}
