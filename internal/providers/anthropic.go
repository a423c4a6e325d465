package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/vianexus/agent-sdk-go/internal/convmemory"
	"github.com/vianexus/agent-sdk-go/internal/orchestrator"
	"github.com/vianexus/agent-sdk-go/pkg/models"
)

// AnthropicAdapter implements orchestrator.ModelTurn against Claude.
type AnthropicAdapter struct {
	client anthropic.Client
	model  string
}

// NewAnthropicAdapter builds an adapter bound to model, authorized via
// apiKey (empty uses the SDK's ANTHROPIC_API_KEY environment lookup).
func NewAnthropicAdapter(apiKey, model string) *AnthropicAdapter {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &AnthropicAdapter{client: anthropic.NewClient(opts...), model: model}
}

func (a *AnthropicAdapter) Send(ctx context.Context, providerMessages []any, systemPrompt string, tools []orchestrator.ToolSpec) (*orchestrator.TurnResult, error) {
	messages := make([]anthropic.MessageParam, 0, len(providerMessages))
	for _, raw := range providerMessages {
		msg, ok := raw.(convmemory.AnthropicMessage)
		if !ok {
			return nil, fmt.Errorf("providers: anthropic adapter received non-AnthropicMessage %T", raw)
		}
		converted, err := toAnthropicMessageParam(msg)
		if err != nil {
			return nil, err
		}
		messages = append(messages, converted)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 4096,
		Messages:  messages,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	if len(tools) > 0 {
		params.Tools = toAnthropicTools(tools)
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropicError(err)
	}

	result := &orchestrator.TurnResult{StopReason: string(resp.StopReason), RawAssistantContent: resp}
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			result.Text += variant.Text
		case anthropic.ToolUseBlock:
			args, _ := decodeToolInput(variant.Input)
			result.ToolCalls = append(result.ToolCalls, models.ToolInvocation{ID: variant.ID, Name: variant.Name, Arguments: args})
		}
	}
	return result, nil
}

func toAnthropicMessageParam(msg convmemory.AnthropicMessage) (anthropic.MessageParam, error) {
	var blocks []anthropic.ContentBlockParamUnion
	switch content := msg.Content.(type) {
	case string:
		blocks = append(blocks, anthropic.NewTextBlock(content))
	default:
		blocks = append(blocks, anthropic.NewTextBlock(fmt.Sprint(content)))
	}

	if msg.Role == "assistant" {
		return anthropic.NewAssistantMessage(blocks...), nil
	}
	return anthropic.NewUserMessage(blocks...), nil
}

func toAnthropicTools(tools []orchestrator.ToolSpec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{}
		if t.InputSchema != nil {
			if props, ok := t.InputSchema["properties"]; ok {
				schema.Properties = props
			}
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if toolParam.OfTool != nil {
			toolParam.OfTool.Description = anthropic.String(t.Description)
		}
		out = append(out, toolParam)
	}
	return out
}

// decodeToolInput turns the SDK's tool-use input into a plain map: a map
// is returned as is; anything else (such as raw JSON) is re-marshaled and
// decoded as a JSON object.
func decodeToolInput(raw any) (map[string]any, bool) {
	if m, ok := raw.(map[string]any); ok {
		return m, true
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(encoded, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

// classifyAnthropicError wraps SDK errors in a ModelError so callers can
// use errors.Is/As without importing the SDK. It does not inspect the
// error: Reason is left empty, so it reports as ReasonUnknown and
// IsRetryable is false.
func classifyAnthropicError(err error) error {
	return &ModelError{Provider: "anthropic", Cause: err}
}
