package providers

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vianexus/agent-sdk-go/internal/convmemory"
	"github.com/vianexus/agent-sdk-go/internal/orchestrator"
	"github.com/vianexus/agent-sdk-go/pkg/models"
)

// OpenAIAdapter implements orchestrator.ModelTurn against the OpenAI
// chat-completions API. Tool calls round-trip through structured
// ToolInvocation/ToolCallID fields symmetrically with the Anthropic and
// Gemini adapters, rather than being flattened to plain text.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
}

// NewOpenAIAdapter builds an adapter bound to model.
func NewOpenAIAdapter(apiKey, model string) *OpenAIAdapter {
	return &OpenAIAdapter{client: openai.NewClient(apiKey), model: model}
}

// NewOpenAIAdapterWithBaseURL builds an adapter against an OpenAI-compatible
// endpoint other than api.openai.com — Venice's proxy is the motivating
// case, but anything speaking the same Chat Completions wire format works.
func NewOpenAIAdapterWithBaseURL(apiKey, model, baseURL string) *OpenAIAdapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIAdapter{client: openai.NewClientWithConfig(cfg), model: model}
}

func (a *OpenAIAdapter) Send(ctx context.Context, providerMessages []any, systemPrompt string, tools []orchestrator.ToolSpec) (*orchestrator.TurnResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(providerMessages)+1)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	for _, raw := range providerMessages {
		msg, ok := raw.(convmemory.OpenAIMessage)
		if !ok {
			return nil, fmt.Errorf("providers: openai adapter received non-OpenAIMessage %T", raw)
		}
		messages = append(messages, toOpenAIChatMessage(msg))
	}

	req := openai.ChatCompletionRequest{Model: a.model, Messages: messages}
	if len(tools) > 0 {
		req.Tools = toOpenAITools(tools)
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, &ModelError{Provider: "openai", Model: a.model, Cause: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &ModelError{Provider: "openai", Model: a.model, Reason: ReasonServerError, Cause: fmt.Errorf("no choices returned")}
	}
	choice := resp.Choices[0]

	result := &orchestrator.TurnResult{
		Text:                choice.Message.Content,
		StopReason:          string(choice.FinishReason),
		RawAssistantContent: choice.Message,
	}
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		result.ToolCalls = append(result.ToolCalls, models.ToolInvocation{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return result, nil
}

func toOpenAIChatMessage(msg convmemory.OpenAIMessage) openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	if msg.ToolCallID != "" {
		out.Role = openai.ChatMessageRoleTool
		out.ToolCallID = msg.ToolCallID
	}
	for _, tc := range msg.ToolCalls {
		args, _ := json.Marshal(tc.Arguments)
		out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      tc.Name,
				Arguments: string(args),
			},
		})
	}
	return out
}

func toOpenAITools(tools []orchestrator.ToolSpec) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}
