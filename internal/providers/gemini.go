package providers

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/vianexus/agent-sdk-go/internal/convmemory"
	"github.com/vianexus/agent-sdk-go/internal/orchestrator"
	"github.com/vianexus/agent-sdk-go/pkg/models"
)

// GeminiAdapter implements orchestrator.ModelTurn against the Gemini API.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiAdapter builds an adapter bound to model, using the Gemini
// developer API backend.
func NewGeminiAdapter(ctx context.Context, apiKey, model string) (*GeminiAdapter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("providers: gemini client: %w", err)
	}
	return &GeminiAdapter{client: client, model: model}, nil
}

func (a *GeminiAdapter) Send(ctx context.Context, providerMessages []any, systemPrompt string, tools []orchestrator.ToolSpec) (*orchestrator.TurnResult, error) {
	contents := make([]*genai.Content, 0, len(providerMessages))
	for _, raw := range providerMessages {
		msg, ok := raw.(convmemory.GeminiMessage)
		if !ok {
			return nil, fmt.Errorf("providers: gemini adapter received non-GeminiMessage %T", raw)
		}
		contents = append(contents, toGeminiContent(msg))
	}

	config := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	}
	if len(tools) > 0 {
		config.Tools = toGeminiTools(tools)
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return nil, &ModelError{Provider: "gemini", Model: a.model, Cause: err}
	}
	if len(resp.Candidates) == 0 {
		return nil, &ModelError{Provider: "gemini", Model: a.model, Reason: ReasonServerError, Cause: fmt.Errorf("no candidates returned")}
	}

	candidate := resp.Candidates[0]
	result := &orchestrator.TurnResult{RawAssistantContent: resp}
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				result.Text += part.Text
			}
			if part.FunctionCall != nil {
				result.ToolCalls = append(result.ToolCalls, models.ToolInvocation{
					ID:        part.FunctionCall.Name,
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				})
			}
		}
	}
	result.StopReason = string(candidate.FinishReason)
	return result, nil
}

func toGeminiContent(msg convmemory.GeminiMessage) *genai.Content {
	content := &genai.Content{Role: msg.Role}
	for _, p := range msg.Parts {
		switch {
		case p.FunctionCallName != "":
			content.Parts = append(content.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{Name: p.FunctionCallName, Args: p.FunctionCallArgs},
			})
		case p.FunctionResponse:
			content.Parts = append(content.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     p.FunctionCallID,
					Response: map[string]any{"result": p.Text},
				},
			})
		default:
			content.Parts = append(content.Parts, &genai.Part{Text: p.Text})
		}
	}
	return content
}

func toGeminiTools(tools []orchestrator.ToolSpec) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toGeminiSchema(NormalizeGeminiSchema(t.InputSchema)),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// toGeminiSchema is a best-effort conversion of a normalized JSON-Schema
// map into genai.Schema. It carries over "type" (copied as is, with no
// case mapping or validation), "description", "properties" and
// "required"; "items" and "enum" are not converted.
func toGeminiSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}
	out := &genai.Schema{}
	if t, ok := schema["type"].(string); ok {
		out.Type = genai.Type(t)
	}
	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		out.Properties = map[string]*genai.Schema{}
		for name, propSchema := range props {
			if nested, ok := propSchema.(map[string]any); ok {
				out.Properties[name] = toGeminiSchema(nested)
			}
		}
	}
	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	return out
}
