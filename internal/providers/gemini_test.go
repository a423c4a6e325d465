package providers

import (
	"testing"

	"github.com/vianexus/agent-sdk-go/internal/convmemory"
	"github.com/vianexus/agent-sdk-go/internal/orchestrator"
)

func TestToGeminiContent_Text(t *testing.T) {
	content := toGeminiContent(convmemory.GeminiMessage{Role: "user", Parts: []convmemory.GeminiPart{{Text: "hello"}}})
	if content.Role != "user" {
		t.Errorf("Role = %q, want user", content.Role)
	}
	if len(content.Parts) != 1 || content.Parts[0].Text != "hello" {
		t.Fatalf("Parts = %#v", content.Parts)
	}
}

func TestToGeminiContent_FunctionCall(t *testing.T) {
	content := toGeminiContent(convmemory.GeminiMessage{
		Role: "model",
		Parts: []convmemory.GeminiPart{
			{FunctionCallName: "get_quote", FunctionCallArgs: map[string]any{"ticker": "AAPL"}},
		},
	})
	if len(content.Parts) != 1 || content.Parts[0].FunctionCall == nil {
		t.Fatalf("Parts = %#v", content.Parts)
	}
	if content.Parts[0].FunctionCall.Name != "get_quote" {
		t.Errorf("FunctionCall.Name = %q", content.Parts[0].FunctionCall.Name)
	}
}

func TestToGeminiContent_FunctionResponse(t *testing.T) {
	content := toGeminiContent(convmemory.GeminiMessage{
		Role: "user",
		Parts: []convmemory.GeminiPart{
			{FunctionResponse: true, FunctionCallID: "get_quote", Text: "AAPL is $190"},
		},
	})
	if len(content.Parts) != 1 || content.Parts[0].FunctionResponse == nil {
		t.Fatalf("Parts = %#v", content.Parts)
	}
	if content.Parts[0].FunctionResponse.Response["result"] != "AAPL is $190" {
		t.Errorf("Response = %#v", content.Parts[0].FunctionResponse.Response)
	}
}

func TestToGeminiSchema_Nil(t *testing.T) {
	if got := toGeminiSchema(nil); got != nil {
		t.Errorf("expected nil, got %#v", got)
	}
}

func TestToGeminiSchema_NestedProperties(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ticker": map[string]any{"type": "string"},
		},
		"required": []any{"ticker"},
	}
	out := toGeminiSchema(schema)
	if out == nil {
		t.Fatal("expected non-nil schema")
	}
	if string(out.Type) != "object" {
		t.Errorf("Type = %q, want object", out.Type)
	}
	if out.Properties["ticker"] == nil || string(out.Properties["ticker"].Type) != "string" {
		t.Errorf("Properties[ticker] = %#v", out.Properties["ticker"])
	}
	if len(out.Required) != 1 || out.Required[0] != "ticker" {
		t.Errorf("Required = %#v", out.Required)
	}
}

func TestToGeminiTools_WrapsDeclarationsInSingleTool(t *testing.T) {
	tools := []orchestrator.ToolSpec{
		{Name: "get_quote", Description: "fetch a quote", InputSchema: map[string]any{"type": "object"}},
	}
	out := toGeminiTools(tools)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if len(out[0].FunctionDeclarations) != 1 || out[0].FunctionDeclarations[0].Name != "get_quote" {
		t.Errorf("FunctionDeclarations = %#v", out[0].FunctionDeclarations)
	}
}
