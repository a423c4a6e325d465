package providers

import (
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vianexus/agent-sdk-go/internal/convmemory"
	"github.com/vianexus/agent-sdk-go/internal/orchestrator"
	"github.com/vianexus/agent-sdk-go/pkg/models"
)

func TestToOpenAIChatMessage_PlainText(t *testing.T) {
	got := toOpenAIChatMessage(convmemory.OpenAIMessage{Role: "user", Content: "hello"})
	if got.Role != "user" || got.Content != "hello" {
		t.Errorf("got %#v", got)
	}
}

func TestToOpenAIChatMessage_ToolResultSwitchesRoleAndID(t *testing.T) {
	got := toOpenAIChatMessage(convmemory.OpenAIMessage{Role: "user", Content: "AAPL is $190", ToolCallID: "call-1"})
	if got.Role != openai.ChatMessageRoleTool {
		t.Errorf("Role = %q, want %q", got.Role, openai.ChatMessageRoleTool)
	}
	if got.ToolCallID != "call-1" {
		t.Errorf("ToolCallID = %q, want call-1", got.ToolCallID)
	}
}

func TestToOpenAIChatMessage_ToolCallsSerializeArguments(t *testing.T) {
	got := toOpenAIChatMessage(convmemory.OpenAIMessage{
		Role: "assistant",
		ToolCalls: []models.ToolInvocation{
			{ID: "call-1", Name: "get_quote", Arguments: map[string]any{"ticker": "AAPL"}},
		},
	})
	if len(got.ToolCalls) != 1 {
		t.Fatalf("ToolCalls = %#v", got.ToolCalls)
	}
	tc := got.ToolCalls[0]
	if tc.ID != "call-1" || tc.Function.Name != "get_quote" {
		t.Errorf("tool call = %#v", tc)
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
		t.Fatalf("unmarshal arguments: %v", err)
	}
	if args["ticker"] != "AAPL" {
		t.Errorf("args = %#v", args)
	}
}

func TestToOpenAITools_CarriesSchema(t *testing.T) {
	tools := []orchestrator.ToolSpec{
		{Name: "get_quote", Description: "fetch a quote", InputSchema: map[string]any{"type": "object"}},
	}
	out := toOpenAITools(tools)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0].Function.Name != "get_quote" {
		t.Errorf("Name = %q, want get_quote", out[0].Function.Name)
	}
	if out[0].Type != openai.ToolTypeFunction {
		t.Errorf("Type = %q, want function", out[0].Type)
	}
}
