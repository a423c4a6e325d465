package providers

import (
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/vianexus/agent-sdk-go/internal/convmemory"
	"github.com/vianexus/agent-sdk-go/internal/orchestrator"
)

func TestToAnthropicMessageParam_UserText(t *testing.T) {
	param, err := toAnthropicMessageParam(convmemory.AnthropicMessage{Role: "user", Content: "hello"})
	if err != nil {
		t.Fatalf("toAnthropicMessageParam: %v", err)
	}
	if param.Role != anthropic.MessageParamRoleUser {
		t.Errorf("Role = %v, want user", param.Role)
	}
	if len(param.Content) != 1 {
		t.Fatalf("Content blocks = %d, want 1", len(param.Content))
	}
}

func TestToAnthropicMessageParam_AssistantText(t *testing.T) {
	param, err := toAnthropicMessageParam(convmemory.AnthropicMessage{Role: "assistant", Content: "hi back"})
	if err != nil {
		t.Fatalf("toAnthropicMessageParam: %v", err)
	}
	if param.Role != anthropic.MessageParamRoleAssistant {
		t.Errorf("Role = %v, want assistant", param.Role)
	}
}

func TestToAnthropicTools_CarriesNameAndDescription(t *testing.T) {
	tools := []orchestrator.ToolSpec{
		{
			Name:        "get_quote",
			Description: "fetch a stock quote",
			InputSchema: map[string]any{
				"properties": map[string]any{"ticker": map[string]any{"type": "string"}},
			},
		},
	}
	out := toAnthropicTools(tools)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0].OfTool == nil {
		t.Fatal("expected OfTool to be set")
	}
	if out[0].OfTool.Name != "get_quote" {
		t.Errorf("Name = %q, want get_quote", out[0].OfTool.Name)
	}
}

func TestDecodeToolInput_Map(t *testing.T) {
	args, ok := decodeToolInput(map[string]any{"ticker": "AAPL"})
	if !ok {
		t.Fatal("expected ok=true for a map input")
	}
	if args["ticker"] != "AAPL" {
		t.Errorf("args = %#v", args)
	}
}

func TestDecodeToolInput_NonMap(t *testing.T) {
	_, ok := decodeToolInput("not a map")
	if ok {
		t.Error("expected ok=false for a non-map input")
	}
}

func TestClassifyAnthropicError_WrapsAsModelError(t *testing.T) {
	err := classifyAnthropicError(errors.New("rate limited"))
	me, ok := err.(*ModelError)
	if !ok {
		t.Fatalf("classifyAnthropicError returned %T, want *ModelError", err)
	}
	if me.Provider != "anthropic" {
		t.Errorf("Provider = %q, want anthropic", me.Provider)
	}
}
