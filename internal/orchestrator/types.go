// Package orchestrator drives the send/await-reply/dispatch-tools loop
// that turns a single user question into a finished assistant answer,
// invoking tools through a ToolExecutor and persisting every step
// through a conversation-memory facade.
package orchestrator

import (
	"context"

	"github.com/vianexus/agent-sdk-go/pkg/models"
)

// ToolSpec is the provider-agnostic shape a ModelTurn needs to advertise
// available tools to the backend.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// TurnResult is what a single request/response round trip against a
// model backend yields.
type TurnResult struct {
	// Text is the assistant's natural-language reply, if any.
	Text string
	// ToolCalls are the tool invocations the model requested, if any.
	ToolCalls []models.ToolInvocation
	// RawAssistantContent is the provider's own wire representation of
	// the assistant turn (content blocks, tool_calls array, parts list),
	// stored verbatim in UniversalMessage.RawContent so a later
	// from_universal reconstruction round-trips exactly.
	RawAssistantContent any
	// StopReason is the provider's stop/finish reason, surfaced for
	// logging only.
	StopReason string
}

// ModelTurn is implemented by a provider adapter (C9) and issues exactly
// one request/response round trip. providerMessages is whatever a
// Converter.FromUniversalBatch produced — the orchestrator never
// interprets its shape.
type ModelTurn interface {
	Send(ctx context.Context, providerMessages []any, systemPrompt string, tools []ToolSpec) (*TurnResult, error)
}

// ToolExecutor is what the orchestrator needs from a tool channel: invoke
// a tool by name, learn whether it failed, and list the available tools.
// providers.ToolChannelExecutor adapts a toolchannel.Manager to it.
type ToolExecutor interface {
	Invoke(ctx context.Context, name string, arguments map[string]any) (result string, isError bool, err error)
	Tools() []ToolSpecDescriptor
}

// ToolSpecDescriptor mirrors toolchannel.Descriptor without importing that
// package, keeping orchestrator decoupled from the transport layer.
type ToolSpecDescriptor struct {
	Name        string
	Description string
	InputSchema []byte
}

// Phase names the orchestrator's current position in the state machine.
type Phase string

const (
	PhaseReady         Phase = "ready"
	PhaseSend          Phase = "send"
	PhaseAwaitReply     Phase = "await_reply"
	PhaseText          Phase = "text"
	PhaseTools         Phase = "tools"
	PhasePersist       Phase = "persist"
	PhaseDispatch      Phase = "dispatch"
	PhaseInjectResults Phase = "inject_results"
	PhaseDone          Phase = "done"
)

// Outcome is the terminal result of Run.
type Outcome struct {
	FinalText      string
	Iterations     int
	ToolCallCount  int
	StopReason     string
}
