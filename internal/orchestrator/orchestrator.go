package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vianexus/agent-sdk-go/internal/convmemory"
	"github.com/vianexus/agent-sdk-go/pkg/models"
)

const (
	defaultMaxIterations  = 10
	defaultHistoryLimit   = 50
)

// Config tunes the orchestrator's iteration and history limits.
type Config struct {
	// MaxIterations bounds how many send/await-reply round trips a
	// single Run performs before giving up and returning a fallback
	// message that names the limit.
	MaxIterations int
	// MaxHistoryMessages caps how many prior messages are loaded and
	// sent back to the model on each turn.
	MaxHistoryMessages int
}

func (c Config) sanitized() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = defaultMaxIterations
	}
	if c.MaxHistoryMessages <= 0 {
		c.MaxHistoryMessages = defaultHistoryLimit
	}
	return c
}

// Orchestrator runs the READY -> SEND -> AWAIT_REPLY -> (TEXT|TOOLS) ->
// PERSIST/DISPATCH -> INJECT_RESULTS -> SEND loop for a single provider.
type Orchestrator struct {
	model   ModelTurn
	tools   ToolExecutor
	memory  *convmemory.Facade
	cfg     Config
}

// New builds an Orchestrator over a model backend, an optional tool
// executor (nil disables tool dispatch entirely), and a memory facade.
func New(model ModelTurn, tools ToolExecutor, memory *convmemory.Facade, cfg Config) *Orchestrator {
	return &Orchestrator{model: model, tools: tools, memory: memory, cfg: cfg.sanitized()}
}

// Run persists the user's question, then drives the loop until the model
// produces a turn with no further tool calls, or MaxIterations is
// exhausted — at which point FinalText is a fallback message naming the
// limit, not the model's text.
func (o *Orchestrator) Run(ctx context.Context, systemPrompt, question string) (*Outcome, error) {
	if _, err := o.memory.Save(ctx, models.RoleUser, question, models.MessageText, nil); err != nil {
		return nil, fmt.Errorf("orchestrator: persist question: %w", err)
	}

	var toolSpecs []ToolSpec
	if o.tools != nil {
		for _, d := range o.tools.Tools() {
			var schema map[string]any
			if len(d.InputSchema) > 0 {
				_ = json.Unmarshal(d.InputSchema, &schema)
			}
			toolSpecs = append(toolSpecs, ToolSpec{Name: d.Name, Description: d.Description, InputSchema: schema})
		}
	}

	outcome := &Outcome{}
	for iteration := 0; iteration < o.cfg.MaxIterations; iteration++ {
		outcome.Iterations = iteration + 1

		historyAny, err := o.memory.LoadHistory(ctx, o.cfg.MaxHistoryMessages, true, nil)
		if err != nil {
			return outcome, fmt.Errorf("orchestrator: load history: %w", err)
		}

		turn, err := o.model.Send(ctx, historyAny, systemPrompt, toolSpecs)
		if err != nil {
			return outcome, fmt.Errorf("orchestrator: model turn: %w", err)
		}
		outcome.StopReason = turn.StopReason

		if len(turn.ToolCalls) == 0 && turn.Text != "" {
			if recoveredText, recovered := RecoverToolCallsFromText(turn.Text); len(recovered) > 0 {
				turn.Text = recoveredText
				turn.ToolCalls = recovered
			}
		}

		if _, err := o.memory.SaveToolExchange(ctx, models.RoleAssistant, turn.Text, turn.RawAssistantContent, turn.ToolCalls, nil, nil); err != nil {
			return outcome, fmt.Errorf("orchestrator: persist assistant turn: %w", err)
		}

		if len(turn.ToolCalls) == 0 {
			outcome.FinalText = turn.Text
			return outcome, nil
		}

		if o.tools == nil {
			outcome.FinalText = turn.Text
			return outcome, fmt.Errorf("orchestrator: model requested tools but no tool channel is configured")
		}

		schemaByName := make(map[string]map[string]any, len(toolSpecs))
		for _, spec := range toolSpecs {
			schemaByName[spec.Name] = spec.InputSchema
		}

		outcomes := make([]models.ToolOutcome, 0, len(turn.ToolCalls))
		for _, call := range turn.ToolCalls {
			outcome.ToolCallCount++
			toolOutcome := models.ToolOutcome{InvocationID: call.ID}

			if err := ValidateToolArguments(call.Name, schemaByName[call.Name], call.Arguments); err != nil {
				toolOutcome.ErrorText = err.Error()
				outcomes = append(outcomes, toolOutcome)
				continue
			}

			result, isError, invokeErr := o.tools.Invoke(ctx, call.Name, call.Arguments)
			switch {
			case invokeErr != nil:
				toolOutcome.ErrorText = invokeErr.Error()
			case isError:
				toolOutcome.ErrorText = result
			default:
				toolOutcome.TextPayload = result
			}
			outcomes = append(outcomes, toolOutcome)
		}

		if _, err := o.memory.SaveToolExchange(ctx, models.RoleUser, toolResultsText(outcomes), nil, nil, outcomes, nil); err != nil {
			return outcome, fmt.Errorf("orchestrator: persist tool results: %w", err)
		}
	}

	outcome.FinalText = fmt.Sprintf("reached maximum of %d tool iterations without a final answer", o.cfg.MaxIterations)
	return outcome, nil
}

// toolResultsText concatenates each tool outcome's payload (or error text)
// into a single searchable string, so a message persisted with an empty
// Content field never silently loses its only copy of the tool output.
func toolResultsText(outcomes []models.ToolOutcome) string {
	var b strings.Builder
	for i, o := range outcomes {
		if i > 0 {
			b.WriteString("\n")
		}
		text := o.TextPayload
		if text == "" {
			text = o.ErrorText
		}
		fmt.Fprintf(&b, "[tool_result %s] %s", o.InvocationID, text)
	}
	return b.String()
}
