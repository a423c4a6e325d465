package convmemory

import (
	"fmt"

	"github.com/vianexus/agent-sdk-go/pkg/models"
)

// Converter translates between a provider's native message shape and
// UniversalMessage. Implementations must round-trip losslessly for
// messages that originated from their own provider (via RawContent) and
// must produce a valid minimal provider shape for messages synthesized
// by a different provider (cross-provider replay).
type Converter interface {
	ToUniversal(raw any) (*models.UniversalMessage, error)
	FromUniversal(msg *models.UniversalMessage) (any, error)
	ToUniversalBatch(raw []any) ([]*models.UniversalMessage, error)
	FromUniversalBatch(msgs []*models.UniversalMessage) ([]any, error)

	// ExtractTextContent yields a searchable plain string, concatenating
	// text blocks and inserting placeholders for non-text blocks.
	ExtractTextContent(raw any) string
}

// ConverterRegistry is a per-process map of provider name to Converter.
// There is no global mutable state; callers build one registry and share
// it. Register adds or replaces entries after construction and is not
// synchronized with concurrent Get calls.
type ConverterRegistry struct {
	converters map[string]Converter
}

// NewConverterRegistry builds a registry pre-populated with converters for
// anthropic, openai, and gemini — the three supported providers.
func NewConverterRegistry() *ConverterRegistry {
	return &ConverterRegistry{
		converters: map[string]Converter{
			"anthropic": &AnthropicConverter{},
			"openai":    &OpenAIConverter{},
			"gemini":    &GeminiConverter{},
		},
	}
}

func (r *ConverterRegistry) Get(provider string) (Converter, error) {
	c, ok := r.converters[provider]
	if !ok {
		return nil, fmt.Errorf("convmemory: no converter registered for provider %q", provider)
	}
	return c, nil
}

func (r *ConverterRegistry) Has(provider string) bool {
	_, ok := r.converters[provider]
	return ok
}

func (r *ConverterRegistry) Register(provider string, c Converter) {
	r.converters[provider] = c
}

func (r *ConverterRegistry) Providers() []string {
	out := make([]string, 0, len(r.converters))
	for p := range r.converters {
		out = append(out, p)
	}
	return out
}

// --- Anthropic -------------------------------------------------------

// anthropicBlock is the minimal shape of an Anthropic content block this
// converter cares about.
type anthropicBlock struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name,omitempty"`
	Input   map[string]any `json:"input,omitempty"`
	ToolUID string         `json:"tool_use_id,omitempty"`
}

// AnthropicMessage is the minimal wire shape this converter round-trips:
// a role plus either a plain string or a list of content blocks.
type AnthropicMessage struct {
	Role    string
	Content any // string or []anthropicBlock
}

// AnthropicConverter implements Converter for Anthropic-shaped messages.
// Any tool_use block makes the message a tool_call; any tool_result
// block makes it a tool_result; otherwise it is text.
type AnthropicConverter struct{}

func (c *AnthropicConverter) ToUniversal(raw any) (*models.UniversalMessage, error) {
	am, ok := raw.(AnthropicMessage)
	if !ok {
		return nil, fmt.Errorf("convmemory: anthropic converter expects AnthropicMessage, got %T", raw)
	}
	msg := models.NewUniversalMessage(models.MessageRole(am.Role), am.Content)
	msg.Provider = "anthropic"
	msg.RawContent = am

	blocks, isBlocks := am.Content.([]anthropicBlock)
	if !isBlocks {
		return msg, nil
	}

	hasToolUse, hasToolResult := false, false
	for _, b := range blocks {
		switch b.Type {
		case "tool_use":
			hasToolUse = true
			msg.ToolCalls = append(msg.ToolCalls, models.ToolInvocation{ID: b.ID, Name: b.Name, Arguments: b.Input})
		case "tool_result":
			hasToolResult = true
			msg.ToolResults = append(msg.ToolResults, models.ToolOutcome{InvocationID: b.ToolUID, TextPayload: b.Text})
		}
	}
	switch {
	case hasToolUse:
		msg.MessageType = models.MessageToolCall
	case hasToolResult:
		msg.MessageType = models.MessageToolResult
	default:
		msg.MessageType = models.MessageText
	}
	return msg, nil
}

func (c *AnthropicConverter) FromUniversal(msg *models.UniversalMessage) (any, error) {
	if msg.Provider == "anthropic" {
		if raw, ok := msg.RawContent.(AnthropicMessage); ok {
			return raw, nil
		}
	}
	return AnthropicMessage{Role: string(msg.Role), Content: extractPlainText(msg)}, nil
}

func (c *AnthropicConverter) ToUniversalBatch(raw []any) ([]*models.UniversalMessage, error) {
	return toUniversalBatch(c, raw)
}

func (c *AnthropicConverter) FromUniversalBatch(msgs []*models.UniversalMessage) ([]any, error) {
	return fromUniversalBatch(c, msgs)
}

func (c *AnthropicConverter) ExtractTextContent(raw any) string {
	am, ok := raw.(AnthropicMessage)
	if !ok {
		return fmt.Sprint(raw)
	}
	if s, ok := am.Content.(string); ok {
		return s
	}
	blocks, ok := am.Content.([]anthropicBlock)
	if !ok {
		return fmt.Sprint(am.Content)
	}
	return joinBlocks(blocks)
}

func joinBlocks(blocks []anthropicBlock) string {
	out := ""
	for i, b := range blocks {
		if i > 0 {
			out += " "
		}
		switch b.Type {
		case "text":
			out += b.Text
		case "tool_use":
			name := b.Name
			if name == "" {
				name = "unknown_tool"
			}
			out += fmt.Sprintf("[Tool: %s]", name)
		case "tool_result":
			out += "[Tool Result]"
		}
	}
	return out
}

// --- OpenAI ------------------------------------------------------------

// OpenAIMessage is the minimal chat-completions-shaped wire record this
// converter round-trips, preserving tool calls symmetrically with the
// other two providers rather than replicating the original SDK's
// asymmetry where OpenAI lost tool-call context on replay.
type OpenAIMessage struct {
	Role       string
	Content    string
	ToolCalls  []models.ToolInvocation
	ToolCallID string // set on role="tool" messages carrying a result
}

type OpenAIConverter struct{}

func (c *OpenAIConverter) ToUniversal(raw any) (*models.UniversalMessage, error) {
	om, ok := raw.(OpenAIMessage)
	if !ok {
		return nil, fmt.Errorf("convmemory: openai converter expects OpenAIMessage, got %T", raw)
	}
	msg := models.NewUniversalMessage(models.MessageRole(om.Role), om.Content)
	msg.Provider = "openai"
	msg.RawContent = om
	switch {
	case len(om.ToolCalls) > 0:
		msg.MessageType = models.MessageToolCall
		msg.ToolCalls = om.ToolCalls
	case om.ToolCallID != "":
		msg.MessageType = models.MessageToolResult
		msg.ToolResults = []models.ToolOutcome{{InvocationID: om.ToolCallID, TextPayload: om.Content}}
	default:
		msg.MessageType = models.MessageText
	}
	return msg, nil
}

func (c *OpenAIConverter) FromUniversal(msg *models.UniversalMessage) (any, error) {
	if msg.Provider == "openai" {
		if raw, ok := msg.RawContent.(OpenAIMessage); ok {
			return raw, nil
		}
	}
	om := OpenAIMessage{Role: string(msg.Role), Content: extractPlainText(msg)}
	if len(msg.ToolCalls) > 0 {
		om.ToolCalls = msg.ToolCalls
	}
	if len(msg.ToolResults) > 0 {
		om.ToolCallID = msg.ToolResults[0].InvocationID
	}
	return om, nil
}

func (c *OpenAIConverter) ToUniversalBatch(raw []any) ([]*models.UniversalMessage, error) {
	return toUniversalBatch(c, raw)
}

func (c *OpenAIConverter) FromUniversalBatch(msgs []*models.UniversalMessage) ([]any, error) {
	return fromUniversalBatch(c, msgs)
}

func (c *OpenAIConverter) ExtractTextContent(raw any) string {
	om, ok := raw.(OpenAIMessage)
	if !ok {
		return fmt.Sprint(raw)
	}
	text := om.Content
	for _, tc := range om.ToolCalls {
		text += fmt.Sprintf(" [Tool: %s]", tc.Name)
	}
	if om.ToolCallID != "" {
		text += " [Tool Result]"
	}
	return text
}

// --- Gemini --------------------------------------------------------

// GeminiPart mirrors the minimal shape of a Gemini Content part.
type GeminiPart struct {
	Text             string
	FunctionCallName string
	FunctionCallArgs map[string]any
	FunctionCallID   string
	FunctionResponse bool
}

// GeminiMessage mirrors Gemini's Content{Role, Parts} shape.
type GeminiMessage struct {
	Role  string
	Parts []GeminiPart
}

type GeminiConverter struct{}

func (c *GeminiConverter) ToUniversal(raw any) (*models.UniversalMessage, error) {
	gm, ok := raw.(GeminiMessage)
	if !ok {
		return nil, fmt.Errorf("convmemory: gemini converter expects GeminiMessage, got %T", raw)
	}
	msg := models.NewUniversalMessage(models.MessageRole(gm.Role), gm)
	msg.Provider = "gemini"
	msg.RawContent = gm

	hasCall, hasResponse := false, false
	for _, p := range gm.Parts {
		if p.FunctionCallName != "" {
			hasCall = true
			msg.ToolCalls = append(msg.ToolCalls, models.ToolInvocation{ID: p.FunctionCallID, Name: p.FunctionCallName, Arguments: p.FunctionCallArgs})
		}
		if p.FunctionResponse {
			hasResponse = true
			msg.ToolResults = append(msg.ToolResults, models.ToolOutcome{InvocationID: p.FunctionCallID, TextPayload: p.Text})
		}
	}
	switch {
	case hasCall:
		msg.MessageType = models.MessageToolCall
	case hasResponse:
		msg.MessageType = models.MessageToolResult
	default:
		msg.MessageType = models.MessageText
	}
	msg.Content = c.ExtractTextContent(gm)
	return msg, nil
}

func (c *GeminiConverter) FromUniversal(msg *models.UniversalMessage) (any, error) {
	if msg.Provider == "gemini" {
		if raw, ok := msg.RawContent.(GeminiMessage); ok {
			return raw, nil
		}
	}
	gm := GeminiMessage{Role: string(msg.Role)}
	if text := extractPlainText(msg); text != "" {
		gm.Parts = append(gm.Parts, GeminiPart{Text: text})
	}
	for _, tc := range msg.ToolCalls {
		gm.Parts = append(gm.Parts, GeminiPart{FunctionCallName: tc.Name, FunctionCallArgs: tc.Arguments, FunctionCallID: tc.ID})
	}
	for _, tr := range msg.ToolResults {
		gm.Parts = append(gm.Parts, GeminiPart{FunctionResponse: true, FunctionCallID: tr.InvocationID, Text: tr.TextPayload})
	}
	return gm, nil
}

func (c *GeminiConverter) ToUniversalBatch(raw []any) ([]*models.UniversalMessage, error) {
	return toUniversalBatch(c, raw)
}

func (c *GeminiConverter) FromUniversalBatch(msgs []*models.UniversalMessage) ([]any, error) {
	return fromUniversalBatch(c, msgs)
}

func (c *GeminiConverter) ExtractTextContent(raw any) string {
	gm, ok := raw.(GeminiMessage)
	if !ok {
		return fmt.Sprint(raw)
	}
	out := ""
	for i, p := range gm.Parts {
		if i > 0 {
			out += " "
		}
		switch {
		case p.FunctionCallName != "":
			out += fmt.Sprintf("[Tool: %s]", p.FunctionCallName)
		case p.FunctionResponse:
			out += "[Tool Result]"
		default:
			out += p.Text
		}
	}
	return out
}

// --- shared helpers --------------------------------------------------

func toUniversalBatch(c Converter, raw []any) ([]*models.UniversalMessage, error) {
	out := make([]*models.UniversalMessage, 0, len(raw))
	for _, r := range raw {
		m, err := c.ToUniversal(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func fromUniversalBatch(c Converter, msgs []*models.UniversalMessage) ([]any, error) {
	out := make([]any, 0, len(msgs))
	for _, m := range msgs {
		r, err := c.FromUniversal(m)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func extractPlainText(msg *models.UniversalMessage) string {
	if s, ok := msg.Content.(string); ok {
		return s
	}
	return stringifyContent(msg.Content)
}

func stringifyContent(content any) string {
	if s, ok := content.(string); ok {
		return s
	}
	return fmt.Sprint(content)
}
