package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageRole is the universal message role, shared across every provider.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
	RoleTool      MessageRole = "tool"
	RoleFunction  MessageRole = "function"
)

func (r MessageRole) valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool, RoleFunction:
		return true
	default:
		return false
	}
}

// MessageType further categorizes a UniversalMessage's content for
// filtering and search.
type MessageType string

const (
	MessageText       MessageType = "text"
	MessageToolCall   MessageType = "tool_call"
	MessageToolResult MessageType = "tool_result"
	MessageImage      MessageType = "image"
	MessageAudio      MessageType = "audio"
	MessageMultimodal MessageType = "multimodal"
)

func (t MessageType) valid() bool {
	switch t {
	case MessageText, MessageToolCall, MessageToolResult, MessageImage, MessageAudio, MessageMultimodal:
		return true
	default:
		return false
	}
}

// UnknownEnumError is returned when deserializing a message or session
// whose role/message_type does not match a known value.
type UnknownEnumError struct {
	Field string
	Value string
}

func (e *UnknownEnumError) Error() string {
	return fmt.Sprintf("models: unknown %s %q", e.Field, e.Value)
}

// ToolInvocation is a single tool call requested by the assistant.
// id is the provider-assigned call identifier, unique within a turn.
type ToolInvocation struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolOutcome is the result of executing a ToolInvocation.
type ToolOutcome struct {
	InvocationID   string `json:"invocation_id"`
	TextPayload    string `json:"text_payload,omitempty"`
	ErrorText      string `json:"error_text,omitempty"`
	TruncatedBytes int    `json:"truncated_bytes,omitempty"`
}

// ToolDescriptor is a normalized tool catalogue entry discovered from the
// tool server at connect time or per-turn. Names are unique within a
// turn's catalogue.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// UniversalMessage is a single conversational utterance in
// provider-neutral form. Construct with NewUniversalMessage so
// message_id/timestamp are always populated.
type UniversalMessage struct {
	Role        MessageRole    `json:"role"`
	Content     any            `json:"content"`
	MessageType MessageType    `json:"message_type"`
	Timestamp   time.Time      `json:"timestamp"`
	MessageID   string         `json:"message_id"`
	SessionID   string         `json:"session_id,omitempty"`
	Provider    string         `json:"provider,omitempty"`
	RawContent  any            `json:"raw_content,omitempty"`

	TokenCount  *int             `json:"token_count,omitempty"`
	ToolCalls   []ToolInvocation `json:"tool_calls,omitempty"`
	ToolResults []ToolOutcome    `json:"tool_results,omitempty"`

	UserID      string         `json:"user_id,omitempty"`
	ContextTags []string       `json:"context_tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewUniversalMessage constructs a message with message_id and timestamp
// filled in, mirroring the __post_init__ defaulting of the original
// UniversalMessage dataclass.
func NewUniversalMessage(role MessageRole, content any) *UniversalMessage {
	return &UniversalMessage{
		Role:        role,
		Content:     content,
		MessageType: MessageText,
		Timestamp:   time.Now().UTC(),
		MessageID:   uuid.NewString(),
	}
}

// universalMessageWire is the JSON wire shape; it exists so timestamps
// round-trip as RFC3339 strings and enums round-trip as their string
// values, without exposing those conversions on the public struct.
type universalMessageWire struct {
	Role        MessageRole      `json:"role"`
	Content     any              `json:"content"`
	MessageType MessageType      `json:"message_type"`
	Timestamp   string           `json:"timestamp"`
	MessageID   string           `json:"message_id"`
	SessionID   string           `json:"session_id,omitempty"`
	Provider    string           `json:"provider,omitempty"`
	RawContent  any              `json:"raw_content,omitempty"`
	TokenCount  *int             `json:"token_count,omitempty"`
	ToolCalls   []ToolInvocation `json:"tool_calls,omitempty"`
	ToolResults []ToolOutcome    `json:"tool_results,omitempty"`
	UserID      string           `json:"user_id,omitempty"`
	ContextTags []string         `json:"context_tags,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

// MarshalJSON renders the message with an ISO-8601 UTC timestamp.
func (m UniversalMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(universalMessageWire{
		Role:        m.Role,
		Content:     m.Content,
		MessageType: m.MessageType,
		Timestamp:   m.Timestamp.UTC().Format(time.RFC3339Nano),
		MessageID:   m.MessageID,
		SessionID:   m.SessionID,
		Provider:    m.Provider,
		RawContent:  m.RawContent,
		TokenCount:  m.TokenCount,
		ToolCalls:   m.ToolCalls,
		ToolResults: m.ToolResults,
		UserID:      m.UserID,
		ContextTags: m.ContextTags,
		Metadata:    m.Metadata,
	})
}

// UnmarshalJSON parses a message, rejecting unknown role/message_type
// values with a typed error rather than silently accepting garbage.
func (m *UniversalMessage) UnmarshalJSON(data []byte) error {
	var wire universalMessageWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Role == "" {
		wire.Role = RoleUser
	}
	if !wire.Role.valid() {
		return &UnknownEnumError{Field: "role", Value: string(wire.Role)}
	}
	if wire.MessageType == "" {
		wire.MessageType = MessageText
	}
	if !wire.MessageType.valid() {
		return &UnknownEnumError{Field: "message_type", Value: string(wire.MessageType)}
	}
	ts := time.Now().UTC()
	if wire.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339Nano, wire.Timestamp)
		if err != nil {
			return fmt.Errorf("models: parse timestamp: %w", err)
		}
		ts = parsed
	}
	*m = UniversalMessage{
		Role:        wire.Role,
		Content:     wire.Content,
		MessageType: wire.MessageType,
		Timestamp:   ts,
		MessageID:   wire.MessageID,
		SessionID:   wire.SessionID,
		Provider:    wire.Provider,
		RawContent:  wire.RawContent,
		TokenCount:  wire.TokenCount,
		ToolCalls:   wire.ToolCalls,
		ToolResults: wire.ToolResults,
		UserID:      wire.UserID,
		ContextTags: wire.ContextTags,
		Metadata:    wire.Metadata,
	}
	return nil
}

// ToJSON mirrors UniversalMessage.to_json in the original SDK.
func (m UniversalMessage) ToJSON() (string, error) {
	b, err := json.Marshal(m)
	return string(b), err
}

// UniversalMessageFromJSON mirrors UniversalMessage.from_json.
func UniversalMessageFromJSON(data string) (*UniversalMessage, error) {
	var m UniversalMessage
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// MemoryStrategy selects how a session's context is pruned as it grows.
// Only "fifo" is implemented; the others are reserved for future use.
type MemoryStrategy string

const (
	MemoryStrategyFIFO     MemoryStrategy = "fifo"
	MemoryStrategyPriority MemoryStrategy = "priority"
	MemoryStrategySemantic MemoryStrategy = "semantic"
)

// ConversationSession is the metadata record for an ordered sequence of
// UniversalMessages. Construct with NewConversationSession so
// created_at/last_activity are always populated.
type ConversationSession struct {
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id,omitempty"`
	ClientType    string    `json:"client_type,omitempty"`
	SystemPrompt  string    `json:"system_prompt,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastActivity  time.Time `json:"last_activity"`
	MessageCount  int       `json:"message_count"`

	MaxContextLength int            `json:"max_context_length,omitempty"`
	MemoryStrategy   MemoryStrategy `json:"memory_strategy,omitempty"`

	ContextTags     []string       `json:"context_tags,omitempty"`
	SessionMetadata map[string]any `json:"session_metadata,omitempty"`
}

// NewConversationSession constructs a session with created_at/last_activity
// defaulted to now and memory_strategy defaulted to fifo.
func NewConversationSession(sessionID string) *ConversationSession {
	now := time.Now().UTC()
	return &ConversationSession{
		SessionID:      sessionID,
		CreatedAt:      now,
		LastActivity:   now,
		MemoryStrategy: MemoryStrategyFIFO,
	}
}

// UpdateActivity bumps LastActivity to now, mirroring
// ConversationSession.update_activity.
func (s *ConversationSession) UpdateActivity() {
	s.LastActivity = time.Now().UTC()
}

type conversationSessionWire struct {
	SessionID        string         `json:"session_id"`
	UserID           string         `json:"user_id,omitempty"`
	ClientType       string         `json:"client_type,omitempty"`
	SystemPrompt     string         `json:"system_prompt,omitempty"`
	CreatedAt        string         `json:"created_at"`
	LastActivity     string         `json:"last_activity"`
	MessageCount     int            `json:"message_count"`
	MaxContextLength int            `json:"max_context_length,omitempty"`
	MemoryStrategy   MemoryStrategy `json:"memory_strategy,omitempty"`
	ContextTags      []string       `json:"context_tags,omitempty"`
	SessionMetadata  map[string]any `json:"session_metadata,omitempty"`
}

// MarshalJSON renders the session with ISO-8601 UTC timestamps.
func (s ConversationSession) MarshalJSON() ([]byte, error) {
	return json.Marshal(conversationSessionWire{
		SessionID:        s.SessionID,
		UserID:           s.UserID,
		ClientType:       s.ClientType,
		SystemPrompt:     s.SystemPrompt,
		CreatedAt:        s.CreatedAt.UTC().Format(time.RFC3339Nano),
		LastActivity:     s.LastActivity.UTC().Format(time.RFC3339Nano),
		MessageCount:     s.MessageCount,
		MaxContextLength: s.MaxContextLength,
		MemoryStrategy:   s.MemoryStrategy,
		ContextTags:      s.ContextTags,
		SessionMetadata:  s.SessionMetadata,
	})
}

// UnmarshalJSON parses a session record.
func (s *ConversationSession) UnmarshalJSON(data []byte) error {
	var wire conversationSessionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	parseTime := func(v string) (time.Time, error) {
		if v == "" {
			return time.Now().UTC(), nil
		}
		return time.Parse(time.RFC3339Nano, v)
	}
	createdAt, err := parseTime(wire.CreatedAt)
	if err != nil {
		return fmt.Errorf("models: parse created_at: %w", err)
	}
	lastActivity, err := parseTime(wire.LastActivity)
	if err != nil {
		return fmt.Errorf("models: parse last_activity: %w", err)
	}
	if wire.MemoryStrategy == "" {
		wire.MemoryStrategy = MemoryStrategyFIFO
	}
	*s = ConversationSession{
		SessionID:        wire.SessionID,
		UserID:           wire.UserID,
		ClientType:       wire.ClientType,
		SystemPrompt:     wire.SystemPrompt,
		CreatedAt:        createdAt,
		LastActivity:     lastActivity,
		MessageCount:     wire.MessageCount,
		MaxContextLength: wire.MaxContextLength,
		MemoryStrategy:   wire.MemoryStrategy,
		ContextTags:      wire.ContextTags,
		SessionMetadata:  wire.SessionMetadata,
	}
	return nil
}

// ToJSON mirrors ConversationSession.to_dict/json.dumps in the original SDK.
func (s ConversationSession) ToJSON() (string, error) {
	b, err := json.Marshal(s)
	return string(b), err
}

// ConversationSessionFromJSON mirrors ConversationSession.from_dict.
func ConversationSessionFromJSON(data string) (*ConversationSession, error) {
	var s ConversationSession
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, err
	}
	return &s, nil
}
