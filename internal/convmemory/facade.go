package convmemory

import (
	"context"
	"fmt"

	"github.com/vianexus/agent-sdk-go/pkg/models"
)

// Facade composes Store, SessionManager, and the converter registry into
// the single API a provider adapter consumes, mirroring
// ConversationMemoryMixin from the original SDK translated from
// Python-mixin inheritance to Go struct composition.
type Facade struct {
	store      Store
	sessions   *SessionManager
	converters *ConverterRegistry

	sessionID      string
	userID         string
	providerName   string
	mcpSessionID   string
	initialized    bool
}

// NewFacade builds a Facade over store for the named provider. sessionID
// and userID may be empty; sessionID is then generated lazily on first
// use via Initialize.
func NewFacade(store Store, converters *ConverterRegistry, sessionID, userID, providerName string) *Facade {
	if converters == nil {
		converters = NewConverterRegistry()
	}
	return &Facade{
		store:        store,
		sessions:     NewSessionManager(store),
		converters:   converters,
		sessionID:    sessionID,
		userID:       userID,
		providerName: providerName,
	}
}

// SetMCPSessionID records the owning client's transport session id so it
// can be written into session metadata purely for diagnostics; it must
// never be treated as the session's primary key.
func (f *Facade) SetMCPSessionID(id string) {
	f.mcpSessionID = id
}

// SessionID returns the facade's current memory session id, which may be
// empty until Initialize has run at least once.
func (f *Facade) SessionID() string {
	return f.sessionID
}

// Initialize ensures the current session exists, generating a session id
// first if one was never assigned. It is idempotent.
func (f *Facade) Initialize(ctx context.Context, systemPrompt string, contextTags []string, sessionMetadata map[string]any) error {
	if f.initialized {
		return nil
	}
	if f.sessionID == "" {
		var sessionContext string
		if sessionMetadata != nil {
			if c, ok := sessionMetadata["context"].(string); ok {
				sessionContext = c
			}
		}
		f.sessionID = f.sessions.GenerateSessionID(f.userID, f.providerName, sessionContext)
	}

	enhanced := map[string]any{}
	for k, v := range sessionMetadata {
		enhanced[k] = v
	}
	if f.mcpSessionID != "" {
		enhanced["mcp_session_id"] = f.mcpSessionID
		enhanced["mcp_session_correlation"] = fmt.Sprintf("memory:%s <-> mcp:%s", f.sessionID, f.mcpSessionID)
	}

	if _, err := f.sessions.EnsureSessionExists(ctx, f.sessionID, f.userID, f.providerName, systemPrompt, enhanced); err != nil {
		return err
	}
	f.initialized = true
	return nil
}

// Save ensures the session exists, persists a message, then bumps the
// session's last-activity timestamp, in that order.
func (f *Facade) Save(ctx context.Context, role models.MessageRole, content any, messageType models.MessageType, metadata map[string]any) (bool, error) {
	if messageType == "" {
		messageType = models.MessageText
	}
	msg := models.NewUniversalMessage(role, content)
	msg.MessageType = messageType
	msg.Metadata = metadata
	return f.SaveMessage(ctx, msg)
}

// SaveToolExchange persists an assistant tool-call turn or a tool-result
// turn with its structured ToolCalls/ToolResults populated, for callers
// (the orchestrator) that need fields Save's plain signature can't carry.
// rawContent, when non-nil, is stored verbatim in UniversalMessage.RawContent
// so a provider converter's FromUniversal can round-trip the turn exactly
// instead of falling back to its lossy plain-text reconstruction.
func (f *Facade) SaveToolExchange(ctx context.Context, role models.MessageRole, content, rawContent any, toolCalls []models.ToolInvocation, toolResults []models.ToolOutcome, metadata map[string]any) (bool, error) {
	msg := models.NewUniversalMessage(role, content)
	msg.RawContent = rawContent
	if len(toolCalls) > 0 {
		msg.MessageType = models.MessageToolCall
		msg.ToolCalls = toolCalls
	} else if len(toolResults) > 0 {
		msg.MessageType = models.MessageToolResult
		msg.ToolResults = toolResults
	}
	msg.Metadata = metadata
	return f.SaveMessage(ctx, msg)
}

// SaveMessage ensures the session exists, fills in session/user/provider
// fields, persists msg, then bumps last-activity, in that order.
func (f *Facade) SaveMessage(ctx context.Context, msg *models.UniversalMessage) (bool, error) {
	if err := f.Initialize(ctx, "", nil, nil); err != nil {
		return false, err
	}
	msg.SessionID = f.sessionID
	msg.UserID = f.userID
	msg.Provider = f.providerName

	ok, err := f.store.SaveMessage(ctx, msg)
	if err != nil || !ok {
		return ok, err
	}
	if _, err := f.store.UpdateSessionActivity(ctx, f.sessionID); err != nil {
		return true, err
	}
	return true, nil
}

// LoadHistory loads the session's conversation history. When
// convertToProviderFormat is true and a converter is registered for this
// facade's provider, results are passed through it; otherwise universal
// messages are returned as-is.
func (f *Facade) LoadHistory(ctx context.Context, limit int, convertToProviderFormat bool, messageTypes []models.MessageType) ([]any, error) {
	if err := f.Initialize(ctx, "", nil, nil); err != nil {
		return nil, err
	}
	messages, err := f.store.GetConversationHistory(ctx, f.sessionID, ListOptions{Limit: limit, MessageTypes: messageTypes})
	if err != nil {
		return nil, err
	}

	if !convertToProviderFormat || !f.converters.Has(f.providerName) {
		out := make([]any, len(messages))
		for i, m := range messages {
			out[i] = m
		}
		return out, nil
	}
	converter, err := f.converters.Get(f.providerName)
	if err != nil {
		return nil, err
	}
	return converter.FromUniversalBatch(messages)
}

// Search performs a substring search across the current session (or all
// of the user's sessions when allUserSessions is set).
func (f *Facade) Search(ctx context.Context, query string, limit int, allUserSessions bool) ([]*models.UniversalMessage, error) {
	var sessionIDs []string
	if !allUserSessions && f.sessionID != "" {
		sessionIDs = []string{f.sessionID}
	}
	return f.store.SearchMessages(ctx, query, SearchOptions{UserID: f.userID, SessionIDs: sessionIDs, Limit: limit})
}

// SwitchSession changes the facade's active session, optionally creating
// it if absent.
func (f *Facade) SwitchSession(ctx context.Context, newSessionID string, createIfNotExists bool) error {
	if createIfNotExists {
		if _, err := f.sessions.EnsureSessionExists(ctx, newSessionID, f.userID, f.providerName, "", nil); err != nil {
			return err
		}
	} else {
		session, err := f.sessions.GetSession(ctx, newSessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return fmt.Errorf("convmemory: session %q does not exist", newSessionID)
		}
	}
	f.sessionID = newSessionID
	f.initialized = true
	return nil
}

// ClearSession deletes the facade's current session and its messages.
func (f *Facade) ClearSession(ctx context.Context) (bool, error) {
	if f.sessionID == "" {
		return true, nil
	}
	ok, err := f.store.DeleteSession(ctx, f.sessionID)
	if err == nil && ok {
		f.initialized = false
	}
	return ok, err
}

// Sessions exposes the underlying SessionManager for clone/statistics/list
// passthroughs.
func (f *Facade) Sessions() *SessionManager {
	return f.sessions
}
