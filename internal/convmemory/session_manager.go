package convmemory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vianexus/agent-sdk-go/pkg/models"
)

// SessionManager issues session ids, enforces uniqueness, caches active
// sessions, and provides clone/statistics/list operations on top of a
// Store. It holds a per-session-id advisory lock scoped to the
// create-and-save operation only, never to a session's full lifetime.
type SessionManager struct {
	store Store

	mu            sync.Mutex
	active        map[string]*models.ConversationSession
	creationLocks map[string]struct{}
}

// NewSessionManager wraps store with session-management behavior.
func NewSessionManager(store Store) *SessionManager {
	return &SessionManager{
		store:         store,
		active:        map[string]*models.ConversationSession{},
		creationLocks: map[string]struct{}{},
	}
}

// GenerateSessionID builds an id of the form
// <client_type>_<user_id>_<context>_<YYYYMMDD_HHMMSS>_<8hex>, omitting
// any absent parts, and disambiguates collisions against the active-session
// cache by appending _1, _2, ... until unique.
func (m *SessionManager) GenerateSessionID(userID, clientType, context string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateSessionIDLocked(userID, clientType, context)
}

func (m *SessionManager) generateSessionIDLocked(userID, clientType, context string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	unique := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	var parts []string
	if clientType != "" {
		parts = append(parts, clientType)
	}
	if userID != "" {
		parts = append(parts, userID)
	}
	if context != "" {
		parts = append(parts, strings.ReplaceAll(context, " ", "_"))
	}
	parts = append(parts, timestamp, unique)
	id := strings.Join(parts, "_")

	base := id
	for counter := 1; ; counter++ {
		if _, taken := m.active[id]; !taken {
			return id
		}
		id = fmt.Sprintf("%s_%d", base, counter)
	}
}

// CreateSession creates and persists a new session, failing if one with
// the same id already exists (unless forceNew).
func (m *SessionManager) CreateSession(ctx context.Context, sessionID, userID, clientType, systemPrompt string, contextTags []string, metadata map[string]any, forceNew bool) (*models.ConversationSession, error) {
	if sessionID == "" {
		var sessionContext string
		if metadata != nil {
			if c, ok := metadata["context"].(string); ok {
				sessionContext = c
			}
		}
		sessionID = m.GenerateSessionID(userID, clientType, sessionContext)
	}

	if existing, err := m.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	} else if existing != nil && !forceNew {
		return nil, fmt.Errorf("convmemory: session %q already exists", sessionID)
	}

	m.mu.Lock()
	if _, locked := m.creationLocks[sessionID]; locked {
		m.mu.Unlock()
		return nil, fmt.Errorf("convmemory: session %q is currently being created", sessionID)
	}
	m.creationLocks[sessionID] = struct{}{}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.creationLocks, sessionID)
		m.mu.Unlock()
	}()

	session := models.NewConversationSession(sessionID)
	session.UserID = userID
	session.ClientType = clientType
	session.SystemPrompt = systemPrompt
	session.ContextTags = contextTags
	session.SessionMetadata = metadata

	ok, err := m.store.SaveSession(ctx, session)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("convmemory: failed to save session %q", sessionID)
	}

	m.mu.Lock()
	m.active[sessionID] = session
	m.mu.Unlock()
	return session, nil
}

// GetSession checks the active-session cache before falling back to the store.
func (m *SessionManager) GetSession(ctx context.Context, sessionID string) (*models.ConversationSession, error) {
	m.mu.Lock()
	if session, ok := m.active[sessionID]; ok {
		m.mu.Unlock()
		return session, nil
	}
	m.mu.Unlock()

	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil || session == nil {
		return session, err
	}
	m.mu.Lock()
	m.active[sessionID] = session
	m.mu.Unlock()
	return session, nil
}

// EnsureSessionExists is idempotent: it returns the existing session if
// present, otherwise creates and persists one with the supplied metadata.
func (m *SessionManager) EnsureSessionExists(ctx context.Context, sessionID, userID, clientType, systemPrompt string, metadata map[string]any) (*models.ConversationSession, error) {
	session, err := m.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}
	return m.CreateSession(ctx, sessionID, userID, clientType, systemPrompt, nil, metadata, false)
}

// CloneSession creates a new session with session_metadata.cloned_from set
// to src, and copies every message with a fresh message_id (the original
// is retained under the new message's metadata.cloned_from).
func (m *SessionManager) CloneSession(ctx context.Context, srcSessionID, newUserID string) (*models.ConversationSession, error) {
	src, err := m.GetSession(ctx, srcSessionID)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("convmemory: source session %q not found", srcSessionID)
	}

	userID := src.UserID
	if newUserID != "" {
		userID = newUserID
	}
	newID := m.GenerateSessionID(userID, src.ClientType, "cloned")

	metadata := map[string]any{
		"cloned_from": srcSessionID,
		"cloned_at":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range src.SessionMetadata {
		if _, exists := metadata[k]; !exists {
			metadata[k] = v
		}
	}

	newSession, err := m.CreateSession(ctx, newID, userID, src.ClientType, src.SystemPrompt, append([]string{}, src.ContextTags...), metadata, false)
	if err != nil {
		return nil, err
	}

	srcMessages, err := m.store.GetConversationHistory(ctx, srcSessionID, ListOptions{})
	if err != nil {
		return nil, err
	}
	for _, msg := range srcMessages {
		clone := models.NewUniversalMessage(msg.Role, msg.Content)
		clone.SessionID = newID
		clone.MessageType = msg.MessageType
		clone.Provider = msg.Provider
		clone.RawContent = msg.RawContent
		clone.ToolCalls = msg.ToolCalls
		clone.ToolResults = msg.ToolResults
		clone.ContextTags = msg.ContextTags
		clone.UserID = userID
		clone.Metadata = deepCloneMap(msg.Metadata)
		if clone.Metadata == nil {
			clone.Metadata = map[string]any{}
		}
		clone.Metadata["cloned_from"] = msg.MessageID
		clone.Metadata["original_session"] = srcSessionID

		if _, err := m.store.SaveMessage(ctx, clone); err != nil {
			return nil, err
		}
	}
	return newSession, nil
}

// SessionStatistics is the result of GetSessionStatistics.
type SessionStatistics struct {
	SessionID        string
	UserID           string
	ClientType       string
	DurationSeconds  float64
	MessageCount     int
	RoleDistribution map[string]int
	MessageTypes     map[string]int
	ProvidersUsed    []string
	ContextTags      []string
}

// GetSessionStatistics returns a role/message-type histogram, provider
// set, and duration for a session. It does not report a byte size.
func (m *SessionManager) GetSessionStatistics(ctx context.Context, sessionID string) (*SessionStatistics, error) {
	session, err := m.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("convmemory: session %q not found", sessionID)
	}
	messages, err := m.store.GetConversationHistory(ctx, sessionID, ListOptions{})
	if err != nil {
		return nil, err
	}

	stats := &SessionStatistics{
		SessionID:        sessionID,
		UserID:           session.UserID,
		ClientType:       session.ClientType,
		MessageCount:     len(messages),
		RoleDistribution: map[string]int{},
		MessageTypes:     map[string]int{},
		ContextTags:      session.ContextTags,
	}
	providers := map[string]struct{}{}
	for _, msg := range messages {
		stats.RoleDistribution[string(msg.Role)]++
		stats.MessageTypes[string(msg.MessageType)]++
		if msg.Provider != "" {
			providers[msg.Provider] = struct{}{}
		}
	}
	for p := range providers {
		stats.ProvidersUsed = append(stats.ProvidersUsed, p)
	}
	stats.DurationSeconds = session.LastActivity.Sub(session.CreatedAt).Seconds()
	return stats, nil
}

// ListUserSessions returns every session owned by userID, sorted by
// last_activity descending (delegates the sort to the store).
func (m *SessionManager) ListUserSessions(ctx context.Context, userID string) ([]*models.ConversationSession, error) {
	return m.store.GetUserSessions(ctx, userID, 0)
}
