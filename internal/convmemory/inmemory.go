package convmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vianexus/agent-sdk-go/pkg/models"
)

// InMemoryStore is a Store implementation backed by plain maps, intended
// for tests and short-lived local runs. All operations are O(k) in the
// affected session; search is a linear substring scan over stringified
// content.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.ConversationSession
	messages map[string][]*models.UniversalMessage
	byUser   map[string][]string // userID -> session IDs, insertion order
}

// NewInMemoryStore creates an empty in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: map[string]*models.ConversationSession{},
		messages: map[string][]*models.UniversalMessage{},
		byUser:   map[string][]string{},
	}
}

func cloneSession(s *models.ConversationSession) *models.ConversationSession {
	if s == nil {
		return nil
	}
	clone := *s
	if s.ContextTags != nil {
		clone.ContextTags = append([]string{}, s.ContextTags...)
	}
	if s.SessionMetadata != nil {
		clone.SessionMetadata = deepCloneMap(s.SessionMetadata)
	}
	return &clone
}

func cloneMessage(m *models.UniversalMessage) *models.UniversalMessage {
	if m == nil {
		return nil
	}
	clone := *m
	if m.ToolCalls != nil {
		clone.ToolCalls = append([]models.ToolInvocation{}, m.ToolCalls...)
	}
	if m.ToolResults != nil {
		clone.ToolResults = append([]models.ToolOutcome{}, m.ToolResults...)
	}
	if m.ContextTags != nil {
		clone.ContextTags = append([]string{}, m.ContextTags...)
	}
	if m.Metadata != nil {
		clone.Metadata = deepCloneMap(m.Metadata)
	}
	return &clone
}

// deepCloneMap recursively clones a map[string]any so stored records
// never alias caller-owned memory.
func deepCloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	clone := make(map[string]any, len(m))
	for k, v := range m {
		clone[k] = deepCloneValue(v)
	}
	return clone
}

func deepCloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCloneMap(val)
	case []any:
		cloned := make([]any, len(val))
		for i, item := range val {
			cloned[i] = deepCloneValue(item)
		}
		return cloned
	case []string:
		cloned := make([]string, len(val))
		copy(cloned, val)
		return cloned
	default:
		return v
	}
}

func (s *InMemoryStore) SaveMessage(ctx context.Context, msg *models.UniversalMessage) (bool, error) {
	if msg == nil || msg.SessionID == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], cloneMessage(msg))
	return true, nil
}

func (s *InMemoryStore) GetConversationHistory(ctx context.Context, sessionID string, opts ListOptions) ([]*models.UniversalMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[sessionID]
	if len(msgs) == 0 {
		return []*models.UniversalMessage{}, nil
	}

	filtered := make([]*models.UniversalMessage, 0, len(msgs))
	for _, m := range msgs {
		if opts.BeforeMessageID != "" && m.MessageID == opts.BeforeMessageID {
			break
		}
		if len(opts.MessageTypes) > 0 && !containsType(opts.MessageTypes, m.MessageType) {
			continue
		}
		filtered = append(filtered, m)
	}

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[len(filtered)-opts.Limit:]
	}

	out := make([]*models.UniversalMessage, len(filtered))
	for i, m := range filtered {
		out[i] = cloneMessage(m)
	}
	return out, nil
}

func containsType(types []models.MessageType, t models.MessageType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) SaveSession(ctx context.Context, session *models.ConversationSession) (bool, error) {
	if session == nil || session.SessionID == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.SessionID]; !exists && session.UserID != "" {
		s.byUser[session.UserID] = append(s.byUser[session.UserID], session.SessionID)
	}
	s.sessions[session.SessionID] = cloneSession(session)
	return true, nil
}

func (s *InMemoryStore) GetSession(ctx context.Context, sessionID string) (*models.ConversationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSession(s.sessions[sessionID]), nil
}

func (s *InMemoryStore) UpdateSessionActivity(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return false, nil
	}
	session.UpdateActivity()
	return true, nil
}

func (s *InMemoryStore) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		delete(s.messages, sessionID)
		return false, nil
	}
	delete(s.sessions, sessionID)
	delete(s.messages, sessionID)
	if session.UserID != "" {
		ids := s.byUser[session.UserID]
		for i, id := range ids {
			if id == sessionID {
				s.byUser[session.UserID] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
	}
	return true, nil
}

func (s *InMemoryStore) SearchMessages(ctx context.Context, query string, opts SearchOptions) ([]*models.UniversalMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	queryLower := strings.ToLower(query)

	var sessionIDs []string
	if len(opts.SessionIDs) > 0 {
		sessionIDs = opts.SessionIDs
	} else {
		for id := range s.sessions {
			sessionIDs = append(sessionIDs, id)
		}
	}
	if opts.UserID != "" {
		filtered := sessionIDs[:0:0]
		for _, id := range sessionIDs {
			if session, ok := s.sessions[id]; ok && session.UserID == opts.UserID {
				filtered = append(filtered, id)
			}
		}
		sessionIDs = filtered
	}

	var results []*models.UniversalMessage
	for _, id := range sessionIDs {
		for _, m := range s.messages[id] {
			if strings.Contains(strings.ToLower(stringifyContent(m.Content)), queryLower) {
				results = append(results, cloneMessage(m))
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *InMemoryStore) CleanupOldSessions(ctx context.Context, olderThanDays int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	removed := 0
	for id, session := range s.sessions {
		if session.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.messages, id)
			removed++
		}
	}
	return removed, nil
}

func (s *InMemoryStore) GetUserSessions(ctx context.Context, userID string, limit int) ([]*models.ConversationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.ConversationSession
	for _, id := range s.byUser[userID] {
		if session, ok := s.sessions[id]; ok {
			out = append(out, cloneSession(session))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) GetStats(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, msgs := range s.messages {
		total += len(msgs)
	}
	return map[string]int{
		"total_sessions": len(s.sessions),
		"total_messages": total,
	}, nil
}
