package convmemory

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vianexus/agent-sdk-go/pkg/models"
)

// FileStore is a Store implementation backed by two directories:
// sessions/<session_id>.json holds one session record per file;
// messages/<session_id>.jsonl holds one UniversalMessage JSON object per
// line, appended on save. Concurrent access is safe within a single
// process via a per-store mutex; cross-process safety is not provided.
type FileStore struct {
	mu          sync.Mutex
	root        string
	sessionsDir string
	messagesDir string
	logger      *slog.Logger
}

// NewFileStore creates (if absent) the storage directory tree rooted at
// dir and returns a FileStore over it.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fs := &FileStore{
		root:        dir,
		sessionsDir: filepath.Join(dir, "sessions"),
		messagesDir: filepath.Join(dir, "messages"),
		logger:      logger.With("component", "convmemory.filestore"),
	}
	for _, d := range []string{fs.root, fs.sessionsDir, fs.messagesDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func (fs *FileStore) sessionPath(id string) string {
	return filepath.Join(fs.sessionsDir, id+".json")
}

func (fs *FileStore) messagesPath(id string) string {
	return filepath.Join(fs.messagesDir, id+".jsonl")
}

func (fs *FileStore) SaveMessage(ctx context.Context, msg *models.UniversalMessage) (bool, error) {
	if msg == nil || msg.SessionID == "" {
		return false, nil
	}
	line, err := msg.ToJSON()
	if err != nil {
		return false, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.OpenFile(fs.messagesPath(msg.SessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

func (fs *FileStore) GetConversationHistory(ctx context.Context, sessionID string, opts ListOptions) ([]*models.UniversalMessage, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.Open(fs.messagesPath(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*models.UniversalMessage{}, nil
		}
		return nil, err
	}
	defer f.Close()

	var messages []*models.UniversalMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		msg, err := models.UniversalMessageFromJSON(line)
		if err != nil {
			fs.logger.Warn("skipping corrupted message line", "session_id", sessionID, "error", err)
			continue
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	filtered := make([]*models.UniversalMessage, 0, len(messages))
	for _, m := range messages {
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
	return filtered, nil
}

func (fs *FileStore) SaveSession(ctx context.Context, session *models.ConversationSession) (bool, error) {
	if session == nil || session.SessionID == "" {
		return false, nil
	}
	data, err := session.ToJSON()
	if err != nil {
		return false, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := os.WriteFile(fs.sessionPath(session.SessionID), []byte(data), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

func (fs *FileStore) getSessionLocked(sessionID string) (*models.ConversationSession, error) {
	data, err := os.ReadFile(fs.sessionPath(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return models.ConversationSessionFromJSON(string(data))
}

func (fs *FileStore) GetSession(ctx context.Context, sessionID string) (*models.ConversationSession, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.getSessionLocked(sessionID)
}

func (fs *FileStore) UpdateSessionActivity(ctx context.Context, sessionID string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	session, err := fs.getSessionLocked(sessionID)
	if err != nil || session == nil {
		return false, err
	}
	session.UpdateActivity()
	data, err := session.ToJSON()
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(fs.sessionPath(sessionID), []byte(data), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

func (fs *FileStore) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	sessErr := os.Remove(fs.sessionPath(sessionID))
	msgErr := os.Remove(fs.messagesPath(sessionID))
	if sessErr != nil && !errors.Is(sessErr, os.ErrNotExist) {
		return false, sessErr
	}
	if msgErr != nil && !errors.Is(msgErr, os.ErrNotExist) {
		return false, msgErr
	}
	return true, nil
}

func (fs *FileStore) listSessionIDsLocked() ([]string, error) {
	entries, err := os.ReadDir(fs.sessionsDir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids, nil
}

func (fs *FileStore) SearchMessages(ctx context.Context, query string, opts SearchOptions) ([]*models.UniversalMessage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	queryLower := strings.ToLower(query)

	fs.mu.Lock()
	sessionIDs := opts.SessionIDs
	var err error
	if len(sessionIDs) == 0 {
		sessionIDs, err = fs.listSessionIDsLocked()
		if err != nil {
			fs.mu.Unlock()
			return nil, err
		}
	}
	if opts.UserID != "" {
		var filtered []string
		for _, id := range sessionIDs {
			session, serr := fs.getSessionLocked(id)
			if serr == nil && session != nil && session.UserID == opts.UserID {
				filtered = append(filtered, id)
			}
		}
		sessionIDs = filtered
	}
	fs.mu.Unlock()

	var results []*models.UniversalMessage
	for _, id := range sessionIDs {
		msgs, err := fs.GetConversationHistory(ctx, id, ListOptions{})
		if err != nil {
			continue
		}
		for _, m := range msgs {
			if strings.Contains(strings.ToLower(stringifyContent(m.Content)), queryLower) {
				results = append(results, m)
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

func (fs *FileStore) CleanupOldSessions(ctx context.Context, olderThanDays int) (int, error) {
	fs.mu.Lock()
	ids, err := fs.listSessionIDsLocked()
	if err != nil {
		fs.mu.Unlock()
		return 0, err
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	var toDelete []string
	for _, id := range ids {
		session, serr := fs.getSessionLocked(id)
		if serr == nil && session != nil && session.LastActivity.Before(cutoff) {
			toDelete = append(toDelete, id)
		}
	}
	fs.mu.Unlock()

	for _, id := range toDelete {
		if _, err := fs.DeleteSession(ctx, id); err != nil {
			fs.logger.Warn("failed to delete expired session", "session_id", id, "error", err)
		}
	}
	return len(toDelete), nil
}

func (fs *FileStore) GetUserSessions(ctx context.Context, userID string, limit int) ([]*models.ConversationSession, error) {
	fs.mu.Lock()
	ids, err := fs.listSessionIDsLocked()
	if err != nil {
		fs.mu.Unlock()
		return nil, err
	}
	var out []*models.ConversationSession
	for _, id := range ids {
		session, serr := fs.getSessionLocked(id)
		if serr == nil && session != nil && session.UserID == userID {
			out = append(out, session)
		}
	}
	fs.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (fs *FileStore) GetStats(ctx context.Context) (map[string]int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ids, err := fs.listSessionIDsLocked()
	if err != nil {
		return nil, err
	}
	total := 0
	for _, id := range ids {
		f, err := os.Open(fs.messagesPath(id))
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) != "" {
				total++
			}
		}
		f.Close()
	}
	return map[string]int{
		"total_sessions": len(ids),
		"total_messages": total,
	}, nil
}
