// Package convmemory implements the provider-neutral conversation memory
// subsystem: the storage contract (Store), its in-memory and file-backed
// implementations, session management, the facade providers consume, and
// the per-provider message converter registry.
package convmemory

import (
	"context"

	"github.com/vianexus/agent-sdk-go/pkg/models"
)

// ListOptions filters Store.GetConversationHistory.
type ListOptions struct {
	Limit           int
	BeforeMessageID string
	MessageTypes    []models.MessageType
}

// SearchOptions filters Store.SearchMessages.
type SearchOptions struct {
	UserID     string
	SessionIDs []string
	Limit      int
}

// Store is the abstract persistence contract for conversation memory.
// Implementations must be safe for interleaved callers within a single
// process; cross-process safety is only required of the in-memory store
// trivially (it has none) and is not required of the file store.
type Store interface {
	SaveMessage(ctx context.Context, msg *models.UniversalMessage) (bool, error)
	GetConversationHistory(ctx context.Context, sessionID string, opts ListOptions) ([]*models.UniversalMessage, error)

	SaveSession(ctx context.Context, session *models.ConversationSession) (bool, error)
	GetSession(ctx context.Context, sessionID string) (*models.ConversationSession, error)
	UpdateSessionActivity(ctx context.Context, sessionID string) (bool, error)
	DeleteSession(ctx context.Context, sessionID string) (bool, error)

	SearchMessages(ctx context.Context, query string, opts SearchOptions) ([]*models.UniversalMessage, error)
	CleanupOldSessions(ctx context.Context, olderThanDays int) (int, error)
	GetUserSessions(ctx context.Context, userID string, limit int) ([]*models.ConversationSession, error)

	// GetStats reports implementation-specific storage counters. The
	// Python source had this split sync/async across stores; here it is
	// uniformly asynchronous across both backends.
	GetStats(ctx context.Context) (map[string]int, error)
}
