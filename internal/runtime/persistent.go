package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vianexus/agent-sdk-go/internal/convmemory"
	"github.com/vianexus/agent-sdk-go/internal/orchestrator"
	"github.com/vianexus/agent-sdk-go/internal/providers"
)

// PersistentClient wraps a Client with connect-once/reuse semantics over
// the tool channel, for callers that issue many questions against the
// same session instead of paying per-call connect/teardown cost. The
// session id is assigned at construction and outlives reconnects.
type PersistentClient struct {
	mu        sync.Mutex
	client    *Client
	connected bool
}

// NewPersistentClient builds a Client backed by an InMemoryStore — the
// persistent overlay is meant for long-lived in-process sessions, not
// for durability across restarts — and establishes the tool channel
// connection eagerly if one is configured.
func NewPersistentClient(ctx context.Context, cfg Config) (*PersistentClient, error) {
	client, err := newClient(ctx, cfg, convmemory.NewInMemoryStore())
	if err != nil {
		return nil, err
	}
	return &PersistentClient{client: client, connected: true}, nil
}

// NewPersistentClientWithStore is NewPersistentClient for callers that
// need a specific memory backend, e.g. WithFileMemoryStore's durability
// across process restarts combined with persistent-session reconnects.
func NewPersistentClientWithStore(ctx context.Context, cfg Config, store convmemory.Store) (*PersistentClient, error) {
	client, err := newClient(ctx, cfg, store)
	if err != nil {
		return nil, err
	}
	return &PersistentClient{client: client, connected: true}, nil
}

// EstablishPersistentConnection reconnects the tool channel if it was
// dropped or has never been probed successfully, or is a no-op if it is
// already healthy.
func (pc *PersistentClient) EstablishPersistentConnection(ctx context.Context) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.client.toolManager == nil {
		pc.connected = true
		return nil
	}
	if pc.client.toolManager.Connected() {
		if err := pc.client.toolManager.HealthProbe(ctx); err == nil {
			pc.connected = true
			return nil
		}
	}
	if err := pc.client.toolManager.Connect(ctx); err != nil {
		pc.connected = false
		return fmt.Errorf("runtime: re-establish tool channel: %w", err)
	}
	pc.client.facade.SetMCPSessionID(pc.client.toolManager.SessionID())
	pc.connected = true
	return nil
}

// ClosePersistentConnection tears down the tool channel. Cancellation
// errors surfacing from a context that outlived its caller are swallowed,
// since teardown commonly races process shutdown.
func (pc *PersistentClient) ClosePersistentConnection() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.connected = false
	if pc.client.toolManager == nil {
		return nil
	}
	if err := pc.client.toolManager.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// AskWithPersistentSession validates question, ensures the tool channel
// is connected, then runs it through the orchestrator on the client's
// standing session.
func (pc *PersistentClient) AskWithPersistentSession(ctx context.Context, question string) (*orchestrator.Outcome, error) {
	if err := providers.ValidateQuestion(question); err != nil {
		return nil, err
	}
	if err := pc.EstablishPersistentConnection(ctx); err != nil {
		return nil, err
	}
	return pc.client.ProcessQuery(ctx, question)
}

// IsConnected reports whether the tool channel is currently believed
// healthy. A client without a configured tool channel reports connected
// except after ClosePersistentConnection, until
// EstablishPersistentConnection is called again.
func (pc *PersistentClient) IsConnected() bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.connected
}

// MCPSessionID returns the tool channel's session id, or "" when no
// tool channel is configured.
func (pc *PersistentClient) MCPSessionID() string {
	if pc.client.toolManager == nil {
		return ""
	}
	return pc.client.toolManager.SessionID()
}

// SessionID returns the conversation-memory session id, assigned at
// construction time regardless of tool-channel connectivity.
func (pc *PersistentClient) SessionID() string {
	return pc.client.SessionID()
}

// Underlying exposes the wrapped Client for callers that need direct
// access to Memory() or ModelName().
func (pc *PersistentClient) Underlying() *Client {
	return pc.client
}
