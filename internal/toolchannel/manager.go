package toolchannel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Manager owns one tool-server connection for the lifetime of a client:
// it bootstraps OAuth2, opens the streaming-HTTP transport, caches the
// advertised tool set, and exposes tool invocation plus a health probe.
// Mirrors EnhancedMCPClient's setup -> connect -> use -> cleanup lifecycle.
type Manager struct {
	cfg    *Config
	logger *slog.Logger

	mu        sync.RWMutex
	transport *transport
	tools     []Descriptor
	sessionID string
}

// New builds a Manager from cfg; it does not connect.
func New(cfg *Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{cfg: cfg, logger: logger.With("component", "toolchannel.manager")}
}

// Connect bootstraps the OAuth2 auth layer, opens the transport, and
// refreshes the cached tool list. Distinct OS-level connection errors
// (DNS/refused/timeout) are wrapped separately from protocol-level
// failures so callers can distinguish "server unreachable" from "server
// rejected us", mirroring setup_connection's separate except clauses.
func (m *Manager) Connect(ctx context.Context) error {
	auth, err := NewAuthLayer(m.cfg.SoftwareStatement)
	if err != nil {
		return fmt.Errorf("toolchannel: auth bootstrap: %w", err)
	}
	if err := auth.Initialize(ctx); err != nil {
		return fmt.Errorf("toolchannel: auth initialize: %w", err)
	}

	t := newTransport(m.cfg, auth, m.logger)
	if err := t.connect(ctx); err != nil {
		return fmt.Errorf("toolchannel: transport connect: %w", err)
	}

	m.mu.Lock()
	m.transport = t
	m.sessionID = uuid.NewString()
	m.mu.Unlock()

	if err := m.RefreshTools(ctx); err != nil {
		t.close()
		m.mu.Lock()
		m.transport = nil
		m.mu.Unlock()
		return fmt.Errorf("toolchannel: initial tool listing: %w", err)
	}
	m.logger.Info("tool channel connected", "tool_count", len(m.tools), "categories", m.cfg.ToolCategoriesHeader())
	return nil
}

// Close tears down the transport. Errors from an already-cancelled
// context are absorbed, since teardown commonly races the cancellation
// that triggered it.
func (m *Manager) Close() error {
	m.mu.Lock()
	t := m.transport
	m.transport = nil
	m.mu.Unlock()

	if t == nil {
		return nil
	}
	if err := t.close(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Connected reports whether the transport believes itself live.
func (m *Manager) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transport != nil && m.transport.connected.Load()
}

// SessionID returns the transport-session identifier assigned on
// Connect, for diagnostic correlation with conversation-memory sessions.
func (m *Manager) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// RefreshTools re-fetches and caches the server's advertised tool list.
func (m *Manager) RefreshTools(ctx context.Context) error {
	m.mu.RLock()
	t := m.transport
	m.mu.RUnlock()
	if t == nil {
		return fmt.Errorf("toolchannel: not connected")
	}

	result, err := t.call(ctx, "tools/list", nil)
	if err != nil {
		return err
	}
	var parsed listToolsResult
	if err := json.Unmarshal(result, &parsed); err != nil {
		return fmt.Errorf("toolchannel: parse tools/list result: %w", err)
	}

	m.mu.Lock()
	m.tools = parsed.Tools
	m.mu.Unlock()
	return nil
}

// Tools returns the cached tool descriptors.
func (m *Manager) Tools() []Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Descriptor, len(m.tools))
	copy(out, m.tools)
	return out
}

// HasTool reports whether name is among the cached tool descriptors.
func (m *Manager) HasTool(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Invoke calls a tool by name with the given arguments and returns its
// result content joined into a single string, plus whether the server
// flagged it as an error result.
func (m *Manager) Invoke(ctx context.Context, name string, arguments map[string]any) (string, bool, error) {
	m.mu.RLock()
	t := m.transport
	m.mu.RUnlock()
	if t == nil {
		return "", false, fmt.Errorf("toolchannel: not connected")
	}

	var argsJSON json.RawMessage
	if arguments != nil {
		data, err := json.Marshal(arguments)
		if err != nil {
			return "", false, fmt.Errorf("marshal tool arguments: %w", err)
		}
		argsJSON = data
	}

	result, err := t.call(ctx, "tools/call", callToolParams{Name: name, Arguments: argsJSON})
	if err != nil {
		return "", false, err
	}
	var parsed CallResult
	if err := json.Unmarshal(result, &parsed); err != nil {
		return "", false, fmt.Errorf("toolchannel: parse tools/call result: %w", err)
	}

	var sb strings.Builder
	for i, block := range parsed.Content {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(block.Text)
	}
	return sb.String(), parsed.IsError, nil
}

// HealthProbe verifies the channel is still usable by reissuing
// tools/list; it does not rely on Connected alone since a dropped SSE
// stream leaves the JSON-RPC request path unaffected.
func (m *Manager) HealthProbe(ctx context.Context) error {
	return m.RefreshTools(ctx)
}

// Events exposes the server-pushed notification stream (e.g. tool list
// change notifications) for callers that want to react to them.
func (m *Manager) Events() <-chan *JSONRPCNotification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.transport == nil {
		return nil
	}
	return m.transport.eventsChan()
}
