package runtime

import (
	"context"
	"testing"
)

func TestPersistentClient_WithoutToolChannel(t *testing.T) {
	ctx := context.Background()
	pc, err := NewPersistentClient(ctx, Config{
		Provider:  "anthropic",
		Model:     "claude-3-5-sonnet-latest",
		APIKey:    "test-key",
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("NewPersistentClient: %v", err)
	}
	if !pc.IsConnected() {
		t.Error("expected IsConnected() true immediately after construction")
	}
	if pc.MCPSessionID() != "" {
		t.Errorf("MCPSessionID() = %q, want empty (no tool channel)", pc.MCPSessionID())
	}
	if pc.SessionID() != "sess-1" {
		t.Errorf("SessionID() = %q, want sess-1", pc.SessionID())
	}

	if err := pc.EstablishPersistentConnection(ctx); err != nil {
		t.Errorf("EstablishPersistentConnection (no-op path): %v", err)
	}
	if !pc.IsConnected() {
		t.Error("expected IsConnected() true after no-op EstablishPersistentConnection")
	}

	if err := pc.ClosePersistentConnection(); err != nil {
		t.Errorf("ClosePersistentConnection: %v", err)
	}
	if pc.IsConnected() {
		t.Error("expected IsConnected() false after ClosePersistentConnection")
	}

	if pc.Underlying() == nil {
		t.Error("expected non-nil Underlying()")
	}
}

func TestPersistentClient_UnknownProviderErrors(t *testing.T) {
	_, err := NewPersistentClient(context.Background(), Config{})
	if err == nil {
		t.Error("expected error for a Config with no detectable provider")
	}
}
