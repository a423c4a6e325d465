package runtime

import (
	"context"
	"testing"
)

func TestWithInMemoryStore_BuildsAnthropicClient(t *testing.T) {
	ctx := context.Background()
	client, err := WithInMemoryStore(ctx, Config{
		Provider:  "anthropic",
		Model:     "claude-3-5-sonnet-latest",
		APIKey:    "test-key",
		SessionID: "sess-1",
		UserID:    "user-1",
	})
	if err != nil {
		t.Fatalf("WithInMemoryStore: %v", err)
	}
	if client.ModelName() != ProviderAnthropic {
		t.Errorf("ModelName() = %q, want %q", client.ModelName(), ProviderAnthropic)
	}
	if client.SessionID() != "sess-1" {
		t.Errorf("SessionID() = %q, want sess-1", client.SessionID())
	}
	if client.Memory() == nil {
		t.Error("expected non-nil Memory()")
	}
	if err := client.Cleanup(); err != nil {
		t.Errorf("Cleanup (no tool channel): %v", err)
	}
}

func TestWithInMemoryStore_BuildsOpenAIClient(t *testing.T) {
	client, err := WithInMemoryStore(context.Background(), Config{
		Provider: "openai",
		Model:    "gpt-4o",
		APIKey:   "test-key",
	})
	if err != nil {
		t.Fatalf("WithInMemoryStore: %v", err)
	}
	if client.ModelName() != ProviderOpenAI {
		t.Errorf("ModelName() = %q, want %q", client.ModelName(), ProviderOpenAI)
	}
}

func TestWithInMemoryStore_DetectsProviderFromModel(t *testing.T) {
	client, err := WithInMemoryStore(context.Background(), Config{
		Model:  "gpt-4o",
		APIKey: "test-key",
	})
	if err != nil {
		t.Fatalf("WithInMemoryStore: %v", err)
	}
	if client.ModelName() != ProviderOpenAI {
		t.Errorf("ModelName() = %q, want %q", client.ModelName(), ProviderOpenAI)
	}
}

func TestWithInMemoryStore_UnknownProviderErrors(t *testing.T) {
	_, err := WithInMemoryStore(context.Background(), Config{})
	if err == nil {
		t.Error("expected error for a Config with no detectable provider")
	}
}

func TestWithInMemoryStore_BuildsBedrockClient(t *testing.T) {
	client, err := WithInMemoryStore(context.Background(), Config{
		Provider:      ProviderBedrock,
		Model:         "anthropic.claude-3-5-sonnet-20241022-v2:0",
		BedrockRegion: "eu-west-1",
	})
	if err != nil {
		t.Fatalf("WithInMemoryStore: %v", err)
	}
	if client.ModelName() != ProviderBedrock {
		t.Errorf("ModelName() = %q, want %q", client.ModelName(), ProviderBedrock)
	}
}

func TestWithInMemoryStore_BuildsBedrockClientWithDefaultRegion(t *testing.T) {
	client, err := WithInMemoryStore(context.Background(), Config{
		Provider: ProviderBedrock,
		Model:    "anthropic.claude-3-5-sonnet-20241022-v2:0",
	})
	if err != nil {
		t.Fatalf("WithInMemoryStore: %v", err)
	}
	if client.ModelName() != ProviderBedrock {
		t.Errorf("ModelName() = %q, want %q", client.ModelName(), ProviderBedrock)
	}
}

func TestWithInMemoryStore_BuildsVeniceClient(t *testing.T) {
	client, err := WithInMemoryStore(context.Background(), Config{
		Provider: ProviderVenice,
		Model:    "llama-3.3-70b",
		APIKey:   "test-key",
	})
	if err != nil {
		t.Fatalf("WithInMemoryStore: %v", err)
	}
	if client.ModelName() != ProviderVenice {
		t.Errorf("ModelName() = %q, want %q", client.ModelName(), ProviderVenice)
	}
}

func TestClient_InitializeCreatesSession(t *testing.T) {
	ctx := context.Background()
	client, err := WithInMemoryStore(ctx, Config{
		Provider:  "anthropic",
		Model:     "claude-3-5-sonnet-latest",
		APIKey:    "test-key",
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("WithInMemoryStore: %v", err)
	}
	if err := client.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	history, err := client.Memory().LoadHistory(ctx, 0, false, nil)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected an empty but existing session, got %d messages", len(history))
	}
}
