package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vianexus/agent-sdk-go/internal/convmemory"
	"github.com/vianexus/agent-sdk-go/internal/orchestrator"
	"github.com/vianexus/agent-sdk-go/internal/providers"
	"github.com/vianexus/agent-sdk-go/internal/toolchannel"
)

// Config assembles everything a Client needs: which provider to talk to,
// how to authenticate to it, the financial-data tool channel, and which
// memory backend to persist conversation history to.
type Config struct {
	Provider     string // explicit provider name; empty triggers detection
	Model        string
	APIKey       string
	SystemPrompt string // explicit system prompt; empty falls through the JWT/default chain
	AuthToken    string // JWT whose system_prompt claim is consulted when SystemPrompt is empty

	UserID     string
	SessionID  string
	ClientType string

	ToolChannel *toolchannel.Config // nil disables tool calling entirely

	// BedrockRegion selects the AWS region when Provider is "bedrock".
	// Defaults to "us-east-1" when empty.
	BedrockRegion string

	OrchestratorConfig orchestrator.Config
	Logger             *slog.Logger
}

// Client is the fully assembled, single-provider conversational runtime:
// a memory facade, an optional tool channel, and the orchestrator loop
// bound to one provider's adapter.
type Client struct {
	cfg          Config
	provider     string
	facade       *convmemory.Facade
	toolManager  *toolchannel.Manager
	orchestrator *orchestrator.Orchestrator
	systemPrompt string
}

// WithInMemoryStore builds a Client backed by an InMemoryStore — short-lived
// runs and tests.
func WithInMemoryStore(ctx context.Context, cfg Config) (*Client, error) {
	return newClient(ctx, cfg, convmemory.NewInMemoryStore())
}

// WithFileMemoryStore builds a Client backed by a FileStore rooted at dir.
func WithFileMemoryStore(ctx context.Context, cfg Config, dir string) (*Client, error) {
	store, err := convmemory.NewFileStore(dir, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("runtime: file memory store: %w", err)
	}
	return newClient(ctx, cfg, store)
}

// WithoutMemory builds a Client whose memory facade uses a throwaway
// in-process store; history never outlives the Client, but the same
// Save/LoadHistory contract still applies within a single run.
func WithoutMemory(ctx context.Context, cfg Config) (*Client, error) {
	return newClient(ctx, cfg, convmemory.NewInMemoryStore())
}

func newClient(ctx context.Context, cfg Config, store convmemory.Store) (*Client, error) {
	provider, err := DetectProvider(DetectionInput{Explicit: cfg.Provider, Model: cfg.Model, APIKey: cfg.APIKey})
	if err != nil {
		return nil, err
	}

	facade := convmemory.NewFacade(store, convmemory.NewConverterRegistry(), cfg.SessionID, cfg.UserID, provider)

	var toolManager *toolchannel.Manager
	var executor orchestrator.ToolExecutor
	if cfg.ToolChannel != nil {
		toolManager = toolchannel.New(cfg.ToolChannel, cfg.Logger)
		if err := toolManager.Connect(ctx); err != nil {
			return nil, fmt.Errorf("runtime: tool channel connect: %w", err)
		}
		facade.SetMCPSessionID(toolManager.SessionID())
		executor = providers.NewToolChannelExecutor(toolManager)
	}

	model, err := buildModelTurn(ctx, provider, cfg)
	if err != nil {
		return nil, err
	}

	systemPrompt := providers.ResolveSystemPrompt(cfg.SystemPrompt, cfg.AuthToken)

	return &Client{
		cfg:          cfg,
		provider:     provider,
		facade:       facade,
		toolManager:  toolManager,
		orchestrator: orchestrator.New(model, executor, facade, cfg.OrchestratorConfig),
		systemPrompt: systemPrompt,
	}, nil
}

func buildModelTurn(ctx context.Context, provider string, cfg Config) (orchestrator.ModelTurn, error) {
	switch provider {
	case ProviderAnthropic:
		return providers.NewAnthropicAdapter(cfg.APIKey, cfg.Model), nil
	case ProviderOpenAI:
		return providers.NewOpenAIAdapter(cfg.APIKey, cfg.Model), nil
	case ProviderGemini:
		return providers.NewGeminiAdapter(ctx, cfg.APIKey, cfg.Model)
	case ProviderBedrock:
		region := cfg.BedrockRegion
		if region == "" {
			region = "us-east-1"
		}
		return providers.NewBedrockAdapter(ctx, region, cfg.Model), nil
	case ProviderVenice:
		return providers.NewVeniceAdapter(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("runtime: no adapter for provider %q", provider)
	}
}

// ModelName returns the detected/configured provider name.
func (c *Client) ModelName() string {
	return c.provider
}

// AskSingleQuestion runs question through the orchestrator without
// requiring the caller to manage session lifecycle beyond this one call.
func (c *Client) AskSingleQuestion(ctx context.Context, question string) (string, error) {
	if err := providers.ValidateQuestion(question); err != nil {
		return "", err
	}
	outcome, err := c.orchestrator.Run(ctx, c.systemPrompt, question)
	if err != nil {
		return "", err
	}
	return outcome.FinalText, nil
}

// AskQuestion is an alias of AskSingleQuestion kept distinct per
// base_llm_client's split API — callers that already hold an open
// session use this name to signal intent, even though the behavior is
// identical in this runtime.
func (c *Client) AskQuestion(ctx context.Context, question string) (string, error) {
	return c.AskSingleQuestion(ctx, question)
}

// ProcessQuery runs question and returns the full Outcome, including
// iteration and tool-call counts, for callers that want more than the
// final text.
func (c *Client) ProcessQuery(ctx context.Context, question string) (*orchestrator.Outcome, error) {
	if err := providers.ValidateQuestion(question); err != nil {
		return nil, err
	}
	return c.orchestrator.Run(ctx, c.systemPrompt, question)
}

// Initialize ensures the conversation-memory session exists without
// sending a question, for callers that want to pre-warm a session.
func (c *Client) Initialize(ctx context.Context) error {
	return c.facade.Initialize(ctx, c.systemPrompt, nil, nil)
}

// Cleanup tears down the tool channel, if one was opened. Cross-task
// cancellation errors are absorbed rather than surfaced, since cleanup
// commonly runs during shutdown alongside context cancellation.
func (c *Client) Cleanup() error {
	if c.toolManager == nil {
		return nil
	}
	return c.toolManager.Close()
}

// SessionID returns the client's memory session id.
func (c *Client) SessionID() string {
	return c.facade.SessionID()
}

// Memory exposes the underlying facade for callers that need
// search/clone/session-management operations beyond ask/process.
func (c *Client) Memory() *convmemory.Facade {
	return c.facade
}
