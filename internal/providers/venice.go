package providers

import (
	"context"

	"github.com/vianexus/agent-sdk-go/internal/providers/venice"
)

// NewVeniceAdapter builds an OpenAIAdapter pointed at Venice's
// OpenAI-compatible proxy. Venice exposes privacy-focused open models
// directly and anonymized access to Claude/GPT models through the same
// Chat Completions shape OpenAIAdapter already speaks, so no separate
// conversion path is needed.
func NewVeniceAdapter(apiKey, model string) *OpenAIAdapter {
	if model == "" {
		model = venice.DefaultModel
	}
	return NewOpenAIAdapterWithBaseURL(apiKey, model, venice.BaseURL)
}

// ListVeniceModels exposes Venice's model catalog, live-fetched and
// merged with the static fallback catalog, mirroring ListBedrockModels.
func ListVeniceModels(ctx context.Context, apiKey string) ([]venice.ModelCatalogEntry, error) {
	return venice.DiscoverModels(ctx, apiKey)
}
