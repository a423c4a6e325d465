package providers

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicbedrock "github.com/anthropics/anthropic-sdk-go/bedrock"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/vianexus/agent-sdk-go/internal/providers/bedrock"
)

// NewBedrockAdapter builds an AnthropicAdapter that routes through AWS
// Bedrock instead of the direct Anthropic API. Bedrock-hosted Claude
// speaks the same Messages API shape, so every conversion helper in
// anthropic.go applies unchanged — only the client's transport differs.
func NewBedrockAdapter(ctx context.Context, region, model string) *AnthropicAdapter {
	client := anthropic.NewClient(anthropicbedrock.WithLoadDefaultConfig(ctx, awsconfig.WithRegion(region)))
	return &AnthropicAdapter{client: client, model: model}
}

// ListBedrockModels exposes the Bedrock model catalog so callers can
// validate a configured model id, or let a user pick one, before
// constructing an adapter. cfg may be nil to use region/cache defaults.
func ListBedrockModels(ctx context.Context, cfg *bedrock.DiscoveryConfig) ([]bedrock.ModelDefinition, error) {
	return bedrock.DiscoverModels(ctx, cfg)
}
