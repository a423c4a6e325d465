// Package runtime assembles a memory store, tool channel, and a provider
// adapter into a ready-to-use Client, detecting the provider from
// configuration when the caller doesn't name one explicitly.
package runtime

import (
	"fmt"
	"strings"
)

// Provider names this runtime standardizes on.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderBedrock   = "bedrock"
	ProviderVenice    = "venice"
)

// ErrUnknownProvider is returned when none of the detection steps can
// determine a provider.
var ErrUnknownProvider = fmt.Errorf("runtime: could not detect provider")

// DetectionInput carries every signal DetectProvider may consult, in
// priority order: an explicit field always wins regardless of what else
// is set.
type DetectionInput struct {
	Explicit string
	Model    string
	APIKey   string
	Config   string
}

// DetectProvider applies the 5-step detection order: explicit field,
// model-name prefix, API-key prefix, a substring match against a raw
// config blob, then a typed error. Grounded on llm_client_factory.py's
// detection chain.
func DetectProvider(in DetectionInput) (string, error) {
	if p := normalizeProvider(in.Explicit); p != "" {
		return p, nil
	}
	if p := detectFromModel(in.Model); p != "" {
		return p, nil
	}
	if p := detectFromAPIKey(in.APIKey); p != "" {
		return p, nil
	}
	if p := detectFromConfig(in.Config); p != "" {
		return p, nil
	}
	return "", ErrUnknownProvider
}

func normalizeProvider(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderAnthropic, "claude":
		return ProviderAnthropic
	case ProviderOpenAI, "gpt":
		return ProviderOpenAI
	case ProviderGemini, "google":
		return ProviderGemini
	case ProviderBedrock, "aws-bedrock":
		return ProviderBedrock
	case ProviderVenice:
		return ProviderVenice
	default:
		return ""
	}
}

func detectFromModel(model string) string {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "claude"):
		return ProviderAnthropic
	case strings.HasPrefix(m, "gpt") || strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3"):
		return ProviderOpenAI
	case strings.HasPrefix(m, "gemini"):
		return ProviderGemini
	default:
		return ""
	}
}

func detectFromAPIKey(key string) string {
	switch {
	case strings.HasPrefix(key, "sk-ant-"):
		return ProviderAnthropic
	case strings.HasPrefix(key, "sk-"):
		return ProviderOpenAI
	case strings.HasPrefix(key, "AIza"):
		return ProviderGemini
	default:
		return ""
	}
}

func detectFromConfig(config string) string {
	c := strings.ToLower(config)
	for _, p := range []string{ProviderAnthropic, ProviderOpenAI, ProviderGemini} {
		if strings.Contains(c, p) {
			return p
		}
	}
	return ""
}
