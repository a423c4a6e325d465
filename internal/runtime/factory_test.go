package runtime

import (
	"errors"
	"testing"
)

func TestDetectProvider_ExplicitWins(t *testing.T) {
	p, err := DetectProvider(DetectionInput{Explicit: "claude", Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != ProviderAnthropic {
		t.Errorf("got %q, want %q", p, ProviderAnthropic)
	}
}

func TestDetectProvider_FromModel(t *testing.T) {
	cases := map[string]string{
		"claude-3-5-sonnet-latest": ProviderAnthropic,
		"gpt-4o":                   ProviderOpenAI,
		"o1-preview":               ProviderOpenAI,
		"gemini-1.5-pro":           ProviderGemini,
	}
	for model, want := range cases {
		got, err := DetectProvider(DetectionInput{Model: model})
		if err != nil {
			t.Fatalf("model %q: unexpected error: %v", model, err)
		}
		if got != want {
			t.Errorf("model %q: got %q, want %q", model, got, want)
		}
	}
}

func TestDetectProvider_FromAPIKey(t *testing.T) {
	cases := map[string]string{
		"sk-ant-abc123": ProviderAnthropic,
		"sk-abc123":     ProviderOpenAI,
		"AIzaSyABC123":  ProviderGemini,
	}
	for key, want := range cases {
		got, err := DetectProvider(DetectionInput{APIKey: key})
		if err != nil {
			t.Fatalf("key %q: unexpected error: %v", key, err)
		}
		if got != want {
			t.Errorf("key %q: got %q, want %q", key, got, want)
		}
	}
}

func TestDetectProvider_FromConfig(t *testing.T) {
	got, err := DetectProvider(DetectionInput{Config: `{"provider": "gemini", "model": "x"}`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ProviderGemini {
		t.Errorf("got %q, want %q", got, ProviderGemini)
	}
}

func TestDetectProvider_Unknown(t *testing.T) {
	_, err := DetectProvider(DetectionInput{})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("got %v, want ErrUnknownProvider", err)
	}
}

func TestDetectProvider_ExplicitBedrockAndVenice(t *testing.T) {
	cases := map[string]string{
		"bedrock":     ProviderBedrock,
		"aws-bedrock": ProviderBedrock,
		"venice":      ProviderVenice,
	}
	for explicit, want := range cases {
		got, err := DetectProvider(DetectionInput{Explicit: explicit})
		if err != nil {
			t.Fatalf("explicit %q: unexpected error: %v", explicit, err)
		}
		if got != want {
			t.Errorf("explicit %q: got %q, want %q", explicit, got, want)
		}
	}
}

func TestDetectProvider_BedrockAndVeniceNeverAutoDetected(t *testing.T) {
	// These two backends require an explicit opt-in; a bare model name or
	// API key prefix must never resolve to them implicitly.
	got, err := DetectProvider(DetectionInput{Model: "llama-3.3-70b"})
	if err == nil {
		t.Errorf("expected detection failure for an unprefixed model name, got %q", got)
	}
}

func TestDetectProvider_PriorityOrder(t *testing.T) {
	// API key would say openai, but model prefix says gemini and wins
	// since model is checked before API key.
	got, err := DetectProvider(DetectionInput{Model: "gemini-pro", APIKey: "sk-openai-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ProviderGemini {
		t.Errorf("got %q, want %q (model should win over API key)", got, ProviderGemini)
	}
}
