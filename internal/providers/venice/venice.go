// Package venice describes the Venice AI model catalog and endpoint.
//
// Venice AI is a privacy-focused LLM provider offering both fully private
// models (no logging) and anonymized access to models from other
// providers via their proxy. The API is OpenAI-compatible, so actually
// talking to it is handled by providers.NewVeniceAdapter (an OpenAIAdapter
// pointed at BaseURL) rather than by a bespoke client in this package.
package venice

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const (
	// BaseURL is the Venice AI API endpoint.
	BaseURL = "https://api.venice.ai/api/v1"

	// DefaultModel is the default model to use when not specified.
	DefaultModel = "llama-3.3-70b"
)

// ModelCatalogEntry describes a Venice model's capabilities.
type ModelCatalogEntry struct {
	ID            string   // Model identifier
	Name          string   // Human-readable name
	Reasoning     bool     // Whether the model supports reasoning/thinking
	Input         []string // Supported input types: "text", "image"
	ContextWindow int      // Maximum context window in tokens
	MaxTokens     int      // Maximum output tokens
	Privacy       string   // "private" (no logging) or "anonymized" (via Venice proxy)
}

// VeniceCatalog contains all available Venice models.
// This is used as a fallback when the API discovery fails.
var VeniceCatalog = []ModelCatalogEntry{
	// Private models (fully private, no logging)
	{ID: "llama-3.3-70b", Name: "Llama 3.3 70B", Reasoning: false, Input: []string{"text"}, ContextWindow: 131072, MaxTokens: 8192, Privacy: "private"},
	{ID: "llama-3.2-3b", Name: "Llama 3.2 3B", Reasoning: false, Input: []string{"text"}, ContextWindow: 131072, MaxTokens: 8192, Privacy: "private"},
	{ID: "qwen3-235b-a22b-thinking-2507", Name: "Qwen3 235B Thinking", Reasoning: true, Input: []string{"text"}, ContextWindow: 131072, MaxTokens: 8192, Privacy: "private"},
	{ID: "deepseek-v3.2", Name: "DeepSeek V3.2", Reasoning: true, Input: []string{"text"}, ContextWindow: 163840, MaxTokens: 8192, Privacy: "private"},
	// Anonymized models (via Venice proxy)
	{ID: "claude-opus-45", Name: "Claude Opus 4.5 (via Venice)", Reasoning: true, Input: []string{"text", "image"}, ContextWindow: 202752, MaxTokens: 8192, Privacy: "anonymized"},
	{ID: "openai-gpt-52", Name: "GPT-5.2 (via Venice)", Reasoning: true, Input: []string{"text"}, ContextWindow: 262144, MaxTokens: 8192, Privacy: "anonymized"},
}

// DiscoverModels fetches the live model list from Venice, taking metadata
// from VeniceCatalog for ids it knows. With no API key, on any request or
// decode error, or when the list is empty, it returns VeniceCatalog and a
// nil error.
func DiscoverModels(ctx context.Context, apiKey string) ([]ModelCatalogEntry, error) {
	if apiKey == "" {
		return VeniceCatalog, nil
	}

	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(ctx, "GET", BaseURL+"/models", nil)
	if err != nil {
		return VeniceCatalog, nil
	}

	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return VeniceCatalog, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VeniceCatalog, nil
	}

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return VeniceCatalog, nil
	}
	if len(result.Data) == 0 {
		return VeniceCatalog, nil
	}

	catalogByID := make(map[string]ModelCatalogEntry, len(VeniceCatalog))
	for _, entry := range VeniceCatalog {
		catalogByID[entry.ID] = entry
	}

	out := make([]ModelCatalogEntry, 0, len(result.Data))
	for _, m := range result.Data {
		if entry, ok := catalogByID[m.ID]; ok {
			out = append(out, entry)
			continue
		}
		out = append(out, ModelCatalogEntry{ID: m.ID, Name: m.ID, Input: []string{"text"}, ContextWindow: 32000, MaxTokens: 4096, Privacy: "private"})
	}
	return out, nil
}

// GetModelInfo returns detailed information about a specific model.
func GetModelInfo(modelID string) *ModelCatalogEntry {
	for _, entry := range VeniceCatalog {
		if entry.ID == modelID {
			return &entry
		}
	}
	return nil
}

// IsPrivateModel returns true if the model is fully private (no logging).
func IsPrivateModel(modelID string) bool {
	info := GetModelInfo(modelID)
	return info != nil && info.Privacy == "private"
}

// SupportsReasoning returns true if the model supports extended thinking/reasoning.
func SupportsReasoning(modelID string) bool {
	info := GetModelInfo(modelID)
	return info != nil && info.Reasoning
}
