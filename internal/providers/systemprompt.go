package providers

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// maxSystemPromptFromJWT caps how much of a claim-embedded system prompt
// is honored, so a malicious or oversized token cannot blow up the
// context window.
const maxSystemPromptFromJWT = 10_000

// DefaultSystemPrompt is used when neither an explicit prompt nor a JWT
// claim supplies one.
const DefaultSystemPrompt = `You are a financial analyst assistant with access to real-time market data, company fundamentals, and economic indicators through specialized tools. Answer questions accurately and concisely, citing the specific data you retrieve. When you are uncertain or the data is unavailable, say so rather than speculating.`

// systemPromptClaims is the subset of a caller-supplied JWT this package
// reads. The token is parsed without signature verification: it carries
// the operator's own prompt preference, not an authorization decision.
type systemPromptClaims struct {
	SystemPrompt string `json:"system_prompt"`
	jwt.RegisteredClaims
}

// ResolveSystemPrompt implements the explicit-config > JWT-claim > default
// priority chain: an explicit prompt always wins; otherwise the
// system_prompt claim of token (if parseable) is used, truncated to
// maxSystemPromptFromJWT bytes; otherwise DefaultSystemPrompt.
func ResolveSystemPrompt(explicit, token string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	if strings.TrimSpace(token) != "" {
		if prompt, ok := extractSystemPromptClaim(token); ok {
			return prompt
		}
	}
	return DefaultSystemPrompt
}

// extractSystemPromptClaim tolerates any malformed token: a parse
// failure or missing claim simply falls through to the default, it
// never aborts the caller.
func extractSystemPromptClaim(token string) (string, bool) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	var claims systemPromptClaims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return "", false
	}
	prompt := strings.TrimSpace(claims.SystemPrompt)
	if prompt == "" {
		return "", false
	}
	if len(prompt) > maxSystemPromptFromJWT {
		prompt = prompt[:maxSystemPromptFromJWT]
	}
	return prompt, true
}
