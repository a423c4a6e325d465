package orchestrator

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/vianexus/agent-sdk-go/pkg/models"
)

// Some SDK versions of the Anthropic client return a plain text block
// whose text is the Python repr of a ToolUseBlock object instead of a
// structured tool_use content block — e.g.
// `ToolUseBlock(id='toolu_01', input={'ticker': 'AAPL'}, name='get_quote', type='tool_use')`.
// RecoverToolCallsFromText scans a turn's text for this pattern and,
// where found, recovers a proper ToolInvocation from it; grounded
// exactly on anthropic_client.py's _extract_input_dict /
// _parse_tool_use_block_string / _process_content_blocks_for_tool_use.

var toolUseBlockPattern = regexp.MustCompile(`ToolUseBlock\(`)

var (
	idPattern   = regexp.MustCompile(`id=['"]([^'"]+)['"]`)
	namePattern = regexp.MustCompile(`name=['"]([^'"]+)['"]`)
)

// looksLikeToolUseBlockText reports whether text contains a stringified
// ToolUseBlock the way base_llm_client's content-block scan detects it.
func looksLikeToolUseBlockText(text string) bool {
	return toolUseBlockPattern.MatchString(text)
}

// parseToolUseBlockString recovers id, name, and the input dict from a
// ToolUseBlock(...) repr string. It returns ok=false (never an error) on
// any parse failure, mirroring the original's graceful fallback to plain
// text — a malformed block should never abort the turn.
func parseToolUseBlockString(text string) (inv models.ToolInvocation, ok bool) {
	idMatch := idPattern.FindStringSubmatch(text)
	nameMatch := namePattern.FindStringSubmatch(text)
	if idMatch == nil || nameMatch == nil {
		return models.ToolInvocation{}, false
	}

	args, found := extractInputDict(text)
	if !found {
		return models.ToolInvocation{}, false
	}

	return models.ToolInvocation{ID: idMatch[1], Name: nameMatch[1], Arguments: args}, true
}

// extractInputDict finds the `input={...}` substring and brace-matches to
// its close, honoring single-quoted strings and backslash escapes inside
// them so a `}` inside a quoted argument value does not end the scan
// early. The matched Python-literal dict text is then decoded by
// decodePyDict.
func extractInputDict(text string) (map[string]any, bool) {
	marker := "input={"
	start := strings.Index(text, marker)
	if start == -1 {
		return nil, false
	}
	openIdx := start + len(marker) - 1 // index of the opening '{'

	depth := 0
	inString := false
	escapeNext := false
	end := -1
	for i := openIdx; i < len(text); i++ {
		ch := text[i]
		if escapeNext {
			escapeNext = false
			continue
		}
		switch {
		case inString && ch == '\\':
			escapeNext = true
		case ch == '\'':
			inString = !inString
		case !inString && ch == '{':
			depth++
		case !inString && ch == '}':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end != -1 {
			break
		}
	}
	if end == -1 {
		return nil, false
	}

	return decodePyDict(text[openIdx : end+1])
}

// decodePyDict turns a Python dict literal (single-quoted keys/strings,
// True/False/None) into a Go map by rewriting it to valid JSON and
// unmarshaling. Go has no ast.literal_eval equivalent, so this
// quote-and-keyword rewrite substitutes for the original's
// literal_eval-then-JSON fallback strategy.
func decodePyDict(literal string) (map[string]any, bool) {
	jsonText := pyLiteralToJSON(literal)
	var out map[string]any
	if err := json.Unmarshal([]byte(jsonText), &out); err != nil {
		return nil, false
	}
	return out, true
}

// pyLiteralToJSON rewrites single-quoted strings to double-quoted JSON
// strings (respecting backslash escapes) and normalizes the Python
// True/False/None keywords outside of string literals.
func pyLiteralToJSON(src string) string {
	var sb strings.Builder
	inString := false
	escapeNext := false
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case escapeNext:
			// A Python-escaped apostrophe needs no escaping once the
			// surrounding quotes are rewritten to JSON's double quotes;
			// every other escape (\\, \", \n, ...) is valid JSON as-is.
			if ch == '\'' {
				sb.WriteByte('\'')
			} else {
				sb.WriteByte('\\')
				sb.WriteByte(ch)
			}
			escapeNext = false
		case inString && ch == '\\':
			escapeNext = true
		case ch == '\'':
			sb.WriteByte('"')
			inString = !inString
		case inString && ch == '"':
			sb.WriteString(`\"`)
		case !inString && strings.HasPrefix(src[i:], "True"):
			sb.WriteString("true")
			i += len("True") - 1
		case !inString && strings.HasPrefix(src[i:], "False"):
			sb.WriteString("false")
			i += len("False") - 1
		case !inString && strings.HasPrefix(src[i:], "None"):
			sb.WriteString("null")
			i += len("None") - 1
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

// RecoverToolCallsFromText scans assistant text for a stringified
// ToolUseBlock repr. When the first one found parses, it returns that
// ToolInvocation and empty remaining text: the recovered call replaces
// the whole text. Further blocks in the same text are not recovered.
// Text that does not parse is returned unchanged with no calls, per the
// graceful-fallback contract.
func RecoverToolCallsFromText(text string) (remainingText string, calls []models.ToolInvocation) {
	if !looksLikeToolUseBlockText(text) {
		return text, nil
	}
	if inv, ok := parseToolUseBlockString(text); ok {
		return "", []models.ToolInvocation{inv}
	}
	return text, nil
}
