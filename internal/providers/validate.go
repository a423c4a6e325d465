// Package providers wraps each backend LLM SDK (Anthropic, OpenAI,
// Gemini) as an orchestrator.ModelTurn, resolves the system prompt, and
// normalizes tool schemas per provider.
package providers

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxQuestionLength = 100_000

// ErrInvalidQuestion is the sentinel every validation failure wraps.
var ErrInvalidQuestion = errors.New("providers: invalid question")

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Unwrap() error { return ErrInvalidQuestion }

func invalidf(format string, args ...any) error {
	return &validationError{msg: "providers: " + fmt.Sprintf(format, args...)}
}

// ValidateQuestion rejects empty, whitespace-only, over-long, or
// null-byte-carrying input, mirroring base_llm_client's _validate_question.
func ValidateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return invalidf("question must not be empty")
	}
	if utf8.RuneCountInString(question) > maxQuestionLength {
		return invalidf("question exceeds maximum length of %d characters", maxQuestionLength)
	}
	if strings.ContainsRune(question, '\x00') {
		return invalidf("question must not contain null bytes")
	}
	return nil
}
