package sdruntime

import (
	"fmt"
	"strings"
)

// Prompt parser names accepted on a run line.
const (
	PromptParserPlain = "plain"
	PromptParserLPW   = "lpw"
)

// attentionEscaper escapes the characters stable-diffusion.cpp reads as
// emphasis syntax. Backslash goes first so existing escapes stay literal.
var attentionEscaper = strings.NewReplacer(
	`\`, `\\`,
	`(`, `\(`,
	`)`, `\)`,
	`[`, `\[`,
	`]`, `\]`,
)

// ValidatePrompt rejects empty prompts, NUL bytes and prompts longer than
// MaxPromptLength. It applies to the text as typed, before ApplyPromptParser.
// This is a pure function with no side effects.
func ValidatePrompt(prompt string) error {
	return checkPrompt(prompt, MaxPromptLength)
}

// ValidateNegativePrompt bounds the negative prompt as typed. It may be empty.
func ValidateNegativePrompt(prompt string) error {
	if len(prompt) > MaxPromptLength {
		return fmt.Errorf("%w: negative prompt length %d exceeds maximum %d",
			ErrInvalidParams, len(prompt), MaxPromptLength)
	}
	return nil
}

func checkPrompt(prompt string, limit int) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: prompt cannot be empty", ErrInvalidPrompt)
	}

	// C strings end at NUL
	if strings.ContainsRune(prompt, '\x00') {
		return fmt.Errorf("%w: prompt contains null bytes", ErrInvalidPrompt)
	}

	if len(prompt) > limit {
		return fmt.Errorf("%w: prompt length %d exceeds maximum %d",
			ErrInvalidPrompt, len(prompt), limit)
	}

	return nil
}

// SanitizePrompt trims surrounding whitespace.
func SanitizePrompt(prompt string) string {
	return strings.TrimSpace(prompt)
}

// ApplyPromptParser rewrites prompt for the named parser.
//
// An empty name or "plain" treats the prompt as literal text, so "(red)"
// does not change token weights. "lpw" (long prompt weighting) passes the
// weighted syntax through to the model.
func ApplyPromptParser(parser, prompt string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(parser)) {
	case "", PromptParserPlain:
		return attentionEscaper.Replace(prompt), nil
	case PromptParserLPW:
		return prompt, nil
	default:
		return "", fmt.Errorf("%w: %q (must be %q or %q)",
			ErrUnknownPromptParser, parser, PromptParserPlain, PromptParserLPW)
	}
}
