package logging

import (
	"regexp"
	"strings"
)

// RedactedPlaceholder replaces sensitive values in log output.
const RedactedPlaceholder = "[REDACTED]"

// sensitivePatterns match credentials that may appear inside free text,
// such as an error message echoing a request header.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(sk-[a-zA-Z0-9_-]{20,})`),                      // OpenAI keys, incl. sk-proj-
	regexp.MustCompile(`(?i)(bearer\s+[a-zA-Z0-9._-]{20,})`),          // Authorization headers
	regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*[^\s,;&]{8,})`),     // api_key=..., api-key: ...
	regexp.MustCompile(`(?i)(DefaultEndpointsProtocol=[^;]+;[^"'\s]+)`), // Azure connection strings
}

// sensitiveFieldNames mark a field as secret regardless of its value.
// Matching is by substring on the upper-cased name.
var sensitiveFieldNames = []string{
	"OPENAI_API_KEY",
	"AZURE_OPENAI_KEY",
	"API_KEY",
	"APIKEY",
	"PASSWORD",
	"SECRET",
	"AUTHORIZATION",
}

// RedactSensitiveData replaces credential-looking substrings of value.
// This is a pure function with no side effects.
//
// Example:
//
//	RedactSensitiveData("401: bad key sk-abc123def456ghi789jkl012")
//	// "401: bad key [REDACTED]"
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}

	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// RedactField redacts fieldValue entirely when fieldName is sensitive and
// scans it for embedded credentials otherwise.
func RedactField(fieldName, fieldValue string) string {
	if IsSensitiveField(fieldName) {
		return RedactedPlaceholder
	}
	return RedactSensitiveData(fieldValue)
}

// IsSensitiveField reports whether a field name denotes a secret.
func IsSensitiveField(fieldName string) bool {
	upperName := strings.ToUpper(fieldName)
	for _, name := range sensitiveFieldNames {
		if strings.Contains(upperName, name) {
			return true
		}
	}
	return false
}

// ContainsSensitiveData reports whether value contains anything
// RedactSensitiveData would replace.
func ContainsSensitiveData(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}
