package logging

import (
	"regexp"
)

const (
	// MaxFormulaLogLength is the maximum length of a formula to log
	MaxFormulaLogLength = 120
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match potential API keys in key=value form
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key|token)=[A-Za-z0-9-_]{16,}`)

	// Pattern to match bearer tokens in error messages from LLM endpoints
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_.]+`)

	// Pattern to match credentials embedded in URLs (user:pass@host)
	urlCredsPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// SanitizeError sanitizes error messages that might contain credentials,
// such as errors bubbled up from LLM endpoints. Use this before logging
// any error from an external call.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := apiKeyPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = bearerPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
	sanitized = urlCredsPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeFormula truncates a user-supplied formula for logging.
// Formulas are semi-trusted input and can be arbitrarily long.
func SanitizeFormula(formula string) string {
	if len(formula) <= MaxFormulaLogLength {
		return formula
	}
	return formula[:MaxFormulaLogLength] + "..."
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
