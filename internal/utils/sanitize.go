package utils

import (
	"strings"
	"unicode/utf8"
)

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeMrkdwn escapes the three control characters Slack reserves in message text.
// Alert content is untrusted, so it must not be able to inject links or mentions.
func EscapeMrkdwn(text string) string {
	return mrkdwnEscaper.Replace(text)
}

// EscapeForLogging makes untrusted text safe for single-line log output
func EscapeForLogging(text string, maxLen int) string {
	// Truncate
	if utf8.RuneCountInString(text) > maxLen {
		text = string([]rune(text)[:maxLen]) + "..."
	}

	// Remove newlines for single-line logging
	text = strings.ReplaceAll(text, "\n", "\\n")
	text = strings.ReplaceAll(text, "\r", "\\r")
	text = strings.ReplaceAll(text, "\t", "\\t")

	return text
}
