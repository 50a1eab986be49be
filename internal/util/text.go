package util

import "strings"

// SanitizePostgresText strips invalid UTF-8 and NUL bytes, which Postgres
// text columns reject.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// CollapseWhitespace trims the string and squeezes every internal
// whitespace run to a single space.
func CollapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
