package utils

import (
	"net/url"
)

// TruncateString shortens a string to a maximum number of runes.
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) > maxLength {
		return string(runes[:maxLength])
	}
	return s
}

// SanitizeURLForLog strips credential-bearing query parameters before a URL
// is written to a log line.
func SanitizeURLForLog(u *url.URL) string {
	query := u.Query()
	if query.Has("key") {
		query.Set("key", "***")
	}
	sanitized := *u
	sanitized.RawQuery = query.Encode()
	return sanitized.String()
}
