package transform

import (
	"net/url"
	"strings"
)

// EscapeText encodes overlay text for a URL path segment. Commas and slashes
// are escaped twice since the backend decodes the text once more after
// splitting the path. Empty text is sent as a single space.
func EscapeText(s string) string {
	if s == "" {
		return "%20"
	}
	escaped := url.PathEscape(s)
	escaped = strings.ReplaceAll(escaped, "%2C", "%252C")
	escaped = strings.ReplaceAll(escaped, "%2F", "%252F")
	return escaped
}
