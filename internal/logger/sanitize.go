package logger

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Byte limits for values copied into log lines from requests and the gateway.
const (
	MaxPathLength          = 500
	MaxRequestIDLength     = 128
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
	MaxDebugContentLength  = 10000
)

const truncationMarker = "..."

// loggable keeps printable runes and ordinary whitespace. Bytes that were not valid
// UTF-8 decode to RuneError and are dropped with the control characters.
func loggable(r rune) rune {
	switch {
	case r == utf8.RuneError:
		return -1
	case r == ' ', r == '\t', r == '\n', r == '\r':
		return r
	case unicode.IsPrint(r):
		return r
	}
	return -1
}

// SanitizeString strips what a terminal or log shipper could misread and caps the result
// at limit bytes. A non-positive limit means MaxGeneralStringLength.
func SanitizeString(s string, limit int) string {
	if limit <= 0 {
		limit = MaxGeneralStringLength
	}
	return Truncate(strings.Map(loggable, s), limit)
}

// Truncate cuts s to at most limit bytes without splitting a rune and appends a marker
// when anything was cut.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	end := limit
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end] + truncationMarker
}

// SanitizeRequestID cleans an X-Request-ID supplied by the client.
func SanitizeRequestID(id string) string {
	return SanitizeString(id, MaxRequestIDLength)
}

// SanitizeDebugContent cleans prompts and answers logged in debug mode.
func SanitizeDebugContent(content string) string {
	return SanitizeString(content, MaxDebugContentLength)
}

// SanitizeURL hides the password of a connection URL.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(invalid url)"
	}
	return SanitizeString(u.Redacted(), MaxPathLength)
}

// Path is the "path" field with the request path cleaned.
func Path(p string) zap.Field {
	return zap.String("path", SanitizeString(p, MaxPathLength))
}

// ClientIP is the "ip" field. Forwarded headers are client controlled, so the value is
// cleaned like any other input.
func ClientIP(ip string) zap.Field {
	return zap.String("ip", SanitizeString(ip, MaxGeneralStringLength))
}
