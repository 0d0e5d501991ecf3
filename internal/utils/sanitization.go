package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// base64Pattern matches long base64 runs (image payloads, data URIs) that
// would otherwise flood log output.
var base64Pattern = regexp.MustCompile(`[A-Za-z0-9+/=]{256,}`)

// TruncateBase64 shortens long base64 runs inside a string, keeping a prefix
// for identification.
func TruncateBase64(s string) string {
	return base64Pattern.ReplaceAllStringFunc(s, func(match string) string {
		return fmt.Sprintf("%s...[truncated %d chars]", match[:32], len(match)-32)
	})
}

// TruncateBase64InData walks nested log data and truncates base64 payloads
// in every string it finds. Maps and slices are rewritten in place.
func TruncateBase64InData(data interface{}) interface{} {
	switch v := data.(type) {
	case string:
		return TruncateBase64(v)
	case map[string]interface{}:
		for key, value := range v {
			v[key] = TruncateBase64InData(value)
		}
		return v
	case []interface{}:
		for i, value := range v {
			v[i] = TruncateBase64InData(value)
		}
		return v
	default:
		return data
	}
}

// SanitizeHeaders converts HTTP headers to a loggable map with sensitive
// values masked.
func SanitizeHeaders(headers map[string][]string) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		value := strings.Join(values, ", ")
		lower := strings.ToLower(key)
		if lower == "authorization" || lower == "cookie" || lower == "x-api-key" {
			value = "***MASKED***"
		}
		sanitized[key] = TruncateBase64(value)
	}
	return sanitized
}
