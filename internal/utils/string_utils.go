package utils

import (
	"strings"
)

func Capitalize(str string) string {
	if len(str) == 0 {
		return ""
	}
	return strings.ToUpper(string([]rune(str)[0])) + string([]rune(str)[1:])
}

// CoalesceToStrings normalizes a claim value that may arrive as a string,
// a list, or nothing into a string slice.
func CoalesceToStrings(value any) []string {
	switch v := value.(type) {
	case []any:
		strs := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				strs = append(strs, str)
			}
		}
		return strs
	case []string:
		return v
	case string:
		if v == "" {
			return []string{}
		}
		return []string{v}
	default:
		return []string{}
	}
}

func ParseCommaString(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func ParseSpaceString(s string) []string {
	return strings.Fields(s)
}

// NormalizeIssuer strips trailing slashes so cache keys and well-known
// URLs are stable regardless of how the issuer was configured.
func NormalizeIssuer(issuer string) string {
	return strings.TrimRight(issuer, "/")
}

// StringClaim returns the claim as a string, or empty when missing or of
// another type.
func StringClaim(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}
