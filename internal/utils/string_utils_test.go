package utils_test

import (
	"testing"

	"formgate/internal/utils"

	"gotest.tools/v3/assert"
)

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Google", utils.Capitalize("google"))
	assert.Equal(t, "Google", utils.Capitalize("Google"))
	assert.Equal(t, "", utils.Capitalize(""))
	assert.Equal(t, "X", utils.Capitalize("x"))
}

func TestCoalesceToStrings(t *testing.T) {
	// JSON arrays arrive as []any
	assert.DeepEqual(t, []string{"a", "b"}, utils.CoalesceToStrings([]any{"a", "b"}))

	// Non-string members are skipped
	assert.DeepEqual(t, []string{"a"}, utils.CoalesceToStrings([]any{"a", 1, true}))

	// Plain string and string slice
	assert.DeepEqual(t, []string{"admin"}, utils.CoalesceToStrings("admin"))
	assert.DeepEqual(t, []string{"a", "b"}, utils.CoalesceToStrings([]string{"a", "b"}))

	// Empty and missing values
	assert.DeepEqual(t, []string{}, utils.CoalesceToStrings(""))
	assert.DeepEqual(t, []string{}, utils.CoalesceToStrings(nil))
	assert.DeepEqual(t, []string{}, utils.CoalesceToStrings(42))
}

func TestParseCommaString(t *testing.T) {
	assert.DeepEqual(t, []string{"openid", "profile"}, utils.ParseCommaString("openid,profile"))
	assert.DeepEqual(t, []string{"openid", "profile"}, utils.ParseCommaString(" openid , profile "))
	assert.DeepEqual(t, []string{"openid"}, utils.ParseCommaString("openid,,"))
	assert.DeepEqual(t, []string{}, utils.ParseCommaString(""))
	assert.DeepEqual(t, []string{}, utils.ParseCommaString("   "))
}

func TestParseSpaceString(t *testing.T) {
	assert.DeepEqual(t, []string{"openid", "profile", "email"}, utils.ParseSpaceString("openid profile email"))
	assert.DeepEqual(t, []string{"openid"}, utils.ParseSpaceString("  openid  "))
	assert.Equal(t, 0, len(utils.ParseSpaceString("")))
}

func TestNormalizeIssuer(t *testing.T) {
	assert.Equal(t, "https://idp.example.com", utils.NormalizeIssuer("https://idp.example.com"))
	assert.Equal(t, "https://idp.example.com", utils.NormalizeIssuer("https://idp.example.com/"))
	assert.Equal(t, "https://idp.example.com", utils.NormalizeIssuer("https://idp.example.com///"))
}

func TestStringClaim(t *testing.T) {
	claims := map[string]any{
		"sub":   "user-1",
		"count": float64(3),
	}

	assert.Equal(t, "user-1", utils.StringClaim(claims, "sub"))
	assert.Equal(t, "", utils.StringClaim(claims, "count"))
	assert.Equal(t, "", utils.StringClaim(claims, "missing"))
}
