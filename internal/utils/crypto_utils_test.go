package utils_test

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"formgate/internal/utils"

	"gotest.tools/v3/assert"
)

func TestGenerateState(t *testing.T) {
	state := utils.GenerateState()

	// 16 random bytes hex encoded
	assert.Equal(t, 32, len(state))

	_, err := hex.DecodeString(state)
	assert.NilError(t, err)

	// Two calls should not collide
	assert.Assert(t, state != utils.GenerateState())
}

func TestGenerateNonce(t *testing.T) {
	nonce := utils.GenerateNonce()

	assert.Equal(t, 40, len(nonce))

	for _, c := range nonce {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		assert.Assert(t, isAlnum)
	}

	assert.Assert(t, nonce != utils.GenerateNonce())
}

func TestDecodeBase64URLSegment(t *testing.T) {
	// Lengths covering every padding case
	for _, input := range []string{"a", "ab", "abc", "abcd", "hello world", "??>>~~"} {
		segment := base64.RawURLEncoding.EncodeToString([]byte(input))
		decoded, err := utils.DecodeBase64URLSegment(segment)
		assert.NilError(t, err)
		assert.Equal(t, input, string(decoded))
	}

	// Bytes that force the url alphabet's - and _ characters
	raw := []byte{0xfb, 0xff, 0xfe, 0x3f}
	decoded, err := utils.DecodeBase64URLSegment(base64.RawURLEncoding.EncodeToString(raw))
	assert.NilError(t, err)
	assert.DeepEqual(t, raw, decoded)

	// Garbage
	_, err = utils.DecodeBase64URLSegment("!!!")
	assert.Assert(t, err != nil)
}

func TestDecodeJWTPayload(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"user-1","email":"test@example.com","nonce":"abc"}`))
	token := header + "." + payload + ".signature"

	claims, err := utils.DecodeJWTPayload(token)
	assert.NilError(t, err)
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, "test@example.com", claims["email"])
	assert.Equal(t, "abc", claims["nonce"])

	// Missing segments
	_, err = utils.DecodeJWTPayload("only.two")
	assert.Assert(t, err != nil)

	// Payload is not json
	broken := header + "." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig"
	_, err = utils.DecodeJWTPayload(broken)
	assert.Assert(t, err != nil)
}
