package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// GenerateState returns a 16-byte random value hex-encoded (32 chars).
func GenerateState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	return hex.EncodeToString(b)
}

const nonceAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateNonce returns a 40-char random string.
func GenerateNonce() string {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(nonceAlphabet))))
		if err != nil {
			panic(fmt.Sprintf("failed to read random bytes: %v", err))
		}
		sb.WriteByte(nonceAlphabet[n.Int64()])
	}
	return sb.String()
}

// DecodeBase64URLSegment decodes a base64url segment as found in JWTs:
// unpadded, with the -_ alphabet. Padding is restored to a multiple of
// four before decoding.
func DecodeBase64URLSegment(segment string) ([]byte, error) {
	segment = strings.ReplaceAll(segment, "-", "+")
	segment = strings.ReplaceAll(segment, "_", "/")
	if rem := len(segment) % 4; rem != 0 {
		segment += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.DecodeString(segment)
}

// DecodeJWTPayload extracts the payload claims of a JWT without verifying
// the signature.
func DecodeJWTPayload(token string) (map[string]any, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errors.New("malformed JWT")
	}

	payload, err := DecodeBase64URLSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode JWT payload: %w", err)
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse JWT payload: %w", err)
	}

	return claims, nil
}
