package service_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"formgate/internal/service"

	"gotest.tools/v3/assert"
)

const botToken = "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"

func signTelegramPayload(payload map[string]string) map[string]string {
	fields := make([]string, 0, len(payload))
	for key, value := range payload {
		fields = append(fields, key+"="+value)
	}
	sort.Strings(fields)

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(strings.Join(fields, "\n")))

	signed := make(map[string]string, len(payload)+1)
	for key, value := range payload {
		signed[key] = value
	}
	signed["hash"] = hex.EncodeToString(mac.Sum(nil))
	return signed
}

func newTelegramService() *service.TelegramOAuthService {
	return service.NewTelegramOAuthService(service.TelegramOAuthServiceConfig{
		BotToken:    botToken,
		BotUsername: "formgate_bot",
	})
}

func TestVerifyWidgetPayload(t *testing.T) {
	telegram := newTelegramService()

	payload := signTelegramPayload(map[string]string{
		"id":         "987654321",
		"first_name": "Test",
		"last_name":  "User",
		"username":   "testuser",
		"auth_date":  fmt.Sprintf("%d", time.Now().Unix()),
	})

	identity, err := telegram.VerifyWidgetPayload(payload)
	assert.NilError(t, err)
	assert.Equal(t, "987654321", identity.ID)
	assert.Equal(t, "Test User", identity.Name)
	assert.Equal(t, "testuser", identity.Nickname)
}

func TestVerifyWidgetPayloadRejectsTampering(t *testing.T) {
	telegram := newTelegramService()

	payload := signTelegramPayload(map[string]string{
		"id":        "987654321",
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
	})

	// Change a field after signing
	payload["id"] = "111111111"

	_, err := telegram.VerifyWidgetPayload(payload)
	assert.Assert(t, errors.Is(err, service.ErrIdentityResolution))
}

func TestVerifyWidgetPayloadRequiresHash(t *testing.T) {
	telegram := newTelegramService()

	_, err := telegram.VerifyWidgetPayload(map[string]string{
		"id":        "987654321",
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
	})
	assert.Assert(t, errors.Is(err, service.ErrIdentityResolution))
}

func TestVerifyWidgetPayloadRejectsStaleAuthDate(t *testing.T) {
	telegram := newTelegramService()

	payload := signTelegramPayload(map[string]string{
		"id":        "987654321",
		"auth_date": fmt.Sprintf("%d", time.Now().Add(-48*time.Hour).Unix()),
	})

	_, err := telegram.VerifyWidgetPayload(payload)
	assert.Assert(t, errors.Is(err, service.ErrIdentityResolution))
}
