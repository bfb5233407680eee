package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"formgate/internal/config"
)

// TelegramOAuthServiceConfig configures the Telegram login widget flow.
// Telegram has no authorization-code exchange, the widget posts a signed
// payload directly.
type TelegramOAuthServiceConfig struct {
	BotToken     string
	BotUsername  string
	AuthDuration int // seconds a signed payload stays acceptable
}

type TelegramOAuthService struct {
	Config TelegramOAuthServiceConfig
}

func NewTelegramOAuthService(config TelegramOAuthServiceConfig) *TelegramOAuthService {
	return &TelegramOAuthService{
		Config: config,
	}
}

func (telegram *TelegramOAuthService) GetName() string {
	return "telegram"
}

// VerifyWidgetPayload checks the widget payload's HMAC before anything
// else touches it. The data-check string is every field except "hash",
// sorted, joined as key=value lines; the key is SHA256 of the bot token.
func (telegram *TelegramOAuthService) VerifyWidgetPayload(payload map[string]string) (config.Identity, error) {
	providedHash, ok := payload["hash"]
	if !ok || providedHash == "" {
		return config.Identity{}, fmt.Errorf("%w: widget payload carries no hash", ErrIdentityResolution)
	}

	fields := make([]string, 0, len(payload))
	for key, value := range payload {
		if key == "hash" {
			continue
		}
		fields = append(fields, key+"="+value)
	}
	sort.Strings(fields)
	checkString := strings.Join(fields, "\n")

	secret := sha256.Sum256([]byte(telegram.Config.BotToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(checkString))
	expectedHash := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expectedHash), []byte(providedHash)) {
		return config.Identity{}, fmt.Errorf("%w: widget payload signature mismatch", ErrIdentityResolution)
	}

	authDate, err := strconv.ParseInt(payload["auth_date"], 10, 64)
	if err != nil {
		return config.Identity{}, fmt.Errorf("%w: widget payload carries no auth date", ErrIdentityResolution)
	}

	maxAge := telegram.Config.AuthDuration
	if maxAge <= 0 {
		maxAge = 86400
	}
	if time.Now().Unix()-authDate > int64(maxAge) {
		return config.Identity{}, fmt.Errorf("%w: widget payload expired", ErrIdentityResolution)
	}

	name := strings.TrimSpace(payload["first_name"] + " " + payload["last_name"])

	return config.Identity{
		ID:         payload["id"],
		Name:       name,
		Nickname:   payload["username"],
		GivenName:  payload["first_name"],
		FamilyName: payload["last_name"],
		Groups:     []string{},
	}, nil
}
