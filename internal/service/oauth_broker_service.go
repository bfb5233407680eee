package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"formgate/internal/config"
	"formgate/internal/model"
	"formgate/internal/utils"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// OAuthDriver is the protocol driver contract. Instances are configured
// at construction, drivers never expose mutable setters.
type OAuthDriver interface {
	GetName() string
	GetRedirectURL(ctx context.Context, opts config.RedirectOptions) (string, error)
	GetUser(ctx context.Context, callback config.CallbackData) (config.Identity, error)
}

// WidgetDriver is the capability for providers whose clients post a
// signed payload instead of going through a redirect.
type WidgetDriver interface {
	GetName() string
	VerifyWidgetPayload(payload map[string]string) (config.Identity, error)
}

const oidcProviderPrefix = "oidc:"

type OAuthBrokerServiceConfig struct {
	AppURL           string
	EncryptionSecret string
	DefaultScopes    []string
	HTTPTimeout      time.Duration

	GoogleClientID       string
	GoogleClientSecret   string
	TelegramBotToken     string
	TelegramBotUsername  string
	TelegramAuthDuration int
}

// OAuthBrokerService resolves a provider key to a concrete driver.
// Built-in providers are constructed once at Init. Tenant OIDC
// connections ("oidc:{slug}") are resolved from the database on every
// request: one instance per request, never cached, because credentials
// differ per connection.
type OAuthBrokerService struct {
	Config    OAuthBrokerServiceConfig
	Database  *gorm.DB
	State     *StateService
	Discovery *DiscoveryService

	drivers map[string]OAuthDriver
	widgets map[string]WidgetDriver
}

func NewOAuthBrokerService(config OAuthBrokerServiceConfig, database *gorm.DB, state *StateService, discovery *DiscoveryService) *OAuthBrokerService {
	return &OAuthBrokerService{
		Config:    config,
		Database:  database,
		State:     state,
		Discovery: discovery,
		drivers:   make(map[string]OAuthDriver),
		widgets:   make(map[string]WidgetDriver),
	}
}

func (broker *OAuthBrokerService) Init() error {
	if broker.Config.GoogleClientID != "" {
		google := NewGoogleOAuthService(GoogleOAuthServiceConfig{
			ClientID:     broker.Config.GoogleClientID,
			ClientSecret: broker.Config.GoogleClientSecret,
			RedirectURL:  broker.Config.AppURL + "/api/oauth/callback/google",
		}, broker.State)

		if err := google.Init(); err != nil {
			log.Error().Err(err).Msg("Failed to initialize Google OAuth service")
			return err
		}

		broker.drivers["google"] = google
		log.Info().Str("service", "google").Msg("Initialized OAuth service")
	}

	if broker.Config.TelegramBotToken != "" {
		telegram := NewTelegramOAuthService(TelegramOAuthServiceConfig{
			BotToken:     broker.Config.TelegramBotToken,
			BotUsername:  broker.Config.TelegramBotUsername,
			AuthDuration: broker.Config.TelegramAuthDuration,
		})

		broker.widgets["telegram"] = telegram
		log.Info().Str("service", "telegram").Msg("Initialized OAuth widget service")
	}

	return nil
}

// GetDriver resolves a redirect-capable driver for the provider key.
func (broker *OAuthBrokerService) GetDriver(ctx context.Context, providerKey string) (OAuthDriver, error) {
	if strings.HasPrefix(providerKey, oidcProviderPrefix) {
		return broker.buildConnectionDriver(ctx, strings.TrimPrefix(providerKey, oidcProviderPrefix))
	}

	driver, exists := broker.drivers[providerKey]
	if !exists {
		return nil, ErrProviderNotFound
	}
	return driver, nil
}

// GetWidgetDriver resolves a widget-capable driver for the provider key.
func (broker *OAuthBrokerService) GetWidgetDriver(providerKey string) (WidgetDriver, error) {
	widget, exists := broker.widgets[providerKey]
	if !exists {
		return nil, ErrProviderNotFound
	}
	return widget, nil
}

func (broker *OAuthBrokerService) buildConnectionDriver(ctx context.Context, slug string) (OAuthDriver, error) {
	var connection model.IdentityConnection

	err := broker.Database.WithContext(ctx).Where("slug = ? AND enabled = ?", slug, true).First(&connection).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to load identity connection: %w", err)
	}

	clientSecret, err := utils.DecryptSecret(connection.ClientSecret, broker.Config.EncryptionSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt client secret for connection %s: %w", slug, err)
	}

	redirectURL := broker.Config.AppURL + "/api/oauth/callback/" + oidcProviderPrefix + slug
	if connection.RedirectPath != "" {
		redirectURL = broker.Config.AppURL + connection.RedirectPath
	}

	return NewOIDCOAuthService(OIDCOAuthServiceConfig{
		Name:          oidcProviderPrefix + slug,
		Issuer:        connection.Issuer,
		ClientID:      connection.ClientID,
		ClientSecret:  clientSecret,
		RedirectURL:   redirectURL,
		Scopes:        utils.ParseSpaceString(connection.Scopes),
		DefaultScopes: broker.Config.DefaultScopes,
		HTTPTimeout:   broker.Config.HTTPTimeout,
	}, broker.State, broker.Discovery), nil
}

// ValidateState checks and consumes the CSRF state on callbacks without a
// nonce-carrying ID token path (e.g. Google).
func (broker *OAuthBrokerService) ValidateState(state string) bool {
	stored, found := broker.State.GetState(state)
	if !found {
		return false
	}
	broker.State.ForgetState(state)
	return stored == state
}
