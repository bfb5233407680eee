package config

// Version information, set at build time

var Version = "development"
var CommitHash = "development"
var BuildTimestamp = "0000-00-00T00:00:00Z"

// Cache key prefixes and TTLs (seconds) for the OAuth/OIDC flow

var (
	DiscoveryKeyPrefix    = "oidc_config_"
	StateKeyPrefix        = "oidc_state_"
	NonceKeyPrefix        = "oidc_nonce_"
	NonceValueKeyPrefix   = "oidc_nonce_value_"
	ContextKeyPrefix      = "oauth-context:"
	ContextStateKeyPrefix = "oauth-context:state:"
)

var (
	DiscoveryTTL = 3600
	StateTTL     = 600
	ContextTTL   = 300
)

// DefaultOIDCScopes is used when neither the caller nor the tenant
// connection sets explicit scopes.
var DefaultOIDCScopes = []string{"openid", "profile", "email"}

// Main app config

type Config struct {
	Port               int    `mapstructure:"port" validate:"required"`
	Address            string `mapstructure:"address" validate:"required,ip4_addr"`
	AppURL             string `mapstructure:"app-url" validate:"required,url"`
	DatabasePath       string `mapstructure:"database-path" validate:"required"`
	CacheDriver        string `mapstructure:"cache-driver" validate:"oneof=memory redis"`
	RedisAddress       string `mapstructure:"redis-address"`
	RedisDB            int    `mapstructure:"redis-db"`
	SessionExpiry      int    `mapstructure:"session-expiry"`
	SessionSecret      string `mapstructure:"session-secret" validate:"required,min=32"`
	EncryptionSecret   string `mapstructure:"encryption-secret" validate:"required,len=32"`
	DefaultOAuthScopes string `mapstructure:"default-oauth-scopes"`
	SelfHosted         bool   `mapstructure:"self-hosted"`
	Environment        string `mapstructure:"environment" validate:"oneof=production development testing"`
	LogLevel           string `mapstructure:"log-level" validate:"oneof=trace debug info warn error fatal panic"`
	TrustedProxies     string `mapstructure:"trusted-proxies"`

	GoogleClientID       string `mapstructure:"google-client-id"`
	GoogleClientSecret   string `mapstructure:"google-client-secret"`
	TelegramBotToken     string `mapstructure:"telegram-bot-token"`
	TelegramBotUsername  string `mapstructure:"telegram-bot-username"`
	TelegramAuthDuration int    `mapstructure:"telegram-auth-duration"`
}

// OAuth/OIDC flow types

// Identity is the normalized user object every driver produces.
type Identity struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	Nickname     string         `json:"nickname"`
	GivenName    string         `json:"given_name"`
	FamilyName   string         `json:"family_name"`
	Groups       []string       `json:"groups"`
	AccessToken  string         `json:"-"`
	RefreshToken string         `json:"-"`
	IDToken      string         `json:"-"`
	Scopes       []string       `json:"-"`
	Raw          map[string]any `json:"-"`
}

// DiscoveryDocument holds the endpoints formgate needs from an issuer's
// well-known configuration.
type DiscoveryDocument struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
}

// RedirectOptions parameterizes a single redirect URL generation. The
// struct is built once by the caller, drivers never mutate it.
type RedirectOptions struct {
	Scopes      []string
	State       string
	ExtraParams map[string]string
}

// CallbackData carries the inbound callback query values a driver needs.
type CallbackData struct {
	Code  string
	State string
}

// PendingOAuthContext is written before a redirect and pulled exactly once
// by the completion strategy handling the callback.
type PendingOAuthContext struct {
	Intention    string `json:"intention"`
	AutoClose    bool   `json:"autoClose"`
	InvitedEmail string `json:"invited_email,omitempty"`
	InviteToken  string `json:"invite_token,omitempty"`
	UTMData      string `json:"utm_data,omitempty"`
}

// Intents select the completion strategy on callback.

const (
	IntentAuth        = "auth"
	IntentIntegration = "integration"
	IntentWidget      = "widget"
)

// User/session related stuff

type UserContext struct {
	UserID     string
	Email      string
	Name       string
	IsLoggedIn bool
}

type SessionPayload struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	NewUser     bool   `json:"new_user,omitempty"`
}
