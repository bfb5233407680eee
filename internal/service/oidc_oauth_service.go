package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"formgate/internal/config"
	"formgate/internal/utils"

	"github.com/rs/zerolog/log"
)

// OIDCOAuthServiceConfig is built once per driver instance. Tenant
// connections get a fresh instance per request, credentials are never
// shared across tenants.
type OIDCOAuthServiceConfig struct {
	Name          string
	Issuer        string
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	Scopes        []string // tenant-configured, may be empty
	DefaultScopes []string
	HTTPTimeout   time.Duration
}

type OIDCOAuthService struct {
	Config    OIDCOAuthServiceConfig
	State     *StateService
	Discovery *DiscoveryService
	client    *http.Client
}

func NewOIDCOAuthService(config OIDCOAuthServiceConfig, state *StateService, discovery *DiscoveryService) *OIDCOAuthService {
	timeout := config.HTTPTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &OIDCOAuthService{
		Config:    config,
		State:     state,
		Discovery: discovery,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (oidc *OIDCOAuthService) GetName() string {
	return oidc.Config.Name
}

// EffectiveScopes resolves scopes with explicit overrides first, then the
// tenant connection's scopes, then the system default.
func (oidc *OIDCOAuthService) EffectiveScopes(explicit []string) []string {
	if len(explicit) > 0 {
		return explicit
	}
	if len(oidc.Config.Scopes) > 0 {
		return oidc.Config.Scopes
	}
	if len(oidc.Config.DefaultScopes) > 0 {
		return oidc.Config.DefaultScopes
	}
	return config.DefaultOIDCScopes
}

func (oidc *OIDCOAuthService) GetRedirectURL(ctx context.Context, opts config.RedirectOptions) (string, error) {
	document, err := oidc.Discovery.GetConfiguration(ctx, oidc.Config.Issuer)
	if err != nil {
		return "", err
	}

	state := opts.State
	if state == "" {
		state = utils.GenerateState()
	}
	nonce := utils.GenerateNonce()

	oidc.State.PutState(state)
	oidc.State.PutNonce(state, nonce)

	authURL, err := url.Parse(document.AuthorizationEndpoint)
	if err != nil {
		return "", fmt.Errorf("%w: invalid authorization endpoint: %v", ErrDiscovery, err)
	}

	query := authURL.Query()
	query.Set("client_id", oidc.Config.ClientID)
	query.Set("redirect_uri", oidc.Config.RedirectURL)
	query.Set("scope", strings.Join(oidc.EffectiveScopes(opts.Scopes), " "))
	query.Set("response_type", "code")
	query.Set("state", state)
	query.Set("nonce", nonce)
	for key, value := range opts.ExtraParams {
		query.Set(key, value)
	}
	authURL.RawQuery = query.Encode()

	return authURL.String(), nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

func (oidc *OIDCOAuthService) GetUser(ctx context.Context, callback config.CallbackData) (config.Identity, error) {
	document, err := oidc.Discovery.GetConfiguration(ctx, oidc.Config.Issuer)
	if err != nil {
		return config.Identity{}, err
	}

	tokens, err := oidc.exchangeCode(ctx, document.TokenEndpoint, callback.Code)
	if err != nil {
		return config.Identity{}, err
	}

	var claims map[string]any

	if tokens.IDToken != "" {
		claims, err = utils.DecodeJWTPayload(tokens.IDToken)
		if err != nil {
			return config.Identity{}, fmt.Errorf("%w: %v", ErrIdentityResolution, err)
		}

		// The ID token signature and standard claims (exp, aud, iss) are
		// not checked here, only the nonce. The token arrives over the
		// direct TLS exchange with the token endpoint.
		if err := oidc.validateNonce(callback.State, claims); err != nil {
			return config.Identity{}, err
		}
	} else if document.UserinfoEndpoint != "" {
		claims, err = oidc.fetchUserinfo(ctx, document.UserinfoEndpoint, tokens.AccessToken)
		if err != nil {
			return config.Identity{}, err
		}
	} else {
		return config.Identity{}, fmt.Errorf("%w: provider returned no ID token and exposes no userinfo endpoint", ErrIdentityResolution)
	}

	identity := mapClaimsToIdentity(claims)
	identity.AccessToken = tokens.AccessToken
	identity.RefreshToken = tokens.RefreshToken
	identity.IDToken = tokens.IDToken
	identity.Scopes = utils.ParseSpaceString(tokens.Scope)

	return identity, nil
}

// validateNonce enforces single use. The stored nonce is looked up by the
// inbound state first, falling back to the ID token's own nonce value.
// Both records are consumed no matter the outcome, a missing record fails
// closed.
func (oidc *OIDCOAuthService) validateNonce(state string, claims map[string]any) error {
	idNonce := utils.StringClaim(claims, "nonce")
	if idNonce == "" {
		// Provider does not use nonces
		return nil
	}

	stored, found := oidc.State.GetNonceByState(state)
	if !found {
		stored, found = oidc.State.GetNonceByValue(idNonce)
	}

	oidc.State.ForgetState(state)
	oidc.State.ForgetNonce(state, idNonce)

	if !found || stored != idNonce {
		log.Warn().Str("provider", oidc.Config.Name).Msg("Nonce missing or mismatched, rejecting callback")
		return ErrInvalidNonce
	}

	return nil
}

func (oidc *OIDCOAuthService) exchangeCode(ctx context.Context, tokenEndpoint string, code string) (tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", oidc.Config.ClientID)
	form.Set("client_secret", oidc.Config.ClientSecret)
	form.Set("redirect_uri", oidc.Config.RedirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("%w: %v", ErrIdentityResolution, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	res, err := oidc.client.Do(req)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("%w: %v", ErrIdentityResolution, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return tokenResponse{}, fmt.Errorf("%w: token endpoint returned %s", ErrIdentityResolution, res.Status)
	}

	var tokens tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tokens); err != nil {
		return tokenResponse{}, fmt.Errorf("%w: %v", ErrIdentityResolution, err)
	}

	return tokens, nil
}

func (oidc *OIDCOAuthService) fetchUserinfo(ctx context.Context, userinfoEndpoint string, accessToken string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityResolution, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	res, err := oidc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityResolution, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: userinfo endpoint returned %s", ErrIdentityResolution, res.Status)
	}

	var claims map[string]any
	if err := json.NewDecoder(res.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityResolution, err)
	}

	return claims, nil
}

// mapClaimsToIdentity normalizes provider claims into the user object the
// completion strategies consume.
func mapClaimsToIdentity(claims map[string]any) config.Identity {
	id := utils.StringClaim(claims, "sub")
	if id == "" {
		id = utils.StringClaim(claims, "id")
		if id == "" {
			// Some providers hand back numeric ids
			if n, ok := claims["id"].(float64); ok {
				id = fmt.Sprintf("%.0f", n)
			}
		}
	}

	groups := utils.CoalesceToStrings(claims["groups"])
	if len(groups) == 0 {
		groups = utils.CoalesceToStrings(claims["group"])
	}

	return config.Identity{
		ID:         id,
		Email:      utils.StringClaim(claims, "email"),
		Name:       utils.StringClaim(claims, "name"),
		Nickname:   utils.StringClaim(claims, "nickname"),
		GivenName:  utils.StringClaim(claims, "given_name"),
		FamilyName: utils.StringClaim(claims, "family_name"),
		Groups:     groups,
		Raw:        claims,
	}
}
