package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"formgate/internal/config"
	"formgate/internal/utils"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

var GoogleOAuthScopes = []string{"openid", "https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"}

const googleUserinfoURL = "https://www.googleapis.com/userinfo/v2/me"

type GoogleOAuthServiceConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type GoogleUserInfoResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

type GoogleOAuthService struct {
	Config  GoogleOAuthServiceConfig
	State   *StateService
	context context.Context
}

func NewGoogleOAuthService(config GoogleOAuthServiceConfig, state *StateService) *GoogleOAuthService {
	return &GoogleOAuthService{
		Config: config,
		State:  state,
	}
}

func (google *GoogleOAuthService) Init() error {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	google.context = ctx
	return nil
}

func (google *GoogleOAuthService) GetName() string {
	return "google"
}

func (google *GoogleOAuthService) oauthConfig(scopes []string) oauth2.Config {
	if len(scopes) == 0 {
		scopes = GoogleOAuthScopes
	}
	return oauth2.Config{
		ClientID:     google.Config.ClientID,
		ClientSecret: google.Config.ClientSecret,
		RedirectURL:  google.Config.RedirectURL,
		Scopes:       scopes,
		Endpoint:     endpoints.Google,
	}
}

func (google *GoogleOAuthService) GetRedirectURL(ctx context.Context, opts config.RedirectOptions) (string, error) {
	state := opts.State
	if state == "" {
		state = utils.GenerateState()
	}
	google.State.PutState(state)

	oauthConfig := google.oauthConfig(opts.Scopes)

	authOpts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	for key, value := range opts.ExtraParams {
		authOpts = append(authOpts, oauth2.SetAuthURLParam(key, value))
	}

	return oauthConfig.AuthCodeURL(state, authOpts...), nil
}

func (google *GoogleOAuthService) GetUser(ctx context.Context, callback config.CallbackData) (config.Identity, error) {
	oauthConfig := google.oauthConfig(nil)

	token, err := oauthConfig.Exchange(google.context, callback.Code)
	if err != nil {
		return config.Identity{}, fmt.Errorf("%w: %v", ErrIdentityResolution, err)
	}

	client := oauthConfig.Client(google.context, token)

	res, err := client.Get(googleUserinfoURL)
	if err != nil {
		return config.Identity{}, fmt.Errorf("%w: %v", ErrIdentityResolution, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return config.Identity{}, fmt.Errorf("%w: userinfo request returned %s", ErrIdentityResolution, res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return config.Identity{}, fmt.Errorf("%w: %v", ErrIdentityResolution, err)
	}

	var userInfo GoogleUserInfoResponse
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return config.Identity{}, fmt.Errorf("%w: %v", ErrIdentityResolution, err)
	}

	idToken, _ := token.Extra("id_token").(string)

	return config.Identity{
		ID:           userInfo.ID,
		Email:        userInfo.Email,
		Name:         userInfo.Name,
		Nickname:     strings.Split(userInfo.Email, "@")[0],
		GivenName:    userInfo.GivenName,
		FamilyName:   userInfo.FamilyName,
		Groups:       []string{},
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IDToken:      idToken,
	}, nil
}
