package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"formgate/internal/config"
	"formgate/internal/model"

	"github.com/rs/zerolog/log"
)

// FlowContext carries everything a completion strategy needs besides the
// identity itself: the provider key, the callback state and the caller's
// session, if any.
type FlowContext struct {
	Provider string
	State    string
	Caller   config.UserContext
}

// CompletionResult is the strategy's user-facing outcome: a session for
// login flows, a linked provider record for integration flows.
type CompletionResult struct {
	Session   *config.SessionPayload `json:"session,omitempty"`
	Provider  *model.OAuthProvider   `json:"provider,omitempty"`
	AutoClose bool                   `json:"auto_close,omitempty"`
	Intention string                 `json:"intention,omitempty"`
}

// CompletionStrategy is the post-authentication business logic, selected
// by intent.
type CompletionStrategy interface {
	Execute(ctx context.Context, flow FlowContext, identity config.Identity) (CompletionResult, error)
}

type CompletionService struct {
	Auth  *AuthService
	State *StateService

	strategies map[string]CompletionStrategy
}

func NewCompletionService(auth *AuthService, state *StateService) *CompletionService {
	completion := &CompletionService{
		Auth:  auth,
		State: state,
	}
	completion.strategies = map[string]CompletionStrategy{
		config.IntentAuth:        &AuthenticationStrategy{Auth: auth},
		config.IntentIntegration: &IntegrationStrategy{Auth: auth, State: state},
		config.IntentWidget:      &WidgetStrategy{Auth: auth, State: state},
	}
	return completion
}

// StrategyFor returns the strategy for the given intent, defaulting to
// authentication.
func (completion *CompletionService) StrategyFor(intent string) CompletionStrategy {
	if strategy, exists := completion.strategies[intent]; exists {
		return strategy
	}
	return completion.strategies[config.IntentAuth]
}

// AuthenticationStrategy signs a user in by creating the account on first
// contact. Existing fully-registered accounts are rejected so OAuth can
// not silently take over a password login.
type AuthenticationStrategy struct {
	Auth *AuthService
}

func (strategy *AuthenticationStrategy) Execute(ctx context.Context, flow FlowContext, identity config.Identity) (CompletionResult, error) {
	email := strings.ToLower(identity.Email)
	if email == "" {
		return CompletionResult{}, fmt.Errorf("%w: provider returned no email", ErrIdentityResolution)
	}

	user, found, err := strategy.Auth.FindUserByEmail(ctx, email)
	if err != nil {
		return CompletionResult{}, err
	}

	newUser := false

	switch {
	case found && user.Registered():
		return CompletionResult{}, ErrAlreadyRegistered
	case !found:
		if !strategy.Auth.RegistrationAllowed() {
			return CompletionResult{}, ErrRegistrationDisabled
		}
		user, err = strategy.Auth.CreateUserFromIdentity(ctx, identity, flow.Provider)
		if err != nil {
			return CompletionResult{}, err
		}
		newUser = true
	default:
		// Account exists but never finished signup, adopt it
		user.SignupProvider = flow.Provider
		user.EmailVerifiedAt = time.Now().Unix()
		if err := strategy.Auth.Database.WithContext(ctx).Save(&user).Error; err != nil {
			return CompletionResult{}, err
		}
	}

	if _, err := strategy.Auth.UpsertProvider(ctx, user.ID, flow.Provider, identity); err != nil {
		return CompletionResult{}, err
	}

	session, err := strategy.Auth.IssueSessionToken(user)
	if err != nil {
		return CompletionResult{}, err
	}
	session.NewUser = newUser

	log.Info().Str("userId", user.ID).Str("provider", flow.Provider).Bool("newUser", newUser).Msg("OAuth login completed")
	return CompletionResult{Session: &session}, nil
}

// IntegrationStrategy links a provider to the already-authenticated
// caller and hands back the pending context stored before the redirect.
type IntegrationStrategy struct {
	Auth  *AuthService
	State *StateService
}

func (strategy *IntegrationStrategy) Execute(ctx context.Context, flow FlowContext, identity config.Identity) (CompletionResult, error) {
	if !flow.Caller.IsLoggedIn {
		return CompletionResult{}, ErrUnauthenticatedForLink
	}

	record, err := strategy.Auth.UpsertProvider(ctx, flow.Caller.UserID, flow.Provider, identity)
	if err != nil {
		return CompletionResult{}, err
	}

	pending, _ := strategy.State.PullContext(flow.Caller.UserID, flow.State)

	log.Info().Str("userId", flow.Caller.UserID).Str("provider", flow.Provider).Msg("OAuth provider linked")
	return CompletionResult{
		Provider:  &record,
		AutoClose: pending.AutoClose,
		Intention: pending.Intention,
	}, nil
}

// WidgetStrategy handles non-redirect flows. The payload's signature is
// checked by the widget driver before this strategy runs, the identity
// comes from the payload rather than a token exchange.
type WidgetStrategy struct {
	Auth  *AuthService
	State *StateService
}

func (strategy *WidgetStrategy) Execute(ctx context.Context, flow FlowContext, identity config.Identity) (CompletionResult, error) {
	if !flow.Caller.IsLoggedIn {
		return CompletionResult{}, ErrUnauthenticatedForLink
	}

	record, err := strategy.Auth.UpsertProvider(ctx, flow.Caller.UserID, flow.Provider, identity)
	if err != nil {
		return CompletionResult{}, err
	}

	pending, _ := strategy.State.PullContext(flow.Caller.UserID, flow.State)

	log.Info().Str("userId", flow.Caller.UserID).Str("provider", flow.Provider).Msg("Widget provider linked")
	return CompletionResult{
		Provider:  &record,
		AutoClose: pending.AutoClose,
		Intention: pending.Intention,
	}, nil
}
