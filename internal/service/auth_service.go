package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"formgate/internal/config"
	"formgate/internal/model"
	"formgate/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DefaultWorkspaceName = "My Workspace"

type AuthServiceConfig struct {
	SessionExpiry int
	SessionSecret string
	SelfHosted    bool
	Environment   string
}

type AuthService struct {
	Config   AuthServiceConfig
	Database *gorm.DB
}

func NewAuthService(config AuthServiceConfig, database *gorm.DB) *AuthService {
	return &AuthService{
		Config:   config,
		Database: database,
	}
}

func (auth *AuthService) FindUserByEmail(ctx context.Context, email string) (model.User, bool, error) {
	var user model.User

	err := auth.Database.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, false, nil
		}
		return model.User{}, false, err
	}

	return user, true, nil
}

func (auth *AuthService) FindUserByID(ctx context.Context, id string) (model.User, bool, error) {
	var user model.User

	err := auth.Database.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, false, nil
		}
		return model.User{}, false, err
	}

	return user, true, nil
}

// RegistrationAllowed reports whether new signups are accepted. Self
// hosted instances reject them outside the test environment.
func (auth *AuthService) RegistrationAllowed() bool {
	if auth.Config.SelfHosted && auth.Config.Environment != "testing" {
		return false
	}
	return true
}

// CreateUserFromIdentity creates a user with a verified email, records
// the signup provider and attaches a default workspace with the admin
// role.
func (auth *AuthService) CreateUserFromIdentity(ctx context.Context, identity config.Identity, provider string) (model.User, error) {
	now := time.Now().Unix()

	name := identity.Name
	if name == "" {
		parts := strings.SplitN(identity.Email, "@", 2)
		name = utils.Capitalize(parts[0])
	}

	user := model.User{
		ID:              uuid.NewString(),
		Email:           strings.ToLower(identity.Email),
		Name:            name,
		EmailVerifiedAt: now,
		SignupProvider:  provider,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	workspace := model.Workspace{
		ID:        uuid.NewString(),
		Name:      DefaultWorkspaceName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := auth.Database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if err := tx.Create(&workspace).Error; err != nil {
			return err
		}
		return tx.Create(&model.WorkspaceUser{
			WorkspaceID: workspace.ID,
			UserID:      user.ID,
			Role:        model.WorkspaceRoleAdmin,
			CreatedAt:   now,
		}).Error
	})

	if err != nil {
		return model.User{}, err
	}

	log.Info().Str("userId", user.ID).Str("provider", provider).Msg("Created user from OAuth identity")
	return user, nil
}

func (auth *AuthService) CheckPassword(user model.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

// UpsertProvider links a remote identity to a local user. Matching on
// {user_id, provider, provider_user_id} makes callback replays update
// tokens instead of duplicating rows.
func (auth *AuthService) UpsertProvider(ctx context.Context, userID string, provider string, identity config.Identity) (model.OAuthProvider, error) {
	now := time.Now().Unix()

	rawClaims := ""
	if identity.Raw != nil {
		if encoded, err := json.Marshal(identity.Raw); err == nil {
			rawClaims = string(encoded)
		}
	}

	var record model.OAuthProvider

	err := auth.Database.WithContext(ctx).
		Where("user_id = ? AND provider = ? AND provider_user_id = ?", userID, provider, identity.ID).
		First(&record).Error

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return model.OAuthProvider{}, err
		}

		record = model.OAuthProvider{
			UserID:         userID,
			Provider:       provider,
			ProviderUserID: identity.ID,
			AccessToken:    identity.AccessToken,
			RefreshToken:   identity.RefreshToken,
			Name:           identity.Name,
			Email:          identity.Email,
			Scopes:         strings.Join(identity.Scopes, " "),
			RawClaims:      rawClaims,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := auth.Database.WithContext(ctx).Create(&record).Error; err != nil {
			return model.OAuthProvider{}, err
		}

		return record, nil
	}

	record.AccessToken = identity.AccessToken
	record.RefreshToken = identity.RefreshToken
	record.Name = identity.Name
	record.Email = identity.Email
	record.Scopes = strings.Join(identity.Scopes, " ")
	if rawClaims != "" {
		record.RawClaims = rawClaims
	}
	record.UpdatedAt = now

	if err := auth.Database.WithContext(ctx).Save(&record).Error; err != nil {
		return model.OAuthProvider{}, err
	}

	return record, nil
}

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// IssueSessionToken creates the bearer token handed back after a
// successful login or OAuth signup.
func (auth *AuthService) IssueSessionToken(user model.User) (config.SessionPayload, error) {
	expiry := auth.Config.SessionExpiry
	if expiry <= 0 {
		expiry = 3600
	}

	now := time.Now()

	claims := sessionClaims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    "formgate",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiry) * time.Second)),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(auth.Config.SessionSecret))
	if err != nil {
		return config.SessionPayload{}, err
	}

	return config.SessionPayload{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiry,
	}, nil
}

// VerifySessionToken parses a bearer token back into a user context.
func (auth *AuthService) VerifySessionToken(token string) (config.UserContext, error) {
	var claims sessionClaims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return []byte(auth.Config.SessionSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer("formgate"))

	if err != nil || !parsed.Valid {
		return config.UserContext{}, errors.New("invalid session token")
	}

	return config.UserContext{
		UserID:     claims.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		IsLoggedIn: true,
	}, nil
}
