package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"formgate/internal/model"
	"formgate/internal/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var ErrConnectionNotFound = errors.New("identity connection not found")

type ConnectionServiceConfig struct {
	EncryptionSecret string
}

// ConnectionService manages tenant OIDC connections. Client secrets are
// encrypted before they reach the database and never leave it decrypted,
// only the broker decrypts them at driver resolution time.
type ConnectionService struct {
	Config   ConnectionServiceConfig
	Database *gorm.DB
}

func NewConnectionService(config ConnectionServiceConfig, database *gorm.DB) *ConnectionService {
	return &ConnectionService{
		Config:   config,
		Database: database,
	}
}

type ConnectionInput struct {
	Slug         string
	Issuer       string
	ClientID     string
	ClientSecret string
	Scopes       []string
	RedirectPath string
	Enabled      bool
	WorkspaceID  string
}

func (connections *ConnectionService) Create(ctx context.Context, input ConnectionInput) (model.IdentityConnection, error) {
	encrypted, err := utils.EncryptSecret(input.ClientSecret, connections.Config.EncryptionSecret)
	if err != nil {
		return model.IdentityConnection{}, err
	}

	now := time.Now().Unix()

	connection := model.IdentityConnection{
		ID:           uuid.NewString(),
		Slug:         input.Slug,
		Issuer:       utils.NormalizeIssuer(input.Issuer),
		ClientID:     input.ClientID,
		ClientSecret: encrypted,
		Scopes:       strings.Join(input.Scopes, " "),
		RedirectPath: input.RedirectPath,
		Enabled:      input.Enabled,
		WorkspaceID:  input.WorkspaceID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := connections.Database.WithContext(ctx).Create(&connection).Error; err != nil {
		return model.IdentityConnection{}, err
	}

	log.Info().Str("slug", connection.Slug).Msg("Created identity connection")
	return connection, nil
}

func (connections *ConnectionService) List(ctx context.Context, workspaceID string) ([]model.IdentityConnection, error) {
	var records []model.IdentityConnection

	query := connections.Database.WithContext(ctx)
	if workspaceID != "" {
		query = query.Where("workspace_id = ? OR workspace_id = ''", workspaceID)
	}

	if err := query.Order("slug").Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (connections *ConnectionService) GetBySlug(ctx context.Context, slug string) (model.IdentityConnection, error) {
	var connection model.IdentityConnection

	err := connections.Database.WithContext(ctx).Where("slug = ?", slug).First(&connection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.IdentityConnection{}, ErrConnectionNotFound
		}
		return model.IdentityConnection{}, err
	}

	return connection, nil
}

func (connections *ConnectionService) Update(ctx context.Context, slug string, input ConnectionInput) (model.IdentityConnection, error) {
	connection, err := connections.GetBySlug(ctx, slug)
	if err != nil {
		return model.IdentityConnection{}, err
	}

	connection.Issuer = utils.NormalizeIssuer(input.Issuer)
	connection.ClientID = input.ClientID
	connection.Scopes = strings.Join(input.Scopes, " ")
	connection.RedirectPath = input.RedirectPath
	connection.Enabled = input.Enabled
	connection.WorkspaceID = input.WorkspaceID
	connection.UpdatedAt = time.Now().Unix()

	// An empty secret means keep the stored one
	if input.ClientSecret != "" {
		encrypted, err := utils.EncryptSecret(input.ClientSecret, connections.Config.EncryptionSecret)
		if err != nil {
			return model.IdentityConnection{}, err
		}
		connection.ClientSecret = encrypted
	}

	if err := connections.Database.WithContext(ctx).Save(&connection).Error; err != nil {
		return model.IdentityConnection{}, err
	}

	return connection, nil
}

func (connections *ConnectionService) Delete(ctx context.Context, slug string) error {
	result := connections.Database.WithContext(ctx).Where("slug = ?", slug).Delete(&model.IdentityConnection{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConnectionNotFound
	}
	return nil
}
