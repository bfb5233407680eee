package model

// IdentityConnection is a tenant-configured OIDC provider. The client
// secret column holds ciphertext, the auth flow decrypts it at driver
// resolution time.
type IdentityConnection struct {
	ID           string `gorm:"column:id;primaryKey"`
	Slug         string `gorm:"column:slug;uniqueIndex;not null"`
	Issuer       string `gorm:"column:issuer;not null"`
	ClientID     string `gorm:"column:client_id;not null"`
	ClientSecret string `gorm:"column:client_secret;not null"`
	Scopes       string `gorm:"column:scopes"` // space-joined
	RedirectPath string `gorm:"column:redirect_path"`
	Enabled      bool   `gorm:"column:enabled;default:true"`
	WorkspaceID  string `gorm:"column:workspace_id;index"` // empty = global
	FieldMapping string `gorm:"column:field_mapping"`      // JSON object
	GroupMapping string `gorm:"column:group_mapping"`      // JSON object, group -> role
	CreatedAt    int64  `gorm:"column:created_at"`
	UpdatedAt    int64  `gorm:"column:updated_at"`
}

func (IdentityConnection) TableName() string {
	return "identity_connections"
}
