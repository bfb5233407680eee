package model

// OAuthProvider links a local user to a remote identity. Upserts key on
// {user_id, provider, provider_user_id} so replayed callbacks refresh
// tokens instead of duplicating rows.
type OAuthProvider struct {
	ID             int    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID         string `gorm:"column:user_id;not null;index"`
	Provider       string `gorm:"column:provider;not null"`
	ProviderUserID string `gorm:"column:provider_user_id;not null"`
	AccessToken    string `gorm:"column:access_token"`
	RefreshToken   string `gorm:"column:refresh_token"`
	Name           string `gorm:"column:name"`
	Email          string `gorm:"column:email"`
	Scopes         string `gorm:"column:scopes"` // space-joined
	RawClaims      string `gorm:"column:raw_claims"`
	CreatedAt      int64  `gorm:"column:created_at"`
	UpdatedAt      int64  `gorm:"column:updated_at"`
}

func (OAuthProvider) TableName() string {
	return "oauth_providers"
}
