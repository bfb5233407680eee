package model

type User struct {
	ID              string `gorm:"column:id;primaryKey"`
	Email           string `gorm:"column:email;uniqueIndex;not null"`
	Name            string `gorm:"column:name"`
	Password        string `gorm:"column:password"`
	EmailVerifiedAt int64  `gorm:"column:email_verified_at"`
	SignupProvider  string `gorm:"column:signup_provider"`
	CreatedAt       int64  `gorm:"column:created_at"`
	UpdatedAt       int64  `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Registered reports whether the account completed signup, either through
// a password or a social provider.
func (u User) Registered() bool {
	return u.Password != "" || u.SignupProvider != ""
}
