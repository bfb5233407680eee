package model

type Workspace struct {
	ID        string `gorm:"column:id;primaryKey"`
	Name      string `gorm:"column:name;not null"`
	CreatedAt int64  `gorm:"column:created_at"`
	UpdatedAt int64  `gorm:"column:updated_at"`
}

func (Workspace) TableName() string {
	return "workspaces"
}

type WorkspaceUser struct {
	ID          int    `gorm:"column:id;primaryKey;autoIncrement"`
	WorkspaceID string `gorm:"column:workspace_id;not null;index"`
	UserID      string `gorm:"column:user_id;not null;index"`
	Role        string `gorm:"column:role;not null"`
	CreatedAt   int64  `gorm:"column:created_at"`
}

func (WorkspaceUser) TableName() string {
	return "workspace_users"
}

const (
	WorkspaceRoleAdmin  = "admin"
	WorkspaceRoleMember = "member"
)
