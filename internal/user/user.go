package user

import "time"

// 系统内置的两种角色。
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User users 表的 GORM 模型。密码只存 bcrypt 哈希。
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	PasswordHash string    `gorm:"size:72;not null" json:"-"`
	Nickname     string    `gorm:"size:64" json:"nickname"`
	Phone        string    `gorm:"size:32" json:"phone"`
	Email        string    `gorm:"size:128" json:"email"`
	Role         string    `gorm:"size:16;not null;default:user" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
