package entity

import "time"

// 用户角色
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User 用户
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	FullName  string    `json:"fullName" gorm:"size:128;not null"`
	Email     string    `json:"email" gorm:"size:256;not null;uniqueIndex"`
	Password  string    `json:"-" gorm:"size:128;not null"`
	Role      string    `json:"role" gorm:"size:16;not null;default:USER"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AllModels 需要迁移的全部表
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&PackagingItem{},
		&PackagingComponent{},
		&PackagingDocument{},
	}
}
