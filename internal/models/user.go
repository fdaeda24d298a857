package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 顾客表
type User struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`       // 主键（uuid）
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`           // 邮箱
	PasswordHash string         `gorm:"not null" json:"-"`                           // 密码哈希（不返回给前端）
	DisplayName  string         `gorm:"default:''" json:"display_name"`              // 昵称
	Phone        string         `gorm:"type:varchar(32);default:''" json:"phone"`    // 电话
	Address      string         `gorm:"type:varchar(500);default:''" json:"address"` // 默认收货地址
	Locale       string         `gorm:"default:'vi-VN'" json:"locale"`               // 语言偏好
	Status       string         `gorm:"default:'active'" json:"status"`              // 账号状态
	TokenVersion uint64         `gorm:"not null;default:0" json:"-"`                 // Token 版本（用于全量失效）
	LastLoginAt  *time.Time     `json:"last_login_at"`                               // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                     // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// BeforeCreate 未指定主键时生成 uuid
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
