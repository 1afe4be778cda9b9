package model

import (
	"time"
)

const (
	DefaultAvatar         = "/static/logo.png"
	defaultUserNamePrefix = "用户"
)

// User 用户模型，首次查询资料时惰性创建
type User struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   string `gorm:"uniqueIndex;not null" json:"user_id"`
	UserName string `json:"user_name"`
	Avatar   string `json:"avatar"`

	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// UserProfile 用户资料与统计
type UserProfile struct {
	User
	TotalMessages int64 `json:"total_messages"`
	TotalLikes    int64 `json:"total_likes"`
}

// DefaultUserName 生成默认昵称："用户" + user_id 的最后 4 个字符（不足 4 个取全部）
func DefaultUserName(userID string) string {
	runes := []rune(userID)
	if len(runes) > 4 {
		runes = runes[len(runes)-4:]
	}
	return defaultUserNamePrefix + string(runes)
}

// NewDefaultUser 构造惰性创建时使用的默认用户
func NewDefaultUser(userID string) *User {
	return &User{
		UserID:   userID,
		UserName: DefaultUserName(userID),
		Avatar:   DefaultAvatar,
	}
}
