package model

import (
	"time"
)

// Like 点赞记录，(message_id, user_id) 唯一，行存在即表示已点赞
type Like struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID uint   `gorm:"not null;uniqueIndex:idx_like_pair" json:"message_id"`
	UserID    string `gorm:"not null;uniqueIndex:idx_like_pair" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}
