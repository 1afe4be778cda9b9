package model

import (
	"time"
)

// Message 留言模型
// UserName/Avatar 是发布时作者资料的快照，之后作者资料变化不会回写
type Message struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string `gorm:"not null" json:"title"`
	Content   string `gorm:"not null" json:"content"`
	UserID    string `gorm:"index;not null" json:"user_id"`
	UserName  string `gorm:"not null" json:"user_name"`
	Avatar    string `json:"avatar"`
	LikeCount int64  `gorm:"not null;default:0" json:"like_count"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

// MessageView 列表项，附带当前查看者是否已点赞
type MessageView struct {
	Message `gorm:"embedded"`
	Liked   bool `json:"liked"`
}
