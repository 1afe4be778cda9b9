package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Gopher0727/MessageBoard/internal/model"
)

type IMessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	FindByID(ctx context.Context, id uint) (*model.Message, error)
	FindByIDAndUser(ctx context.Context, id uint, userID string) (*model.Message, error)
	ListWithLiked(ctx context.Context, viewerID string) ([]*model.MessageView, error)
	Delete(ctx context.Context, id uint) error
	AddLikeCount(ctx context.Context, id uint, delta int) error
	StatsByUser(ctx context.Context, userID string) (*UserStats, error)
}

// UserStats 用户发帖数与获赞总数
type UserStats struct {
	TotalMessages int64
	TotalLikes    int64
}

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) IMessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *MessageRepository) FindByID(ctx context.Context, id uint) (*model.Message, error) {
	var message model.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&message).Error; err != nil {
		return nil, translate(err)
	}
	return &message, nil
}

// FindByIDAndUser returns the message only if userID is its author
func (r *MessageRepository) FindByIDAndUser(ctx context.Context, id uint, userID string) (*model.Message, error) {
	var message model.Message
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&message).Error
	if err != nil {
		return nil, translate(err)
	}
	return &message, nil
}

// ListWithLiked returns every message newest first, flagging the ones viewerID has liked
func (r *MessageRepository) ListWithLiked(ctx context.Context, viewerID string) ([]*model.MessageView, error) {
	views := make([]*model.MessageView, 0)
	err := r.db.WithContext(ctx).
		Table("messages AS m").
		Select("m.*, CASE WHEN l.id IS NOT NULL THEN 1 ELSE 0 END AS liked").
		Joins("LEFT JOIN likes AS l ON l.message_id = m.id AND l.user_id = ?", viewerID).
		Order("m.created_at DESC, m.id DESC").
		Scan(&views).Error
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Message{}).Error
}

// AddLikeCount adjusts like_count in place
func (r *MessageRepository) AddLikeCount(ctx context.Context, id uint, delta int) error {
	return r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("id = ?", id).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
}

func (r *MessageRepository) StatsByUser(ctx context.Context, userID string) (*UserStats, error) {
	var stats UserStats
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Select("COUNT(*) AS total_messages, CAST(COALESCE(SUM(like_count), 0) AS BIGINT) AS total_likes").
		Where("user_id = ?", userID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
