package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Gopher0727/MessageBoard/internal/model"
)

type ILikeRepository interface {
	Create(ctx context.Context, messageID uint, userID string) (bool, error)
	Delete(ctx context.Context, messageID uint, userID string) (bool, error)
	DeleteByMessage(ctx context.Context, messageID uint) (int64, error)
	CountByMessage(ctx context.Context, messageID uint) (int64, error)
}

type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) ILikeRepository {
	return &LikeRepository{db: db}
}

// Create inserts the (message, user) pair and reports whether a row was written.
// An existing pair is left alone.
func (r *LikeRepository) Create(ctx context.Context, messageID uint, userID string) (bool, error) {
	like := &model.Like{MessageID: messageID, UserID: userID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(like)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the (message, user) pair and reports whether it existed
func (r *LikeRepository) Delete(ctx context.Context, messageID uint, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Delete(&model.Like{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *LikeRepository) DeleteByMessage(ctx context.Context, messageID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("message_id = ?", messageID).Delete(&model.Like{})
	return res.RowsAffected, res.Error
}

func (r *LikeRepository) CountByMessage(ctx context.Context, messageID uint) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).Where("message_id = ?", messageID).Count(&cnt).Error
	return cnt, err
}
