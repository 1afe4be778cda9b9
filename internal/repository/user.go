package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Gopher0727/MessageBoard/internal/model"
)

// IUserRepository defines the interface for user data operations
type IUserRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.User, error)
	CreateIfAbsent(ctx context.Context, user *model.User) error
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) IUserRepository {
	return &UserRepository{db: db}
}

// FindByUserID finds a user by external user_id, returning ErrNotFound when absent
func (r *UserRepository) FindByUserID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// CreateIfAbsent inserts user unless a row with the same user_id already exists
func (r *UserRepository) CreateIfAbsent(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(user).Error
}
