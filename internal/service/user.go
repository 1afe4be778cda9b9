package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Gopher0727/MessageBoard/internal/model"
	cache "github.com/Gopher0727/MessageBoard/internal/pkg/redis"
	"github.com/Gopher0727/MessageBoard/internal/repository"
	logger "github.com/Gopher0727/MessageBoard/middleware/log"
)

type IUserService interface {
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
}

type UserService struct {
	store  *repository.Store
	cache  cache.ProfileCache
	logger *logger.Logger
}

// NewUserService creates a UserService. profileCache may be nil.
func NewUserService(store *repository.Store, profileCache cache.ProfileCache, log *logger.Logger) *UserService {
	if log == nil {
		log = logger.NewNop()
	}
	return &UserService{store: store, cache: profileCache, logger: log}
}

// GetProfile returns the user with message and like totals, creating a default
// user the first time an unknown user_id is looked up.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	if s.cache != nil {
		profile, err := s.cache.Get(ctx, userID)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "profile cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	var profile *model.UserProfile
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		user, err := tx.Users.FindByUserID(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			// 并发的首次查询可能同时插入，冲突时忽略并重新读取
			if err := tx.Users.CreateIfAbsent(ctx, model.NewDefaultUser(userID)); err != nil {
				return fmt.Errorf("failed to create user %s: %w", userID, err)
			}
			s.logger.InfoContext(ctx, "user created on first lookup", zap.String("user_id", userID))
			user, err = tx.Users.FindByUserID(ctx, userID)
		}
		if err != nil {
			return fmt.Errorf("failed to load user %s: %w", userID, err)
		}

		stats, err := tx.Messages.StatsByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load stats of %s: %w", userID, err)
		}

		profile = &model.UserProfile{
			User:          *user,
			TotalMessages: stats.TotalMessages,
			TotalLikes:    stats.TotalLikes,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, profile); err != nil {
			s.logger.WarnContext(ctx, "profile cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return profile, nil
}
