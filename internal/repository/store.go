package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Store groups the repositories that share one *gorm.DB, either the pool or an open transaction.
type Store struct {
	db *gorm.DB

	Users    IUserRepository
	Messages IMessageRepository
	Likes    ILikeRepository
}

// NewStore creates a Store bound to db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Users:    NewUserRepository(db),
		Messages: NewMessageRepository(db),
		Likes:    NewLikeRepository(db),
	}
}

// Transaction runs fn against a Store bound to a single transaction.
// Returning an error from fn rolls back every statement fn issued.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Ping checks that the underlying database is reachable
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
