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

// GuestUserID 未提供 user_id 时列表使用的查看者
const GuestUserID = "guest"

// CreateMessageRequest represents a request to post a message
type CreateMessageRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Avatar   string `json:"avatar"`
}

// IMessageService defines the interface for message operations
type IMessageService interface {
	ListMessages(ctx context.Context, viewerID string) ([]*model.MessageView, error)
	CreateMessage(ctx context.Context, req *CreateMessageRequest) (*model.Message, error)
	DeleteMessage(ctx context.Context, id uint, userID string) error
	ToggleLike(ctx context.Context, id uint, userID string) (bool, error)
}

type MessageService struct {
	store  *repository.Store
	cache  cache.ProfileCache
	events *EventDispatcher
	logger *logger.Logger
}

// NewMessageService creates a MessageService. profileCache and events may be nil.
func NewMessageService(
	store *repository.Store,
	profileCache cache.ProfileCache,
	events *EventDispatcher,
	log *logger.Logger,
) *MessageService {
	if log == nil {
		log = logger.NewNop()
	}
	return &MessageService{
		store:  store,
		cache:  profileCache,
		events: events,
		logger: log,
	}
}

// ListMessages returns every message newest first with the viewer's liked flag
func (s *MessageService) ListMessages(ctx context.Context, viewerID string) ([]*model.MessageView, error) {
	if viewerID == "" {
		viewerID = GuestUserID
	}
	views, err := s.store.Messages.ListWithLiked(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return views, nil
}

// CreateMessage stores a new message with a snapshot of the author's name and avatar.
// No user row is created or checked.
func (s *MessageService) CreateMessage(ctx context.Context, req *CreateMessageRequest) (*model.Message, error) {
	if req.Title == "" || req.Content == "" || req.UserID == "" || req.UserName == "" {
		return nil, ErrMissingParams
	}
	avatar := req.Avatar
	if avatar == "" {
		avatar = model.DefaultAvatar
	}

	message := &model.Message{
		Title:    req.Title,
		Content:  req.Content,
		UserID:   req.UserID,
		UserName: req.UserName,
		Avatar:   avatar,
	}
	if err := s.store.Messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	// 重新读取，返回数据库中的完整记录
	created, err := s.store.Messages.FindByID(ctx, message.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload message %d: %w", message.ID, err)
	}

	s.invalidateProfile(ctx, created.UserID)
	s.events.Dispatch(ctx, Event{
		Type:      EventMessageCreated,
		MessageID: created.ID,
		ActorID:   created.UserID,
		AuthorID:  created.UserID,
		Message:   created,
	})
	return created, nil
}

// DeleteMessage removes a message and its likes in one transaction.
// Only the author may delete; any other caller gets ErrMessageNotFound.
func (s *MessageService) DeleteMessage(ctx context.Context, id uint, userID string) error {
	if userID == "" {
		return ErrMissingUserID
	}
	if id == 0 {
		return ErrInvalidMessageID
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Messages.FindByIDAndUser(ctx, id, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrMessageNotFound
			}
			return fmt.Errorf("failed to load message %d: %w", id, err)
		}
		// 先删点赞再删留言，避免留下孤儿点赞
		if _, err := tx.Likes.DeleteByMessage(ctx, id); err != nil {
			return fmt.Errorf("failed to delete likes of message %d: %w", id, err)
		}
		if err := tx.Messages.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete message %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateProfile(ctx, userID)
	s.events.Dispatch(ctx, Event{
		Type:      EventMessageDeleted,
		MessageID: id,
		ActorID:   userID,
		AuthorID:  userID,
	})
	return nil
}

// ToggleLike flips userID's like on the message and reports the new state.
// The like row and like_count change together in one transaction.
func (s *MessageService) ToggleLike(ctx context.Context, id uint, userID string) (bool, error) {
	if userID == "" {
		return false, ErrMissingUserID
	}
	if id == 0 {
		return false, ErrInvalidMessageID
	}

	var (
		liked    bool
		changed  bool
		authorID string
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		message, err := tx.Messages.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrMessageNotFound
			}
			return fmt.Errorf("failed to load message %d: %w", id, err)
		}
		authorID = message.UserID

		removed, err := tx.Likes.Delete(ctx, id, userID)
		if err != nil {
			return fmt.Errorf("failed to remove like: %w", err)
		}
		if removed {
			liked, changed = false, true
			return tx.Messages.AddLikeCount(ctx, id, -1)
		}

		inserted, err := tx.Likes.Create(ctx, id, userID)
		if err != nil {
			return fmt.Errorf("failed to add like: %w", err)
		}
		liked = true
		if !inserted {
			// 并发请求已经插入了同一行，状态已是已点赞，计数由那次请求负责
			return nil
		}
		changed = true
		return tx.Messages.AddLikeCount(ctx, id, 1)
	})
	if err != nil {
		return false, err
	}

	if changed {
		s.invalidateProfile(ctx, authorID)
		evType := EventMessageLiked
		if !liked {
			evType = EventMessageUnliked
		}
		s.events.Dispatch(ctx, Event{
			Type:      evType,
			MessageID: id,
			ActorID:   userID,
			AuthorID:  authorID,
		})
	}
	return liked, nil
}

func (s *MessageService) invalidateProfile(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate profile cache",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
