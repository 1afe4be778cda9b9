package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Gopher0727/MessageBoard/config"
	"github.com/Gopher0727/MessageBoard/internal/model"
	cache "github.com/Gopher0727/MessageBoard/internal/pkg/redis"
	"github.com/Gopher0727/MessageBoard/internal/repository"
	"github.com/Gopher0727/MessageBoard/internal/storage"
	"github.com/Gopher0727/MessageBoard/internal/utils"
	logger "github.com/Gopher0727/MessageBoard/middleware/log"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := payload.(Event); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type testEnv struct {
	store    *repository.Store
	messages *MessageService
	users    *UserService
	events   *recordingPublisher
	redis    *miniredis.Miniredis
}

func setupTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := storage.OpenDatabase(&config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "board.db"),
		LogLevel: "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.CloseDatabase(db) })
	return repository.NewStore(db)
}

// setupEnv wires services with a synchronous event dispatcher and a miniredis-backed profile cache
func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	store := setupTestStore(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	profiles := cache.NewProfileCache(rdb, 0)

	pub := &recordingPublisher{}
	log := logger.NewNop()
	dispatcher := NewEventDispatcher(pub, nil, log)

	return &testEnv{
		store:    store,
		messages: NewMessageService(store, profiles, dispatcher, log),
		users:    NewUserService(store, profiles, log),
		events:   pub,
		redis:    mr,
	}
}

func (e *testEnv) post(t *testing.T, userID, title string) *model.Message {
	t.Helper()
	msg, err := e.messages.CreateMessage(context.Background(), &CreateMessageRequest{
		Title:    title,
		Content:  "body of " + title,
		UserID:   userID,
		UserName: "name-" + userID,
	})
	require.NoError(t, err)
	return msg
}

func TestCreateMessage(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("returns stored row with defaults", func(t *testing.T) {
		msg, err := env.messages.CreateMessage(ctx, &CreateMessageRequest{
			Title:    "A",
			Content:  "B",
			UserID:   "u1",
			UserName: "Alice",
		})
		require.NoError(t, err)
		assert.NotZero(t, msg.ID)
		assert.Equal(t, "A", msg.Title)
		assert.Equal(t, "B", msg.Content)
		assert.Equal(t, "u1", msg.UserID)
		assert.Equal(t, "Alice", msg.UserName)
		assert.Equal(t, model.DefaultAvatar, msg.Avatar)
		assert.Equal(t, int64(0), msg.LikeCount)
		assert.False(t, msg.CreatedAt.IsZero())
	})

	t.Run("keeps supplied avatar", func(t *testing.T) {
		msg, err := env.messages.CreateMessage(ctx, &CreateMessageRequest{
			Title: "t", Content: "c", UserID: "u1", UserName: "Alice", Avatar: "/static/alice.png",
		})
		require.NoError(t, err)
		assert.Equal(t, "/static/alice.png", msg.Avatar)
	})

	t.Run("does not create a user row", func(t *testing.T) {
		_, err := env.store.Users.FindByUserID(ctx, "u1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		full := CreateMessageRequest{Title: "t", Content: "c", UserID: "u", UserName: "n"}
		cases := map[string]func(r *CreateMessageRequest){
			"title":     func(r *CreateMessageRequest) { r.Title = "" },
			"content":   func(r *CreateMessageRequest) { r.Content = "" },
			"user_id":   func(r *CreateMessageRequest) { r.UserID = "" },
			"user_name": func(r *CreateMessageRequest) { r.UserName = "" },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				req := full
				mutate(&req)
				_, err := env.messages.CreateMessage(ctx, &req)
				assert.ErrorIs(t, err, ErrMissingParams)
			})
		}
	})

	assert.Contains(t, env.events.types(), EventMessageCreated)
}

func TestListMessages(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	a := env.post(t, "u1", "a")
	b := env.post(t, "u2", "b")

	liked, err := env.messages.ToggleLike(ctx, a.ID, "guest")
	require.NoError(t, err)
	require.True(t, liked)

	t.Run("empty viewer defaults to guest", func(t *testing.T) {
		views, err := env.messages.ListMessages(ctx, "")
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, b.ID, views[0].ID)
		assert.False(t, views[0].Liked)
		assert.Equal(t, a.ID, views[1].ID)
		assert.True(t, views[1].Liked)
		assert.Equal(t, int64(1), views[1].LikeCount)
	})

	t.Run("other viewers see nothing liked", func(t *testing.T) {
		views, err := env.messages.ListMessages(ctx, "u9")
		require.NoError(t, err)
		for _, v := range views {
			assert.False(t, v.Liked)
		}
	})
}

func TestToggleLike(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	msg := env.post(t, "author", "post")

	t.Run("twice returns true then false and restores the count", func(t *testing.T) {
		liked, err := env.messages.ToggleLike(ctx, msg.ID, "fan")
		require.NoError(t, err)
		assert.True(t, liked)

		current, err := env.store.Messages.FindByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), current.LikeCount)

		liked, err = env.messages.ToggleLike(ctx, msg.ID, "fan")
		require.NoError(t, err)
		assert.False(t, liked)

		current, err = env.store.Messages.FindByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), current.LikeCount)

		types := env.events.types()
		assert.Contains(t, types, EventMessageLiked)
		assert.Contains(t, types, EventMessageUnliked)
	})

	t.Run("missing user id", func(t *testing.T) {
		_, err := env.messages.ToggleLike(ctx, msg.ID, "")
		assert.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("zero id", func(t *testing.T) {
		_, err := env.messages.ToggleLike(ctx, 0, "fan")
		assert.ErrorIs(t, err, ErrInvalidMessageID)
	})

	t.Run("unknown message writes nothing", func(t *testing.T) {
		_, err := env.messages.ToggleLike(ctx, msg.ID+1000, "fan")
		assert.ErrorIs(t, err, ErrMessageNotFound)

		cnt, err := env.store.Likes.CountByMessage(ctx, msg.ID+1000)
		require.NoError(t, err)
		assert.Zero(t, cnt)
	})
}

func TestToggleLike_ConcurrentKeepsCounterConsistent(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	msg := env.post(t, "author", "hot")

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// 同一用户并发切换，加上几个不同用户
			userID := "same"
			if i%4 == 0 {
				userID = "user-" + string(rune('a'+i))
			}
			_, err := env.messages.ToggleLike(ctx, msg.ID, userID)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	current, err := env.store.Messages.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	cnt, err := env.store.Likes.CountByMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, cnt, current.LikeCount)
}

func TestDeleteMessage(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("non-author gets not found and nothing changes", func(t *testing.T) {
		msg := env.post(t, "owner", "keep")
		_, err := env.messages.ToggleLike(ctx, msg.ID, "fan")
		require.NoError(t, err)

		err = env.messages.DeleteMessage(ctx, msg.ID, "intruder")
		assert.ErrorIs(t, err, ErrMessageNotFound)

		current, err := env.store.Messages.FindByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), current.LikeCount)
		cnt, err := env.store.Likes.CountByMessage(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), cnt)
	})

	t.Run("unknown id gets the same error", func(t *testing.T) {
		assert.ErrorIs(t, env.messages.DeleteMessage(ctx, 99999, "owner"), ErrMessageNotFound)
	})

	t.Run("author removes message and its likes", func(t *testing.T) {
		msg := env.post(t, "owner", "gone")
		for _, fan := range []string{"f1", "f2"} {
			_, err := env.messages.ToggleLike(ctx, msg.ID, fan)
			require.NoError(t, err)
		}

		require.NoError(t, env.messages.DeleteMessage(ctx, msg.ID, "owner"))

		_, err := env.store.Messages.FindByID(ctx, msg.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		cnt, err := env.store.Likes.CountByMessage(ctx, msg.ID)
		require.NoError(t, err)
		assert.Zero(t, cnt)

		views, err := env.messages.ListMessages(ctx, "f1")
		require.NoError(t, err)
		for _, v := range views {
			assert.NotEqual(t, msg.ID, v.ID)
		}

		// 新留言上的点赞是全新的一行，不会和已删除留言的数据冲突
		fresh := env.post(t, "owner", "fresh")
		liked, err := env.messages.ToggleLike(ctx, fresh.ID, "f1")
		require.NoError(t, err)
		assert.True(t, liked)

		assert.Contains(t, env.events.types(), EventMessageDeleted)
	})

	t.Run("missing user id", func(t *testing.T) {
		assert.ErrorIs(t, env.messages.DeleteMessage(ctx, 1, ""), ErrMissingUserID)
	})
}

func TestGetProfile(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("unseen user is created with defaults", func(t *testing.T) {
		profile, err := env.users.GetProfile(ctx, "visitor-9876")
		require.NoError(t, err)
		assert.Equal(t, "visitor-9876", profile.UserID)
		assert.Equal(t, "用户9876", profile.UserName)
		assert.Equal(t, model.DefaultAvatar, profile.Avatar)
		assert.Zero(t, profile.TotalMessages)
		assert.Zero(t, profile.TotalLikes)

		stored, err := env.store.Users.FindByUserID(ctx, "visitor-9876")
		require.NoError(t, err)
		assert.Equal(t, profile.ID, stored.ID)
	})

	t.Run("totals follow posts and likes", func(t *testing.T) {
		a := env.post(t, "writer", "a")
		env.post(t, "writer", "b")

		profile, err := env.users.GetProfile(ctx, "writer")
		require.NoError(t, err)
		assert.Equal(t, int64(2), profile.TotalMessages)
		assert.Equal(t, int64(0), profile.TotalLikes)
		assert.True(t, env.redis.Exists("board:profile:writer"))

		// 点赞会让缓存失效
		_, err = env.messages.ToggleLike(ctx, a.ID, "reader")
		require.NoError(t, err)
		assert.False(t, env.redis.Exists("board:profile:writer"))

		profile, err = env.users.GetProfile(ctx, "writer")
		require.NoError(t, err)
		assert.Equal(t, int64(1), profile.TotalLikes)
	})

	t.Run("served from cache while entry lives", func(t *testing.T) {
		_, err := env.users.GetProfile(ctx, "cached")
		require.NoError(t, err)
		require.NoError(t, env.redis.Set("board:profile:cached",
			`{"id":1,"user_id":"cached","user_name":"from-cache","avatar":"","created_at":"2026-01-01T00:00:00Z","total_messages":7,"total_likes":3}`))

		profile, err := env.users.GetProfile(ctx, "cached")
		require.NoError(t, err)
		assert.Equal(t, "from-cache", profile.UserName)
		assert.Equal(t, int64(7), profile.TotalMessages)
	})

	t.Run("cache outage falls back to the database", func(t *testing.T) {
		env.redis.SetError("ERR cache unavailable")
		profile, err := env.users.GetProfile(ctx, "writer")
		require.NoError(t, err)
		assert.Equal(t, int64(2), profile.TotalMessages)
	})

	t.Run("missing user id", func(t *testing.T) {
		_, err := env.users.GetProfile(ctx, "")
		assert.ErrorIs(t, err, ErrMissingUserID)
	})
}

func TestGetProfile_WithoutCache(t *testing.T) {
	store := setupTestStore(t)
	users := NewUserService(store, nil, nil)

	profile, err := users.GetProfile(context.Background(), "ab")
	require.NoError(t, err)
	assert.Equal(t, "用户ab", profile.UserName)

	again, err := users.GetProfile(context.Background(), "ab")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)
}

func TestEventDispatcher(t *testing.T) {
	t.Run("nil publisher is a no-op", func(t *testing.T) {
		d := NewEventDispatcher(nil, nil, nil)
		d.Dispatch(context.Background(), Event{Type: EventMessageCreated})
	})

	t.Run("publishes through the worker pool with trace id", func(t *testing.T) {
		pool := utils.NewWorkerPool(2, 8, nil)
		pool.Start()
		pub := &recordingPublisher{}
		d := NewEventDispatcher(pub, pool, nil)

		ctx := logger.WithTraceID(context.Background(), "trace-1")
		d.Dispatch(ctx, Event{Type: EventMessageLiked, MessageID: 5})
		pool.Stop()

		require.Len(t, pub.events, 1)
		assert.Equal(t, "trace-1", pub.events[0].TraceID)
		assert.Equal(t, uint(5), pub.events[0].MessageID)
		assert.False(t, pub.events[0].OccurredAt.IsZero())
	})

	t.Run("publisher failure does not panic", func(t *testing.T) {
		pub := &recordingPublisher{err: errors.New("broker down")}
		d := NewEventDispatcher(pub, nil, nil)
		d.Dispatch(context.Background(), Event{Type: EventMessageDeleted})
		assert.Len(t, pub.events, 1)
	})

	t.Run("stopped pool drops the event", func(t *testing.T) {
		pool := utils.NewWorkerPool(1, 1, nil)
		pool.Start()
		pool.Stop()
		pub := &recordingPublisher{}
		d := NewEventDispatcher(pub, pool, nil)
		d.Dispatch(context.Background(), Event{Type: EventMessageCreated})
		assert.Empty(t, pub.events)
	})
}
