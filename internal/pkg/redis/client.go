package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Gopher0727/MessageBoard/internal/model"
)

const profileKeyPrefix = "board:profile:" // Redis String, 值是 UserProfile JSON

// ProfileCache 用户资料缓存（cache-aside），写路径上负责失效
type ProfileCache interface {
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
	Set(ctx context.Context, profile *model.UserProfile) error
	Invalidate(ctx context.Context, userIDs ...string) error
}

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")

type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProfileCache(client *redis.Client, ttl time.Duration) *Client {
	return &Client{client: client, ttl: ttl}
}

func profileKey(userID string) string {
	return profileKeyPrefix + userID
}

func (c *Client) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	val, err := c.client.Get(ctx, profileKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", userID, err)
	}

	var profile model.UserProfile
	if err := json.Unmarshal(val, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", userID, err)
	}
	return &profile, nil
}

func (c *Client) Set(ctx context.Context, profile *model.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile %s: %w", profile.UserID, err)
	}
	if err := c.client.Set(ctx, profileKey(profile.UserID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set profile %s: %w", profile.UserID, err)
	}
	return nil
}

func (c *Client) Invalidate(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = profileKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate profiles: %w", err)
	}
	return nil
}
