// Package sessions records live remember sessions in Redis so a signed token
// can be revoked before it expires.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sampleapp/internal/common"
	"github.com/redis/go-redis/v9"
)

// Store is the registry of live sessions.
type Store interface {
	Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	// UserID returns the owner of a live session or common.ErrSessionRevoked.
	UserID(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteForUser(ctx context.Context, userID string) error
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewClient connects to Redis and pings it.
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping error: %w", err)
	}
	return client, nil
}

func sessionKey(sessionID string) string { return "remember:" + sessionID }
func userKey(userID string) string       { return "remember_user:" + userID }

func (s *RedisStore) Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, sessionKey(sessionID), userID, ttl)
		p.SAdd(ctx, userKey(userID), sessionID)
		p.Expire(ctx, userKey(userID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}
	return nil
}

func (s *RedisStore) UserID(ctx context.Context, sessionID string) (string, error) {
	userID, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", common.ErrSessionRevoked
		}
		return "", fmt.Errorf("error reading session: %w", err)
	}
	return userID, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	userID, err := s.UserID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrSessionRevoked) {
			return nil
		}
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, sessionKey(sessionID))
		p.SRem(ctx, userKey(userID), sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// DeleteForUser revokes every session of userID.
func (s *RedisStore) DeleteForUser(ctx context.Context, userID string) error {
	ids, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userKey(userID))

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error deleting sessions: %w", err)
	}
	return nil
}
