// Package session tracks the access tokens each account currently holds so
// the number of signed-in devices can be limited.
package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps, per role and user, the set of active token ids with their
// expiry. Expired entries are pruned whenever a key is read.
type Store interface {
	Count(ctx context.Context, role string, userID uint) (int, error)
	Add(ctx context.Context, role string, userID uint, tokenID string, expiresAt time.Time) error
	// Acquire records the token only while fewer than limit sessions are
	// active, checking and adding in one step. A limit of zero or less means
	// no limit. It reports whether the token was recorded.
	Acquire(ctx context.Context, role string, userID uint, tokenID string, expiresAt time.Time, limit int) (bool, error)
	Remove(ctx context.Context, role string, userID uint, tokenID string) error
	Clear(ctx context.Context, role string, userID uint) error
	IsActive(ctx context.Context, role string, userID uint, tokenID string) (bool, error)
}

type redisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore builds a Store backed by one sorted set per account, scored
// by expiry in milliseconds.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client, prefix: "sessions", now: time.Now}
}

func (s *redisStore) key(role string, userID uint) string {
	return fmt.Sprintf("%s:%s:%d", s.prefix, role, userID)
}

func (s *redisStore) prune(ctx context.Context, key string) error {
	cutoff := strconv.FormatInt(s.now().UnixMilli(), 10)
	if err := s.client.ZRemRangeByScore(ctx, key, "-inf", cutoff).Err(); err != nil {
		return fmt.Errorf("prune sessions: %w", err)
	}
	return nil
}

func (s *redisStore) Count(ctx context.Context, role string, userID uint) (int, error) {
	key := s.key(role, userID)
	if err := s.prune(ctx, key); err != nil {
		return 0, err
	}

	count, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return int(count), nil
}

func (s *redisStore) Add(ctx context.Context, role string, userID uint, tokenID string, expiresAt time.Time) error {
	_, err := s.Acquire(ctx, role, userID, tokenID, expiresAt, 0)
	return err
}

// acquireScript prunes expired members, enforces the limit, adds the token and
// extends the key to the furthest member expiry.
var acquireScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
local limit = tonumber(ARGV[4])
if limit > 0 and redis.call('ZCARD', KEYS[1]) >= limit then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[3])
local top = redis.call('ZREVRANGE', KEYS[1], 0, 0, 'WITHSCORES')
redis.call('PEXPIREAT', KEYS[1], math.floor(tonumber(top[2])))
return 1
`)

func (s *redisStore) Acquire(ctx context.Context, role string, userID uint, tokenID string, expiresAt time.Time, limit int) (bool, error) {
	added, err := acquireScript.Run(ctx, s.client, []string{s.key(role, userID)},
		s.now().UnixMilli(), expiresAt.UnixMilli(), tokenID, limit).Int()
	if err != nil {
		return false, fmt.Errorf("add session: %w", err)
	}
	return added == 1, nil
}

func (s *redisStore) Remove(ctx context.Context, role string, userID uint, tokenID string) error {
	if err := s.client.ZRem(ctx, s.key(role, userID), tokenID).Err(); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (s *redisStore) Clear(ctx context.Context, role string, userID uint) error {
	if err := s.client.Del(ctx, s.key(role, userID)).Err(); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	return nil
}

func (s *redisStore) IsActive(ctx context.Context, role string, userID uint, tokenID string) (bool, error) {
	key := s.key(role, userID)
	if err := s.prune(ctx, key); err != nil {
		return false, err
	}

	_, err := s.client.ZScore(ctx, key, tokenID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup session: %w", err)
	}
	return true, nil
}
