package player

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"saregare/internal/pkg/redis"
)

// RedisStore 把播放会话存进 Redis，带 TTL：长时间不活跃的会话自动过期。
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(userID string) string {
	return "player:session:" + userID
}

func (s *RedisStore) Load(ctx context.Context, userID string) (*Session, error) {
	data, err := s.client.GetClient().Get(ctx, sessionKey(userID)).Bytes()
	if err == goredis.Nil {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, userID string, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.GetClient().Set(ctx, sessionKey(userID), data, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return s.client.GetClient().Del(ctx, sessionKey(userID)).Err()
}
