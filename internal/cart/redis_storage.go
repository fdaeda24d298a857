package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage 服务端购物车会话存储，键按会话隔离
type RedisStorage struct {
	client    redis.Cmdable
	namespace string
	ttl       time.Duration
}

// NewRedisStorage 创建 Redis 存储，namespace 通常为 "<prefix>:cart:<cartID>"
func NewRedisStorage(client redis.Cmdable, namespace string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client:    client,
		namespace: strings.TrimSpace(namespace),
		ttl:       ttl,
	}
}

// SessionNamespace 构建会话命名空间
func SessionNamespace(prefix, cartID string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return fmt.Sprintf("cart:%s", cartID)
	}
	return fmt.Sprintf("%s:cart:%s", prefix, cartID)
}

func (s *RedisStorage) key(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if s.client == nil {
		return "", false, errors.New("redis client unavailable")
	}
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set 写入并刷新会话过期时间
func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	if s.client == nil {
		return errors.New("redis client unavailable")
	}
	return s.client.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *RedisStorage) Remove(ctx context.Context, key string) error {
	if s.client == nil {
		return errors.New("redis client unavailable")
	}
	return s.client.Del(ctx, s.key(key)).Err()
}
