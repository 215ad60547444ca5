package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"niche-pacer/internal/domain"
)

var (
	_ domain.Cache     = (*RedisCache)(nil)
	_ domain.RunLocker = (*RedisCache)(nil)
)

// снимает блокировку, только если она всё ещё принадлежит нам
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCache реализует domain.Cache и domain.RunLocker через Redis.
type RedisCache struct {
	client *redis.Client

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedis создаёт кэш.
func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, tokens: make(map[string]string)}
}

// Once выполняет функцию, если ключ ещё не задан. При ошибке ключ снимается,
// чтобы следующая попытка могла повторить работу.
func (c *RedisCache) Once(key string, ttl time.Duration, fn func() error) error {
	ctx := context.Background()
	ok, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := fn(); err != nil {
		_ = c.client.Del(ctx, key).Err()
		return err
	}
	return nil
}

// Acquire пытается занять блокировку запуска на ttl.
func (c *RedisCache) Acquire(key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(context.Background(), key, token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}
	c.mu.Lock()
	c.tokens[key] = token
	c.mu.Unlock()
	return true, nil
}

// Release снимает блокировку, занятую этим экземпляром.
func (c *RedisCache) Release(key string) error {
	c.mu.Lock()
	token, ok := c.tokens[key]
	delete(c.tokens, key)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	err := releaseScript.Run(context.Background(), c.client, []string{key}, token).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
