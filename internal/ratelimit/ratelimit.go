package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"hand_hockey/internal/logger"
)

// Limiter ограничивает число действий по ключу за окно
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter - фиксированное окно на INCR + EXPIRE, общее для всех инстансов бота
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "hh:rl:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := time.Now().UnixNano() / int64(l.window)
	k := fmt.Sprintf("%s%s:%d", l.prefix, key, slot)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}
	return incr.Val() <= int64(l.limit), nil
}

// MemoryLimiter - то же окно в памяти процесса
type MemoryLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	hits   map[string]*counter
}

type counter struct {
	start time.Time
	n     int
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{limit: limit, window: window, now: time.Now, hits: make(map[string]*counter)}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.hits[key]
	if !ok || now.Sub(c.start) >= l.window {
		c = &counter{start: now}
		l.hits[key] = c
	}
	c.n++

	// старые окна чистим, чтобы карта не росла
	if len(l.hits) > 10000 {
		for k, v := range l.hits {
			if now.Sub(v.start) >= l.window {
				delete(l.hits, k)
			}
		}
	}
	return c.n <= l.limit, nil
}

// Fallback идет в redis, а при его недоступности считает в памяти
type Fallback struct {
	primary Limiter
	local   Limiter
}

func NewFallback(primary, local Limiter) *Fallback {
	return &Fallback{primary: primary, local: local}
}

func (f *Fallback) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := f.primary.Allow(ctx, key)
	if err == nil {
		return ok, nil
	}
	logger.Warn("rate limiter fallback to memory", "error", err)
	return f.local.Allow(ctx, key)
}

// New выбирает лимитер по конфигурации: пустой адрес redis - только память
func New(ctx context.Context, addr, password string, db, limit int, window time.Duration) Limiter {
	local := NewMemoryLimiter(limit, window)
	if addr == "" {
		return local
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limit in memory", "addr", addr, "error", err)
	}
	return NewFallback(NewRedisLimiter(client, limit, window), local)
}
