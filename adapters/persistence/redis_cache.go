package persistence

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/resume-builder/internal/application/service"
	"github.com/khoahotran/resume-builder/internal/domain/resume"
)

type redisResumeCache struct {
	rdb *redis.Client
}

// NewRedisResumeCache backs the resume store. Keys never expire: the cache
// is the working copy of the document between saves.
func NewRedisResumeCache(rdb *redis.Client) resume.Cache {
	return &redisResumeCache{rdb: rdb}
}

func (c *redisResumeCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, resume.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

func (c *redisResumeCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *redisResumeCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

type redisOTPStore struct {
	rdb         *redis.Client
	maxAttempts int
}

func NewRedisOTPStore(rdb *redis.Client, maxAttempts int) service.OTPStore {
	return &redisOTPStore{rdb: rdb, maxAttempts: maxAttempts}
}

func otpKey(purpose, email string) string {
	return "otp:" + purpose + ":" + email
}

func otpVerifiedKey(purpose, email string) string {
	return "otp:verified:" + purpose + ":" + email
}

func (s *redisOTPStore) Save(ctx context.Context, purpose, email, code string, ttl time.Duration) error {
	key := otpKey(purpose, email)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "code", code, "attempts", 0)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

func (s *redisOTPStore) Check(ctx context.Context, purpose, email, code string) error {
	key := otpKey(purpose, email)
	stored, err := s.rdb.HGet(ctx, key, "code").Result()
	if errors.Is(err, redis.Nil) {
		return service.ErrOTPNotFound
	}
	if err != nil {
		return fmt.Errorf("read otp: %w", err)
	}

	attempts, err := s.rdb.HIncrBy(ctx, key, "attempts", 1).Result()
	if err != nil {
		return fmt.Errorf("count otp attempt: %w", err)
	}
	if attempts > int64(s.maxAttempts) {
		s.rdb.Del(ctx, key)
		return service.ErrOTPTooManyAttempts
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		if attempts == int64(s.maxAttempts) {
			s.rdb.Del(ctx, key)
			return service.ErrOTPTooManyAttempts
		}
		return service.ErrOTPMismatch
	}
	return s.rdb.Del(ctx, key).Err()
}

func (s *redisOTPStore) MarkVerified(ctx context.Context, purpose, email string, ttl time.Duration) error {
	return s.rdb.Set(ctx, otpVerifiedKey(purpose, email), "1", ttl).Err()
}

func (s *redisOTPStore) ConsumeVerified(ctx context.Context, purpose, email string) (bool, error) {
	n, err := s.rdb.Del(ctx, otpVerifiedKey(purpose, email)).Result()
	if err != nil {
		return false, fmt.Errorf("consume otp verification: %w", err)
	}
	return n == 1, nil
}

// releaseScript deletes the lock only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) service.Locker {
	return &redisLocker{rdb: rdb}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, "lock:"+key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		releaseScript.Run(context.Background(), l.rdb, []string{"lock:" + key}, token)
	}
	return release, true, nil
}

type redisPageCache struct {
	rdb *redis.Client
}

func NewRedisPageCache(rdb *redis.Client) service.PageCache {
	return &redisPageCache{rdb: rdb}
}

func pageKey(key string) string {
	return "page:" + key
}

func (c *redisPageCache) Get(ctx context.Context, key string) (string, bool, error) {
	s, err := c.rdb.Get(ctx, pageKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read page cache: %w", err)
	}
	return s, true, nil
}

func (c *redisPageCache) Set(ctx context.Context, key, page string, ttl time.Duration) error {
	return c.rdb.Set(ctx, pageKey(key), page, ttl).Err()
}

func (c *redisPageCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, pageKey(key)).Err()
}
