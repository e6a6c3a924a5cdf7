package redis

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/envutil"
	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/logger"
)

// KeyedLock is a mutual-exclusion lock keyed by reconcile key (email/phone).
// Two Identify calls touching an overlapping key set are serialized; calls
// over disjoint keys run in parallel. Keys are always taken in sorted order
// so overlapping holders cannot deadlock.
type KeyedLock interface {
	Lock(ctx context.Context, keys []string) (unlock func(), err error)
	Close() error
}

type keyedLock struct {
	log   *logger.Logger
	rdb   *goredis.Client
	ttl   time.Duration
	retry time.Duration
}

const lockKeyPrefix = "reconcile:lock:"

// releaseScript deletes the lock only when still held by this owner.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func NewKeyedLock(log *logger.Logger) (KeyedLock, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &keyedLock{
		log:   log.With("service", "RedisKeyedLock"),
		rdb:   rdb,
		ttl:   time.Duration(envutil.Int("RECONCILE_LOCK_TTL_MS", 10000)) * time.Millisecond,
		retry: time.Duration(envutil.Int("RECONCILE_LOCK_RETRY_MS", 25)) * time.Millisecond,
	}, nil
}

func (l *keyedLock) Lock(ctx context.Context, keys []string) (func(), error) {
	if l == nil || l.rdb == nil {
		return nil, fmt.Errorf("redis keyed lock not initialized")
	}
	if len(keys) == 0 {
		return func() {}, nil
	}

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	token := uuid.NewString()

	var held []string
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			bg, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := releaseScript.Run(bg, l.rdb, []string{held[i]}, token).Err(); err != nil && err != goredis.Nil {
				l.log.Warn("failed to release reconcile lock", "key", held[i], "error", err)
			}
			cancel()
		}
	}

	for _, key := range sorted {
		full := lockKeyPrefix + key
		for {
			ok, err := l.rdb.SetNX(ctx, full, token, l.ttl).Result()
			if err != nil {
				release()
				return nil, fmt.Errorf("redis setnx: %w", err)
			}
			if ok {
				held = append(held, full)
				break
			}
			select {
			case <-ctx.Done():
				release()
				return nil, ctx.Err()
			case <-time.After(l.retry):
			}
		}
	}
	return release, nil
}

func (l *keyedLock) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
