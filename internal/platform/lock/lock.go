// Package lock provides a best-effort distributed mutex on Redis. It narrows
// races between concurrent gateway deliveries for the same order; correctness
// still rests on the idempotency markers stored on the order.
package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/esimtrip/cashier/pkg/config"
)

const keyPrefix = "cashier:lock:"

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

type store interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type Locker struct {
	rdb  store
	ttl  time.Duration
	wait time.Duration
	poll time.Duration
	log  *zap.SugaredLogger
}

// New returns a Locker that never blocks when no Redis address is configured.
func New(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) *Locker {
	l := &Locker{ttl: cfg.Redis.LockTTL, wait: cfg.Redis.LockWait, poll: 100 * time.Millisecond, log: log}
	if cfg.Redis.Addr == "" {
		log.Infow("redis address empty; order locks disabled")
		return l
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	l.rdb = rdb
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				log.Warnw("redis ping failed; locks will degrade to unlocked", "addr", cfg.Redis.Addr, "err", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error { return rdb.Close() },
	})
	return l
}

func noop() {}

// Acquire tries to take the lock for key, polling for up to the configured
// wait. When it cannot (timeout, redis error, locks disabled) it returns
// held == false and the caller proceeds unlocked. release is always non-nil.
func (l *Locker) Acquire(ctx context.Context, key string) (release func(), held bool) {
	if l == nil || l.rdb == nil {
		return noop, false
	}
	key = keyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			l.log.Warnw("lock_acquire_failed", "key", key, "err", err)
			return noop, false
		}
		if ok {
			return func() {
				// the caller's ctx may already be cancelled
				if err := l.rdb.Eval(context.Background(), releaseScript, []string{key}, token).Err(); err != nil && err != redis.Nil {
					l.log.Warnw("lock_release_failed", "key", key, "err", err)
				}
			}, true
		}
		if time.Now().After(deadline) {
			l.log.Warnw("lock_wait_exceeded", "key", key, "wait", l.wait.String())
			return noop, false
		}
		select {
		case <-ctx.Done():
			return noop, false
		case <-time.After(l.poll):
		}
	}
}

var Module = fx.Options(
	fx.Provide(New),
)
