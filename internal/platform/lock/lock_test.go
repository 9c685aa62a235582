package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is a single-process stand-in for the two redis commands we use.
type memStore struct {
	mu      sync.Mutex
	keys    map[string]string
	failSet error
}

func (m *memStore) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return redis.NewBoolResult(false, m.failSet)
	}
	if _, ok := m.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.keys[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (m *memStore) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[keys[0]] == args[0].(string) {
		delete(m.keys, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func newTestLocker(s *memStore, wait time.Duration) *Locker {
	return &Locker{rdb: s, ttl: time.Minute, wait: wait, poll: 5 * time.Millisecond, log: zap.NewNop().Sugar()}
}

func TestLocker_DisabledNeverBlocks(t *testing.T) {
	var l *Locker
	release, held := l.Acquire(context.Background(), "ORDER123")
	require.False(t, held)
	release()

	l = &Locker{log: zap.NewNop().Sugar()}
	release, held = l.Acquire(context.Background(), "ORDER123")
	require.False(t, held)
	release()
}

func TestLocker_AcquireRelease(t *testing.T) {
	s := &memStore{keys: map[string]string{}}
	l := newTestLocker(s, 20*time.Millisecond)

	release, held := l.Acquire(context.Background(), "ORDER123")
	require.True(t, held)
	require.Contains(t, s.keys, keyPrefix+"ORDER123")

	// contender gives up after the wait and proceeds unlocked
	_, held2 := l.Acquire(context.Background(), "ORDER123")
	require.False(t, held2)

	release()
	require.Empty(t, s.keys)

	release, held = l.Acquire(context.Background(), "ORDER123")
	require.True(t, held)
	release()
}

func TestLocker_WaitsForRelease(t *testing.T) {
	s := &memStore{keys: map[string]string{}}
	l := newTestLocker(s, time.Second)

	release, held := l.Acquire(context.Background(), "ORDER123")
	require.True(t, held)
	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()

	release2, held2 := l.Acquire(context.Background(), "ORDER123")
	require.True(t, held2)
	release2()
}

func TestLocker_RedisErrorDegrades(t *testing.T) {
	s := &memStore{keys: map[string]string{}, failSet: errors.New("connection refused")}
	release, held := newTestLocker(s, time.Second).Acquire(context.Background(), "ORDER123")
	require.False(t, held)
	release()
}
