package service

import (
	"context"
	"sync"
	"time"
)

// Locker 带过期时间的互斥锁，token 标识持有者
//
// 生产环境由 Redis 实现（pkg/redis.Client），未配置 Redis 时使用进程内实现。
type Locker interface {
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, token string) error
}

type memoryLock struct {
	token     string
	expiresAt time.Time
}

type memoryLocker struct {
	mu    sync.Mutex
	locks map[string]memoryLock
	now   func() time.Time
}

// NewMemoryLocker 创建进程内 Locker，仅适用于单实例部署
func NewMemoryLocker() Locker {
	return &memoryLocker{locks: make(map[string]memoryLock), now: time.Now}
}

func (l *memoryLocker) TryLock(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, ok := l.locks[key]; ok && now.Before(cur.expiresAt) {
		return false, nil
	}
	l.locks[key] = memoryLock{token: token, expiresAt: now.Add(ttl)}
	return true, nil
}

func (l *memoryLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, ok := l.locks[key]; ok && cur.token == token {
		delete(l.locks, key)
	}
	return nil
}
