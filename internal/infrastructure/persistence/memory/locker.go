package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"github.com/google/uuid"
)

// Locker is a process-local PlanLocker for single-instance deployments
type Locker struct {
	mu   sync.Mutex
	held map[string]heldLock
	now  func() time.Time
}

type heldLock struct {
	token     string
	expiresAt time.Time
}

// NewLocker creates an in-process locker
func NewLocker() *Locker {
	return &Locker{held: make(map[string]heldLock), now: time.Now}
}

// Acquire takes key for ttl or fails with ErrLockHeld
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (outbound.Unlocker, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if current, ok := l.held[key]; ok && now.Before(current.expiresAt) {
		return nil, outbound.ErrLockHeld
	}

	token := uuid.NewString()
	l.held[key] = heldLock{token: token, expiresAt: now.Add(ttl)}
	return &lock{locker: l, key: key, token: token}, nil
}

type lock struct {
	locker *Locker
	key    string
	token  string
}

// Release frees the lock if it is still owned by this holder
func (k *lock) Release(ctx context.Context) error {
	k.locker.mu.Lock()
	defer k.locker.mu.Unlock()

	if current, ok := k.locker.held[k.key]; ok && current.token == k.token {
		delete(k.locker.held, k.key)
	}
	return nil
}
