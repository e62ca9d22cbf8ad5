package redis

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockNotHeld is returned when releasing a lock that expired or was taken over
var ErrLockNotHeld = errors.New("lock not held")

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Locker provides SET NX based locks
type Locker struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewLocker creates a new Locker
func NewLocker(client redis.UniversalClient, logger *zap.Logger) *Locker {
	return &Locker{client: client, logger: logger.Named("redis-locker")}
}

// Lock is a held lock
type Lock struct {
	locker *Locker
	key    string
	token  string
}

// Acquire takes the lock or fails immediately with outbound.ErrLockHeld
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (outbound.Unlocker, error) {
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, outbound.ErrLockHeld
	}

	l.logger.Debug("Acquired lock", zap.String("key", key), zap.Duration("ttl", ttl))
	return &Lock{locker: l, key: key, token: token}, nil
}

// Release deletes the lock if this holder still owns it
func (lock *Lock) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, lock.locker.client, []string{lock.key}, lock.token).Int64()
	if err != nil {
		return err
	}
	if result == 0 {
		return ErrLockNotHeld
	}

	lock.locker.logger.Debug("Released lock", zap.String("key", lock.key))
	return nil
}

var _ outbound.PlanLocker = (*Locker)(nil)
