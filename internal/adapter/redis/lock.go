package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stressless/internal/app"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultRetryWait = 50 * time.Millisecond
	releaseTimeout   = 2 * time.Second
)

var _ app.UserLocker = (*Locker)(nil)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker is a UserLocker that holds per-user locks in Redis so that
// finalize and evaluate stay serialized across instances.
type Locker struct {
	client    redis.Cmdable
	ttl       time.Duration
	retryWait time.Duration
	logger    *zap.Logger
}

// NewLocker returns a Locker. A non-positive ttl uses 30s.
func NewLocker(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *Locker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locker{client: client, ttl: ttl, retryWait: defaultRetryWait, logger: logger}
}

func lockKey(userID string) string {
	return KeyPrefix + "lock:user:" + userID
}

// Lock polls SETNX until the user's key is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, userID string) (func(), error) {
	key := lockKey(userID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryWait):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := releaseScript.Run(rctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				l.logger.Warn("release user lock", zap.String("user_id", userID), zap.Error(err))
			}
		})
	}, nil
}
