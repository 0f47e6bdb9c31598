package redis

import (
	"context"
	"sync"
	"time"

	portsout "invoicesweep/internal/application/ports/out"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	DefaultKey           = "invoicesweep:batch-lock"
	defaultRetryInterval = 50 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *goredis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *goredis.Cmd
}

// BatchLock is a lease lock shared by every instance using the same redis.
// The TTL bounds how long a crashed holder blocks other instances.
type BatchLock struct {
	client        client
	key           string
	ttl           time.Duration
	retryInterval time.Duration
	logger        logrus.FieldLogger
}

var _ portsout.BatchLock = (*BatchLock)(nil)

func NewBatchLock(client client, key string, ttl time.Duration, logger logrus.FieldLogger) *BatchLock {
	if key == "" {
		key = DefaultKey
	}
	return &BatchLock{
		client:        client,
		key:           key,
		ttl:           ttl,
		retryInterval: defaultRetryInterval,
		logger:        logger,
	}
}

func (l *BatchLock) Acquire(ctx context.Context) (func(), *apperrors.AppError) {
	token := uuid.NewString()
	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, apperrors.NewInternal(
				"batch_lock_unavailable",
				"failed to acquire batch lock",
				map[string]any{"error": err.Error()},
			)
		}
		if acquired {
			return l.releaseFunc(token), nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, apperrors.NewConflict(
				"sweep_batch_in_progress",
				"another sweep batch is in progress",
				map[string]any{"error": ctx.Err().Error()},
			)
		}
	}
}

func (l *BatchLock) releaseFunc(token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := l.client.Eval(ctx, releaseScript, []string{l.key}, token).Err(); err != nil && l.logger != nil {
				l.logger.WithError(err).Warnf("batch lock release failed key=%s", l.key)
			}
		})
	}
}
