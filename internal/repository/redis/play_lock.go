package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myPromoGame/domain"
	"myPromoGame/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still carries our token, so an
// expired holder cannot release a lock somebody else took over.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const retryInterval = 25 * time.Millisecond

// PlayLock is a per-key mutex shared by every instance of the service.
type PlayLock struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewPlayLock(client *redis.Client, ttl, wait time.Duration) *PlayLock {
	return &PlayLock{
		client: client,
		ttl:    ttl,
		wait:   wait,
	}
}

func (l *PlayLock) Acquire(ctx context.Context, key string) (func(), error) {
	// key format: "lock:play:{shop_id}:{user_id}"
	key = "lock:" + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire play lock: %w", err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		if !time.Now().Before(deadline) {
			return nil, domain.ErrPlayInProgress
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

func (l *PlayLock) release(key, token string) {
	// the request context may already be gone
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Warn("failed to release play lock", "key", key, "error", err)
	}
}
