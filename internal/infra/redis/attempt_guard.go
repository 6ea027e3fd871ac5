package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"qcm-app/internal/domain"
)

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock re-taken by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AttemptGuard keeps one running attempt per user across processes sharing
// a Redis. The lock key expires after ttl in case a process dies mid-attempt.
type AttemptGuard struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewAttemptGuard(client *redis.Client, ttl time.Duration, log *zap.Logger) *AttemptGuard {
	if log == nil {
		log = zap.NewNop()
	}
	return &AttemptGuard{client: client, ttl: ttl, log: log}
}

func (g *AttemptGuard) Acquire(ctx context.Context, user string) (func(), error) {
	key := g.key(user)
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire attempt lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrAttemptInProgress
	}
	return func() {
		// best-effort; the key expires on its own otherwise
		if err := releaseScript.Run(context.Background(), g.client, []string{key}, token).Err(); err != nil {
			g.log.Warn("release attempt lock", zap.String("user", user), zap.Error(err))
		}
	}, nil
}

func (g *AttemptGuard) key(user string) string {
	return "qcm:attempt:" + user
}
