package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"edufund-backend/internal/domain/apperr"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// errBusy marks a key held by someone else; the acquire loop retries it.
var errBusy = errors.New("lock busy")

// release only deletes the key while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker shares entity locks between API instances. A lock expires after
// ttl so a crashed holder cannot wedge an entity forever.
type RedisLocker struct {
	rdb     *redis.Client
	ttl     time.Duration
	poll    time.Duration
	prefix  string
	newUUID func() string
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		rdb:     rdb,
		ttl:     ttl,
		poll:    20 * time.Millisecond,
		prefix:  "lock:",
		newUUID: func() string { return uuid.NewString() },
	}
}

func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	token := l.newUUID()
	held := make([]string, 0, len(keys))
	release := func() {
		// detached: release must run even when the caller's ctx is done
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			_ = releaseScript.Run(rctx, l.rdb, []string{l.prefix + held[i]}, token).Err()
		}
	}
	for _, k := range keys {
		if err := l.acquire(ctx, l.prefix+k, token); err != nil {
			release()
			return nil, err
		}
		held = append(held, k)
	}
	return release, nil
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	_, err := backoff.Retry(ctx, func() (bool, error) {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return false, backoff.Permanent(err)
		}
		if !ok {
			return false, errBusy
		}
		return true, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(l.poll)),
		backoff.WithMaxElapsedTime(0),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return apperr.Dependency(fmt.Sprintf("lock %s", key), err)
	}
}
