// Package cache owns the redis client shared by idempotency and locking.
package cache

import (
	"context"
	"time"

	"edufund-backend/internal/domain/apperr"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 2 * time.Second
)

// OpenRedis connects and pings once; an unreachable server fails startup.
func OpenRedis(addr string, db int) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := Ping(ctx, r); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

func Ping(ctx context.Context, r *redis.Client) error {
	if err := r.Ping(ctx).Err(); err != nil {
		return apperr.Dependency("redis ping", err)
	}
	return nil
}
