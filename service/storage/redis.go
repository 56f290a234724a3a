package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisConf struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings once so a misconfigured address
// fails at boot, not on first use.
func NewRedisClient(c RedisConf) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping")
	}
	return rdb, nil
}
