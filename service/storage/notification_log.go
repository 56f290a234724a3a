package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultNotificationStream = "notifications:log"

// RedisNotificationLog appends one record per dispatched notification to
// a Redis stream, correlation id included, so a downstream consumer can
// drive read/unread state.
type RedisNotificationLog struct {
	rdb    *redis.Client
	stream string
}

func NewRedisNotificationLog(rdb *redis.Client, stream string) *RedisNotificationLog {
	if stream == "" {
		stream = defaultNotificationStream
	}
	return &RedisNotificationLog{rdb: rdb, stream: stream}
}

func (l *RedisNotificationLog) Record(ctx context.Context, userID, typ, title, body, correlationID string) error {
	err := l.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: l.stream,
		Values: map[string]any{
			"user_id":        userID,
			"type":           typ,
			"title":          title,
			"body":           body,
			"correlation_id": correlationID,
			"ts":             time.Now().UnixMilli(),
		},
	}).Err()
	if err != nil {
		return errors.Wrap(err, "xadd notification")
	}
	return nil
}
