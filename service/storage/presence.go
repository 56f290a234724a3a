package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// presence key: presence:<user>
// Value is the node id, TTL bounds how long a crashed process keeps a
// user looking online. Losing this state only costs presence accuracy;
// the in-process registry remains the routing authority.
func presenceKey(user string) string { return "presence:" + user }

type PresenceStore struct {
	rdb  *redis.Client
	node string
	ttl  time.Duration
}

func NewPresenceStore(rdb *redis.Client, node string, ttl time.Duration) *PresenceStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &PresenceStore{rdb: rdb, node: node, ttl: ttl}
}

// Online marks the user online and renews the TTL.
func (p *PresenceStore) Online(ctx context.Context, user string) error {
	return p.rdb.Set(ctx, presenceKey(user), p.node, p.ttl).Err()
}

// Offline deletes the key.
func (p *PresenceStore) Offline(ctx context.Context, user string) error {
	return p.rdb.Del(ctx, presenceKey(user)).Err()
}

// Lookup reports whether the user is marked online and on which node.
func (p *PresenceStore) Lookup(ctx context.Context, user string) (node string, online bool, err error) {
	val, err := p.rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
