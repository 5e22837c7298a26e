package accrual

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const LeaderKey = "accrual:leader"

// Leader decides whether this instance may run an accrual pass.
type Leader interface {
	Acquire(ctx context.Context) (bool, error)
}

// RedisLeader is a best-effort leader lock: SETNX with a TTL, renewed by the
// holder on each call.
type RedisLeader struct {
	rdb *redis.Client
	key string
	id  string
	ttl time.Duration
}

// DefaultLeaderTTL is used when NewRedisLeader is given a non-positive ttl.
const DefaultLeaderTTL = 10 * time.Minute

func NewRedisLeader(rdb *redis.Client, ttl time.Duration) *RedisLeader {
	if ttl <= 0 {
		ttl = DefaultLeaderTTL
	}
	return &RedisLeader{
		rdb: rdb,
		key: LeaderKey,
		id:  fmt.Sprintf("%s-%d", uuid.NewString(), time.Now().UnixNano()),
		ttl: ttl,
	}
}

// renew extends the TTL only when the lock still holds our id.
var renew = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

func (l *RedisLeader) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.id, l.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	res, err := renew.Run(ctx, l.rdb, []string{l.key}, l.id, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// release deletes the lock only when it still holds our id.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Release drops the lock if we hold it, so another instance can take over
// without waiting for the TTL.
func (l *RedisLeader) Release(ctx context.Context) error {
	return release.Run(ctx, l.rdb, []string{l.key}, l.id).Err()
}
