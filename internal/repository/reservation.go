package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Reservation claims room ids outside the process, so that several servers
// sharing one Redis never hand out the same code.
type Reservation interface {
	Reserve(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

type localReservation struct{}

// NewLocalReservation grants every id; uniqueness is left to the registry.
func NewLocalReservation() Reservation {
	return localReservation{}
}

func (localReservation) Reserve(context.Context, string) (bool, error) {
	return true, nil
}

func (localReservation) Release(context.Context, string) error {
	return nil
}

// releaseScript deletes the claim only while it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisReservation struct {
	client *redis.Client
	owner  string
	ttl    time.Duration
}

// NewRedisReservation stores claims as room:<id> keys holding owner. ttl bounds
// how long a claim survives a crashed server.
func NewRedisReservation(client *redis.Client, owner string, ttl time.Duration) Reservation {
	return &redisReservation{
		client: client,
		owner:  owner,
		ttl:    ttl,
	}
}

func (that *redisReservation) Reserve(ctx context.Context, id string) (bool, error) {
	ok, err := that.client.SetNX(ctx, roomKey(id), that.owner, that.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve room %s: %w", id, err)
	}

	return ok, nil
}

func (that *redisReservation) Release(ctx context.Context, id string) error {
	if err := releaseScript.Run(ctx, that.client, []string{roomKey(id)}, that.owner).Err(); err != nil {
		return fmt.Errorf("failed to release room %s: %w", id, err)
	}

	return nil
}

func roomKey(id string) string {
	return "room:" + id
}
