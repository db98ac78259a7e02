package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Lock is a single-holder lease used to keep scans from overlapping
// (cron tick + manual run). Release only deletes the key if we still own it.
type Lock struct {
	client *Client
	name   string
	ttl    time.Duration
	token  string
}

// releaseScript deletes the key only when the stored token matches
const releaseScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`

// NewLock creates a lock handle; nothing is acquired yet
func NewLock(client *Client, name string, ttl time.Duration) *Lock {
	return &Lock{
		client: client,
		name:   name,
		ttl:    ttl,
		token:  uuid.NewString(),
	}
}

// Key returns the fully qualified Redis key
func (l *Lock) Key() string {
	return fmt.Sprintf("%s:lock:%s", l.client.Prefix(), l.name)
}

// Acquire tries to take the lock once. Disabled Redis always succeeds.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	if !l.client.Enabled() {
		return true, nil
	}

	ok, err := l.client.Redis().SetNX(ctx, l.Key(), l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lock acquire failed: %w", err)
	}
	return ok, nil
}

// Release gives the lock back if it is still ours
func (l *Lock) Release(ctx context.Context) error {
	if !l.client.Enabled() {
		return nil
	}

	if err := l.client.Redis().Eval(ctx, releaseScript, []string{l.Key()}, l.token).Err(); err != nil {
		return fmt.Errorf("lock release failed: %w", err)
	}
	return nil
}
