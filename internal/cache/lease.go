package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LAMpbrien/adventures-of/internal/ids"
)

// ErrLeaseHeld means another generation run owns the book.
var ErrLeaseHeld = errors.New("run lease held by another run")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLocker hands out one lease per book so overlapping generation runs
// cannot interleave.
type RunLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRunLocker(client *redis.Client, ttl time.Duration) *RunLocker {
	return &RunLocker{client: client, ttl: ttl}
}

func leaseKey(bookID string) string {
	return "book:run:" + bookID
}

// Acquire takes the lease for bookID. The returned release func only deletes
// the key while it still carries this run's token.
func (l *RunLocker) Acquire(ctx context.Context, bookID string) (func(context.Context) error, error) {
	token := ids.Token()
	ok, err := l.client.SetNX(ctx, leaseKey(bookID), token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lease: %w", err)
	}
	if !ok {
		return nil, ErrLeaseHeld
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{leaseKey(bookID)}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("release lease: %w", err)
		}
		return nil
	}
	return release, nil
}

// EventGuard remembers processed webhook events.
type EventGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEventGuard(client *redis.Client, ttl time.Duration) *EventGuard {
	return &EventGuard{client: client, ttl: ttl}
}

// FirstSeen records eventID and reports whether it had not been seen before.
func (g *EventGuard) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, "webhook:event:"+eventID, time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("record event: %w", err)
	}
	return ok, nil
}

// Forget drops eventID so a redelivery is processed again.
func (g *EventGuard) Forget(ctx context.Context, eventID string) error {
	return g.client.Del(ctx, "webhook:event:"+eventID).Err()
}
