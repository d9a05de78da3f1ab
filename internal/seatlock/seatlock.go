// Package seatlock provides a short-lived Redis lock per (session, seat)
// pair. It serializes competing reservation attempts before they reach the
// database; the unique constraint on the bookings table stays the
// authority, so a lost or expired lock is never a correctness problem.
package seatlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kisscinema/booking-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

const lockTTL = 10 * time.Second

// Unlocking compares the stored token so a lock that expired and was
// re-acquired by someone else is never released by the first holder.
var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

type Locker struct {
	client redis.UniversalClient
}

func NewLocker(client redis.UniversalClient) *Locker {
	return &Locker{client: client}
}

// Acquire takes the lock for the pair. It returns
// domain.ErrSeatAlreadyBooked when another request currently holds it.
func (l *Locker) Acquire(ctx context.Context, sessionID, seatID int64) (func(), error) {
	key := seatLockKey(sessionID, seatID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire seat lock: %w", err)
	}

	if !ok {
		return nil, domain.ErrSeatAlreadyBooked
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_ = unlockScript.Run(ctx, l.client, []string{key}, token).Err()
	}

	return release, nil
}

func seatLockKey(sessionID, seatID int64) string {
	return fmt.Sprintf("seat_lock:%d:%d", sessionID, seatID)
}
