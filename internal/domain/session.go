package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Session is a single scheduled showing of a movie in a hall. EndTime is
// derived from the movie duration at creation time. No two sessions in the
// same hall may overlap on [StartTime, EndTime).
type Session struct {
	ID        int64
	MovieID   int64
	HallID    int64
	StartTime time.Time
	EndTime   time.Time
	BasePrice decimal.Decimal
}

type SessionRepository interface {
	GetAll(ctx context.Context, movieID *int64) ([]Session, error)
	GetByID(ctx context.Context, id int64) (*Session, error)
	GetByDate(ctx context.Context, date time.Time) ([]Session, error)
	// Create fails with ErrSessionOverlap when the session's interval
	// intersects another session in the same hall.
	Create(ctx context.Context, session *Session) error
	// Delete fails with ErrSessionHasBookings while bookings reference the session.
	Delete(ctx context.Context, id int64) error
}
