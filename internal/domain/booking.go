package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingReserved  BookingStatus = "RESERVED"
	BookingUsed      BookingStatus = "USED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking binds one seat to one session. At most one booking exists per
// (session, seat) pair over its whole history: cancellation is a status
// change, and re-reserving a cancelled pair restores the same row with a
// fresh code. OwnerID is the opaque viewer id; nil for counter bookings.
type Booking struct {
	ID        int64
	SessionID int64
	SeatID    int64
	OwnerID   *int64
	Code      string
	Status    BookingStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookingConfirmation is what a successful reservation returns to the caller.
type BookingConfirmation struct {
	Code       string
	MovieTitle string
	StartTime  time.Time
	Price      decimal.Decimal
	RowNumber  int
	SeatNumber int
}

// SeatView is one seat's availability as seen by a particular viewer.
type SeatView struct {
	SeatID     int64
	RowNumber  int
	SeatNumber int
	Taken      bool
	Mine       bool
	Used       bool
	Price      decimal.Decimal
}

type BookingRepository interface {
	// Insert persists a new booking. It returns ErrSeatAlreadyBooked when
	// another booking already holds the (session, seat) pair and
	// ErrDuplicateCode on a booking code collision.
	Insert(ctx context.Context, booking *Booking) error
	// Update rewrites status, owner and code of an existing booking. The
	// write only applies while the stored status still equals from;
	// otherwise ErrEditConflict is returned.
	Update(ctx context.Context, booking *Booking, from BookingStatus) error

	GetByID(ctx context.Context, id int64) (*Booking, error)
	GetByCode(ctx context.Context, code string) (*Booking, error)
	// FindBySessionAndSeat returns the booking for the pair in any status,
	// or nil when the pair has never been booked.
	FindBySessionAndSeat(ctx context.Context, sessionID, seatID int64) (*Booking, error)
	FindBySessionSeatAndOwner(ctx context.Context, sessionID, seatID, ownerID int64) (*Booking, error)
	// GetBySession returns all bookings of a session keyed by seat ID.
	GetBySession(ctx context.Context, sessionID int64) (map[int64]Booking, error)
	GetAll(ctx context.Context) ([]Booking, error)
}
