package domain

import "context"

type Hall struct {
	ID          int64
	Name        string
	Description string
}

// Row and Seat reference their parents by ID only. Positions (row number,
// seat number) are 1-based and unique within their parent.
type Row struct {
	ID        int64
	HallID    int64
	RowNumber int
}

type Seat struct {
	ID         int64
	RowID      int64
	HallID     int64
	RowNumber  int
	SeatNumber int
}

type HallRepository interface {
	GetAll(ctx context.Context) ([]Hall, error)
	GetByID(ctx context.Context, id int64) (*Hall, error)
	Create(ctx context.Context, hall *Hall) error
	// Delete fails with ErrHallHasSessions while sessions reference the hall.
	Delete(ctx context.Context, id int64) error

	GetRows(ctx context.Context, hallID int64) ([]Row, error)
	AddRow(ctx context.Context, row *Row) error
	// DeleteRow fails with ErrRowHasBookings while bookings reference the row's seats.
	DeleteRow(ctx context.Context, rowID int64) error

	GetSeatsByRow(ctx context.Context, rowID int64) ([]Seat, error)
	AddSeats(ctx context.Context, rowID int64, count int) ([]Seat, error)
}

// SeatFinder is the catalog surface the booking engine depends on.
type SeatFinder interface {
	GetSeat(ctx context.Context, id int64) (*Seat, error)
	// ListSeatsInHall returns seats ordered by (row number, seat number).
	ListSeatsInHall(ctx context.Context, hallID int64) ([]Seat, error)
	FindSeatByPosition(ctx context.Context, hallID int64, rowNumber, seatNumber int) (*Seat, error)
}
