package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kisscinema/booking-api/internal/domain"
)

const (
	bookingPairConstraint = "bookings_session_seat_key"
	bookingCodeConstraint = "bookings_code_key"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

func (p *PostgresBookingRepository) Insert(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (session_id, seat_id, owner_id, booking_code, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := p.db.QueryRow(ctx, query,
		booking.SessionID,
		booking.SeatID,
		booking.OwnerID,
		booking.Code,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return translateBookingConstraint(err)
	}

	return nil
}

// Update is the compare-and-swap for status transitions: the write only
// lands when the booking is still in the expected previous status.
func (p *PostgresBookingRepository) Update(ctx context.Context, booking *domain.Booking, from domain.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1, owner_id = $2, booking_code = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
		RETURNING updated_at
	`

	err := p.db.QueryRow(ctx, query,
		booking.Status,
		booking.OwnerID,
		booking.Code,
		booking.ID,
		from,
	).Scan(&booking.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEditConflict
		}

		return translateBookingConstraint(err)
	}

	return nil
}

func translateBookingConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case bookingPairConstraint:
			return domain.ErrSeatAlreadyBooked
		case bookingCodeConstraint:
			return domain.ErrDuplicateCode
		}
	}

	return err
}

func (p *PostgresBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	query := `
		SELECT id, session_id, seat_id, owner_id, booking_code, status, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	return p.scanBooking(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresBookingRepository) GetByCode(ctx context.Context, code string) (*domain.Booking, error) {
	query := `
		SELECT id, session_id, seat_id, owner_id, booking_code, status, created_at, updated_at
		FROM bookings
		WHERE booking_code = $1
	`

	return p.scanBooking(p.db.QueryRow(ctx, query, code))
}

func (p *PostgresBookingRepository) FindBySessionAndSeat(ctx context.Context, sessionID, seatID int64) (*domain.Booking, error) {
	query := `
		SELECT id, session_id, seat_id, owner_id, booking_code, status, created_at, updated_at
		FROM bookings
		WHERE session_id = $1 AND seat_id = $2
	`

	booking, err := p.scanBooking(p.db.QueryRow(ctx, query, sessionID, seatID))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return booking, nil
}

func (p *PostgresBookingRepository) FindBySessionSeatAndOwner(ctx context.Context, sessionID, seatID, ownerID int64) (*domain.Booking, error) {
	query := `
		SELECT id, session_id, seat_id, owner_id, booking_code, status, created_at, updated_at
		FROM bookings
		WHERE session_id = $1 AND seat_id = $2 AND owner_id = $3
	`

	return p.scanBooking(p.db.QueryRow(ctx, query, sessionID, seatID, ownerID))
}

func (p *PostgresBookingRepository) GetBySession(ctx context.Context, sessionID int64) (map[int64]domain.Booking, error) {
	query := `
		SELECT id, session_id, seat_id, owner_id, booking_code, status, created_at, updated_at
		FROM bookings
		WHERE session_id = $1
	`

	rows, err := p.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make(map[int64]domain.Booking)

	for rows.Next() {
		var booking domain.Booking

		err = rows.Scan(
			&booking.ID,
			&booking.SessionID,
			&booking.SeatID,
			&booking.OwnerID,
			&booking.Code,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		bookings[booking.SeatID] = booking
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (p *PostgresBookingRepository) GetAll(ctx context.Context) ([]domain.Booking, error) {
	query := `
		SELECT id, session_id, seat_id, owner_id, booking_code, status, created_at, updated_at
		FROM bookings
		ORDER BY id
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		var booking domain.Booking

		err = rows.Scan(
			&booking.ID,
			&booking.SessionID,
			&booking.SeatID,
			&booking.OwnerID,
			&booking.Code,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		bookings = append(bookings, booking)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (p *PostgresBookingRepository) scanBooking(row pgx.Row) (*domain.Booking, error) {
	var booking domain.Booking

	err := row.Scan(
		&booking.ID,
		&booking.SessionID,
		&booking.SeatID,
		&booking.OwnerID,
		&booking.Code,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &booking, nil
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}
