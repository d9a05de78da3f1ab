package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kisscinema/booking-api/internal/domain"
)

// PostgresHallRepository covers the hall layout: halls, their rows and
// seats. It also implements domain.SeatFinder for the booking engine.
type PostgresHallRepository struct {
	db *pgxpool.Pool
}

func NewPostgresHallRepository(db *pgxpool.Pool) *PostgresHallRepository {
	return &PostgresHallRepository{
		db: db,
	}
}

func (p *PostgresHallRepository) GetAll(ctx context.Context) ([]domain.Hall, error) {
	query := `SELECT id, name, description FROM halls ORDER BY id`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	halls := make([]domain.Hall, 0)

	for rows.Next() {
		var hall domain.Hall

		err = rows.Scan(&hall.ID, &hall.Name, &hall.Description)
		if err != nil {
			return nil, err
		}

		halls = append(halls, hall)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return halls, nil
}

func (p *PostgresHallRepository) GetByID(ctx context.Context, id int64) (*domain.Hall, error) {
	query := `SELECT id, name, description FROM halls WHERE id = $1`

	var hall domain.Hall

	err := p.db.QueryRow(ctx, query, id).Scan(&hall.ID, &hall.Name, &hall.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &hall, nil
}

func (p *PostgresHallRepository) Create(ctx context.Context, hall *domain.Hall) error {
	query := `INSERT INTO halls (name, description) VALUES ($1, $2) RETURNING id`

	return p.db.QueryRow(ctx, query, hall.Name, hall.Description).Scan(&hall.ID)
}

func (p *PostgresHallRepository) Delete(ctx context.Context, id int64) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var hasSessions bool

		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM sessions WHERE hall_id = $1)`, id).Scan(&hasSessions)
		if err != nil {
			return err
		}

		if hasSessions {
			return domain.ErrHallHasSessions
		}

		result, err := tx.Exec(ctx, `DELETE FROM halls WHERE id = $1`, id)
		if err != nil {
			return err
		}

		if result.RowsAffected() == 0 {
			return domain.ErrRecordNotFound
		}

		return nil
	})
}

func (p *PostgresHallRepository) GetRows(ctx context.Context, hallID int64) ([]domain.Row, error) {
	query := `
		SELECT id, hall_id, row_number
		FROM hall_rows
		WHERE hall_id = $1
		ORDER BY row_number
	`

	rows, err := p.db.Query(ctx, query, hallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hallRows := make([]domain.Row, 0)

	for rows.Next() {
		var row domain.Row

		err = rows.Scan(&row.ID, &row.HallID, &row.RowNumber)
		if err != nil {
			return nil, err
		}

		hallRows = append(hallRows, row)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return hallRows, nil
}

func (p *PostgresHallRepository) AddRow(ctx context.Context, row *domain.Row) error {
	query := `INSERT INTO hall_rows (hall_id, row_number) VALUES ($1, $2) RETURNING id`

	err := p.db.QueryRow(ctx, query, row.HallID, row.RowNumber).Scan(&row.ID)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return domain.ErrRecordNotFound
		case isUniqueViolation(err):
			return domain.ErrDuplicateRow
		}

		return err
	}

	return nil
}

func (p *PostgresHallRepository) DeleteRow(ctx context.Context, rowID int64) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var hasBookings bool

		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1
				FROM bookings b
				JOIN seats s ON b.seat_id = s.id
				WHERE s.row_id = $1
			)`, rowID).Scan(&hasBookings)
		if err != nil {
			return err
		}

		if hasBookings {
			return domain.ErrRowHasBookings
		}

		result, err := tx.Exec(ctx, `DELETE FROM hall_rows WHERE id = $1`, rowID)
		if err != nil {
			return err
		}

		if result.RowsAffected() == 0 {
			return domain.ErrRecordNotFound
		}

		return nil
	})
}

func (p *PostgresHallRepository) GetSeatsByRow(ctx context.Context, rowID int64) ([]domain.Seat, error) {
	query := `
		SELECT s.id, s.row_id, r.hall_id, r.row_number, s.seat_number
		FROM seats s
		JOIN hall_rows r ON s.row_id = r.id
		WHERE s.row_id = $1
		ORDER BY s.seat_number
	`

	return p.querySeats(ctx, query, rowID)
}

// AddSeats appends count seats to a row, numbered after the current highest
// seat number.
func (p *PostgresHallRepository) AddSeats(ctx context.Context, rowID int64, count int) ([]domain.Seat, error) {
	var seats []domain.Seat

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var row domain.Row

		err := tx.QueryRow(ctx,
			`SELECT id, hall_id, row_number FROM hall_rows WHERE id = $1`, rowID).
			Scan(&row.ID, &row.HallID, &row.RowNumber)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		var highest int
		err = tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(seat_number), 0) FROM seats WHERE row_id = $1`, rowID).Scan(&highest)
		if err != nil {
			return err
		}

		rows := make([][]any, 0, count)
		for i := 1; i <= count; i++ {
			rows = append(rows, []any{rowID, highest + i})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"seats"},
			[]string{"row_id", "seat_number"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return err
		}

		result, err := tx.Query(ctx, `
			SELECT s.id, s.row_id, r.hall_id, r.row_number, s.seat_number
			FROM seats s
			JOIN hall_rows r ON s.row_id = r.id
			WHERE s.row_id = $1 AND s.seat_number > $2
			ORDER BY s.seat_number
		`, rowID, highest)
		if err != nil {
			return err
		}
		defer result.Close()

		for result.Next() {
			var seat domain.Seat

			err = result.Scan(&seat.ID, &seat.RowID, &seat.HallID, &seat.RowNumber, &seat.SeatNumber)
			if err != nil {
				return err
			}

			seats = append(seats, seat)
		}

		return result.Err()
	})

	if err != nil {
		return nil, err
	}

	return seats, nil
}

func (p *PostgresHallRepository) GetSeat(ctx context.Context, id int64) (*domain.Seat, error) {
	query := `
		SELECT s.id, s.row_id, r.hall_id, r.row_number, s.seat_number
		FROM seats s
		JOIN hall_rows r ON s.row_id = r.id
		WHERE s.id = $1
	`

	var seat domain.Seat

	err := p.db.QueryRow(ctx, query, id).
		Scan(&seat.ID, &seat.RowID, &seat.HallID, &seat.RowNumber, &seat.SeatNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &seat, nil
}

func (p *PostgresHallRepository) ListSeatsInHall(ctx context.Context, hallID int64) ([]domain.Seat, error) {
	query := `
		SELECT s.id, s.row_id, r.hall_id, r.row_number, s.seat_number
		FROM seats s
		JOIN hall_rows r ON s.row_id = r.id
		WHERE r.hall_id = $1
		ORDER BY r.row_number, s.seat_number
	`

	return p.querySeats(ctx, query, hallID)
}

func (p *PostgresHallRepository) FindSeatByPosition(ctx context.Context, hallID int64, rowNumber, seatNumber int) (*domain.Seat, error) {
	query := `
		SELECT s.id, s.row_id, r.hall_id, r.row_number, s.seat_number
		FROM seats s
		JOIN hall_rows r ON s.row_id = r.id
		WHERE r.hall_id = $1 AND r.row_number = $2 AND s.seat_number = $3
	`

	var seat domain.Seat

	err := p.db.QueryRow(ctx, query, hallID, rowNumber, seatNumber).
		Scan(&seat.ID, &seat.RowID, &seat.HallID, &seat.RowNumber, &seat.SeatNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &seat, nil
}

func (p *PostgresHallRepository) querySeats(ctx context.Context, query string, args ...any) ([]domain.Seat, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)

	for rows.Next() {
		var seat domain.Seat

		err = rows.Scan(&seat.ID, &seat.RowID, &seat.HallID, &seat.RowNumber, &seat.SeatNumber)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}
