package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kisscinema/booking-api/internal/domain"
	"github.com/shopspring/decimal"
)

type PostgresSessionRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSessionRepository(db *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{
		db: db,
	}
}

func (p *PostgresSessionRepository) GetAll(ctx context.Context, movieID *int64) ([]domain.Session, error) {
	query := `
		SELECT id, movie_id, hall_id, start_time, end_time, base_price::text
		FROM sessions
		WHERE $1::bigint IS NULL OR movie_id = $1
		ORDER BY start_time
	`

	return p.querySessions(ctx, query, movieID)
}

func (p *PostgresSessionRepository) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	query := `
		SELECT id, movie_id, hall_id, start_time, end_time, base_price::text
		FROM sessions
		WHERE id = $1
	`

	session, err := scanSession(p.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return session, nil
}

func (p *PostgresSessionRepository) GetByDate(ctx context.Context, date time.Time) ([]domain.Session, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.AddDate(0, 0, 1)

	query := `
		SELECT id, movie_id, hall_id, start_time, end_time, base_price::text
		FROM sessions
		WHERE start_time >= $1 AND start_time < $2
		ORDER BY start_time
	`

	return p.querySessions(ctx, query, start, end)
}

// Create inserts the session after checking that its [start, end) interval
// does not intersect another session in the same hall. The check and the
// insert run in one transaction.
func (p *PostgresSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var overlaps bool

		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1
				FROM sessions
				WHERE hall_id = $1 AND start_time < $3 AND end_time > $2
			)`, session.HallID, session.StartTime, session.EndTime).Scan(&overlaps)
		if err != nil {
			return err
		}

		if overlaps {
			return domain.ErrSessionOverlap
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO sessions (movie_id, hall_id, start_time, end_time, base_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, session.MovieID, session.HallID, session.StartTime, session.EndTime,
			session.BasePrice.String()).Scan(&session.ID)

		if err != nil && isForeignKeyViolation(err) {
			return domain.ErrRecordNotFound
		}

		return err
	})
}

func (p *PostgresSessionRepository) Delete(ctx context.Context, id int64) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var hasBookings bool

		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM bookings WHERE session_id = $1)`, id).Scan(&hasBookings)
		if err != nil {
			return err
		}

		if hasBookings {
			return domain.ErrSessionHasBookings
		}

		result, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
		if err != nil {
			return err
		}

		if result.RowsAffected() == 0 {
			return domain.ErrRecordNotFound
		}

		return nil
	})
}

func (p *PostgresSessionRepository) querySessions(ctx context.Context, query string, args ...any) ([]domain.Session, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]domain.Session, 0)

	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}

		sessions = append(sessions, *session)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var session domain.Session
	var basePrice string

	err := row.Scan(
		&session.ID,
		&session.MovieID,
		&session.HallID,
		&session.StartTime,
		&session.EndTime,
		&basePrice,
	)
	if err != nil {
		return nil, err
	}

	session.BasePrice, err = decimal.NewFromString(basePrice)
	if err != nil {
		return nil, err
	}

	return &session, nil
}
