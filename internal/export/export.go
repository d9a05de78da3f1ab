// Package export writes and restores JSON snapshots of the catalog and the
// booking ledger. Records reference each other by natural keys (names,
// titles, positions) so a snapshot can be replayed into an empty database.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kisscinema/booking-api/internal/domain"
	"github.com/shopspring/decimal"
)

type Snapshot struct {
	ExportedAt time.Time       `json:"exported_at"`
	Halls      []HallExport    `json:"halls"`
	Movies     []MovieExport   `json:"movies"`
	Sessions   []SessionExport `json:"sessions"`
	Bookings   []BookingExport `json:"bookings"`
}

type HallExport struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Rows        []RowExport `json:"rows"`
}

type RowExport struct {
	RowNumber int `json:"row_number"`
	SeatCount int `json:"seat_count"`
}

type MovieExport struct {
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
	Description     string `json:"description"`
}

type SessionExport struct {
	MovieTitle string          `json:"movie_title"`
	HallName   string          `json:"hall_name"`
	StartTime  time.Time       `json:"start_time"`
	BasePrice  decimal.Decimal `json:"base_price"`
}

type BookingExport struct {
	Code       string    `json:"code"`
	HallName   string    `json:"hall_name"`
	StartTime  time.Time `json:"start_time"`
	RowNumber  int       `json:"row_number"`
	SeatNumber int       `json:"seat_number"`
	Status     string    `json:"status"`
	OwnerID    *int64    `json:"owner_id,omitempty"`
}

type Service struct {
	halls    domain.HallRepository
	seats    domain.SeatFinder
	movies   domain.MovieRepository
	sessions domain.SessionRepository
	bookings domain.BookingRepository
	dir      string
}

func NewService(
	halls domain.HallRepository,
	seats domain.SeatFinder,
	movies domain.MovieRepository,
	sessions domain.SessionRepository,
	bookings domain.BookingRepository,
	dir string,
) *Service {
	return &Service{
		halls:    halls,
		seats:    seats,
		movies:   movies,
		sessions: sessions,
		bookings: bookings,
		dir:      dir,
	}
}

// ExportToFile writes a timestamped snapshot file and returns its path.
func (s *Service) ExportToFile(ctx context.Context) (string, error) {
	snapshot, err := s.BuildSnapshot(ctx)
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(s.dir, 0o755)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, fmt.Sprintf("export_%s.json", snapshot.ExportedAt.Format("20060102_150405")))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", err
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return "", err
	}

	return path, nil
}

func (s *Service) BuildSnapshot(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{ExportedAt: time.Now().UTC()}

	halls, err := s.halls.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	hallNames := make(map[int64]string, len(halls))
	seatPositions := make(map[int64]domain.Seat)

	for _, hall := range halls {
		hallNames[hall.ID] = hall.Name

		rows, err := s.halls.GetRows(ctx, hall.ID)
		if err != nil {
			return nil, err
		}

		hallExport := HallExport{
			Name:        hall.Name,
			Description: hall.Description,
			Rows:        make([]RowExport, 0, len(rows)),
		}

		for _, row := range rows {
			seats, err := s.halls.GetSeatsByRow(ctx, row.ID)
			if err != nil {
				return nil, err
			}

			for _, seat := range seats {
				seatPositions[seat.ID] = seat
			}

			hallExport.Rows = append(hallExport.Rows, RowExport{
				RowNumber: row.RowNumber,
				SeatCount: len(seats),
			})
		}

		snapshot.Halls = append(snapshot.Halls, hallExport)
	}

	movies, err := s.movies.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	movieTitles := make(map[int64]string, len(movies))

	for _, movie := range movies {
		movieTitles[movie.ID] = movie.Title

		snapshot.Movies = append(snapshot.Movies, MovieExport{
			Title:           movie.Title,
			DurationMinutes: movie.DurationMinutes,
			Description:     movie.Description,
		})
	}

	sessions, err := s.sessions.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	sessionsByID := make(map[int64]domain.Session, len(sessions))

	for _, session := range sessions {
		sessionsByID[session.ID] = session

		snapshot.Sessions = append(snapshot.Sessions, SessionExport{
			MovieTitle: movieTitles[session.MovieID],
			HallName:   hallNames[session.HallID],
			StartTime:  session.StartTime,
			BasePrice:  session.BasePrice,
		})
	}

	bookings, err := s.bookings.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, booking := range bookings {
		session, ok := sessionsByID[booking.SessionID]
		if !ok {
			continue
		}

		seat, ok := seatPositions[booking.SeatID]
		if !ok {
			continue
		}

		snapshot.Bookings = append(snapshot.Bookings, BookingExport{
			Code:       booking.Code,
			HallName:   hallNames[session.HallID],
			StartTime:  session.StartTime,
			RowNumber:  seat.RowNumber,
			SeatNumber: seat.SeatNumber,
			Status:     string(booking.Status),
			OwnerID:    booking.OwnerID,
		})
	}

	return snapshot, nil
}

// ImportFromFile replays a snapshot into the database. It expects an empty
// database; records clashing with existing natural keys fail the import.
func (s *Service) ImportFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var snapshot Snapshot

	err = json.Unmarshal(data, &snapshot)
	if err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return s.Restore(ctx, &snapshot)
}

func (s *Service) Restore(ctx context.Context, snapshot *Snapshot) error {
	movieIDs := make(map[string]int64, len(snapshot.Movies))

	for _, m := range snapshot.Movies {
		movie := domain.Movie{
			Title:           m.Title,
			DurationMinutes: m.DurationMinutes,
			Description:     m.Description,
		}

		err := s.movies.Create(ctx, &movie)
		if err != nil {
			return fmt.Errorf("failed to restore movie %q: %w", m.Title, err)
		}

		movieIDs[movie.Title] = movie.ID
	}

	hallIDs := make(map[string]int64, len(snapshot.Halls))

	for _, h := range snapshot.Halls {
		hall := domain.Hall{Name: h.Name, Description: h.Description}

		err := s.halls.Create(ctx, &hall)
		if err != nil {
			return fmt.Errorf("failed to restore hall %q: %w", h.Name, err)
		}

		hallIDs[hall.Name] = hall.ID

		for _, r := range h.Rows {
			row := domain.Row{HallID: hall.ID, RowNumber: r.RowNumber}

			err = s.halls.AddRow(ctx, &row)
			if err != nil {
				return fmt.Errorf("failed to restore row %d of hall %q: %w", r.RowNumber, h.Name, err)
			}

			_, err = s.halls.AddSeats(ctx, row.ID, r.SeatCount)
			if err != nil {
				return fmt.Errorf("failed to restore seats of row %d in hall %q: %w", r.RowNumber, h.Name, err)
			}
		}
	}

	type sessionKey struct {
		hallID int64
		start  time.Time
	}
	sessionIDs := make(map[sessionKey]int64, len(snapshot.Sessions))

	for _, se := range snapshot.Sessions {
		movieID, ok := movieIDs[se.MovieTitle]
		if !ok {
			return fmt.Errorf("snapshot session references unknown movie %q", se.MovieTitle)
		}

		hallID, ok := hallIDs[se.HallName]
		if !ok {
			return fmt.Errorf("snapshot session references unknown hall %q", se.HallName)
		}

		movie, err := s.movies.GetByID(ctx, movieID)
		if err != nil {
			return err
		}

		session := domain.Session{
			MovieID:   movieID,
			HallID:    hallID,
			StartTime: se.StartTime,
			EndTime:   se.StartTime.Add(time.Duration(movie.DurationMinutes) * time.Minute),
			BasePrice: se.BasePrice,
		}

		err = s.sessions.Create(ctx, &session)
		if err != nil {
			return fmt.Errorf("failed to restore session of %q in %q: %w", se.MovieTitle, se.HallName, err)
		}

		sessionIDs[sessionKey{hallID: hallID, start: se.StartTime.UTC()}] = session.ID
	}

	for _, b := range snapshot.Bookings {
		hallID, ok := hallIDs[b.HallName]
		if !ok {
			return fmt.Errorf("snapshot booking %q references unknown hall %q", b.Code, b.HallName)
		}

		sessionID, ok := sessionIDs[sessionKey{hallID: hallID, start: b.StartTime.UTC()}]
		if !ok {
			return fmt.Errorf("snapshot booking %q references unknown session", b.Code)
		}

		seat, err := s.seats.FindSeatByPosition(ctx, hallID, b.RowNumber, b.SeatNumber)
		if err != nil {
			return fmt.Errorf("snapshot booking %q references unknown seat %d-%d: %w",
				b.Code, b.RowNumber, b.SeatNumber, err)
		}

		booking := domain.Booking{
			SessionID: sessionID,
			SeatID:    seat.ID,
			OwnerID:   b.OwnerID,
			Code:      b.Code,
			Status:    domain.BookingStatus(b.Status),
		}

		err = s.bookings.Insert(ctx, &booking)
		if err != nil {
			return fmt.Errorf("failed to restore booking %q: %w", b.Code, err)
		}
	}

	return nil
}
