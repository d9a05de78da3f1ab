// Package booking implements the seat-reservation ledger: the state machine
// that turns a (session, seat) request into a uniquely-coded booking and
// enforces that no seat is ever sold twice.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kisscinema/booking-api/internal/domain"
)

// SeatLocker serializes competing requests for the same (session, seat)
// pair before the database check. It is a best-effort fast path: the
// unique constraint on the bookings table remains the authority.
type SeatLocker interface {
	// Acquire returns a release func on success and
	// domain.ErrSeatAlreadyBooked when the pair is held by someone else.
	Acquire(ctx context.Context, sessionID, seatID int64) (func(), error)
}

type Service struct {
	sessions domain.SessionRepository
	movies   domain.MovieRepository
	seats    domain.SeatFinder
	bookings domain.BookingRepository
	audit    domain.AuditSink
	events   domain.EventPublisher
	locks    SeatLocker
	logger   *slog.Logger
}

func NewService(
	sessions domain.SessionRepository,
	movies domain.MovieRepository,
	seats domain.SeatFinder,
	bookings domain.BookingRepository,
	audit domain.AuditSink,
	events domain.EventPublisher,
	locks SeatLocker,
	logger *slog.Logger,
) *Service {
	return &Service{
		sessions: sessions,
		movies:   movies,
		seats:    seats,
		bookings: bookings,
		audit:    audit,
		events:   events,
		locks:    locks,
		logger:   logger,
	}
}

// CreateBooking reserves a seat for a session. When the pair already has a
// CANCELLED booking, the same row is restored with a fresh code instead of
// inserting a new one. A write that loses the race against a concurrent
// request is re-checked exactly once and reported as the conflict the
// logical check would have produced.
func (s *Service) CreateBooking(ctx context.Context, sessionID, seatID int64, ownerID *int64) (*domain.BookingConfirmation, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	seat, err := s.seats.GetSeat(ctx, seatID)
	if err != nil {
		return nil, err
	}

	if seat.HallID != session.HallID {
		return nil, domain.ErrSeatNotInHall
	}

	movie, err := s.movies.GetByID(ctx, session.MovieID)
	if err != nil {
		return nil, err
	}

	totalRows, err := s.countRows(ctx, session.HallID)
	if err != nil {
		return nil, err
	}

	price := domain.SeatPrice(session.BasePrice, seat.RowNumber, totalRows)

	release, err := s.locks.Acquire(ctx, sessionID, seatID)
	if err != nil {
		if errors.Is(err, domain.ErrSeatAlreadyBooked) {
			return nil, err
		}

		// The lock layer being down must not block sales.
		s.logger.Warn("seat lock unavailable, relying on database constraint",
			"session_id", sessionID, "seat_id", seatID, "error", err)
		release = func() {}
	}
	defer release()

	var booking *domain.Booking
	restored := false

	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.bookings.FindBySessionAndSeat(ctx, sessionID, seatID)
		if err != nil {
			return nil, err
		}

		if existing != nil {
			switch existing.Status {
			case domain.BookingReserved:
				return nil, domain.ErrSeatAlreadyBooked
			case domain.BookingUsed:
				return nil, domain.ErrTicketAlreadyUsed
			}

			existing.Status = domain.BookingReserved
			existing.OwnerID = ownerID
			existing.Code = domain.NewBookingCode()

			err = s.bookings.Update(ctx, existing, domain.BookingCancelled)
			if err != nil {
				if errors.Is(err, domain.ErrEditConflict) || errors.Is(err, domain.ErrDuplicateCode) {
					continue
				}
				return nil, err
			}

			booking = existing
			restored = true
			break
		}

		candidate := &domain.Booking{
			SessionID: sessionID,
			SeatID:    seatID,
			OwnerID:   ownerID,
			Code:      domain.NewBookingCode(),
			Status:    domain.BookingReserved,
		}

		err = s.bookings.Insert(ctx, candidate)
		if err != nil {
			if errors.Is(err, domain.ErrSeatAlreadyBooked) || errors.Is(err, domain.ErrDuplicateCode) {
				continue
			}
			return nil, err
		}

		booking = candidate
		break
	}

	if booking == nil {
		return nil, domain.ErrSeatAlreadyBooked
	}

	s.notifyBookingChange(ctx, booking, session, seat, restored)

	return &domain.BookingConfirmation{
		Code:       booking.Code,
		MovieTitle: movie.Title,
		StartTime:  session.StartTime,
		Price:      price,
		RowNumber:  seat.RowNumber,
		SeatNumber: seat.SeatNumber,
	}, nil
}

// GetSeatsFull derives the availability of every seat in the session's hall
// as seen by the given viewer. The view is computed fresh on every call.
func (s *Service) GetSeatsFull(ctx context.Context, sessionID int64, viewerID *int64) ([]domain.SeatView, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	seats, err := s.seats.ListSeatsInHall(ctx, session.HallID)
	if err != nil {
		return nil, err
	}

	totalRows := distinctRows(seats)
	if totalRows <= 0 {
		totalRows = 1
	}

	bookings, err := s.bookings.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.SeatView, 0, len(seats))

	for _, seat := range seats {
		view := domain.SeatView{
			SeatID:     seat.ID,
			RowNumber:  seat.RowNumber,
			SeatNumber: seat.SeatNumber,
			Price:      domain.SeatPrice(session.BasePrice, seat.RowNumber, totalRows),
		}

		if b, ok := bookings[seat.ID]; ok {
			view.Taken = b.Status == domain.BookingReserved || b.Status == domain.BookingUsed
			view.Used = b.Status == domain.BookingUsed
			view.Mine = b.OwnerID != nil && viewerID != nil && *b.OwnerID == *viewerID
		}

		views = append(views, view)
	}

	return views, nil
}

// UseBooking redeems a booking at the point of sale. Only RESERVED
// bookings can be redeemed.
func (s *Service) UseBooking(ctx context.Context, code string) error {
	booking, err := s.bookings.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	switch booking.Status {
	case domain.BookingUsed:
		return domain.ErrTicketAlreadyUsed
	case domain.BookingCancelled:
		return domain.ErrBookingNotReserved
	}

	booking.Status = domain.BookingUsed

	err = s.bookings.Update(ctx, booking, domain.BookingReserved)
	if err != nil {
		if errors.Is(err, domain.ErrEditConflict) {
			return domain.ErrBookingNotReserved
		}
		return err
	}

	s.recordAudit(ctx, booking.ID, domain.AuditActionUpdate, domain.AuditActorUser,
		fmt.Sprintf("booking redeemed at the counter, code: %s", code))
	s.publishEvent(ctx, booking)

	return nil
}

// CancelBooking cancels a booking by id. Only RESERVED bookings can be
// cancelled; the row is kept so the pair can be re-reserved later.
func (s *Service) CancelBooking(ctx context.Context, bookingID int64) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	return s.cancel(ctx, booking, domain.AuditActorAdmin, "booking cancelled")
}

// CancelByUser cancels the viewer's own booking addressed by its position
// in the hall.
func (s *Service) CancelByUser(ctx context.Context, sessionID int64, rowNumber, seatNumber int, ownerID int64) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}

	seat, err := s.seats.FindSeatByPosition(ctx, session.HallID, rowNumber, seatNumber)
	if err != nil {
		return err
	}

	booking, err := s.bookings.FindBySessionSeatAndOwner(ctx, sessionID, seat.ID, ownerID)
	if err != nil {
		return err
	}

	return s.cancel(ctx, booking, domain.AuditActorUser, "booking cancelled by its owner")
}

func (s *Service) cancel(ctx context.Context, booking *domain.Booking, actor, details string) error {
	if booking.Status != domain.BookingReserved {
		return domain.ErrBookingNotReserved
	}

	booking.Status = domain.BookingCancelled

	err := s.bookings.Update(ctx, booking, domain.BookingReserved)
	if err != nil {
		if errors.Is(err, domain.ErrEditConflict) {
			return domain.ErrBookingNotReserved
		}
		return err
	}

	s.recordAudit(ctx, booking.ID, domain.AuditActionUpdate, actor, details)
	s.publishEvent(ctx, booking)

	return nil
}

func (s *Service) notifyBookingChange(ctx context.Context, booking *domain.Booking, session *domain.Session, seat *domain.Seat, restored bool) {
	actor := domain.AuditActorSystem
	if booking.OwnerID != nil {
		actor = domain.AuditActorUser
	}

	action := domain.AuditActionCreate
	details := fmt.Sprintf("booking created, code: %s, session: %d, seat: %d-%d",
		booking.Code, session.ID, seat.RowNumber, seat.SeatNumber)

	if restored {
		action = domain.AuditActionUpdate
		details = fmt.Sprintf("booking restored, code: %s, session: %d, seat: %d-%d",
			booking.Code, session.ID, seat.RowNumber, seat.SeatNumber)
	}

	s.recordAudit(ctx, booking.ID, action, actor, details)
	s.publishEvent(ctx, booking)
}

func (s *Service) recordAudit(ctx context.Context, bookingID int64, action, actor, details string) {
	err := s.audit.Record(ctx, "Booking", bookingID, action, actor, details)
	if err != nil {
		s.logger.Error("failed to record audit entry", "booking_id", bookingID, "error", err)
	}
}

func (s *Service) publishEvent(ctx context.Context, booking *domain.Booking) {
	if s.events == nil {
		return
	}

	event := domain.BookingEvent{
		Code:       booking.Code,
		SessionID:  booking.SessionID,
		SeatID:     booking.SeatID,
		Status:     string(booking.Status),
		OccurredAt: time.Now().UTC(),
	}

	err := s.events.PublishBookingEvent(ctx, event)
	if err != nil {
		s.logger.Error("failed to publish booking event", "code", booking.Code, "error", err)
	}
}

func (s *Service) countRows(ctx context.Context, hallID int64) (int, error) {
	seats, err := s.seats.ListSeatsInHall(ctx, hallID)
	if err != nil {
		return 0, err
	}

	totalRows := distinctRows(seats)
	if totalRows <= 0 {
		totalRows = 1
	}

	return totalRows, nil
}

func distinctRows(seats []domain.Seat) int {
	rows := make(map[int]bool, len(seats))
	for _, seat := range seats {
		rows[seat.RowNumber] = true
	}

	return len(rows)
}
