package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/kisscinema/booking-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBookingStore enforces the same constraints as the bookings table:
// one row per (session, seat) pair and globally unique codes. It stands in
// for the database in the race tests below.
type memBookingStore struct {
	mu     sync.Mutex
	nextID int64
	byPair map[[2]int64]*domain.Booking
	codes  map[string]bool
}

func newMemBookingStore() *memBookingStore {
	return &memBookingStore{
		byPair: make(map[[2]int64]*domain.Booking),
		codes:  make(map[string]bool),
	}
}

func (m *memBookingStore) Insert(_ context.Context, booking *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair := [2]int64{booking.SessionID, booking.SeatID}
	if _, ok := m.byPair[pair]; ok {
		return domain.ErrSeatAlreadyBooked
	}
	if m.codes[booking.Code] {
		return domain.ErrDuplicateCode
	}

	m.nextID++
	booking.ID = m.nextID

	stored := *booking
	m.byPair[pair] = &stored
	m.codes[booking.Code] = true

	return nil
}

func (m *memBookingStore) Update(_ context.Context, booking *domain.Booking, from domain.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair := [2]int64{booking.SessionID, booking.SeatID}

	stored, ok := m.byPair[pair]
	if !ok || stored.ID != booking.ID || stored.Status != from {
		return domain.ErrEditConflict
	}
	if booking.Code != stored.Code && m.codes[booking.Code] {
		return domain.ErrDuplicateCode
	}

	m.codes[booking.Code] = true
	updated := *booking
	m.byPair[pair] = &updated

	return nil
}

func (m *memBookingStore) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.byPair {
		if b.ID == id {
			copy := *b
			return &copy, nil
		}
	}

	return nil, domain.ErrRecordNotFound
}

func (m *memBookingStore) GetByCode(_ context.Context, code string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.byPair {
		if b.Code == code {
			copy := *b
			return &copy, nil
		}
	}

	return nil, domain.ErrRecordNotFound
}

func (m *memBookingStore) FindBySessionAndSeat(_ context.Context, sessionID, seatID int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.byPair[[2]int64{sessionID, seatID}]; ok {
		copy := *b
		return &copy, nil
	}

	return nil, nil
}

func (m *memBookingStore) FindBySessionSeatAndOwner(_ context.Context, sessionID, seatID, ownerID int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.byPair[[2]int64{sessionID, seatID}]; ok && b.OwnerID != nil && *b.OwnerID == ownerID {
		copy := *b
		return &copy, nil
	}

	return nil, domain.ErrRecordNotFound
}

func (m *memBookingStore) GetBySession(_ context.Context, sessionID int64) (map[int64]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make(map[int64]domain.Booking)
	for pair, b := range m.byPair {
		if pair[0] == sessionID {
			result[b.SeatID] = *b
		}
	}

	return result, nil
}

func (m *memBookingStore) GetAll(_ context.Context) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bookings := make([]domain.Booking, 0, len(m.byPair))
	for _, b := range m.byPair {
		bookings = append(bookings, *b)
	}

	return bookings, nil
}

// Catalog stubs: only the methods the engine touches are implemented.
type sessionStub struct {
	domain.SessionRepository
}

func (sessionStub) GetByID(_ context.Context, id int64) (*domain.Session, error) {
	if id != testSession.ID {
		return nil, domain.ErrRecordNotFound
	}
	session := testSession
	return &session, nil
}

type movieStub struct {
	domain.MovieRepository
}

func (movieStub) GetByID(_ context.Context, _ int64) (*domain.Movie, error) {
	movie := testMovie
	return &movie, nil
}

type seatStub struct {
	domain.SeatFinder
}

func (seatStub) GetSeat(_ context.Context, id int64) (*domain.Seat, error) {
	for _, seat := range testSeats {
		if seat.ID == id {
			s := seat
			return &s, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (seatStub) ListSeatsInHall(_ context.Context, _ int64) ([]domain.Seat, error) {
	return testSeats, nil
}

func (seatStub) FindSeatByPosition(_ context.Context, _ int64, rowNumber, seatNumber int) (*domain.Seat, error) {
	for _, seat := range testSeats {
		if seat.RowNumber == rowNumber && seat.SeatNumber == seatNumber {
			s := seat
			return &s, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

type noopSink struct{}

func (noopSink) Record(context.Context, string, int64, string, string, string) error { return nil }

// passLocker hands out the lock to everyone so the races below are decided
// by the store's constraints alone, as they would be with Redis down.
type passLocker struct{}

func (passLocker) Acquire(context.Context, int64, int64) (func(), error) {
	return func() {}, nil
}

func newRaceService(store *memBookingStore) *Service {
	return NewService(
		sessionStub{},
		movieStub{},
		seatStub{},
		store,
		noopSink{},
		nil,
		passLocker{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestConcurrentCreateBookingSingleWinner(t *testing.T) {
	const callers = 50

	store := newMemBookingStore()
	service := newRaceService(store)

	var wg sync.WaitGroup
	results := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		owner := int64(i + 1)

		go func() {
			defer wg.Done()
			_, err := service.CreateBooking(context.Background(), 1, 10, &owner)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	wins, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrSeatAlreadyBooked):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, wins, "exactly one caller wins the seat")
	assert.Equal(t, callers-1, conflicts)

	bookings, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, bookings, 1, "only one ledger row per (session, seat) pair")
	assert.Equal(t, domain.BookingReserved, bookings[0].Status)
}

func TestConcurrentRestoreSingleWinner(t *testing.T) {
	const callers = 20

	store := newMemBookingStore()
	service := newRaceService(store)

	owner := int64(1)
	first, err := service.CreateBooking(context.Background(), 1, 10, &owner)
	require.NoError(t, err)

	require.NoError(t, service.CancelByUser(context.Background(), 1, 1, 1, owner))

	var wg sync.WaitGroup
	results := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		owner := int64(100 + i)

		go func() {
			defer wg.Done()
			_, err := service.CreateBooking(context.Background(), 1, 10, &owner)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, domain.ErrSeatAlreadyBooked)
		}
	}

	assert.Equal(t, 1, wins, "exactly one caller revives the cancelled pair")

	bookings, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, bookings, 1, "restore reuses the existing ledger row")
	assert.Equal(t, domain.BookingReserved, bookings[0].Status)
	assert.NotEqual(t, first.Code, bookings[0].Code, "restore issues a fresh code")
}

func TestRestoreAfterCancelRoundTrip(t *testing.T) {
	store := newMemBookingStore()
	service := newRaceService(store)

	owner := int64(42)

	first, err := service.CreateBooking(context.Background(), 1, 10, &owner)
	require.NoError(t, err)

	firstRow, err := store.FindBySessionAndSeat(context.Background(), 1, 10)
	require.NoError(t, err)

	require.NoError(t, service.CancelBooking(context.Background(), firstRow.ID))

	second, err := service.CreateBooking(context.Background(), 1, 10, &owner)
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, second.Code)

	secondRow, err := store.FindBySessionAndSeat(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, firstRow.ID, secondRow.ID, "the pair keeps one ledger row over its history")

	require.NoError(t, service.UseBooking(context.Background(), second.Code))

	views, err := service.GetSeatsFull(context.Background(), 1, &owner)
	require.NoError(t, err)

	for _, v := range views {
		if v.SeatID == 10 {
			assert.True(t, v.Taken)
			assert.True(t, v.Used)
			assert.True(t, v.Mine)
		}
	}
}
