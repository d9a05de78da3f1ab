package mocks

import (
	"context"
	"time"

	"github.com/kisscinema/booking-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockMovieRepo struct {
	mock.Mock
}

func (m *MockMovieRepo) GetAll(ctx context.Context) ([]domain.Movie, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Movie), args.Error(1)
}

func (m *MockMovieRepo) GetByID(ctx context.Context, id int64) (*domain.Movie, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movie), args.Error(1)
}

func (m *MockMovieRepo) Create(ctx context.Context, movie *domain.Movie) error {
	args := m.Called(ctx, movie)
	return args.Error(0)
}

func (m *MockMovieRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) GetAll(ctx context.Context, movieID *int64) ([]domain.Session, error) {
	args := m.Called(ctx, movieID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Session), args.Error(1)
}

func (m *MockSessionRepo) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepo) GetByDate(ctx context.Context, date time.Time) ([]domain.Session, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Session), args.Error(1)
}

func (m *MockSessionRepo) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockHallRepo struct {
	mock.Mock
}

func (m *MockHallRepo) GetAll(ctx context.Context) ([]domain.Hall, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Hall), args.Error(1)
}

func (m *MockHallRepo) GetByID(ctx context.Context, id int64) (*domain.Hall, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Hall), args.Error(1)
}

func (m *MockHallRepo) Create(ctx context.Context, hall *domain.Hall) error {
	args := m.Called(ctx, hall)
	return args.Error(0)
}

func (m *MockHallRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockHallRepo) GetRows(ctx context.Context, hallID int64) ([]domain.Row, error) {
	args := m.Called(ctx, hallID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Row), args.Error(1)
}

func (m *MockHallRepo) AddRow(ctx context.Context, row *domain.Row) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockHallRepo) DeleteRow(ctx context.Context, rowID int64) error {
	args := m.Called(ctx, rowID)
	return args.Error(0)
}

func (m *MockHallRepo) GetSeatsByRow(ctx context.Context, rowID int64) ([]domain.Seat, error) {
	args := m.Called(ctx, rowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockHallRepo) AddSeats(ctx context.Context, rowID int64, count int) ([]domain.Seat, error) {
	args := m.Called(ctx, rowID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Seat), args.Error(1)
}

type MockSeatFinder struct {
	mock.Mock
}

func (m *MockSeatFinder) GetSeat(ctx context.Context, id int64) (*domain.Seat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seat), args.Error(1)
}

func (m *MockSeatFinder) ListSeatsInHall(ctx context.Context, hallID int64) ([]domain.Seat, error) {
	args := m.Called(ctx, hallID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockSeatFinder) FindSeatByPosition(ctx context.Context, hallID int64, rowNumber, seatNumber int) (*domain.Seat, error) {
	args := m.Called(ctx, hallID, rowNumber, seatNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seat), args.Error(1)
}
