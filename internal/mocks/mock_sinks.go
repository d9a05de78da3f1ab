package mocks

import (
	"context"

	"github.com/kisscinema/booking-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) Record(ctx context.Context, entityType string, entityID int64, action, actor, details string) error {
	args := m.Called(ctx, entityType, entityID, action, actor, details)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishBookingEvent(ctx context.Context, event domain.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockSeatLocker hands out the lock unconditionally unless an expectation
// says otherwise.
type MockSeatLocker struct {
	mock.Mock
}

func (m *MockSeatLocker) Acquire(ctx context.Context, sessionID, seatID int64) (func(), error) {
	args := m.Called(ctx, sessionID, seatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}
