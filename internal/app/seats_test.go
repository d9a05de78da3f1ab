package app

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/kisscinema/booking-api/internal/domain"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool {
	return a.Equal(b)
})

func TestGetSessionSeatsHandler(t *testing.T) {
	t.Run("groups the seat map into rows", func(t *testing.T) {
		app, m := newTestApplication()

		m.sessions.On("GetByID", mock.Anything, int64(7)).Return(handlerTestSession, nil)
		m.seats.On("ListSeatsInHall", mock.Anything, int64(3)).Return(handlerTestSeats, nil)
		m.bookings.On("GetBySession", mock.Anything, int64(7)).Return(map[int64]domain.Booking{
			20: {ID: 5, SessionID: 7, SeatID: 20, OwnerID: ptr(int64(42)), Code: "BK-AAAA1111", Status: domain.BookingReserved},
		}, nil)

		w := executeRequest(t, app, http.MethodGet, "/sessions/7/seats?viewerId=42", nil)

		checkStatus(t, w, http.StatusOK)

		var resp struct {
			SeatMap seatMapResponse `json:"seatMap"`
		}
		decodeResponse(t, w, &resp)

		want := seatMapResponse{
			SessionID: 7,
			Rows: []seatRowResponse{
				{RowNumber: 1, Seats: []seatViewResponse{
					{ID: 10, SeatNumber: 1, Price: decimal.NewFromInt(250)},
					{ID: 11, SeatNumber: 2, Price: decimal.NewFromInt(250)},
				}},
				{RowNumber: 2, Seats: []seatViewResponse{
					{ID: 20, SeatNumber: 1, Taken: true, Mine: true, Price: decimal.NewFromInt(1000)},
					{ID: 21, SeatNumber: 2, Price: decimal.NewFromInt(1000)},
				}},
				{RowNumber: 3, Seats: []seatViewResponse{
					{ID: 30, SeatNumber: 1, Price: decimal.NewFromInt(500)},
					{ID: 31, SeatNumber: 2, Price: decimal.NewFromInt(500)},
				}},
			},
		}

		if diff := cmp.Diff(want, resp.SeatMap, decimalComparer); diff != "" {
			t.Errorf("seat map mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("returns 404 for an unknown session", func(t *testing.T) {
		app, m := newTestApplication()

		m.sessions.On("GetByID", mock.Anything, int64(99)).Return(nil, domain.ErrRecordNotFound)

		w := executeRequest(t, app, http.MethodGet, "/sessions/99/seats", nil)

		checkStatus(t, w, http.StatusNotFound)
	})

	t.Run("rejects a malformed viewer id", func(t *testing.T) {
		app, _ := newTestApplication()

		w := executeRequest(t, app, http.MethodGet, "/sessions/7/seats?viewerId=me", nil)

		checkStatus(t, w, http.StatusBadRequest)
	})
}
