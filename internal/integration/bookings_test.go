package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/kisscinema/booking-api/internal/export"
)

type BookingSuite struct {
	BaseSuite

	sessionID int64
	seatIDs   map[string]int64 // "row-seat" -> seat id
}

func TestBookingSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(BookingSuite))
}

// SetupSuite builds a small catalog through the admin API: one movie, one
// hall with three rows of two seats, and a single session at 500.
func (s *BookingSuite) SetupSuite() {
	s.BaseSuite.SetupSuite()
	t := s.T()

	var movieResp struct {
		Movie struct {
			ID int64 `json:"id"`
		} `json:"movie"`
	}
	res := s.doJSON(t, http.MethodPost, "/movies", map[string]any{
		"title":           "Stalker",
		"durationMinutes": 160,
	}, &movieResp)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var hallResp struct {
		Hall struct {
			ID int64 `json:"id"`
		} `json:"hall"`
	}
	res = s.doJSON(t, http.MethodPost, "/halls", map[string]any{"name": "Blue"}, &hallResp)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	s.seatIDs = make(map[string]int64)

	for rowNumber := 1; rowNumber <= 3; rowNumber++ {
		var rowResp struct {
			Row struct {
				ID int64 `json:"id"`
			} `json:"row"`
		}
		res = s.doJSON(t, http.MethodPost, fmt.Sprintf("/halls/%d/rows", hallResp.Hall.ID),
			map[string]any{"rowNumber": rowNumber}, &rowResp)
		require.Equal(t, http.StatusCreated, res.StatusCode)

		var seatsResp struct {
			Seats []struct {
				ID         int64 `json:"id"`
				RowNumber  int   `json:"rowNumber"`
				SeatNumber int   `json:"seatNumber"`
			} `json:"seats"`
		}
		res = s.doJSON(t, http.MethodPost, fmt.Sprintf("/rows/%d/seats", rowResp.Row.ID),
			map[string]any{"count": 2}, &seatsResp)
		require.Equal(t, http.StatusCreated, res.StatusCode)

		for _, seat := range seatsResp.Seats {
			s.seatIDs[fmt.Sprintf("%d-%d", seat.RowNumber, seat.SeatNumber)] = seat.ID
		}
	}

	var sessionResp struct {
		Session struct {
			ID int64 `json:"id"`
		} `json:"session"`
	}
	res = s.doJSON(t, http.MethodPost, "/sessions", map[string]any{
		"movieId":   movieResp.Movie.ID,
		"hallId":    hallResp.Hall.ID,
		"startTime": time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"basePrice": "500",
	}, &sessionResp)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	s.sessionID = sessionResp.Session.ID
}

type confirmationBody struct {
	Booking struct {
		Code       string          `json:"code"`
		MovieTitle string          `json:"movieTitle"`
		Price      decimal.Decimal `json:"price"`
		RowNumber  int             `json:"rowNumber"`
		SeatNumber int             `json:"seatNumber"`
	} `json:"booking"`
}

var codePattern = regexp.MustCompile(`^BK-[0-9A-F]{8}$`)

func (s *BookingSuite) TestBookingLifecycle() {
	t := s.T()
	seatID := s.seatIDs["2-1"]

	var confirmation confirmationBody
	res := s.doJSON(t, http.MethodPost, "/bookings", map[string]any{
		"sessionId": s.sessionID,
		"seatId":    seatID,
		"ownerId":   42,
	}, &confirmation)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Regexp(t, codePattern, confirmation.Booking.Code)
	require.True(t, confirmation.Booking.Price.Equal(decimal.NewFromInt(1000)),
		"middle row should be priced at double the base, got %s", confirmation.Booking.Price)

	// The same seat is rejected while reserved.
	res = s.doJSON(t, http.MethodPost, "/bookings", map[string]any{
		"sessionId": s.sessionID,
		"seatId":    seatID,
	}, nil)
	require.Equal(t, http.StatusConflict, res.StatusCode)

	// The owner gives the seat back.
	res = s.doJSON(t, http.MethodPost, "/bookings/cancel-by-user", map[string]any{
		"sessionId":  s.sessionID,
		"rowNumber":  2,
		"seatNumber": 1,
		"ownerId":    42,
	}, nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	// Re-reserving the cancelled pair issues a fresh code.
	var second confirmationBody
	res = s.doJSON(t, http.MethodPost, "/bookings", map[string]any{
		"sessionId": s.sessionID,
		"seatId":    seatID,
		"ownerId":   43,
	}, &second)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Regexp(t, codePattern, second.Booking.Code)
	require.NotEqual(t, confirmation.Booking.Code, second.Booking.Code)

	// Redeem at the counter, then confirm the ticket is single-use.
	res = s.doJSON(t, http.MethodPost, "/bookings/use", map[string]any{"code": second.Booking.Code}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = s.doJSON(t, http.MethodPost, "/bookings/use", map[string]any{"code": second.Booking.Code}, nil)
	require.Equal(t, http.StatusConflict, res.StatusCode)

	// The seat map reflects the redeemed seat for its owner.
	var seatMap struct {
		SeatMap struct {
			Rows []struct {
				RowNumber int `json:"rowNumber"`
				Seats     []struct {
					ID    int64           `json:"id"`
					Taken bool            `json:"taken"`
					Mine  bool            `json:"mine"`
					Used  bool            `json:"used"`
					Price decimal.Decimal `json:"price"`
				} `json:"seats"`
			} `json:"rows"`
		} `json:"seatMap"`
	}
	res = s.doJSON(t, http.MethodGet, fmt.Sprintf("/sessions/%d/seats?viewerId=43", s.sessionID), nil, &seatMap)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, seatMap.SeatMap.Rows, 3)

	var found bool
	for _, row := range seatMap.SeatMap.Rows {
		for _, seat := range row.Seats {
			switch {
			case seat.ID == seatID:
				found = true
				require.True(t, seat.Taken)
				require.True(t, seat.Mine)
				require.True(t, seat.Used)
			default:
				require.False(t, seat.Taken)
			}
			switch row.RowNumber {
			case 1:
				require.True(t, seat.Price.Equal(decimal.NewFromInt(250)))
			case 2:
				require.True(t, seat.Price.Equal(decimal.NewFromInt(1000)))
			case 3:
				require.True(t, seat.Price.Equal(decimal.NewFromInt(500)))
			}
		}
	}
	require.True(t, found, "booked seat missing from seat map")
}

// TestParallelCreateSingleWinner races many concurrent reservations for one
// seat against the real database and expects exactly one to succeed.
func (s *BookingSuite) TestParallelCreateSingleWinner() {
	t := s.T()
	seatID := s.seatIDs["3-2"]

	const workers = 20

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = make(map[int]int)
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(ownerID int) {
			defer wg.Done()

			res := s.doJSON(t, http.MethodPost, "/bookings", map[string]any{
				"sessionId": s.sessionID,
				"seatId":    seatID,
				"ownerId":   ownerID,
			}, nil)

			mu.Lock()
			statuses[res.StatusCode]++
			mu.Unlock()
		}(100 + i)
	}

	wg.Wait()

	require.Equal(t, 1, statuses[http.StatusCreated], "exactly one reservation must win; got %v", statuses)
	require.Equal(t, workers-1, statuses[http.StatusConflict], "all losers must see a conflict; got %v", statuses)
}

// TestExportSnapshot verifies the exported snapshot references records by
// their natural keys. Replaying it needs an empty database, so the import
// path is exercised against mocks in the export package tests instead.
func (s *BookingSuite) TestExportSnapshot() {
	t := s.T()

	var exportResp struct {
		File string `json:"file"`
	}
	res := s.doJSON(t, http.MethodPost, "/export", nil, &exportResp)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.NotEmpty(t, exportResp.File)

	data, err := os.ReadFile(exportResp.File)
	require.NoError(t, err)

	var snapshot export.Snapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))

	require.Len(t, snapshot.Halls, 1)
	require.Equal(t, "Blue", snapshot.Halls[0].Name)
	require.Len(t, snapshot.Halls[0].Rows, 3)

	require.Len(t, snapshot.Movies, 1)
	require.Equal(t, "Stalker", snapshot.Movies[0].Title)

	require.Len(t, snapshot.Sessions, 1)

	for _, b := range snapshot.Bookings {
		require.Regexp(t, codePattern, b.Code)
	}
}
