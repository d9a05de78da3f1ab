package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/kisscinema/booking-api/internal/booking"
	"github.com/kisscinema/booking-api/internal/mocks"
	"github.com/kisscinema/booking-api/internal/validator"
)

type testMocks struct {
	movies   *mocks.MockMovieRepo
	halls    *mocks.MockHallRepo
	seats    *mocks.MockSeatFinder
	sessions *mocks.MockSessionRepo
	bookings *mocks.MockBookingRepo
	audit    *mocks.MockAuditSink
	locks    *mocks.MockSeatLocker
}

func newTestApplication(opts ...func(*Application)) (*Application, *testMocks) {
	m := &testMocks{
		movies:   &mocks.MockMovieRepo{},
		halls:    &mocks.MockHallRepo{},
		seats:    &mocks.MockSeatFinder{},
		sessions: &mocks.MockSessionRepo{},
		bookings: &mocks.MockBookingRepo{},
		audit:    &mocks.MockAuditSink{},
		locks:    &mocks.MockSeatLocker{},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := &Application{
		config:      Config{Env: "test"},
		validator:   validator.NewValidator(),
		logger:      logger,
		movieRepo:   m.movies,
		hallRepo:    m.halls,
		seatFinder:  m.seats,
		sessionRepo: m.sessions,
		bookingRepo: m.bookings,
		auditSink:   m.audit,
		bookings:    booking.NewService(m.sessions, m.movies, m.seats, m.bookings, m.audit, nil, m.locks, logger),
	}

	for _, opt := range opts {
		opt(app)
	}

	return app, m
}

func executeRequest(t *testing.T, app *Application, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	app.Routes().ServeHTTP(w, r)

	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()

	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}

func checkStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("Status code = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}

func ptr[T any](v T) *T {
	return &v
}
