package app

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kisscinema/booking-api/internal/domain"
)

type bookingConfirmationResponse struct {
	Code       string          `json:"code"`
	MovieTitle string          `json:"movieTitle"`
	StartTime  time.Time       `json:"startTime"`
	Price      decimal.Decimal `json:"price"`
	RowNumber  int             `json:"rowNumber"`
	SeatNumber int             `json:"seatNumber"`
}

func (app *Application) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		SessionID int64  `json:"sessionId" validate:"required,gt=0"`
		SeatID    int64  `json:"seatId" validate:"required,gt=0"`
		OwnerID   *int64 `json:"ownerId" validate:"omitempty,gt=0"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	confirmation, err := app.bookings.CreateBooking(r.Context(), input.SessionID, input.SeatID, input.OwnerID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := bookingConfirmationResponse{
		Code:       confirmation.Code,
		MovieTitle: confirmation.MovieTitle,
		StartTime:  confirmation.StartTime,
		Price:      confirmation.Price,
		RowNumber:  confirmation.RowNumber,
		SeatNumber: confirmation.SeatNumber,
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"booking": resp}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) useBookingHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Code string `json:"code" validate:"required"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	err = app.bookings.UseBooking(r.Context(), input.Code)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"status": string(domain.BookingUsed)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) cancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.bookings.CancelBooking(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) cancelByUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		SessionID  int64 `json:"sessionId" validate:"required,gt=0"`
		RowNumber  int   `json:"rowNumber" validate:"required,gt=0"`
		SeatNumber int   `json:"seatNumber" validate:"required,gt=0"`
		OwnerID    int64 `json:"ownerId" validate:"required,gt=0"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	err = app.bookings.CancelByUser(r.Context(), input.SessionID, input.RowNumber, input.SeatNumber, input.OwnerID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
