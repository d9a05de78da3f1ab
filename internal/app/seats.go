package app

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/kisscinema/booking-api/internal/domain"
)

type seatViewResponse struct {
	ID         int64           `json:"id"`
	SeatNumber int             `json:"seatNumber"`
	Taken      bool            `json:"taken"`
	Mine       bool            `json:"mine"`
	Used       bool            `json:"used"`
	Price      decimal.Decimal `json:"price"`
}

type seatRowResponse struct {
	RowNumber int                `json:"rowNumber"`
	Seats     []seatViewResponse `json:"seats"`
}

type seatMapResponse struct {
	SessionID int64             `json:"sessionId"`
	Rows      []seatRowResponse `json:"rows"`
}

func (app *Application) getSessionSeatsHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	viewerID, err := app.readOptionalID(r, "viewerId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	seats, err := app.bookings.GetSeatsFull(r.Context(), sessionID, viewerID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := seatMapResponse{
		SessionID: sessionID,
		Rows:      toSeatRows(seats),
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"seatMap": resp}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toSeatRows(seats []domain.SeatView) []seatRowResponse {
	// Seat views are pre-sorted by row number, seat number (ascending),
	// which lets us group them into rows in a single pass.

	if len(seats) == 0 {
		return []seatRowResponse{}
	}

	var rows []seatRowResponse
	currentRow := seatRowResponse{RowNumber: seats[0].RowNumber}

	for _, v := range seats {
		if v.RowNumber != currentRow.RowNumber {
			rows = append(rows, currentRow)
			currentRow = seatRowResponse{RowNumber: v.RowNumber}
		}

		currentRow.Seats = append(currentRow.Seats, seatViewResponse{
			ID:         v.SeatID,
			SeatNumber: v.SeatNumber,
			Taken:      v.Taken,
			Mine:       v.Mine,
			Used:       v.Used,
			Price:      v.Price,
		})
	}

	rows = append(rows, currentRow)

	return rows
}
