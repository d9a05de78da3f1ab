package app

import (
	"fmt"
	"net/http"

	"github.com/kisscinema/booking-api/internal/domain"
)

type hallResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type rowResponse struct {
	ID        int64 `json:"id"`
	HallID    int64 `json:"hallId"`
	RowNumber int   `json:"rowNumber"`
}

type seatResponse struct {
	ID         int64 `json:"id"`
	RowID      int64 `json:"rowId"`
	RowNumber  int   `json:"rowNumber"`
	SeatNumber int   `json:"seatNumber"`
}

func (app *Application) listHallsHandler(w http.ResponseWriter, r *http.Request) {
	halls, err := app.hallRepo.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]hallResponse, 0, len(halls))
	for _, h := range halls {
		resp = append(resp, hallResponse{ID: h.ID, Name: h.Name, Description: h.Description})
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"halls": resp}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) getHallHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	hall, err := app.hallRepo.GetByID(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"hall": hallResponse{ID: hall.ID, Name: hall.Name, Description: hall.Description}}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) createHallHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name        string `json:"name" validate:"required,max=255"`
		Description string `json:"description" validate:"max=2000"`
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

	hall := &domain.Hall{Name: input.Name, Description: input.Description}

	err = app.hallRepo.Create(r.Context(), hall)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.recordCatalogAudit(r, "HALL", hall.ID, domain.AuditActionCreate, fmt.Sprintf("hall %q created", hall.Name))

	err = app.writeJSON(w, http.StatusCreated, envelope{"hall": hallResponse{ID: hall.ID, Name: hall.Name, Description: hall.Description}}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) deleteHallHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.hallRepo.Delete(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.recordCatalogAudit(r, "HALL", id, domain.AuditActionDelete, "hall deleted")

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) listRowsHandler(w http.ResponseWriter, r *http.Request) {
	hallID, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	rows, err := app.hallRepo.GetRows(r.Context(), hallID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := make([]rowResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, rowResponse{ID: row.ID, HallID: row.HallID, RowNumber: row.RowNumber})
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"rows": resp}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) addRowHandler(w http.ResponseWriter, r *http.Request) {
	hallID, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	var input struct {
		RowNumber int `json:"rowNumber" validate:"required,gt=0"`
	}

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	row := &domain.Row{HallID: hallID, RowNumber: input.RowNumber}

	err = app.hallRepo.AddRow(r.Context(), row)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.recordCatalogAudit(r, "ROW", row.ID, domain.AuditActionCreate, fmt.Sprintf("row %d added to hall %d", row.RowNumber, hallID))

	err = app.writeJSON(w, http.StatusCreated, envelope{"row": rowResponse{ID: row.ID, HallID: row.HallID, RowNumber: row.RowNumber}}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) deleteRowHandler(w http.ResponseWriter, r *http.Request) {
	rowID, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.hallRepo.DeleteRow(r.Context(), rowID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.recordCatalogAudit(r, "ROW", rowID, domain.AuditActionDelete, "row deleted")

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) listSeatsHandler(w http.ResponseWriter, r *http.Request) {
	rowID, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	seats, err := app.hallRepo.GetSeatsByRow(r.Context(), rowID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := make([]seatResponse, 0, len(seats))
	for _, seat := range seats {
		resp = append(resp, seatResponse{ID: seat.ID, RowID: seat.RowID, RowNumber: seat.RowNumber, SeatNumber: seat.SeatNumber})
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"seats": resp}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) addSeatsHandler(w http.ResponseWriter, r *http.Request) {
	rowID, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	var input struct {
		Count int `json:"count" validate:"required,gt=0,max=100"`
	}

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	seats, err := app.hallRepo.AddSeats(r.Context(), rowID, input.Count)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.recordCatalogAudit(r, "ROW", rowID, domain.AuditActionUpdate, fmt.Sprintf("%d seats added", input.Count))

	resp := make([]seatResponse, 0, len(seats))
	for _, seat := range seats {
		resp = append(resp, seatResponse{ID: seat.ID, RowID: seat.RowID, RowNumber: seat.RowNumber, SeatNumber: seat.SeatNumber})
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"seats": resp}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
