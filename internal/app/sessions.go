package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kisscinema/booking-api/internal/domain"
)

type sessionResponse struct {
	ID        int64           `json:"id"`
	MovieID   int64           `json:"movieId"`
	HallID    int64           `json:"hallId"`
	StartTime time.Time       `json:"startTime"`
	EndTime   time.Time       `json:"endTime"`
	BasePrice decimal.Decimal `json:"basePrice"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		MovieID:   s.MovieID,
		HallID:    s.HallID,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		BasePrice: s.BasePrice,
	}
}

func (app *Application) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	var (
		sessions []domain.Session
		err      error
	)

	if dateParam := r.URL.Query().Get("date"); dateParam != "" {
		date, parseErr := time.Parse("2006-01-02", dateParam)
		if parseErr != nil {
			app.badRequestResponse(w, r, fmt.Errorf("invalid date parameter, expected YYYY-MM-DD"))
			return
		}
		sessions, err = app.sessionRepo.GetByDate(r.Context(), date)
	} else {
		movieID, paramErr := app.readOptionalID(r, "movieId")
		if paramErr != nil {
			app.badRequestResponse(w, r, paramErr)
			return
		}
		sessions, err = app.sessionRepo.GetAll(r.Context(), movieID)
	}

	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, toSessionResponse(s))
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"sessions": resp}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	session, err := app.sessionRepo.GetByID(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"session": toSessionResponse(*session)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		MovieID   int64           `json:"movieId" validate:"required,gt=0"`
		HallID    int64           `json:"hallId" validate:"required,gt=0"`
		StartTime time.Time       `json:"startTime" validate:"required"`
		BasePrice decimal.Decimal `json:"basePrice" validate:"required"`
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

	if input.BasePrice.IsNegative() || input.BasePrice.IsZero() {
		app.errorResponse(w, r, http.StatusUnprocessableEntity, map[string]string{"basePrice": "must be greater than zero"})
		return
	}

	movie, err := app.movieRepo.GetByID(r.Context(), input.MovieID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if _, err := app.hallRepo.GetByID(r.Context(), input.HallID); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	session := &domain.Session{
		MovieID:   input.MovieID,
		HallID:    input.HallID,
		StartTime: input.StartTime,
		EndTime:   input.StartTime.Add(time.Duration(movie.DurationMinutes) * time.Minute),
		BasePrice: input.BasePrice,
	}

	err = app.sessionRepo.Create(r.Context(), session)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.recordCatalogAudit(r, "SESSION", session.ID, domain.AuditActionCreate,
		fmt.Sprintf("session for movie %d scheduled in hall %d at %s", session.MovieID, session.HallID, session.StartTime.Format(time.RFC3339)))

	err = app.writeJSON(w, http.StatusCreated, envelope{"session": toSessionResponse(*session)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.sessionRepo.Delete(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.recordCatalogAudit(r, "SESSION", id, domain.AuditActionDelete, "session deleted")

	w.WriteHeader(http.StatusNoContent)
}
