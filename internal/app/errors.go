package app

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kisscinema/booking-api/internal/domain"
	appvalidator "github.com/kisscinema/booking-api/internal/validator"
)

func (app *Application) logError(r *http.Request, err error) {
	app.logger.Error(err.Error(), "method", r.Method, "uri", r.URL.RequestURI())
}

func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	env := envelope{"error": message}

	err := app.writeJSON(w, status, env, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	message := "the server encountered a problem and could not process your request"
	app.errorResponse(w, r, http.StatusInternalServerError, message)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	app.errorResponse(w, r, http.StatusNotFound, message)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusConflict, err.Error())
}

func (app *Application) editConflictResponse(w http.ResponseWriter, r *http.Request) {
	message := "unable to update the record due to an edit conflict, please try again"
	app.errorResponse(w, r, http.StatusConflict, message)
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		app.serverErrorResponse(w, r, err)
		return
	}

	errs := make(map[string]string, len(validationErrs))
	for _, fieldErr := range validationErrs {
		errs[fieldErr.Field()] = appvalidator.ValidationMessage(fieldErr)
	}

	app.errorResponse(w, r, http.StatusUnprocessableEntity, errs)
}

// domainErrorResponse maps the domain error taxonomy onto HTTP statuses.
// Anything it does not recognize is treated as a server error.
func (app *Application) domainErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, domain.ErrSeatAlreadyBooked),
		errors.Is(err, domain.ErrTicketAlreadyUsed),
		errors.Is(err, domain.ErrBookingNotReserved),
		errors.Is(err, domain.ErrDuplicateRow),
		errors.Is(err, domain.ErrSessionOverlap),
		errors.Is(err, domain.ErrMovieHasSessions),
		errors.Is(err, domain.ErrHallHasSessions),
		errors.Is(err, domain.ErrRowHasBookings),
		errors.Is(err, domain.ErrSessionHasBookings):
		app.conflictResponse(w, r, err)
	case errors.Is(err, domain.ErrEditConflict):
		app.editConflictResponse(w, r)
	case errors.Is(err, domain.ErrSeatNotInHall):
		app.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		app.serverErrorResponse(w, r, err)
	}
}
