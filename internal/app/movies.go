package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kisscinema/booking-api/internal/domain"
)

type movieResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"durationMinutes"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toMovieResponse(m domain.Movie) movieResponse {
	return movieResponse{
		ID:              m.ID,
		Title:           m.Title,
		DurationMinutes: m.DurationMinutes,
		Description:     m.Description,
		CreatedAt:       m.CreatedAt,
	}
}

func (app *Application) listMoviesHandler(w http.ResponseWriter, r *http.Request) {
	movies, err := app.movieRepo.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]movieResponse, 0, len(movies))
	for _, m := range movies {
		resp = append(resp, toMovieResponse(m))
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"movies": resp}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) getMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	movie, err := app.movieRepo.GetByID(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"movie": toMovieResponse(*movie)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) createMovieHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title           string `json:"title" validate:"required,max=255"`
		DurationMinutes int    `json:"durationMinutes" validate:"required,gt=0"`
		Description     string `json:"description" validate:"max=2000"`
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

	movie := &domain.Movie{
		Title:           input.Title,
		DurationMinutes: input.DurationMinutes,
		Description:     input.Description,
	}

	err = app.movieRepo.Create(r.Context(), movie)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.recordCatalogAudit(r, "MOVIE", movie.ID, domain.AuditActionCreate, fmt.Sprintf("movie %q created", movie.Title))

	err = app.writeJSON(w, http.StatusCreated, envelope{"movie": toMovieResponse(*movie)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) deleteMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.movieRepo.Delete(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.recordCatalogAudit(r, "MOVIE", id, domain.AuditActionDelete, "movie deleted")

	w.WriteHeader(http.StatusNoContent)
}

// recordCatalogAudit logs catalog mutations done through the admin surface.
// Audit failures are logged but never fail the request.
func (app *Application) recordCatalogAudit(r *http.Request, entityType string, entityID int64, action, details string) {
	err := app.auditSink.Record(r.Context(), entityType, entityID, action, domain.AuditActorAdmin, details)
	if err != nil {
		app.logger.Warn("failed to record audit entry", "entity_type", entityType, "entity_id", entityID, "error", err)
	}
}
