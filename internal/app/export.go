package app

import (
	"net/http"

	"github.com/kisscinema/booking-api/internal/domain"
)

func (app *Application) exportHandler(w http.ResponseWriter, r *http.Request) {
	path, err := app.exporter.ExportToFile(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.recordCatalogAudit(r, "EXPORT", 0, domain.AuditActionCreate, "snapshot exported to "+path)

	err = app.writeJSON(w, http.StatusCreated, envelope{"file": path}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) importHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		File string `json:"file" validate:"required"`
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

	err = app.exporter.ImportFromFile(r.Context(), input.File)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.recordCatalogAudit(r, "IMPORT", 0, domain.AuditActionUpdate, "snapshot imported from "+input.File)

	err = app.writeJSON(w, http.StatusOK, envelope{"status": "imported"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
