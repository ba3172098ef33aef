// tavle/handlers/handlers.go

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"tavle/database"
	"tavle/models"
)

// App is an interface that defines the dependencies our handlers need.
type App interface {
	DB() *database.DatabaseService
	RateLimiter() *models.RateLimiter
	Logger() *slog.Logger
	Storage() models.StorageService
}

// respondJSON sends a JSON response with a given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}, app App) {
	response, err := json.Marshal(payload)
	if err != nil {
		app.Logger().Error("Failed to marshal JSON payload", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte(`{"error":"Failed to marshal JSON response"}`)); werr != nil {
			app.Logger().Error("Failed to write internal server error response", "error", werr)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		app.Logger().Error("Failed to write JSON response", "error", err)
	}
}

// statusForKind maps the database error taxonomy to HTTP status codes.
func statusForKind(kind database.ErrorKind) int {
	switch kind {
	case database.KindBadRequest:
		return http.StatusBadRequest
	case database.KindUnauthorized:
		return http.StatusUnauthorized
	case database.KindForbidden:
		return http.StatusForbidden
	case database.KindNotFound:
		return http.StatusNotFound
	case database.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError translates a core error into a status plus a stable
// code/description pair. Unclassified errors become a plain 500.
func respondError(w http.ResponseWriter, err error, app App) {
	var derr *database.Error
	if !errors.As(err, &derr) {
		app.Logger().Error("Unclassified error reached the HTTP boundary", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"code":  "internal_error",
			"error": "internal error",
		}, app)
		return
	}
	respondJSON(w, statusForKind(derr.Kind), map[string]string{
		"code":  derr.Code,
		"error": strings.ReplaceAll(derr.Code, "_", " "),
	}, app)
}

// MakeHandler adapts an App-aware handler function to http.HandlerFunc.
func MakeHandler(app App, fn func(http.ResponseWriter, *http.Request, App)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, app)
	}
}
