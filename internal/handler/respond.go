package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/choremane/internal/auth"
	"github.com/dukerupert/choremane/internal/chore"
	"github.com/dukerupert/choremane/internal/undo"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDetail writes the {"detail": ...} error body clients expect.
func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// writeError maps a service error to a status code. Anything unrecognized is
// logged and reported as a 500 with fallback as the detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	var done *chore.AlreadyCompletedError
	switch {
	case errors.As(err, &done):
		writeDetail(w, http.StatusConflict, map[string]string{
			"message":   "Chore already completed today",
			"last_done": done.LastDone.String(),
		})
	case errors.Is(err, chore.ErrValidation):
		writeDetail(w, http.StatusUnprocessableEntity, validationMessage(err))
	case errors.Is(err, chore.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Chore not found")
	case errors.Is(err, undo.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Log entry not found")
	case errors.Is(err, undo.ErrUnsupportedAction):
		writeDetail(w, http.StatusBadRequest, "Undo not supported for this action type")
	default:
		logger.ErrorContext(r.Context(), fallback, "error", err, "user", auth.Email(r.Context()))
		writeDetail(w, http.StatusInternalServerError, fallback)
	}
}

// validationMessage strips the generic prefix so clients see e.g.
// "done_by is required".
func validationMessage(err error) string {
	msg := err.Error()
	prefix := chore.ErrValidation.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return false
	}
	return true
}
