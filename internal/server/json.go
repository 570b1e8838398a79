package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/battle"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string      `json:"error"`
	Code  battle.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeEngineError maps engine errors to 400 for bad actions and 409 for
// requests the current phase does not allow.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusConflict
	if errors.Is(err, battle.ErrInvalidAction) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: battle.CodeOf(err)})
}
