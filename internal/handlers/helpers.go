package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Digital231/lastDance/internal/auth"
	"github.com/Digital231/lastDance/internal/database"
	"github.com/Digital231/lastDance/internal/services"
	"github.com/Digital231/lastDance/pkg/logger"

	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeMessage emits the {"message": ...} error body used across the API.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeFieldErrors emits the validation body: {"errors":[{"field","msg"}]}.
func writeFieldErrors(w http.ResponseWriter, fields []auth.FieldError) {
	writeJSON(w, http.StatusBadRequest, map[string][]auth.FieldError{"errors": fields})
}

// writeServiceError maps service-layer failures to the HTTP contract:
// RequestError -> 400, not-found / not-participant -> 404 with notFoundMsg,
// anything else -> 500 with internalMsg (internals logged, never leaked).
func writeServiceError(w http.ResponseWriter, err error, notFoundMsg, internalMsg string) {
	var reqErr *services.RequestError
	if errors.As(err, &reqErr) {
		writeMessage(w, http.StatusBadRequest, reqErr.Msg)
		return
	}
	if errors.Is(err, database.ErrNotFound) || errors.Is(err, services.ErrNotParticipant) {
		writeMessage(w, http.StatusNotFound, notFoundMsg)
		return
	}
	logger.Error("%s: %v", internalMsg, err)
	writeMessage(w, http.StatusInternalServerError, internalMsg)
}

func pathID(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}
