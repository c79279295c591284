package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/millkeeper/internal/common"
	"github.com/dmitrijs2005/millkeeper/internal/repository"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusBadGateway
	case errors.Is(err, common.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}
