package app

import (
	"net/http"

	"bidtrack/api/internal/store"
)

func mapError(err error) (status int, code, message string, details any) {
	switch {
	case store.IsValidation(err):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil
	case store.IsNotFound(err):
		return http.StatusNotFound, "NOT_FOUND", err.Error(), nil
	case store.IsInvalidTransition(err):
		return http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil
	case store.IsPersistence(err):
		return http.StatusServiceUnavailable, "PERSISTENCE_ERROR", "Could not persist changes", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
