package server

import (
	"errors"
	"net/http"

	"github.com/Sukhwinder-i0/komyra-ai/internal/orchestrator"
	"github.com/Sukhwinder-i0/komyra-ai/internal/store"
)

// HTTPStatus maps a domain error to an HTTP status code. Oracle failures
// never surface here; the orchestrator absorbs them into fallbacks.
func HTTPStatus(err error) int {
	var validationErr *orchestrator.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}

	var accessErr *orchestrator.AccessDeniedError
	if errors.As(err, &accessErr) {
		return http.StatusUnauthorized
	}

	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}
