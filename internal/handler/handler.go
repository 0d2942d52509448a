// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"
)

// Handler provides the root and fallback endpoints.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello is a simple info endpoint.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message": "Hello from Briefly!",
		"version": "0.1.0",
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"error": "resource not found",
	}
	writeJSON(w, http.StatusNotFound, response)
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"error": "method not allowed",
	}
	writeJSON(w, http.StatusMethodNotAllowed, response)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		_ = err
	}
}
