// Package httputil provides shared HTTP utilities for consistent response handling.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/getmockd/mockapi/pkg/endpoint"
)

// WriteJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes err as a JSON error body. The status code comes from the
// error type; unknown errors are reported as 500.
func WriteError(w http.ResponseWriter, err error) int {
	resp := endpoint.ToErrorResponse(err)
	WriteJSON(w, resp.StatusCode, resp)
	return resp.StatusCode
}

// WriteOK writes a 200 OK response with data.
func WriteOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a 201 Created response with the created resource.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteTooManyRequests writes a 429 Too Many Requests response.
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": message})
}
