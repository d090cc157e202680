// Package api implements the response envelope every endpoint speaks:
// {status: true, message, results: {data}} on success and
// {status: false, message, errors: {...}} on failure. No handler may return a
// success envelope that carries an internal failure.
package api

import (
	"encoding/json"
	"net/http"
)

type successEnvelope struct {
	Status  bool                   `json:"status"`
	Message string                 `json:"message"`
	Results map[string]interface{} `json:"results"`
}

type errorEnvelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// Success writes a success envelope with data under results.data.
func Success(w http.ResponseWriter, status int, message string, data interface{}) {
	results := map[string]interface{}{}
	if data != nil {
		results["data"] = data
	}
	writeJSON(w, status, successEnvelope{Status: true, Message: message, Results: results})
}

// Paginated writes a success envelope with results.data and results.pagination.
func Paginated(w http.ResponseWriter, message string, data interface{}, p Pagination) {
	writeJSON(w, http.StatusOK, successEnvelope{
		Status:  true,
		Message: message,
		Results: map[string]interface{}{
			"data":       data,
			"pagination": p,
		},
	})
}

// Error writes an error envelope. errs maps field or reason keys to
// human-readable detail; it may be nil.
func Error(w http.ResponseWriter, status int, message string, errs map[string]string) {
	if errs == nil {
		errs = map[string]string{}
	}
	writeJSON(w, status, errorEnvelope{Status: false, Message: message, Errors: errs})
}

// ValidationError reports per-field validation failures with a 422.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	Error(w, http.StatusUnprocessableEntity, "Validation failed", errs)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
