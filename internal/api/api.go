// Package api holds the JSON conventions shared by the HTTP handlers:
// response writing, request decoding with validation, and the mapping from
// service errors to status codes.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

const maxBodySize = 1 << 20

// Validator is implemented by request bodies that check themselves after
// decoding. Validate may normalize fields in place.
type Validator interface {
	Validate() error
}

// ValidationError is a mistake in the request the client can fix.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid reports a bad field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Decode reads a JSON body into v and validates it when v is a Validator.
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ValidationError{Message: "invalid request body"}
	}
	if val, ok := v.(Validator); ok {
		return val.Validate()
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error writes {"error": message}.
func Error(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// Mapping turns a service sentinel into a response. An empty Message
// reports the sentinel's own text.
type Mapping struct {
	Err     error
	Status  int
	Message string
}

// ErrorMap is the table of sentinels a handler knows how to report.
type ErrorMap []Mapping

// Write reports err. Validation errors are 400s, mapped sentinels use
// their status and anything else is logged and reported as a 500.
func (m ErrorMap) Write(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		Error(w, http.StatusBadRequest, verr.Error())
		return
	}
	for _, e := range m {
		if errors.Is(err, e.Err) {
			msg := e.Message
			if msg == "" {
				msg = e.Err.Error()
			}
			Error(w, e.Status, msg)
			return
		}
	}
	slog.Error("request failed", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}
