package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nameRequest struct {
	Name string `json:"name"`
}

func (r *nameRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return Invalid("name", "is required")
	}
	return nil
}

func decode(body string) (nameRequest, error) {
	var req nameRequest
	err := Decode(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &req)
	return req, err
}

func TestDecode(t *testing.T) {
	req, err := decode(`{"name":"  Serif  "}`)
	require.NoError(t, err)
	assert.Equal(t, "Serif", req.Name, "Validate normalizes in place")

	_, err = decode(`{"name":" "}`)
	assert.EqualError(t, err, "name: is required")

	_, err = decode(`{`)
	assert.EqualError(t, err, "invalid request body")

	_, err = decode(`{"name":"` + strings.Repeat("x", maxBodySize) + `"}`)
	assert.Error(t, err, "oversized bodies are rejected")
}

func TestErrorMap(t *testing.T) {
	errGone := errors.New("gone")
	errLocked := errors.New("locked")
	m := ErrorMap{
		{Err: errGone, Status: http.StatusNotFound},
		{Err: errLocked, Status: http.StatusConflict, Message: "try again later"},
	}

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{name: "sentinel", err: errGone, status: http.StatusNotFound, body: `{"error":"gone"}`},
		{name: "wrapped", err: fmt.Errorf("load: %w", errGone), status: http.StatusNotFound, body: `{"error":"gone"}`},
		{name: "custom message", err: errLocked, status: http.StatusConflict, body: `{"error":"try again later"}`},
		{name: "validation", err: Invalid("email", "is required"), status: http.StatusBadRequest, body: `{"error":"email: is required"}`},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, body: `{"error":"internal error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			m.Write(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}
