package auth

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/glyphedit/glyphedit/internal/api"
)

const maxDisplayName = 64

// errorMap reports the service sentinels. Unknown emails and wrong
// passwords share one message.
var errorMap = api.ErrorMap{
	{Err: ErrEmailTaken, Status: http.StatusConflict},
	{Err: ErrInvalidCredentials, Status: http.StatusUnauthorized},
	{Err: ErrInvalidPassword, Status: http.StatusBadRequest},
	{Err: ErrInvalidToken, Status: http.StatusUnauthorized},
	{Err: ErrUserNotFound, Status: http.StatusNotFound},
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *credentials) Validate() error {
	c.Email = NormalizeEmail(c.Email)
	if c.Email == "" {
		return api.Invalid("email", "is required")
	}
	if c.Password == "" {
		return api.Invalid("password", "is required")
	}
	return nil
}

type registerRequest struct {
	credentials
	DisplayName string `json:"displayName"`
}

func (r *registerRequest) Validate() error {
	if err := r.credentials.Validate(); err != nil {
		return err
	}
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		return api.Invalid("email", "is not a valid address")
	}
	if CheckPassword(r.Password) != nil {
		return api.Invalid("password", fmt.Sprintf("must be %d to %d bytes", minPasswordLen, maxPasswordLen))
	}
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if r.DisplayName == "" {
		return api.Invalid("displayName", "is required")
	}
	if utf8.RuneCountInString(r.DisplayName) > maxDisplayName {
		return api.Invalid("displayName", "is too long")
	}
	return nil
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := api.Decode(w, r, &req); err != nil {
		errorMap.Write(w, err)
		return
	}

	result, err := h.service.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		errorMap.Write(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, result)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := api.Decode(w, r, &req); err != nil {
		errorMap.Write(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		errorMap.Write(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, result)
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		errorMap.Write(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, user)
}
