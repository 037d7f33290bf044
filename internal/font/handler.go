package font

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/mux"

	"github.com/glyphedit/glyphedit/internal/api"
	"github.com/glyphedit/glyphedit/internal/auth"
)

const (
	maxUploadSize = 10 << 20 // 10MB
	maxNameLen    = 128
)

var errorMap = api.ErrorMap{
	{Err: ErrNotFound, Status: http.StatusNotFound, Message: "not found"},
	{Err: ErrUserNotFound, Status: http.StatusNotFound, Message: "not found"},
	{Err: ErrForbidden, Status: http.StatusForbidden},
	{Err: ErrNotMember, Status: http.StatusForbidden},
	{Err: ErrRemoveOwner, Status: http.StatusBadRequest},
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name string `json:"name"`
}

func (r *createRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return api.Invalid("name", "is required")
	}
	if utf8.RuneCountInString(r.Name) > maxNameLen {
		return api.Invalid("name", "is too long")
	}
	return nil
}

type inviteRequest struct {
	Email string `json:"email"`
}

func (r *inviteRequest) Validate() error {
	r.Email = auth.NormalizeEmail(r.Email)
	if r.Email == "" {
		return api.Invalid("email", "is required")
	}
	return nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createRequest
	if err := api.Decode(w, r, &req); err != nil {
		errorMap.Write(w, err)
		return
	}

	font, err := h.service.Create(r.Context(), req.Name, userID)
	if err != nil {
		errorMap.Write(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, font)
}

// Upload handles POST /api/fonts/upload (multipart form with a "file"
// field holding TrueType or OpenType data and an optional "name").
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		api.Error(w, http.StatusBadRequest, "file too large (max 10MB)")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "read upload")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if utf8.RuneCountInString(name) > maxNameLen {
		errorMap.Write(w, api.Invalid("name", "is too long"))
		return
	}

	font, err := h.service.Import(r.Context(), name, userID, data)
	if err != nil {
		var parseErr *ImportError
		if errors.As(err, &parseErr) {
			api.Error(w, http.StatusBadRequest, "invalid font: "+parseErr.Error())
			return
		}
		errorMap.Write(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, font)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	fontID := mux.Vars(r)["fontId"]

	font, err := h.service.Get(r.Context(), fontID, userID)
	if err != nil {
		errorMap.Write(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, font)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	fonts, err := h.service.List(r.Context(), userID)
	if err != nil {
		errorMap.Write(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, fonts)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	fontID := mux.Vars(r)["fontId"]

	if err := h.service.Delete(r.Context(), fontID, userID); err != nil {
		errorMap.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	fontID := mux.Vars(r)["fontId"]

	var req inviteRequest
	if err := api.Decode(w, r, &req); err != nil {
		errorMap.Write(w, err)
		return
	}

	if err := h.service.InviteByEmail(r.Context(), fontID, userID, req.Email); err != nil {
		errorMap.Write(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]string{"status": "invited"})
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	fontID := mux.Vars(r)["fontId"]

	members, err := h.service.ListMembers(r.Context(), fontID, userID)
	if err != nil {
		errorMap.Write(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	fontID := mux.Vars(r)["fontId"]
	targetUserID := mux.Vars(r)["userId"]

	if err := h.service.RemoveMember(r.Context(), fontID, userID, targetUserID); err != nil {
		errorMap.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	fontID := mux.Vars(r)["fontId"]

	doc, err := h.service.GetLatestSnapshot(r.Context(), fontID, userID)
	if err != nil {
		errorMap.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}
