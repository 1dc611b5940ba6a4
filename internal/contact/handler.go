package contact

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ulyban/contactbook/internal/auth"
	"github.com/ulyban/contactbook/internal/contact/entity"
)

// Handler exposes contact CRUD for the authenticated user. Every method
// assumes auth.Middleware already attached the user to the request context.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// CreateRequest is the request body for contact creation.
type CreateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	c, err := h.svc.Create(r.Context(), u.ID, req.Name, req.Email, req.Phone)
	if err != nil {
		h.logger.Warnw("contact create failed", "err", err)
		respondError(w, http.StatusInternalServerError, "contact create failed")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	contacts, err := h.svc.List(r.Context(), u.ID)
	if err != nil {
		h.logger.Warnw("contact list failed", "err", err)
		respondError(w, http.StatusInternalServerError, "contact list failed")
		return
	}
	if contacts == nil {
		// serialize an empty list, not null
		contacts = []*entity.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	c, err := h.svc.Get(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respondError(w, http.StatusNotFound, ErrNotFound.Error())
			return
		}
		h.logger.Warnw("contact get failed", "err", err)
		respondError(w, http.StatusInternalServerError, "contact get failed")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	c, err := h.svc.Update(r.Context(), u.ID, r.PathValue("id"), in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respondError(w, http.StatusNotFound, ErrNotFound.Error())
			return
		}
		h.logger.Warnw("contact update failed", "err", err)
		respondError(w, http.StatusInternalServerError, "contact update failed")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := h.svc.Delete(r.Context(), u.ID, r.PathValue("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respondError(w, http.StatusNotFound, ErrNotFound.Error())
			return
		}
		h.logger.Warnw("contact delete failed", "err", err)
		respondError(w, http.StatusInternalServerError, "contact delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
