package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ulyban/contactbook/internal/user"
)

const refreshCookieName = "refreshToken"

// Handler exposes the auth endpoints: register, login, refresh, logout, and
// the two password-reset legs. The refresh token travels in an HTTP-only
// cookie; only the access token appears in response bodies.
type Handler struct {
	svc    *Service
	users  *user.Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, users *user.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, users: users, logger: logger}
}

// RegisterRequest is the request body for the register endpoint.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid register payload", "err", err)
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if msg := requireFields(map[string]string{
		"name": req.Name, "email": req.Email, "password": req.Password,
	}); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	u, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrEmailInUse) {
			respondError(w, http.StatusConflict, "email in use")
			return
		}
		h.logger.Warnw("register failed", "err", err)
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// LoginRequest is the request body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the access token; the refresh token is set as a
// cookie instead.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if msg := requireFields(map[string]string{"email": req.Email, "password": req.Password}); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrBadCredentials) {
			respondError(w, http.StatusUnauthorized, user.ErrBadCredentials.Error())
			return
		}
		h.logger.Warnw("login failed", "err", err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	setRefreshCookie(w, sess.RefreshToken, sess.RefreshTokenValidUntil)
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: sess.AccessToken})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "no refresh token found")
		return
	}
	sess, err := h.svc.Refresh(r.Context(), cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, ErrRefreshTokenExpired):
			respondError(w, http.StatusUnauthorized, ErrRefreshTokenExpired.Error())
		case errors.Is(err, ErrInvalidRefreshToken):
			respondError(w, http.StatusUnauthorized, ErrInvalidRefreshToken.Error())
		case errors.Is(err, user.ErrNotFound):
			respondError(w, http.StatusNotFound, user.ErrNotFound.Error())
		default:
			h.logger.Warnw("refresh failed", "err", err)
			respondError(w, http.StatusInternalServerError, "refresh failed")
		}
		return
	}
	setRefreshCookie(w, sess.RefreshToken, sess.RefreshTokenValidUntil)
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: sess.AccessToken})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "no refresh token found")
		return
	}
	if err := h.svc.Logout(r.Context(), cookie.Value); err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			respondError(w, http.StatusNotFound, ErrSessionNotFound.Error())
		case errors.Is(err, ErrInvalidRefreshToken):
			respondError(w, http.StatusUnauthorized, ErrInvalidRefreshToken.Error())
		default:
			h.logger.Warnw("logout failed", "err", err)
			respondError(w, http.StatusInternalServerError, "logout failed")
		}
		return
	}
	clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// SendResetEmailRequest is the request body for the reset-request endpoint.
type SendResetEmailRequest struct {
	Email string `json:"email"`
}

func (h *Handler) SendResetEmail(w http.ResponseWriter, r *http.Request) {
	var req SendResetEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if msg := requireFields(map[string]string{"email": req.Email}); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			respondError(w, http.StatusNotFound, user.ErrNotFound.Error())
		case errors.Is(err, ErrMailDelivery):
			respondError(w, http.StatusInternalServerError, ErrMailDelivery.Error())
		default:
			h.logger.Warnw("reset email failed", "err", err)
			respondError(w, http.StatusInternalServerError, "reset email failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "reset password email has been sent"})
}

// ResetPasswordRequest is the request body for the reset-confirm endpoint.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if msg := requireFields(map[string]string{"token": req.Token, "password": req.Password}); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, ErrInvalidResetToken):
			respondError(w, http.StatusUnauthorized, ErrInvalidResetToken.Error())
		case errors.Is(err, user.ErrNotFound):
			respondError(w, http.StatusNotFound, user.ErrNotFound.Error())
		default:
			h.logger.Warnw("reset password failed", "err", err)
			respondError(w, http.StatusInternalServerError, "reset password failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password has been reset"})
}

func setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// requireFields reports all missing fields at once rather than the first.
func requireFields(fields map[string]string) string {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name+" is required")
		}
	}
	if len(missing) == 0 {
		return ""
	}
	sort.Strings(missing)
	return strings.Join(missing, ", ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
