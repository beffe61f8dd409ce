package handler

import (
	"net/http"
	"time"

	"edu-platform/internal/middleware"
	"edu-platform/internal/model"
	"edu-platform/internal/service"
	"edu-platform/pkg/apierror"
	"edu-platform/pkg/envelope"
)

type AuthHandler struct {
	service   *service.AuthService
	responder *envelope.Responder
}

func NewAuthHandler(service *service.AuthService, responder *envelope.Responder) *AuthHandler {
	return &AuthHandler{service: service, responder: responder}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	session, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(session.Token, session.ExpiresAt))
	envelope.SendSuccess(w, http.StatusOK, session.User, "Logged in")
}

// Logout always succeeds: it only expires the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", time.Unix(0, 0)))
	envelope.SendSuccess[any](w, http.StatusOK, nil, "Logged out")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.responder.Error(w, r, apierror.Unauthorized("authentication required"))
		return
	}

	user, err := h.service.CurrentUser(r.Context(), claims.UserID())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	envelope.SendSuccess(w, http.StatusOK, user, "")
}

// sessionCookie with a zero-time expiry produces "Max-Age=0".
func (h *AuthHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.responder.Production(),
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	}

	if value == "" {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(time.Until(expires).Seconds())
	}

	return cookie
}
