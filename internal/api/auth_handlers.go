package api

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"dashboard-sync-service/internal/auth"
	"dashboard-sync-service/internal/logger"
	"dashboard-sync-service/internal/rbac"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type sessionResponse struct {
	Token     string      `json:"token,omitempty"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
	Username  string      `json:"username"`
	Role      rbac.Role   `json:"role"`
	Pages     []rbac.Page `json:"pages"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password, role)
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "Username already exists")
		return
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		logger.Log.Error("Registration failed", zap.String("username", req.Username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		Username: user.Username,
		Role:     role,
		Pages:    rbac.VisiblePages(role),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrUnknownUser):
		writeError(w, http.StatusUnauthorized, "Username not found")
		return
	case errors.Is(err, auth.ErrInvalidPassword):
		writeError(w, http.StatusUnauthorized, "Incorrect password")
		return
	case err != nil:
		logger.Log.Error("Login failed", zap.String("username", req.Username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	sess, err := h.sessions.Create(user)
	if err != nil {
		logger.Log.Error("Failed to create session", zap.String("username", user.Username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	logger.Log.Info("User logged in", zap.String("username", user.Username), zap.String("role", string(sess.Role)))
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     sess.Token,
		ExpiresAt: &sess.ExpiresAt,
		Username:  sess.Username,
		Role:      sess.Role,
		Pages:     rbac.VisiblePages(sess.Role),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := sessionFrom(r); sess != nil {
		h.sessions.Delete(sess.Token)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	writeJSON(w, http.StatusOK, sessionResponse{
		ExpiresAt: &sess.ExpiresAt,
		Username:  sess.Username,
		Role:      sess.Role,
		Pages:     rbac.VisiblePages(sess.Role),
	})
}
