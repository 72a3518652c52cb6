package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"config-envelope-service/internal/domain"
	"config-envelope-service/internal/middleware"
	"config-envelope-service/internal/usecase"
	"config-envelope-service/pkg/httputil"
)

// LoginRequest はログインリクエストの形式。
type LoginRequest struct {
	Password string `json:"password"`
}

// SessionResponse はセッション状態のレスポンス形式。
type SessionResponse struct {
	Authenticated bool `json:"authenticated"`
}

// AuthHandler は管理者セッションAPIを提供する。
type AuthHandler struct {
	service *usecase.AuthService
	store   sessions.Store
}

// NewAuthHandler は新しいAuthHandlerを生成する。
func NewAuthHandler(service *usecase.AuthService, store sessions.Store) *AuthHandler {
	return &AuthHandler{service: service, store: store}
}

// Login は管理者パスワードを検証し、セッションCookieを発行する。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.Decode(w, r, maxRequestBytes, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "MISSING_PASSWORD", "password is required")
		return
	}

	if err := h.service.ValidatePassword(req.Password); err != nil {
		middleware.WriteAuditLog(r.Context(), "LOGIN", "admin", middleware.ResultFailed)
		if errors.Is(err, domain.ErrInvalidCredentials) {
			httputil.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid password")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	sess, _ := h.store.Get(r, middleware.SessionName)
	middleware.MarkAdmin(sess, uuid.NewString())
	if err := sess.Save(r, w); err != nil {
		slog.ErrorContext(r.Context(), "failed to save session", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "LOGIN", middleware.SessionID(sess), middleware.ResultSuccess)
	httputil.Success(w, SessionResponse{Authenticated: true})
}

// Logout はセッションCookieを削除する。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.store.Get(r, middleware.SessionName)
	sessionID := middleware.SessionID(sess)

	sess.Options.MaxAge = -1
	sess.Values = map[interface{}]interface{}{}
	if err := sess.Save(r, w); err != nil {
		slog.ErrorContext(r.Context(), "failed to delete session", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "LOGOUT", sessionID, middleware.ResultSuccess)
	httputil.Success(w, SessionResponse{Authenticated: false})
}

// Session は現在のセッションが認証済みかどうかを返す。
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.store.Get(r, middleware.SessionName)
	httputil.Success(w, SessionResponse{Authenticated: middleware.IsAdmin(sess)})
}
