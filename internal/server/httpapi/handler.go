// Package httpapi exposes the token lifecycle over HTTP: registration, login,
// refresh rotation, logout, and current-session lookup, plus health and
// metrics endpoints.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"gymkeeper/internal/common"
	"gymkeeper/internal/logging"
	"gymkeeper/internal/server/models"
	"gymkeeper/internal/server/services"
)

// SessionManager is the slice of the session service the HTTP layer needs.
type SessionManager interface {
	Register(ctx context.Context, email, password, fullName string, role models.Role) (*models.User, error)
	Login(ctx context.Context, email, password string, client services.ClientInfo) (*services.TokenPair, error)
	Refresh(ctx context.Context, rawToken string, client services.ClientInfo) (*services.TokenPair, error)
	Logout(ctx context.Context, accessToken string)
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
}

// Handler wires HTTP auth endpoints to the session service.
type Handler struct {
	sessions SessionManager
	logger   logging.Logger
}

func NewHandler(sessions SessionManager, logger logging.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		logger:   logger.With("module", "httpapi"),
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	user, err := h.sessions.Register(r.Context(), req.Email, req.Password, req.FullName, models.Role(strings.ToUpper(strings.TrimSpace(req.Role))))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	pair, err := h.sessions.Login(r.Context(), req.Email, req.Password, clientInfo(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenPairResponse(pair))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "refreshToken is required")
		return
	}

	pair, err := h.sessions.Refresh(r.Context(), strings.TrimSpace(req.RefreshToken), clientInfo(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenPairResponse(pair))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Logout succeeds even with a bad or missing token; the client discards
	// its copy either way.
	if token := bearerToken(r); token != "" {
		h.sessions.Logout(r.Context(), token)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	user, err := h.sessions.CurrentUser(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// writeServiceError maps the service error taxonomy onto HTTP status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid input")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "conflict", "email already registered")
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	case errors.Is(err, common.ErrAccountDisabled):
		writeError(w, http.StatusForbidden, "account_disabled", "account is disabled")
	case errors.Is(err, common.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "token_expired", "token expired")
	case errors.Is(err, common.ErrTokenRevoked):
		writeError(w, http.StatusUnauthorized, "token_revoked", "token revoked")
	case errors.Is(err, common.ErrTokenReuseDetected):
		writeError(w, http.StatusUnauthorized, "token_reuse_detected", "refresh token already used")
	case errors.Is(err, common.ErrTokenNotRecognized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get(common.AuthorizationHeaderName))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// clientInfo extracts device metadata recorded on issued refresh tokens.
func clientInfo(r *http.Request) services.ClientInfo {
	ip := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if ip == "" {
		if host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr)); err == nil {
			ip = host
		}
	}
	return services.ClientInfo{
		DeviceInfo: strings.TrimSpace(r.UserAgent()),
		IPAddress:  ip,
	}
}
