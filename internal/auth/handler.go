package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Arwindpianist/gridhealth/internal/server"
)

// Handler exposes the auth HTTP surface and implements server.RouteRegistrar.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates the auth HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers auth endpoints on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /api/v1/auth/logout", h.handleLogout)
	mux.HandleFunc("POST /api/v1/auth/setup", h.handleSetup)
	mux.HandleFunc("GET /api/v1/auth/setup/status", h.handleSetupStatus)
	mux.HandleFunc("GET /api/v1/auth/me", h.handleMe)
}

// Middleware returns the token-validation middleware for protected routes.
func (h *Handler) Middleware() func(http.Handler) http.Handler {
	return AuthMiddleware(h.service.Tokens())
}

type loginRequest struct {
	Username string `json:"username" example:"admin"`
	Password string `json:"password" example:"changeme123"`
}

// handleLogin authenticates a user.
//
//	@Summary		Log in
//	@Description	Authenticates with username and password, returns a token pair
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		loginRequest	true	"Login credentials"
//	@Success		200			{object}	TokenPair
//	@Failure		401			{object}	server.Problem
//	@Router			/auth/login [post]
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid request body", r.URL.Path)
		return
	}
	if req.Username == "" || req.Password == "" {
		server.BadRequest(w, "username and password are required", r.URL.Path)
		return
	}

	pair, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUserDisabled):
			server.Unauthorized(w, "invalid username or password", r.URL.Path)
		default:
			h.logger.Error("login failed", zap.Error(err))
			server.InternalError(w, "login failed", r.URL.Path)
		}
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// handleRefresh rotates a refresh token.
//
//	@Summary		Refresh tokens
//	@Description	Exchanges a refresh token for a new token pair
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			token	body		refreshRequest	true	"Refresh token"
//	@Success		200		{object}	TokenPair
//	@Failure		401		{object}	server.Problem
//	@Router			/auth/refresh [post]
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		server.BadRequest(w, "refresh_token is required", r.URL.Path)
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrUserDisabled):
			server.Unauthorized(w, "invalid or expired refresh token", r.URL.Path)
		default:
			h.logger.Error("token refresh failed", zap.Error(err))
			server.InternalError(w, "token refresh failed", r.URL.Path)
		}
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// handleLogout revokes a refresh token.
//
//	@Summary	Log out
//	@Tags		auth
//	@Accept		json
//	@Success	204	"Token revoked"
//	@Router		/auth/logout [post]
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		server.BadRequest(w, "refresh_token is required", r.URL.Path)
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		server.InternalError(w, "logout failed", r.URL.Path)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type setupRequest struct {
	Username string `json:"username" example:"admin"`
	Email    string `json:"email" example:"admin@example.com"`
	Password string `json:"password"`
}

// handleSetup creates the initial admin account.
//
//	@Summary		Initial setup
//	@Description	Creates the first admin account. Only available before any users exist.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			account	body		setupRequest	true	"Admin account"
//	@Success		201		{object}	User
//	@Failure		409		{object}	server.Problem
//	@Router			/auth/setup [post]
func (h *Handler) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid request body", r.URL.Path)
		return
	}
	if req.Username == "" || req.Password == "" {
		server.BadRequest(w, "username and password are required", r.URL.Path)
		return
	}

	user, err := h.service.Setup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrSetupComplete):
			server.WriteProblem(w, server.Problem{
				Type:     server.ProblemTypeConflict,
				Title:    "Conflict",
				Status:   http.StatusConflict,
				Detail:   "setup already completed",
				Instance: r.URL.Path,
			})
		case errors.Is(err, ErrWeakPassword):
			server.BadRequest(w, err.Error(), r.URL.Path)
		default:
			h.logger.Error("setup failed", zap.Error(err))
			server.InternalError(w, "setup failed", r.URL.Path)
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleSetupStatus reports whether initial setup is still required.
//
//	@Summary	Setup status
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	map[string]bool
//	@Router		/auth/setup/status [get]
func (h *Handler) handleSetupStatus(w http.ResponseWriter, r *http.Request) {
	needed, err := h.service.NeedsSetup(r.Context())
	if err != nil {
		h.logger.Error("setup status check failed", zap.Error(err))
		server.InternalError(w, "setup status check failed", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"needs_setup": needed})
}

// handleMe returns the authenticated user's claims.
//
//	@Summary	Current user
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	401	{object}	server.Problem
//	@Security	BearerAuth
//	@Router		/auth/me [get]
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "not authenticated", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id":  claims.UserID,
		"username": claims.Username,
		"role":     claims.Role,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
