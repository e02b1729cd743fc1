package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/engine"
	"fintrack/internal/storage"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    userPayload `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = sanitizeInput(req.Name)
	req.Email = strings.ToLower(sanitizeInput(req.Email))

	switch {
	case req.Name == "":
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		writeError(w, http.StatusUnprocessableEntity, "a valid email is required")
		return
	case len(req.Password) < 6:
		writeError(w, http.StatusUnprocessableEntity, "password must be at least 6 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		slog.ErrorContext(r.Context(), "Password hash failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	user, err := s.users.CreateUser(r.Context(), req.Name, req.Email, hash)
	if errors.Is(err, storage.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "User create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	s.issueSession(w, r, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.ToLower(sanitizeInput(req.Email))

	user, err := s.users.UserByEmail(r.Context(), req.Email)
	if errors.Is(err, storage.ErrUserNotFound) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "User lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, auth.ErrWrongPassword) {
			slog.ErrorContext(r.Context(), "Password check failed", "error", err)
		}
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.issueSession(w, r, user)
}

// handleLogout tears down the session's engine. The token itself stays valid
// until expiry; a fresh request simply builds a new engine.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, eng *engine.Engine) {
	s.engines.Deactivate(eng.Session().UserID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// issueSession signs a token and warms the user's engine so the first
// authenticated read is served from cache.
func (s *Server) issueSession(w http.ResponseWriter, r *http.Request, user storage.User) {
	token, err := s.tokens.Issue(user.ID, user.Name, user.Email)
	if err != nil {
		slog.ErrorContext(r.Context(), "Token issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	s.engines.Activate(r.Context(), user.Session())

	writeJSON(w, http.StatusOK, authResponse{
		Success: true,
		Token:   token,
		User:    userPayload{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}
