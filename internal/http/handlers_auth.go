package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/faloosh2002/financial-control-platform/internal/auth"
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

type accountResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type sessionResponse struct {
	Token string          `json:"token"`
	User  accountResponse `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	account, err := s.provider.Register(r.Context(), sanitizeInput(req.Name), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "email already registered"})
			return
		}
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
		slog.ErrorContext(r.Context(), "Registration failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "registration failed"})
		return
	}

	token, err := s.provider.IssueToken(account)
	if err != nil {
		slog.ErrorContext(r.Context(), "Token issue failed", "error", err, "user_id", account.ID)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "token issue failed"})
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		Token: token,
		User:  accountResponse{ID: account.ID, Name: account.DisplayName, Email: account.Email},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	account, err := s.provider.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
			return
		}
		slog.ErrorContext(r.Context(), "Login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "login failed"})
		return
	}

	token, err := s.provider.IssueToken(account)
	if err != nil {
		slog.ErrorContext(r.Context(), "Token issue failed", "error", err, "user_id", account.ID)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "token issue failed"})
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Token: token,
		User:  accountResponse{ID: account.ID, Name: account.DisplayName, Email: account.Email},
	})
}
