package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"notecottage/internal/auth"
	"notecottage/internal/store"
)

const minPasswordLen = 8

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	enabled, err := s.store.RegistrationEnabled(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !enabled {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "registration is disabled"})
		return
	}
	max, err := s.store.MaxUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if max > 0 {
		count, err := s.store.CountUsers(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if count >= max {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "user limit reached"})
			return
		}
	}

	if len(req.Password) < minPasswordLen {
		writeError(w, r, &store.ValidationError{Field: "password", Reason: "must be at least 8 characters"})
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// The first account becomes the administrator.
	count, err := s.store.CountUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.store.CreateUser(r.Context(), store.CreateUserParams{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		IsAdmin:      count == 0,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Every account gets a private folder for its folderless notes.
	if _, err := s.store.EnsureDefaultFolder(r.Context(), user.ID); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("user registered", "username", user.Username, "admin", user.IsAdmin)

	s.sessions.setCookie(w, s.sessions.Create(user.ID))
	writeJSON(w, http.StatusCreated, toUserJSON(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.loginLimiter.allow(clientKey(r)) {
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many login attempts"})
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, store.ErrNotFound) || (err == nil && !auth.VerifyPassword(user.PasswordHash, req.Password)) {
		slog.Info("login rejected", "username", req.Username)
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.sessions.setCookie(w, s.sessions.Create(user.ID))
	slog.Info("login", "username", user.Username)
	writeJSON(w, http.StatusOK, toUserJSON(user))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Delete(cookie.Value)
	}
	clearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentUser(r.Context())
	user, err := s.store.GetUser(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(user))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentUser(r.Context())
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.UpdateUserProfile(r.Context(), actor.ID, req.Email, req.DisplayName); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.store.GetUser(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(user))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentUser(r.Context())
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.store.GetUser(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !auth.VerifyPassword(user.PasswordHash, req.CurrentPassword) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "current password is wrong"})
		return
	}
	if len(req.NewPassword) < minPasswordLen {
		writeError(w, r, &store.ValidationError{Field: "new_password", Reason: "must be at least 8 characters"})
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.UpdateUserPassword(r.Context(), actor.ID, hash); err != nil {
		writeError(w, r, err)
		return
	}

	// Old sessions die with the old password; issue a fresh one.
	s.sessions.DeleteForUser(actor.ID)
	s.sessions.setCookie(w, s.sessions.Create(actor.ID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}
