package web

import (
	"log/slog"
	"net/http"

	"notecottage/internal/auth"
	"notecottage/internal/store"
)

// handleAdminCreateUser adds an account directly, bypassing the
// registration gates. The new user gets a personal default folder like a
// self-registered one.
func (s *Server) handleAdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
		IsAdmin     bool   `json:"is_admin"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
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
	user, err := s.store.CreateUser(r.Context(), store.CreateUserParams{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		IsAdmin:      req.IsAdmin,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.store.EnsureDefaultFolder(r.Context(), user.ID); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("user created by admin", "username", user.Username, "admin", user.IsAdmin)
	writeJSON(w, http.StatusCreated, toUserJSON(user))
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]userJSON, 0, len(users))
	for i := range users {
		out = append(out, toUserJSON(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.sessions.DeleteForUser(id)
	slog.Info("user deleted", "user_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAdminSetAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.SetUserAdmin(r.Context(), id, req.IsAdmin); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleAdminGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.AllSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleAdminPutSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req) == 0 {
		writeError(w, r, &store.ValidationError{Field: "body", Reason: "no settings provided"})
		return
	}
	for key, value := range req {
		if err := s.store.SetSetting(r.Context(), key, value); err != nil {
			writeError(w, r, err)
			return
		}
	}
	settings, err := s.store.AllSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleAdminRebuildIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RebuildSearchIndex(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"})
}
