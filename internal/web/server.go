// Package web is the JSON API over the note store: cookie-session
// authentication, per-user visibility checks and thin handlers that
// translate store errors into HTTP statuses.
package web

import (
	"net/http"

	"notecottage/internal/config"
	"notecottage/internal/store"
)

type Server struct {
	cfg          config.Config
	store        *store.Store
	mux          *http.ServeMux
	sessions     *Sessions
	loginLimiter *keyedLimiter
}

func NewServer(cfg config.Config, st *store.Store) *Server {
	s := &Server{
		cfg:          cfg,
		store:        st,
		mux:          http.NewServeMux(),
		sessions:     NewSessions(cfg.SessionTTL),
		loginLimiter: newKeyedLimiter(cfg.LoginRatePerMin),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	s.mux.HandleFunc("GET /api/auth/me", s.requireUser(s.handleMe))
	s.mux.HandleFunc("PUT /api/auth/profile", s.requireUser(s.handleUpdateProfile))
	s.mux.HandleFunc("PUT /api/auth/password", s.requireUser(s.handleChangePassword))

	s.mux.HandleFunc("GET /api/notes", s.requireUser(s.handleListNotes))
	s.mux.HandleFunc("POST /api/notes", s.requireUser(s.handleCreateNote))
	s.mux.HandleFunc("GET /api/notes/{id}", s.requireUser(s.handleGetNote))
	s.mux.HandleFunc("PUT /api/notes/{id}", s.requireUser(s.handleUpdateNote))
	s.mux.HandleFunc("DELETE /api/notes/{id}", s.requireUser(s.handleTrashNote))
	s.mux.HandleFunc("POST /api/notes/{id}/restore", s.requireUser(s.handleRestoreNote))
	s.mux.HandleFunc("DELETE /api/notes/{id}/purge", s.requireUser(s.handlePurgeNote))
	s.mux.HandleFunc("PUT /api/notes/{id}/move", s.requireUser(s.handleMoveNote))
	s.mux.HandleFunc("PUT /api/notes/{id}/reorder", s.requireUser(s.handleReorderNote))
	s.mux.HandleFunc("GET /api/notes/{id}/backlinks", s.requireUser(s.handleBacklinks))
	s.mux.HandleFunc("GET /api/trash", s.requireUser(s.handleListTrash))
	s.mux.HandleFunc("DELETE /api/trash", s.requireUser(s.handleEmptyTrash))
	s.mux.HandleFunc("GET /api/search", s.requireUser(s.handleSearch))
	s.mux.HandleFunc("GET /api/wikilinks", s.requireUser(s.handleWikiLinks))
	s.mux.HandleFunc("POST /api/preview", s.requireUser(s.handlePreview))

	s.mux.HandleFunc("GET /api/folders", s.requireUser(s.handleFolderTree))
	s.mux.HandleFunc("POST /api/folders", s.requireUser(s.handleCreateFolder))
	s.mux.HandleFunc("PUT /api/folders/{id}", s.requireUser(s.handleUpdateFolder))
	s.mux.HandleFunc("PUT /api/folders/{id}/reorder", s.requireUser(s.handleReorderFolder))
	s.mux.HandleFunc("DELETE /api/folders/{id}", s.requireUser(s.handleDeleteFolder))
	s.mux.HandleFunc("GET /api/folders/{id}/notes", s.requireUser(s.handleFolderNotes))

	s.mux.HandleFunc("GET /api/tags", s.requireUser(s.handleListTags))
	s.mux.HandleFunc("GET /api/tags/{name}/notes", s.requireUser(s.handleTagNotes))
	s.mux.HandleFunc("DELETE /api/tags/{name}", s.requireUser(s.handleDeleteTag))

	s.mux.HandleFunc("GET /api/admin/users", s.requireAdmin(s.handleAdminListUsers))
	s.mux.HandleFunc("POST /api/admin/users", s.requireAdmin(s.handleAdminCreateUser))
	s.mux.HandleFunc("DELETE /api/admin/users/{id}", s.requireAdmin(s.handleAdminDeleteUser))
	s.mux.HandleFunc("PUT /api/admin/users/{id}/admin", s.requireAdmin(s.handleAdminSetAdmin))
	s.mux.HandleFunc("GET /api/admin/settings", s.requireAdmin(s.handleAdminGetSettings))
	s.mux.HandleFunc("PUT /api/admin/settings", s.requireAdmin(s.handleAdminPutSettings))
	s.mux.HandleFunc("POST /api/admin/index/rebuild", s.requireAdmin(s.handleAdminRebuildIndex))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireUser resolves the session cookie into a User on the context.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.sessionUser(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required"})
			return
		}
		next(w, r.WithContext(WithUser(r.Context(), user)))
	}
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireUser(func(w http.ResponseWriter, r *http.Request) {
		user, _ := CurrentUser(r.Context())
		if !user.IsAdmin {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "admin required"})
			return
		}
		next(w, r)
	})
}

func (s *Server) sessionUser(r *http.Request) (User, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return User{}, false
	}
	userID, ok := s.sessions.Lookup(cookie.Value)
	if !ok {
		return User{}, false
	}
	u, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		return User{}, false
	}
	return User{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}, true
}
