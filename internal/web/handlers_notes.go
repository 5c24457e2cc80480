package web

import (
	"net/http"
	"strconv"

	"notecottage/internal/store"
)

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &store.ValidationError{Field: "id", Reason: "must be a positive integer"}
	}
	return id, nil
}

// visibleFolders returns the set of folder ids the actor may read.
func (s *Server) visibleFolders(r *http.Request) (map[int64]bool, error) {
	actor, _ := CurrentUser(r.Context())
	folders, err := s.store.ListFoldersForUser(r.Context(), &actor.ID)
	if err != nil {
		return nil, err
	}
	visible := make(map[int64]bool, len(folders))
	for _, f := range folders {
		visible[f.ID] = true
	}
	return visible, nil
}

// filterVisible drops summaries whose folder the actor cannot read.
// Folderless notes pass through.
func filterVisible(notes []store.NoteSummary, visible map[int64]bool) []store.NoteSummary {
	out := notes[:0]
	for _, n := range notes {
		if !n.FolderID.Valid || visible[n.FolderID.Int64] {
			out = append(out, n)
		}
	}
	return out
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.ListActiveNotes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	visible, err := s.visibleFolders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteSummaryList(filterVisible(notes, visible)))
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentUser(r.Context())
	var req struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		FolderID *int64 `json:"folder_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.FolderID != nil {
		folder, err := s.store.GetFolder(r.Context(), *req.FolderID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !store.CanAccessFolder(folder, actor.ID) {
			writeError(w, r, store.ErrPermissionDenied)
			return
		}
	}

	note, err := s.store.CreateNote(r.Context(), req.Title, req.Content, req.FolderID, &actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tags, err := s.store.TagsForNote(r.Context(), note.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteJSON(note, tags))
}

// loadNote fetches the note and enforces access; modify additionally
// requires write permission.
func (s *Server) loadNote(r *http.Request, modify bool) (*store.Note, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	note, err := s.store.GetNote(r.Context(), id)
	if err != nil {
		return nil, err
	}
	actor, _ := CurrentUser(r.Context())
	if modify {
		if err := s.store.AuthorizeNoteModify(r.Context(), note, actor.ID); err != nil {
			return nil, err
		}
	} else if err := s.store.AuthorizeNoteAccess(r.Context(), note, actor.ID); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.loadNote(r, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tags, err := s.store.TagsForNote(r.Context(), note.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteJSON(note, tags))
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.loadNote(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.UpdateNoteContent(r.Context(), note.ID, req.Content); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.store.GetNote(r.Context(), note.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tags, err := s.store.TagsForNote(r.Context(), note.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteJSON(updated, tags))
}

func (s *Server) handleTrashNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.loadNote(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.SoftDeleteNote(r.Context(), note.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "trashed"})
}

func (s *Server) handleRestoreNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.loadNote(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.RestoreNote(r.Context(), note.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

func (s *Server) handlePurgeNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.loadNote(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.PurgeNote(r.Context(), note.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}

func (s *Server) handleMoveNote(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentUser(r.Context())
	note, err := s.loadNote(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		FolderID int64 `json:"folder_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	folder, err := s.store.GetFolder(r.Context(), req.FolderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !store.CanAccessFolder(folder, actor.ID) {
		writeError(w, r, store.ErrPermissionDenied)
		return
	}
	if err := s.store.MoveNote(r.Context(), note.ID, req.FolderID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "moved"})
}

func (s *Server) handleReorderNote(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentUser(r.Context())
	note, err := s.loadNote(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		FolderID int64 `json:"folder_id"`
		Position int   `json:"position"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	folder, err := s.store.GetFolder(r.Context(), req.FolderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !store.CanAccessFolder(folder, actor.ID) {
		writeError(w, r, store.ErrPermissionDenied)
		return
	}
	if err := s.store.ReorderNote(r.Context(), note.ID, req.FolderID, req.Position); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
}

func (s *Server) handleBacklinks(w http.ResponseWriter, r *http.Request) {
	note, err := s.loadNote(r, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	links, err := s.store.Backlinks(r.Context(), note.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	visible, err := s.visibleFolders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteSummaryList(filterVisible(links, visible)))
}

func (s *Server) handleListTrash(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.ListTrash(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	visible, err := s.visibleFolders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteSummaryList(filterVisible(notes, visible)))
}

func (s *Server) handleEmptyTrash(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.EmptyTrash(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"purged": count})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	results, err := s.store.SearchNotes(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	visible, err := s.visibleFolders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteSummaryList(filterVisible(results, visible)))
}

func (s *Server) handleWikiLinks(w http.ResponseWriter, r *http.Request) {
	titles, err := s.store.TitleMap(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make(map[string]wikiLinkJSON, len(titles))
	for key, entry := range titles {
		out[key] = wikiLinkJSON{ID: entry.ID, Title: entry.Title, UpdatedAt: entry.UpdatedAt}
	}
	writeJSON(w, http.StatusOK, out)
}
