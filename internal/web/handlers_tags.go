package web

import (
	"net/http"
)

type tagJSON struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTags(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]tagJSON, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagJSON{Name: t.Name, Count: t.Count})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTagNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.NotesForTag(r.Context(), r.PathValue("name"))
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

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTag(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
