package web

import (
	"encoding/json"
	"net/http"

	"notecottage/internal/store"
)

func (s *Server) handleFolderTree(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentUser(r.Context())
	roots, err := s.store.FolderTree(r.Context(), &actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]treeNodeJSON, 0, len(roots))
	for _, root := range roots {
		out = append(out, toTreeNodeJSON(root))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentUser(r.Context())
	var req struct {
		Name     string `json:"name"`
		ParentID *int64 `json:"parent_id"`
		Color    string `json:"color"`
		Icon     string `json:"icon"`
		IsPublic bool   `json:"is_public"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.ParentID != nil {
		parent, err := s.store.GetFolder(r.Context(), *req.ParentID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !store.CanAccessFolder(parent, actor.ID) {
			writeError(w, r, store.ErrPermissionDenied)
			return
		}
	}

	folder, err := s.store.CreateFolder(r.Context(), store.CreateFolderParams{
		Name:     req.Name,
		ParentID: req.ParentID,
		Color:    req.Color,
		Icon:     req.Icon,
		UserID:   &actor.ID,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFolderJSON(folder))
}

// loadFolderForModify fetches the folder and enforces ownership.
func (s *Server) loadFolderForModify(r *http.Request) (*store.Folder, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	folder, err := s.store.GetFolder(r.Context(), id)
	if err != nil {
		return nil, err
	}
	actor, _ := CurrentUser(r.Context())
	if !store.CanModifyFolder(folder, actor.ID) {
		return nil, store.ErrPermissionDenied
	}
	return folder, nil
}

// handleUpdateFolder applies the provided fields, each through its own
// typed setter. Absent fields are left untouched.
func (s *Server) handleUpdateFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := s.loadFolderForModify(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Name     *string `json:"name"`
		Color    *string `json:"color"`
		Icon     *string `json:"icon"`
		IsPublic *bool   `json:"is_public"`
		// Raw so an explicit null (move to top level) is distinguishable
		// from an absent field.
		ParentID json.RawMessage `json:"parent_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if req.Name != nil {
		if err := s.store.RenameFolder(ctx, folder.ID, *req.Name); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.Color != nil {
		if err := s.store.SetFolderColor(ctx, folder.ID, *req.Color); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.Icon != nil {
		if err := s.store.SetFolderIcon(ctx, folder.ID, *req.Icon); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.IsPublic != nil {
		if err := s.store.SetFolderPublic(ctx, folder.ID, *req.IsPublic); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if len(req.ParentID) > 0 {
		var parentID *int64
		if err := json.Unmarshal(req.ParentID, &parentID); err != nil {
			writeError(w, r, &store.ValidationError{Field: "parent_id", Reason: "must be an integer or null"})
			return
		}
		if parentID != nil {
			actor, _ := CurrentUser(ctx)
			parent, err := s.store.GetFolder(ctx, *parentID)
			if err != nil {
				writeError(w, r, err)
				return
			}
			if !store.CanAccessFolder(parent, actor.ID) {
				writeError(w, r, store.ErrPermissionDenied)
				return
			}
		}
		if err := s.store.SetFolderParent(ctx, folder.ID, parentID); err != nil {
			writeError(w, r, err)
			return
		}
	}

	updated, err := s.store.GetFolder(ctx, folder.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFolderJSON(updated))
}

func (s *Server) handleReorderFolder(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentUser(r.Context())
	folder, err := s.loadFolderForModify(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Position int    `json:"position"`
		ParentID *int64 `json:"parent_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.ParentID != nil {
		parent, err := s.store.GetFolder(r.Context(), *req.ParentID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !store.CanAccessFolder(parent, actor.ID) {
			writeError(w, r, store.ErrPermissionDenied)
			return
		}
	}
	if err := s.store.ReorderFolder(r.Context(), folder.ID, req.Position, req.ParentID); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.store.GetFolder(r.Context(), folder.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFolderJSON(updated))
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := s.loadFolderForModify(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteFolder(r.Context(), folder.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleFolderNotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	folder, err := s.store.GetFolder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	actor, _ := CurrentUser(r.Context())
	if !store.CanAccessFolder(folder, actor.ID) {
		writeError(w, r, store.ErrPermissionDenied)
		return
	}
	notes, err := s.store.NotesByFolder(r.Context(), folder.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteSummaryList(notes))
}
