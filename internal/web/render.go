package web

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"

	"notecottage/internal/store"
)

var (
	mdRenderer      = goldmark.New()
	wikiLinkPattern = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]+))?\]\]`)
)

// handlePreview renders markdown to HTML server-side. Wiki-links that
// resolve against the current title map become note links; unresolved ones
// render as plain text so the client can style them as broken.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, r, &store.ValidationError{Field: "content", Reason: "must not be empty"})
		return
	}

	titles, err := s.store.TitleMap(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resolved := resolveWikiLinks(req.Content, titles)

	var b strings.Builder
	if err := mdRenderer.Convert([]byte(resolved), &b); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": b.String()})
}

// resolveWikiLinks rewrites [[Title]] and [[Title|alias]] into markdown
// links before rendering.
func resolveWikiLinks(content string, titles map[string]store.TitleEntry) string {
	return wikiLinkPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := wikiLinkPattern.FindStringSubmatch(match)
		target := strings.TrimSpace(parts[1])
		label := target
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			label = strings.TrimSpace(parts[2])
		}
		entry, ok := titles[strings.ToLower(target)]
		if !ok {
			return label
		}
		return fmt.Sprintf("[%s](/api/notes/%d)", label, entry.ID)
	})
}
