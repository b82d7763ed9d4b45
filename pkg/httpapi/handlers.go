package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/hposerve/pkg/selection"
	"github.com/bastiangx/hposerve/pkg/suggest"
	"github.com/gin-gonic/gin"
)

const defaultLookupLimit = 20

// SearchItem is one /search result, named the way the picker UI reads it.
type SearchItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TermView is the full /terms/:id payload.
type TermView struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Definition string   `json:"definition"`
	Synonyms   []string `json:"synonyms"`
	Neighbors  int      `json:"neighbors"`
}

// SessionView is a session's selection with its related terms.
type SessionView struct {
	SessionID string              `json:"session_id"`
	Changed   *bool               `json:"changed,omitempty"`
	Items     []selection.Item    `json:"items"`
	Related   []suggest.Candidate `json:"related"`
}

type selectBody struct {
	ID string `json:"id" binding:"required"`
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) info(c *gin.Context) {
	RespondOK(c, gin.H{
		"version":  s.cfg.Version,
		"sessions": s.sessions.Len(),
		"stats":    s.searcher.Stats(),
	})
}

func (s *Server) search(c *gin.Context) {
	matches := s.searcher.Search(c.Query("q"))
	items := make([]SearchItem, len(matches))
	for i, m := range matches {
		items[i] = SearchItem{ID: m.ID, Name: m.Label}
	}
	RespondOK(c, items)
}

func (s *Server) term(c *gin.Context) {
	term, ok := s.searcher.Term(c.Param("id"))
	if !ok {
		RespondError(c, http.StatusNotFound, "unknown_term", fmt.Errorf("unknown term: %s", c.Param("id")))
		return
	}
	synonyms := term.Synonyms
	if synonyms == nil {
		synonyms = []string{}
	}
	RespondOK(c, TermView{
		ID:         term.ID,
		Label:      term.Label,
		Definition: term.Definition,
		Synonyms:   synonyms,
		Neighbors:  len(term.Neighbors),
	})
}

func (s *Server) lookup(c *gin.Context) {
	prefix := strings.TrimSpace(c.Query("prefix"))
	if prefix == "" {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("missing 'prefix' parameter"))
		return
	}
	limit, ok := intQuery(c, "limit", defaultLookupLimit)
	if !ok {
		return
	}
	RespondOK(c, s.searcher.Lookup(prefix, limit))
}

func (s *Server) createSession(c *gin.Context) {
	id := s.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

func (s *Server) getSession(c *gin.Context) {
	s.respondSession(c, nil, func(*selection.Selection) bool { return false })
}

func (s *Server) deleteSession(c *gin.Context) {
	if !s.sessions.Delete(c.Param("sid")) {
		RespondError(c, http.StatusNotFound, "unknown_session", ErrSessionNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) selectTerm(c *gin.Context) {
	var body selectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	term, ok := s.searcher.Term(body.ID)
	if !ok {
		RespondError(c, http.StatusNotFound, "unknown_term", fmt.Errorf("unknown term: %s", body.ID))
		return
	}
	changed := false
	s.respondSession(c, &changed, func(sel *selection.Selection) bool {
		return sel.Select(term.ID, term.Label)
	})
}

func (s *Server) deselectTerm(c *gin.Context) {
	changed := false
	id := c.Param("id")
	s.respondSession(c, &changed, func(sel *selection.Selection) bool {
		return sel.Deselect(id)
	})
}

// respondSession applies mutate to the session's selection and answers with
// the resulting view. changed receives mutate's result when non-nil.
func (s *Server) respondSession(c *gin.Context, changed *bool, mutate func(*selection.Selection) bool) {
	sid := c.Param("sid")
	var view SessionView
	err := s.sessions.With(sid, func(sel *selection.Selection) error {
		ch := mutate(sel)
		if changed != nil {
			*changed = ch
		}
		view = SessionView{
			SessionID: sid,
			Changed:   changed,
			Items:     sel.Items(),
			Related:   s.searcher.Related(sel.IDs(), 0),
		}
		return nil
	})
	if err != nil {
		RespondError(c, http.StatusNotFound, "unknown_session", err)
		return
	}
	RespondOK(c, view)
}

func (s *Server) related(c *gin.Context) {
	k, ok := intQuery(c, "k", 0)
	if !ok {
		return
	}
	var ids []string
	err := s.sessions.With(c.Param("sid"), func(sel *selection.Selection) error {
		ids = sel.IDs()
		return nil
	})
	if err != nil {
		RespondError(c, http.StatusNotFound, "unknown_session", err)
		return
	}
	RespondOK(c, s.searcher.Related(ids, k))
}

func (s *Server) export(c *gin.Context) {
	var buf bytes.Buffer
	err := s.sessions.With(c.Param("sid"), func(sel *selection.Selection) error {
		return sel.ExportCSV(&buf)
	})
	switch {
	case errors.Is(err, ErrSessionNotFound):
		RespondError(c, http.StatusNotFound, "unknown_session", err)
		return
	case errors.Is(err, selection.ErrEmptySelection):
		RespondError(c, http.StatusBadRequest, "empty_selection", err)
		return
	case err != nil:
		RespondError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, selection.FileName(time.Now())))
	c.Data(http.StatusOK, selection.ContentType, buf.Bytes())
}

// intQuery parses a non-negative integer query parameter, answering 400
// itself when it is malformed.
func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("'%s' must be a non-negative integer", key))
		return 0, false
	}
	return n, true
}
