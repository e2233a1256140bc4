package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/inserter"
	"github.com/debemdeboas/inkpad/internal/model"
	"github.com/debemdeboas/inkpad/internal/session"
	"github.com/debemdeboas/inkpad/internal/toolbar"
	"github.com/go-chi/chi/v5"
)

type ctxKey int

const sessionKey ctxKey = iota

func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Sessions.Get(session.ID(chi.URLParam(r, "sid")))
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	return r.Context().Value(sessionKey).(*session.Session)
}

type toolbarView struct {
	Mode     toolbar.Mode     `json:"mode"`
	Position toolbar.Position `json:"position"`
	Active   []toolbar.Action `json:"active"`
}

type sessionView struct {
	ID        session.ID         `json:"sessionId"`
	PostID    model.PostID       `json:"postId"`
	Status    session.Status     `json:"status"`
	Title     string             `json:"title"`
	Cover     string             `json:"cover"`
	HTML      string             `json:"html"`
	Selection document.Selection `json:"selection"`
	Toolbar   toolbarView        `json:"toolbar"`
	Inserter  inserter.View      `json:"inserter"`
}

func viewOf(sess *session.Session) sessionView {
	tb := sess.Toolbar()
	active := []toolbar.Action{}
	for _, a := range toolbar.Actions() {
		if tb.IsActive(a) {
			active = append(active, a)
		}
	}

	doc := sess.Document()
	return sessionView{
		ID:        sess.ID(),
		PostID:    sess.PostID(),
		Status:    sess.Status(),
		Title:     sess.Title(),
		Cover:     sess.Cover(),
		HTML:      doc.HTML(),
		Selection: doc.Selection(),
		Toolbar:   toolbarView{Mode: tb.Mode(), Position: tb.Position(), Active: active},
		Inserter:  sess.Inserter().View(),
	}
}

// decodeOptional decodes a JSON body that may be absent.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	err := decodeJSON(w, r, v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PostID model.PostID `json:"postId"`
	}
	if err := decodeOptional(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.pruneControllers()
	sess, err := s.Sessions.Create(req.PostID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewOf(sessionFrom(r)))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := s.Sessions.Delete(sess.ID()); err != nil {
		writeError(w, err)
		return
	}
	s.dropControllers(sess.ID())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HTML string `json:"html"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.respond(w, r, sessionFrom(r).SetContent(req.HTML))
}

func (s *Server) handleSetTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.respond(w, r, sessionFrom(r).SetTitle(req.Title))
}

func (s *Server) handleSetCover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.respond(w, r, sessionFrom(r).SetFeaturedImage(req.URL))
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, sessionFrom(r).Publish())
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).Document().Snapshot().JSON())
}

// respond writes the session view, or err.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sessionFrom(r)))
}

// selectionViewport answers coordinates for the two ends of the selection as the client
// measured them.
type selectionViewport struct {
	from, to   int
	start, end *toolbar.Coords
}

var errNoCoords = errors.New("no coordinates for position")

func (v selectionViewport) CoordsAtPos(pos int) (toolbar.Coords, error) {
	switch {
	case pos == v.from && v.start != nil:
		return *v.start, nil
	case pos == v.to && v.end != nil:
		return *v.end, nil
	}
	return toolbar.Coords{}, fmt.Errorf("%w %d", errNoCoords, pos)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		document.Selection
		Start *toolbar.Coords `json:"start"`
		End   *toolbar.Coords `json:"end"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess := sessionFrom(r)
	if err := sess.Document().SetSelection(req.Selection); err != nil {
		writeError(w, err)
		return
	}
	sess.Toolbar().SelectionChanged(selectionViewport{
		from:  req.Selection.From(),
		to:    req.Selection.To(),
		start: req.Start,
		end:   req.End,
	})
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleInsertText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.respond(w, r, sessionFrom(r).Document().Apply(document.InsertText(req.Text)))
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, sessionFrom(r).Document().Apply(document.SplitBlock()))
}

func (s *Server) handleDeleteSelection(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, sessionFrom(r).Document().Apply(document.DeleteSelection()))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).Document().Undo()
	s.respond(w, r, nil)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).Document().Redo()
	s.respond(w, r, nil)
}

type actionResponse struct {
	Ran bool `json:"ran"`
	sessionView
}

func (s *Server) handleToolbarAction(w http.ResponseWriter, r *http.Request) {
	action, err := toolbar.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess := sessionFrom(r)
	ran := sess.Toolbar().Run(action)
	writeJSON(w, http.StatusOK, actionResponse{Ran: ran, sessionView: viewOf(sess)})
}

func (s *Server) handleToolbarLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess := sessionFrom(r)
	ran := sess.Toolbar().ConfirmLink(req.URL)
	writeJSON(w, http.StatusOK, actionResponse{Ran: ran, sessionView: viewOf(sess)})
}

func (s *Server) handleToolbarEscape(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).Toolbar().Escape()
	s.respond(w, r, nil)
}

func (s *Server) handleToolbarDismiss(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).Toolbar().OutsideClick()
	s.respond(w, r, nil)
}

// clientLayout is the geometry the client measured for the paragraph under the cursor.
type clientLayout struct {
	top    *float64
	scroll float64
}

func (l clientLayout) ParagraphTop(id document.NodeID) (float64, error) {
	if l.top == nil {
		return 0, fmt.Errorf("%w: paragraph %d", errNoCoords, id)
	}
	return *l.top, nil
}

func (l clientLayout) ScrollTop() float64 {
	return l.scroll
}

func (s *Server) handleInserterHover(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).Inserter().PointerEntered()
	s.respond(w, r, nil)
}

func (s *Server) handleInserterRecompute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ParagraphTop *float64 `json:"paragraphTop"`
		ScrollTop    float64  `json:"scrollTop"`
	}
	if err := decodeOptional(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	sessionFrom(r).Inserter().Recompute(clientLayout{top: req.ParagraphTop, scroll: req.ScrollTop})
	s.respond(w, r, nil)
}

func (s *Server) handleInserterOpen(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ran := sess.Inserter().OpenMenu()
	writeJSON(w, http.StatusOK, actionResponse{Ran: ran, sessionView: viewOf(sess)})
}

func (s *Server) handleInserterChoose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.respond(w, r, sessionFrom(r).Inserter().Choose(req.Key))
}

func (s *Server) handleInserterDismiss(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InMenuOrTrigger bool `json:"inMenuOrTrigger"`
	}
	if err := decodeOptional(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	sessionFrom(r).Inserter().ClickOutside(req.InMenuOrTrigger)
	s.respond(w, r, nil)
}
