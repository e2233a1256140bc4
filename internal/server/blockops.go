package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/debemdeboas/inkpad/internal/blocks"
	"github.com/debemdeboas/inkpad/internal/config"
	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/photos"
	"github.com/debemdeboas/inkpad/internal/schema"
	"github.com/debemdeboas/inkpad/internal/session"
	"github.com/go-chi/chi/v5"
)

var errUnknownOp = errors.New("unknown block operation")

// controllerKey identifies a block controller. Node ids are never reused within a document;
// the type guards against a controller outliving a node replaced under the same id.
type controllerKey struct {
	sid  session.ID
	node document.NodeID
	typ  string
}

type blockResponse struct {
	Node        document.NodeID `json:"node"`
	Type        string          `json:"type"`
	State       string          `json:"state"`
	HTML        template.HTML   `json:"html"`
	Src         string          `json:"src,omitempty"`
	Photos      []photos.Photo  `json:"photos,omitempty"`
	Placeholder bool            `json:"placeholder,omitempty"`
	Loading     bool            `json:"loading,omitempty"`
}

func nodeParam(r *http.Request) (document.NodeID, error) {
	n, err := strconv.Atoi(chi.URLParam(r, "node"))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: node %q", errBadRequest, chi.URLParam(r, "node"))
	}
	return document.NodeID(n), nil
}

// blockNode resolves the node in the session's current document.
func blockNode(sess *session.Session, id document.NodeID) (*document.Node, error) {
	n := sess.Document().Snapshot().Node(id)
	if n == nil {
		return nil, fmt.Errorf("%w: node %d", document.ErrDetached, id)
	}
	return n, nil
}

// controller returns the controller for a block, creating it on first use.
func (s *Server) controller(sess *session.Session, id document.NodeID, typ string) any {
	return s.controllers.GetOrSet(controllerKey{sid: sess.ID(), node: id, typ: typ}, func() any {
		u := blocks.Bind(sess.Document(), id)
		switch typ {
		case schema.TypeHTMLBlock:
			return blocks.NewHTMLBlock(u)
		case schema.TypeImageBlock:
			return blocks.NewImageBlock(u, s.Uploads)
		case schema.TypeBookmark:
			return blocks.NewBookmarkBlock(u, s.Previews)
		case schema.TypeYouTube:
			return blocks.NewYouTubeBlock(u)
		case schema.TypeTwitter:
			return blocks.NewTwitterBlock(u)
		case schema.TypeUnsplash:
			return blocks.NewPhotoPicker(u, s.Photos, s.PhotosPageSize)
		}
		return u
	})
}

func (s *Server) dropControllers(sid session.ID) {
	var stale []controllerKey
	s.controllers.Range(func(k controllerKey, _ any) bool {
		if k.sid == sid {
			stale = append(stale, k)
		}
		return true
	})
	for _, k := range stale {
		s.controllers.Delete(k)
	}
}

// pruneControllers forgets controllers of sessions the sweeper has closed.
func (s *Server) pruneControllers() {
	var stale []controllerKey
	s.controllers.Range(func(k controllerKey, _ any) bool {
		if !s.Sessions.Has(k.sid) {
			stale = append(stale, k)
		}
		return true
	})
	for _, k := range stale {
		s.controllers.Delete(k)
	}
}

// blockView renders the block the way its controller shows it.
func (s *Server) blockView(sess *session.Session, id document.NodeID) (blockResponse, error) {
	n, err := blockNode(sess, id)
	if err != nil {
		return blockResponse{}, err
	}

	state, err := s.Blocks.State(n.Type, n.Attrs)
	if err != nil {
		return blockResponse{}, err
	}
	resp := blockResponse{Node: id, Type: n.Type, State: "committed"}
	if _, editing := state.(blocks.Editing); editing {
		resp.State = "editing"
	}

	switch c := s.controller(sess, id, n.Type).(type) {
	case *blocks.BookmarkBlock:
		resp.Loading = c.Loading()
		resp.HTML, err = c.Render()
	case *blocks.PhotoPicker:
		resp.HTML, err = c.Render()
	default:
		resp.HTML, err = s.Blocks.Render(n.Type, n.Attrs)
	}
	return resp, err
}

func (s *Server) handleRenderBlock(w http.ResponseWriter, r *http.Request) {
	id, err := nodeParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.blockView(sessionFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func detached(ok bool, id document.NodeID) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: node %d", document.ErrDetached, id)
}

func (s *Server) handleBlockOp(w http.ResponseWriter, r *http.Request) {
	id, err := nodeParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess := sessionFrom(r)
	n, err := blockNode(sess, id)
	if err != nil {
		writeError(w, err)
		return
	}

	op := chi.URLParam(r, "op")
	ctrl := s.controller(sess, id, n.Type)

	var req struct {
		Value string `json:"value"`
	}
	if img, ok := ctrl.(*blocks.ImageBlock); ok && op == "upload" {
		src, err := s.uploadImage(w, r, img)
		if err != nil {
			writeError(w, err)
			return
		}
		resp, err := s.blockView(sess, id)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Src = src
		writeJSON(w, http.StatusOK, resp)
		return
	}
	if err := decodeOptional(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	var extra blockResponse
	switch c := ctrl.(type) {
	case *blocks.HTMLBlock:
		switch op {
		case "draft":
			err = detached(c.SetDraft(req.Value), id)
		case "confirm":
			err = c.Confirm()
		case "edit":
			err = detached(c.Edit(), id)
		default:
			err = errUnknownOp
		}
	case *blocks.ImageBlock:
		switch op {
		case "url":
			err = detached(c.SetURL(req.Value), id)
		case "caption":
			err = detached(c.SetCaption(req.Value), id)
		case "clear":
			err = detached(c.Clear(), id)
		default:
			err = errUnknownOp
		}
	case *blocks.BookmarkBlock:
		switch op {
		case "confirm":
			err = c.Confirm(r.Context(), req.Value)
		case "remove":
			err = detached(c.Remove(), id)
		default:
			err = errUnknownOp
		}
	case *blocks.YouTubeBlock:
		switch op {
		case "confirm":
			err = c.Confirm(req.Value)
		case "edit":
			err = detached(c.Edit(), id)
		default:
			err = errUnknownOp
		}
	case *blocks.TwitterBlock:
		switch op {
		case "confirm":
			err = c.Confirm(req.Value)
		case "edit":
			err = detached(c.Edit(), id)
		default:
			err = errUnknownOp
		}
	case *blocks.PhotoPicker:
		switch op {
		case "load":
			var ok bool
			extra.Photos, ok = c.Load(r.Context())
			extra.Placeholder = !ok
		case "filter":
			extra.Photos = c.Filter(req.Value)
		case "select":
			err = c.Select(req.Value)
		case "close":
			err = detached(c.Close(), id)
		case "edit":
			err = detached(c.Edit(), id)
		default:
			err = errUnknownOp
		}
	default:
		err = errUnknownOp
	}
	if err != nil {
		if errors.Is(err, errUnknownOp) {
			err = fmt.Errorf("%w: %s on %s", errUnknownOp, op, n.Type)
		}
		writeError(w, err)
		return
	}

	resp, err := s.blockView(sess, id)
	if err != nil {
		writeError(w, err)
		return
	}
	resp.Photos, resp.Placeholder = extra.Photos, extra.Placeholder
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request, img *blocks.ImageBlock) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadForm)
	if err := r.ParseMultipartForm(maxUploadForm); err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("%w: no file", errBadRequest)
	}
	defer file.Close()

	return img.Upload(r.Context(), header.Filename, header.Header.Get(config.HCType), file)
}
