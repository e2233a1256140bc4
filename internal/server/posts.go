package server

import (
	"net/http"
	"strings"

	"github.com/debemdeboas/inkpad/internal/model"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	var posts []model.Post
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		posts = s.Posts.Search(q)
	} else {
		posts = s.Posts.List()
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.Posts.Get(model.PostID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.Posts.Delete(model.PostID(chi.URLParam(r, "id"))); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
