package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/debemdeboas/inkpad/internal/config"
	"github.com/debemdeboas/inkpad/internal/photos"
	"github.com/debemdeboas/inkpad/internal/uploads"
	"github.com/go-chi/chi/v5"
)

const maxUploadForm = 32 << 20

func (s *Server) handleLinkPreview(w http.ResponseWriter, r *http.Request) {
	preview, err := s.Previews.Fetch(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

type photosResponse struct {
	Photos []photos.Photo `json:"photos"`
	// Placeholder is set when the photo service failed and stand-ins are shown.
	Placeholder bool `json:"placeholder"`
}

func (s *Server) handlePhotos(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", s.PhotosPageSize)

	list, ok := s.Photos.ListOrPlaceholders(r.Context(), page, limit)
	writeJSON(w, http.StatusOK, photosResponse{Photos: list, Placeholder: !ok})
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

type uploadResponse struct {
	Src string `json:"src"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadForm); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: no file", errBadRequest))
		return
	}
	defer file.Close()

	src, err := s.Uploads.Put(r.Context(), header.Filename, header.Header.Get(config.HCType), file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{Src: src})
}

// objectGetter is implemented by stores that keep uploads in process.
type objectGetter interface {
	Get(ref string) (uploads.Object, error)
}

func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	getter, ok := s.Uploads.(objectGetter)
	if !ok {
		http.NotFound(w, r)
		return
	}
	obj, err := getter.Get(uploads.BlobScheme + chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set(config.HCType, obj.ContentType)
	w.Header().Set(config.HCacheControl, "private, max-age=3600")
	w.Write(obj.Data)
}
