package server

import (
	"fmt"
	"net/http"

	"github.com/debemdeboas/inkpad/internal/config"
	"github.com/debemdeboas/inkpad/internal/model"
	"github.com/debemdeboas/inkpad/internal/sse"
)

// handleEvents streams change notifications for one post, or for all posts without ?post=.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, "text/event-stream")
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: connected\ndata: ok\n\n")
	flusher.Flush()

	client := sse.NewClient(model.PostID(r.URL.Query().Get("post")))
	s.Events.Add(client)
	serverLogger.Debug().Str("post_id", string(client.PostID)).Msg("SSE client connected")

	defer func() {
		s.Events.Delete(client)
		serverLogger.Debug().Str("post_id", string(client.PostID)).Msg("SSE client disconnected")
	}()

	done := r.Context().Done()
	for {
		select {
		case ev, ok := <-client.Msg:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.PostID)
			flusher.Flush()
		case <-done:
			return
		}
	}
}
