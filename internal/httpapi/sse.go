package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleSessionStream pushes the session's ProgressState as server-sent
// events until the client goes away or the session is removed.
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func() bool {
		payload, err := json.Marshal(sess.Progress())
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, alive := s.sessions.Lookup(sess.ID); !alive {
				_, _ = fmt.Fprint(w, "event: expired\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			if !send() {
				return
			}
		}
	}
}
