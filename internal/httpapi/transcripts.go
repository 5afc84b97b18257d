package httpapi

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/MimeLyc/yt-transcript-extractor/internal/apperr"
	"github.com/MimeLyc/yt-transcript-extractor/internal/export"
	"github.com/MimeLyc/yt-transcript-extractor/internal/metrics"
	"github.com/MimeLyc/yt-transcript-extractor/internal/service"
	"github.com/MimeLyc/yt-transcript-extractor/internal/transcript"
	"github.com/MimeLyc/yt-transcript-extractor/pkg/log"
)

func (s *Server) lookupTranscript(w http.ResponseWriter, r *http.Request) (*service.Session, transcript.Transcript, bool) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return nil, transcript.Transcript{}, false
	}
	tid := r.PathValue("tid")
	t, ok := sess.Transcript(tid)
	if !ok {
		writeAppError(w, http.StatusNotFound, apperr.New(apperr.ErrNotFound, "transcript not found").WithContext("transcript", tid))
		return nil, transcript.Transcript{}, false
	}
	return sess, t, true
}

// handleExport renders a transcript with the session's current filters and
// returns it as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, t, ok := s.lookupTranscript(w, r)
	if !ok {
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeAppError(w, http.StatusBadRequest, err)
		return
	}

	doc := export.Document{
		Title:   t.Title,
		Text:    transcript.Filter(t.Content, sess.Filters()),
		Timings: t.Content,
	}
	// compact drops segments that only held markers.
	if compact, _ := strconv.ParseBool(r.URL.Query().Get("compact")); compact {
		segments := transcript.FilterSegments(t.Content, sess.Filters())
		doc.Text = strings.Join(transcript.Texts(segments), "\n")
		doc.Timings = segments
	}

	artifact, err := export.Serialize(doc, format)
	if err != nil {
		writeAppError(w, http.StatusInternalServerError, err)
		return
	}
	metrics.Metrics.ExportsTotal.WithLabelValues(string(format)).Inc()

	w.Header().Set("Content-Type", artifact.MediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": artifact.Filename,
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Content); err != nil {
		log.Warn("Failed to write export %s: %v", artifact.Filename, err)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, t, ok := s.lookupTranscript(w, r)
	if !ok {
		return
	}
	if s.summarizer == nil {
		writeError(w, http.StatusNotImplemented, "summarizer is not configured")
		return
	}

	summary, err := s.summarizer.Summarize(r.Context(), t.URL)
	if err != nil {
		writeAppError(w, http.StatusBadGateway, err)
		return
	}
	sess.SetSummary(t.ID, summary)
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": summary,
	})
}
