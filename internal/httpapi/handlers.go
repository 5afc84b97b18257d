package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MimeLyc/yt-transcript-extractor/internal/apperr"
	"github.com/MimeLyc/yt-transcript-extractor/internal/config"
	"github.com/MimeLyc/yt-transcript-extractor/internal/jobs"
	"github.com/MimeLyc/yt-transcript-extractor/internal/service"
	"github.com/MimeLyc/yt-transcript-extractor/internal/transcript"
	"github.com/MimeLyc/yt-transcript-extractor/internal/youtube"
	"github.com/MimeLyc/yt-transcript-extractor/pkg/icron"
)

type sessionResponse struct {
	ID          string                    `json:"id"`
	Progress    service.ProgressState     `json:"progress"`
	Filters     transcript.FilterSettings `json:"filters"`
	ActiveJob   *jobs.ExtractionJob       `json:"active_job,omitempty"`
	Failures    []jobs.Failure            `json:"failures,omitempty"`
	Transcripts []transcriptView          `json:"transcripts"`
}

// transcriptView is a transcript as shown in the viewer: raw segments plus
// the text after the session's filters.
type transcriptView struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	URL      string               `json:"url"`
	Language string               `json:"language,omitempty"`
	Segments []transcript.Segment `json:"segments"`
	Text     string               `json:"text"`
	Summary  string               `json:"summary,omitempty"`
}

type extractRequest struct {
	Input string `json:"input"`
	Type  string `json:"type"`
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	id := r.PathValue("id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeAppError(w, http.StatusNotFound, apperr.New(apperr.ErrNotFound, "session not found").WithContext("session", id))
		return nil, false
	}
	return sess, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]any{
		"id": sess.ID,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.buildSessionResponse(sess))
}

func (s *Server) buildSessionResponse(sess *service.Session) sessionResponse {
	filters := sess.Filters()
	results := sess.Transcripts()

	ret := sessionResponse{
		ID:          sess.ID,
		Progress:    sess.Progress(),
		Filters:     filters,
		Failures:    sess.Failures(),
		Transcripts: make([]transcriptView, 0, len(results)),
	}
	if job, ok := s.queue.Active(sess.ID); ok {
		ret.ActiveJob = job
	}
	for _, t := range results {
		ret.Transcripts = append(ret.Transcripts, transcriptView{
			ID:       t.ID,
			Title:    t.Title,
			URL:      t.URL,
			Language: t.Language,
			Segments: t.Content,
			Text:     transcript.Filter(t.Content, filters),
			Summary:  sess.Summary(t.ID),
		})
	}
	return ret
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	if _, pending := s.queue.Active(sess.ID); pending {
		writeAppError(w, http.StatusConflict, inFlightError())
		return
	}
	if err := sess.Reset(); err != nil {
		writeAppError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, s.buildSessionResponse(sess))
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	kind, err := youtube.ParseKind(req.Type)
	if err != nil {
		writeAppError(w, http.StatusBadRequest, err)
		return
	}
	extraction, err := youtube.Validate(req.Input, kind)
	if err != nil {
		writeAppError(w, http.StatusBadRequest, err)
		return
	}

	if sess.IsProcessing() {
		writeAppError(w, http.StatusConflict, inFlightError())
		return
	}

	urls := make([]string, len(extraction.URLs))
	copy(urls, extraction.URLs)
	job, created := s.queue.Enqueue(jobs.EnqueueRequest{
		SessionID: sess.ID,
		Payload: jobs.JobPayload{
			URLs: urls,
			Type: string(extraction.Type),
		},
	})
	if !created {
		body := appErrorBody(inFlightError())
		body["job"] = job
		writeJSON(w, http.StatusConflict, body)
		return
	}
	resp := map[string]any{"job": job}
	if warnings := kindMismatches(extraction); len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// kindMismatches lists URLs whose shape suggests another kind than the
// declared one. The declared kind is still used.
func kindMismatches(req youtube.ExtractionRequest) []string {
	var ret []string
	for _, url := range req.URLs {
		if got := youtube.Classify(url); got != req.Type {
			ret = append(ret, fmt.Sprintf("%s looks like a %s URL, extracting as %s", url, got, req.Type))
		}
	}
	return ret
}

func (s *Server) handleUpdateFilters(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req transcript.FilterSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	sess.SetFilters(req)
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.queue.List())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	}
	if s.sweepCron != nil {
		if info, err := icron.GetTriggerInfo(s.sweepCron(), time.Now()); err == nil {
			resp["next_sweep"] = info
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusNotImplemented, "settings store is not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		settings, err := s.settings.GetRuntimeSettings()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, settings)
	case http.MethodPut:
		var req config.RuntimeSettings
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		saved, err := s.settings.UpdateRuntimeSettings(req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if s.apply != nil {
			if err := s.apply(saved); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

var defaultErrorHandler = apperr.NewDefaultErrorHandler()

func inFlightError() *apperr.Error {
	return apperr.NewWithCause(apperr.ErrConflict, service.ErrExtractionInFlight.Error(), service.ErrExtractionInFlight)
}

// writeAppError renders err with its kind and user-facing advice.
func writeAppError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		defaultErrorHandler.Handle(err)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, status, appErrorBody(appErr))
}

func appErrorBody(appErr *apperr.Error) map[string]any {
	body := map[string]any{
		"error":  appErr.Message,
		"kind":   appErr.Type.String(),
		"advice": defaultErrorHandler.GetAdvice(appErr),
	}
	if u := appErr.URL(); u != "" {
		body["url"] = u
	}
	return body
}
