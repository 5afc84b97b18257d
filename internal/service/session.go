package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/semaphore"

	"github.com/MimeLyc/yt-transcript-extractor/internal/apperr"
	"github.com/MimeLyc/yt-transcript-extractor/internal/jobs"
	"github.com/MimeLyc/yt-transcript-extractor/internal/transcript"
)

const (
	etaDone    = "0 seconds"
	etaUnknown = "unknown"
)

// ProgressState is a snapshot of a session's bulk operation.
type ProgressState struct {
	IsProcessing           bool   `json:"is_processing"`
	Progress               int    `json:"progress"`
	ProcessedCount         int    `json:"processed_count"`
	TotalCount             int    `json:"total_count"`
	FailedCount            int    `json:"failed_count"`
	EstimatedTimeRemaining string `json:"estimated_time_remaining"`
}

func idleProgress() ProgressState {
	return ProgressState{EstimatedTimeRemaining: etaDone}
}

// Session holds the state of one viewer: progress, result set, filter
// settings and summaries. Progress and results are written by the
// Orchestrator only; everything else reads snapshots.
type Session struct {
	ID string

	inflight *semaphore.Weighted

	mu         sync.RWMutex
	progress   ProgressState
	startedAt  time.Time
	results    []transcript.Transcript
	index      map[string]int
	filters    transcript.FilterSettings
	summaries  map[string]string
	failures   []jobs.Failure
	lastActive time.Time
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		inflight:   semaphore.NewWeighted(1),
		progress:   idleProgress(),
		index:      make(map[string]int),
		summaries:  make(map[string]string),
		lastActive: now,
	}
}

func (s *Session) Progress() ProgressState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

func (s *Session) IsProcessing() bool {
	return s.Progress().IsProcessing
}

// Transcripts returns the result set in insertion order.
func (s *Session) Transcripts() []transcript.Transcript {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]transcript.Transcript, len(s.results))
	copy(ret, s.results)
	return ret
}

func (s *Session) Transcript(id string) (transcript.Transcript, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return transcript.Transcript{}, false
	}
	return s.results[i], true
}

// Failures lists the URLs of the latest batch that could not be extracted.
func (s *Session) Failures() []jobs.Failure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.failures) == 0 {
		return nil
	}
	ret := make([]jobs.Failure, len(s.failures))
	copy(ret, s.failures)
	return ret
}

func (s *Session) Filters() transcript.FilterSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

func (s *Session) SetFilters(settings transcript.FilterSettings) {
	s.mu.Lock()
	s.filters = settings
	s.mu.Unlock()
}

func (s *Session) Summary(transcriptID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaries[transcriptID]
}

// SetSummary stores the latest summary shown for a transcript.
func (s *Session) SetSummary(transcriptID, summary string) {
	s.mu.Lock()
	s.summaries[transcriptID] = summary
	s.mu.Unlock()
}

// Reset discards results, summaries and filters. It is refused while an
// extraction is in flight.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress.IsProcessing {
		return apperr.New(apperr.ErrConflict, "cannot reset while an extraction is in flight").
			WithContext("session", s.ID)
	}
	s.progress = idleProgress()
	s.results = nil
	s.index = make(map[string]int)
	s.summaries = make(map[string]string)
	s.failures = nil
	s.filters = transcript.FilterSettings{}
	return nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// begin marks the session as processing. It reports false when another
// extraction already holds the session.
func (s *Session) begin(total int, now time.Time) bool {
	if !s.inflight.TryAcquire(1) {
		return false
	}
	s.mu.Lock()
	s.progress = ProgressState{
		IsProcessing:           true,
		TotalCount:             total,
		EstimatedTimeRemaining: etaUnknown,
	}
	s.startedAt = now
	s.lastActive = now
	s.failures = nil
	s.mu.Unlock()
	return true
}

// advance records one attempted URL, successful or not.
func (s *Session) advance(failed bool, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &s.progress
	if p.ProcessedCount < p.TotalCount {
		p.ProcessedCount++
	}
	if failed {
		p.FailedCount++
	}
	if p.TotalCount > 0 {
		p.Progress = p.ProcessedCount * 100 / p.TotalCount
	}

	remaining := p.TotalCount - p.ProcessedCount
	perURL := now.Sub(s.startedAt) / time.Duration(p.ProcessedCount)
	p.EstimatedTimeRemaining = formatETA(perURL * time.Duration(remaining))
	s.lastActive = now
}

func (s *Session) recordFailure(f jobs.Failure) {
	s.mu.Lock()
	s.failures = append(s.failures, f)
	s.mu.Unlock()
}

// newFailure describes a failed URL with the error kind and message shown
// to the user.
func newFailure(url string, err error) jobs.Failure {
	f := jobs.Failure{URL: url, Kind: apperr.TypeOf(err).String(), Error: err.Error()}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		f.Error = appErr.Message
		if appErr.Cause != nil {
			f.Error += ": " + appErr.Cause.Error()
		}
	}
	return f
}

// add appends t to the result set, replacing an entry with the same id in place.
func (s *Session) add(t transcript.Transcript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[t.ID]; ok {
		s.results[i] = t
		delete(s.summaries, t.ID)
		return
	}
	s.index[t.ID] = len(s.results)
	s.results = append(s.results, t)
}

// finish returns the session to idle, keeping the final counts.
func (s *Session) finish() {
	s.mu.Lock()
	s.progress.IsProcessing = false
	s.progress.EstimatedTimeRemaining = etaDone
	s.mu.Unlock()
	s.inflight.Release(1)
}

// formatETA renders a remaining duration such as "5 seconds" or "2 minutes".
func formatETA(d time.Duration) string {
	if d <= 0 {
		return etaDone
	}
	d = d.Round(time.Second)
	if d < time.Second {
		d = time.Second
	}
	base := time.Unix(0, 0)
	return strings.TrimSpace(humanize.RelTime(base, base.Add(d), "", ""))
}
