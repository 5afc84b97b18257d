package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MimeLyc/yt-transcript-extractor/internal/apperr"
	"github.com/MimeLyc/yt-transcript-extractor/internal/metrics"
	"github.com/MimeLyc/yt-transcript-extractor/internal/remote"
	"github.com/MimeLyc/yt-transcript-extractor/internal/subtitle"
	"github.com/MimeLyc/yt-transcript-extractor/internal/transcript"
	"github.com/MimeLyc/yt-transcript-extractor/internal/youtube"
	"github.com/MimeLyc/yt-transcript-extractor/pkg/log"
	"golang.org/x/text/language"
)

const DefaultTitle = "Video Title"

var ErrExtractionInFlight = errors.New("an extraction is already in flight for this session")

// TranscriptFetcher retrieves one transcript from the remote service.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, url string) (*remote.TranscriptResponse, error)
}

// Event is emitted once per attempted URL.
type Event struct {
	URL        string
	Transcript *transcript.Transcript
	Err        error
}

type Orchestrator struct {
	fetcher TranscriptFetcher
	now     func() time.Time

	mu           sync.RWMutex
	defaultTitle string
}

type OrchestratorOption func(*Orchestrator)

func WithDefaultTitle(title string) OrchestratorOption {
	return func(o *Orchestrator) {
		if title != "" {
			o.defaultTitle = title
		}
	}
}

func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// SetDefaultTitle changes the placeholder used for transcripts without a title.
func (o *Orchestrator) SetDefaultTitle(title string) {
	if title == "" {
		return
	}
	o.mu.Lock()
	o.defaultTitle = title
	o.mu.Unlock()
}

func (o *Orchestrator) DefaultTitle() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.defaultTitle
}

func NewOrchestrator(fetcher TranscriptFetcher, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		fetcher:      fetcher,
		defaultTitle: DefaultTitle,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Extract retrieves every URL of req sequentially and records the results
// on sess. The returned channel yields one event per attempted URL and is
// closed once the session is idle again.
func (o *Orchestrator) Extract(
	ctx context.Context,
	sess *Session,
	req youtube.ExtractionRequest,
) (<-chan Event, error) {
	if len(req.URLs) == 0 {
		return nil, apperr.New(apperr.ErrEmptyInput, "no URLs to extract")
	}
	if !sess.begin(len(req.URLs), o.now()) {
		return nil, apperr.NewWithCause(apperr.ErrConflict, "extraction rejected", ErrExtractionInFlight).
			WithContext("session", sess.ID)
	}

	events := make(chan Event, len(req.URLs)+1)
	go func() {
		defer close(events)
		defer sess.finish()

		metrics.Metrics.ExtractionsActive.Inc()
		defer metrics.Metrics.ExtractionsActive.Dec()

		log.Info("Extracting %d %s URL(s) for session %s", len(req.URLs), req.Type, sess.ID)
		for _, url := range req.URLs {
			if err := ctx.Err(); err != nil {
				log.Warn("Extraction for session %s stopped: %v", sess.ID, err)
				events <- Event{URL: url, Err: err}
				return
			}

			t, err := o.retrieve(ctx, url)
			sess.advance(err != nil, o.now())
			if err != nil {
				sess.recordFailure(newFailure(url, err))
				log.Error("Failed to retrieve transcript for %s: %v", url, err)
				events <- Event{URL: url, Err: err}
				continue
			}

			sess.add(*t)
			log.Debug("Retrieved transcript %s (%d segments)", t.ID, len(t.Content))
			events <- Event{URL: url, Transcript: t}
		}

		p := sess.Progress()
		log.Info("Extraction for session %s done: %d processed, %d failed", sess.ID, p.ProcessedCount, p.FailedCount)
	}()

	return events, nil
}

func (o *Orchestrator) retrieve(ctx context.Context, url string) (*transcript.Transcript, error) {
	start := time.Now()
	resp, err := o.fetcher.FetchTranscript(ctx, url)
	metrics.Metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	metrics.Metrics.RetrievalsTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, apperr.Retrieval(url, err)
	}

	ret := &transcript.Transcript{
		ID:      resp.VideoID,
		Title:   resp.Title,
		Content: resp.Segments,
		URL:     url,
	}
	if ret.ID == "" {
		if id, ok := youtube.VideoID(url); ok {
			ret.ID = id
		} else {
			ret.ID = url
		}
	}
	if ret.Title == "" {
		ret.Title = o.DefaultTitle()
	}
	if tag := subtitle.DetectLanguage(transcript.Texts(resp.Segments)); tag != language.Und {
		ret.Language = tag.String()
	}
	return ret, nil
}
