package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MimeLyc/yt-transcript-extractor/internal/jobs"
	"github.com/MimeLyc/yt-transcript-extractor/internal/youtube"
)

var ErrSessionExpired = errors.New("session expired")

// NewExtractionExecutor runs queued extraction jobs against the session they
// were submitted from. A job fails when its session is gone or when every
// URL of the batch failed.
func NewExtractionExecutor(sessions *Sessions, orchestrator *Orchestrator) jobs.Executor {
	return func(ctx context.Context, job *jobs.ExtractionJob, report jobs.ProgressFunc) error {
		sess, ok := sessions.Lookup(job.SessionID)
		if !ok {
			return ErrSessionExpired
		}

		events, err := orchestrator.Extract(ctx, sess, youtube.ExtractionRequest{
			URLs: job.Payload.URLs,
			Type: youtube.URLKind(job.Payload.Type),
		})
		if err != nil {
			return err
		}

		var processed int
		var failures []jobs.Failure
		var lastErr error
		for ev := range events {
			if errors.Is(ev.Err, context.Canceled) || errors.Is(ev.Err, context.DeadlineExceeded) {
				return ev.Err
			}
			processed++
			if ev.Err != nil {
				failures = append(failures, newFailure(ev.URL, ev.Err))
				lastErr = ev.Err
			}
			report(processed, failures)
		}

		if processed > 0 && len(failures) == processed {
			return fmt.Errorf("all %d URL(s) failed: %w", len(failures), lastErr)
		}
		return nil
	}
}
