package service

import (
	"context"
	"strings"

	"github.com/MimeLyc/yt-transcript-extractor/internal/apperr"
	"github.com/MimeLyc/yt-transcript-extractor/internal/metrics"
	"github.com/MimeLyc/yt-transcript-extractor/internal/remote"
	"github.com/MimeLyc/yt-transcript-extractor/pkg/log"
)

type SummaryFetcher interface {
	Summarize(ctx context.Context, url string) (*remote.SummaryResponse, error)
}

// Summarizer asks the remote service for a summary of one video. Results
// are neither cached nor retried.
type Summarizer struct {
	fetcher SummaryFetcher
}

func NewSummarizer(fetcher SummaryFetcher) *Summarizer {
	return &Summarizer{fetcher: fetcher}
}

func (s *Summarizer) Summarize(ctx context.Context, url string) (string, error) {
	resp, err := s.fetcher.Summarize(ctx, url)
	metrics.Metrics.SummariesTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		log.Error("Failed to summarize %s: %v", url, err)
		return "", apperr.Summary(url, err)
	}
	return strings.TrimSpace(resp.Summary), nil
}
