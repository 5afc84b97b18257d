package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/yt-transcript-extractor/internal/apperr"
	"github.com/MimeLyc/yt-transcript-extractor/internal/transcript"
	"github.com/MimeLyc/yt-transcript-extractor/internal/youtube"
)

const (
	urlA = "https://www.youtube.com/watch?v=aaaaaaaaaaa"
	urlB = "https://youtu.be/bbbbbbbbbbb"
	urlC = "https://youtu.be/ccccccccccc"
)

func videoRequest(urls ...string) youtube.ExtractionRequest {
	return youtube.ExtractionRequest{URLs: urls, Type: youtube.KindVideo}
}

func TestOrchestrator_ExtractsAllURLsInOrder(t *testing.T) {
	fake := newFakeRemote()
	fake.transcript[urlA] = `{"video_id":"aaaaaaaaaaa","title":"First talk","transcript":[
		{"text":"The quick brown fox jumps over the lazy dog while the farmer watches from the porch","start":0,"duration":2.5},
		{"text":"Everyone in the village agreed that the weather had been unusually warm this year","start":2.5,"duration":3}
	]}`
	fake.transcript[urlB] = `{"video_id":"bbbbbbbbbbb","transcript":"line one\nline two"}`

	orch := NewOrchestrator(newRemoteClient(t, fake))
	sess := NewSession("s1", time.Now())

	events, err := orch.Extract(context.Background(), sess, videoRequest(urlA, urlB))
	require.NoError(t, err)
	got := collect(t, events)

	require.Len(t, got, 2)
	for _, ev := range got {
		require.NoError(t, ev.Err)
	}
	assert.Equal(t, []string{"/transcript " + urlA, "/transcript " + urlB}, fake.Calls())

	results := sess.Transcripts()
	require.Len(t, results, 2)
	assert.Equal(t, "aaaaaaaaaaa", results[0].ID)
	assert.Equal(t, "First talk", results[0].Title)
	assert.Equal(t, urlA, results[0].URL)
	assert.Equal(t, "en", results[0].Language)
	assert.True(t, results[0].Content[0].HasTiming)

	assert.Equal(t, "bbbbbbbbbbb", results[1].ID)
	assert.Equal(t, DefaultTitle, results[1].Title)
	assert.Equal(t, "line one\nline two", transcript.Filter(results[1].Content, transcript.FilterSettings{}))

	p := sess.Progress()
	assert.False(t, p.IsProcessing)
	assert.Equal(t, 2, p.ProcessedCount)
	assert.Equal(t, 2, p.TotalCount)
	assert.Equal(t, 100, p.Progress)
	assert.Equal(t, "0 seconds", p.EstimatedTimeRemaining)
}

func TestOrchestrator_RetrievalFailureKeepsResults(t *testing.T) {
	fake := newFakeRemote()
	fake.transcript[urlA] = `{"video_id":"aaaaaaaaaaa","title":"Kept","transcript":"hello"}`
	fake.failing[urlB] = http.StatusInternalServerError

	orch := NewOrchestrator(newRemoteClient(t, fake))
	sess := NewSession("s1", time.Now())

	events, err := orch.Extract(context.Background(), sess, videoRequest(urlA))
	require.NoError(t, err)
	collect(t, events)
	before := sess.Transcripts()
	require.Len(t, before, 1)

	events, err = orch.Extract(context.Background(), sess, videoRequest(urlB))
	require.NoError(t, err)
	got := collect(t, events)

	require.Len(t, got, 1)
	require.Error(t, got[0].Err)
	assert.True(t, apperr.IsErrorType(got[0].Err, apperr.ErrRetrieval))

	var appErr *apperr.Error
	require.True(t, errors.As(got[0].Err, &appErr))
	assert.Equal(t, urlB, appErr.URL())

	assert.Equal(t, before, sess.Transcripts())
	p := sess.Progress()
	assert.False(t, p.IsProcessing)
	assert.Equal(t, 1, p.ProcessedCount)
	assert.Equal(t, 1, p.FailedCount)

	failures := sess.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, urlB, failures[0].URL)
	assert.Equal(t, "Retrieval", failures[0].Kind)

	events, err = orch.Extract(context.Background(), sess, videoRequest(urlA))
	require.NoError(t, err)
	collect(t, events)
	assert.Empty(t, sess.Failures())
}

func TestOrchestrator_ContinuesAfterFailure(t *testing.T) {
	fake := newFakeRemote()
	fake.failing[urlA] = http.StatusNotFound
	fake.transcript[urlB] = `{"video_id":"bbbbbbbbbbb","transcript":"b"}`
	fake.transcript[urlC] = `{"transcript":"c"}`

	orch := NewOrchestrator(newRemoteClient(t, fake), WithDefaultTitle("Untitled"))
	sess := NewSession("s1", time.Now())

	events, err := orch.Extract(context.Background(), sess, videoRequest(urlA, urlB, urlC))
	require.NoError(t, err)
	got := collect(t, events)

	require.Len(t, got, 3)
	assert.Error(t, got[0].Err)
	assert.NoError(t, got[1].Err)
	assert.NoError(t, got[2].Err)

	results := sess.Transcripts()
	require.Len(t, results, 2)
	assert.Equal(t, "ccccccccccc", results[1].ID)
	assert.Equal(t, "Untitled", results[1].Title)
	assert.Equal(t, 3, sess.Progress().ProcessedCount)
}

func TestOrchestrator_ReplacesExistingTranscript(t *testing.T) {
	fake := newFakeRemote()
	fake.transcript[urlA] = `{"video_id":"aaaaaaaaaaa","title":"Old","transcript":"v1"}`
	orch := NewOrchestrator(newRemoteClient(t, fake))
	sess := NewSession("s1", time.Now())

	events, err := orch.Extract(context.Background(), sess, videoRequest(urlA))
	require.NoError(t, err)
	collect(t, events)
	sess.SetSummary("aaaaaaaaaaa", "old summary")

	fake.mu.Lock()
	fake.transcript[urlA] = `{"video_id":"aaaaaaaaaaa","title":"New","transcript":"v2"}`
	fake.mu.Unlock()

	events, err = orch.Extract(context.Background(), sess, videoRequest(urlA))
	require.NoError(t, err)
	collect(t, events)

	results := sess.Transcripts()
	require.Len(t, results, 1)
	assert.Equal(t, "New", results[0].Title)
	assert.Empty(t, sess.Summary("aaaaaaaaaaa"))
}

func TestOrchestrator_RejectsOverlappingExtraction(t *testing.T) {
	fake := newFakeRemote()
	fake.transcript[urlA] = `{"video_id":"aaaaaaaaaaa","transcript":"a"}`
	fake.block = make(chan struct{})

	orch := NewOrchestrator(newRemoteClient(t, fake))
	sess := NewSession("s1", time.Now())

	events, err := orch.Extract(context.Background(), sess, videoRequest(urlA))
	require.NoError(t, err)
	assert.True(t, sess.IsProcessing())

	_, err = orch.Extract(context.Background(), sess, videoRequest(urlA))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionInFlight)
	assert.True(t, apperr.IsErrorType(err, apperr.ErrConflict))

	assert.Error(t, sess.Reset())

	close(fake.block)
	collect(t, events)
	assert.False(t, sess.IsProcessing())
	require.NoError(t, sess.Reset())
	assert.Empty(t, sess.Transcripts())
}

func TestOrchestrator_EmptyRequest(t *testing.T) {
	orch := NewOrchestrator(newRemoteClient(t, newFakeRemote()))
	sess := NewSession("s1", time.Now())

	_, err := orch.Extract(context.Background(), sess, videoRequest())
	require.Error(t, err)
	assert.True(t, apperr.IsErrorType(err, apperr.ErrEmptyInput))
	assert.False(t, sess.IsProcessing())
}

func TestOrchestrator_StopsOnCancelledContext(t *testing.T) {
	fake := newFakeRemote()
	orch := NewOrchestrator(newRemoteClient(t, fake))
	sess := NewSession("s1", time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events, err := orch.Extract(ctx, sess, videoRequest(urlA, urlB))
	require.NoError(t, err)
	got := collect(t, events)

	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, context.Canceled)
	assert.Empty(t, fake.Calls())
	assert.False(t, sess.IsProcessing())
}

func TestOrchestrator_SetDefaultTitle(t *testing.T) {
	fake := newFakeRemote()
	fake.transcript[urlA] = `{"transcript":"a"}`
	orch := NewOrchestrator(newRemoteClient(t, fake))
	assert.Equal(t, DefaultTitle, orch.DefaultTitle())

	orch.SetDefaultTitle("")
	assert.Equal(t, DefaultTitle, orch.DefaultTitle())

	orch.SetDefaultTitle("Untitled video")
	sess := NewSession("s1", time.Now())
	events, err := orch.Extract(context.Background(), sess, videoRequest(urlA))
	require.NoError(t, err)
	collect(t, events)

	results := sess.Transcripts()
	require.Len(t, results, 1)
	assert.Equal(t, "Untitled video", results[0].Title)
}
