package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/yt-transcript-extractor/internal/remote"
)

// fakeRemote serves canned /transcript and /summarize replies keyed by URL.
type fakeRemote struct {
	mu         sync.Mutex
	transcript map[string]string
	summaries  map[string]string
	failing    map[string]int
	calls      []string
	block      chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		transcript: make(map[string]string),
		summaries:  make(map[string]string),
		failing:    make(map[string]int),
	}
}

func (f *fakeRemote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req remote.URLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, r.URL.Path+" "+req.URL)
	status, failing := f.failing[req.URL]
	body := f.transcript[req.URL]
	if r.URL.Path == "/summarize" {
		body = f.summaries[req.URL]
	}
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-r.Context().Done():
			return
		}
	}
	if failing {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"detail":"upstream failure"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newRemoteClient(t *testing.T, handler http.Handler) *remote.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := remote.NewClient(&remote.Config{BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var ret []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return ret
			}
			ret = append(ret, ev)
		case <-timeout:
			t.Fatal("extraction did not finish")
			return nil
		}
	}
}
